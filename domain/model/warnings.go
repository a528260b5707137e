package model

import (
	"fmt"

	"modelcheck/domain/core"
)

// WarningCode classifies non-fatal diagnostics. Warnings are collected and
// attached to the relevant report section, never silently discarded.
type WarningCode string

const (
	// WarnConvergence: the fit's mode search hit its iteration cap or showed
	// poor curvature; results remain usable but should be read with care.
	WarnConvergence WarningCode = "fit_convergence"

	// WarnEstimation: the importance-sampling LOO approximation is unreliable
	// for some observations (heavy-tailed weights, Pareto k above threshold).
	WarnEstimation WarningCode = "elpd_estimation"

	// WarnTimeout: a fit exceeded its optional time budget and was reported
	// from partial progress.
	WarnTimeout WarningCode = "fit_timeout"
)

// Warning is one surfaced diagnostic tied to a candidate model
type Warning struct {
	Code    WarningCode    `json:"code"`
	Model   core.ModelName `json:"model"`
	Message string         `json:"message"`
}

func (w Warning) String() string {
	return fmt.Sprintf("[%s] %s: %s", w.Code, w.Model, w.Message)
}

// NewConvergenceWarning reports an incomplete mode search
func NewConvergenceWarning(name core.ModelName, iterations int) Warning {
	return Warning{
		Code:    WarnConvergence,
		Model:   name,
		Message: fmt.Sprintf("mode search did not converge within %d iterations", iterations),
	}
}

// NewEstimationWarning reports unreliable LOO importance weights
func NewEstimationWarning(name core.ModelName, badObs int, maxK float64) Warning {
	return Warning{
		Code:    WarnEstimation,
		Model:   name,
		Message: fmt.Sprintf("PSIS-LOO unreliable for %d observation(s), max Pareto k = %.2f", badObs, maxK),
	}
}

// NewTimeoutWarning reports a fit that ran out of its time budget
func NewTimeoutWarning(name core.ModelName) Warning {
	return Warning{
		Code:    WarnTimeout,
		Model:   name,
		Message: "fit exceeded its time budget; results computed from partial progress",
	}
}
