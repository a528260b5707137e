package model

import (
	"fmt"
	"strings"

	"gonum.org/v1/gonum/mat"

	"modelcheck/domain/core"
)

// Family identifies the response distribution of a candidate model
type Family string

const (
	FamilyGaussian Family = "gaussian"
	FamilyBinomial Family = "binomial"
)

// ResponseRange optionally constrains valid response values (e.g. vote
// shares must lie strictly inside (0, 1)). A nil range means unconstrained.
type ResponseRange struct {
	Lo float64 `json:"lo"`
	Hi float64 `json:"hi"`
}

// Spec declares one candidate model: a response term, its family, and the
// predictor terms entering the linear predictor. An intercept is always
// included.
type Spec struct {
	Name       core.ModelName     `json:"name"`
	Response   core.VariableKey   `json:"response"`
	Family     Family             `json:"family"`
	Predictors []core.VariableKey `json:"predictors"`
	Range      *ResponseRange     `json:"range,omitempty"`
}

// Validate checks the spec is structurally usable before any data touches it
func (s Spec) Validate() error {
	if strings.TrimSpace(s.Name.String()) == "" {
		return fmt.Errorf("model spec needs a name")
	}
	if strings.TrimSpace(s.Response.String()) == "" {
		return fmt.Errorf("model %q: response term is empty", s.Name)
	}
	if len(s.Predictors) == 0 {
		return fmt.Errorf("model %q: %w", s.Name, core.ErrEmptySpec)
	}
	switch s.Family {
	case FamilyGaussian, FamilyBinomial:
	default:
		return fmt.Errorf("model %q: %w %q", s.Name, core.ErrUnknownFamily, s.Family)
	}
	return nil
}

// Formula renders the spec in conventional response ~ terms notation
func (s Spec) Formula() string {
	terms := make([]string, len(s.Predictors))
	for i, p := range s.Predictors {
		terms[i] = p.String()
	}
	return fmt.Sprintf("%s ~ %s", s.Response, strings.Join(terms, " + "))
}

// Hash fingerprints the spec for run manifests
func (s Spec) Hash() core.SpecHash {
	preds := make([]string, len(s.Predictors))
	for i, p := range s.Predictors {
		preds[i] = p.String()
	}
	return core.NewSpecHash(s.Response.String(), string(s.Family), preds)
}

// FitOptions controls the stochastic side of a fit. Seed selects the
// deterministic random stream; identical options and data give identical
// posteriors.
type FitOptions struct {
	Draws      int     `json:"draws"`       // posterior draws (default 2000)
	Seed       int64   `json:"seed"`        // RNG stream seed
	PriorScale float64 `json:"prior_scale"` // coefficient prior sd for binomial fits (default 2.5)
	MaxIter    int     `json:"max_iter"`    // IRLS iteration cap (default 100)
}

// DefaultFitOptions returns the fit options used when the caller passes zeroes
func DefaultFitOptions() FitOptions {
	return FitOptions{Draws: 2000, Seed: 1, PriorScale: 2.5, MaxIter: 100}
}

// Normalize fills unset fields with defaults
func (o FitOptions) Normalize() FitOptions {
	def := DefaultFitOptions()
	if o.Draws <= 0 {
		o.Draws = def.Draws
	}
	if o.PriorScale <= 0 {
		o.PriorScale = def.PriorScale
	}
	if o.MaxIter <= 0 {
		o.MaxIter = def.MaxIter
	}
	return o
}

// Posterior is the opaque fitted posterior owned by the fitting adapter.
// It exposes exactly the capabilities the comparator and checker need, so
// the backend can be swapped or mocked without touching either.
type Posterior interface {
	// PredictiveDraws simulates outcome vectors for the given covariate rows.
	// The result has one row per posterior draw and one column per input row.
	PredictiveDraws(rows *mat.Dense) (*mat.Dense, error)

	// PointwiseLogLik returns the draws x observations matrix of pointwise
	// log-likelihood values on the fitting data.
	PointwiseLogLik() *mat.Dense

	// Draws returns the number of posterior draws held
	Draws() int
}

// Candidate pairs a spec with its fitted posterior and per-candidate derived
// quantities. The predictive sample matrix is exclusively owned: it is
// produced fresh by the fit and never shared across candidates.
type Candidate struct {
	Spec       Spec
	Posterior  Posterior
	Predictive *mat.Dense // draws x observations, outcome replicates on the fitting data
	Observed   []float64  // response vector the model was fit to
	Warnings   []Warning
}

// Observations returns the number of observations the candidate was fit on
func (c *Candidate) Observations() int {
	return len(c.Observed)
}
