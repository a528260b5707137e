package loo

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"modelcheck/domain/model"
)

// Estimate is one candidate's PSIS-LOO result. Pointwise values are kept so
// model comparisons can pair observations when computing difference SEs.
type Estimate struct {
	ELPD      float64   // sum of pointwise elpd
	SE        float64   // sqrt(n * var(pointwise))
	PLoo      float64   // effective number of parameters
	Pointwise []float64 // per-observation elpd
	ParetoK   []float64 // per-observation tail shape diagnostic
}

// BadObservations counts observations whose Pareto k exceeds the
// reliability threshold.
func (e Estimate) BadObservations() int {
	count := 0
	for _, k := range e.ParetoK {
		if k > ParetoKThreshold {
			count++
		}
	}
	return count
}

// MaxParetoK returns the worst tail shape across observations
func (e Estimate) MaxParetoK() float64 {
	max := math.Inf(-1)
	for _, k := range e.ParetoK {
		if k > max {
			max = k
		}
	}
	return max
}

// EstimateELPD computes the PSIS-LOO expected log predictive density from a
// candidate's pointwise log-likelihood matrix (draws x observations). A
// non-nil warning is returned alongside the estimate when the importance
// sampling approximation is unreliable for some observations; the estimate
// itself remains usable and the caller must surface the warning.
func EstimateELPD(c *model.Candidate) (Estimate, *model.Warning, error) {
	ll := c.Posterior.PointwiseLogLik()
	if ll == nil {
		return Estimate{}, nil, fmt.Errorf("model %q: posterior has no pointwise log-likelihood", c.Spec.Name)
	}
	draws, n := ll.Dims()
	if n != len(c.Observed) {
		return Estimate{}, nil, fmt.Errorf("model %q: log-likelihood has %d columns for %d observations",
			c.Spec.Name, n, len(c.Observed))
	}

	est := Estimate{
		Pointwise: make([]float64, n),
		ParetoK:   make([]float64, n),
	}

	col := make([]float64, draws)
	weighted := make([]float64, draws)
	lpdTotal := 0.0
	logDraws := math.Log(float64(draws))

	for i := 0; i < n; i++ {
		mat.Col(col, i, ll)

		sw, err := psis(col)
		if err != nil {
			return Estimate{}, nil, fmt.Errorf("model %q observation %d: %w", c.Spec.Name, i, err)
		}
		est.ParetoK[i] = sw.ParetoK

		// elpd_i = log( sum_s w_s exp(ll_si) ) - log( sum_s w_s )
		for s := 0; s < draws; s++ {
			weighted[s] = sw.LogWeights[s] + col[s]
		}
		est.Pointwise[i] = floats.LogSumExp(weighted) - floats.LogSumExp(sw.LogWeights)

		// lpd_i = log mean exp(ll_si), for the effective parameter count
		lpdTotal += floats.LogSumExp(col) - logDraws
	}

	est.ELPD = floats.Sum(est.Pointwise)
	est.SE = math.Sqrt(float64(n) * stat.Variance(est.Pointwise, nil))
	est.PLoo = lpdTotal - est.ELPD

	if bad := est.BadObservations(); bad > 0 {
		w := model.NewEstimationWarning(c.Spec.Name, bad, est.MaxParetoK())
		return est, &w, nil
	}
	return est, nil, nil
}
