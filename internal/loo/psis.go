// Package loo estimates leave-one-out expected log predictive density via
// Pareto-smoothed importance sampling and ranks candidate models by it.
package loo

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
)

const (
	// minTailLength below which the generalized Pareto fit is skipped and
	// raw importance weights are used as-is.
	minTailLength = 5

	// ParetoKThreshold is the reliability cut for the tail shape diagnostic.
	// Observations above it make the LOO approximation untrustworthy.
	ParetoKThreshold = 0.7
)

// smoothedWeights holds the per-observation PSIS result: shifted log weights
// aligned with the posterior draws and the fitted Pareto tail shape.
type smoothedWeights struct {
	LogWeights []float64
	ParetoK    float64
}

// psis computes Pareto-smoothed importance weights from one observation's
// log-likelihood column. The raw log ratios are the negated log-likelihood
// values; the largest 20% (capped at 3*sqrt(S)) form the tail that gets
// replaced by expected generalized Pareto order statistics.
func psis(logLik []float64) (smoothedWeights, error) {
	s := len(logLik)
	if s < 2 {
		return smoothedWeights{}, fmt.Errorf("need at least 2 draws, got %d", s)
	}

	lw := make([]float64, s)
	for i, ll := range logLik {
		lw[i] = -ll
	}
	shift := floats.Max(lw)
	for i := range lw {
		lw[i] -= shift
	}

	tailLen := int(math.Ceil(math.Min(0.2*float64(s), 3*math.Sqrt(float64(s)))))
	if tailLen < minTailLength {
		// Too few draws to characterize the tail; report an unusable shape
		// so callers surface the estimation caveat instead of hiding it.
		return smoothedWeights{LogWeights: lw, ParetoK: math.Inf(1)}, nil
	}

	order := make([]int, s)
	for i := range order {
		order[i] = i
	}
	sort.Slice(order, func(a, b int) bool { return lw[order[a]] < lw[order[b]] })

	cutoffIdx := order[s-tailLen-1]
	cutoff := math.Exp(lw[cutoffIdx])

	exceedances := make([]float64, tailLen)
	for j := 0; j < tailLen; j++ {
		exceedances[j] = math.Exp(lw[order[s-tailLen+j]]) - cutoff
	}

	k, sigma := fitGeneralizedPareto(exceedances)
	if !math.IsInf(k, 0) && sigma > 0 {
		// Replace tail weights with expected order statistics of the fitted
		// tail distribution, then truncate at the raw maximum (which is 0
		// after the shift).
		for j := 0; j < tailLen; j++ {
			q := (float64(j) + 0.5) / float64(tailLen)
			smoothed := math.Log(gpdQuantile(q, k, sigma) + cutoff)
			if smoothed > 0 {
				smoothed = 0
			}
			lw[order[s-tailLen+j]] = smoothed
		}
	}

	return smoothedWeights{LogWeights: lw, ParetoK: k}, nil
}

// fitGeneralizedPareto estimates the shape k and scale sigma of a
// generalized Pareto distribution over positive exceedances using the
// Zhang-Stephens profile posterior method, with the usual weakly
// informative shape regularization for small tails.
func fitGeneralizedPareto(x []float64) (k, sigma float64) {
	n := len(x)
	if n == 0 {
		return math.Inf(1), 0
	}

	sorted := make([]float64, n)
	copy(sorted, x)
	sort.Float64s(sorted)

	if sorted[n-1] <= 0 {
		return math.Inf(1), 0
	}

	quartIdx := int(float64(n)/4+0.5) - 1
	if quartIdx < 0 {
		quartIdx = 0
	}
	xStar := sorted[quartIdx]
	if xStar <= 0 {
		xStar = sorted[n-1] / float64(n)
	}

	m := 30 + int(math.Sqrt(float64(n)))
	theta := make([]float64, m)
	profLik := make([]float64, m)
	for j := 0; j < m; j++ {
		theta[j] = 1/sorted[n-1] + (1-math.Sqrt(float64(m)/(float64(j)+0.5)))/(3*xStar)
		kj := -meanLog1pNegProduct(theta[j], sorted)
		profLik[j] = float64(n) * (math.Log(theta[j]/kj) + kj - 1)
	}

	// Normalized posterior weights over the theta grid
	thetaHat := 0.0
	for j := 0; j < m; j++ {
		denom := 0.0
		for l := 0; l < m; l++ {
			denom += math.Exp(profLik[l] - profLik[j])
		}
		thetaHat += theta[j] / denom
	}

	k = meanLog1pNegProduct(thetaHat, sorted)
	sigma = -k / thetaHat

	// Weakly informative prior on k stabilizes small-tail estimates
	k = (float64(n)*k + 10*0.5) / (float64(n) + 10)

	if math.IsNaN(k) || math.IsNaN(sigma) || sigma <= 0 {
		return math.Inf(1), 0
	}
	return k, sigma
}

// meanLog1pNegProduct computes mean(log(1 - theta*x_i)); in this
// parametrization it is the profile estimate of the shape for a fixed theta.
func meanLog1pNegProduct(theta float64, x []float64) float64 {
	sum := 0.0
	for _, v := range x {
		sum += math.Log1p(-theta * v)
	}
	return sum / float64(len(x))
}

// gpdQuantile inverts the generalized Pareto CDF in the (k, sigma)
// parametrization used by the fit.
func gpdQuantile(p, k, sigma float64) float64 {
	if math.Abs(k) < 1e-12 {
		return -sigma * math.Log1p(-p)
	}
	return sigma * math.Expm1(-k*math.Log1p(-p)) / k
}
