// Package ppc produces posterior predictive check data: density-overlay
// subsamples of replicated outcome vectors and test-statistic replications,
// both derived read-only from a candidate's predictive sample matrix.
package ppc

import (
	"fmt"
	"math/rand"

	"modelcheck/domain/core"
	"modelcheck/domain/model"
	"modelcheck/domain/report"
)

// OverlaySubsample draws a fixed-size random subsample of posterior
// predictive outcome vectors, without replacement, and packages it with the
// observed vector for density-overlay visualization. Randomness comes from
// the injected source so a fixed seed reproduces the same selection. The
// underlying predictive matrix is never mutated; all outputs are copies.
func OverlaySubsample(c *model.Candidate, size int, rng *rand.Rand) (report.OverlayData, error) {
	if c.Predictive == nil {
		return report.OverlayData{}, fmt.Errorf("model %q has no predictive samples", c.Spec.Name)
	}
	draws, n := c.Predictive.Dims()
	if size <= 0 || size > draws {
		return report.OverlayData{}, fmt.Errorf("model %q: %w (%d requested, %d draws)",
			c.Spec.Name, core.ErrSubsampleSize, size, draws)
	}
	if n != len(c.Observed) {
		return report.OverlayData{}, fmt.Errorf("model %q: %w", c.Spec.Name, core.ErrObservationSize)
	}

	rows := rng.Perm(draws)[:size]
	replicates := make([][]float64, size)
	for r, s := range rows {
		row := make([]float64, n)
		for i := 0; i < n; i++ {
			row[i] = c.Predictive.At(s, i)
		}
		replicates[r] = row
	}

	observed := make([]float64, n)
	copy(observed, c.Observed)

	return report.OverlayData{
		Model:      c.Spec.Name,
		Observed:   observed,
		Replicates: replicates,
	}, nil
}

// GroupedOverlay stratifies the overlay comparison by a covariate-derived
// grouping: each bin of the scheme yields one subsample/observed pair over
// the observations falling in that bin. The bins partition the observation
// index set exactly.
func GroupedOverlay(c *model.Candidate, covariate []float64, scheme Grouping, size int, rng *rand.Rand) ([]report.OverlayData, error) {
	if len(covariate) != len(c.Observed) {
		return nil, fmt.Errorf("model %q: covariate has %d values for %d observations",
			c.Spec.Name, len(covariate), len(c.Observed))
	}

	groups, err := scheme.Assign(covariate)
	if err != nil {
		return nil, err
	}

	whole, err := OverlaySubsample(c, size, rng)
	if err != nil {
		return nil, err
	}

	overlays := make([]report.OverlayData, 0, len(groups))
	for _, g := range groups {
		observed := make([]float64, len(g.Indices))
		for j, idx := range g.Indices {
			observed[j] = whole.Observed[idx]
		}

		replicates := make([][]float64, len(whole.Replicates))
		for r, row := range whole.Replicates {
			sub := make([]float64, len(g.Indices))
			for j, idx := range g.Indices {
				sub[j] = row[idx]
			}
			replicates[r] = sub
		}

		overlays = append(overlays, report.OverlayData{
			Model:      c.Spec.Name,
			Group:      g.Label,
			Observed:   observed,
			Replicates: replicates,
		})
	}
	return overlays, nil
}

// CheckStatistic computes a scalar summary on the observed outcome vector
// and on every posterior predictive draw, yielding the reference value and
// the distribution of replicated values. The observed side is deterministic:
// the same statistic over the same vector always gives the same number.
func CheckStatistic(c *model.Candidate, statistic Statistic) (report.StatCheckData, error) {
	if c.Predictive == nil {
		return report.StatCheckData{}, fmt.Errorf("model %q has no predictive samples", c.Spec.Name)
	}
	draws, n := c.Predictive.Dims()
	if n != len(c.Observed) {
		return report.StatCheckData{}, fmt.Errorf("model %q: %w", c.Spec.Name, core.ErrObservationSize)
	}

	observed, err := statistic.Fn(c.Observed)
	if err != nil {
		return report.StatCheckData{}, fmt.Errorf("model %q: statistic %q on observed data: %w",
			c.Spec.Name, statistic.Name, err)
	}

	replicated := make([]float64, draws)
	row := make([]float64, n)
	for s := 0; s < draws; s++ {
		for i := 0; i < n; i++ {
			row[i] = c.Predictive.At(s, i)
		}
		v, err := statistic.Fn(row)
		if err != nil {
			return report.StatCheckData{}, fmt.Errorf("model %q: statistic %q on draw %d: %w",
				c.Spec.Name, statistic.Name, s, err)
		}
		replicated[s] = v
	}

	return report.StatCheckData{
		Model:      c.Spec.Name,
		Statistic:  statistic.Name,
		Observed:   observed,
		Replicated: replicated,
	}, nil
}
