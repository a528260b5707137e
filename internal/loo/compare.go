package loo

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"

	"modelcheck/domain/core"
	"modelcheck/domain/model"
	"modelcheck/domain/report"
)

// Compare ranks candidate models by PSIS-LOO ELPD. The table has exactly one
// row per candidate, ordered by descending ELPD; the top row's delta is zero
// and every other row carries its difference from the top with the paired
// standard error of that difference. Estimation warnings are attached to the
// table, never dropped: statistically indistinguishable candidates stay in
// ranked order with their raw numbers for the reader to interpret.
func Compare(candidates ...*model.Candidate) (report.ComparisonTable, error) {
	if len(candidates) == 0 {
		return report.ComparisonTable{}, core.ErrNoCandidates
	}

	n := candidates[0].Observations()
	type ranked struct {
		candidate *model.Candidate
		estimate  Estimate
	}

	entries := make([]ranked, 0, len(candidates))
	var warnings []model.Warning

	for _, c := range candidates {
		if c.Observations() != n {
			return report.ComparisonTable{}, fmt.Errorf(
				"model %q was fit on %d observations, model %q on %d; compared models must share a dataset",
				candidates[0].Spec.Name, n, c.Spec.Name, c.Observations())
		}
		if c.Spec.Response != candidates[0].Spec.Response {
			return report.ComparisonTable{}, fmt.Errorf(
				"model %q predicts %q, model %q predicts %q; ELPD is only comparable for a shared outcome",
				candidates[0].Spec.Name, candidates[0].Spec.Response, c.Spec.Name, c.Spec.Response)
		}
		est, warn, err := EstimateELPD(c)
		if err != nil {
			return report.ComparisonTable{}, err
		}
		if warn != nil {
			warnings = append(warnings, *warn)
		}
		entries = append(entries, ranked{candidate: c, estimate: est})
	}

	sort.SliceStable(entries, func(a, b int) bool {
		return entries[a].estimate.ELPD > entries[b].estimate.ELPD
	})

	best := entries[0].estimate
	rows := make([]report.ComparisonRow, len(entries))
	diff := make([]float64, n)

	for i, e := range entries {
		row := report.ComparisonRow{
			Model:   e.candidate.Spec.Name,
			Formula: e.candidate.Spec.Formula(),
			ELPD:    e.estimate.ELPD,
			SE:      e.estimate.SE,
			PLoo:    e.estimate.PLoo,
		}
		if i > 0 {
			row.Delta = e.estimate.ELPD - best.ELPD
			for j := 0; j < n; j++ {
				diff[j] = e.estimate.Pointwise[j] - best.Pointwise[j]
			}
			row.DeltaSE = math.Sqrt(float64(n) * stat.Variance(diff, nil))
		}
		rows[i] = row
	}

	return report.ComparisonTable{Rows: rows, Warnings: warnings}, nil
}
