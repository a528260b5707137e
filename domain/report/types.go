package report

import (
	"time"

	"modelcheck/domain/core"
	"modelcheck/domain/model"
)

// ComparisonRow is one candidate's entry in the ELPD ranking. Delta and
// DeltaSE are relative to the top-ranked candidate; the top row has both 0.
type ComparisonRow struct {
	Model   core.ModelName `json:"model"`
	Formula string         `json:"formula"`
	ELPD    float64        `json:"elpd_loo"`
	SE      float64        `json:"se_elpd"`
	Delta   float64        `json:"elpd_diff"`
	DeltaSE float64        `json:"se_diff"`
	PLoo    float64        `json:"p_loo"`
}

// Indistinguishable reports whether this row's ELPD cannot be told apart from
// the top candidate's within roughly two standard errors of the difference.
// The raw numbers stay in the table either way; this only drives a caveat.
func (r ComparisonRow) Indistinguishable() bool {
	if r.Delta == 0 {
		return false
	}
	return -r.Delta < 2*r.DeltaSE
}

// ComparisonTable is the ranked ELPD comparison: exactly one row per
// candidate, ordered by descending ELPD.
type ComparisonTable struct {
	Rows     []ComparisonRow `json:"rows"`
	Warnings []model.Warning `json:"warnings,omitempty"`
}

// Top returns the best-ranked row
func (ct ComparisonTable) Top() ComparisonRow {
	if len(ct.Rows) == 0 {
		return ComparisonRow{}
	}
	return ct.Rows[0]
}

// OverlayData feeds a density-overlay diagnostic: a fixed-size subsample of
// posterior predictive outcome vectors next to the true observed vector.
// Group is empty for whole-dataset overlays and carries the bin label for
// stratified ones.
type OverlayData struct {
	Model      core.ModelName `json:"model"`
	Group      string         `json:"group,omitempty"`
	Observed   []float64      `json:"observed"`
	Replicates [][]float64    `json:"replicates"` // subsample rows x observations
}

// StatCheckData feeds a test-statistic diagnostic: the statistic on the
// observed vector against its distribution over replicated datasets.
type StatCheckData struct {
	Model      core.ModelName `json:"model"`
	Statistic  string         `json:"statistic"`
	Observed   float64        `json:"observed"`
	Replicated []float64      `json:"replicated"`
}

// TailProbability is the share of replicated statistics at or above the
// observed value (the posterior predictive p-value for the statistic).
func (s StatCheckData) TailProbability() float64 {
	if len(s.Replicated) == 0 {
		return 0
	}
	count := 0
	for _, v := range s.Replicated {
		if v >= s.Observed {
			count++
		}
	}
	return float64(count) / float64(len(s.Replicated))
}

// Report is the assembled evaluation output for one dataset: the ranked
// comparison, the predictive check data, and every warning collected along
// the way. A report never presents a ranking without its caveats.
type Report struct {
	RunID       core.RunID      `json:"run_id"`
	Dataset     string          `json:"dataset"`
	Fingerprint core.RunHash    `json:"fingerprint"`
	CreatedAt   time.Time       `json:"created_at"`
	Comparison  ComparisonTable `json:"comparison"`
	Overlays    []OverlayData   `json:"overlays,omitempty"`
	StatChecks  []StatCheckData `json:"stat_checks,omitempty"`
	Warnings    []model.Warning `json:"warnings,omitempty"`
}

// AllWarnings merges comparison-level and run-level warnings in report order
func (r Report) AllWarnings() []model.Warning {
	out := make([]model.Warning, 0, len(r.Warnings)+len(r.Comparison.Warnings))
	out = append(out, r.Comparison.Warnings...)
	out = append(out, r.Warnings...)
	return out
}
