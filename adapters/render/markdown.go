// Package render turns assembled evaluation reports into presentation
// artifacts: markdown text, HTML, and spreadsheet exports. Rendering is a
// formatting concern only; every warning the report carries is shown.
package render

import (
	"fmt"
	"strings"

	"github.com/montanaflynn/stats"

	"modelcheck/domain/report"
)

// MarkdownRenderer composes the unified report as markdown text: one section
// per evaluation type, sub-ordered by model, with a caveats block up front so
// no ranking is ever read without its warnings.
type MarkdownRenderer struct{}

// NewMarkdownRenderer creates a markdown renderer
func NewMarkdownRenderer() *MarkdownRenderer {
	return &MarkdownRenderer{}
}

// Render returns the markdown artifact
func (r *MarkdownRenderer) Render(rep report.Report) ([]byte, string, error) {
	var b strings.Builder

	fmt.Fprintf(&b, "# Model evaluation: %s\n\n", rep.Dataset)
	fmt.Fprintf(&b, "- Run: `%s`\n", rep.RunID)
	fmt.Fprintf(&b, "- Fingerprint: `%s`\n", rep.Fingerprint)
	fmt.Fprintf(&b, "- Generated: %s\n\n", rep.CreatedAt.Format("2006-01-02 15:04:05 MST"))

	warnings := rep.AllWarnings()
	if len(warnings) > 0 {
		b.WriteString("## Caveats\n\n")
		for _, w := range warnings {
			fmt.Fprintf(&b, "- %s\n", w)
		}
		b.WriteString("\n")
	}

	r.writeComparison(&b, rep.Comparison)
	r.writeOverlays(&b, rep.Overlays)
	r.writeStatChecks(&b, rep.StatChecks)

	return []byte(b.String()), ".md", nil
}

func (r *MarkdownRenderer) writeComparison(b *strings.Builder, ct report.ComparisonTable) {
	if len(ct.Rows) == 0 {
		return
	}
	b.WriteString("## LOO comparison\n\n")
	b.WriteString("| Model | Formula | elpd_loo | se | elpd_diff | se_diff | p_loo |\n")
	b.WriteString("|---|---|---|---|---|---|---|\n")
	for _, row := range ct.Rows {
		fmt.Fprintf(b, "| %s | `%s` | %.1f | %.1f | %.1f | %.1f | %.1f |\n",
			row.Model, row.Formula, row.ELPD, row.SE, row.Delta, row.DeltaSE, row.PLoo)
	}
	b.WriteString("\n")

	for _, row := range ct.Rows {
		if row.Indistinguishable() {
			fmt.Fprintf(b,
				"Note: %s is within two standard errors of the top model (diff %.1f, se %.1f); the ranking between them is not decisive.\n\n",
				row.Model, row.Delta, row.DeltaSE)
		}
	}
}

func (r *MarkdownRenderer) writeOverlays(b *strings.Builder, overlays []report.OverlayData) {
	if len(overlays) == 0 {
		return
	}
	b.WriteString("## Posterior predictive density overlays\n\n")
	for _, o := range overlays {
		title := string(o.Model)
		if o.Group != "" {
			title = fmt.Sprintf("%s, group %s", o.Model, o.Group)
		}
		obsMean, _ := stats.Mean(o.Observed)
		repMean := replicateMean(o.Replicates)
		fmt.Fprintf(b, "- **%s**: %d replicate vectors over %d observations (observed mean %.3f, replicate mean %.3f)\n",
			title, len(o.Replicates), len(o.Observed), obsMean, repMean)
	}
	b.WriteString("\n")
}

func (r *MarkdownRenderer) writeStatChecks(b *strings.Builder, checks []report.StatCheckData) {
	if len(checks) == 0 {
		return
	}
	b.WriteString("## Test statistic checks\n\n")
	b.WriteString("| Model | Statistic | Observed | Replicate mean | Replicate sd | p(T_rep >= T_obs) |\n")
	b.WriteString("|---|---|---|---|---|---|\n")
	for _, c := range checks {
		repMean, _ := stats.Mean(c.Replicated)
		repSD, _ := stats.StandardDeviationSample(c.Replicated)
		fmt.Fprintf(b, "| %s | %s | %.3f | %.3f | %.3f | %.3f |\n",
			c.Model, c.Statistic, c.Observed, repMean, repSD, c.TailProbability())
	}
	b.WriteString("\n")
}

func replicateMean(replicates [][]float64) float64 {
	total := 0.0
	count := 0
	for _, row := range replicates {
		for _, v := range row {
			total += v
			count++
		}
	}
	if count == 0 {
		return 0
	}
	return total / float64(count)
}
