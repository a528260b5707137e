package ppc

import (
	"fmt"

	"modelcheck/domain/core"
)

// Grouping bins observations by a covariate threshold scheme. Bins are
// left-closed and right-open, with the final bin closed on both ends, so a
// scheme spanning the covariate range partitions the observations exactly.
type Grouping struct {
	CutPoints []float64
	Labels    []string // optional; generated from the cut points when empty
}

// Group is one bin's resolved membership
type Group struct {
	Label   string
	Lo, Hi  float64
	Indices []int
}

// NewGrouping builds a threshold grouping from strictly increasing cut
// points. k+1 cut points define k bins.
func NewGrouping(cutPoints ...float64) (Grouping, error) {
	if len(cutPoints) < 2 {
		return Grouping{}, core.ErrEmptyGrouping
	}
	for i := 1; i < len(cutPoints); i++ {
		if cutPoints[i] <= cutPoints[i-1] {
			return Grouping{}, fmt.Errorf("%w: %g then %g", core.ErrBadCutPoints, cutPoints[i-1], cutPoints[i])
		}
	}
	return Grouping{CutPoints: cutPoints}, nil
}

// WithLabels attaches one label per bin
func (g Grouping) WithLabels(labels ...string) (Grouping, error) {
	if len(labels) != len(g.CutPoints)-1 {
		return Grouping{}, fmt.Errorf("%d labels for %d bins", len(labels), len(g.CutPoints)-1)
	}
	g.Labels = labels
	return g, nil
}

// Bins returns the number of bins in the scheme
func (g Grouping) Bins() int {
	if len(g.CutPoints) < 2 {
		return 0
	}
	return len(g.CutPoints) - 1
}

// Assign places every covariate value into exactly one bin. Values outside
// [first, last] are a data format error: the scheme must cover the covariate
// range so the resulting groups partition the observation index set.
func (g Grouping) Assign(covariate []float64) ([]Group, error) {
	bins := g.Bins()
	if bins == 0 {
		return nil, core.ErrEmptyGrouping
	}

	groups := make([]Group, bins)
	for b := 0; b < bins; b++ {
		label := fmt.Sprintf("[%g, %g)", g.CutPoints[b], g.CutPoints[b+1])
		if b == bins-1 {
			label = fmt.Sprintf("[%g, %g]", g.CutPoints[b], g.CutPoints[b+1])
		}
		if len(g.Labels) == bins {
			label = g.Labels[b]
		}
		groups[b] = Group{Label: label, Lo: g.CutPoints[b], Hi: g.CutPoints[b+1]}
	}

	for i, v := range covariate {
		b, ok := g.binOf(v)
		if !ok {
			return nil, fmt.Errorf("%w: covariate value %g at row %d outside grouping range [%g, %g]",
				core.ErrDataFormat, v, i, g.CutPoints[0], g.CutPoints[len(g.CutPoints)-1])
		}
		groups[b].Indices = append(groups[b].Indices, i)
	}
	return groups, nil
}

func (g Grouping) binOf(v float64) (int, bool) {
	last := len(g.CutPoints) - 1
	if v < g.CutPoints[0] || v > g.CutPoints[last] {
		return 0, false
	}
	// Final bin is right-closed
	if v == g.CutPoints[last] {
		return last - 1, true
	}
	for b := 0; b < last; b++ {
		if v >= g.CutPoints[b] && v < g.CutPoints[b+1] {
			return b, true
		}
	}
	return 0, false
}
