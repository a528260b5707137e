package ppc

import (
	"errors"
	"math"
	"math/rand"
	"testing"

	"gonum.org/v1/gonum/mat"

	"modelcheck/domain/core"
	"modelcheck/domain/model"
)

// syntheticCandidate has predictive values encoding their own position:
// draw s, observation i holds 1000*s + i, so tests can tell exactly which
// rows a subsample selected.
func syntheticCandidate(draws, n int) *model.Candidate {
	pred := mat.NewDense(draws, n, nil)
	for s := 0; s < draws; s++ {
		for i := 0; i < n; i++ {
			pred.Set(s, i, float64(1000*s+i))
		}
	}
	observed := make([]float64, n)
	for i := range observed {
		observed[i] = float64(i)
	}
	return &model.Candidate{
		Spec: model.Spec{
			Name:       "synthetic",
			Response:   "y",
			Family:     model.FamilyGaussian,
			Predictors: []core.VariableKey{"x"},
		},
		Predictive: pred,
		Observed:   observed,
	}
}

func TestOverlaySubsample_SizeAndDistinctness(t *testing.T) {
	c := syntheticCandidate(2000, 50)
	overlay, err := OverlaySubsample(c, 100, rand.New(rand.NewSource(1)))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(overlay.Replicates) != 100 {
		t.Fatalf("got %d replicates, want 100", len(overlay.Replicates))
	}
	if len(overlay.Observed) != 50 {
		t.Fatalf("got %d observed values, want 50", len(overlay.Observed))
	}

	// The position encoding reveals each replicate's source draw; a sample
	// without replacement never repeats one.
	seen := make(map[int]bool)
	for _, row := range overlay.Replicates {
		if len(row) != 50 {
			t.Fatalf("replicate has %d values, want 50", len(row))
		}
		draw := int(row[0]) / 1000
		if seen[draw] {
			t.Fatalf("draw %d selected twice", draw)
		}
		seen[draw] = true
	}
}

func TestOverlaySubsample_DoesNotAliasSource(t *testing.T) {
	c := syntheticCandidate(200, 10)
	overlay, err := OverlaySubsample(c, 20, rand.New(rand.NewSource(2)))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	overlay.Replicates[0][0] = -999
	overlay.Observed[0] = -999

	r, _ := c.Predictive.Dims()
	for s := 0; s < r; s++ {
		if c.Predictive.At(s, 0) == -999 {
			t.Fatal("mutating the overlay reached the candidate's predictive matrix")
		}
	}
	if c.Observed[0] == -999 {
		t.Fatal("mutating the overlay reached the candidate's observed vector")
	}
}

func TestOverlaySubsample_SeedReproduces(t *testing.T) {
	c := syntheticCandidate(500, 10)

	a, err := OverlaySubsample(c, 50, rand.New(rand.NewSource(7)))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	b, err := OverlaySubsample(c, 50, rand.New(rand.NewSource(7)))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for r := range a.Replicates {
		for i := range a.Replicates[r] {
			if a.Replicates[r][i] != b.Replicates[r][i] {
				t.Fatalf("same seed selected different draws at replicate %d", r)
			}
		}
	}
}

func TestOverlaySubsample_SizeExceedsDraws(t *testing.T) {
	c := syntheticCandidate(50, 10)
	_, err := OverlaySubsample(c, 100, rand.New(rand.NewSource(1)))
	if !errors.Is(err, core.ErrSubsampleSize) {
		t.Errorf("expected subsample size error, got %v", err)
	}
}

func TestGroupedOverlay_PartitionsObservations(t *testing.T) {
	c := syntheticCandidate(300, 40)
	covariate := make([]float64, 40)
	for i := range covariate {
		covariate[i] = float64(i) / 40 // spread over [0, 1)
	}

	scheme, err := NewGrouping(0, 0.33, 0.67, 1)
	if err != nil {
		t.Fatalf("building grouping: %v", err)
	}
	scheme, err = scheme.WithLabels("weak", "contested", "safe")
	if err != nil {
		t.Fatalf("attaching labels: %v", err)
	}

	overlays, err := GroupedOverlay(c, covariate, scheme, 30, rand.New(rand.NewSource(5)))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(overlays) != 3 {
		t.Fatalf("got %d group overlays, want 3", len(overlays))
	}

	total := 0
	labels := map[string]bool{}
	for _, o := range overlays {
		labels[o.Group] = true
		total += len(o.Observed)
		for _, row := range o.Replicates {
			if len(row) != len(o.Observed) {
				t.Fatalf("group %q replicate width %d, observed width %d", o.Group, len(row), len(o.Observed))
			}
		}
	}
	if total != 40 {
		t.Errorf("groups hold %d observations in total, want 40", total)
	}
	for _, want := range []string{"weak", "contested", "safe"} {
		if !labels[want] {
			t.Errorf("missing group %q", want)
		}
	}
}

func TestGroupedOverlay_CovariateOutOfRange(t *testing.T) {
	c := syntheticCandidate(100, 5)
	scheme, _ := NewGrouping(0, 1)
	_, err := GroupedOverlay(c, []float64{0.1, 0.5, 1.5, 0.2, 0.9}, scheme, 10, rand.New(rand.NewSource(1)))
	if !core.IsDataFormatError(err) {
		t.Errorf("expected data format error for out-of-range covariate, got %v", err)
	}
}

func TestCheckStatistic_ObservedAndReplicated(t *testing.T) {
	c := syntheticCandidate(150, 20)

	check, err := CheckStatistic(c, Mean())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if check.Statistic != "mean" {
		t.Errorf("statistic name %q, want mean", check.Statistic)
	}
	// Observed is 0..19, mean 9.5
	if math.Abs(check.Observed-9.5) > 1e-9 {
		t.Errorf("observed mean %.4f, want 9.5", check.Observed)
	}
	if len(check.Replicated) != 150 {
		t.Fatalf("got %d replicated values, want 150", len(check.Replicated))
	}
	// Draw s holds 1000s + (0..19), mean 1000s + 9.5
	for s, v := range check.Replicated {
		want := 1000*float64(s) + 9.5
		if math.Abs(v-want) > 1e-9 {
			t.Fatalf("replicate %d mean %.4f, want %.1f", s, v, want)
		}
	}
}

func TestCheckStatistic_Deterministic(t *testing.T) {
	c := syntheticCandidate(50, 10)
	a, err := CheckStatistic(c, CountAbove(3))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	b, err := CheckStatistic(c, CountAbove(3))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if a.Observed != b.Observed {
		t.Errorf("observed statistic not deterministic: %v vs %v", a.Observed, b.Observed)
	}
}
