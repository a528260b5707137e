package loo

import (
	"errors"
	"math"
	"math/rand"
	"testing"

	"gonum.org/v1/gonum/mat"

	"modelcheck/domain/core"
	"modelcheck/domain/model"
)

// stubPosterior carries a fixed log-likelihood matrix so comparison tests can
// control exactly how well each fake candidate predicts.
type stubPosterior struct {
	ll *mat.Dense
}

func (p stubPosterior) PredictiveDraws(rows *mat.Dense) (*mat.Dense, error) {
	return nil, errors.New("stub posterior has no predictive distribution")
}

func (p stubPosterior) PointwiseLogLik() *mat.Dense { return p.ll }

func (p stubPosterior) Draws() int {
	r, _ := p.ll.Dims()
	return r
}

// stubCandidate builds a candidate whose pointwise log-likelihood is the given
// base plus small seeded noise, so its ELPD lands near base*n.
func stubCandidate(name core.ModelName, response core.VariableKey, draws, n int, base float64, seed int64) *model.Candidate {
	rng := rand.New(rand.NewSource(seed))
	ll := mat.NewDense(draws, n, nil)
	for i := 0; i < draws; i++ {
		for j := 0; j < n; j++ {
			ll.Set(i, j, base+0.05*rng.NormFloat64())
		}
	}
	return &model.Candidate{
		Spec: model.Spec{
			Name:       name,
			Response:   response,
			Family:     model.FamilyGaussian,
			Predictors: []core.VariableKey{"x"},
		},
		Posterior: stubPosterior{ll: ll},
		Observed:  make([]float64, n),
	}
}

func TestEstimateELPD_TracksLikelihoodLevel(t *testing.T) {
	const (
		draws = 1000
		n     = 20
		base  = -1.5
	)
	c := stubCandidate("m", "y", draws, n, base, 17)

	est, _, err := EstimateELPD(c)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(est.Pointwise) != n || len(est.ParetoK) != n {
		t.Fatalf("pointwise/k lengths %d/%d, want %d", len(est.Pointwise), len(est.ParetoK), n)
	}
	want := base * n
	if math.Abs(est.ELPD-want) > 0.5 {
		t.Errorf("ELPD = %.3f, want near %.1f", est.ELPD, want)
	}
	if est.SE < 0 || math.IsNaN(est.SE) {
		t.Errorf("SE = %v, want non-negative", est.SE)
	}
}

func TestEstimateELPD_ObservationMismatch(t *testing.T) {
	c := stubCandidate("m", "y", 500, 10, -1, 1)
	c.Observed = make([]float64, 7)
	if _, _, err := EstimateELPD(c); err == nil {
		t.Error("expected error for mismatched observation count")
	}
}

func TestCompare_RanksByELPD(t *testing.T) {
	const (
		draws = 1000
		n     = 30
	)
	// Bases order the candidates: middle declared first so the sort is doing
	// real work.
	candidates := []*model.Candidate{
		stubCandidate("middling", "y", draws, n, -2, 21),
		stubCandidate("best", "y", draws, n, -1, 22),
		stubCandidate("worst", "y", draws, n, -3, 23),
	}

	table, err := Compare(candidates...)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(table.Rows) != 3 {
		t.Fatalf("got %d rows, want 3", len(table.Rows))
	}

	wantOrder := []core.ModelName{"best", "middling", "worst"}
	for i, want := range wantOrder {
		if table.Rows[i].Model != want {
			t.Errorf("row %d is %q, want %q", i, table.Rows[i].Model, want)
		}
	}

	top := table.Rows[0]
	if top.Delta != 0 || top.DeltaSE != 0 {
		t.Errorf("top row delta %.3f (se %.3f), want both zero", top.Delta, top.DeltaSE)
	}
	for i := 1; i < 3; i++ {
		if table.Rows[i].Delta >= 0 {
			t.Errorf("row %d delta %.3f, want negative", i, table.Rows[i].Delta)
		}
		if table.Rows[i].DeltaSE <= 0 {
			t.Errorf("row %d delta SE %.3f, want positive", i, table.Rows[i].DeltaSE)
		}
	}
	for i := 1; i < 3; i++ {
		if table.Rows[i].ELPD > table.Rows[i-1].ELPD {
			t.Errorf("rows not in descending ELPD order at %d", i)
		}
	}
}

func TestCompare_NoCandidates(t *testing.T) {
	if _, err := Compare(); !errors.Is(err, core.ErrNoCandidates) {
		t.Errorf("expected no-candidates error, got %v", err)
	}
}

func TestCompare_MismatchedDatasets(t *testing.T) {
	a := stubCandidate("a", "y", 500, 20, -1, 1)
	b := stubCandidate("b", "y", 500, 25, -1, 2)
	if _, err := Compare(a, b); err == nil {
		t.Error("expected error for different observation counts")
	}
}

func TestCompare_MismatchedResponse(t *testing.T) {
	a := stubCandidate("a", "y", 500, 20, -1, 1)
	b := stubCandidate("b", "z", 500, 20, -1, 2)
	if _, err := Compare(a, b); err == nil {
		t.Error("expected error for different response terms")
	}
}
