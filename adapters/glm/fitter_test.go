package glm

import (
	"context"
	"math"
	"math/rand"
	"testing"

	"gonum.org/v1/gonum/mat"

	"modelcheck/adapters/rng"
	"modelcheck/domain/model"
	"modelcheck/internal/testkit"
)

func fitVoteShare(t *testing.T, specIdx int, opts model.FitOptions) *model.Candidate {
	t.Helper()
	table := testkit.MustTable(testkit.VoteShareTable(400, testkit.DefaultVoteShareParams(), rand.New(rand.NewSource(7))))
	fitter := NewFitter(rng.NewAdapter())
	cand, err := fitter.Fit(context.Background(), table, testkit.VoteShareSpecs()[specIdx], opts)
	if err != nil {
		t.Fatalf("fit failed: %v", err)
	}
	return cand
}

func TestFit_GaussianDimensions(t *testing.T) {
	opts := model.FitOptions{Draws: 500, Seed: 42}
	cand := fitVoteShare(t, 2, opts)

	if cand.Posterior.Draws() != 500 {
		t.Errorf("posterior holds %d draws, want 500", cand.Posterior.Draws())
	}
	r, c := cand.Predictive.Dims()
	if r != 500 || c != 400 {
		t.Errorf("predictive matrix is %dx%d, want 500x400", r, c)
	}
	lr, lc := cand.Posterior.PointwiseLogLik().Dims()
	if lr != 500 || lc != 400 {
		t.Errorf("log-likelihood matrix is %dx%d, want 500x400", lr, lc)
	}
	if len(cand.Observed) != 400 {
		t.Errorf("observed vector has %d entries, want 400", len(cand.Observed))
	}
}

func TestFit_GaussianRecoversSignal(t *testing.T) {
	opts := model.FitOptions{Draws: 1000, Seed: 42}
	cand := fitVoteShare(t, 2, opts)

	// Posterior predictive means should track the observed shares closely:
	// the generator's noise sd is 0.06, so mean absolute error well under
	// that indicates the linear signal was recovered.
	r, c := cand.Predictive.Dims()
	var totalErr float64
	for j := 0; j < c; j++ {
		var mean float64
		for i := 0; i < r; i++ {
			mean += cand.Predictive.At(i, j)
		}
		mean /= float64(r)
		totalErr += math.Abs(mean - cand.Observed[j])
	}
	mae := totalErr / float64(c)
	if mae > 0.1 {
		t.Errorf("predictive mean absolute error %.4f, expected under 0.1", mae)
	}
}

func TestFit_SameSeedReproduces(t *testing.T) {
	opts := model.FitOptions{Draws: 200, Seed: 99}
	a := fitVoteShare(t, 0, opts)
	b := fitVoteShare(t, 0, opts)

	if !mat.EqualApprox(a.Predictive, b.Predictive, 0) {
		t.Error("same seed produced different predictive draws")
	}
	if !mat.EqualApprox(a.Posterior.PointwiseLogLik(), b.Posterior.PointwiseLogLik(), 0) {
		t.Error("same seed produced different log-likelihoods")
	}
}

func TestFit_DifferentSeedsDiffer(t *testing.T) {
	a := fitVoteShare(t, 0, model.FitOptions{Draws: 200, Seed: 1})
	b := fitVoteShare(t, 0, model.FitOptions{Draws: 200, Seed: 2})

	if mat.EqualApprox(a.Predictive, b.Predictive, 1e-12) {
		t.Error("different seeds produced identical predictive draws")
	}
}

func TestFit_BinomialProducesBinaryReplicates(t *testing.T) {
	table := testkit.MustTable(testkit.BirthweightTable(500, testkit.DefaultBirthweightParams(), rand.New(rand.NewSource(3))))
	fitter := NewFitter(rng.NewAdapter())

	cand, err := fitter.Fit(context.Background(), table, testkit.BirthweightSpecs()[2], model.FitOptions{Draws: 300, Seed: 5})
	if err != nil {
		t.Fatalf("binomial fit failed: %v", err)
	}

	r, c := cand.Predictive.Dims()
	if r != 300 || c != 500 {
		t.Fatalf("predictive matrix is %dx%d, want 300x500", r, c)
	}
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			if v := cand.Predictive.At(i, j); v != 0 && v != 1 {
				t.Fatalf("binomial replicate %g at (%d,%d), want 0 or 1", v, i, j)
			}
		}
	}
}

func TestFit_BinomialLogLikFinite(t *testing.T) {
	table := testkit.MustTable(testkit.BirthweightTable(400, testkit.DefaultBirthweightParams(), rand.New(rand.NewSource(11))))
	fitter := NewFitter(rng.NewAdapter())

	cand, err := fitter.Fit(context.Background(), table, testkit.BirthweightSpecs()[2], model.FitOptions{Draws: 200, Seed: 8})
	if err != nil {
		t.Fatalf("binomial fit failed: %v", err)
	}

	ll := cand.Posterior.PointwiseLogLik()
	r, c := ll.Dims()
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			v := ll.At(i, j)
			if math.IsNaN(v) || math.IsInf(v, 0) || v > 0 {
				t.Fatalf("log-likelihood %g at (%d,%d), want finite and non-positive", v, i, j)
			}
		}
	}
}

func TestFit_CancelledContext(t *testing.T) {
	table := testkit.MustTable(testkit.VoteShareTable(100, testkit.DefaultVoteShareParams(), rand.New(rand.NewSource(1))))
	fitter := NewFitter(rng.NewAdapter())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := fitter.Fit(ctx, table, testkit.VoteShareSpecs()[0], model.FitOptions{Draws: 100, Seed: 1})
	if err == nil {
		t.Error("expected error from cancelled context")
	}
}
