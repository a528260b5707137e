// Package glm is the Bayesian fitting collaborator: conjugate inference for
// gaussian linear models and a Laplace approximation for binomial models.
// Posteriors come back behind the model.Posterior capability so the
// comparator and checker never see fitting internals.
package glm

import (
	"context"
	"fmt"
	mrand "math/rand"

	"gonum.org/v1/gonum/mat"

	"modelcheck/domain/dataset"
	"modelcheck/domain/model"
	"modelcheck/ports"
)

// Fitter implements ports.FitterPort on gonum linear algebra. All stochastic
// steps draw from a stream obtained through the RNG port, so a fixed seed
// reproduces the posterior exactly.
type Fitter struct {
	rngPort ports.RNGPort
}

// NewFitter creates a fitter drawing randomness from the given port
func NewFitter(rngPort ports.RNGPort) *Fitter {
	return &Fitter{rngPort: rngPort}
}

// Fit fits one candidate spec against the table
func (f *Fitter) Fit(ctx context.Context, t *dataset.Table, spec model.Spec, opts model.FitOptions) (*model.Candidate, error) {
	opts = opts.Normalize()

	design, err := model.BuildDesign(t, spec)
	if err != nil {
		return nil, err
	}

	rng, err := f.rngPort.SeededStream(ctx, "fit:"+spec.Name.String(), opts.Seed)
	if err != nil {
		return nil, fmt.Errorf("acquiring RNG stream for %s: %w", spec.Name, err)
	}

	var (
		post     model.Posterior
		warnings []model.Warning
	)

	switch spec.Family {
	case model.FamilyGaussian:
		post, warnings, err = fitGaussian(ctx, spec, design, opts, rng)
	case model.FamilyBinomial:
		post, warnings, err = fitBinomial(ctx, spec, design, opts, rng)
	default:
		return nil, fmt.Errorf("model %q: unsupported family %q", spec.Name, spec.Family)
	}
	if err != nil {
		return nil, err
	}

	// Each candidate exclusively owns its predictive sample matrix,
	// simulated fresh on the fitting rows.
	predictive, err := post.PredictiveDraws(design.X)
	if err != nil {
		return nil, fmt.Errorf("model %q: simulating predictive draws: %w", spec.Name, err)
	}

	observed := make([]float64, len(design.Y))
	copy(observed, design.Y)

	return &model.Candidate{
		Spec:       spec,
		Posterior:  post,
		Predictive: predictive,
		Observed:   observed,
		Warnings:   warnings,
	}, nil
}

// randSource adapts the port's math/rand stream to the rand.Source the gonum
// distributions expect.
type randSource struct {
	r *mrand.Rand
}

func (s randSource) Uint64() uint64 { return s.r.Uint64() }

func (s randSource) Seed(seed uint64) { s.r.Seed(int64(seed)) }

// checkDims validates a covariate matrix against the fitted design width
func checkDims(x *mat.Dense, p int) error {
	_, c := x.Dims()
	if c != p {
		return fmt.Errorf("covariate matrix has %d columns, fitted design has %d", c, p)
	}
	return nil
}
