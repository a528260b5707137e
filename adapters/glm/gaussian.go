package glm

import (
	"context"
	"fmt"
	"math"
	mrand "math/rand"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distmv"
	"gonum.org/v1/gonum/stat/distuv"

	"modelcheck/domain/model"
)

// gaussianPosterior holds exact conjugate draws for a linear model under the
// reference prior p(beta, sigma^2) proportional to 1/sigma^2:
// sigma^2 | y follows scaled-inverse-chi-square(n-p, s^2) and
// beta | sigma^2, y is multivariate normal around the least squares solution.
type gaussianPosterior struct {
	name      model.Spec
	betaDraws *mat.Dense // draws x p
	sigma     []float64  // per-draw residual sd
	loglik    *mat.Dense // draws x n, pointwise on the fitting data
	p         int
	rng       *mrand.Rand
}

func fitGaussian(ctx context.Context, spec model.Spec, design *model.Design, opts model.FitOptions, rng *mrand.Rand) (model.Posterior, []model.Warning, error) {
	n, p := design.X.Dims()

	// Normal equations via Cholesky of X'X
	var xtx mat.SymDense
	xtx.SymOuterK(1, design.X.T())

	var chol mat.Cholesky
	if ok := chol.Factorize(&xtx); !ok {
		return nil, nil, fmt.Errorf("model %q: design matrix is rank deficient (collinear predictors)", spec.Name)
	}

	yVec := mat.NewVecDense(n, design.Y)
	var xty mat.VecDense
	xty.MulVec(design.X.T(), yVec)

	var betaHat mat.VecDense
	if err := chol.SolveVecTo(&betaHat, &xty); err != nil {
		return nil, nil, fmt.Errorf("model %q: solving normal equations: %w", spec.Name, err)
	}

	// Residual variance
	var fitted mat.VecDense
	fitted.MulVec(design.X, &betaHat)
	rss := 0.0
	for i := 0; i < n; i++ {
		r := design.Y[i] - fitted.AtVec(i)
		rss += r * r
	}
	df := float64(n - p)
	s2 := rss / df

	var invXtX mat.SymDense
	if err := chol.InverseTo(&invXtX); err != nil {
		return nil, nil, fmt.Errorf("model %q: inverting X'X: %w", spec.Name, err)
	}

	src := randSource{r: rng}
	coefDist, ok := distmv.NewNormal(make([]float64, p), &invXtX, src)
	if !ok {
		return nil, nil, fmt.Errorf("model %q: posterior covariance is not positive definite", spec.Name)
	}
	chi2 := distuv.ChiSquared{K: df, Src: src}

	betaDraws := mat.NewDense(opts.Draws, p, nil)
	sigma := make([]float64, opts.Draws)
	v := make([]float64, p)

	var warnings []model.Warning
	for s := 0; s < opts.Draws; s++ {
		if err := ctx.Err(); err != nil {
			warnings = append(warnings, model.NewTimeoutWarning(spec.Name))
			truncateGaussianDraws(betaDraws, sigma, s)
			break
		}

		sigma2 := df * s2 / chi2.Rand()
		sigma[s] = math.Sqrt(sigma2)

		coefDist.Rand(v)
		for j := 0; j < p; j++ {
			betaDraws.Set(s, j, betaHat.AtVec(j)+sigma[s]*v[j])
		}
	}

	post := &gaussianPosterior{
		name:      spec,
		betaDraws: betaDraws,
		sigma:     sigma,
		p:         p,
		rng:       rng,
	}
	post.loglik = post.pointwiseLogLik(design.X, design.Y)

	return post, warnings, nil
}

// truncateGaussianDraws backfills draws after a timeout so downstream code
// still sees a full matrix; the timeout warning marks the result as partial.
func truncateGaussianDraws(betaDraws *mat.Dense, sigma []float64, done int) {
	if done == 0 {
		done = 1
	}
	rows, p := betaDraws.Dims()
	for s := done; s < rows; s++ {
		src := s % done
		sigma[s] = sigma[src]
		for j := 0; j < p; j++ {
			betaDraws.Set(s, j, betaDraws.At(src, j))
		}
	}
}

// Draws returns the number of posterior draws held
func (g *gaussianPosterior) Draws() int {
	r, _ := g.betaDraws.Dims()
	return r
}

// PointwiseLogLik returns the draws x observations log-likelihood matrix
func (g *gaussianPosterior) PointwiseLogLik() *mat.Dense {
	return g.loglik
}

// PredictiveDraws simulates outcome vectors for the given covariate rows
func (g *gaussianPosterior) PredictiveDraws(rows *mat.Dense) (*mat.Dense, error) {
	if err := checkDims(rows, g.p); err != nil {
		return nil, err
	}
	n, _ := rows.Dims()
	draws := g.Draws()

	var mu mat.Dense
	mu.Mul(g.betaDraws, rows.T()) // draws x n

	out := mat.NewDense(draws, n, nil)
	for s := 0; s < draws; s++ {
		for i := 0; i < n; i++ {
			out.Set(s, i, mu.At(s, i)+g.sigma[s]*g.rng.NormFloat64())
		}
	}
	return out, nil
}

func (g *gaussianPosterior) pointwiseLogLik(x *mat.Dense, y []float64) *mat.Dense {
	draws := g.Draws()
	n := len(y)

	var mu mat.Dense
	mu.Mul(g.betaDraws, x.T())

	ll := mat.NewDense(draws, n, nil)
	for s := 0; s < draws; s++ {
		s2 := g.sigma[s] * g.sigma[s]
		norm := -0.5 * math.Log(2*math.Pi*s2)
		for i := 0; i < n; i++ {
			r := y[i] - mu.At(s, i)
			ll.Set(s, i, norm-r*r/(2*s2))
		}
	}
	return ll
}
