package glm

import (
	"context"
	"fmt"
	"math"
	mrand "math/rand"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distmv"

	"modelcheck/domain/model"
)

const irlsTolerance = 1e-8

// binomialPosterior approximates the logistic regression posterior with a
// multivariate normal centered at the penalized IRLS mode (Laplace
// approximation). A weak N(0, priorScale^2) coefficient prior keeps the
// mode finite under separation.
type binomialPosterior struct {
	name      model.Spec
	betaDraws *mat.Dense // draws x p
	loglik    *mat.Dense // draws x n
	p         int
	rng       *mrand.Rand
}

func fitBinomial(ctx context.Context, spec model.Spec, design *model.Design, opts model.FitOptions, rng *mrand.Rand) (model.Posterior, []model.Warning, error) {
	n, p := design.X.Dims()
	var warnings []model.Warning

	// Penalized IRLS to the posterior mode
	beta := mat.NewVecDense(p, nil)
	priorPrec := 1.0 / (opts.PriorScale * opts.PriorScale)

	converged := false
	timedOut := false
	for iter := 0; iter < opts.MaxIter; iter++ {
		if err := ctx.Err(); err != nil {
			timedOut = true
			break
		}

		// Working quantities at the current beta
		probs := make([]float64, n)
		var eta mat.VecDense
		eta.MulVec(design.X, beta)
		for i := 0; i < n; i++ {
			probs[i] = logistic(eta.AtVec(i))
		}

		// Gradient: X'(y - p) - beta / tau^2
		grad := mat.NewVecDense(p, nil)
		resid := mat.NewVecDense(n, nil)
		for i := 0; i < n; i++ {
			resid.SetVec(i, design.Y[i]-probs[i])
		}
		grad.MulVec(design.X.T(), resid)
		for j := 0; j < p; j++ {
			grad.SetVec(j, grad.AtVec(j)-priorPrec*beta.AtVec(j))
		}

		// Hessian: X'WX + I / tau^2
		hess := weightedCrossProduct(design.X, probs)
		for j := 0; j < p; j++ {
			hess.SetSym(j, j, hess.At(j, j)+priorPrec)
		}

		var chol mat.Cholesky
		if ok := chol.Factorize(hess); !ok {
			return nil, nil, fmt.Errorf("model %q: Hessian not positive definite at IRLS step %d", spec.Name, iter)
		}

		var step mat.VecDense
		if err := chol.SolveVecTo(&step, grad); err != nil {
			return nil, nil, fmt.Errorf("model %q: IRLS step solve: %w", spec.Name, err)
		}

		maxStep := 0.0
		for j := 0; j < p; j++ {
			beta.SetVec(j, beta.AtVec(j)+step.AtVec(j))
			if abs := math.Abs(step.AtVec(j)); abs > maxStep {
				maxStep = abs
			}
		}
		if maxStep < irlsTolerance {
			converged = true
			break
		}
	}

	switch {
	case timedOut:
		warnings = append(warnings, model.NewTimeoutWarning(spec.Name))
	case !converged:
		warnings = append(warnings, model.NewConvergenceWarning(spec.Name, opts.MaxIter))
	}

	// Laplace covariance from the Hessian at the mode
	probs := make([]float64, n)
	var eta mat.VecDense
	eta.MulVec(design.X, beta)
	for i := 0; i < n; i++ {
		probs[i] = logistic(eta.AtVec(i))
	}
	hess := weightedCrossProduct(design.X, probs)
	for j := 0; j < p; j++ {
		hess.SetSym(j, j, hess.At(j, j)+priorPrec)
	}

	var chol mat.Cholesky
	if ok := chol.Factorize(hess); !ok {
		return nil, nil, fmt.Errorf("model %q: Hessian not positive definite at the mode", spec.Name)
	}
	var cov mat.SymDense
	if err := chol.InverseTo(&cov); err != nil {
		return nil, nil, fmt.Errorf("model %q: inverting Hessian: %w", spec.Name, err)
	}

	mean := make([]float64, p)
	for j := 0; j < p; j++ {
		mean[j] = beta.AtVec(j)
	}
	coefDist, ok := distmv.NewNormal(mean, &cov, randSource{r: rng})
	if !ok {
		return nil, nil, fmt.Errorf("model %q: Laplace covariance is not positive definite", spec.Name)
	}

	betaDraws := mat.NewDense(opts.Draws, p, nil)
	row := make([]float64, p)
	for s := 0; s < opts.Draws; s++ {
		coefDist.Rand(row)
		betaDraws.SetRow(s, row)
	}

	post := &binomialPosterior{
		name:      spec,
		betaDraws: betaDraws,
		p:         p,
		rng:       rng,
	}
	post.loglik = post.pointwiseLogLik(design.X, design.Y)

	return post, warnings, nil
}

// Draws returns the number of posterior draws held
func (b *binomialPosterior) Draws() int {
	r, _ := b.betaDraws.Dims()
	return r
}

// PointwiseLogLik returns the draws x observations log-likelihood matrix
func (b *binomialPosterior) PointwiseLogLik() *mat.Dense {
	return b.loglik
}

// PredictiveDraws simulates 0/1 outcome vectors for the given covariate rows
func (b *binomialPosterior) PredictiveDraws(rows *mat.Dense) (*mat.Dense, error) {
	if err := checkDims(rows, b.p); err != nil {
		return nil, err
	}
	n, _ := rows.Dims()
	draws := b.Draws()

	var eta mat.Dense
	eta.Mul(b.betaDraws, rows.T())

	out := mat.NewDense(draws, n, nil)
	for s := 0; s < draws; s++ {
		for i := 0; i < n; i++ {
			if b.rng.Float64() < logistic(eta.At(s, i)) {
				out.Set(s, i, 1)
			}
		}
	}
	return out, nil
}

func (b *binomialPosterior) pointwiseLogLik(x *mat.Dense, y []float64) *mat.Dense {
	draws := b.Draws()
	n := len(y)

	var eta mat.Dense
	eta.Mul(b.betaDraws, x.T())

	ll := mat.NewDense(draws, n, nil)
	for s := 0; s < draws; s++ {
		for i := 0; i < n; i++ {
			// Numerically stable Bernoulli log-likelihood:
			// y*eta - log(1 + exp(eta))
			e := eta.At(s, i)
			ll.Set(s, i, y[i]*e-log1pExp(e))
		}
	}
	return ll
}

func logistic(x float64) float64 {
	if x >= 0 {
		return 1 / (1 + math.Exp(-x))
	}
	e := math.Exp(x)
	return e / (1 + e)
}

// log1pExp computes log(1 + exp(x)) without overflow
func log1pExp(x float64) float64 {
	if x > 35 {
		return x
	}
	if x < -35 {
		return math.Exp(x)
	}
	return math.Log1p(math.Exp(x))
}

// weightedCrossProduct computes X' diag(w(p)) X with the Bernoulli variance
// weights w = p(1-p).
func weightedCrossProduct(x *mat.Dense, probs []float64) *mat.SymDense {
	n, p := x.Dims()
	wx := mat.NewDense(n, p, nil)
	for i := 0; i < n; i++ {
		w := math.Sqrt(probs[i] * (1 - probs[i]))
		for j := 0; j < p; j++ {
			wx.Set(i, j, w*x.At(i, j))
		}
	}
	var sym mat.SymDense
	sym.SymOuterK(1, wx.T())
	return &sym
}
