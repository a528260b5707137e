// Package app orchestrates the evaluation pipeline: load once, fit the
// candidate models, compare them by LOO ELPD, run the posterior predictive
// checks, and assemble the report with every warning attached.
package app

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/semaphore"

	"modelcheck/domain/core"
	"modelcheck/domain/dataset"
	"modelcheck/domain/model"
	"modelcheck/domain/report"
	"modelcheck/internal"
	"modelcheck/internal/loo"
	"modelcheck/internal/ppc"
	"modelcheck/ports"
)

// EvaluationService runs the fit/compare/check pipeline for one dataset
type EvaluationService struct {
	fitter      ports.FitterPort
	rngPort     ports.RNGPort
	logger      *internal.Logger
	maxParallel int64
}

// NewEvaluationService creates the pipeline service. maxParallel bounds the
// number of candidate fits in flight; fits are independent so the bound is
// purely a resource discipline.
func NewEvaluationService(fitter ports.FitterPort, rngPort ports.RNGPort, logger *internal.Logger, maxParallel int) *EvaluationService {
	if maxParallel <= 0 {
		maxParallel = 1
	}
	if logger == nil {
		logger = internal.DefaultLogger
	}
	return &EvaluationService{
		fitter:      fitter,
		rngPort:     rngPort,
		logger:      logger.Named("EvaluationService"),
		maxParallel: int64(maxParallel),
	}
}

// GroupingRequest optionally stratifies the density overlays by binning a
// covariate with a threshold scheme.
type GroupingRequest struct {
	Covariate core.VariableKey
	CutPoints []float64
	Labels    []string
}

// EvaluationRequest defines one pipeline run over a loaded table
type EvaluationRequest struct {
	Table         *dataset.Table
	Specs         []model.Spec
	Options       model.FitOptions
	SubsampleSize int
	GroupBy       *GroupingRequest
	Statistics    []ppc.Statistic
	RunID         core.RunID // optional, generated when empty
}

// EvaluationResult is the pipeline output: the assembled report plus the
// fitted candidates for callers that want to run further checks.
type EvaluationResult struct {
	Report     report.Report
	Candidates []*model.Candidate
	RuntimeMs  int64
}

// Run executes the pipeline. Fatal errors (data format, spec problems)
// abort the run; non-fatal fit and estimation warnings are collected into
// the report, never dropped.
func (s *EvaluationService) Run(ctx context.Context, req EvaluationRequest) (*EvaluationResult, error) {
	start := time.Now()

	if req.Table == nil {
		return nil, fmt.Errorf("evaluation request has no table")
	}
	if len(req.Specs) == 0 {
		return nil, core.ErrNoCandidates
	}
	opts := req.Options.Normalize()
	if req.SubsampleSize <= 0 {
		req.SubsampleSize = 100
	}
	if req.SubsampleSize > opts.Draws {
		return nil, fmt.Errorf("%w: %d requested, %d draws", core.ErrSubsampleSize, req.SubsampleSize, opts.Draws)
	}

	runID := req.RunID
	if runID == "" {
		runID = core.RunID(core.NewID())
	}

	specHashes := make([]core.SpecHash, len(req.Specs))
	for i, spec := range req.Specs {
		if err := spec.Validate(); err != nil {
			return nil, err
		}
		specHashes[i] = spec.Hash()
	}
	fingerprint := core.NewRunHash(req.Table.Hash(), specHashes, opts.Seed, opts.Draws)

	s.logger.Info("run %s: %d candidates on %q (%d rows, seed %d, %d draws)",
		runID, len(req.Specs), req.Table.Name(), req.Table.Rows(), opts.Seed, opts.Draws)

	candidates, err := s.fitAll(ctx, req.Table, req.Specs, opts)
	if err != nil {
		return nil, err
	}

	comparison, err := loo.Compare(candidates...)
	if err != nil {
		return nil, err
	}

	rep := report.Report{
		RunID:       runID,
		Dataset:     req.Table.Name(),
		Fingerprint: fingerprint,
		CreatedAt:   time.Now().UTC(),
		Comparison:  comparison,
	}
	for _, c := range candidates {
		rep.Warnings = append(rep.Warnings, c.Warnings...)
	}

	if err := s.runChecks(ctx, &rep, req, candidates, opts.Seed); err != nil {
		return nil, err
	}

	result := &EvaluationResult{
		Report:     rep,
		Candidates: candidates,
		RuntimeMs:  time.Since(start).Milliseconds(),
	}
	s.logger.Info("run %s complete in %dms: best model %s (elpd %.1f), %d warning(s)",
		runID, result.RuntimeMs, rep.Comparison.Top().Model, rep.Comparison.Top().ELPD, len(rep.AllWarnings()))
	return result, nil
}

// fitAll fits the candidates with a bounded number in flight. Each fit draws
// from its own named stream, so results do not depend on scheduling order.
func (s *EvaluationService) fitAll(ctx context.Context, t *dataset.Table, specs []model.Spec, opts model.FitOptions) ([]*model.Candidate, error) {
	sem := semaphore.NewWeighted(s.maxParallel)
	candidates := make([]*model.Candidate, len(specs))
	errs := make([]error, len(specs))

	for i, spec := range specs {
		if err := sem.Acquire(ctx, 1); err != nil {
			return nil, err
		}
		go func(i int, spec model.Spec) {
			defer sem.Release(1)
			c, err := s.fitter.Fit(ctx, t, spec, opts)
			if err != nil {
				errs[i] = err
				return
			}
			s.logger.Debug("fitted %s (%s)", spec.Name, spec.Formula())
			candidates[i] = c
		}(i, spec)
	}

	// Draining the semaphore waits for every fit
	if err := sem.Acquire(ctx, s.maxParallel); err != nil {
		return nil, err
	}
	sem.Release(s.maxParallel)

	for i, err := range errs {
		if err != nil {
			return nil, fmt.Errorf("fitting %s: %w", specs[i].Name, err)
		}
	}
	return candidates, nil
}

// runChecks appends the posterior predictive check sections, sub-ordered by
// model within each evaluation type.
func (s *EvaluationService) runChecks(ctx context.Context, rep *report.Report, req EvaluationRequest, candidates []*model.Candidate, seed int64) error {
	var grouping *ppc.Grouping
	var covariate []float64
	if req.GroupBy != nil {
		g, err := ppc.NewGrouping(req.GroupBy.CutPoints...)
		if err != nil {
			return err
		}
		if len(req.GroupBy.Labels) > 0 {
			g, err = g.WithLabels(req.GroupBy.Labels...)
			if err != nil {
				return err
			}
		}
		covariate, err = req.Table.Numeric(req.GroupBy.Covariate)
		if err != nil {
			return err
		}
		grouping = &g
	}

	for _, c := range candidates {
		stream, err := s.rngPort.Stream(ctx, req.Table.Name(), "overlay", c.Spec.Name.String(), seed)
		if err != nil {
			return err
		}

		if grouping != nil {
			overlays, err := ppc.GroupedOverlay(c, covariate, *grouping, req.SubsampleSize, stream)
			if err != nil {
				return err
			}
			rep.Overlays = append(rep.Overlays, overlays...)
		} else {
			overlay, err := ppc.OverlaySubsample(c, req.SubsampleSize, stream)
			if err != nil {
				return err
			}
			rep.Overlays = append(rep.Overlays, overlay)
		}
	}

	for _, statistic := range req.Statistics {
		for _, c := range candidates {
			check, err := ppc.CheckStatistic(c, statistic)
			if err != nil {
				return err
			}
			rep.StatChecks = append(rep.StatChecks, check)
		}
	}
	return nil
}
