package ports

import (
	"context"

	"modelcheck/domain/dataset"
	"modelcheck/domain/model"
)

// FitterPort produces fitted candidate models. Implementations perform
// stochastic approximate inference; with a fixed seed in the options the
// result is bit-identical run to run.
type FitterPort interface {
	// Fit fits one candidate spec against the table. Non-fatal diagnostics
	// (convergence, timeout) come back on the candidate's Warnings; only
	// data format and specification problems are errors.
	Fit(ctx context.Context, t *dataset.Table, spec model.Spec, opts model.FitOptions) (*model.Candidate, error)
}
