package ports

import (
	"context"

	"modelcheck/domain/dataset"
)

// DatasetReaderPort loads an observation table from a delimited text or
// spreadsheet file. Derived indicator columns are applied as part of the
// load so callers always see the complete modeling table.
type DatasetReaderPort interface {
	Read(ctx context.Context, path string, indicators ...dataset.IndicatorSpec) (*dataset.Table, error)
}
