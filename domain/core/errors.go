package core

import (
	"errors"
	"fmt"
)

// Domain errors - centralized error definitions
var (
	// Data format errors (fatal for the affected dataset)
	ErrDataFormat       = errors.New("data format error")
	ErrColumnNotFound   = fmt.Errorf("%w: column not found", ErrDataFormat)
	ErrMissingValues    = fmt.Errorf("%w: missing values in modeled column", ErrDataFormat)
	ErrNonNumeric       = fmt.Errorf("%w: non-numeric value in numeric column", ErrDataFormat)
	ErrResponseRange    = fmt.Errorf("%w: response value outside declared range", ErrDataFormat)
	ErrTooFewLevels     = fmt.Errorf("%w: categorical predictor needs at least two levels", ErrDataFormat)
	ErrInsufficientData = errors.New("insufficient data for fit")

	// Specification errors
	ErrEmptySpec       = errors.New("model spec has no predictor terms")
	ErrUnknownFamily   = errors.New("unknown response family")
	ErrModelNotFound   = errors.New("candidate model not found")
	ErrNoCandidates    = errors.New("no candidate models to compare")
	ErrDrawCount       = errors.New("posterior draw count must be positive")
	ErrSubsampleSize   = errors.New("subsample size exceeds posterior draws")
	ErrEmptyGrouping   = errors.New("grouping scheme has no bins")
	ErrBadCutPoints    = errors.New("cut points must be strictly increasing")
	ErrObservationSize = errors.New("observed vector length does not match fitted data")
)

// Error constructors with context
func NewColumnNotFoundError(column string) error {
	return fmt.Errorf("%w: %q", ErrColumnNotFound, column)
}

func NewMissingValuesError(column string, row int) error {
	return fmt.Errorf("%w: %q at row %d", ErrMissingValues, column, row)
}

func NewNonNumericError(column, value string, row int) error {
	return fmt.Errorf("%w: %q value %q at row %d", ErrNonNumeric, column, value, row)
}

func NewResponseRangeError(column string, value float64, lo, hi float64) error {
	return fmt.Errorf("%w: %q value %g outside (%g, %g)", ErrResponseRange, column, value, lo, hi)
}

func NewInsufficientDataError(n, p int) error {
	return fmt.Errorf("%w: %d observations for %d parameters", ErrInsufficientData, n, p)
}

// Error checking helpers
func IsDataFormatError(err error) bool {
	return errors.Is(err, ErrDataFormat)
}
