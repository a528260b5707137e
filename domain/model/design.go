package model

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"modelcheck/domain/core"
	"modelcheck/domain/dataset"
)

// Design is the numeric encoding of a spec against a table: the response
// vector and the design matrix with intercept and dummy-coded categoricals.
type Design struct {
	Y        []float64
	X        *mat.Dense
	ColNames []string // design matrix column names, intercept first
}

// BuildDesign encodes the spec against the table. Categorical predictors are
// dummy coded against their first (alphabetical) level; an intercept column
// of ones is always prepended. Fails with a data format error when a column
// is absent, a categorical has fewer than two levels, or the response falls
// outside the spec's declared range.
func BuildDesign(t *dataset.Table, spec Spec) (*Design, error) {
	if err := spec.Validate(); err != nil {
		return nil, err
	}

	required := append([]core.VariableKey{spec.Response}, spec.Predictors...)
	if err := t.RequireColumns(required...); err != nil {
		return nil, err
	}

	y, err := t.Numeric(spec.Response)
	if err != nil {
		return nil, err
	}
	if spec.Range != nil {
		for _, v := range y {
			if v <= spec.Range.Lo || v >= spec.Range.Hi {
				return nil, core.NewResponseRangeError(spec.Response.String(), v, spec.Range.Lo, spec.Range.Hi)
			}
		}
	}
	if spec.Family == FamilyBinomial {
		for i, v := range y {
			if v != 0 && v != 1 {
				return nil, fmt.Errorf("%w: binomial response %q must be 0/1, got %g at row %d",
					core.ErrDataFormat, spec.Response, v, i)
			}
		}
	}

	n := t.Rows()
	cols := [][]float64{ones(n)}
	names := []string{"(Intercept)"}

	for _, key := range spec.Predictors {
		col, _ := t.Column(key)
		switch col.Kind {
		case dataset.KindContinuous:
			values, err := t.Numeric(key)
			if err != nil {
				return nil, err
			}
			cols = append(cols, values)
			names = append(names, key.String())

		case dataset.KindCategorical:
			labels, err := t.Categorical(key)
			if err != nil {
				return nil, err
			}
			levels := col.Levels()
			if len(levels) < 2 {
				return nil, fmt.Errorf("%w: %q has %d level(s)", core.ErrTooFewLevels, key, len(levels))
			}
			// Dummy code against the first level
			for _, level := range levels[1:] {
				dummy := make([]float64, n)
				for i, l := range labels {
					if l == level {
						dummy[i] = 1
					}
				}
				cols = append(cols, dummy)
				names = append(names, fmt.Sprintf("%s[%s]", key, level))
			}
		}
	}

	p := len(cols)
	if n <= p {
		return nil, core.NewInsufficientDataError(n, p)
	}

	x := mat.NewDense(n, p, nil)
	for j, col := range cols {
		for i, v := range col {
			x.Set(i, j, v)
		}
	}

	return &Design{Y: y, X: x, ColNames: names}, nil
}

func ones(n int) []float64 {
	v := make([]float64, n)
	for i := range v {
		v[i] = 1
	}
	return v
}
