package dataset

import (
	"fmt"
	"math"

	"modelcheck/domain/core"
)

// IndicatorSpec declares a derived boolean indicator column computed from a
// continuous source column by thresholding. The derived column is continuous
// with values in {0, 1} so it can enter a model formula directly.
type IndicatorSpec struct {
	Source    core.VariableKey `json:"source"`
	Target    core.VariableKey `json:"target"`
	Threshold float64          `json:"threshold"`
	Below     bool             `json:"below"` // true: 1 when value < threshold; false: 1 when value >= threshold
}

// WithIndicators returns a new table extended with the derived indicator
// columns. The source table is untouched; derivation is a pure transform.
func (t *Table) WithIndicators(specs ...IndicatorSpec) (*Table, error) {
	columns := make([]Column, len(t.columns), len(t.columns)+len(specs))
	copy(columns, t.columns)

	for _, spec := range specs {
		src, err := t.Numeric(spec.Source)
		if err != nil {
			return nil, err
		}
		if _, exists := t.index[spec.Target]; exists {
			return nil, fmt.Errorf("%w: derived column %q already exists",
				core.ErrDataFormat, spec.Target)
		}

		values := make([]float64, len(src))
		for i, v := range src {
			hit := v >= spec.Threshold
			if spec.Below {
				hit = v < spec.Threshold
			}
			if hit {
				values[i] = 1
			}
		}

		columns = append(columns, Column{
			Key:    spec.Target,
			Kind:   KindContinuous,
			Values: values,
		})
	}

	return NewTable(t.name, columns)
}

// LogTransform returns a new table with an added column holding the natural
// log of a strictly positive source column (e.g. birthweight in grams).
func (t *Table) LogTransform(source, target core.VariableKey) (*Table, error) {
	src, err := t.Numeric(source)
	if err != nil {
		return nil, err
	}
	for i, v := range src {
		if v <= 0 {
			return nil, fmt.Errorf("%w: %q value %g at row %d is not positive, cannot log-transform",
				core.ErrDataFormat, source, v, i)
		}
	}

	values := make([]float64, len(src))
	for i, v := range src {
		values[i] = math.Log(v)
	}

	columns := make([]Column, len(t.columns), len(t.columns)+1)
	copy(columns, t.columns)
	columns = append(columns, Column{Key: target, Kind: KindContinuous, Values: values})
	return NewTable(t.name, columns)
}
