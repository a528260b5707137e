package dataset

import (
	"fmt"
	"math"
	"sort"

	"modelcheck/domain/core"
)

// ColumnKind classifies how a column may be used in a model formula
type ColumnKind string

const (
	KindContinuous  ColumnKind = "continuous"
	KindCategorical ColumnKind = "categorical"
)

// Column holds one named, typed column of the observation table.
// Continuous columns carry Values; categorical columns carry Labels.
type Column struct {
	Key    core.VariableKey `json:"key"`
	Kind   ColumnKind       `json:"kind"`
	Values []float64        `json:"values,omitempty"`
	Labels []string         `json:"labels,omitempty"`
}

// Len returns the number of observations in the column
func (c Column) Len() int {
	if c.Kind == KindCategorical {
		return len(c.Labels)
	}
	return len(c.Values)
}

// Levels returns the distinct labels of a categorical column in sorted order
func (c Column) Levels() []string {
	seen := make(map[string]bool)
	for _, l := range c.Labels {
		seen[l] = true
	}
	levels := make([]string, 0, len(seen))
	for l := range seen {
		levels = append(levels, l)
	}
	sort.Strings(levels)
	return levels
}

// Table is an immutable ordered collection of equally sized columns.
// It is loaded once per evaluation run and never mutated afterwards.
type Table struct {
	name    string
	columns []Column
	index   map[core.VariableKey]int
	rows    int
}

// NewTable builds a table from columns, validating that all columns have the
// same length and that no modeled column contains missing values (NaN for
// continuous, empty string for categorical).
func NewTable(name string, columns []Column) (*Table, error) {
	if len(columns) == 0 {
		return nil, fmt.Errorf("%w: table %q has no columns", core.ErrDataFormat, name)
	}

	rows := columns[0].Len()
	index := make(map[core.VariableKey]int, len(columns))

	for i, col := range columns {
		if col.Len() != rows {
			return nil, fmt.Errorf("%w: column %q has %d rows, expected %d",
				core.ErrDataFormat, col.Key, col.Len(), rows)
		}
		if _, dup := index[col.Key]; dup {
			return nil, fmt.Errorf("%w: duplicate column %q", core.ErrDataFormat, col.Key)
		}
		index[col.Key] = i

		switch col.Kind {
		case KindContinuous:
			for r, v := range col.Values {
				if math.IsNaN(v) || math.IsInf(v, 0) {
					return nil, core.NewMissingValuesError(col.Key.String(), r)
				}
			}
		case KindCategorical:
			for r, l := range col.Labels {
				if l == "" {
					return nil, core.NewMissingValuesError(col.Key.String(), r)
				}
			}
		default:
			return nil, fmt.Errorf("%w: column %q has unknown kind %q",
				core.ErrDataFormat, col.Key, col.Kind)
		}
	}

	return &Table{name: name, columns: columns, index: index, rows: rows}, nil
}

// Name returns the dataset name
func (t *Table) Name() string { return t.name }

// Rows returns the observation count
func (t *Table) Rows() int { return t.rows }

// ColumnKeys returns the column keys in load order
func (t *Table) ColumnKeys() []core.VariableKey {
	keys := make([]core.VariableKey, len(t.columns))
	for i, c := range t.columns {
		keys[i] = c.Key
	}
	return keys
}

// Column returns the named column
func (t *Table) Column(key core.VariableKey) (Column, bool) {
	i, ok := t.index[key]
	if !ok {
		return Column{}, false
	}
	return t.columns[i], ok
}

// Numeric returns a copy of a continuous column's values.
// The copy keeps callers from mutating the loaded table.
func (t *Table) Numeric(key core.VariableKey) ([]float64, error) {
	col, ok := t.Column(key)
	if !ok {
		return nil, core.NewColumnNotFoundError(key.String())
	}
	if col.Kind != KindContinuous {
		return nil, fmt.Errorf("%w: column %q is %s, expected continuous",
			core.ErrDataFormat, key, col.Kind)
	}
	out := make([]float64, len(col.Values))
	copy(out, col.Values)
	return out, nil
}

// Categorical returns a copy of a categorical column's labels
func (t *Table) Categorical(key core.VariableKey) ([]string, error) {
	col, ok := t.Column(key)
	if !ok {
		return nil, core.NewColumnNotFoundError(key.String())
	}
	if col.Kind != KindCategorical {
		return nil, fmt.Errorf("%w: column %q is %s, expected categorical",
			core.ErrDataFormat, key, col.Kind)
	}
	out := make([]string, len(col.Labels))
	copy(out, col.Labels)
	return out, nil
}

// Hash fingerprints the table schema for run manifests
func (t *Table) Hash() core.DatasetHash {
	keys := make([]string, len(t.columns))
	for i, c := range t.columns {
		keys[i] = c.Key.String()
	}
	return core.NewDatasetHash(keys, t.rows)
}

// RequireColumns validates that every named column exists, failing with a
// data format error naming the first absent column.
func (t *Table) RequireColumns(keys ...core.VariableKey) error {
	for _, k := range keys {
		if _, ok := t.index[k]; !ok {
			return core.NewColumnNotFoundError(k.String())
		}
	}
	return nil
}
