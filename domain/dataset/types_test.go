package dataset

import (
	"errors"
	"math"
	"testing"

	"modelcheck/domain/core"
)

func smallTable(t *testing.T) *Table {
	t.Helper()
	table, err := NewTable("test", []Column{
		{Key: "y", Kind: KindContinuous, Values: []float64{1, 2, 3, 4}},
		{Key: "x", Kind: KindContinuous, Values: []float64{0.1, 0.2, 0.3, 0.4}},
		{Key: "group", Kind: KindCategorical, Labels: []string{"a", "b", "a", "b"}},
	})
	if err != nil {
		t.Fatalf("building table: %v", err)
	}
	return table
}

func TestNewTable_RejectsRaggedColumns(t *testing.T) {
	_, err := NewTable("bad", []Column{
		{Key: "y", Kind: KindContinuous, Values: []float64{1, 2}},
		{Key: "x", Kind: KindContinuous, Values: []float64{1}},
	})
	if !core.IsDataFormatError(err) {
		t.Errorf("expected data format error, got %v", err)
	}
}

func TestNewTable_RejectsMissingValues(t *testing.T) {
	_, err := NewTable("bad", []Column{
		{Key: "y", Kind: KindContinuous, Values: []float64{1, math.NaN()}},
	})
	if !errors.Is(err, core.ErrMissingValues) {
		t.Errorf("expected missing values error, got %v", err)
	}

	_, err = NewTable("bad", []Column{
		{Key: "g", Kind: KindCategorical, Labels: []string{"a", ""}},
	})
	if !errors.Is(err, core.ErrMissingValues) {
		t.Errorf("expected missing values error for empty label, got %v", err)
	}
}

func TestTable_NumericCopyIsIsolated(t *testing.T) {
	table := smallTable(t)
	values, err := table.Numeric("x")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	values[0] = 99

	again, _ := table.Numeric("x")
	if again[0] == 99 {
		t.Error("mutating the returned slice must not touch the table")
	}
}

func TestTable_RequireColumns(t *testing.T) {
	table := smallTable(t)
	if err := table.RequireColumns("y", "x", "group"); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	err := table.RequireColumns("y", "absent")
	if !errors.Is(err, core.ErrColumnNotFound) {
		t.Errorf("expected column-not-found, got %v", err)
	}
}

func TestColumn_Levels(t *testing.T) {
	table := smallTable(t)
	col, _ := table.Column("group")
	levels := col.Levels()
	if len(levels) != 2 || levels[0] != "a" || levels[1] != "b" {
		t.Errorf("got levels %v", levels)
	}
}

func TestWithIndicators(t *testing.T) {
	table := smallTable(t)
	derived, err := table.WithIndicators(IndicatorSpec{
		Source:    "x",
		Target:    "x_high",
		Threshold: 0.25,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	values, _ := derived.Numeric("x_high")
	want := []float64{0, 0, 1, 1}
	for i, v := range values {
		if v != want[i] {
			t.Errorf("indicator[%d] = %g, want %g", i, v, want[i])
		}
	}

	// Source table untouched
	if _, ok := table.Column("x_high"); ok {
		t.Error("derivation must not mutate the source table")
	}
}

func TestWithIndicators_Below(t *testing.T) {
	table := smallTable(t)
	derived, err := table.WithIndicators(IndicatorSpec{
		Source:    "y",
		Target:    "y_low",
		Threshold: 3,
		Below:     true,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	values, _ := derived.Numeric("y_low")
	want := []float64{1, 1, 0, 0}
	for i, v := range values {
		if v != want[i] {
			t.Errorf("indicator[%d] = %g, want %g", i, v, want[i])
		}
	}
}

func TestLogTransform(t *testing.T) {
	table := smallTable(t)
	derived, err := table.LogTransform("y", "log_y")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	values, _ := derived.Numeric("log_y")
	if math.Abs(values[1]-math.Log(2)) > 1e-12 {
		t.Errorf("log transform wrong: got %g", values[1])
	}

	if _, err := table.LogTransform("group", "bad"); err == nil {
		t.Error("log transform of a categorical column should fail")
	}
}
