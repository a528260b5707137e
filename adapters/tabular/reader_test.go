package tabular

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"modelcheck/domain/core"
	"modelcheck/domain/dataset"
)

func writeCSV(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "data.csv")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing fixture: %v", err)
	}
	return path
}

func TestRead_CSVWithKindInference(t *testing.T) {
	path := writeCSV(t, "weight,weeks,sex\n3400,40,male\n2300,36,female\n3100,39,female\n")

	table, err := NewReader(nil).Read(context.Background(), path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if table.Name() != "data" {
		t.Errorf("table name %q, want data", table.Name())
	}
	if table.Rows() != 3 {
		t.Errorf("table has %d rows, want 3", table.Rows())
	}

	weight, ok := table.Column("weight")
	if !ok || weight.Kind != dataset.KindContinuous {
		t.Errorf("weight column kind %v, want continuous", weight.Kind)
	}
	sex, ok := table.Column("sex")
	if !ok || sex.Kind != dataset.KindCategorical {
		t.Errorf("sex column kind %v, want categorical", sex.Kind)
	}

	values, err := table.Numeric("weight")
	if err != nil {
		t.Fatalf("reading weight column: %v", err)
	}
	if values[0] != 3400 || values[1] != 2300 {
		t.Errorf("weight values %v, want 3400 then 2300", values[:2])
	}
}

func TestRead_AppliesIndicators(t *testing.T) {
	path := writeCSV(t, "weight,weeks\n3400,40\n2300,36\n3100,39\n")

	table, err := NewReader(nil).Read(context.Background(), path, dataset.IndicatorSpec{
		Source:    "weight",
		Target:    "low_weight",
		Threshold: 2500,
		Below:     true,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	low, err := table.Numeric("low_weight")
	if err != nil {
		t.Fatalf("indicator column missing: %v", err)
	}
	want := []float64{0, 1, 0}
	for i, v := range low {
		if v != want[i] {
			t.Errorf("low_weight[%d] = %v, want %v", i, v, want[i])
		}
	}
}

func TestRead_MissingValue(t *testing.T) {
	path := writeCSV(t, "weight,weeks\n3400,40\n,36\n")

	_, err := NewReader(nil).Read(context.Background(), path)
	if !core.IsDataFormatError(err) {
		t.Errorf("expected data format error for empty cell, got %v", err)
	}
}

func TestRead_HeaderOnly(t *testing.T) {
	path := writeCSV(t, "weight,weeks\n")

	_, err := NewReader(nil).Read(context.Background(), path)
	if !core.IsDataFormatError(err) {
		t.Errorf("expected data format error for header-only file, got %v", err)
	}
}

func TestRead_FileNotFound(t *testing.T) {
	_, err := NewReader(nil).Read(context.Background(), filepath.Join(t.TempDir(), "absent.csv"))
	if err == nil {
		t.Error("expected error for missing file")
	}
}

func TestRead_CancelledContext(t *testing.T) {
	path := writeCSV(t, "a\n1\n")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := NewReader(nil).Read(ctx, path); err == nil {
		t.Error("expected error from cancelled context")
	}
}
