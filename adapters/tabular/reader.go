// Package tabular loads observation tables from delimited text and Excel
// files. Columns are header-mapped; kinds are inferred (numeric values make
// a continuous column, anything else categorical) and derived indicator
// columns are applied as part of the load.
package tabular

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"modelcheck/domain/core"
	"modelcheck/domain/dataset"
	"modelcheck/internal"
)

// Reader handles reading Excel and CSV dataset files
type Reader struct {
	logger *internal.Logger
}

// NewReader creates a dataset reader
func NewReader(logger *internal.Logger) *Reader {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	return &Reader{logger: logger}
}

// Read loads the table at path, applying any derived indicator columns.
// File type is chosen by extension: .csv reads as delimited text, anything
// else goes through the Excel reader.
func (r *Reader) Read(ctx context.Context, path string, indicators ...dataset.IndicatorSpec) (*dataset.Table, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, fmt.Errorf("dataset file not found: %s", path)
	}

	var (
		rows [][]string
		err  error
	)
	ext := strings.ToLower(filepath.Ext(path))
	if ext == ".csv" {
		rows, err = r.readCSV(path)
	} else {
		rows, err = r.readExcel(path)
	}
	if err != nil {
		return nil, err
	}

	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	table, err := buildTable(name, rows)
	if err != nil {
		return nil, err
	}

	if len(indicators) > 0 {
		table, err = table.WithIndicators(indicators...)
		if err != nil {
			return nil, err
		}
	}

	r.logger.Info("loaded dataset %q: %d rows, %d columns", name, table.Rows(), len(table.ColumnKeys()))
	return table, nil
}

func (r *Reader) readCSV(path string) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open CSV file: %w", err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.TrimLeadingSpace = true
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse CSV file: %w", err)
	}
	return rows, nil
}

func (r *Reader) readExcel(path string) ([][]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open Excel file: %w", err)
	}
	defer f.Close()

	// Always use the first sheet
	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("Excel file has no sheets")
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %q: %w", sheets[0], err)
	}
	return rows, nil
}

// buildTable converts header + data rows into a typed observation table.
// A column is continuous when every non-header cell parses as a number.
func buildTable(name string, rows [][]string) (*dataset.Table, error) {
	if len(rows) < 2 {
		return nil, fmt.Errorf("%w: file needs a header row and at least one data row", core.ErrDataFormat)
	}

	header := rows[0]
	data := rows[1:]

	columns := make([]dataset.Column, 0, len(header))
	for j, rawName := range header {
		colName := strings.TrimSpace(rawName)
		if colName == "" {
			return nil, fmt.Errorf("%w: empty header at column %d", core.ErrDataFormat, j+1)
		}

		cells := make([]string, len(data))
		numeric := true
		for i, row := range data {
			cell := ""
			if j < len(row) {
				cell = strings.TrimSpace(row[j])
			}
			if cell == "" {
				return nil, core.NewMissingValuesError(colName, i+1)
			}
			cells[i] = cell
			if numeric {
				if _, err := strconv.ParseFloat(cell, 64); err != nil {
					numeric = false
				}
			}
		}

		key := core.VariableKey(colName)
		if numeric {
			values := make([]float64, len(cells))
			for i, cell := range cells {
				v, _ := strconv.ParseFloat(cell, 64)
				values[i] = v
			}
			columns = append(columns, dataset.Column{Key: key, Kind: dataset.KindContinuous, Values: values})
		} else {
			columns = append(columns, dataset.Column{Key: key, Kind: dataset.KindCategorical, Labels: cells})
		}
	}

	return dataset.NewTable(name, columns)
}
