package render

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"modelcheck/domain/report"
)

// ExcelRenderer exports the comparison table and test statistic checks as a
// workbook, with the caveats on their own sheet so they travel with the
// numbers.
type ExcelRenderer struct{}

// NewExcelRenderer creates a spreadsheet renderer
func NewExcelRenderer() *ExcelRenderer {
	return &ExcelRenderer{}
}

// Render returns the xlsx artifact bytes
func (r *ExcelRenderer) Render(rep report.Report) ([]byte, string, error) {
	f := excelize.NewFile()
	defer f.Close()

	const compSheet = "Comparison"
	f.SetSheetName("Sheet1", compSheet)

	headers := []interface{}{"Model", "Formula", "elpd_loo", "se", "elpd_diff", "se_diff", "p_loo"}
	if err := writeRow(f, compSheet, 1, headers); err != nil {
		return nil, "", err
	}
	for i, row := range rep.Comparison.Rows {
		values := []interface{}{
			row.Model.String(), row.Formula, row.ELPD, row.SE, row.Delta, row.DeltaSE, row.PLoo,
		}
		if err := writeRow(f, compSheet, i+2, values); err != nil {
			return nil, "", err
		}
	}

	if len(rep.StatChecks) > 0 {
		const checkSheet = "Stat checks"
		if _, err := f.NewSheet(checkSheet); err != nil {
			return nil, "", err
		}
		if err := writeRow(f, checkSheet, 1, []interface{}{"Model", "Statistic", "Observed", "Tail probability"}); err != nil {
			return nil, "", err
		}
		for i, c := range rep.StatChecks {
			values := []interface{}{c.Model.String(), c.Statistic, c.Observed, c.TailProbability()}
			if err := writeRow(f, checkSheet, i+2, values); err != nil {
				return nil, "", err
			}
		}
	}

	warnings := rep.AllWarnings()
	if len(warnings) > 0 {
		const caveatSheet = "Caveats"
		if _, err := f.NewSheet(caveatSheet); err != nil {
			return nil, "", err
		}
		for i, w := range warnings {
			if err := writeRow(f, caveatSheet, i+1, []interface{}{w.String()}); err != nil {
				return nil, "", err
			}
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, "", fmt.Errorf("writing workbook: %w", err)
	}
	return buf.Bytes(), ".xlsx", nil
}

func writeRow(f *excelize.File, sheet string, rowIdx int, values []interface{}) error {
	for c, v := range values {
		cell, err := excelize.CoordinatesToCellName(c+1, rowIdx)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheet, cell, v); err != nil {
			return err
		}
	}
	return nil
}
