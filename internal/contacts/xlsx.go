package contacts

import (
	"fmt"

	"github.com/xuri/excelize/v2"
)

// readXLSX returns raw cell values so numeric phones and date serials are not
// run through the workbook's display formats.
func readXLSX(path, sheet string) ([][]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	if sheet == "" {
		sheet = f.GetSheetName(0)
		if sheet == "" {
			return nil, fmt.Errorf("workbook has no sheets")
		}
	} else if idx, err := f.GetSheetIndex(sheet); err != nil || idx < 0 {
		return nil, fmt.Errorf("sheet %q not found", sheet)
	}

	return f.GetRows(sheet, excelize.Options{RawCellValue: true})
}
