package importer

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/xuri/excelize/v2"
)

// Row is one spreadsheet row keyed by its header label, exactly as the cell
// text appears.
type Row map[string]string

// ReadFirstSheet decodes an .xlsx workbook and returns the first sheet's data
// rows keyed by the header row. Blank header cells are skipped; rows wider
// than the header are truncated to it.
func ReadFirstSheet(fileBytes []byte) ([]Row, error) {
	f, err := excelize.OpenReader(bytes.NewReader(fileBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to open Excel file: %v", err)
	}
	defer f.Close()

	sheetName := f.GetSheetName(0)
	if sheetName == "" {
		return nil, errors.New("no sheets found in Excel file")
	}

	rows, err := f.GetRows(sheetName)
	if err != nil {
		return nil, fmt.Errorf("unable to read sheet: %v", err)
	}
	if len(rows) == 0 {
		return nil, errors.New("Excel file is empty")
	}

	header := rows[0]
	out := make([]Row, 0, len(rows)-1)
	for _, cells := range rows[1:] {
		row := make(Row, len(header))
		for i, label := range header {
			if label == "" {
				continue
			}
			if i < len(cells) {
				row[label] = cells[i]
			}
		}
		out = append(out, row)
	}
	return out, nil
}
