package listio

import (
	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/sells-group/dataforge/internal/model"
)

// sheetName is the sheet written on export.
const sheetName = "Contacts"

// ReadXLSX parses the first sheet of an XLSX file; its first row is the
// header.
func ReadXLSX(path string) (*Table, error) {
	f, err := xlsx.OpenFile(path)
	if err != nil {
		return nil, eris.Wrap(err, "xlsx: open file")
	}
	if len(f.Sheets) == 0 {
		return nil, eris.New("xlsx: workbook has no sheets")
	}

	sheet := f.Sheets[0]
	records := make([][]string, 0, len(sheet.Rows))
	for _, row := range sheet.Rows {
		if row == nil {
			records = append(records, nil)
			continue
		}
		records = append(records, rowToStrings(row))
	}
	return buildTable(records), nil
}

// WriteXLSX writes rows to a single-sheet workbook at path.
func WriteXLSX(path string, columns []string, rows []model.Row, opts ExportOptions) error {
	f := xlsx.NewFile()
	sheet, err := f.AddSheet(sheetName)
	if err != nil {
		return eris.Wrap(err, "xlsx: add sheet")
	}

	addRow(sheet, columns)
	for _, rec := range exportRecords(columns, rows, opts) {
		addRow(sheet, rec)
	}

	return eris.Wrap(f.Save(path), "xlsx: save file")
}

func addRow(sheet *xlsx.Sheet, cells []string) {
	row := sheet.AddRow()
	for _, v := range cells {
		row.AddCell().SetString(v)
	}
}

func rowToStrings(row *xlsx.Row) []string {
	cells := make([]string, len(row.Cells))
	for j, cell := range row.Cells {
		cells[j] = cell.String()
	}
	return cells
}
