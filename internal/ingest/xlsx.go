package ingest

import (
	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/sells-group/saferoute/internal/model"
)

// ParseXLSX reads crime observations from the first sheet of an XLSX
// workbook. Row semantics are identical to ParseCSV.
func ParseXLSX(path, source string) ([]model.Observation, int, error) {
	f, err := xlsx.OpenFile(path)
	if err != nil {
		return nil, 0, eris.Wrap(err, "ingest: open xlsx")
	}
	if len(f.Sheets) == 0 {
		return nil, 0, eris.New("ingest: xlsx has no sheets")
	}
	sheet := f.Sheets[0]
	if len(sheet.Rows) == 0 {
		return nil, 0, eris.New("ingest: xlsx sheet is empty")
	}

	cols, err := mapColumns(rowToStrings(sheet.Rows[0]))
	if err != nil {
		return nil, 0, err
	}

	var (
		obs     []model.Observation
		skipped int
	)
	for _, row := range sheet.Rows[1:] {
		o, ok := cols.observation(rowToStrings(row))
		if !ok {
			skipped++
			continue
		}
		o.Source = source
		obs = append(obs, o)
	}
	return obs, skipped, nil
}

func rowToStrings(row *xlsx.Row) []string {
	cells := make([]string, len(row.Cells))
	for i, c := range row.Cells {
		cells[i] = c.String()
	}
	return cells
}
