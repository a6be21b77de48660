package sheets

import (
	"strings"

	"github.com/Veraticus/sheetboard/internal/model"
)

// ParseGrid converts a value grid into records. The first row holds the
// headers; blank headers are dropped and short rows are padded with empty
// text. A grid without at least one data row yields no records.
func ParseGrid(grid [][]string) []model.Record {
	if len(grid) < 2 {
		return []model.Record{}
	}

	headers := make([]string, len(grid[0]))
	for i, h := range grid[0] {
		headers[i] = strings.TrimSpace(h)
	}

	records := make([]model.Record, 0, len(grid)-1)
	for _, row := range grid[1:] {
		rec := make(model.Record, len(headers))
		for i, h := range headers {
			if h == "" {
				continue
			}
			if i < len(row) {
				rec[h] = model.Cell(row[i])
			} else {
				rec[h] = model.Text("")
			}
		}
		records = append(records, rec)
	}
	return records
}
