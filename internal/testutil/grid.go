package testutil

import "testing"

// GridBuilder assembles a sheet grid row by row.
//
//	grid := testutil.NewGrid(t, "DATA", "VENDEDOR", "LEADS").
//		Row("01/09/2025", "Ana", "5").
//		Row("02/09/2025", "Bruno", "3").
//		Build()
type GridBuilder struct {
	t      *testing.T
	header []string
	rows   [][]string
}

// NewGrid starts a grid with the given header row.
func NewGrid(t *testing.T, header ...string) *GridBuilder {
	t.Helper()
	if len(header) == 0 {
		t.Fatal("grid needs at least one header")
	}
	return &GridBuilder{t: t, header: header}
}

// Row appends a data row. Rows may be shorter than the header, like the
// ragged rows the Sheets API returns, but never longer.
func (b *GridBuilder) Row(cells ...string) *GridBuilder {
	b.t.Helper()
	if len(cells) > len(b.header) {
		b.t.Fatalf("row has %d cells but the header only %d", len(cells), len(b.header))
	}
	b.rows = append(b.rows, cells)
	return b
}

// Rows appends several data rows.
func (b *GridBuilder) Rows(rows ...[]string) *GridBuilder {
	b.t.Helper()
	for _, r := range rows {
		b.Row(r...)
	}
	return b
}

// Build returns the header followed by the rows. The result is a copy.
func (b *GridBuilder) Build() [][]string {
	grid := make([][]string, 0, len(b.rows)+1)
	grid = append(grid, append([]string(nil), b.header...))
	for _, r := range b.rows {
		grid = append(grid, append([]string(nil), r...))
	}
	return grid
}
