package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func salesDashboard() Dashboard {
	return Dashboard{
		Name:          "vendas",
		SpreadsheetID: "sheet-id",
		SheetName:     "2025",
		GroupColumn:   "VENDEDOR",
		DateColumns:   []string{"DATA"},
		Metrics: []Metric{
			{Key: "leads", Column: "LEADS", Title: "Leads"},
			{Key: "faturamento", Column: "FATURAMENTO", Title: "Faturamento"},
		},
		PrimaryMetric:   "faturamento",
		RefreshInterval: 30 * time.Second,
	}
}

func TestDashboard_ReadRange(t *testing.T) {
	d := salesDashboard()
	assert.Equal(t, "2025!A:Z", d.ReadRange())

	d.SheetName = "Vendas Diárias"
	assert.Equal(t, "'Vendas Diárias'!A:Z", d.ReadRange())

	d.Range = "2025!A:I"
	assert.Equal(t, "2025!A:I", d.ReadRange())
}

func TestDashboard_Primary(t *testing.T) {
	d := salesDashboard()
	assert.Equal(t, "FATURAMENTO", d.Primary().Column)

	d.PrimaryMetric = "LEADS"
	assert.Equal(t, "leads", d.Primary().Key)

	d.PrimaryMetric = ""
	assert.Equal(t, "leads", d.Primary().Key)
}

func TestDashboard_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Dashboard)
		wantErr error
		errMsg  string
	}{
		{name: "valid", mutate: func(*Dashboard) {}},
		{name: "missing spreadsheet", mutate: func(d *Dashboard) { d.SpreadsheetID = " " }, wantErr: ErrMissingSpreadsheet},
		{name: "missing date column", mutate: func(d *Dashboard) { d.DateColumns = nil }, wantErr: ErrMissingDateColumn},
		{name: "missing metrics", mutate: func(d *Dashboard) { d.Metrics = nil }, wantErr: ErrMissingMetrics},
		{
			name:   "duplicate metric",
			mutate: func(d *Dashboard) {
				d.Metrics = append(d.Metrics, Metric{Key: "leads", Column: "LEADS 2"})
			},
			errMsg: "duplicate metric key",
		},
		{
			name:   "incomplete metric",
			mutate: func(d *Dashboard) { d.Metrics[0].Column = "" },
			errMsg: "needs both key and column",
		},
		{
			name:   "negative refresh",
			mutate: func(d *Dashboard) { d.RefreshInterval = -time.Second },
			errMsg: "refresh interval cannot be negative",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := salesDashboard()
			tt.mutate(&d)
			err := d.Validate()
			switch {
			case tt.wantErr != nil:
				assert.ErrorIs(t, err, tt.wantErr)
			case tt.errMsg != "":
				assert.ErrorContains(t, err, tt.errMsg)
			default:
				assert.NoError(t, err)
			}
		})
	}
}

func TestDashboard_HasCategory(t *testing.T) {
	d := salesDashboard()
	d.CategoryColumns = []string{"ORIGEM"}

	assert.True(t, d.HasCategory("ORIGEM"))
	assert.True(t, d.HasCategory("VENDEDOR"))
	assert.False(t, d.HasCategory("LEADS"))
	assert.False(t, d.HasCategory(""))
}
