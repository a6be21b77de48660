package main

import (
	"bytes"
	"errors"
	"testing"

	"github.com/Veraticus/sheetboard/internal/filter"
	"github.com/Veraticus/sheetboard/internal/period"
	"github.com/Veraticus/sheetboard/internal/pipeline"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFilters(t *testing.T) {
	tests := []struct {
		want   filter.Selection
		name   string
		errMsg string
		in     []string
	}{
		{name: "none", in: nil, want: nil},
		{name: "single", in: []string{"VENDEDOR=Ana"}, want: filter.Selection{"VENDEDOR": {"Ana"}}},
		{name: "comma separated", in: []string{"VENDEDOR=Ana, Bruno"}, want: filter.Selection{"VENDEDOR": {"Ana", "Bruno"}}},
		{name: "repeated", in: []string{"VENDEDOR=Ana", "VENDEDOR=Bruno"}, want: filter.Selection{"VENDEDOR": {"Ana", "Bruno"}}},
		{name: "blank values", in: []string{"VENDEDOR="}, want: filter.Selection{"VENDEDOR": nil}},
		{name: "missing equals", in: []string{"VENDEDOR"}, errMsg: "invalid filter"},
		{name: "missing column", in: []string{"=Ana"}, errMsg: "invalid filter"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseFilters(tt.in)
			if tt.errMsg != "" {
				assert.ErrorContains(t, err, tt.errMsg)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func newSelectionCmd(t *testing.T, args ...string) *cobra.Command {
	t.Helper()
	cmd := &cobra.Command{Use: "test"}
	addSelectionFlags(cmd)
	require.NoError(t, cmd.ParseFlags(args))
	return cmd
}

func TestSelectionFromFlags(t *testing.T) {
	sel, err := selectionFromFlags(newSelectionCmd(t), period.Yesterday)
	require.NoError(t, err)
	assert.Equal(t, pipeline.Selection{Period: period.Yesterday}, sel)

	sel, err = selectionFromFlags(newSelectionCmd(t,
		"--period", "custom", "--month", "8", "--year", "2025", "-f", "VENDEDOR=Ana"), period.Yesterday)
	require.NoError(t, err)
	assert.Equal(t, period.Custom, sel.Period)
	assert.Equal(t, "8", sel.CustomMonth)
	assert.Equal(t, "2025", sel.CustomYear)
	assert.Equal(t, filter.Selection{"VENDEDOR": {"Ana"}}, sel.Categories)

	sel, err = selectionFromFlags(newSelectionCmd(t, "-p", "semana"), period.Yesterday)
	require.NoError(t, err)
	assert.Equal(t, period.Week, sel.Period)

	_, err = selectionFromFlags(newSelectionCmd(t, "--period", "fortnight"), period.Yesterday)
	assert.ErrorContains(t, err, "unknown period")
}

func TestRenderFetch(t *testing.T) {
	out := renderFetch([]fetchOutcome{
		{name: "vendas", rows: 120, origin: pipeline.OriginRemote},
		{name: "adm", rows: 40, origin: pipeline.OriginCache},
		{name: "rh", err: errors.New("sheet unavailable")},
	})

	assert.Contains(t, out, "vendas")
	assert.Contains(t, out, "120")
	assert.Contains(t, out, "cache kept")
	assert.Contains(t, out, "sheet unavailable")
}

func TestVersionCommand(t *testing.T) {
	var buf bytes.Buffer
	cmd := versionCmd()
	cmd.SetOut(&buf)
	cmd.SetArgs([]string{})
	require.NoError(t, cmd.Execute())
	assert.Equal(t, "sheetboard version dev\n", buf.String())
}

func TestYearFlagHelp(t *testing.T) {
	for _, cmd := range []*cobra.Command{reportCmd(), watchCmd()} {
		usage := cmd.Flags().Lookup("year").Usage
		assert.Contains(t, usage, "report needs it with --period custom", cmd.Name())
		assert.NotContains(t, usage, "default: current year", cmd.Name())
	}
}
