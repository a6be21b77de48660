package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCell(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		want     Value
		wantText string
	}{
		{name: "integer", raw: "5", want: Number(5), wantText: "5"},
		{name: "padded number", raw: " 3.5 ", want: Number(3.5), wantText: "3.5"},
		{name: "date stays text", raw: "01/08/2025", want: Text("01/08/2025"), wantText: "01/08/2025"},
		{name: "empty", raw: "", want: Text(""), wantText: ""},
		{name: "nan is text", raw: "NaN", want: Text("NaN"), wantText: "NaN"},
		{name: "infinity is text", raw: "Inf", want: Text("Inf"), wantText: "Inf"},
		{name: "comma decimal is text", raw: "1,5", want: Text("1,5"), wantText: "1,5"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Cell(tt.raw)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.wantText, got.String())
		})
	}
}

func TestRecord_Get(t *testing.T) {
	r := Record{
		"Data":  Text(""),
		"DATA":  Text("02/08/2025"),
		"LEADS": Number(3),
	}

	v, ok := r.Get("Data", "DATA")
	assert.True(t, ok)
	assert.Equal(t, "02/08/2025", v.String())

	_, ok = r.Get("Missing")
	assert.False(t, ok)

	assert.Equal(t, "3", r.String("LEADS"))
	assert.Equal(t, "", r.String("Missing"))
}
