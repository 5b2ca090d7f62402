package models

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestToFloat(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want float64
		ok   bool
	}{
		{"json number", json.Number("12.5"), 12.5, true},
		{"float", 3.0, 3, true},
		{"int", 7, 7, true},
		{"numeric string", " 42 ", 42, true},
		{"text", "Gaya", 0, false},
		{"nil", nil, 0, false},
		{"NaN string", "NaN", 0, false},
		{"Inf string", "Inf", 0, false},
		{"Infinity string", "-Infinity", 0, false},
		{"NaN float", math.NaN(), 0, false},
		{"Inf float", math.Inf(1), 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ToFloat(tt.in)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}
