package utils

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetWindowParams(t *testing.T) {
	tests := []struct {
		query      string
		wantLimit  int
		wantOffset int
	}{
		{"", 10, 0},
		{"limit=25&offset=50", 25, 50},
		{"limit=abc&offset=xyz", 10, 0},
		{"limit=0&offset=-5", 10, 0},
		{"limit=5000", 2000, 0},
		{"offset=20", 10, 20},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			r := httptest.NewRequest("GET", "/api/data?"+tt.query, nil)
			limit, offset := GetWindowParams(r, 2000)
			assert.Equal(t, tt.wantLimit, limit)
			assert.Equal(t, tt.wantOffset, offset)
		})
	}
}
