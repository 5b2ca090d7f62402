package models

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// Well-known upstream field names.
const (
	FieldState        = "state_name"
	FieldDistrict     = "district_name"
	FieldTotalWorks   = "total_works"
	FieldTotalWorkers = "total_workers"
	FieldTotalBudget  = "total_budget"
)

// Record is one district-period observation as returned by data.gov.in.
// The schema is whatever the upstream resource carries.
type Record map[string]any

// String returns the field as a string when it holds one, or "".
func (r Record) String(field string) string {
	s, _ := r[field].(string)
	return s
}

// Number reports the numeric value of a field. json.Number, float64, int and
// numeric strings are accepted; anything else reports ok=false.
func (r Record) Number(field string) (float64, bool) {
	return ToFloat(r[field])
}

// ToFloat converts a decoded JSON value to a float64 if it is a finite
// number. NaN and infinities, including strings such as "NaN" or "Inf",
// report ok=false.
func ToFloat(v any) (float64, bool) {
	var f float64
	switch n := v.(type) {
	case json.Number:
		var err error
		if f, err = n.Float64(); err != nil {
			return 0, false
		}
	case float64:
		f = n
	case float32:
		f = float64(n)
	case int:
		f = float64(n)
	case int64:
		f = float64(n)
	case string:
		var err error
		if f, err = strconv.ParseFloat(strings.TrimSpace(n), 64); err != nil {
			return 0, false
		}
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}
