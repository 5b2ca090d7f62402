package models

import "encoding/json"

// FiltersResponse is the body of GET /api/filters.
type FiltersResponse struct {
	Records []Record `json:"records"`
}

// DataResponse is the body of GET /api/data. Total is the best signal the
// upstream gave: its total, else its count, else the page length.
type DataResponse struct {
	Records []Record `json:"records"`
	Total   int      `json:"total"`
}

// ErrorResponse is returned with every non-2xx status.
type ErrorResponse struct {
	Error string          `json:"error"`
	Raw   json.RawMessage `json:"raw,omitempty"`
}

// HealthResponse is the body of GET /api/health.
type HealthResponse struct {
	Status string `json:"status"`
}

// PageQuery selects one page of records, optionally filtered by state and district.
type PageQuery struct {
	State    string
	District string
	Limit    int
	Offset   int
}
