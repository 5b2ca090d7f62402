package utils

import (
	"net/http"
	"strconv"
)

// DefaultLimit is the page size used when the client sends none.
const DefaultLimit = 10

// GetWindowParams parses limit and offset query parameters from a request.
// Returns limit (default 10, at most maxLimit) and offset (default 0).
func GetWindowParams(r *http.Request, maxLimit int) (limit, offset int) {
	limitStr := r.URL.Query().Get("limit")
	offsetStr := r.URL.Query().Get("offset")

	limit, err := strconv.Atoi(limitStr)
	if err != nil || limit < 1 {
		limit = DefaultLimit
	}
	if maxLimit > 0 && limit > maxLimit {
		limit = maxLimit
	}

	offset, err = strconv.Atoi(offsetStr)
	if err != nil || offset < 0 {
		offset = 0
	}
	return limit, offset
}
