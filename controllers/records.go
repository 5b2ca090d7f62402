package controllers

import (
	"context"
	"errors"
	"net/http"

	"github.com/mgnrega/dashboard/logger"
	"github.com/mgnrega/dashboard/middleware"
	"github.com/mgnrega/dashboard/models"
	"github.com/mgnrega/dashboard/upstream"
	"github.com/mgnrega/dashboard/utils"
	"github.com/sirupsen/logrus"
)

// RecordSource fetches one window of upstream records.
type RecordSource interface {
	Fetch(ctx context.Context, q upstream.Query) (*upstream.Result, error)
}

// GetFiltersHandler returns an unfiltered sample of up to sampleLimit records
// from which clients derive the state and district vocabulary.
func GetFiltersHandler(src RecordSource, sampleLimit int) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		res, err := src.Fetch(r.Context(), upstream.Query{Limit: sampleLimit})
		if err != nil {
			entry := requestLog(r).WithError(err)
			var invalid *upstream.InvalidResponseError
			if errors.As(err, &invalid) {
				entry.Error("/api/filters: invalid upstream response")
				writeJSON(w, http.StatusInternalServerError, models.ErrorResponse{
					Error: "Invalid upstream response",
					Raw:   invalid.Raw,
				})
				return
			}
			entry.Error("/api/filters: upstream fetch failed")
			writeError(w, http.StatusInternalServerError, "Failed to fetch filters")
			return
		}

		writeJSON(w, http.StatusOK, models.FiltersResponse{Records: res.Records})
	}
}

// GetDataHandler returns one page of records, filtered by the optional state
// and district query parameters.
func GetDataHandler(src RecordSource, maxLimit int) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit, offset := utils.GetWindowParams(r, maxLimit)
		state := r.URL.Query().Get("state")
		district := r.URL.Query().Get("district")

		q := upstream.Query{Limit: limit, Offset: offset}
		if state != "" || district != "" {
			q.Filters = map[string]string{}
			if state != "" {
				q.Filters[models.FieldState] = state
			}
			if district != "" {
				q.Filters[models.FieldDistrict] = district
			}
		}

		res, err := src.Fetch(r.Context(), q)
		if err != nil {
			entry := requestLog(r).WithError(err).WithFields(logrus.Fields{
				"state":    state,
				"district": district,
				"limit":    limit,
				"offset":   offset,
			})
			if errors.Is(err, upstream.ErrInvalidResponse) {
				entry.Error("/api/data: invalid upstream response")
				writeError(w, http.StatusInternalServerError, "Invalid upstream response")
				return
			}
			entry.Error("/api/data: upstream fetch failed")
			writeError(w, http.StatusInternalServerError, "Failed to fetch data")
			return
		}

		writeJSON(w, http.StatusOK, models.DataResponse{Records: res.Records, Total: res.Total})
	}
}

func requestLog(r *http.Request) *logrus.Entry {
	return logger.Log.WithField("request_id", middleware.RequestIDFrom(r.Context()))
}
