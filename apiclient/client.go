package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/mgnrega/dashboard/models"
)

var (
	// ErrUnexpectedShape means the proxy answered 2xx with valid JSON but
	// without a record list.
	ErrUnexpectedShape = errors.New("unexpected response shape")
	// ErrMalformedBody means the proxy's body was not JSON at all.
	ErrMalformedBody = errors.New("malformed response body")
)

const (
	filtersFallback = "Failed to load filters"
	dataFallback    = "API returned an error"
)

// APIError is a non-2xx answer from the proxy.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("proxy returned %d: %s", e.Status, e.Message)
}

// Client calls the dashboard proxy.
type Client struct {
	baseURL string
	http    *http.Client
}

// New returns a client for the proxy at baseURL. A nil httpClient uses
// http.DefaultClient.
func New(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{baseURL: strings.TrimRight(baseURL, "/"), http: httpClient}
}

// Filters loads the vocabulary sample from /api/filters.
func (c *Client) Filters(ctx context.Context) ([]models.Record, error) {
	body, err := c.get(ctx, "/api/filters", nil, filtersFallback)
	if err != nil {
		return nil, err
	}
	records, _, err := decodeRecords(body)
	return records, err
}

// Page loads one page from /api/data.
func (c *Client) Page(ctx context.Context, q models.PageQuery) (models.DataResponse, error) {
	params := url.Values{}
	params.Set("limit", strconv.Itoa(q.Limit))
	params.Set("offset", strconv.Itoa(q.Offset))
	if q.State != "" {
		params.Set("state", q.State)
	}
	if q.District != "" {
		params.Set("district", q.District)
	}

	body, err := c.get(ctx, "/api/data", params, dataFallback)
	if err != nil {
		return models.DataResponse{}, err
	}
	records, total, err := decodeRecords(body)
	if err != nil {
		return models.DataResponse{}, err
	}
	if total == 0 {
		total = len(records)
	}
	return models.DataResponse{Records: records, Total: total}, nil
}

// get returns the body of a 2xx answer. Non-2xx answers become *APIError with
// the server's error text, or fallback when the JSON carries none.
func (c *Client) get(ctx context.Context, path string, params url.Values, fallback string) ([]byte, error) {
	target := c.baseURL + path
	if len(params) > 0 {
		target += "?" + params.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("apiclient: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("apiclient: GET %s: %w", path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("apiclient: read %s: %w", path, err)
	}
	if err := checkJSON(body); err != nil {
		return nil, fmt.Errorf("apiclient: %s returned %d: %w", path, resp.StatusCode, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var e models.ErrorResponse
		msg := fallback
		if json.Unmarshal(body, &e) == nil && e.Error != "" {
			msg = e.Error
		}
		return nil, &APIError{Status: resp.StatusCode, Message: msg}
	}
	return body, nil
}

// checkJSON reports a body that does not parse as JSON, wrapping both
// ErrMalformedBody and the decoder error.
func checkJSON(body []byte) error {
	var v any
	if err := json.Unmarshal(body, &v); err != nil {
		return fmt.Errorf("%w: %w", ErrMalformedBody, err)
	}
	return nil
}

// decodeRecords accepts {"records":[...],"total":n} or a bare array.
func decodeRecords(body []byte) ([]models.Record, int, error) {
	body = bytes.TrimSpace(body)
	dec := func(raw []byte) ([]models.Record, error) {
		d := json.NewDecoder(bytes.NewReader(raw))
		d.UseNumber()
		var records []models.Record
		if err := d.Decode(&records); err != nil {
			return nil, ErrUnexpectedShape
		}
		if records == nil {
			records = []models.Record{}
		}
		return records, nil
	}

	if len(body) > 0 && body[0] == '[' {
		records, err := dec(body)
		return records, 0, err
	}

	var env struct {
		Records json.RawMessage `json:"records"`
		Total   int             `json:"total"`
	}
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, 0, ErrUnexpectedShape
	}
	if len(env.Records) == 0 || string(env.Records) == "null" {
		return nil, 0, ErrUnexpectedShape
	}
	records, err := dec(env.Records)
	return records, env.Total, err
}
