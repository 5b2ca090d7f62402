package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/mgnrega/dashboard/models"
	"github.com/pkg/errors"
	"golang.org/x/time/rate"
)

// DefaultBaseURL is the data.gov.in resource endpoint.
const DefaultBaseURL = "https://api.data.gov.in/resource"

const maxBodyBytes = 64 << 20

var (
	// ErrFetchFailed covers network errors, timeouts and non-2xx statuses.
	ErrFetchFailed = errors.New("upstream fetch failed")
	// ErrInvalidResponse means the payload carried no records list.
	ErrInvalidResponse = errors.New("invalid upstream response")
)

// InvalidResponseError keeps the raw payload for diagnosis.
type InvalidResponseError struct {
	Reason string
	Raw    json.RawMessage
}

func (e *InvalidResponseError) Error() string {
	return ErrInvalidResponse.Error() + ": " + e.Reason
}

func (e *InvalidResponseError) Is(target error) bool { return target == ErrInvalidResponse }

// FetchError wraps the cause of a failed upstream call.
type FetchError struct {
	Err error
}

func (e *FetchError) Error() string { return ErrFetchFailed.Error() + ": " + e.Err.Error() }

func (e *FetchError) Is(target error) bool { return target == ErrFetchFailed }

func (e *FetchError) Unwrap() error { return e.Err }

// Options configures a Client.
type Options struct {
	BaseURL    string
	APIKey     string
	ResourceID string
	Timeout    time.Duration
	// RatePerSecond limits outbound calls; zero disables limiting.
	RatePerSecond float64
	Burst         int
}

// Client talks to one data.gov.in resource. It holds no per-request state
// and is safe for concurrent use.
type Client struct {
	baseURL    string
	apiKey     string
	resourceID string
	client     *http.Client
	limiter    *rate.Limiter
}

// NewClient returns a client with the given timeout (15s when unset).
func NewClient(opts Options) *Client {
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultBaseURL
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 15 * time.Second
	}
	c := &Client{
		baseURL:    strings.TrimRight(opts.BaseURL, "/"),
		apiKey:     opts.APIKey,
		resourceID: opts.ResourceID,
		client: &http.Client{
			Timeout: opts.Timeout,
			Transport: &http.Transport{
				Proxy:           http.ProxyFromEnvironment,
				MaxIdleConns:    20,
				MaxConnsPerHost: 10,
				IdleConnTimeout: 20 * time.Second,
			},
		},
	}
	if opts.RatePerSecond > 0 {
		burst := opts.Burst
		if burst <= 0 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(opts.RatePerSecond), burst)
	}
	return c
}

// Query selects a window of records with optional exact-match field filters.
type Query struct {
	Limit   int
	Offset  int
	Filters map[string]string
}

// Result is the normalized upstream envelope.
type Result struct {
	Records []models.Record
	// Total is the upstream total, else its count, else len(Records).
	Total int
}

// CloseIdleConnections releases pooled connections.
func (c *Client) CloseIdleConnections() {
	c.client.CloseIdleConnections()
}

// Fetch performs one upstream call. It never retries.
func (c *Client) Fetch(ctx context.Context, q Query) (*Result, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, &FetchError{Err: errors.Wrap(err, "rate limit wait")}
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.buildURL(q), nil)
	if err != nil {
		return nil, &FetchError{Err: errors.Wrap(err, "build request")}
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, &FetchError{Err: c.redact(err)}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, &FetchError{Err: errors.Wrap(c.redact(err), "read body")}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &FetchError{Err: errors.Errorf("status %d", resp.StatusCode)}
	}
	return decode(body)
}

func (c *Client) buildURL(q Query) string {
	params := url.Values{}
	params.Set("api-key", c.apiKey)
	params.Set("format", "json")
	params.Set("limit", strconv.Itoa(q.Limit))
	params.Set("offset", strconv.Itoa(q.Offset))

	fields := make([]string, 0, len(q.Filters))
	for field := range q.Filters {
		fields = append(fields, field)
	}
	sort.Strings(fields)
	for _, field := range fields {
		if v := q.Filters[field]; v != "" {
			params.Set(fmt.Sprintf("filters[%s]", field), v)
		}
	}
	return c.baseURL + "/" + url.PathEscape(c.resourceID) + "?" + params.Encode()
}

// redact keeps the API key out of error strings, which *url.Error embeds.
func (c *Client) redact(err error) error {
	if c.apiKey == "" || !strings.Contains(err.Error(), c.apiKey) {
		return err
	}
	return &redactedError{msg: strings.ReplaceAll(err.Error(), c.apiKey, "REDACTED"), err: err}
}

type redactedError struct {
	msg string
	err error
}

func (e *redactedError) Error() string { return e.msg }
func (e *redactedError) Unwrap() error { return e.err }

type envelope struct {
	Records json.RawMessage `json:"records"`
	Total   json.RawMessage `json:"total"`
	Count   json.RawMessage `json:"count"`
}

func decode(body []byte) (*Result, error) {
	raw := json.RawMessage(bytes.TrimSpace(body))
	if len(raw) == 0 || raw[0] != '{' {
		return nil, &InvalidResponseError{Reason: "payload is not an object", Raw: rawOrNull(raw)}
	}
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, &InvalidResponseError{Reason: "malformed json", Raw: nil}
	}
	if isNull(env.Records) {
		return nil, &InvalidResponseError{Reason: "records missing", Raw: raw}
	}

	dec := json.NewDecoder(bytes.NewReader(env.Records))
	dec.UseNumber()
	var records []models.Record
	if err := dec.Decode(&records); err != nil {
		return nil, &InvalidResponseError{Reason: "records is not a list", Raw: raw}
	}
	if records == nil {
		records = []models.Record{}
	}

	total, ok := parseCount(env.Total)
	if !ok {
		total, ok = parseCount(env.Count)
	}
	if !ok {
		total = len(records)
	}
	return &Result{Records: records, Total: total}, nil
}

// parseCount accepts a JSON number or a numeric string.
func parseCount(raw json.RawMessage) (int, bool) {
	if isNull(raw) {
		return 0, false
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		if i, err := n.Int64(); err == nil {
			return countInRange(float64(i))
		}
		if f, err := n.Float64(); err == nil {
			return countInRange(f)
		}
		return 0, false
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		if i, err := strconv.Atoi(strings.TrimSpace(s)); err == nil {
			return countInRange(float64(i))
		}
	}
	return 0, false
}

// countInRange rejects counts that are negative, non-finite or too large for
// an int, so the caller falls back to the next source.
func countInRange(f float64) (int, bool) {
	if math.IsNaN(f) || f < 0 || f >= math.MaxInt32 {
		return 0, false
	}
	return int(f), true
}

func isNull(raw json.RawMessage) bool {
	return len(raw) == 0 || string(raw) == "null"
}

func rawOrNull(raw json.RawMessage) json.RawMessage {
	if json.Valid(raw) {
		return raw
	}
	return nil
}
