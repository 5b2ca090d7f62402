package upstream

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func newTestClient(t *testing.T, handler http.HandlerFunc, timeout time.Duration) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	c := NewClient(Options{
		BaseURL:    server.URL + "/resource",
		APIKey:     "secret-key",
		ResourceID: "res-1",
		Timeout:    timeout,
	})
	t.Cleanup(func() {
		c.CloseIdleConnections()
		server.Close()
	})
	return c
}

func TestFetchBuildsUpstreamQuery(t *testing.T) {
	var got *http.Request
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		got = r
		w.Write([]byte(`{"records":[],"total":0}`))
	}, time.Second)

	_, err := c.Fetch(context.Background(), Query{
		Limit:  10,
		Offset: 20,
		Filters: map[string]string{
			"state_name":    "UTTAR PRADESH",
			"district_name": "",
		},
	})
	require.NoError(t, err)
	require.NotNil(t, got)

	assert.Equal(t, "/resource/res-1", got.URL.Path)
	q := got.URL.Query()
	assert.Equal(t, "secret-key", q.Get("api-key"))
	assert.Equal(t, "json", q.Get("format"))
	assert.Equal(t, "10", q.Get("limit"))
	assert.Equal(t, "20", q.Get("offset"))
	assert.Equal(t, "UTTAR PRADESH", q.Get("filters[state_name]"))
	_, hasDistrict := q["filters[district_name]"]
	assert.False(t, hasDistrict, "empty filters are not forwarded")
}

func TestFetchTotalFallback(t *testing.T) {
	tests := []struct {
		name string
		body string
		want int
	}{
		{"explicit total", `{"records":[{"a":1}],"total":120,"count":1}`, 120},
		{"string total", `{"records":[{"a":1}],"total":"75"}`, 75},
		{"count only", `{"records":[{"a":1},{"a":2}],"count":2}`, 2},
		{"null total uses count", `{"records":[{"a":1}],"total":null,"count":9}`, 9},
		{"neither", `{"records":[{"a":1},{"a":2},{"a":3}]}`, 3},
		{"non-numeric total", `{"records":[{"a":1}],"total":"many"}`, 1},
		{"overflowing total uses count", `{"records":[{"a":1}],"total":1e30,"count":4}`, 4},
		{"overflowing total and count", `{"records":[{"a":1},{"a":2}],"total":1e30,"count":"99999999999999999999"}`, 2},
		{"negative total", `{"records":[{"a":1}],"total":-5}`, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(tt.body))
			}, time.Second)

			res, err := c.Fetch(context.Background(), Query{Limit: 10})
			require.NoError(t, err)
			assert.Equal(t, tt.want, res.Total)
		})
	}
}

func TestFetchKeepsNumbersExact(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"records":[{"state_name":"BIHAR","total_works":12345678901234567}]}`))
	}, time.Second)

	res, err := c.Fetch(context.Background(), Query{Limit: 1})
	require.NoError(t, err)
	require.Len(t, res.Records, 1)
	assert.Equal(t, json.Number("12345678901234567"), res.Records[0]["total_works"])
	assert.Equal(t, "BIHAR", res.Records[0].String("state_name"))
}

func TestFetchInvalidResponse(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantRaw bool
	}{
		{"records missing", `{"message":"Invalid key"}`, true},
		{"records null", `{"records":null}`, true},
		{"records not a list", `{"records":{"a":1}}`, true},
		{"array payload", `[1,2]`, true},
		{"not json", `<html>down</html>`, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(tt.body))
			}, time.Second)

			_, err := c.Fetch(context.Background(), Query{Limit: 10})
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidResponse))
			assert.False(t, errors.Is(err, ErrFetchFailed))

			var invalid *InvalidResponseError
			require.True(t, errors.As(err, &invalid))
			if tt.wantRaw {
				assert.JSONEq(t, tt.body, string(invalid.Raw))
			} else {
				assert.Nil(t, invalid.Raw)
			}
		})
	}
}

func TestFetchStatusError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte(`{"records":[]}`))
	}, time.Second)

	_, err := c.Fetch(context.Background(), Query{Limit: 10})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrFetchFailed))
	assert.Contains(t, err.Error(), "403")
}

func TestFetchNetworkErrorHidesKey(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	base := server.URL
	server.Close()

	c := NewClient(Options{BaseURL: base, APIKey: "secret-key", ResourceID: "res-1"})
	_, err := c.Fetch(context.Background(), Query{Limit: 10})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrFetchFailed))
	assert.NotContains(t, err.Error(), "secret-key")
}

func TestFetchTimeoutIsBounded(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer server.Close()
	defer close(release)

	c := NewClient(Options{BaseURL: server.URL, APIKey: "k", ResourceID: "r", Timeout: 100 * time.Millisecond})
	defer c.CloseIdleConnections()

	start := time.Now()
	_, err := c.Fetch(context.Background(), Query{Limit: 10})
	elapsed := time.Since(start)

	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrFetchFailed))
	assert.Less(t, elapsed, 5*time.Second)
}

func TestFetchRateLimitHonoursContext(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"records":[]}`))
	}, time.Second)
	limited := NewClient(Options{BaseURL: c.baseURL, APIKey: "k", ResourceID: "r", RatePerSecond: 0.001, Burst: 1})
	defer limited.CloseIdleConnections()

	_, err := limited.Fetch(context.Background(), Query{Limit: 1})
	require.NoError(t, err, "first call uses the burst")

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err = limited.Fetch(ctx, Query{Limit: 1})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrFetchFailed))
}
