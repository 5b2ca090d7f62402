package routes

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/mgnrega/dashboard/logger"
	"github.com/mgnrega/dashboard/models"
	"github.com/mgnrega/dashboard/upstream"
	"github.com/stretchr/testify/assert"
	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	logger.Log.SetOutput(io.Discard)
	m.Run()
}

// newProxy starts a fake data.gov.in and a proxy handler in front of it.
func newProxy(t *testing.T, upstreamHandler http.HandlerFunc, timeout time.Duration) http.Handler {
	t.Helper()
	up := httptest.NewServer(upstreamHandler)
	client := upstream.NewClient(upstream.Options{
		BaseURL:    up.URL,
		APIKey:     "key",
		ResourceID: "res",
		Timeout:    timeout,
	})
	t.Cleanup(func() {
		client.CloseIdleConnections()
		up.Close()
	})
	return NewHandler(client, Options{FiltersSampleLimit: 2000})
}

func get(t *testing.T, h http.Handler, target string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest("GET", target, nil))
	return rec
}

func TestDataTotalFallsBackToPageLength(t *testing.T) {
	h := newProxy(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"records":[{"state_name":"Bihar"},{"state_name":"Odisha"},{"state_name":"Kerala"}]}`))
	}, time.Second)

	rec := get(t, h, "/api/data")
	require.Equal(t, http.StatusOK, rec.Code)

	var body models.DataResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, len(body.Records), body.Total)
	assert.Equal(t, 3, body.Total)
}

func TestDataIsIdempotentForStableUpstream(t *testing.T) {
	snapshot := `{"records":[{"state_name":"Bihar","district_name":"Gaya","total_works":"512"}],"total":31,"count":1}`
	var (
		mu        sync.Mutex
		forwarded []string
	)
	h := newProxy(t, func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		forwarded = append(forwarded, r.URL.RawQuery)
		mu.Unlock()
		w.Write([]byte(snapshot))
	}, time.Second)

	first := get(t, h, "/api/data?limit=10&offset=20&state=Bihar")
	second := get(t, h, "/api/data?limit=10&offset=20&state=Bihar")
	require.Equal(t, http.StatusOK, first.Code)
	require.Equal(t, http.StatusOK, second.Code)

	var a, b map[string]any
	require.NoError(t, json.Unmarshal(first.Body.Bytes(), &a))
	require.NoError(t, json.Unmarshal(second.Body.Bytes(), &b))
	if diff := cmp.Diff(a, b); diff != "" {
		t.Fatalf("envelopes differ (-first +second):\n%s", diff)
	}
	mu.Lock()
	defer mu.Unlock()
	require.Len(t, forwarded, 2)
	assert.Equal(t, forwarded[0], forwarded[1])
}

func TestUpstreamTimeoutRespondsWithError(t *testing.T) {
	release := make(chan struct{})
	defer close(release)
	h := newProxy(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}, 100*time.Millisecond)

	done := make(chan *httptest.ResponseRecorder, 1)
	go func() { done <- get(t, h, "/api/data") }()

	select {
	case rec := <-done:
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.JSONEq(t, `{"error":"Failed to fetch data"}`, rec.Body.String())
	case <-time.After(5 * time.Second):
		t.Fatal("proxy did not answer within a bounded time")
	}
}

func TestFiltersInvalidUpstream(t *testing.T) {
	h := newProxy(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "2000", r.URL.Query().Get("limit"))
		w.Write([]byte(`{"status":"error"}`))
	}, time.Second)

	rec := get(t, h, "/api/filters")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"error":"Invalid upstream response","raw":{"status":"error"}}`, rec.Body.String())
}

func TestCORSAllowsAnyOrigin(t *testing.T) {
	h := newProxy(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"records":[]}`))
	}, time.Second)

	req := httptest.NewRequest("GET", "/api/filters", nil)
	req.Header.Set("Origin", "https://dashboard.example")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))

	preflight := httptest.NewRequest("OPTIONS", "/api/data", nil)
	preflight.Header.Set("Origin", "https://dashboard.example")
	preflight.Header.Set("Access-Control-Request-Method", "GET")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, preflight)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestRoutesRejectOtherMethods(t *testing.T) {
	h := newProxy(t, func(w http.ResponseWriter, r *http.Request) {}, time.Second)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest("POST", "/api/data", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)

	rec = get(t, h, "/api/health")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}

type panickingSource struct{}

func (panickingSource) Fetch(context.Context, upstream.Query) (*upstream.Result, error) {
	panic("boom")
}

func TestPanicIsRecoveredAndLogged(t *testing.T) {
	hook := logtest.NewLocal(logger.Log)
	t.Cleanup(func() { logger.Log.ReplaceHooks(make(logrus.LevelHooks)) })

	h := NewHandler(panickingSource{}, Options{})
	rec := get(t, h, "/api/data")

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"error":"Internal server error"}`, rec.Body.String())

	var access *logrus.Entry
	for _, e := range hook.AllEntries() {
		if e.Message == "request failed" {
			access = e
		}
	}
	require.NotNil(t, access, "recovered request missing from the access log")
	assert.Equal(t, http.StatusInternalServerError, access.Data["status"])
	assert.Equal(t, "/api/data", access.Data["path"])
}
