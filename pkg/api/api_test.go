package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/ethpandaops/stitchoor/pkg/config"
	"github.com/ethpandaops/stitchoor/pkg/fixture"
	"github.com/ethpandaops/stitchoor/pkg/gqlresp"
	"github.com/ethpandaops/stitchoor/pkg/harness"
	"github.com/ethpandaops/stitchoor/pkg/schema"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() logrus.FieldLogger {
	log := logrus.New()
	log.SetOutput(io.Discard)

	return log
}

func staticTarget(label string) Target {
	return Target{
		Label:    label,
		Strategy: "direct",
		Handle: harness.ExecutableFunc(func(_ context.Context, query string) (*gqlresp.Response, error) {
			if query == "{ fail }" {
				return nil, errors.New("boom")
			}

			return &gqlresp.Response{Data: json.RawMessage(`{"ok":true}`)}, nil
		}),
	}
}

func newTestServer(t *testing.T, cfg *config.APIConfig, targets ...Target) *httptest.Server {
	t.Helper()

	s := NewServer(testLogger(), cfg, targets).(*server)
	ts := httptest.NewServer(s.buildRouter())

	t.Cleanup(func() {
		ts.Close()
		close(s.done)
	})

	return ts
}

func post(t *testing.T, url, body string) (*http.Response, string) {
	t.Helper()

	resp, err := http.Post(url, "application/json", strings.NewReader(body))
	require.NoError(t, err)

	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	return resp, string(data)
}

func TestHandleHealth(t *testing.T) {
	ts := newTestServer(t, &config.APIConfig{})

	resp, err := http.Get(ts.URL + "/api/v1/health")
	require.NoError(t, err)

	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))

	var body map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "ok", body["status"])
}

func TestHandleTargets(t *testing.T) {
	ts := newTestServer(t, &config.APIConfig{}, staticTarget("a"), staticTarget("b"))

	resp, err := http.Get(ts.URL + "/api/v1/targets")
	require.NoError(t, err)

	defer func() { _ = resp.Body.Close() }()

	var body []targetResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, []targetResponse{
		{Label: "a", Strategy: "direct"},
		{Label: "b", Strategy: "direct"},
	}, body)
}

func TestHandleGraphQL(t *testing.T) {
	ts := newTestServer(t, &config.APIConfig{}, staticTarget("direct"))

	tests := []struct {
		name       string
		path       string
		body       string
		wantStatus int
		wantBody   string
	}{
		{
			name:       "executes query",
			path:       "/graphql/direct",
			body:       `{"query":"{ test { id } }"}`,
			wantStatus: http.StatusOK,
			wantBody:   `{"data":{"ok":true}}`,
		},
		{
			name:       "unknown target",
			path:       "/graphql/missing",
			body:       `{"query":"{ test { id } }"}`,
			wantStatus: http.StatusNotFound,
			wantBody:   `{"error":"unknown target"}`,
		},
		{
			name:       "invalid body",
			path:       "/graphql/direct",
			body:       `not json`,
			wantStatus: http.StatusBadRequest,
			wantBody:   `{"error":"invalid request body"}`,
		},
		{
			name:       "empty query",
			path:       "/graphql/direct",
			body:       `{"query":"  "}`,
			wantStatus: http.StatusBadRequest,
			wantBody:   `{"error":"query is required"}`,
		},
		{
			name:       "execution failure",
			path:       "/graphql/direct",
			body:       `{"query":"{ fail }"}`,
			wantStatus: http.StatusBadGateway,
			wantBody:   `{"error":"query execution failed"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, body := post(t, ts.URL+tt.path, tt.body)
			assert.Equal(t, tt.wantStatus, resp.StatusCode)
			assert.JSONEq(t, tt.wantBody, body)
		})
	}
}

func TestRateLimit(t *testing.T) {
	ts := newTestServer(t, &config.APIConfig{
		RateLimit: config.RateLimitConfig{Enabled: true, RequestsPerMinute: 2},
	}, staticTarget("direct"))

	for i := 0; i < 2; i++ {
		resp, _ := post(t, ts.URL+"/graphql/direct", `{"query":"{ a }"}`)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
	}

	resp, body := post(t, ts.URL+"/graphql/direct", `{"query":"{ a }"}`)
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
	assert.JSONEq(t, `{"error":"rate limit exceeded"}`, body)

	// Health is never rate limited.
	health, err := http.Get(ts.URL + "/api/v1/health")
	require.NoError(t, err)
	_ = health.Body.Close()
	assert.Equal(t, http.StatusOK, health.StatusCode)
}

func TestCORS(t *testing.T) {
	tests := []struct {
		name    string
		origins []string
		origin  string
		allowed bool
	}{
		{name: "default reflects origin", origin: "http://example.com", allowed: true},
		{name: "wildcard reflects origin", origins: []string{"*"}, origin: "http://example.com", allowed: true},
		{name: "listed origin", origins: []string{"http://ok.com"}, origin: "http://ok.com", allowed: true},
		{name: "unlisted origin", origins: []string{"http://ok.com"}, origin: "http://evil.com", allowed: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := newTestServer(t, &config.APIConfig{CORSOrigins: tt.origins})

			req, err := http.NewRequest(http.MethodGet, ts.URL+"/api/v1/health", nil)
			require.NoError(t, err)
			req.Header.Set("Origin", tt.origin)

			resp, err := http.DefaultClient.Do(req)
			require.NoError(t, err)
			_ = resp.Body.Close()

			if tt.allowed {
				assert.Equal(t, tt.origin, resp.Header.Get("Access-Control-Allow-Origin"))
			} else {
				assert.Empty(t, resp.Header.Get("Access-Control-Allow-Origin"))
			}
		})
	}
}

func TestExtractIP(t *testing.T) {
	tests := []struct {
		name       string
		remoteAddr string
		xff        string
		expected   string
	}{
		{name: "remote addr", remoteAddr: "10.0.0.1:1234", expected: "10.0.0.1"},
		{name: "forwarded chain", remoteAddr: "10.0.0.1:1234", xff: "1.2.3.4, 5.6.7.8", expected: "1.2.3.4"},
		{name: "no port", remoteAddr: "10.0.0.1", expected: "10.0.0.1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remoteAddr

			if tt.xff != "" {
				req.Header.Set("X-Forwarded-For", tt.xff)
			}

			assert.Equal(t, tt.expected, extractIP(req))
		})
	}
}

func TestServer_RemoteStrategyRoundTrip(t *testing.T) {
	ds := fixture.New(10, 1)
	reg := schema.NewRegistry(testLogger())

	direct, err := reg.Build(context.Background(), &config.TargetConfig{
		Label:    "direct",
		Strategy: "direct",
	}, ds)
	require.NoError(t, err)

	srv := NewServer(testLogger(), &config.APIConfig{Listen: "127.0.0.1:0"}, []Target{{
		Label:    direct.Label,
		Strategy: "direct",
		Handle:   direct.Handle,
	}})
	require.NoError(t, srv.Start(context.Background()))

	defer func() { require.NoError(t, srv.Stop()) }()

	remote, err := reg.Build(context.Background(), &config.TargetConfig{
		Label:    "remote",
		Strategy: "remote",
		Endpoint: "http://" + srv.Addr() + "/graphql/direct",
	}, ds)
	require.NoError(t, err)

	resp, err := remote.Handle.Execute(context.Background(), schema.DefaultQuery)
	require.NoError(t, err)
	require.Empty(t, resp.Errors)

	var payload struct {
		Test []fixture.Record `json:"test"`
	}

	require.NoError(t, resp.ParseData(&payload))
	assert.Equal(t, ds.Records(), payload.Test)
}
