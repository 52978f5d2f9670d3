package server_test

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestProxyForwardsRequestAndMirrorsResponse(t *testing.T) {
	var gotReq *http.Request
	var gotBody []byte
	f := setupTestFixture(t, func(w http.ResponseWriter, r *http.Request) {
		gotReq = r.Clone(r.Context())
		gotBody, _ = io.ReadAll(r.Body)
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("X-Request-Id", "upstream-rid")
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"id":"design-1"}`))
	})

	req := httptest.NewRequest(http.MethodPost, "/proxy/designs?limit=5", strings.NewReader(`{"title":"New design"}`))
	req.Header.Set("Authorization", "Bearer abc")
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Internal-Header", "should-not-forward")
	rec := f.do(req)

	// Upstream saw the rewritten path, query, and the two allowed headers.
	require.Equal(t, http.MethodPost, gotReq.Method)
	require.Equal(t, "/rest/v1/designs", gotReq.URL.Path)
	require.Equal(t, "limit=5", gotReq.URL.RawQuery)
	require.Equal(t, "Bearer abc", gotReq.Header.Get("Authorization"))
	require.Equal(t, "application/json", gotReq.Header.Get("Content-Type"))
	require.Equal(t, "application/json", gotReq.Header.Get("Accept"))
	require.Empty(t, gotReq.Header.Get("X-Internal-Header"))
	require.Equal(t, `{"title":"New design"}`, string(gotBody))

	// Response mirrored byte-for-byte along with its headers.
	require.Equal(t, http.StatusCreated, rec.Code)
	require.Equal(t, `{"id":"design-1"}`, rec.Body.String())
	require.Equal(t, "upstream-rid", rec.Header().Get("X-Request-Id"))
}

func TestProxyGetSendsNoBody(t *testing.T) {
	var gotBody []byte
	var gotMethod string
	f := setupTestFixture(t, func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotBody, _ = io.ReadAll(r.Body)
		_, _ = w.Write([]byte(`{"id":"me"}`))
	})

	req := httptest.NewRequest(http.MethodGet, "/proxy/users/me", strings.NewReader("ignored"))
	req.Header.Set("Authorization", "Bearer abc")
	rec := f.do(req)

	require.Equal(t, http.MethodGet, gotMethod)
	require.Empty(t, gotBody)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, `{"id":"me"}`, rec.Body.String())
}

func TestProxyMirrorsUpstreamErrors(t *testing.T) {
	f := setupTestFixture(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"error":"forbidden"}`))
	})

	rec := f.do(httptest.NewRequest(http.MethodGet, "/proxy/users/me", nil))
	require.Equal(t, http.StatusForbidden, rec.Code)
	require.Equal(t, `{"error":"forbidden"}`, rec.Body.String())
}

func TestProxyUnreachableUpstream(t *testing.T) {
	f := setupTestFixture(t, nil)
	// Close the fake upstream so the forward fails at the transport layer.
	f.upstream.Close()

	rec := f.do(httptest.NewRequest(http.MethodGet, "/proxy/users/me", nil))
	require.Equal(t, http.StatusBadGateway, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, "bad_gateway", body["error"])
}
