package server_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/jrsteele09/canva-oauth-relay/internal/config"
	"github.com/jrsteele09/canva-oauth-relay/server"
	"github.com/jrsteele09/canva-oauth-relay/store"
	"github.com/jrsteele09/canva-oauth-relay/upstream"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

const (
	testClientID     = "relay-client"
	testClientSecret = "relay-secret"
	testBaseURL      = "https://relay.example"
	testScopes       = "design:content:read design:content:write"
	testConsumerURI  = "https://client.example/cb"
)

// testFixture holds a relay wired against fake upstream servers and an
// in-memory store.
type testFixture struct {
	relay    *server.Server
	store    *store.InMemoryStore
	upstream *httptest.Server
}

// setupTestFixture builds a relay whose upstream token endpoint is the given
// handler. A nil handler installs an upstream that always fails the test.
func setupTestFixture(t *testing.T, upstreamToken http.HandlerFunc) *testFixture {
	t.Helper()

	if upstreamToken == nil {
		upstreamToken = func(w http.ResponseWriter, r *http.Request) {
			t.Error("unexpected call to upstream token endpoint")
			w.WriteHeader(http.StatusInternalServerError)
		}
	}
	upstreamSrv := httptest.NewServer(upstreamToken)
	t.Cleanup(upstreamSrv.Close)

	cfg := config.Config{
		ClientID:     testClientID,
		ClientSecret: testClientSecret,
		Scopes:       testScopes,
		BaseURL:      testBaseURL,
		AuthorizeURL: "https://www.canva.com/api/oauth/authorize",
		TokenURL:     upstreamSrv.URL + "/oauth/token",
		APIBaseURL:   upstreamSrv.URL + "/rest/v1",
		RedisURL:     "redis://localhost:6379/0",
		AppName:      "Canva OAuth Relay",
		Env:          "TEST",
	}

	st := store.NewInMemoryStore()
	up, err := upstream.NewClient(upstream.ClientArgs{
		ClientID:     testClientID,
		ClientSecret: testClientSecret,
		TokenURL:     cfg.TokenURL,
	})
	require.NoError(t, err)

	return &testFixture{
		relay:    server.New(cfg, st, up, zerolog.Nop()),
		store:    st,
		upstream: upstreamSrv,
	}
}

// do routes a request through the relay's mux and returns the recorded
// response without following redirects.
func (f *testFixture) do(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	f.relay.ServeHTTP(rec, req)
	return rec
}
