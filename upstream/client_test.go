package upstream_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/jrsteele09/canva-oauth-relay/upstream"
	"github.com/stretchr/testify/require"
)

const (
	testClientID     = "relay-client"
	testClientSecret = "relay-secret"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) (*upstream.Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c, err := upstream.NewClient(upstream.ClientArgs{
		ClientID:     testClientID,
		ClientSecret: testClientSecret,
		TokenURL:     srv.URL + "/oauth/token",
	})
	require.NoError(t, err)
	return c, srv
}

func TestExchangeCodeSendsBasicAuthAndSupersetBody(t *testing.T) {
	var gotForm map[string]string
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		require.True(t, ok)
		require.Equal(t, testClientID, user)
		require.Equal(t, testClientSecret, pass)
		require.NoError(t, r.ParseForm())
		gotForm = map[string]string{
			"grant_type":    r.PostFormValue("grant_type"),
			"code":          r.PostFormValue("code"),
			"redirect_uri":  r.PostFormValue("redirect_uri"),
			"code_verifier": r.PostFormValue("code_verifier"),
			"client_id":     r.PostFormValue("client_id"),
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"access_token":  "at-1",
			"token_type":    "Bearer",
			"expires_in":    3600,
			"refresh_token": "rt-1",
			"scope":         "design:content:read",
		})
	})

	token, err := c.ExchangeCode(context.Background(), "upstream-code", "https://relay.example/callback", "verifier-1")
	require.NoError(t, err)
	require.Equal(t, "at-1", token.AccessToken)
	require.Equal(t, "Bearer", token.TokenType)
	require.EqualValues(t, 3600, token.ExpiresIn)
	require.Equal(t, "rt-1", token.RefreshToken)
	require.Equal(t, "design:content:read", token.Scope)

	require.Equal(t, map[string]string{
		"grant_type":    "authorization_code",
		"code":          "upstream-code",
		"redirect_uri":  "https://relay.example/callback",
		"code_verifier": "verifier-1",
		"client_id":     testClientID,
	}, gotForm)
}

func TestExchangeCodeUpstreamFailureCarriesStatusAndBody(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":"invalid_grant"}`))
	})

	_, err := c.ExchangeCode(context.Background(), "bad-code", "https://relay.example/callback", "verifier-1")
	var statusErr *upstream.StatusError
	require.ErrorAs(t, err, &statusErr)
	require.Equal(t, http.StatusBadRequest, statusErr.StatusCode)
	require.Contains(t, statusErr.Body, "invalid_grant")
}

func TestExchangeCodeNonJSONContentTypeIsBestEffortDecoded(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		// JSON body mislabelled as text still decodes.
		w.Header().Set("Content-Type", "text/plain")
		_, _ = w.Write([]byte(`{"access_token":"at-2","token_type":"Bearer"}`))
	})

	token, err := c.ExchangeCode(context.Background(), "code", "https://relay.example/callback", "v")
	require.NoError(t, err)
	require.Equal(t, "at-2", token.AccessToken)
}

func TestExchangeCodeMissingAccessTokenIsContractViolation(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"token_type":"Bearer"}`))
	})

	_, err := c.ExchangeCode(context.Background(), "code", "https://relay.example/callback", "v")
	require.ErrorIs(t, err, upstream.ErrMissingAccessToken)
}

func TestRefreshSendsMinimalForm(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _, ok := r.BasicAuth()
		require.True(t, ok)
		require.NoError(t, r.ParseForm())
		require.Equal(t, "refresh_token", r.PostFormValue("grant_type"))
		require.Equal(t, "rt-old", r.PostFormValue("refresh_token"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"at-3","refresh_token":"rt-new"}`))
	})

	token, err := c.Refresh(context.Background(), "rt-old")
	require.NoError(t, err)
	require.Equal(t, "at-3", token.AccessToken)
	require.Equal(t, "rt-new", token.RefreshToken)
}

func TestNewClientValidation(t *testing.T) {
	_, err := upstream.NewClient(upstream.ClientArgs{TokenURL: "https://api.example/token"})
	require.Error(t, err)

	_, err = upstream.NewClient(upstream.ClientArgs{ClientID: "id", ClientSecret: "secret"})
	require.Error(t, err)
}
