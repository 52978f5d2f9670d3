package server_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/jrsteele09/canva-oauth-relay/pkce"
	"github.com/stretchr/testify/require"
)

func TestAuthorizeRedirectsToUpstream(t *testing.T) {
	f := setupTestFixture(t, nil)

	req := httptest.NewRequest(http.MethodGet, "/authorize?redirect_uri="+url.QueryEscape(testConsumerURI)+"&state=xyz", nil)
	rec := f.do(req)

	require.Equal(t, http.StatusFound, rec.Code)

	location, err := url.Parse(rec.Header().Get("Location"))
	require.NoError(t, err)
	require.Equal(t, "www.canva.com", location.Host)
	require.Equal(t, "/api/oauth/authorize", location.Path)

	q := location.Query()
	require.Equal(t, "code", q.Get("response_type"))
	require.Equal(t, testClientID, q.Get("client_id"))
	require.Equal(t, testBaseURL+"/callback", q.Get("redirect_uri"))
	require.Equal(t, testScopes, q.Get("scope"))
	require.Equal(t, "s256", q.Get("code_challenge_method"))

	// The upstream state is a fresh session id, never the consumer's state.
	sessionID := q.Get("state")
	require.NotEqual(t, "xyz", sessionID)
	require.True(t, strings.HasPrefix(sessionID, "sess_"))

	// The challenge in the URL derives from the verifier bound to the session.
	session, err := f.store.GetSession(context.Background(), sessionID)
	require.NoError(t, err)
	require.Equal(t, pkce.CodeChallengeS256(session.CodeVerifier), q.Get("code_challenge"))
	require.Equal(t, testConsumerURI, session.ConsumerRedirectURI)
	require.Equal(t, "xyz", session.ConsumerState)

	// The verifier itself must never appear in the redirect.
	require.NotContains(t, rec.Header().Get("Location"), session.CodeVerifier)
}

func TestAuthorizeEachCallCreatesIndependentSession(t *testing.T) {
	f := setupTestFixture(t, nil)

	first := f.do(httptest.NewRequest(http.MethodGet, "/authorize?redirect_uri="+url.QueryEscape(testConsumerURI), nil))
	second := f.do(httptest.NewRequest(http.MethodGet, "/authorize?redirect_uri="+url.QueryEscape(testConsumerURI), nil))

	firstState := locationQuery(t, first).Get("state")
	secondState := locationQuery(t, second).Get("state")
	require.NotEqual(t, firstState, secondState)
}

func TestAuthorizeMissingRedirectURI(t *testing.T) {
	f := setupTestFixture(t, nil)

	rec := f.do(httptest.NewRequest(http.MethodGet, "/authorize", nil))
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Contains(t, rec.Body.String(), "redirect_uri")
}

func TestAuthorizeRelativeRedirectURI(t *testing.T) {
	f := setupTestFixture(t, nil)

	rec := f.do(httptest.NewRequest(http.MethodGet, "/authorize?redirect_uri=/relative/path", nil))
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Contains(t, rec.Body.String(), "absolute")
}

func locationQuery(t *testing.T, rec *httptest.ResponseRecorder) url.Values {
	t.Helper()
	require.Equal(t, http.StatusFound, rec.Code)
	location, err := url.Parse(rec.Header().Get("Location"))
	require.NoError(t, err)
	return location.Query()
}
