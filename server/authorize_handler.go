package server

import (
	"net/http"
	"net/url"
	"time"

	"github.com/jrsteele09/canva-oauth-relay/pkce"
	"github.com/jrsteele09/canva-oauth-relay/store"
	"github.com/rs/zerolog"
	"golang.org/x/oauth2"
)

// AuthorizeHandler begins the relay flow: it binds the consumer's redirect
// and state to freshly generated PKCE material in a short-lived session, then
// sends the user agent to the upstream authorization endpoint with the
// session id as the state parameter.
func (s *Server) AuthorizeHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger := zerolog.Ctx(r.Context())

		if s.sessions == nil {
			logger.Error().Str("stage", "authorize").Str("outcome", "config_error").Msg("session store not configured")
			http.Error(w, "Server not configured: session store missing", http.StatusInternalServerError)
			return
		}

		consumerRedirect := r.URL.Query().Get("redirect_uri")
		consumerState := r.URL.Query().Get("state")
		if consumerRedirect == "" {
			logger.Warn().Str("stage", "authorize").Str("outcome", "client_error").Msg("missing redirect_uri")
			http.Error(w, "Missing redirect_uri", http.StatusBadRequest)
			return
		}
		if u, err := url.Parse(consumerRedirect); err != nil || !u.IsAbs() {
			logger.Warn().Str("stage", "authorize").Str("outcome", "client_error").Msg("redirect_uri not absolute")
			http.Error(w, "redirect_uri must be an absolute URI", http.StatusBadRequest)
			return
		}

		sessionID, err := pkce.RandomID("sess_")
		if err != nil {
			logger.Err(err).Str("stage", "authorize").Str("outcome", "server_error").Msg("failed to mint session id")
			http.Error(w, "Internal error in authorize", http.StatusInternalServerError)
			return
		}
		codeVerifier, err := pkce.GenerateCodeVerifier()
		if err != nil {
			logger.Err(err).Str("stage", "authorize").Str("outcome", "server_error").Msg("failed to generate code verifier")
			http.Error(w, "Internal error in authorize", http.StatusInternalServerError)
			return
		}
		codeChallenge := pkce.CodeChallengeS256(codeVerifier)

		session := &store.Session{
			ConsumerRedirectURI: consumerRedirect,
			ConsumerState:       consumerState,
			CodeVerifier:        codeVerifier,
			CreatedAt:           time.Now(),
		}
		if err := s.sessions.PutSession(r.Context(), sessionID, session, SessionTTL); err != nil {
			logger.Err(err).Str("stage", "authorize").Str("outcome", "store_error").Msg("failed to persist session")
			http.Error(w, "Server not configured: session store unavailable", http.StatusInternalServerError)
			return
		}

		// The provider expects the lowercase s256 method value.
		authorizeURL := s.oauthCfg.AuthCodeURL(sessionID,
			oauth2.SetAuthURLParam("code_challenge", codeChallenge),
			oauth2.SetAuthURLParam("code_challenge_method", "s256"),
		)

		logger.Info().
			Str("stage", "authorize").
			Str("outcome", "redirected").
			Str("session_id", sessionID).
			Msg("authorization initiated")
		http.Redirect(w, r, authorizeURL, http.StatusFound)
	}
}
