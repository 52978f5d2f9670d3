package server

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/jrsteele09/canva-oauth-relay/pkce"
	"github.com/jrsteele09/canva-oauth-relay/store"
	"github.com/jrsteele09/canva-oauth-relay/upstream"
	"github.com/rs/zerolog"
)

// CallbackHandler receives the upstream provider's redirect. Outcomes, in
// precedence order: configuration missing, upstream denial forwarded to the
// consumer, malformed callback, or the success path of code exchange and
// one-time redemption code issuance.
func (s *Server) CallbackHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger := zerolog.Ctx(r.Context())

		if s.sessions == nil || s.upstream == nil {
			logger.Error().Str("stage", "callback").Str("outcome", "config_error").Msg("relay not configured")
			http.Error(w, "Server not configured", http.StatusInternalServerError)
			return
		}

		query := r.URL.Query()
		code := query.Get("code")
		sessionID := query.Get("state")
		upstreamErr := query.Get("error")
		upstreamErrDesc := query.Get("error_description")

		// Upstream denied or errored (e.g. access_denied, invalid_scope).
		// Forward through the consumer's redirect when the session still
		// resolves; otherwise answer the user agent directly.
		if upstreamErr != "" {
			logger.Warn().
				Str("stage", "callback").
				Str("outcome", "upstream_error").
				Str("error", upstreamErr).
				Str("error_description", upstreamErrDesc).
				Str("session_id", sessionID).
				Msg("upstream authorization failed")

			if sessionID != "" {
				session, err := s.sessions.GetSession(r.Context(), sessionID)
				if err == nil && session.ConsumerRedirectURI != "" {
					if target, perr := errorRedirectURL(session, upstreamErr, upstreamErrDesc); perr == nil {
						http.Redirect(w, r, target, http.StatusFound)
						return
					}
				}
			}
			http.Error(w, fmt.Sprintf("Authorization failed: %s - %s", upstreamErr, upstreamErrDesc), http.StatusBadRequest)
			return
		}

		if code == "" || sessionID == "" {
			logger.Warn().Str("stage", "callback").Str("outcome", "client_error").Msg("missing code or state")
			http.Error(w, "Missing code or state", http.StatusBadRequest)
			return
		}

		session, err := s.sessions.GetSession(r.Context(), sessionID)
		if err != nil {
			// Expected when the user took too long or replayed an old link.
			logger.Info().Str("stage", "callback").Str("outcome", "session_expired").Str("session_id", sessionID).Msg("session not found")
			http.Error(w, "Session not found or expired", http.StatusBadRequest)
			return
		}
		if session.CodeVerifier == "" {
			// A session without PKCE material means the initiator misbehaved.
			logger.Error().Str("stage", "callback").Str("outcome", "invariant_violation").Str("session_id", sessionID).Msg("session missing code verifier")
			http.Error(w, "PKCE verifier missing", http.StatusBadRequest)
			return
		}

		token, err := s.upstream.ExchangeCode(r.Context(), code, s.config.CallbackURL(), session.CodeVerifier)
		if err != nil {
			var statusErr *upstream.StatusError
			if errors.As(err, &statusErr) {
				logger.Error().
					Str("stage", "callback").
					Str("outcome", "exchange_failed").
					Int("upstream_status", statusErr.StatusCode).
					Msg("token exchange rejected")
				http.Error(w, fmt.Sprintf("Token exchange failed (status %d). Body: %s", statusErr.StatusCode, statusErr.Body), http.StatusBadGateway)
				return
			}
			logger.Err(err).Str("stage", "callback").Str("outcome", "exchange_failed").Msg("token exchange failed")
			http.Error(w, "Token exchange failed: "+err.Error(), http.StatusInternalServerError)
			return
		}

		redemptionCode, err := pkce.RandomID("code_")
		if err != nil {
			logger.Err(err).Str("stage", "callback").Str("outcome", "server_error").Msg("failed to mint redemption code")
			http.Error(w, "Internal error in callback", http.StatusInternalServerError)
			return
		}
		grant := &store.Grant{
			Provider:  ProviderName,
			Token:     *token,
			CreatedAt: time.Now(),
		}
		if err := s.sessions.PutGrant(r.Context(), redemptionCode, grant, GrantTTL); err != nil {
			logger.Err(err).Str("stage", "callback").Str("outcome", "store_error").Msg("failed to persist grant")
			http.Error(w, "Internal error in callback", http.StatusInternalServerError)
			return
		}

		target, err := successRedirectURL(session, redemptionCode)
		if err != nil {
			logger.Err(err).Str("stage", "callback").Str("outcome", "invariant_violation").Msg("stored consumer redirect unparseable")
			http.Error(w, "Invalid consumer redirect", http.StatusInternalServerError)
			return
		}

		logger.Info().
			Str("stage", "callback").
			Str("outcome", "redeemed").
			Str("session_id", sessionID).
			Msg("one-time code issued")
		http.Redirect(w, r, target, http.StatusFound)
	}
}

func errorRedirectURL(session *store.Session, code, description string) (string, error) {
	redirect, err := url.Parse(session.ConsumerRedirectURI)
	if err != nil {
		return "", err
	}
	q := redirect.Query()
	q.Set("error", code)
	q.Set("error_description", description)
	if session.ConsumerState != "" {
		q.Set("state", session.ConsumerState)
	}
	redirect.RawQuery = q.Encode()
	return redirect.String(), nil
}

func successRedirectURL(session *store.Session, redemptionCode string) (string, error) {
	redirect, err := url.Parse(session.ConsumerRedirectURI)
	if err != nil {
		return "", err
	}
	q := redirect.Query()
	q.Set("code", redemptionCode)
	if session.ConsumerState != "" {
		q.Set("state", session.ConsumerState)
	}
	redirect.RawQuery = q.Encode()
	return redirect.String(), nil
}
