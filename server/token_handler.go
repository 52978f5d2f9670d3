package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/jrsteele09/canva-oauth-relay/oauthmodel"
	"github.com/jrsteele09/canva-oauth-relay/store"
	"github.com/jrsteele09/canva-oauth-relay/upstream"
	"github.com/rs/zerolog"
)

const contentTypeJSON = "application/json; charset=utf-8"

// TokenHandler is the consumer-facing OAuth token endpoint. It redeems
// one-time relay codes for the upstream token set held against them, and
// proxies refresh_token grants to the upstream provider.
func (s *Server) TokenHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger := zerolog.Ctx(r.Context())

		if r.Method != http.MethodPost {
			w.Header().Set("Allow", http.MethodPost)
			http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
			return
		}

		tokenReq, err := decodeTokenRequest(r)
		if err != nil {
			logger.Warn().Str("stage", "token").Str("outcome", "client_error").Msg("malformed request body")
			writeJSONError(w, oauthmodel.ErrorCodeInvalidRequest, "Malformed request body", http.StatusBadRequest)
			return
		}

		switch tokenReq.GrantType {
		case oauthmodel.GrantAuthorizationCode:
			s.redeemCode(w, r, tokenReq)
		case oauthmodel.GrantRefreshToken:
			s.refreshToken(w, r, tokenReq)
		default:
			logger.Warn().Str("stage", "token").Str("outcome", "client_error").Str("grant_type", string(tokenReq.GrantType)).Msg("unsupported grant type")
			writeJSONError(w, oauthmodel.ErrorCodeUnsupportedGrantType, "Use authorization_code or refresh_token", http.StatusBadRequest)
		}
	}
}

// redeemCode exchanges a one-time relay code for its stored token set. The
// grant is deleted before the response is written, enforcing single use.
func (s *Server) redeemCode(w http.ResponseWriter, r *http.Request, tokenReq oauthmodel.TokenRequest) {
	logger := zerolog.Ctx(r.Context())

	if tokenReq.Code == "" {
		writeJSONError(w, oauthmodel.ErrorCodeInvalidRequest, "Missing code", http.StatusBadRequest)
		return
	}

	grant, err := s.sessions.GetGrant(r.Context(), tokenReq.Code)
	if errors.Is(err, store.ErrNotFound) {
		// Expected for TTL expiry and for replayed codes.
		logger.Info().Str("stage", "token").Str("outcome", "invalid_grant").Msg("unknown or expired code")
		writeJSONError(w, oauthmodel.ErrorCodeInvalidGrant, "Unknown or expired code", http.StatusBadRequest)
		return
	}
	if err != nil {
		logger.Err(err).Str("stage", "token").Str("outcome", "store_error").Msg("grant lookup failed")
		writeJSONError(w, oauthmodel.ErrorCodeServerError, "Session store unavailable", http.StatusInternalServerError)
		return
	}

	// Delete before responding; a second redemption must fail even if this
	// response is never delivered.
	if err := s.sessions.DeleteGrant(r.Context(), tokenReq.Code); err != nil {
		logger.Err(err).Str("stage", "token").Str("outcome", "store_error").Msg("grant delete failed")
		writeJSONError(w, oauthmodel.ErrorCodeServerError, "Session store unavailable", http.StatusInternalServerError)
		return
	}

	if grant.Token.AccessToken == "" {
		logger.Error().Str("stage", "token").Str("outcome", "invariant_violation").Msg("stored grant missing access token")
		writeJSONError(w, oauthmodel.ErrorCodeServerError, "Token missing in store", http.StatusInternalServerError)
		return
	}

	logger.Info().Str("stage", "token").Str("outcome", "redeemed").Str("provider", grant.Provider).Msg("code redeemed")
	writeTokenResponse(w, grant.Token)
}

// refreshToken forwards a refresh grant upstream and passes the result back,
// defaulting the refresh token to the presented one when the upstream does
// not rotate it.
func (s *Server) refreshToken(w http.ResponseWriter, r *http.Request, tokenReq oauthmodel.TokenRequest) {
	logger := zerolog.Ctx(r.Context())

	if tokenReq.RefreshToken == "" {
		writeJSONError(w, oauthmodel.ErrorCodeInvalidRequest, "Missing refresh_token", http.StatusBadRequest)
		return
	}

	token, err := s.upstream.Refresh(r.Context(), tokenReq.RefreshToken)
	if err != nil {
		var statusErr *upstream.StatusError
		switch {
		case errors.As(err, &statusErr):
			logger.Warn().Str("stage", "token").Str("outcome", "invalid_grant").Int("upstream_status", statusErr.StatusCode).Msg("upstream refresh rejected")
			writeJSONError(w, oauthmodel.ErrorCodeInvalidGrant, fmt.Sprintf("Refresh failed (%d) %s", statusErr.StatusCode, statusErr.Body), http.StatusBadRequest)
		case errors.Is(err, upstream.ErrMissingAccessToken):
			logger.Error().Str("stage", "token").Str("outcome", "upstream_contract_violation").Msg("refresh payload missing access token")
			writeJSONError(w, oauthmodel.ErrorCodeServerError, "Bad refresh payload", http.StatusInternalServerError)
		default:
			logger.Err(err).Str("stage", "token").Str("outcome", "server_error").Msg("upstream refresh failed")
			writeJSONError(w, oauthmodel.ErrorCodeServerError, "Refresh request failed", http.StatusInternalServerError)
		}
		return
	}

	if token.RefreshToken == "" {
		token.RefreshToken = tokenReq.RefreshToken
	}

	logger.Info().Str("stage", "token").Str("outcome", "refreshed").Msg("token refreshed")
	writeTokenResponse(w, *token)
}

// decodeTokenRequest performs content negotiation on the token request body.
// Declared JSON and form bodies that fail to parse are reported as malformed;
// unrecognized content types are best-effort JSON decoded and degrade to an
// empty request, which the grant switch rejects as unsupported.
func decodeTokenRequest(r *http.Request) (oauthmodel.TokenRequest, error) {
	var tokenReq oauthmodel.TokenRequest
	contentType := strings.ToLower(r.Header.Get("Content-Type"))

	switch {
	case strings.Contains(contentType, "application/json"):
		body, err := io.ReadAll(r.Body)
		if err != nil {
			return tokenReq, fmt.Errorf("read body: %w", err)
		}
		if len(body) == 0 {
			return tokenReq, nil
		}
		if err := json.Unmarshal(body, &tokenReq); err != nil {
			return tokenReq, fmt.Errorf("%w: %v", oauthmodel.ErrMalformedBody, err)
		}
		return tokenReq, nil

	case strings.Contains(contentType, "application/x-www-form-urlencoded"):
		if err := r.ParseForm(); err != nil {
			return tokenReq, fmt.Errorf("%w: %v", oauthmodel.ErrMalformedBody, err)
		}
		tokenReq.GrantType = oauthmodel.GrantType(r.PostFormValue("grant_type"))
		tokenReq.Code = r.PostFormValue("code")
		tokenReq.RefreshToken = r.PostFormValue("refresh_token")
		return tokenReq, nil

	default:
		body, err := io.ReadAll(r.Body)
		if err != nil {
			return tokenReq, fmt.Errorf("read body: %w", err)
		}
		// Unknown content type: try JSON, fall back to an empty request.
		if uerr := json.Unmarshal(body, &tokenReq); uerr != nil {
			return oauthmodel.TokenRequest{}, nil
		}
		return tokenReq, nil
	}
}

func writeTokenResponse(w http.ResponseWriter, token oauthmodel.TokenSet) {
	if token.TokenType == "" {
		token.TokenType = "Bearer"
	}
	w.Header().Set("Content-Type", contentTypeJSON)
	w.Header().Set("Cache-Control", "no-store")
	w.Header().Set("Pragma", "no-cache")
	_ = json.NewEncoder(w).Encode(token)
}

func writeJSONError(w http.ResponseWriter, errorCode, description string, statusCode int) {
	w.Header().Set("Content-Type", contentTypeJSON)
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"error":             errorCode,
		"error_description": description,
	})
}
