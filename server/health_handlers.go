package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/jrsteele09/canva-oauth-relay/pkce"
	"github.com/jrsteele09/canva-oauth-relay/store"
	"github.com/rs/zerolog"
)

// IndexHandler serves a minimal service descriptor. The relay has no UI; this
// exists so a browser hitting the root sees what the service is.
func (s *Server) IndexHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", contentTypeJSON)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"name": s.config.AppName,
			"endpoints": []string{
				RouteAuthorize,
				RouteCallback,
				RouteToken,
				"/proxy/",
				RouteHealthEnv,
				RouteHealthStore,
			},
		})
	}
}

// EnvHealthHandler reports which configuration values are present, as
// booleans only. Values themselves are never exposed.
func (s *Server) EnvHealthHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", contentTypeJSON)
		_ = json.NewEncoder(w).Encode(s.config.Presence())
	}
}

// StoreHealthHandler runs a write/read/delete self-test through the session
// store using a short-lived probe record.
func (s *Server) StoreHealthHandler() http.HandlerFunc {
	type result struct {
		OK     bool   `json:"ok"`
		Reason string `json:"reason,omitempty"`
	}

	return func(w http.ResponseWriter, r *http.Request) {
		logger := zerolog.Ctx(r.Context())

		fail := func(reason string, err error) {
			logger.Err(err).Str("stage", "health").Str("outcome", "store_unhealthy").Msg(reason)
			w.Header().Set("Content-Type", contentTypeJSON)
			w.WriteHeader(http.StatusInternalServerError)
			_ = json.NewEncoder(w).Encode(result{OK: false, Reason: reason})
		}

		if s.sessions == nil {
			fail("session store not configured", nil)
			return
		}

		key, err := pkce.RandomID("selftest_")
		if err != nil {
			fail("failed to mint probe key", err)
			return
		}
		probe := &store.Grant{Provider: "selftest", CreatedAt: time.Now()}

		if err := s.sessions.PutGrant(r.Context(), key, probe, 30*time.Second); err != nil {
			fail("store write failed", err)
			return
		}
		if _, err := s.sessions.GetGrant(r.Context(), key); err != nil {
			fail("store read-back failed", err)
			return
		}
		if err := s.sessions.DeleteGrant(r.Context(), key); err != nil {
			fail("store delete failed", err)
			return
		}

		w.Header().Set("Content-Type", contentTypeJSON)
		_ = json.NewEncoder(w).Encode(result{OK: true})
	}
}
