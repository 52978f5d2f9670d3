// Package server wires the relay's HTTP surface: authorization initiation,
// the upstream callback, consumer token redemption, and the authenticated
// pass-through proxy to the design API.
package server

import (
	"net/http"
	"strings"
	"time"

	"github.com/jrsteele09/canva-oauth-relay/internal/config"
	"github.com/jrsteele09/canva-oauth-relay/store"
	"github.com/jrsteele09/canva-oauth-relay/upstream"
	"github.com/rs/zerolog"
	"golang.org/x/oauth2"
)

const (
	// ProviderName tags redemption grants with the upstream they came from.
	ProviderName = "canva"

	// SessionTTL bounds how long a user has to complete the upstream consent
	// screen before the pending session expires.
	SessionTTL = 10 * time.Minute

	// GrantTTL bounds how long a consumer has to redeem a one-time code.
	GrantTTL = 5 * time.Minute
)

type Server struct {
	mux      *http.ServeMux
	routes   []string
	config   config.Config
	sessions store.Store
	upstream *upstream.Client
	logger   zerolog.Logger

	// oauthCfg builds the upstream authorization URL; token requests go
	// through the upstream client instead, which controls authentication and
	// error surfacing precisely.
	oauthCfg *oauth2.Config

	// proxyClient performs pass-through calls to the design API.
	proxyClient *http.Client
}

func New(cfg config.Config, sessions store.Store, up *upstream.Client, logger zerolog.Logger) *Server {
	s := &Server{
		mux:      http.NewServeMux(),
		config:   cfg,
		sessions: sessions,
		upstream: up,
		logger:   logger,
		oauthCfg: &oauth2.Config{
			ClientID: cfg.ClientID,
			Endpoint: oauth2.Endpoint{
				AuthURL:  cfg.AuthorizeURL,
				TokenURL: cfg.TokenURL,
			},
			RedirectURL: cfg.CallbackURL(),
			Scopes:      strings.Fields(cfg.Scopes),
		},
		proxyClient: &http.Client{Timeout: 30 * time.Second},
	}

	s.initRoutes()
	s.logRoutes()

	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

func (s *Server) RegisterRouteHandler(pattern string, handler http.Handler) {
	s.routes = append(s.routes, pattern)
	s.mux.Handle(pattern, handler)
}

func (s *Server) logRoutes() {
	for _, route := range s.routes {
		s.logger.Debug().Str("route", route).Msg("registered route")
	}
}
