package server

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

func ChainMiddleware(routeFunction http.HandlerFunc, mw ...func(http.HandlerFunc) http.HandlerFunc) http.HandlerFunc {
	chainedHandler := routeFunction
	// Apply middleware in reverse order
	for i := len(mw) - 1; i >= 0; i-- {
		chainedHandler = mw[i](chainedHandler)
	}
	return chainedHandler
}

func (s *Server) APIMiddleware() []func(http.HandlerFunc) http.HandlerFunc {
	return []func(http.HandlerFunc) http.HandlerFunc{
		s.RequestLogMiddleware,
		s.RecoverMiddleware,
	}
}

// RequestLogMiddleware mints a request id and stashes a logger carrying it in
// the request context. Handlers emit one outcome event per request through
// that logger, so diagnostics stay decoupled from protocol logic.
func (s *Server) RequestLogMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger := s.logger.With().
			Str("request_id", uuid.NewString()).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Logger()
		next(w, r.WithContext(logger.WithContext(r.Context())))
	}
}

// RecoverMiddleware is the top-level catch for fully uncaught panics. The
// response is generic so nothing sensitive leaks.
func (s *Server) RecoverMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				zerolog.Ctx(r.Context()).Error().
					Interface("panic", rec).
					Msg("handler panicked")
				http.Error(w, "internal server error", http.StatusInternalServerError)
			}
		}()
		next(w, r)
	}
}
