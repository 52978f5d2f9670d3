package server

import (
	"io"
	"net/http"

	"github.com/jrsteele09/canva-oauth-relay/oauthmodel"
	"github.com/rs/zerolog"
)

// hopByHopHeaders are stripped from mirrored upstream responses to avoid
// double-encoding artifacts.
var hopByHopHeaders = map[string]bool{
	"Transfer-Encoding": true,
	"Content-Encoding":  true,
}

// ProxyHandler forwards any method/path/query beneath the proxy prefix to the
// corresponding design API endpoint, passing through the consumer's bearer
// token. Only Authorization and Content-Type travel upstream; everything else
// inbound is dropped so relay-internal headers never leak.
func (s *Server) ProxyHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger := zerolog.Ctx(r.Context())

		target := s.config.APIBaseURL + "/" + r.PathValue("path")
		if r.URL.RawQuery != "" {
			target += "?" + r.URL.RawQuery
		}

		var body io.Reader
		if r.Method != http.MethodGet && r.Method != http.MethodHead {
			body = r.Body
		}

		req, err := http.NewRequestWithContext(r.Context(), r.Method, target, body)
		if err != nil {
			logger.Err(err).Str("stage", "proxy").Str("outcome", "bad_gateway").Msg("failed to build upstream request")
			writeJSONError(w, oauthmodel.ErrorCodeBadGateway, "Failed to reach Canva API", http.StatusBadGateway)
			return
		}
		if auth := r.Header.Get("Authorization"); auth != "" {
			req.Header.Set("Authorization", auth)
		}
		if ct := r.Header.Get("Content-Type"); ct != "" {
			req.Header.Set("Content-Type", ct)
		}
		req.Header.Set("Accept", "application/json")

		resp, err := s.proxyClient.Do(req)
		if err != nil {
			logger.Err(err).Str("stage", "proxy").Str("outcome", "bad_gateway").Msg("upstream request failed")
			writeJSONError(w, oauthmodel.ErrorCodeBadGateway, "Failed to reach Canva API", http.StatusBadGateway)
			return
		}
		defer resp.Body.Close()

		for name, values := range resp.Header {
			if hopByHopHeaders[http.CanonicalHeaderKey(name)] {
				continue
			}
			for _, v := range values {
				w.Header().Add(name, v)
			}
		}
		w.WriteHeader(resp.StatusCode)
		if _, err := io.Copy(w, resp.Body); err != nil {
			// Response already committed; nothing to do but record it.
			logger.Err(err).Str("stage", "proxy").Str("outcome", "copy_failed").Msg("streaming upstream body failed")
			return
		}

		logger.Info().
			Str("stage", "proxy").
			Str("outcome", "mirrored").
			Int("upstream_status", resp.StatusCode).
			Msg("proxied request")
	}
}
