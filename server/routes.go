package server

func (s *Server) initRoutes() {
	s.RegisterRouteHandler("GET /{$}", ChainMiddleware(s.IndexHandler(), s.APIMiddleware()...))

	// OAuth relay flow
	s.RegisterRouteHandler("GET "+RouteAuthorize, ChainMiddleware(s.AuthorizeHandler(), s.APIMiddleware()...))
	s.RegisterRouteHandler("GET "+RouteCallback, ChainMiddleware(s.CallbackHandler(), s.APIMiddleware()...))
	// Method handling for /token lives in the handler so non-POST requests
	// get a 405 with an Allow header rather than the mux default.
	s.RegisterRouteHandler(RouteToken, ChainMiddleware(s.TokenHandler(), s.APIMiddleware()...))

	// Authenticated pass-through to the design API, any method
	s.RegisterRouteHandler(RouteProxy, ChainMiddleware(s.ProxyHandler(), s.APIMiddleware()...))

	// Diagnostics
	s.RegisterRouteHandler("GET "+RouteHealthEnv, ChainMiddleware(s.EnvHealthHandler(), s.APIMiddleware()...))
	s.RegisterRouteHandler("GET "+RouteHealthStore, ChainMiddleware(s.StoreHealthHandler(), s.APIMiddleware()...))
}
