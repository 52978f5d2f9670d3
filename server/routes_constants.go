package server

// Route path constants
// All relay routes are defined here to ensure consistency and prevent typos
const (
	// OAuth relay routes
	RouteAuthorize = "/authorize"
	RouteCallback  = "/callback"
	RouteToken     = "/token"

	// Pass-through proxy to the design API (subtree)
	RouteProxy = "/proxy/{path...}"

	// Diagnostic routes
	RouteHealthEnv   = "/health/env"
	RouteHealthStore = "/health/store"
)
