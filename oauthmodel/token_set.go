package oauthmodel

// TokenSet is the raw token payload returned by the upstream provider's token
// endpoint, and the body the relay returns to consumers from /oauth/token.
// Fields round-trip unchanged between the upstream response, the redemption
// store, and the consumer response as defined in RFC 6749.
type TokenSet struct {
	// AccessToken is the upstream bearer token used against the design API.
	// Usage: Include in Authorization header: "Bearer <access_token>"
	AccessToken string `json:"access_token"`

	// TokenType indicates how to use the access token.
	// Example: "Bearer"
	// Note: Defaulted to "Bearer" in responses when the upstream omits it
	TokenType string `json:"token_type,omitempty"`

	// ExpiresIn is the lifetime in seconds of the access token.
	// Example: 3600
	ExpiresIn int64 `json:"expires_in,omitempty"`

	// RefreshToken is an opaque token used to obtain new access tokens via
	// the refresh_token grant.
	// Security: Should be stored securely by the consumer; the relay never
	// retains it past the redemption window
	RefreshToken string `json:"refresh_token,omitempty"`

	// Scope is the space-separated list of granted permissions.
	// Example: "design:content:read design:content:write"
	// Note: May be less than requested if some scopes were denied
	Scope string `json:"scope,omitempty"`
}
