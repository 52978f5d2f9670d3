package oauthmodel

// GrantType identifies the OAuth2 grant presented to the relay's /token
// endpoint.
type GrantType string

const (
	// GrantAuthorizationCode redeems a one-time relay code for the upstream
	// token set held against it.
	GrantAuthorizationCode GrantType = "authorization_code"

	// GrantRefreshToken forwards a refresh request to the upstream provider.
	GrantRefreshToken GrantType = "refresh_token"
)

// TokenRequest holds the parameters of a consumer token request.
// This represents the request body sent to the /token endpoint, accepted as
// either JSON or form-url-encoded.
type TokenRequest struct {
	// GrantType selects the grant being exercised.
	// Required: Yes
	// Supported values: "authorization_code", "refresh_token"
	GrantType GrantType `json:"grant_type"`

	// Code is the one-time redemption code the relay issued on the callback
	// redirect.
	// Required: Yes (only for authorization_code grant)
	// Usage: Exchanged once for the stored token set, then becomes invalid
	Code string `json:"code"`

	// RefreshToken is the upstream refresh token previously handed to the
	// consumer.
	// Required: Yes (only for refresh_token grant)
	// Behavior: The upstream provider may rotate it; if it does not, the
	// presented value is echoed back unchanged
	RefreshToken string `json:"refresh_token"`
}
