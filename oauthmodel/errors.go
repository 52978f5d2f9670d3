package oauthmodel

import "errors"

// OAuth2 error codes used in machine-facing {error, error_description}
// response bodies (RFC 6749 section 5.2).
const (
	ErrorCodeInvalidRequest       = "invalid_request"
	ErrorCodeInvalidGrant         = "invalid_grant"
	ErrorCodeUnsupportedGrantType = "unsupported_grant_type"
	ErrorCodeServerError          = "server_error"
	ErrorCodeBadGateway           = "bad_gateway"
)

// ErrMalformedBody indicates a token request body whose declared content type
// failed to parse. Distinguishable from an absent body, which degrades to an
// empty request instead.
var ErrMalformedBody = errors.New("malformed request body")
