// Package store defines the ephemeral key-value state shared between the
// relay's three flow stages, together with its backing implementations. All
// cross-request state lives here; the relay process itself holds none.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/jrsteele09/canva-oauth-relay/oauthmodel"
)

var (
	// ErrNotFound is returned when a session or grant does not exist or its
	// TTL has elapsed. Expected under normal flow abandonment.
	ErrNotFound = errors.New("record not found or expired")
)

// Session links a consumer's pending authorization request to the PKCE
// material the relay generated for it. Keyed by the opaque session id that is
// reused verbatim as the upstream state parameter.
type Session struct {
	// ConsumerRedirectURI is where the consumer asked to be returned to.
	// Always an absolute URI; validated at authorization time.
	ConsumerRedirectURI string `json:"consumer_redirect_uri"`

	// ConsumerState is the consumer's opaque state value, echoed back
	// verbatim on the return redirect. Optional.
	ConsumerState string `json:"consumer_state,omitempty"`

	// CodeVerifier is the PKCE verifier. It never leaves the relay's trust
	// boundary: not logged, not redirected, not returned to the consumer.
	CodeVerifier string `json:"code_verifier"`

	// CreatedAt is advisory only; expiry is enforced by the store TTL.
	CreatedAt time.Time `json:"created_at"`
}

// Grant holds an upstream token set behind a one-time redemption code.
type Grant struct {
	// Provider tags which upstream issued the token set.
	Provider string `json:"provider"`

	// Token is the raw upstream token payload, stored without transformation
	// so redemption returns exactly what the upstream granted.
	Token oauthmodel.TokenSet `json:"token"`

	// CreatedAt is advisory only; expiry is enforced by the store TTL.
	CreatedAt time.Time `json:"created_at"`
}

// Store is the external TTL key-value collaborator binding the relay's flow
// stages together. Implementations must be safe for concurrent use from many
// relay instances; the relay holds no locks of its own.
//
// Sessions are written once and left to expire via TTL. Grants are deleted
// explicitly on redemption to enforce their single-use invariant.
type Store interface {
	PutSession(ctx context.Context, id string, session *Session, ttl time.Duration) error
	GetSession(ctx context.Context, id string) (*Session, error)

	PutGrant(ctx context.Context, code string, grant *Grant, ttl time.Duration) error
	GetGrant(ctx context.Context, code string) (*Grant, error)
	DeleteGrant(ctx context.Context, code string) error

	// Ping reports whether the backing service is reachable.
	Ping(ctx context.Context) error
}
