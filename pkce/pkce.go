// Package pkce implements the Proof Key for Code Exchange material (RFC 7636)
// the relay generates on behalf of consumers, plus the opaque identifiers used
// for sessions and one-time redemption codes.
package pkce

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
)

const (
	// verifierBytes yields an 86 character verifier, inside the 43-128
	// character window RFC 7636 allows.
	verifierBytes = 64

	// idBytes of randomness per opaque identifier.
	idBytes = 24
)

// GenerateCodeVerifier returns a new PKCE code verifier built from 512 bits of
// cryptographically secure randomness, encoded with the URL-safe unpadded
// base64 alphabet so every character is in [A-Za-z0-9-_].
func GenerateCodeVerifier() (string, error) {
	b := make([]byte, verifierBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("pkce.GenerateCodeVerifier rand.Read: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// CodeChallengeS256 derives the S256 code challenge for a verifier:
// BASE64URL(SHA256(verifier)), unpadded. Deterministic for a given verifier.
func CodeChallengeS256(verifier string) string {
	sum := sha256.Sum256([]byte(verifier))
	return base64.RawURLEncoding.EncodeToString(sum[:])
}

// RandomID returns prefix plus 192 bits of secure randomness, URL-safe
// encoded. The prefix namespaces identifier classes (session ids vs redemption
// codes) so store keys from different classes can never collide.
func RandomID(prefix string) (string, error) {
	b := make([]byte, idBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("pkce.RandomID rand.Read: %w", err)
	}
	return prefix + base64.RawURLEncoding.EncodeToString(b), nil
}
