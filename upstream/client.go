// Package upstream drives the design provider's OAuth token endpoint: the
// authorization-code exchange performed by the callback handler and the
// refresh grant proxied by the token endpoint.
package upstream

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/jrsteele09/canva-oauth-relay/oauthmodel"
)

// ErrMissingAccessToken indicates the upstream returned a success status but
// the payload carried no access token. This is an upstream contract violation,
// not a relay bug.
var ErrMissingAccessToken = errors.New("upstream token payload missing access_token")

// StatusError is returned when the upstream token endpoint answers with a
// non-success status. The raw body is kept for diagnosability; the relay never
// retries these.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("upstream token endpoint returned status %d: %s", e.StatusCode, e.Body)
}

// Client is an OAuth2 client for the upstream provider's token endpoint,
// authenticating with HTTP Basic client credentials.
type Client struct {
	clientID     string
	clientSecret string
	tokenURL     string
	h            *http.Client
}

// ClientArgs configures a Client. H is optional and defaults to a client with
// a 15 second timeout.
type ClientArgs struct {
	ClientID     string
	ClientSecret string
	TokenURL     string
	H            *http.Client
}

func NewClient(args ClientArgs) (*Client, error) {
	if args.ClientID == "" || args.ClientSecret == "" {
		return nil, errors.New("upstream.NewClient: client credentials are required")
	}
	if args.TokenURL == "" {
		return nil, errors.New("upstream.NewClient: token URL is required")
	}
	if args.H == nil {
		args.H = &http.Client{Timeout: 15 * time.Second}
	}
	return &Client{
		clientID:     args.ClientID,
		clientSecret: args.ClientSecret,
		tokenURL:     args.TokenURL,
		h:            args.H,
	}, nil
}

// ExchangeCode swaps an upstream authorization code for a token set using the
// PKCE verifier bound to the originating session. The client id rides in the
// request body in addition to the Basic credentials; the provider accepts the
// superset.
func (c *Client) ExchangeCode(ctx context.Context, code, redirectURI, codeVerifier string) (*oauthmodel.TokenSet, error) {
	form := url.Values{
		"grant_type":    {"authorization_code"},
		"code":          {code},
		"redirect_uri":  {redirectURI},
		"code_verifier": {codeVerifier},
		"client_id":     {c.clientID},
	}
	return c.tokenRequest(ctx, form)
}

// Refresh forwards a refresh_token grant to the upstream token endpoint.
func (c *Client) Refresh(ctx context.Context, refreshToken string) (*oauthmodel.TokenSet, error) {
	form := url.Values{
		"grant_type":    {"refresh_token"},
		"refresh_token": {refreshToken},
	}
	return c.tokenRequest(ctx, form)
}

func (c *Client) tokenRequest(ctx context.Context, form url.Values) (*oauthmodel.TokenSet, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.tokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("upstream token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")
	req.SetBasicAuth(c.clientID, c.clientSecret)

	resp, err := c.h.Do(req)
	if err != nil {
		return nil, fmt.Errorf("upstream token request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("upstream token response read: %w", err)
	}

	token := decodeTokenBody(body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{StatusCode: resp.StatusCode, Body: string(body)}
	}
	if token == nil || token.AccessToken == "" {
		return nil, fmt.Errorf("%w (body: %s)", ErrMissingAccessToken, preview(body))
	}
	return token, nil
}

// decodeTokenBody parses a token endpoint response as JSON regardless of the
// declared content type; the provider has been seen answering JSON under a
// text content type. Returns nil when the body is not a token payload.
func decodeTokenBody(body []byte) *oauthmodel.TokenSet {
	var token oauthmodel.TokenSet
	if err := json.Unmarshal(body, &token); err != nil {
		return nil
	}
	return &token
}

func preview(body []byte) string {
	const max = 600
	if len(body) > max {
		return string(body[:max])
	}
	return string(body)
}
