package mail

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

// Scopes are the Gmail permissions requested at consent.
var Scopes = []string{
	"https://www.googleapis.com/auth/gmail.readonly",
	"https://www.googleapis.com/auth/gmail.compose",
	"https://www.googleapis.com/auth/gmail.modify",
}

// OAuthConfig holds the Google OAuth client registration.
type OAuthConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURI  string
	// Endpoint overrides the Google endpoint in tests.
	Endpoint oauth2.Endpoint
}

// OAuth runs the Gmail consent flow and refreshes stored grants.
type OAuth struct {
	cfg OAuthConfig
}

// NewOAuth validates cfg and returns the helper.
func NewOAuth(cfg OAuthConfig) (*OAuth, error) {
	if strings.TrimSpace(cfg.ClientID) == "" || strings.TrimSpace(cfg.ClientSecret) == "" {
		return nil, fmt.Errorf("google client id and secret are required")
	}
	if cfg.Endpoint.TokenURL == "" {
		cfg.Endpoint = google.Endpoint
	}
	return &OAuth{cfg: cfg}, nil
}

func (o *OAuth) config(redirectURI string) *oauth2.Config {
	if strings.TrimSpace(redirectURI) == "" {
		redirectURI = o.cfg.RedirectURI
	}
	return &oauth2.Config{
		ClientID:     o.cfg.ClientID,
		ClientSecret: o.cfg.ClientSecret,
		RedirectURL:  redirectURI,
		Endpoint:     o.cfg.Endpoint,
		Scopes:       Scopes,
	}
}

// AuthCodeURL returns the consent screen URL. Offline access and forced
// consent make Google return a refresh token every time.
func (o *OAuth) AuthCodeURL(state, redirectURI string) string {
	return o.config(redirectURI).AuthCodeURL(state, oauth2.AccessTypeOffline, oauth2.SetAuthURLParam("prompt", "consent"))
}

// Exchange trades an authorization code for a grant.
func (o *OAuth) Exchange(ctx context.Context, code, redirectURI string) (Grant, error) {
	if strings.TrimSpace(code) == "" {
		return Grant{}, fmt.Errorf("authorization code is required")
	}
	token, err := o.config(redirectURI).Exchange(ctx, code)
	if err != nil {
		return Grant{}, fmt.Errorf("exchange authorization code: %w", err)
	}
	return GrantFromToken(token), nil
}

// TokenSource returns the grant's access token while it is valid and uses
// the refresh token otherwise. Refreshes are not retried.
func (o *OAuth) TokenSource(ctx context.Context, grant Grant) oauth2.TokenSource {
	return o.config("").TokenSource(ctx, grant.Token())
}

// Grant is the stored token pair of a connected mailbox.
type Grant struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token,omitempty"`
	TokenType    string    `json:"token_type,omitempty"`
	Expiry       time.Time `json:"expiry,omitzero"`
}

// GrantFromToken copies the persistent fields of token.
func GrantFromToken(token *oauth2.Token) Grant {
	if token == nil {
		return Grant{}
	}
	return Grant{
		AccessToken:  token.AccessToken,
		RefreshToken: token.RefreshToken,
		TokenType:    token.TokenType,
		Expiry:       token.Expiry,
	}
}

// Token converts the grant for use with oauth2.
func (g Grant) Token() *oauth2.Token {
	return &oauth2.Token{
		AccessToken:  g.AccessToken,
		RefreshToken: g.RefreshToken,
		TokenType:    g.TokenType,
		Expiry:       g.Expiry,
	}
}

// Usable reports whether the grant can produce an access token.
func (g Grant) Usable() bool {
	return g.AccessToken != "" || g.RefreshToken != ""
}

// MarshalGrant encodes a grant for sealing.
func MarshalGrant(g Grant) ([]byte, error) {
	data, err := json.Marshal(g)
	if err != nil {
		return nil, fmt.Errorf("marshal grant: %w", err)
	}
	return data, nil
}

// UnmarshalGrant decodes a grant produced by MarshalGrant.
func UnmarshalGrant(data []byte) (Grant, error) {
	var g Grant
	if err := json.Unmarshal(data, &g); err != nil {
		return Grant{}, fmt.Errorf("unmarshal grant: %w", err)
	}
	return g, nil
}
