package mail

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"golang.org/x/oauth2"
)

func tokenServer(t *testing.T, handle func(form url.Values) string) (*httptest.Server, *int) {
	t.Helper()
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if err := r.ParseForm(); err != nil {
			t.Errorf("parse form: %v", err)
		}
		body := handle(r.PostForm)
		if body == "" {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"error":"invalid_grant"}`))
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(server.Close)
	return server, &calls
}

func newTestOAuth(t *testing.T, tokenURL string) *OAuth {
	t.Helper()
	o, err := NewOAuth(OAuthConfig{
		ClientID:     "client",
		ClientSecret: "secret",
		RedirectURI:  "https://teamfund.test/api/gmail/callback",
		Endpoint:     oauth2.Endpoint{AuthURL: "https://accounts.test/auth", TokenURL: tokenURL, AuthStyle: oauth2.AuthStyleInParams},
	})
	if err != nil {
		t.Fatalf("new oauth: %v", err)
	}
	return o
}

func TestNewOAuthRequiresClient(t *testing.T) {
	if _, err := NewOAuth(OAuthConfig{ClientID: "client"}); err == nil {
		t.Fatal("expected error without secret")
	}
}

func TestAuthCodeURL(t *testing.T) {
	o := newTestOAuth(t, "https://accounts.test/token")
	raw := o.AuthCodeURL("state-1", "https://other.test/callback")
	u, err := url.Parse(raw)
	if err != nil {
		t.Fatalf("parse url: %v", err)
	}
	q := u.Query()
	checks := map[string]string{
		"state":         "state-1",
		"access_type":   "offline",
		"prompt":        "consent",
		"redirect_uri":  "https://other.test/callback",
		"client_id":     "client",
		"response_type": "code",
	}
	for key, want := range checks {
		if got := q.Get(key); got != want {
			t.Fatalf("%s = %q, want %q", key, got, want)
		}
	}
	if got := q.Get("scope"); got != strings.Join(Scopes, " ") {
		t.Fatalf("scope = %q", got)
	}

	if got := newTestOAuth(t, "x").AuthCodeURL("s", ""); !strings.Contains(got, url.QueryEscape("https://teamfund.test/api/gmail/callback")) {
		t.Fatalf("default redirect missing from %q", got)
	}
}

func TestExchange(t *testing.T) {
	server, _ := tokenServer(t, func(form url.Values) string {
		if form.Get("code") != "code-1" || form.Get("grant_type") != "authorization_code" {
			return ""
		}
		return `{"access_token":"at","refresh_token":"rt","token_type":"Bearer","expires_in":3600}`
	})
	o := newTestOAuth(t, server.URL)

	grant, err := o.Exchange(context.Background(), "code-1", "")
	if err != nil {
		t.Fatalf("exchange: %v", err)
	}
	if grant.AccessToken != "at" || grant.RefreshToken != "rt" {
		t.Fatalf("grant = %+v", grant)
	}
	if grant.Expiry.IsZero() {
		t.Fatal("expiry not set")
	}
	if _, err := o.Exchange(context.Background(), "", ""); err == nil {
		t.Fatal("expected error for empty code")
	}
	if _, err := o.Exchange(context.Background(), "bad", ""); err == nil {
		t.Fatal("expected error for rejected code")
	}
}

func TestTokenSourceReusesValidToken(t *testing.T) {
	server, calls := tokenServer(t, func(url.Values) string { return "" })
	o := newTestOAuth(t, server.URL)

	grant := Grant{AccessToken: "at", RefreshToken: "rt", Expiry: time.Now().Add(time.Hour)}
	token, err := o.TokenSource(context.Background(), grant).Token()
	if err != nil {
		t.Fatalf("token: %v", err)
	}
	if token.AccessToken != "at" {
		t.Fatalf("access token = %q, want at", token.AccessToken)
	}
	if *calls != 0 {
		t.Fatalf("token endpoint calls = %d, want 0", *calls)
	}
}

func TestTokenSourceRefreshesMissingAccessToken(t *testing.T) {
	server, calls := tokenServer(t, func(form url.Values) string {
		if form.Get("grant_type") != "refresh_token" || form.Get("refresh_token") != "rt" {
			return ""
		}
		return `{"access_token":"fresh","token_type":"Bearer","expires_in":3600}`
	})
	o := newTestOAuth(t, server.URL)

	token, err := o.TokenSource(context.Background(), Grant{RefreshToken: "rt"}).Token()
	if err != nil {
		t.Fatalf("token: %v", err)
	}
	if token.AccessToken != "fresh" {
		t.Fatalf("access token = %q, want fresh", token.AccessToken)
	}
	if *calls != 1 {
		t.Fatalf("token endpoint calls = %d, want 1", *calls)
	}
}

func TestTokenSourceRefreshFailureIsUnauthorized(t *testing.T) {
	server, _ := tokenServer(t, func(url.Values) string { return "" })
	o := newTestOAuth(t, server.URL)

	_, err := o.TokenSource(context.Background(), Grant{RefreshToken: "revoked"}).Token()
	if err == nil {
		t.Fatal("expected refresh error")
	}
	if !IsUnauthorized(err) {
		t.Fatalf("IsUnauthorized(%v) = false, want true", err)
	}
}

func TestGrantRoundTripKeepsRefreshToken(t *testing.T) {
	data, err := MarshalGrant(Grant{AccessToken: "at", RefreshToken: "rt"})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	grant, err := UnmarshalGrant(data)
	if err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !grant.Usable() || grant.RefreshToken != "rt" {
		t.Fatalf("grant = %+v", grant)
	}
	if (Grant{}).Usable() {
		t.Fatal("empty grant usable")
	}
}
