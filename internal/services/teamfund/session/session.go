// Package session verifies the session tokens issued by the auth provider
// and carries the signed-in user through request context.
package session

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	apperrors "github.com/louisbranch/teamfund/internal/platform/errors"
	"github.com/louisbranch/teamfund/internal/platform/requestctx"
	"github.com/louisbranch/teamfund/internal/services/teamfund/domain"
)

const (
	// CookieName holds the session token for browser requests.
	CookieName = "teamfund_session"
	// Audience is the audience claim of signed-in sessions.
	Audience = "authenticated"
)

// Config defines how session tokens are verified.
type Config struct {
	Secret []byte
	Now    func() time.Time
}

// Verifier checks HS256 session tokens.
type Verifier struct {
	secret []byte
	now    func() time.Time
}

type userMetadata struct {
	Name      string `json:"name,omitempty"`
	FullName  string `json:"full_name,omitempty"`
	AvatarURL string `json:"avatar_url,omitempty"`
}

// claims is the token body as the auth provider writes it.
type claims struct {
	jwt.RegisteredClaims
	Email        string       `json:"email,omitempty"`
	UserMetadata userMetadata `json:"user_metadata"`
}

// NewVerifier validates cfg.
func NewVerifier(cfg Config) (*Verifier, error) {
	if len(cfg.Secret) == 0 {
		return nil, fmt.Errorf("session secret is required")
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Verifier{secret: cfg.Secret, now: cfg.Now}, nil
}

// Verify parses token and returns the user it names.
func (v *Verifier) Verify(token string) (domain.User, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return domain.User{}, apperrors.New(apperrors.CodeUnauthenticated, "Unauthorized")
	}
	var parsed claims
	_, err := jwt.ParseWithClaims(token, &parsed, func(*jwt.Token) (any, error) {
		return v.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithAudience(Audience),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(v.now),
	)
	if err != nil {
		return domain.User{}, mapJWTError(err)
	}
	if strings.TrimSpace(parsed.Subject) == "" {
		return domain.User{}, apperrors.New(apperrors.CodeUnauthenticated, "Unauthorized")
	}
	return userFromClaims(parsed), nil
}

func userFromClaims(c claims) domain.User {
	name := strings.TrimSpace(c.UserMetadata.Name)
	if name == "" {
		name = strings.TrimSpace(c.UserMetadata.FullName)
	}
	if name == "" {
		name, _, _ = strings.Cut(c.Email, "@")
	}
	return domain.User{
		ID:        c.Subject,
		Email:     c.Email,
		Name:      name,
		AvatarURL: c.UserMetadata.AvatarURL,
	}
}

func mapJWTError(err error) error {
	if errors.Is(err, jwt.ErrTokenExpired) {
		return apperrors.Wrap(apperrors.CodeUnauthenticated, "Session expired", err)
	}
	return apperrors.Wrap(apperrors.CodeUnauthenticated, "Unauthorized", err)
}

// Sign issues a session token for user valid for ttl. The service itself
// only verifies tokens; Sign backs local tooling and tests.
func (v *Verifier) Sign(user domain.User, ttl time.Duration) (string, error) {
	if strings.TrimSpace(user.ID) == "" {
		return "", fmt.Errorf("user id is required")
	}
	now := v.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			Audience:  jwt.ClaimStrings{Audience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		Email:        user.Email,
		UserMetadata: userMetadata{Name: user.Name, AvatarURL: user.AvatarURL},
	})
	signed, err := token.SignedString(v.secret)
	if err != nil {
		return "", fmt.Errorf("sign session: %w", err)
	}
	return signed, nil
}

// TokenFromRequest reads a bearer token, falling back to the session cookie.
func TokenFromRequest(r *http.Request) string {
	if header := r.Header.Get("Authorization"); header != "" {
		scheme, token, ok := strings.Cut(header, " ")
		if ok && strings.EqualFold(scheme, "Bearer") {
			return strings.TrimSpace(token)
		}
	}
	if cookie, err := r.Cookie(CookieName); err == nil {
		return cookie.Value
	}
	return ""
}

// UserFromRequest verifies the request's session and returns its user.
func (v *Verifier) UserFromRequest(r *http.Request) (domain.User, error) {
	return v.Verify(TokenFromRequest(r))
}

type userContextKey struct{}

// WithUser stores user in ctx, including its id for requestctx readers.
func WithUser(ctx context.Context, user domain.User) context.Context {
	ctx = requestctx.WithUserID(ctx, user.ID)
	return context.WithValue(ctx, userContextKey{}, user)
}

// UserFromContext returns the user stored by WithUser.
func UserFromContext(ctx context.Context) (domain.User, bool) {
	if ctx == nil {
		return domain.User{}, false
	}
	user, ok := ctx.Value(userContextKey{}).(domain.User)
	return user, ok
}
