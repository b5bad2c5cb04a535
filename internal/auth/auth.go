// Package auth issues and validates the HS256 bearer tokens that identify
// callers. The token subject is the caller identity recorded as an event's
// creator.
package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/Shivanand-hulikatti/event-booking/internal/model"
)

const issuer = "event-booking"

// Claims are the registered claims plus an optional display name.
type Claims struct {
	Name string `json:"name,omitempty"`
	jwt.RegisteredClaims
}

// Tokens signs and validates bearer tokens with a shared secret.
type Tokens struct {
	key []byte
	now func() time.Time
}

// NewTokens returns a Tokens using secret. now may be nil.
func NewTokens(secret string, now func() time.Time) *Tokens {
	if now == nil {
		now = time.Now
	}
	return &Tokens{key: []byte(secret), now: now}
}

// Issue returns a signed token for subject valid for ttl.
func (t *Tokens) Issue(subject, name string, ttl time.Duration) (string, error) {
	now := t.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		Name: name,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			Issuer:    issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			ID:        uuid.NewString(),
		},
	})
	return token.SignedString(t.key)
}

// Validate parses tokenString and returns its claims. Every failure is
// reported as an unauthorized *model.Error.
func (t *Tokens) Validate(tokenString string) (*Claims, error) {
	parsed, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrTokenUnverifiable
		}
		return t.key, nil
	}, jwt.WithIssuer(issuer), jwt.WithTimeFunc(t.now), jwt.WithExpirationRequired())
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, model.Unauthorized("token has expired")
		}
		return nil, model.Unauthorized("invalid token")
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid || claims.Subject == "" {
		return nil, model.Unauthorized("invalid token claims")
	}
	return claims, nil
}

// BearerToken extracts the token from an Authorization header value.
func BearerToken(header string) (string, bool) {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

type identityKey struct{}

// WithIdentity stores the caller identity on ctx.
func WithIdentity(ctx context.Context, subject string) context.Context {
	return context.WithValue(ctx, identityKey{}, subject)
}

// IdentityFrom returns the caller identity stored by WithIdentity.
func IdentityFrom(ctx context.Context) (string, bool) {
	s, ok := ctx.Value(identityKey{}).(string)
	return s, ok && s != ""
}
