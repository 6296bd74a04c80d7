package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const magicLinkIssuer = "choppr"

var ErrInvalidMagicLink = errors.New("invalid or expired magic link")

// MagicLink issues and verifies the short-lived HS256 tokens embedded in
// passwordless sign-in links. The token carries only the email as subject;
// the user row is resolved (or created) at redemption time.
type MagicLink struct {
	secret []byte
	ttl    time.Duration
}

// NewMagicLink creates a magic link signer.
// The secret must be at least 32 bytes for HMAC-SHA256.
func NewMagicLink(secret []byte, ttl time.Duration) (*MagicLink, error) {
	if len(secret) < 32 {
		return nil, fmt.Errorf("magic link secret must be at least 32 bytes")
	}
	if ttl <= 0 {
		return nil, fmt.Errorf("magic link TTL must be greater than 0")
	}
	return &MagicLink{secret: secret, ttl: ttl}, nil
}

// Issue creates a signed token for the given email.
func (m *MagicLink) Issue(email string) (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Issuer:    magicLinkIssuer,
		Subject:   email,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign magic link token: %w", err)
	}
	return signed, nil
}

// Verify validates a token and returns the email it was issued for.
// Returns ErrInvalidMagicLink for any malformed, forged, or expired token.
func (m *MagicLink) Verify(tokenStr string) (string, error) {
	parsed, err := jwt.ParseWithClaims(tokenStr, &jwt.RegisteredClaims{}, func(t *jwt.Token) (any, error) {
		if t.Method != jwt.SigningMethodHS256 {
			return nil, errors.New("invalid signing method")
		}
		return m.secret, nil
	},
		jwt.WithIssuer(magicLinkIssuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil || !parsed.Valid {
		return "", ErrInvalidMagicLink
	}

	claims, ok := parsed.Claims.(*jwt.RegisteredClaims)
	if !ok || claims.Subject == "" {
		return "", ErrInvalidMagicLink
	}

	return claims.Subject, nil
}
