package token

import (
	"time"

	jwt "github.com/golang-jwt/jwt/v5"

	"github.com/astro-web3/helpdesk-client/internal/domain/access"
)

// Claims are the decoded bearer claims. They are advisory metadata on the
// client side: the signature is the server's to verify, so the payload is
// decoded without validation and nothing here is treated as proof.
type Claims struct {
	SubjectID string
	Email     string
	Name      string
	Role      access.Role
	// ExpiresAt is zero when the token carries no exp claim.
	ExpiresAt time.Time
}

type wireClaims struct {
	Email string `json:"email"`
	Name  string `json:"name"`
	Role  string `json:"role"`
	jwt.RegisteredClaims
}

// Decode extracts claims from a raw bearer token. Malformed input of any
// shape returns (nil, false); it never panics and never errors callers.
func Decode(raw string) (*Claims, bool) {
	if raw == "" {
		return nil, false
	}

	var wire wireClaims
	parser := jwt.NewParser()
	if _, _, err := parser.ParseUnverified(raw, &wire); err != nil {
		return nil, false
	}

	claims := &Claims{
		SubjectID: wire.Subject,
		Email:     wire.Email,
		Name:      wire.Name,
		Role:      access.Role(wire.Role),
	}
	if wire.ExpiresAt != nil {
		claims.ExpiresAt = wire.ExpiresAt.Time
	}
	return claims, true
}

// IsExpired compares the exp claim to the current time. A claims object
// without an expiry never expires; not every auth flow embeds one, and
// hardening this into a default-deny would change authentication behavior
// for those flows.
func IsExpired(claims *Claims) bool {
	if claims == nil || claims.ExpiresAt.IsZero() {
		return false
	}
	return time.Now().After(claims.ExpiresAt)
}
