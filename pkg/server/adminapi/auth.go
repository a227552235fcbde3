// Package adminapi exposes the HTTP admin surface ldapdctl talks to:
// health/readiness, Prometheus metrics, mapping-tree inspection, and
// sync-session inspection (SPEC_FULL.md §3, §2.3).
package adminapi

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims is the JWT payload for an admin bearer token. There is no
// per-user identity here, unlike the teacher's controlplane API — the
// admin surface authenticates ldapdctl as a single operator principal.
type Claims struct {
	jwt.RegisteredClaims

	// Role is always "admin" for tokens this service issues; present so
	// the claim shape mirrors the teacher's and can gain roles later.
	Role string `json:"role"`
}

// IsAdmin reports whether these claims carry the admin role.
func (c *Claims) IsAdmin() bool {
	return c.Role == "admin"
}

// JWTService signs and validates admin bearer tokens with a single
// shared HMAC key (SPEC_FULL.md §3: "golang-jwt/jwt/v5 — signs/validates
// a bearer token for ldapdctl's connection to ldapd's admin API").
type JWTService struct {
	signingKey []byte
	ttl        time.Duration
}

// NewJWTService constructs a JWTService from the configured signing key.
// ttl bounds how long an issued token remains valid.
func NewJWTService(signingKey string, ttl time.Duration) *JWTService {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &JWTService{signingKey: []byte(signingKey), ttl: ttl}
}

// IssueAdminToken mints a fresh admin bearer token, for ldapdctl to
// present on subsequent admin API calls.
func (s *JWTService) IssueAdminToken() (string, error) {
	now := time.Now()
	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
		Role: "admin",
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.signingKey)
}

// ValidateToken parses and verifies tokenString, returning its claims.
func (s *JWTService) ValidateToken(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("adminapi: unexpected signing method %v", t.Header["alg"])
		}
		return s.signingKey, nil
	})
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, fmt.Errorf("adminapi: invalid token")
	}
	return claims, nil
}
