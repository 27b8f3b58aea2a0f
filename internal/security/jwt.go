// Package security gates the optional HTTP API's plan endpoint behind a
// JWT bearer token, independent of the livefeed websocket's coarse clearance
// tiers.
package security

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims carried in the admin API's bearer token.
type Claims struct {
	jwt.RegisteredClaims
	OperatorID string `json:"operator_id"`
	Role       string `json:"role"`
}

// Gate verifies bearer tokens signed with a shared HMAC secret and
// wraps http.Handlers to require one.
type Gate struct {
	secret []byte
	issuer string
}

// NewGate builds a Gate that verifies tokens issued under issuer with
// the given HMAC secret.
func NewGate(secret []byte, issuer string) *Gate {
	return &Gate{secret: secret, issuer: issuer}
}

// IssueToken mints a token for operatorID/role valid for ttl.
func (g *Gate) IssueToken(operatorID, role string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    g.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		OperatorID: operatorID,
		Role:       role,
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(g.secret)
	if err != nil {
		return "", fmt.Errorf("security: signing token: %w", err)
	}
	return signed, nil
}

// Verify parses and validates a bearer token string, returning its claims.
func (g *Gate) Verify(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("security: unexpected signing method %v", t.Header["alg"])
		}
		return g.secret, nil
	}, jwt.WithIssuer(g.issuer))
	if err != nil {
		return nil, fmt.Errorf("security: verifying token: %w", err)
	}
	if !token.Valid {
		return nil, errors.New("security: token failed validation")
	}
	return claims, nil
}

// RequireRole wraps next so it only runs when the request carries a
// valid bearer token whose role is one of allowedRoles.
func (g *Gate) RequireRole(next http.Handler, allowedRoles ...string) http.Handler {
	allowed := make(map[string]bool, len(allowedRoles))
	for _, r := range allowedRoles {
		allowed[r] = true
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth := r.Header.Get("Authorization")
		tokenString, ok := strings.CutPrefix(auth, "Bearer ")
		if !ok {
			http.Error(w, "missing bearer token", http.StatusUnauthorized)
			return
		}
		claims, err := g.Verify(tokenString)
		if err != nil {
			http.Error(w, "invalid token", http.StatusUnauthorized)
			return
		}
		if len(allowed) > 0 && !allowed[claims.Role] {
			http.Error(w, "insufficient role", http.StatusForbidden)
			return
		}
		next.ServeHTTP(w, r)
	})
}
