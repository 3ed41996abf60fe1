// Package adminapi exposes the daemon's secondary HTTP surface
// (SPEC_FULL.md §4.10): health/metrics mirrors, a JSON snapshot of the
// sensor registry behind bearer auth, and a websocket telemetry stream.
// It is entirely separate from ProtocolEngine's mTLS command channel —
// a convenience surface for dashboards and operators who don't want a
// raw TCP client, not a replacement for it.
package adminapi

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

const tokenTTL = 12 * time.Hour

type claims struct {
	Subject string `json:"sub"`
	jwt.RegisteredClaims
}

// IssueToken signs a short-lived bearer token for subject, using the
// same signing logic the /api/v1/login handler uses. Exported for
// cmd/sentineld's "token issue" subcommand, which mints operator tokens
// out-of-band without going through the HTTP login flow.
func IssueToken(secret, subject string) (string, error) {
	return issueToken(secret, subject)
}

// issueToken signs a short-lived bearer token for subject.
func issueToken(secret, subject string) (string, error) {
	now := time.Now()
	c := claims{
		Subject: subject,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(tokenTTL)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, c)
	return token.SignedString([]byte(secret))
}

// parseToken validates a bearer token and returns its subject.
func parseToken(secret, raw string) (string, error) {
	token, err := jwt.ParseWithClaims(raw, &claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil {
		return "", err
	}
	c, ok := token.Claims.(*claims)
	if !ok || !token.Valid {
		return "", fmt.Errorf("invalid token")
	}
	return c.Subject, nil
}

// requireBearerToken is gin middleware rejecting requests without a
// valid bearer token signed with secret.
func requireBearerToken(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing bearer token"})
			return
		}
		raw := strings.TrimPrefix(header, "Bearer ")
		subject, err := parseToken(secret, raw)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}
		c.Set("subject", subject)
		c.Next()
	}
}

// checkPassphrase compares plaintext against a bcrypt hash.
func checkPassphrase(hash, plaintext string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plaintext)) == nil
}
