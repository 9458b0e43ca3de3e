package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
)

// HashSecret bcrypt-hashes a cron secret for storage in configuration.
func HashSecret(plain string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.DefaultCost)
	return string(bytes), err
}

// compares a bcrypt hash with the plaintext.
func checkSecret(hash, plain string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}

func isBcryptHash(s string) bool {
	return strings.HasPrefix(s, "$2a$") || strings.HasPrefix(s, "$2b$") || strings.HasPrefix(s, "$2y$")
}

// bearer extracts the token of "Authorization: Bearer <token>".
func bearer(c *gin.Context) (string, bool) {
	parts := strings.SplitN(c.GetHeader("Authorization"), " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
		return "", false
	}
	return parts[1], true
}

// Authorized reports whether token satisfies secret: the secret itself or a
// token signed with it. When secret is a bcrypt hash only the matching
// plaintext is accepted, never the hash.
func Authorized(secret, token string) bool {
	if secret == "" {
		return true
	}
	if isBcryptHash(secret) {
		return checkSecret(secret, token)
	}
	if subtle.ConstantTimeCompare([]byte(token), []byte(secret)) == 1 {
		return true
	}
	if sub, err := parseToken(token, secret); err == nil && sub == CronSubject {
		return true
	}
	return false
}

// CronAuth guards the dispatch endpoint. An empty secret leaves it open.
func CronAuth(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if secret == "" {
			c.Next()
			return
		}
		token, ok := bearer(c)
		if !ok || !Authorized(secret, token) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		c.Next()
	}
}
