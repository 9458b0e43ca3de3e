package middleware

import (
	"errors"
	"time"

	"github.com/dgrijalva/jwt-go"
)

// CronSubject is the "sub" claim of tokens accepted by the cron endpoint.
const CronSubject = "cron"

// IssueCronToken signs a short-lived token for the cron endpoint.
func IssueCronToken(secret string, ttl time.Duration) (string, error) {
	if secret == "" {
		return "", errors.New("cron secret is empty")
	}
	if isBcryptHash(secret) {
		return "", errors.New("cron secret is a bcrypt hash; signed tokens need the plain secret")
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": CronSubject,
		"iat": time.Now().Unix(),
		"exp": time.Now().Add(ttl).Unix(),
	})
	return token.SignedString([]byte(secret))
}

// parseToken verifies the JWT and returns its subject.
func parseToken(tokenString, secret string) (string, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(secret), nil
	})
	if err != nil || !token.Valid {
		return "", errors.New("invalid token")
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", errors.New("invalid claims")
	}
	sub, ok := claims["sub"].(string)
	if !ok {
		return "", errors.New("invalid sub claim")
	}
	return sub, nil
}
