package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func cronRouter(secret string) *gin.Engine {
	r := gin.New()
	r.GET("/cron", CronAuth(secret), func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"ok": true}) })
	return r
}

func call(r *gin.Engine, auth string) int {
	req := httptest.NewRequest(http.MethodGet, "/cron", nil)
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w.Code
}

func TestCronAuthOpenWithoutSecret(t *testing.T) {
	assert.Equal(t, http.StatusOK, call(cronRouter(""), ""))
}

func TestCronAuthRawSecret(t *testing.T) {
	r := cronRouter("s3cret")
	assert.Equal(t, http.StatusOK, call(r, "Bearer s3cret"))
	assert.Equal(t, http.StatusUnauthorized, call(r, "Bearer wrong"))
	assert.Equal(t, http.StatusUnauthorized, call(r, "s3cret"))
	assert.Equal(t, http.StatusUnauthorized, call(r, ""))
}

func TestCronAuthSignedToken(t *testing.T) {
	r := cronRouter("s3cret")

	token, err := IssueCronToken("s3cret", time.Minute)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, call(r, "Bearer "+token))

	expired, err := IssueCronToken("s3cret", -time.Minute)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, call(r, "Bearer "+expired))

	other, err := IssueCronToken("other", time.Minute)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, call(r, "Bearer "+other))

	wrongSub := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": "admin", "exp": time.Now().Add(time.Minute).Unix()})
	signed, err := wrongSub.SignedString([]byte("s3cret"))
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, call(r, "Bearer "+signed))
}

func TestCronAuthHashedSecret(t *testing.T) {
	hash, err := HashSecret("s3cret")
	require.NoError(t, err)
	r := cronRouter(hash)

	assert.Equal(t, http.StatusOK, call(r, "Bearer s3cret"))
	assert.Equal(t, http.StatusUnauthorized, call(r, "Bearer nope"))

	// the stored hash is not itself a credential
	assert.Equal(t, http.StatusUnauthorized, call(r, "Bearer "+hash))
	signedWithHash := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": CronSubject, "exp": time.Now().Add(time.Minute).Unix()})
	forged, err := signedWithHash.SignedString([]byte(hash))
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, call(r, "Bearer "+forged))

	_, err = IssueCronToken(hash, time.Minute)
	assert.Error(t, err)
}

func TestIssueCronTokenNeedsSecret(t *testing.T) {
	_, err := IssueCronToken("", time.Minute)
	assert.Error(t, err)
}
