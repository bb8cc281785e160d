package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRouter(secret []byte) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestLogger(), RequireToken(secret))
	r.GET("/ping", func(c *gin.Context) {
		c.String(http.StatusOK, c.GetString("subject"))
	})
	return r
}

func TestRequireTokenOpenWithoutSecret(t *testing.T) {
	w := httptest.NewRecorder()
	newRouter(nil).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get(RequestIDHeader))
}

func TestRequireToken(t *testing.T) {
	secret := []byte("s3cret")
	r := newRouter(secret)

	token, err := IssueToken(secret, "clerk", time.Hour)
	require.NoError(t, err)

	cases := []struct {
		name   string
		header string
		query  string
		status int
	}{
		{name: "missing", status: http.StatusUnauthorized},
		{name: "bad format", header: "Token " + token, status: http.StatusUnauthorized},
		{name: "bad token", header: "Bearer nope", status: http.StatusUnauthorized},
		{name: "header", header: "Bearer " + token, status: http.StatusOK},
		{name: "query", query: "?token=" + token, status: http.StatusOK},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/ping"+tc.query, nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			assert.Equal(t, tc.status, w.Code)
			if tc.status == http.StatusOK {
				assert.Equal(t, "clerk", w.Body.String())
			}
		})
	}
}

func TestParseTokenRejectsOtherSecretAndExpiry(t *testing.T) {
	token, err := IssueToken([]byte("a"), "x", time.Hour)
	require.NoError(t, err)
	_, err = ParseToken([]byte("b"), token)
	assert.Error(t, err)

	expired, err := IssueToken([]byte("a"), "x", -time.Minute)
	require.NoError(t, err)
	_, err = ParseToken([]byte("a"), expired)
	assert.Error(t, err)

	_, err = ParseToken([]byte("a"), "")
	assert.ErrorIs(t, err, ErrTokenMissing)
}
