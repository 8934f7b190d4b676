package jwt_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	gojwt "github.com/golang-jwt/jwt/v5"
	"github.com/jonesrussell/company-url-collector/infrastructure/jwt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const secret = "test-secret"

func router() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(jwt.Middleware(secret))
	r.GET("/whoami", func(c *gin.Context) {
		claims, ok := jwt.GetClaims(c)
		if !ok {
			c.Status(http.StatusInternalServerError)
			return
		}
		c.String(http.StatusOK, claims.Subject)
	})
	return r
}

func do(t *testing.T, auth string) *httptest.ResponseRecorder {
	t.Helper()
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/whoami", http.NoBody)
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	router().ServeHTTP(w, req)
	return w
}

func TestMiddleware(t *testing.T) {
	valid, err := jwt.Sign(secret, "ops", gojwt.RegisteredClaims{
		ExpiresAt: gojwt.NewNumericDate(time.Now().Add(time.Hour)),
	})
	require.NoError(t, err)

	expired, err := jwt.Sign(secret, "ops", gojwt.RegisteredClaims{
		ExpiresAt: gojwt.NewNumericDate(time.Now().Add(-time.Hour)),
	})
	require.NoError(t, err)

	wrongKey, err := jwt.Sign("other-secret", "ops", gojwt.RegisteredClaims{})
	require.NoError(t, err)

	tests := []struct {
		name     string
		auth     string
		wantCode int
		wantBody string
	}{
		{name: "valid", auth: "Bearer " + valid, wantCode: http.StatusOK, wantBody: "ops"},
		{name: "missing header", auth: "", wantCode: http.StatusUnauthorized},
		{name: "wrong scheme", auth: "Basic abc", wantCode: http.StatusUnauthorized},
		{name: "expired", auth: "Bearer " + expired, wantCode: http.StatusUnauthorized},
		{name: "wrong key", auth: "Bearer " + wrongKey, wantCode: http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(t, tt.auth)
			assert.Equal(t, tt.wantCode, w.Code)
			if tt.wantBody != "" {
				assert.Equal(t, tt.wantBody, w.Body.String())
			}
		})
	}
}
