package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestValidate(t *testing.T) {
	creds := Credentials{Username: "admin", Password: "s3cret"}

	tests := []struct {
		name   string
		header string
		want   bool
	}{
		{"valid", creds.Header(), true},
		{"empty", "", false},
		{"bearer", "Bearer token", false},
		{"bad base64", "Basic !!!", false},
		{"no colon", "Basic " + "YWRtaW4=", false},
		{"wrong password", Credentials{Username: "admin", Password: "nope"}.Header(), false},
		{"wrong user", Credentials{Username: "root", Password: "s3cret"}.Header(), false},
		{"password with colon", Credentials{Username: "admin", Password: "s3cret:x"}.Header(), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, creds.Validate(tt.header))
		})
	}
}

func TestValidateRejectsUnsetCredentials(t *testing.T) {
	var creds Credentials
	assert.False(t, creds.Validate(creds.Header()))
}

func TestMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	creds := Credentials{Username: "admin", Password: "s3cret"}

	router := gin.New()
	router.GET("/private", Middleware(creds), func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})

	req := httptest.NewRequest(http.MethodGet, "/private", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.NotEmpty(t, w.Header().Get("WWW-Authenticate"))

	req = httptest.NewRequest(http.MethodGet, "/private", nil)
	req.Header.Set("Authorization", creds.Header())
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", w.Body.String())
}
