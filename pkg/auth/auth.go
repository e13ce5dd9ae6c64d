package auth

import (
	"crypto/subtle"
	"encoding/base64"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// Credentials is a single username/password pair accepted over HTTP Basic auth.
type Credentials struct {
	Username string
	Password string
}

// Validate reports whether an Authorization header carries these credentials.
func (c Credentials) Validate(authHeader string) bool {
	if c.Username == "" || c.Password == "" {
		return false
	}

	encoded, ok := strings.CutPrefix(authHeader, "Basic ")
	if !ok {
		return false
	}

	decoded, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return false
	}

	username, password, ok := strings.Cut(string(decoded), ":")
	if !ok {
		return false
	}

	// Constant-time on both fields.
	usernameMatch := subtle.ConstantTimeCompare([]byte(username), []byte(c.Username)) == 1
	passwordMatch := subtle.ConstantTimeCompare([]byte(password), []byte(c.Password)) == 1

	return usernameMatch && passwordMatch
}

// Header builds the Authorization header value for these credentials.
func (c Credentials) Header() string {
	return "Basic " + base64.StdEncoding.EncodeToString([]byte(c.Username+":"+c.Password))
}

// Middleware rejects requests that do not carry the credentials.
func Middleware(creds Credentials) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !creds.Validate(c.GetHeader("Authorization")) {
			c.Header("WWW-Authenticate", `Basic realm="relay"`)
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		c.Next()
	}
}
