package middleware

import (
	"net/http"
	"regexp"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	SessionHeader = "X-Session-ID"
	SessionCookie = "cart_session"
	SessionKey    = "session_id"
)

var sessionIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{8,64}$`)

// Session identifies the anonymous cart session. The id comes from the
// X-Session-ID header, then the cart_session cookie; otherwise a new one is
// minted and returned in both.
func Session(cookieTTLSeconds int, secure bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(SessionHeader)
		if !sessionIDPattern.MatchString(id) {
			id = ""
			if v, err := c.Cookie(SessionCookie); err == nil && sessionIDPattern.MatchString(v) {
				id = v
			}
		}
		if id == "" {
			id = uuid.NewString()
		}

		c.SetSameSite(http.SameSiteLaxMode)
		c.SetCookie(SessionCookie, id, cookieTTLSeconds, "/", "", secure, true)
		c.Header(SessionHeader, id)
		c.Set(SessionKey, id)
		c.Next()
	}
}

// SessionID returns the id stored by Session.
func SessionID(c *gin.Context) string {
	return c.GetString(SessionKey)
}
