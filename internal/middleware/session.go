package middleware

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/biblioteca-api/internal/models"
)

// SessionContextKey is where the resolved session lives in the Gin
// context.
const SessionContextKey = "session"

// SessionManager issues and validates session cookies.
type SessionManager interface {
	Issue() (*models.Session, string, error)
	Parse(token string) (*models.Session, error)
	CookieName() string
	Lifetime() time.Duration
	Secure() bool
}

// Session resolves the browser session from its cookie, transparently
// replacing missing, invalid, or expired cookies with a fresh
// session. The cookie is HttpOnly and SameSite=Lax; Secure follows
// the HTTPS deployment flag.
func Session(sessions SessionManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		var sess *models.Session

		if token, err := c.Cookie(sessions.CookieName()); err == nil && token != "" {
			if parsed, err := sessions.Parse(token); err == nil {
				sess = parsed
			}
		}

		if sess == nil {
			issued, token, err := sessions.Issue()
			if err != nil {
				c.AbortWithStatus(http.StatusInternalServerError)
				return
			}
			sess = issued

			c.SetSameSite(http.SameSiteLaxMode)
			c.SetCookie(
				sessions.CookieName(),
				token,
				int(sessions.Lifetime().Seconds()),
				"/",
				"",
				sessions.Secure(),
				true,
			)
		}

		c.Set(SessionContextKey, sess)
		c.Next()
	}
}

// SessionValue returns the session stored in the Gin context.
func SessionValue(c *gin.Context) *models.Session {
	if v, exists := c.Get(SessionContextKey); exists {
		if sess, ok := v.(*models.Session); ok {
			return sess
		}
	}
	return nil
}
