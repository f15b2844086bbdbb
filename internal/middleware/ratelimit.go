package middleware

import (
	"math"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/biblioteca-api/internal/models"
	appErrors "github.com/noah-isme/biblioteca-api/pkg/errors"
	"github.com/noah-isme/biblioteca-api/pkg/response"
)

// Admitter decides whether a client may hit an endpoint class.
type Admitter interface {
	Admit(clientID, endpoint string) models.RateLimitDecision
}

// RateLimit gates an endpoint class behind the limiter. It runs first
// in the chain, so counters reflect admitted attempts. Denials get a
// Retry-After header rounded up to whole seconds.
func RateLimit(limiter Admitter, endpoint string) gin.HandlerFunc {
	return func(c *gin.Context) {
		decision := limiter.Admit(ClientIP(c), endpoint)

		if !decision.Allowed {
			seconds := int(math.Ceil(decision.RetryAfter.Seconds()))
			if seconds < 1 {
				seconds = 1
			}
			c.Header("Retry-After", strconv.Itoa(seconds))
			response.Error(c, appErrors.Clone(appErrors.ErrRateLimited, ""))
			c.Abort()
			return
		}

		c.Header("X-RateLimit-Limit", strconv.Itoa(decision.Limit))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(decision.Remaining))
		c.Next()
	}
}

// ClientIP resolves the client identity behind proxies: first hop of
// X-Forwarded-For, then X-Real-IP, then the socket address.
func ClientIP(c *gin.Context) string {
	if fwd := c.GetHeader("X-Forwarded-For"); fwd != "" {
		if first := strings.TrimSpace(strings.Split(fwd, ",")[0]); first != "" {
			return first
		}
	}
	if real := strings.TrimSpace(c.GetHeader("X-Real-IP")); real != "" {
		return real
	}
	if ip := c.ClientIP(); ip != "" {
		return ip
	}
	return "127.0.0.1"
}
