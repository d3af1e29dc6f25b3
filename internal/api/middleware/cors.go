package middleware

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/malamapl09/Picker-Scheduler/config"
)

// corsAllowHeaders request headers the web client sends.
const corsAllowHeaders = "Authorization, Content-Type, X-Request-ID"

// corsExposeHeaders lets browsers read export file names, the request id and
// the rate limiter's back-off.
const corsExposeHeaders = "Content-Disposition, X-Request-ID, Retry-After"

// CORS allows the configured origins. "*" admits any origin but never with
// credentials. Preflights from other origins are refused with 403.
func CORS(cfg config.CORSConfig) gin.HandlerFunc {
	origins := make(map[string]bool, len(cfg.AllowOrigins))
	anyOrigin := false
	for _, o := range cfg.AllowOrigins {
		o = strings.TrimRight(strings.TrimSpace(o), "/")
		if o == "*" {
			anyOrigin = true
			continue
		}
		origins[strings.ToLower(o)] = true
	}
	maxAge := strconv.Itoa(int(cfg.MaxAge.Seconds()))

	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		preflight := c.Request.Method == http.MethodOptions && c.GetHeader("Access-Control-Request-Method") != ""
		c.Writer.Header().Add("Vary", "Origin")

		switch {
		case origin == "":
		case origins[strings.ToLower(origin)]:
			c.Header("Access-Control-Allow-Origin", origin)
			c.Header("Access-Control-Allow-Credentials", "true")
		case anyOrigin:
			c.Header("Access-Control-Allow-Origin", "*")
		default:
			if preflight {
				c.AbortWithStatus(http.StatusForbidden)
				return
			}
			c.Next()
			return
		}
		c.Header("Access-Control-Expose-Headers", corsExposeHeaders)

		if preflight {
			c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
			c.Header("Access-Control-Allow-Headers", corsAllowHeaders)
			c.Header("Access-Control-Max-Age", maxAge)
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}
