package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
)

// SecurityHeaders hardens API responses. Schedules and rosters are personal
// data, so nothing is cached unless a handler says otherwise. HSTS is sent on
// HTTPS requests, directly or behind a proxy, when hstsMaxAge is positive.
func SecurityHeaders(hstsMaxAge time.Duration) gin.HandlerFunc {
	hsts := "max-age=" + strconv.Itoa(int(hstsMaxAge.Seconds())) + "; includeSubDomains"

	return func(c *gin.Context) {
		h := c.Writer.Header()
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("X-Frame-Options", "DENY")
		h.Set("Referrer-Policy", "no-referrer")
		h.Set("Content-Security-Policy", "default-src 'none'; frame-ancestors 'none'")
		h.Set("Cache-Control", "no-store")

		if hstsMaxAge > 0 && (c.Request.TLS != nil || c.GetHeader("X-Forwarded-Proto") == "https") {
			h.Set("Strict-Transport-Security", hsts)
		}

		c.Next()
	}
}
