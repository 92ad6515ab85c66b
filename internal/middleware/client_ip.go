package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"
)

// ClientIP resolves the rate-limiting origin for a request, honoring the
// proxy headers the service is normally deployed behind.
func ClientIP(c *fiber.Ctx) string {
	if ip := c.Get("X-Real-IP"); ip != "" {
		return ip
	}
	if fwd := c.Get("X-Forwarded-For"); fwd != "" {
		if i := strings.Index(fwd, ","); i >= 0 {
			return strings.TrimSpace(fwd[:i])
		}
		return strings.TrimSpace(fwd)
	}
	return c.IP()
}
