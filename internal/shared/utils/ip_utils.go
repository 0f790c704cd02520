package utils

import (
	"net"
	"net/netip"
	"strings"

	"github.com/gin-gonic/gin"
)

const fallbackIP = "127.0.0.1"

// ExtractClientIP prefers the first X-Forwarded-For hop, then X-Real-IP,
// then the socket address. Unparseable values are skipped.
func ExtractClientIP(c *gin.Context) string {
	candidates := make([]string, 0, 3)
	if xff := c.GetHeader("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		candidates = append(candidates, first)
	}
	candidates = append(candidates, c.GetHeader("X-Real-IP"))

	remote := c.Request.RemoteAddr
	if host, _, err := net.SplitHostPort(remote); err == nil {
		remote = host
	}
	candidates = append(candidates, remote)

	for _, raw := range candidates {
		if addr, err := netip.ParseAddr(strings.TrimSpace(raw)); err == nil {
			return addr.Unmap().String()
		}
	}
	return fallbackIP
}
