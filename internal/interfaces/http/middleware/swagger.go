package middleware

import (
	"net"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/storefront/backend/internal/interfaces/http/dto"
)

// SwaggerProtection hides the API documentation unless enabled and, when
// allowedIPs is set, restricts it to those addresses or CIDR ranges
func SwaggerProtection(enabled bool, allowedIPs []string) gin.HandlerFunc {
	var (
		ips  []net.IP
		nets []*net.IPNet
	)
	for _, s := range allowedIPs {
		if strings.Contains(s, "/") {
			if _, network, err := net.ParseCIDR(s); err == nil {
				nets = append(nets, network)
			}
			continue
		}
		if ip := net.ParseIP(s); ip != nil {
			ips = append(ips, ip)
		}
	}

	return func(c *gin.Context) {
		if !enabled {
			c.AbortWithStatusJSON(http.StatusNotFound, dto.NewErrorResponse(
				dto.ErrCodeNotFound, "API documentation is not available", GetRequestID(c)))
			return
		}
		if len(allowedIPs) > 0 && !isIPAllowed(net.ParseIP(c.ClientIP()), ips, nets) {
			c.AbortWithStatusJSON(http.StatusForbidden, dto.NewErrorResponse(
				dto.ErrCodeForbidden, "Access to API documentation is restricted", GetRequestID(c)))
			return
		}
		c.Next()
	}
}

func isIPAllowed(ip net.IP, allowedIPs []net.IP, allowedNets []*net.IPNet) bool {
	if ip == nil {
		return false
	}
	for _, allowed := range allowedIPs {
		if allowed.Equal(ip) {
			return true
		}
	}
	for _, network := range allowedNets {
		if network.Contains(ip) {
			return true
		}
	}
	return false
}
