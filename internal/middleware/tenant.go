package middleware

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

// Tenant returns a middleware that resolves the tenant for the request.
// The tenant comes from the token claims; an optional X-Tenant-ID header is
// accepted but must agree with the token, so a leaked admin token from one
// school can never read another school's ledger.
func Tenant() gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenTenant := getTokenTenantID(c)
		if tokenTenant == 0 {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"error": "Token is not bound to a tenant",
			})
			return
		}

		if header := c.GetHeader("X-Tenant-ID"); header != "" {
			headerTenant, err := strconv.ParseUint(header, 10, 32)
			if err != nil || uint(headerTenant) != tokenTenant {
				c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
					"error": "Tenant mismatch",
				})
				return
			}
		}

		c.Set("tenantID", tokenTenant)
		c.Next()
	}
}

// GetTenantID extracts the resolved tenant ID from the Gin context
func GetTenantID(c *gin.Context) uint {
	tenantID, exists := c.Get("tenantID")
	if !exists {
		return 0
	}
	return tenantID.(uint)
}

func getTokenTenantID(c *gin.Context) uint {
	tenantID, exists := c.Get("tokenTenantID")
	if !exists {
		return 0
	}
	return tenantID.(uint)
}
