package middleware

import "github.com/gin-gonic/gin"

// SecurityHeaders añade las cabeceras estándar. No hay CSP: esta API no
// sirve HTML.
func SecurityHeaders() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
		c.Header("X-Frame-Options", "DENY")
		c.Header("X-Content-Type-Options", "nosniff")
		c.Next()
	}
}
