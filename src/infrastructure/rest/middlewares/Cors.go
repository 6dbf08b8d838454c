package middlewares

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// AllowedHeaders are the request headers browsers may send cross-origin
var AllowedHeaders = []string{"authorization", "x-client-info", "apikey", "content-type"}

// Cors allows every origin; preflight requests are answered here and never reach a handler
func Cors() gin.HandlerFunc {
	return cors.New(cors.Config{
		AllowAllOrigins: true,
		AllowMethods:    []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:    AllowedHeaders,
		MaxAge:          12 * time.Hour,
	})
}
