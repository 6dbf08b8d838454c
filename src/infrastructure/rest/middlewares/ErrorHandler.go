package middlewares

import (
	domainErrors "emrs-notify-api/src/domain/errors"

	"github.com/gin-gonic/gin"
)

// ErrorHandler renders the last error attached with ctx.Error as {success:false, error}
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}
		err := c.Errors.Last().Err
		status, msg := domainErrors.AppErrorToHTTP(err)
		c.AbortWithStatusJSON(status, gin.H{
			"success": false,
			"error":   msg,
		})
	}
}
