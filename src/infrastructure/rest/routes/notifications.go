package routes

import (
	"emrs-notify-api/src/infrastructure/di"
	"emrs-notify-api/src/infrastructure/rest/middlewares"

	"github.com/gin-gonic/gin"
)

func NotificationRoutes(router *gin.RouterGroup, appContext *di.ApplicationContext) {
	n := router.Group("/notifications")
	n.Use(middlewares.AuthJWTMiddleware(appContext.Config.Auth.JWTSecret, appContext.Logger))
	{
		n.POST("/email/bulk", appContext.EmailController.SendBulk)
		n.POST("/email/gmail", appContext.EmailController.SendGmail)
		n.POST("/sms", appContext.SmsController.Send)
		n.GET("/batches/:id/audit", appContext.BatchController.GetAuditTrail)
	}
}
