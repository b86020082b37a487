package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/ntdung97/spacebook/internal/adapter/realtime"
)

// NewRouter assembles the HTTP surface. The webhook endpoint is deliberately
// outside the auth group: transport-level authentication is the signature
// inside the payload.
func NewRouter(
	jwtSecret string,
	bookings *BookingHandler,
	webhook *WebhookHandler,
	notifications *NotificationHandler,
	gateway *realtime.Gateway,
) *gin.Engine {
	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())

	api := r.Group("/api/v1")

	api.POST("/webhooks/payment", webhook.Handle)

	authed := api.Group("", AuthRequired(jwtSecret))
	{
		authed.POST("/bookings", bookings.Create)
		authed.GET("/bookings/:id", bookings.Get)
		authed.POST("/bookings/:id/confirm", bookings.Confirm)
		authed.POST("/bookings/:id/reject", bookings.Reject)
		authed.POST("/bookings/:id/cancel", bookings.Cancel)

		authed.GET("/notifications", notifications.List)
		authed.PATCH("/notifications/:id/read", notifications.MarkRead)
	}

	r.GET("/ws", gateway.Serve)

	return r
}
