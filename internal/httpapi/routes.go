package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Register wires the protected /v1 surface plus the public routes.
// webhookHandler ingests vendor deliveries; it authenticates by assistant id
// resolution, not by bearer token.
func (h Handlers) Register(r *gin.Engine, authMW gin.HandlerFunc, webhookHandler gin.HandlerFunc) {
	// public
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	if webhookHandler != nil {
		r.POST("/webhooks/vapi", webhookHandler)
	}

	r.POST("/v1/auth/register", h.RegisterProfile)
	r.POST("/v1/auth/login", h.Login)

	v1 := r.Group("/v1")
	v1.Use(authMW)
	{
		v1.GET("/me", h.Me)
		v1.PUT("/profile/assistant", h.LinkAssistant)

		calls := v1.Group("/calls")
		{
			calls.GET("", h.ListCalls)
			calls.GET("/:call_id", h.GetCall)
			calls.PATCH("/:call_id", h.UpdateCall)
			calls.DELETE("/:call_id", h.DeleteCall)
		}

		rcps := v1.Group("/receptionists")
		{
			rcps.GET("", h.ListReceptionists)
			rcps.POST("", h.CreateReceptionist)
			rcps.GET("/:receptionist_id", h.GetReceptionist)
			rcps.PATCH("/:receptionist_id", h.UpdateReceptionist)
			rcps.DELETE("/:receptionist_id", h.DeleteReceptionist)
			rcps.GET("/:receptionist_id/metrics", h.ReceptionistMetrics)
		}

		v1.GET("/metrics", h.UserMetrics)

		vendor := v1.Group("/vapi")
		{
			vendor.GET("/assistant", h.GetAssistant)
			vendor.PATCH("/assistant", h.UpdateAssistant)
			vendor.GET("/phone-number", h.GetPhoneNumber)
			vendor.PATCH("/phone-number", h.UpdatePhoneNumber)
			vendor.GET("/calls", h.ListVendorCalls)
		}

		reports := v1.Group("/reports")
		{
			reports.GET("/summary", h.ReportSummary)
			reports.GET("/export", h.ExportReport)
		}
	}
}
