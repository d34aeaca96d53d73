package main

import (
	"receptionist-platform/internal/auth"
	"receptionist-platform/internal/httpapi"
	"receptionist-platform/internal/webhook"

	"github.com/gin-gonic/gin"
)

// registerRoutes wires HTTP routes to handlers.
// Keep this file free of business logic. Handlers delegate to internal modules.
//
// NOTE: The webhook endpoint is public; the vendor does not sign deliveries
// with a shared secret in the configuration this service targets. Identity is
// established by resolving the assistant id to a registered profile.
func registerRoutes(r *gin.Engine, api httpapi.Handlers, manager *auth.Manager, wh *webhook.Handler) {
	api.Register(r, auth.RequireAccessToken(manager), wh.Handle)
}
