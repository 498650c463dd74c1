package rest

import (
	"github.com/gin-gonic/gin"
)

// SetupRoutes configures all admin API routes.
func SetupRoutes(router *gin.Engine, handler *Handler) {
	router.GET("/health", handler.HealthCheck)

	// The ledger file is served under its instance-relative path so existing
	// sourcecred frontends can point at this server unchanged.
	router.GET("/data/ledger.json", handler.GetLedger)
	router.POST("/data/ledger.json", handler.PutLedger)

	v1 := router.Group("/api/v1")
	{
		v1.GET("/accounts", handler.ListAccounts)
	}
}
