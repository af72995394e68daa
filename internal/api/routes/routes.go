// Package routes wires the read-only ledger HTTP surface onto a gin.Engine.
package routes

import (
	"github.com/gin-gonic/gin"

	"ledgerengine/internal/api/handlers"
	"ledgerengine/internal/api/middleware"
	"ledgerengine/internal/engine"
	"ledgerengine/internal/logging"
)

// Register attaches every route and middleware to router.
func Register(router *gin.Engine, e *engine.Engine, logger *logging.Logger) {
	router.Use(middleware.RequestLogger(logger))
	router.Use(middleware.Prometheus())

	router.GET("/accounts/:id", handlers.GetAccount(e))
	router.GET("/accounts", handlers.ListAccounts(e))
	router.GET("/healthz", handlers.Health)
	router.GET("/metrics", handlers.Metrics)
}
