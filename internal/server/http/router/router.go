package router

import (
	"log/slog"

	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"

	"github.com/polkiloo/pizzeria/internal/server/http/handlers"
	"github.com/polkiloo/pizzeria/internal/server/http/middleware"
)

// Setup configures gin router with handlers and middleware.
func Setup(facade handlers.PizzeriaFacade, logger *slog.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()

	engine.Use(gin.Recovery())
	engine.Use(middleware.RequestID())
	engine.Use(middleware.RequestLogger(logger))
	engine.Use(middleware.DecompressRequest())
	engine.Use(gzip.Gzip(gzip.DefaultCompression))

	healthHandler := handlers.NewHealthHandler(facade)
	authHandler := handlers.NewAuthHandler(facade)
	orderHandler := handlers.NewOrderHandler(facade)

	engine.GET("/healthz", healthHandler.Check)

	api := engine.Group("/api")
	staff := api.Group("/staff")
	staff.POST("/register", authHandler.Register)
	staff.POST("/login", authHandler.Login)

	orders := api.Group("/orders")
	orders.GET("", orderHandler.List)
	orders.GET("/kitchen", orderHandler.Kitchen)
	orders.GET("/summary", orderHandler.Summary)
	orders.GET("/:id", orderHandler.Get)
	orders.GET("/:id/history", orderHandler.History)
	orders.POST("", middleware.AuthOptional(facade), orderHandler.Create)

	ordersAuth := orders.Group("")
	ordersAuth.Use(middleware.AuthRequired(facade))
	ordersAuth.PATCH("/:id", orderHandler.Update)
	ordersAuth.PATCH("/:id/state", orderHandler.ChangeState)
	ordersAuth.POST("/:id/cancel", orderHandler.Cancel)
	ordersAuth.POST("/:id/recalculate", orderHandler.Recalculate)

	return engine
}
