package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"delivery-backend/internal/shared/middleware"
	"delivery-backend/internal/shared/response"
	"delivery-backend/pkg/container"
)

func SetupRouter(c *container.Container) *gin.Engine {
	router := gin.New()

	// Global middlewares
	router.Use(
		middleware.Recovery(),
		middleware.RequestID(),
		middleware.Logger(),
	)

	v1 := router.Group("/api/v1")
	{
		v1.GET("/health", healthCheckHandler(c))

		setupRefundRoutes(v1, c)
		setupAdminRefundRoutes(v1, c)
	}

	router.NoRoute(func(ctx *gin.Context) {
		response.NotFound(ctx, "Route not found")
	})

	return router
}

// ========================================
// REFUND ROUTES
// ========================================
func setupRefundRoutes(v1 *gin.RouterGroup, c *container.Container) {
	refunds := v1.Group("/refunds")
	refunds.Use(middleware.AuthMiddleware(c.JWTManager))
	{
		// Reports đăng ký trước /:id
		refunds.GET("/in-study", c.RefundHandler.InStudy)
		refunds.GET("/in-study/export", c.RefundHandler.ExportInStudy)
		refunds.GET("/expired-orders", c.RefundHandler.ExpiredOrders)

		refunds.POST("", c.RefundHandler.Create)
		refunds.GET("", c.RefundHandler.List)
		refunds.GET("/:id", c.RefundHandler.Get)
		refunds.PUT("/:id", c.RefundHandler.Update)
		refunds.PATCH("/:id", c.RefundHandler.PartialUpdate)
		refunds.DELETE("/:id", c.RefundHandler.Delete)
	}
}

// ========================================
// ADMIN ROUTES
// ========================================
func setupAdminRefundRoutes(v1 *gin.RouterGroup, c *container.Container) {
	admin := v1.Group("/admin/refunds")
	admin.Use(
		middleware.AuthMiddleware(c.JWTManager),
		middleware.AdminMiddleware(),
	)
	{
		admin.POST("/cleanup", c.RefundHandler.TriggerCleanup)
	}
}

// ========================================
// HEALTH CHECK
// ========================================
func healthCheckHandler(appCtx *container.Container) gin.HandlerFunc {
	return func(c *gin.Context) {
		health := gin.H{
			"status":    "ok",
			"timestamp": time.Now().Format(time.RFC3339),
			"version":   getEnv("APP_VERSION", "1.0.0"),
		}

		// Check database
		dbStatus := "ok"
		if appCtx.DB == nil || appCtx.DB.Pool == nil {
			dbStatus = "disconnected"
			health["status"] = "degraded"
		} else {
			ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
			defer cancel()

			if err := appCtx.DB.HealthCheck(ctx); err != nil {
				dbStatus = fmt.Sprintf("error: %v", err)
				health["status"] = "degraded"
			}
		}

		// Check redis; reports still work without it
		redisStatus := "ok"
		if appCtx.Cache == nil {
			redisStatus = "disconnected"
		} else {
			ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
			defer cancel()

			if err := appCtx.Cache.Ping(ctx); err != nil {
				redisStatus = fmt.Sprintf("error: %v", err)
			}
		}

		health["services"] = gin.H{
			"database": dbStatus,
			"redis":    redisStatus,
		}

		status := http.StatusOK
		if health["status"] != "ok" {
			status = http.StatusServiceUnavailable
		}
		c.JSON(status, health)
	}
}
