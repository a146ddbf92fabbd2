package main

import (
	"github.com/hibiken/asynq"

	refundJob "delivery-backend/internal/domains/refund/job"
	"delivery-backend/internal/shared"
	"delivery-backend/pkg/container"
)

// HandlerRegistry holds all job handlers
type HandlerRegistry struct {
	cleanupExpiredOrders *refundJob.CleanupExpiredOrdersHandler
}

// initializeHandlers creates all job handlers with their dependencies
func initializeHandlers(c *container.Container) *HandlerRegistry {
	return &HandlerRegistry{
		cleanupExpiredOrders: refundJob.NewCleanupExpiredOrdersHandler(
			c.CleanupService,
			c.Config.Job.Timeout,
		),
	}
}

// RegisterHandlers registers all handlers with the mux
func (h *HandlerRegistry) RegisterHandlers(mux *asynq.ServeMux) {
	mux.HandleFunc(shared.TypeCleanupExpiredOrders, h.cleanupExpiredOrders.ProcessTask)
}
