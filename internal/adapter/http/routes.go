package http

import (
	"github.com/gin-gonic/gin"

	"github.com/AmimerNabil/achieveai/internal/adapter/http/handlers"
	"github.com/AmimerNabil/achieveai/internal/adapter/http/middleware"
	"github.com/AmimerNabil/achieveai/internal/core/ports"
)

func RegisterRoutes(
	r *gin.Engine,
	healthHandler *handlers.HealthHandler,
	taskHandler *handlers.TaskHandler,
	verifier ports.IdentityVerifier,
) {
	r.Use(middleware.LanguageMiddleware())

	r.GET("/health", healthHandler.CheckHealth)
	r.GET("/health/report", healthHandler.CheckHealthReport)

	tasks := r.Group("/tasks", middleware.AuthMiddleware(verifier))
	{
		tasks.GET("", taskHandler.ListTasks)
		tasks.POST("", taskHandler.CreateTask)
		tasks.GET("/:id", taskHandler.GetTask)
		tasks.PUT("/:id", taskHandler.UpdateTask)
		tasks.PUT("/:id/time", taskHandler.UpdateTaskTime)
		tasks.DELETE("/:id", taskHandler.DeleteTask)
	}
}
