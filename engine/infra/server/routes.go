package server

import (
	"net/http"

	"github.com/dataworks/dataworks/engine/infra/monitoring"
	"github.com/dataworks/dataworks/engine/task"
	"github.com/dataworks/dataworks/pkg/version"
	"github.com/gin-gonic/gin"
)

const apiBase = "/api/v0"

// TaskSummary describes a registered task.
type TaskSummary struct {
	ID          string   `json:"id"`
	Aliases     []string `json:"aliases,omitempty"`
	Description string   `json:"description,omitempty"`
	Outputs     []string `json:"outputs,omitempty"`
}

func SummarizeTasks(registry *task.Registry) []TaskSummary {
	defs := registry.List()
	out := make([]TaskSummary, 0, len(defs))
	for _, def := range defs {
		out = append(out, TaskSummary{
			ID:          def.ID,
			Aliases:     def.Aliases,
			Description: def.Description,
			Outputs:     def.Outputs,
		})
	}
	return out
}

func registerRoutes(router *gin.Engine, invoker *task.Invoker, mon *monitoring.Service) {
	router.GET("/healthz", healthHandler(mon))
	api := router.Group(apiBase)
	api.GET("/tasks", listTasksHandler(invoker))
	api.POST("/tasks/:id/run", runTaskHandler(invoker))
}

// healthHandler reports liveness. A monitoring fallback is surfaced without
// failing the check since tasks still run.
func healthHandler(mon *monitoring.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		body := gin.H{"status": "ok", "version": version.Get()}
		if mon != nil {
			metrics := gin.H{"enabled": mon.IsInitialized()}
			if err := mon.InitializationError(); err != nil {
				metrics["error"] = err.Error()
			}
			body["monitoring"] = metrics
		}
		c.JSON(http.StatusOK, body)
	}
}

// listTasksHandler serves GET /api/v0/tasks.
func listTasksHandler(invoker *task.Invoker) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"data":    SummarizeTasks(invoker.Registry()),
			"message": "Success",
		})
	}
}

// runTaskHandler serves POST /api/v0/tasks/:id/run. The id may be a task id
// or an alias.
func runTaskHandler(invoker *task.Invoker) gin.HandlerFunc {
	return func(c *gin.Context) {
		envelope, err := invoker.Run(c.Request.Context(), c.Param("id"))
		if err != nil {
			RespondProblem(c, ProblemFromError(err))
			return
		}
		c.JSON(http.StatusOK, envelope)
	}
}
