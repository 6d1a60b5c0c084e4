// Package server exposes the pipeline over HTTP. It owns no business logic:
// handlers adapt requests onto the orchestrator, queue and export service
// and map application errors to status codes.
package server

import (
	"log/slog"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/joseph-ayodele/scandocx/internal/async"
	"github.com/joseph-ayodele/scandocx/internal/export"
	"github.com/joseph-ayodele/scandocx/internal/pipeline"
)

type Service struct {
	orch   *pipeline.Orchestrator
	queue  *async.PipelineQueue
	export *export.Service
	logger *slog.Logger
}

func NewService(orch *pipeline.Orchestrator, queue *async.PipelineQueue, exportSvc *export.Service, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{orch: orch, queue: queue, export: exportSvc, logger: logger}
}

// Register wires the routes onto an echo instance.
func (s *Service) Register(e *echo.Echo) {
	e.Use(middleware.Recover())

	e.GET("/health", s.health)
	e.POST("/v1/jobs", s.startJob)
	e.POST("/v1/jobs/:id/file", s.uploadAndRun)
	e.GET("/v1/jobs/export", s.exportJobs)
	e.GET("/v1/jobs/:id", s.jobStatus)
	e.GET("/v1/jobs/:id/result", s.jobResult)
}

func (s *Service) health(c echo.Context) error {
	return c.JSON(200, map[string]string{"status": "ok"})
}
