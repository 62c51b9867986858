// Package server exposes the task manager as a local JSON API.
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/existflow/taskr/internal/app"
	"github.com/existflow/taskr/internal/logger"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

// Server is the local HTTP API
type Server struct {
	app       *app.App
	tokenHash string
	log       *logger.Logger
	echo      *echo.Echo
}

// New creates a server over a. An empty tokenHash leaves the API open, which
// is only sensible on a loopback address.
func New(a *app.App, tokenHash string) *Server {
	s := &Server{
		app:       a,
		tokenHash: tokenHash,
		log:       logger.WithFields(logger.F("component", "server")),
	}
	s.setupEcho()
	return s
}

func (s *Server) setupEcho() {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// Custom logging middleware
	e.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			req := c.Request()

			// Process request
			err := next(c)

			res := c.Response()
			s.log.Info("HTTP Request",
				logger.F("method", req.Method),
				logger.F("uri", req.RequestURI),
				logger.F("status", res.Status),
				logger.F("size", res.Size),
				logger.F("request_id", res.Header().Get(echo.HeaderXRequestID)),
				logger.F("duration", time.Since(start).String()))

			return err
		}
	})

	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(middleware.CORS())
	e.Use(middleware.BodyLimit("8M"))

	// Health check
	e.GET("/health", s.handleHealth)

	api := e.Group("/api/v1")
	api.Use(s.authMiddleware)

	api.GET("/tasks", s.handleListTasks)
	api.POST("/tasks", s.handleCreateTask)
	api.POST("/tasks/delete", s.handleDeleteTasks)
	api.GET("/tasks/:id", s.handleGetTask)
	api.PUT("/tasks/:id", s.handleEditTask)
	api.DELETE("/tasks/:id", s.handleDeleteTask)
	api.POST("/tasks/:id/complete", s.handleCompleteTask)
	api.POST("/tasks/:id/restore", s.handleRestoreTask)
	api.POST("/tasks/:id/reschedule", s.handleRescheduleTask)
	api.POST("/tasks/:id/duplicate", s.handleDuplicateTask)
	api.POST("/tasks/:id/attachments", s.handleAddAttachments)
	api.DELETE("/tasks/:id/attachments/:aid", s.handleRemoveAttachment)
	api.GET("/attachments/:aid", s.handleDownloadAttachment)

	api.GET("/trash", s.handleListTrash)
	api.POST("/trash/:index/restore", s.handleRestoreTrash)
	api.DELETE("/trash", s.handleClearTrash)

	api.GET("/history/:kind", s.handleListHistory)
	api.POST("/history/:kind", s.handleRecordHistory)
	api.PUT("/history/:kind/:index", s.handleEditHistory)
	api.POST("/history/:kind/delete", s.handleDeleteHistory)
	api.GET("/history/:kind/trash", s.handleHistoryTrash)
	api.POST("/history/:kind/trash/:index/restore", s.handleRestoreHistory)

	api.GET("/holidays/:year", s.handleHolidays)
	api.GET("/calendar/:year/:month", s.handleCalendar)
	api.GET("/calendar.ics", s.handleICS)

	api.GET("/view", s.handleGetView)
	api.PUT("/view", s.handleUpdateView)

	api.GET("/export", s.handleExport)
	api.POST("/import", s.handleImport)

	s.echo = e
}

// Router returns the HTTP handler
func (s *Server) Router() http.Handler {
	return s.echo
}

// Start starts the server
func (s *Server) Start(addr string) error {
	s.log.Info("API listening", logger.F("addr", addr))
	return s.echo.Start(addr)
}

// Shutdown stops accepting requests and waits for in-flight ones
func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

// refresh runs the purge and sweep pass after a mutation
func (s *Server) refresh(c echo.Context) {
	if _, err := s.app.Refresh(c.Request().Context()); err != nil {
		s.log.Warn("Refresh after request failed", logger.F("error", err))
	}
}
