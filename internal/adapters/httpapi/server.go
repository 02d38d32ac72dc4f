// Package httpapi exposes the workspace, export jobs and the rooms resource
// as a JSON API.
package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"occucalc/internal/adapters/exports"
	"occucalc/internal/core"
	"occucalc/internal/platform/logger"
	"occucalc/internal/rooms"
	"occucalc/pkg/domain"
)

// Prefix is the API root.
const Prefix = "/api/v1"

// Options configures a Server. Exports and Rooms are optional; their routes
// answer 503 when unset.
type Options struct {
	Workspace *core.Workspace
	Exports   exports.Scheduler
	Rooms     *rooms.Service
	Logger    *logger.Logger
	Gatherer  prometheus.Gatherer
}

// Server routes HTTP requests to the workspace.
type Server struct {
	echo    *echo.Echo
	ws      *core.Workspace
	exports exports.Scheduler
	rooms   *rooms.Service
	log     *logger.Logger
}

// New builds the router.
func New(opts Options) *Server {
	log := opts.Logger
	if log == nil {
		log = logger.NewNop()
	}
	s := &Server{
		echo:    echo.New(),
		ws:      opts.Workspace,
		exports: opts.Exports,
		rooms:   opts.Rooms,
		log:     log.With("component", "httpapi"),
	}
	s.echo.HideBanner = true
	s.echo.HidePort = true
	s.echo.HTTPErrorHandler = s.handleError
	s.echo.Use(middleware.Recover())
	s.echo.Use(s.requestLogger())
	s.echo.Use(middleware.BodyLimit("32M"))

	gatherer := opts.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	s.echo.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))
	s.routes(s.echo.Group(Prefix))
	return s
}

func (s *Server) routes(g *echo.Group) {
	g.GET("/workspace", s.getWorkspace)
	g.PUT("/workspace/mode", s.putMode)
	g.PUT("/workspace/code", s.putCode)
	g.PUT("/workspace/filter", s.putFilter)

	g.GET("/codes", s.listCodes)
	g.GET("/factors", s.listFactors)
	g.POST("/factors", s.addFactor)
	g.POST("/factors/reset", s.resetFactors)
	g.PUT("/factors/:type", s.setFactor)
	g.DELETE("/factors/:type", s.deleteFactor)

	g.GET("/rows", s.listRows)
	g.POST("/rows", s.addRows)
	g.POST("/rows/per-type", s.addRowsPerType)
	g.POST("/rows/clear", s.clearRows)
	g.POST("/rows/selection", s.selectRows)
	g.POST("/rows/bulk", s.bulkRows)
	g.PATCH("/rows/:id", s.patchRow)
	g.DELETE("/rows/:id", s.deleteRow)
	g.GET("/totals", s.totals)

	g.POST("/import", s.importSheet)
	g.POST("/exports", s.createExport)
	g.GET("/exports/:id", s.getExport)
	g.GET("/exports/:id/artifact", s.getArtifact)

	g.GET("/rooms", s.listRooms)
	g.POST("/rooms", s.createRoom)
}

// Handler returns the root handler.
func (s *Server) Handler() http.Handler { return s.echo }

// Start listens on addr until Shutdown.
func (s *Server) Start(addr string) error {
	s.log.Info("http api listening", "addr", addr)
	err := s.echo.Start(addr)
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Shutdown stops accepting requests and drains in-flight ones.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

func (s *Server) requestLogger() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			if err != nil {
				c.Error(err)
			}
			req := c.Request()
			s.log.Info("http request",
				"method", req.Method,
				"path", req.URL.Path,
				"status", c.Response().Status,
				"latency_ms", time.Since(start).Milliseconds(),
			)
			return nil
		}
	}
}

type errorResponse struct {
	Error string `json:"error"`
}

func statusFor(err error) int {
	var he *echo.HTTPError
	switch {
	case errors.As(err, &he):
		return he.Code
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrImport), errors.Is(err, domain.ErrUnsupportedFormat), errors.Is(err, rooms.ErrInvalid):
		return http.StatusBadRequest
	case errors.Is(err, exports.ErrQueueFull):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) handleError(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}
	code := statusFor(err)
	msg := err.Error()
	var he *echo.HTTPError
	if errors.As(err, &he) {
		if m, ok := he.Message.(string); ok {
			msg = m
		} else {
			msg = http.StatusText(he.Code)
		}
	}
	if code >= http.StatusInternalServerError {
		s.log.Error("http request failed", "path", c.Request().URL.Path, "error", err)
	}
	if err := c.JSON(code, errorResponse{Error: msg}); err != nil {
		s.log.Warn("write error response", "error", err)
	}
}
