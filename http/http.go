// Package http serves the browser interface and its JSON API using echo.
package http

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/fwojciec/omnirag"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/sirupsen/logrus"
)

// DefaultBodyLimit caps request bodies, uploads included.
const DefaultBodyLimit = "64M"

// Server exposes a Chat over HTTP.
type Server struct {
	chat      *omnirag.Chat
	echo      *echo.Echo
	log       logrus.FieldLogger
	metrics   http.Handler
	bodyLimit string
	now       func() time.Time
}

// Option configures a [Server].
type Option func(*Server)

// WithLogger sets the logger for requests and errors.
func WithLogger(l logrus.FieldLogger) Option {
	return func(s *Server) { s.log = l }
}

// WithMetricsHandler serves h at /metrics.
func WithMetricsHandler(h http.Handler) Option {
	return func(s *Server) { s.metrics = h }
}

// WithBodyLimit sets the maximum request body size, e.g. "64M".
func WithBodyLimit(limit string) Option {
	return func(s *Server) { s.bodyLimit = limit }
}

// New creates a Server for chat. The chat should already be open.
func New(chat *omnirag.Chat, opts ...Option) *Server {
	discard := logrus.New()
	discard.Out = io.Discard
	s := &Server{
		chat:      chat,
		log:       discard,
		bodyLimit: DefaultBodyLimit,
		now:       time.Now,
	}
	for _, o := range opts {
		o(s)
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = s.handleError
	e.Use(middleware.Recover())
	e.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{Generator: uuid.NewString}))
	e.Use(s.logRequests)
	e.Use(middleware.BodyLimit(s.bodyLimit))

	e.GET("/", s.index)
	e.GET("/healthz", func(c echo.Context) error { return c.String(http.StatusOK, "ok") })
	if s.metrics != nil {
		e.GET("/metrics", echo.WrapHandler(s.metrics))
	}

	api := e.Group("/api")
	api.GET("/state", s.state)
	api.GET("/documents", s.listDocuments)
	api.POST("/documents", s.uploadDocuments)
	api.DELETE("/documents/:id", s.removeDocument)
	api.GET("/messages", s.listMessages)
	api.POST("/messages", s.sendMessage)
	api.POST("/stop", s.stop)
	api.GET("/transcript", s.transcript)

	s.echo = e
	return s
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler { return s.echo }

// Start listens on addr and blocks until the server stops. It returns nil
// after Shutdown.
func (s *Server) Start(addr string) error {
	s.log.WithField("addr", addr).Info("http server listening")
	if err := s.echo.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops the server gracefully, cancelling any turn in flight.
func (s *Server) Shutdown(ctx context.Context) error {
	s.chat.Stop()
	return s.echo.Shutdown(ctx)
}

// handleError maps domain errors to status codes and writes a JSON body
// unless the response has already started.
func (s *Server) handleError(err error, c echo.Context) {
	code := statusCode(err)
	msg := err.Error()
	var he *echo.HTTPError
	if errors.As(err, &he) && he.Message != nil {
		if m, ok := he.Message.(string); ok {
			msg = m
		}
	}

	req := c.Request()
	entry := s.log.WithFields(logrus.Fields{
		"status":     code,
		"method":     req.Method,
		"path":       req.URL.Path,
		"request_id": c.Response().Header().Get(echo.HeaderXRequestID),
	}).WithError(err)
	if code >= http.StatusInternalServerError {
		entry.Error("request failed")
	} else {
		entry.Debug("request rejected")
	}

	if c.Response().Committed {
		return
	}
	if req.Method == http.MethodHead {
		_ = c.NoContent(code)
		return
	}
	_ = c.JSON(code, errorResponse{Error: msg})
}

func statusCode(err error) int {
	var he *echo.HTTPError
	switch {
	case errors.As(err, &he):
		return he.Code
	case errors.Is(err, omnirag.ErrBusy):
		return http.StatusConflict
	case errors.Is(err, omnirag.ErrEmptyMessage), errors.Is(err, omnirag.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, omnirag.ErrNoSession):
		return http.StatusServiceUnavailable
	case errors.Is(err, omnirag.ErrMessageNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) logRequests(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		start := s.now()
		err := next(c)
		req := c.Request()
		status := c.Response().Status
		if err != nil {
			status = statusCode(err)
		}
		s.log.WithFields(logrus.Fields{
			"method":     req.Method,
			"path":       req.URL.Path,
			"status":     status,
			"latency":    s.now().Sub(start).String(),
			"request_id": c.Response().Header().Get(echo.HeaderXRequestID),
		}).Info("request")
		return err
	}
}
