// Package http provides the HTTP API for ragd.
package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/doxsylabs/ragd/internal/llm"
	"github.com/doxsylabs/ragd/internal/retriever"
)

// Fixed answer texts for the non-generated outcomes.
const (
	blockedAnswer = "Sorry, I can only answer questions based on the provided dataset."
	noMatchAnswer = "Sorry, I couldn't find the answer in the dataset."
)

// ContextRetriever retrieves context chunks for a query.
type ContextRetriever interface {
	Retrieve(ctx context.Context, query string) (retriever.Result, error)
}

// Completer generates answers and code reviews.
type Completer interface {
	Answer(ctx context.Context, systemMessage string, contextChunks []string, question string) (string, error)
	Review(ctx context.Context, language, code string) (llm.Review, error)
}

// Config holds HTTP server configuration.
type Config struct {
	// Port is the HTTP listen port.
	// Default: 3000
	Port int

	// ShutdownTimeout bounds graceful shutdown.
	// Default: 10s
	ShutdownTimeout time.Duration
}

// ApplyDefaults sets default values for unset fields.
func (c *Config) ApplyDefaults() {
	if c.Port == 0 {
		c.Port = 3000
	}
	if c.ShutdownTimeout == 0 {
		c.ShutdownTimeout = 10 * time.Second
	}
}

// Server serves the ask, review, health, and metrics endpoints.
type Server struct {
	echo      *echo.Echo
	retriever ContextRetriever
	completer Completer
	metrics   *Metrics
	logger    *zap.Logger
	cfg       Config
}

// NewServer creates the HTTP server and registers all routes.
func NewServer(ret ContextRetriever, completer Completer, cfg Config, logger *zap.Logger) (*Server, error) {
	if ret == nil {
		return nil, fmt.Errorf("retriever is required")
	}
	if completer == nil {
		return nil, fmt.Errorf("completer is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	cfg.ApplyDefaults()

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(requestLogger(logger))

	registry := prometheus.NewRegistry()

	s := &Server{
		echo:      e,
		retriever: ret,
		completer: completer,
		metrics:   NewMetrics(registry),
		logger:    logger,
		cfg:       cfg,
	}

	e.POST("/api/ask", s.handleAsk)
	e.POST("/api/review", s.handleReview)
	e.GET("/health", s.handleHealth)
	e.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(registry, promhttp.HandlerOpts{})))

	return s, nil
}

// requestLogger logs one line per completed request.
func requestLogger(logger *zap.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			logger.Info("http request",
				zap.String("method", c.Request().Method),
				zap.String("uri", c.Request().RequestURI),
				zap.Int("status", c.Response().Status),
				zap.Duration("duration", time.Since(start)),
				zap.String("request_id", c.Response().Header().Get(echo.HeaderXRequestID)),
			)
			return err
		}
	}
}

// handleAsk answers a question from the ingested dataset.
//
// Blocked and not-found queries are 200 responses with fixed answer texts;
// only malformed requests and backend failures produce error statuses.
func (s *Server) handleAsk(c echo.Context) error {
	start := time.Now()

	var req AskRequest
	if err := c.Bind(&req); err != nil {
		s.metrics.observeAsk(outcomeInvalid, time.Since(start).Seconds())
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.Query == "" {
		s.metrics.observeAsk(outcomeInvalid, time.Since(start).Seconds())
		return echo.NewHTTPError(http.StatusBadRequest, "query is required")
	}

	ctx := c.Request().Context()

	result, err := s.retriever.Retrieve(ctx, req.Query)
	if err != nil {
		if errors.Is(err, retriever.ErrEmptyQuery) {
			s.metrics.observeAsk(outcomeInvalid, time.Since(start).Seconds())
			return echo.NewHTTPError(http.StatusBadRequest, "query is required")
		}
		s.logger.Error("retrieval failed", zap.Error(err))
		s.metrics.observeAsk(outcomeError, time.Since(start).Seconds())
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to retrieve context")
	}

	if result.Blocked {
		s.metrics.observeAsk(outcomeBlocked, time.Since(start).Seconds())
		return c.JSON(http.StatusOK, AskResponse{
			Answer:  blockedAnswer,
			Chunks:  []string{},
			Blocked: true,
		})
	}

	if result.NoMatch {
		s.metrics.observeAsk(outcomeNoMatch, time.Since(start).Seconds())
		return c.JSON(http.StatusOK, AskResponse{
			Answer: noMatchAnswer,
			Chunks: []string{},
		})
	}

	answer, err := s.completer.Answer(ctx, req.SystemMessage, result.Chunks, req.Query)
	if err != nil {
		s.logger.Error("completion failed", zap.Error(err))
		s.metrics.observeAsk(outcomeError, time.Since(start).Seconds())
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to generate answer")
	}

	s.metrics.observeAsk(outcomeAnswered, time.Since(start).Seconds())
	return c.JSON(http.StatusOK, AskResponse{
		Answer: answer,
		Chunks: result.Chunks,
	})
}

// handleReview reviews a code snippet.
func (s *Server) handleReview(c echo.Context) error {
	var req ReviewRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.Code == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "code is required")
	}
	if req.Language == "" {
		req.Language = "plaintext"
	}

	review, err := s.completer.Review(c.Request().Context(), req.Language, req.Code)
	if err != nil {
		s.logger.Error("review failed", zap.Error(err))
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to review code")
	}

	return c.JSON(http.StatusOK, review)
}

// handleHealth reports liveness.
func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, HealthResponse{Status: "ok"})
}

// Handler exposes the underlying handler for tests.
func (s *Server) Handler() http.Handler {
	return s.echo
}

// Start starts the server and blocks until ctx is cancelled or the listener
// fails. Cancellation triggers graceful shutdown bounded by ShutdownTimeout.
func (s *Server) Start(ctx context.Context) error {
	addr := fmt.Sprintf(":%d", s.cfg.Port)
	errCh := make(chan error, 1)

	go func() {
		s.logger.Info("http server starting", zap.String("addr", addr))
		if err := s.echo.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("server start: %w", err)
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
		defer cancel()

		s.logger.Info("http server shutting down")
		if err := s.echo.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown: %w", err)
		}
		return nil
	}
}
