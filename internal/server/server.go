// Package server provides the HTTP server implementation.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/vyrodovalexey/benefits-example/internal/config"
	"github.com/vyrodovalexey/benefits-example/internal/handler"
	"github.com/vyrodovalexey/benefits-example/internal/middleware"
)

// Server represents the HTTP server.
type Server struct {
	httpServer  *http.Server
	router      *mux.Router
	config      *config.Config
	logger      *zap.Logger
	restHandler *handler.RESTHandler
	wsHandler   *handler.WebSocketHandler
}

// New creates a new Server serving the employee API backed by svc and the
// change feed backed by events.
func New(
	cfg *config.Config,
	logger *zap.Logger,
	svc handler.EmployeeService,
	events handler.EventSubscriber,
) *Server {
	router := mux.NewRouter()

	s := &Server{
		router: router,
		config: cfg,
		logger: logger,
	}

	s.setupMiddleware()
	s.setupRoutes(svc, events)
	s.setupHTTPServer()

	return s
}

// setupMiddleware configures the middleware chain.
func (s *Server) setupMiddleware() {
	allowedMethods := []string{
		http.MethodGet,
		http.MethodPost,
		http.MethodPut,
		http.MethodDelete,
		http.MethodOptions,
	}
	allowedHeaders := []string{
		"Content-Type",
		middleware.RequestIDHeader,
	}

	chain := []middleware.Middleware{
		middleware.RequestID(),
		middleware.Recovery(s.logger),
	}
	if s.config.MetricsEnabled {
		chain = append(chain, middleware.Metrics())
	}
	chain = append(chain,
		middleware.Logging(s.logger),
		middleware.CORS(s.config.CORSAllowedOrigins, allowedMethods, allowedHeaders),
		middleware.RateLimit(s.config.RateLimit, s.config.RateLimitWindow),
	)

	// The request ID is assigned first so every later log entry carries it.
	s.router.Use(mux.MiddlewareFunc(middleware.Chain(chain...)))
}

// setupRoutes configures the API routes.
func (s *Server) setupRoutes(svc handler.EmployeeService, events handler.EventSubscriber) {
	s.restHandler = handler.NewRESTHandler(svc, s.logger)
	s.restHandler.RegisterRoutes(s.router)

	s.wsHandler = handler.NewWebSocketHandler(events, s.logger)
	s.wsHandler.RegisterRoutes(s.router)

	if s.config.MetricsEnabled {
		s.router.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)
	}
}

// setupHTTPServer configures the HTTP server.
func (s *Server) setupHTTPServer() {
	s.httpServer = &http.Server{
		Addr:              s.config.Address(),
		Handler:           s.router,
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		// Employee operations may be slowed by the simulated latency.
		WriteTimeout:   15*time.Second + 2*s.config.SimulatedLatency,
		IdleTimeout:    60 * time.Second,
		MaxHeaderBytes: 1 << 20, // 1 MB
	}
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	s.logger.Info("starting server",
		zap.String("address", s.config.Address()),
		zap.Bool("metrics_enabled", s.config.MetricsEnabled),
		zap.Duration("simulated_latency", s.config.SimulatedLatency),
		zap.Int("rate_limit", s.config.RateLimit),
	)

	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server listen and serve: %w", err)
	}

	return nil
}

// Shutdown gracefully shuts down the server. Readiness is withdrawn first so
// load balancers stop routing new traffic.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down server")

	s.restHandler.SetReady(false)
	s.wsHandler.CloseAllConnections()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	s.logger.Info("server shutdown complete")
	return nil
}

// Router returns the server's router for testing purposes.
func (s *Server) Router() *mux.Router {
	return s.router
}
