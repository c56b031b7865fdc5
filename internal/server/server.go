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

	"github.com/yigityildirimoglu/jenkins-demo/internal/config"
	"github.com/yigityildirimoglu/jenkins-demo/internal/handler"
	"github.com/yigityildirimoglu/jenkins-demo/internal/middleware"
	"github.com/yigityildirimoglu/jenkins-demo/internal/store"
)

// Server represents the HTTP server.
type Server struct {
	httpServer  *http.Server
	probeServer *http.Server
	router      *mux.Router
	probeRouter *mux.Router
	config      *config.Config
	logger      *zap.Logger
	wsHandler   *handler.WebSocketHandler
}

// New creates a new Server instance.
func New(cfg *config.Config, logger *zap.Logger, itemStore store.Store) *Server {
	s := &Server{
		router:      mux.NewRouter(),
		probeRouter: mux.NewRouter(),
		config:      cfg,
		logger:      logger,
	}

	s.setupMiddleware()
	s.setupRoutes(itemStore)
	s.setupProbeRoutes(itemStore)
	s.setupHTTPServer()

	return s
}

// setupMiddleware builds the middleware stack of the main router. The
// same stack wraps the not found and method not allowed handlers, which
// mux serves without running router middleware.
func (s *Server) setupMiddleware() {
	var metrics middleware.Middleware
	if s.config.MetricsEnabled {
		metrics = middleware.Metrics()
	}

	stack := middleware.Chain(
		middleware.Recovery(s.logger),
		middleware.RequestID(),
		metrics,
		middleware.Logging(s.logger),
		middleware.CORS(middleware.CORSOptions{
			AllowedOrigins: s.config.CORSAllowedOrigins,
			AllowedMethods: []string{
				http.MethodGet,
				http.MethodPost,
				http.MethodPut,
				http.MethodDelete,
				http.MethodOptions,
			},
			AllowedHeaders: []string{"Content-Type", middleware.RequestIDHeader},
			MaxAge:         24 * time.Hour,
		}),
	)

	s.router.Use(mux.MiddlewareFunc(stack))
	s.router.NotFoundHandler = stack(http.HandlerFunc(handler.NotFound))
	s.router.MethodNotAllowedHandler = stack(http.HandlerFunc(handler.MethodNotAllowed))
}

// setupRoutes configures the API routes.
func (s *Server) setupRoutes(itemStore store.Store) {
	// A nil *WebSocketHandler must not reach the handler as a non-nil interface.
	var events handler.EventPublisher
	if s.config.EventsEnabled {
		s.wsHandler = handler.NewWebSocketHandler(s.logger.Named("handler.ws"))
		s.wsHandler.RegisterRoutes(s.router)
		events = s.wsHandler
	}

	restHandler := handler.NewRESTHandler(itemStore, events, s.logger.Named("handler.rest"))
	restHandler.RegisterRoutes(s.router)

	if s.config.MetricsEnabled {
		s.router.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)
	}

	// Preflight requests need a matching route for the CORS middleware to run.
	// A method matcher here would turn every unknown path into a 405.
	s.router.MatcherFunc(isPreflight).HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
}

func isPreflight(r *http.Request, _ *mux.RouteMatch) bool {
	return r.Method == http.MethodOptions
}

// setupProbeRoutes configures the probe router. It carries no CORS or
// request ID handling.
func (s *Server) setupProbeRoutes(itemStore store.Store) {
	stack := middleware.Chain(
		middleware.Recovery(s.logger),
		middleware.Logging(s.logger),
	)
	s.probeRouter.Use(mux.MiddlewareFunc(stack))
	s.probeRouter.NotFoundHandler = stack(http.HandlerFunc(handler.NotFound))
	s.probeRouter.MethodNotAllowedHandler = stack(http.HandlerFunc(handler.MethodNotAllowed))

	probeHandler := handler.NewRESTHandler(itemStore, nil, s.logger.Named("handler.probe"))
	probeHandler.RegisterProbeRoutes(s.probeRouter)

	if s.config.MetricsEnabled {
		s.probeRouter.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)
	}
}

// setupHTTPServer configures the main and probe HTTP servers.
func (s *Server) setupHTTPServer() {
	s.httpServer = &http.Server{
		Addr:              s.config.Address(),
		Handler:           s.router,
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    1 << 20, // 1 MB
	}

	if s.config.ProbePort == 0 {
		return
	}

	s.probeServer = &http.Server{
		Addr:              s.config.ProbeAddress(),
		Handler:           s.probeRouter,
		ReadTimeout:       5 * time.Second,
		ReadHeaderTimeout: 2 * time.Second,
		WriteTimeout:      5 * time.Second,
		IdleTimeout:       30 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}
}

// Start starts the HTTP servers and blocks until one of them stops.
func (s *Server) Start() error {
	s.logger.Info("starting server",
		zap.String("address", s.config.Address()),
		zap.Bool("metrics_enabled", s.config.MetricsEnabled),
		zap.Bool("events_enabled", s.config.EventsEnabled),
	)

	errs := make(chan error, 2)

	if s.probeServer != nil {
		s.logger.Info("starting probe server", zap.String("address", s.config.ProbeAddress()))
		go func() {
			errs <- listen(s.probeServer, "probe server")
		}()
	}

	go func() {
		errs <- listen(s.httpServer, "server")
	}()

	return <-errs
}

// listen runs ListenAndServe and treats a graceful close as success.
func listen(srv *http.Server, name string) error {
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("%s listen and serve: %w", name, err)
	}
	return nil
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down server")

	// WebSocket connections are hijacked and not tracked by http.Server.
	if s.wsHandler != nil {
		s.wsHandler.CloseAllConnections()
	}

	var errs []error
	if err := s.httpServer.Shutdown(ctx); err != nil {
		errs = append(errs, fmt.Errorf("server shutdown: %w", err))
	}

	if s.probeServer != nil {
		if err := s.probeServer.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("probe server shutdown: %w", err))
		}
	}

	if err := errors.Join(errs...); err != nil {
		return err
	}

	s.logger.Info("server shutdown complete")
	return nil
}

// Router returns the server's router for testing purposes.
func (s *Server) Router() *mux.Router {
	return s.router
}

// ProbeRouter returns the probe router for testing purposes.
func (s *Server) ProbeRouter() *mux.Router {
	return s.probeRouter
}
