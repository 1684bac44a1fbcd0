// Package api is the HTTP front-end of the mandate generator.
package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/a3tai/mandat-pdf/internal/api/middleware"
)

const (
	defaultRequestTimeout = 30 * time.Second
	maxBodyBytes          = 1 << 20 // 1 MiB
	shutdownTimeout       = 30 * time.Second
)

// Options configures a Server
type Options struct {
	Logger *zap.Logger
	// Observer receives request metrics; nil disables them
	Observer middleware.HTTPObserver
	// MetricsHandler serves /metrics; defaults to promhttp.Handler()
	MetricsHandler http.Handler
	// RequestTimeout bounds every request context
	RequestTimeout time.Duration
}

type Server struct {
	Router  *gin.Engine
	Mandate *MandateHandler
	server  *http.Server
	log     *zap.Logger
	metrics http.Handler
}

func NewServer(generator Generator, opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.MetricsHandler == nil {
		opts.MetricsHandler = promhttp.Handler()
	}
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = defaultRequestTimeout
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestID())
	router.Use(middleware.Logger(opts.Logger))
	if opts.Observer != nil {
		router.Use(middleware.Prometheus(opts.Observer))
	}

	timeout := opts.RequestTimeout
	router.Use(func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), timeout)
		defer cancel()
		c.Request = c.Request.WithContext(ctx)
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBodyBytes)
		c.Next()
	})

	return &Server{
		Router:  router,
		Mandate: NewMandateHandler(generator, opts.Logger),
		log:     opts.Logger,
		metrics: opts.MetricsHandler,
	}
}

func (s *Server) SetupRoutes() {
	s.Router.GET("/health", Health)
	s.Router.GET("/metrics", gin.WrapH(s.metrics))

	v1 := s.Router.Group("/api/v1")
	{
		v1.POST("/mandat", s.Mandate.Generate)
	}
}

// Start serves on addr until ctx is canceled, then shuts down gracefully
func (s *Server) Start(ctx context.Context, addr string) error {
	s.server = &http.Server{
		Addr:           addr,
		Handler:        s.Router,
		ReadTimeout:    10 * time.Second,
		WriteTimeout:   30 * time.Second,
		MaxHeaderBytes: 1 << 20, // 1 MB
	}

	errChan := make(chan error, 1)
	go func() {
		s.log.Info("Starting server", zap.String("addr", addr))
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
		close(errChan)
	}()

	select {
	case err := <-errChan:
		return err
	case <-ctx.Done():
		return s.Stop()
	}
}

func (s *Server) Stop() error {
	if s.server == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	s.log.Info("Shutting down server...")
	if err := s.server.Shutdown(ctx); err != nil {
		s.log.Error("Server forced to shutdown", zap.Error(err))
		return err
	}
	return nil
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.Router.ServeHTTP(w, r)
}
