package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	api "github.com/astraterm/astraterm/internal/api/http"
	"github.com/astraterm/astraterm/internal/api/middleware"
	"github.com/astraterm/astraterm/internal/api/ws"
	"github.com/astraterm/astraterm/internal/infrastructure/config"
	"github.com/astraterm/astraterm/internal/infrastructure/logging"
	"github.com/astraterm/astraterm/internal/infrastructure/monitoring"
	"github.com/astraterm/astraterm/internal/storage/archive"
)

// ShutdownTimeout bounds graceful shutdown
const ShutdownTimeout = 15 * time.Second

// Server wraps the HTTP server and dependencies
type Server struct {
	router     *gin.Engine
	components *Components
	logger     *logging.Logger
	config     *config.Config
}

// NewServer creates a new server instance
func NewServer(cfg *config.Config) (*Server, error) {
	var logger *logging.Logger
	if cfg.Logging.Development {
		logger = logging.NewDevelopment()
	} else {
		l, err := logging.New(logging.Config{
			Level:       cfg.Logging.Level,
			OutputPaths: []string{"stdout"},
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create logger: %w", err)
		}
		logger = l
	}
	return New(cfg, logger)
}

// New creates a server around an existing logger
func New(cfg *config.Config, logger *logging.Logger) (*Server, error) {
	logger.Info("Initializing AstraTerm server",
		zap.String("addr", cfg.Server.Addr()),
		zap.Duration("command_timeout", cfg.Shell.Timeout),
		zap.Bool("archive", cfg.Archive.Enabled()),
	)

	components, err := Build(cfg, logger)
	if err != nil {
		return nil, err
	}

	if !cfg.Logging.Development {
		gin.SetMode(gin.ReleaseMode)
	}

	return &Server{
		router:     newRouter(cfg, components),
		components: components,
		logger:     logger,
		config:     cfg,
	}, nil
}

func newRouter(cfg *config.Config, c *Components) *gin.Engine {
	logger := c.Logger
	router := gin.New()

	router.Use(middleware.Recovery(logger.Named("http")))
	router.Use(middleware.RequestID())
	router.Use(middleware.AccessLog(logger.Named("access")))
	router.Use(monitoring.Middleware(c.Metrics))
	router.Use(middleware.CORS(middleware.DefaultCORSConfig()))
	if cfg.RateLimit.Enabled {
		logger.Info("Rate limiting enabled",
			zap.Int("rps", cfg.RateLimit.RequestsPerSecond),
			zap.Int("burst", cfg.RateLimit.Burst),
		)
		rl := middleware.DefaultRateLimitConfig()
		rl.RequestsPerSecond = cfg.RateLimit.RequestsPerSecond
		rl.Burst = cfg.RateLimit.Burst
		router.Use(middleware.RateLimit(rl))
	}

	deps := api.Deps{
		Controller: c.Controller,
		Assistant:  c.Assistant,
		GitHub:     c.GitHub,
		Tools:      c.Tools,
		Keys:       c.Keys,
		Metrics:    c.Metrics,
		Logger:     logger.Logger,
	}
	// a nil *archive.Archive must stay a nil interface
	if c.Archive != nil {
		deps.Archive = c.Archive
	}
	api.NewHandlers(deps).Register(router)

	wsHandler := ws.NewHandler(c.Controller, ws.Options{
		Metrics: c.Metrics,
		Logger:  logger.Logger,
	})
	router.GET("/ws", wsHandler.HandleConnection)
	router.GET("/ws/:session_id", wsHandler.HandleConnection)

	return router
}

// Router exposes the configured engine
func (s *Server) Router() *gin.Engine {
	return s.router
}

// Components exposes the wired object graph
func (s *Server) Components() *Components {
	return s.components
}

// Run serves until ctx is cancelled, then shuts down gracefully
func (s *Server) Run(ctx context.Context) error {
	addr := s.config.Server.Addr()
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	janitorCtx, stopJanitor := context.WithCancel(context.Background())
	defer stopJanitor()
	go s.components.Store.Run(janitorCtx)

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	s.logger.Info("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown: %w", err)
	}
	return nil
}

// Close releases resources and flushes logs
func (s *Server) Close() error {
	defer s.logger.Sync()

	if err := s.components.Close(); err != nil {
		s.logger.Error("Failed to close components", zap.Error(err))
		return err
	}
	return nil
}

var _ api.HistoryArchive = (*archive.Archive)(nil)
