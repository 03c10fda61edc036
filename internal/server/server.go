package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/net/netutil"

	"github.com/nnoitra/terminal/internal/command"
	"github.com/nnoitra/terminal/internal/config"
	handlers "github.com/nnoitra/terminal/internal/http"
	"github.com/nnoitra/terminal/internal/infrastructure/monitoring"
	"github.com/nnoitra/terminal/internal/infrastructure/tracing"
	"github.com/nnoitra/terminal/internal/middleware"
	"github.com/nnoitra/terminal/internal/session"
	"github.com/nnoitra/terminal/internal/ws"
)

// Deps are the components the server exposes.
type Deps struct {
	Sessions *session.Manager
	Registry *command.Registry
	// Metrics is optional.
	Metrics *monitoring.Metrics
	Log     *zap.Logger
	Version string
}

// Server wraps the HTTP server and dependencies
type Server struct {
	cfg      *config.Config
	router   *gin.Engine
	sessions *session.Manager
	log      *zap.Logger
	tracer   *tracing.Tracer
	http     *http.Server
}

// New creates a server and registers its routes.
func New(cfg *config.Config, deps Deps) *Server {
	log := deps.Log
	if log == nil {
		log = zap.NewNop()
	}

	if !cfg.Logging.Development {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()

	tracer := tracing.New("terminal", log)

	router.Use(gin.Recovery())
	router.Use(tracing.HTTPMiddleware(tracer))
	if deps.Metrics != nil {
		router.Use(monitoring.Middleware(deps.Metrics))
	}
	cors := middleware.DefaultCORSConfig()
	cors.AllowOrigins = cfg.Server.AllowedOrigins
	router.Use(middleware.CORS(cors))
	if cfg.RateLimit.Enabled {
		log.Info("Rate limiting enabled",
			zap.Int("rps", cfg.RateLimit.RequestsPerSecond),
			zap.Int("burst", cfg.RateLimit.Burst),
		)
		router.Use(middleware.RateLimit(middleware.RateLimitConfig{
			RequestsPerSecond: cfg.RateLimit.RequestsPerSecond,
			Burst:             cfg.RateLimit.Burst,
		}))
	}

	h := handlers.NewHandlers(deps.Sessions, deps.Registry, deps.Metrics, deps.Version)
	wsHandler := ws.NewHandler(deps.Sessions, cfg.WebSocket, cfg.Server.AllowedOrigins, deps.Metrics, log)
	wsHandler.SetTracer(tracer)

	router.GET("/", h.Root)
	router.GET("/health", h.Health)

	router.GET("/sessions", h.ListSessions)
	router.GET("/sessions/:id", h.GetSession)
	router.DELETE("/sessions/:id", h.CloseSession)

	router.GET("/commands", h.ListCommands)

	if deps.Metrics != nil {
		router.GET("/metrics", gin.WrapH(deps.Metrics.Handler()))
	}

	router.GET("/terminal", wsHandler.HandleConnection)

	return &Server{
		cfg:      cfg,
		router:   router,
		sessions: deps.Sessions,
		log:      log,
		tracer:   tracer,
		http: &http.Server{
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
		},
	}
}

// Handler returns the router.
func (s *Server) Handler() http.Handler { return s.router }

// Serve accepts connections on ln, at most MaxConnections at a time.
func (s *Server) Serve(ln net.Listener) error {
	if limit := s.cfg.Server.MaxConnections; limit > 0 {
		ln = netutil.LimitListener(ln, limit)
	}
	s.log.Info("Starting HTTP server", zap.String("addr", ln.Addr().String()))
	err := s.http.Serve(ln)
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Run listens on the configured address and serves until ctx ends, then
// shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	addr := net.JoinHostPort(s.cfg.Server.Host, s.cfg.Server.Port)
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", addr, err)
	}

	served := make(chan error, 1)
	go func() { served <- s.Serve(ln) }()

	select {
	case err := <-served:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return multierr.Append(s.Shutdown(shutdownCtx), <-served)
}

// Shutdown stops accepting connections and closes every session.
// Hijacked WebSocket connections end when their session closes.
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info("Shutting down server...")
	err := multierr.Combine(
		s.http.Shutdown(ctx),
		s.sessions.Shutdown(ctx),
	)
	s.tracer.Close()
	return err
}
