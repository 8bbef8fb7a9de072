package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	nethttp "net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/browser-gateway/internal/api/http"
	"github.com/GriffinCanCode/browser-gateway/internal/api/middleware"
	"github.com/GriffinCanCode/browser-gateway/internal/domain/audit"
	"github.com/GriffinCanCode/browser-gateway/internal/domain/credential"
	"github.com/GriffinCanCode/browser-gateway/internal/domain/gateway"
	"github.com/GriffinCanCode/browser-gateway/internal/domain/policy"
	"github.com/GriffinCanCode/browser-gateway/internal/domain/session"
	"github.com/GriffinCanCode/browser-gateway/internal/infrastructure/config"
	"github.com/GriffinCanCode/browser-gateway/internal/infrastructure/logging"
	"github.com/GriffinCanCode/browser-gateway/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/browser-gateway/internal/providers/browser"
	"github.com/GriffinCanCode/browser-gateway/internal/shared/id"
	"github.com/GriffinCanCode/browser-gateway/internal/shared/paths"
)

// Server wraps the HTTP server and dependencies
type Server struct {
	router  *gin.Engine
	gateway *gateway.Gateway
	logger  *logging.Logger
	config  *config.Config
	metrics *monitoring.Metrics

	// baseCtx is the parent of every request context. Cancelling it ends
	// long waits such as the 2FA poll when the process shuts down.
	baseCtx context.Context
	cancel  context.CancelFunc

	mu   sync.Mutex
	http *nethttp.Server
}

// NewServer wires the gateway and its router. A nil engine launches Chromium
// through Playwright.
func NewServer(cfg *config.Config, logger *logging.Logger, engine session.Engine) (*Server, error) {
	if logger == nil {
		logger = logging.FromSettings(cfg.Logging.Level, cfg.Logging.Development)
	}

	metrics := monitoring.NewMetrics()

	envStore := credential.NewEnvFileStore(cfg.Browser.EnvFile)
	if loaded, err := envStore.Load(); err != nil {
		logger.Warn("Failed to load env file", zap.String("path", envStore.Path()), zap.Error(err))
	} else if loaded {
		logger.Info("Loaded env file", zap.String("path", envStore.Path()))
	}

	policyFile, err := policy.LoadFile(cfg.Policy.File)
	if err != nil {
		return nil, err
	}

	policyEngine, err := policy.NewEngine(policy.Options{
		Mode:         policy.Mode(cfg.Policy.Mode),
		ExtraDomains: cfg.Policy.AllowedDomains,
		Limits: policy.Limits{
			Navigations: cfg.Policy.MaxNavigations,
			Clicks:      cfg.Policy.MaxClicks,
			Types:       cfg.Policy.MaxTypes,
		},
		PolicyFile: policyFile,
		Logger:     logger.Component("policy"),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to build policy engine: %w", err)
	}
	policyEngine.WithMetrics(metrics)

	if engine == nil {
		engine = browser.NewEngine(logger.Component("browser"))
	}

	sessionCfg := session.DefaultConfig()
	sessionCfg.Headless = cfg.Browser.Headless

	sessionID := id.NewSessionID()
	sessionManager := session.NewManager(sessionID, engine, sessionCfg, logger.Component("session")).WithMetrics(metrics)

	auditLog := audit.NewLog(cfg.Browser.ArtifactsDir, sessionID).WithMetrics(metrics)

	handshake := credential.NewHandshake(
		credential.NewResolver(credential.NewAliasTable(policyFile.CredentialAliases, nil), nil),
		envStore,
		logger.Component("credential"),
	).WithMetrics(metrics)

	gw, err := gateway.New(gateway.Deps{
		Policy:    policyEngine,
		Session:   sessionManager,
		Audit:     auditLog,
		Handshake: handshake,
		Artifacts: paths.NewArtifacts(cfg.Browser.ArtifactsDir),
		Logger:    logger.Component("gateway"),
		Metrics:   metrics,
	})
	if err != nil {
		return nil, err
	}

	logger.Info("Gateway initialized",
		zap.String("session_id", sessionID.String()),
		zap.String("policy", string(policyEngine.Mode())),
		zap.Int("allowed_domains", len(policyEngine.AllowedDomains())),
		zap.String("artifacts_dir", cfg.Browser.ArtifactsDir),
		zap.Bool("headless", cfg.Browser.Headless),
	)

	baseCtx, cancel := context.WithCancel(context.Background())
	s := &Server{
		gateway: gw,
		logger:  logger,
		config:  cfg,
		metrics: metrics,
		baseCtx: baseCtx,
		cancel:  cancel,
	}
	s.router = s.routes()
	return s, nil
}

func (s *Server) routes() *gin.Engine {
	if !s.config.Logging.Development {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(middleware.RequestID())
	router.Use(middleware.AccessLog(s.logger.Component("http")))
	router.Use(monitoring.Middleware(s.metrics))
	router.Use(middleware.CORS(middleware.DefaultCORSConfig()))
	if s.config.RateLimit.Enabled {
		s.logger.Info("Rate limiting enabled",
			zap.Int("rps", s.config.RateLimit.RequestsPerSecond),
			zap.Int("burst", s.config.RateLimit.Burst),
			zap.Bool("per_ip", s.config.RateLimit.PerIP),
		)
		limits := middleware.RateLimitConfig{
			RequestsPerSecond: s.config.RateLimit.RequestsPerSecond,
			Burst:             s.config.RateLimit.Burst,
		}
		if s.config.RateLimit.PerIP {
			router.Use(middleware.RateLimit(limits))
		} else {
			router.Use(middleware.GlobalRateLimit(limits))
		}
	}

	handlers := http.NewHandlers(s.gateway)
	metricsHandlers := http.NewMetricsHandlers(s.metrics)

	// Session lifecycle
	router.POST("/init", handlers.Init)
	router.POST("/close", handlers.Close)
	router.GET("/health", handlers.Health)

	// Browser commands
	router.POST("/navigate", handlers.Navigate)
	router.POST("/click", handlers.Click)
	router.POST("/type", handlers.Type)
	router.POST("/wait", handlers.Wait)
	router.POST("/scrape", handlers.Scrape)
	router.POST("/screenshot", handlers.Screenshot)
	router.POST("/content", handlers.Content)
	router.POST("/evaluate", handlers.Evaluate)

	// Credentials
	router.POST("/auth", handlers.Auth)
	router.POST("/auth/wait-2fa", handlers.WaitFor2FA)
	router.POST("/auth/save", handlers.SavePassword)

	// Metrics
	router.GET("/metrics", metricsHandlers.Prometheus())
	router.GET("/stats", metricsHandlers.Stats)

	return router
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() nethttp.Handler {
	return s.router
}

// Gateway returns the command gateway the server drives.
func (s *Server) Gateway() *gateway.Gateway {
	return s.gateway
}

// Addr is the listen address.
func (s *Server) Addr() string {
	return net.JoinHostPort(s.config.Server.Host, s.config.Server.Port)
}

// Run starts the HTTP server and blocks until it stops. A clean Shutdown
// returns nil.
func (s *Server) Run() error {
	srv := &nethttp.Server{
		Addr:              s.Addr(),
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return s.baseCtx },
	}

	s.mu.Lock()
	s.http = srv
	s.mu.Unlock()

	s.logger.Info("Starting HTTP server", zap.String("addr", srv.Addr))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, nethttp.ErrServerClosed) {
		return fmt.Errorf("http server: %w", err)
	}
	return nil
}

// Shutdown stops accepting requests, cancels in-flight waits and then
// releases the browser and closes the audit log.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down server...")
	s.cancel()

	var errs []error

	s.mu.Lock()
	srv := s.http
	s.mu.Unlock()
	if srv != nil {
		if err := srv.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("http shutdown: %w", err))
		}
	}

	if err := s.gateway.Shutdown(); err != nil {
		s.logger.Error("Failed to release browser session", zap.Error(err))
		errs = append(errs, err)
	} else {
		s.logger.Info("Browser session released")
	}

	// Sync logger before exit
	_ = s.logger.Sync()

	return errors.Join(errs...)
}
