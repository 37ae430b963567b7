// Package app wires configuration, storage, the wizard session store and
// the HTTP surface into a runnable service.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	sentrygin "github.com/getsentry/sentry-go/gin"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/punnathat/richmenu-studio-go/internal/archive"
	"github.com/punnathat/richmenu-studio-go/internal/autofix"
	"github.com/punnathat/richmenu-studio-go/internal/buildinfo"
	"github.com/punnathat/richmenu-studio-go/internal/config"
	"github.com/punnathat/richmenu-studio-go/internal/deploy"
	"github.com/punnathat/richmenu-studio-go/internal/logger"
	"github.com/punnathat/richmenu-studio-go/internal/metrics"
	"github.com/punnathat/richmenu-studio-go/internal/ratelimit"
	"github.com/punnathat/richmenu-studio-go/internal/sentry"
	"github.com/punnathat/richmenu-studio-go/internal/storage"
	"github.com/punnathat/richmenu-studio-go/internal/studio"
	"github.com/punnathat/richmenu-studio-go/internal/wizard"
)

// auditRetention is how long deployment audit rows are kept before the
// daily prune job removes them.
const auditRetention = 90 * 24 * time.Hour

// Application holds all initialized components of the service.
type Application struct {
	cfg *config.Config
	log *logger.Logger

	db       *storage.DB
	registry *prometheus.Registry
	metrics  *metrics.Metrics

	sessions  *wizard.Manager
	studio    *studio.Client
	gate      *studio.Gate
	submitter *studio.Submitter

	archiver *archive.Archiver
	fixer    *autofix.Chain

	userLimiter *ratelimit.PerKeyLimiter
	llmLimiter  *ratelimit.LLMRateLimiter

	server *http.Server
	wg     sync.WaitGroup
	stopCh chan struct{}
}

// Initialize creates and wires all application components.
func Initialize(cfg *config.Config) (*Application, error) {
	log := logger.NewWithOptions(cfg.LogLevel, os.Stdout, logger.Options{
		BetterStackToken:    cfg.BetterStackToken,
		BetterStackEndpoint: cfg.BetterStackEndpoint,
	})
	hostname, _ := os.Hostname()
	log = log.WithField("service", "richmenu-studio").WithField("instance_id", hostname)
	slog.SetDefault(log.Logger)

	if buildinfo.Version != "" {
		log.WithFields(map[string]any{
			"version": buildinfo.Version,
			"commit":  buildinfo.Commit,
		}).Info("Starting richmenu-studio")
	}

	if err := sentry.Initialize(sentry.Config{
		Token:       cfg.SentryToken,
		Host:        cfg.SentryHost,
		Environment: cfg.Environment,
	}); err != nil {
		log.WithError(err).Warn("Sentry initialization failed, continuing without error tracking")
	}

	db, err := storage.New(cfg.SQLitePath())
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		collectors.NewBuildInfoCollector(),
	)
	m := metrics.New(registry)

	sessions := wizard.NewManager(cfg.SessionTTL, cfg.SessionSweep)
	sessions.OnCount(m.SetSessionsActive)

	gateway := studio.NewClient(cfg.GatewayBaseURL, cfg.GatewayTimeout, log)
	gateway.SetMetrics(m)

	var backend studio.Deployer = gateway
	if cfg.DeployMode == config.DeployModeDirect {
		backend = deploy.New(log)
	}

	ctx := context.Background()

	var archiver *archive.Archiver
	if cfg.HasArchive() {
		client, err := archive.New(ctx, archive.Config{
			Endpoint:    cfg.R2Endpoint,
			AccessKeyID: cfg.R2AccessKeyID,
			SecretKey:   cfg.R2SecretKey,
			BucketName:  cfg.R2Bucket,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to initialize archive: %w", err)
		}
		archiver = archive.NewArchiver(client, log)
		log.Info("Deployment archive enabled")
	}

	var fixer *autofix.Chain
	if cfg.HasLLMProvider() {
		fixer, err = autofix.New(ctx, autofix.Config{
			GeminiAPIKey: cfg.GeminiAPIKey,
			GeminiModel:  cfg.GeminiModel,
			GroqAPIKey:   cfg.GroqAPIKey,
			GroqModel:    cfg.GroqModel,
		}, log)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize layout repair: %w", err)
		}
	}
	if fixer != nil {
		log.WithField("providers", fixer.Providers()).Info("Layout repair enabled")
	}

	userLimiter := ratelimit.NewPerKeyLimiter(ratelimit.PerKeyLimiterConfig{
		MaxTokens:     cfg.UserRateLimitBurst,
		RefillRate:    cfg.UserRateLimitRefillPerSec,
		CleanupPeriod: 5 * time.Minute,
	})
	userLimiter.OnDrop(func() { m.RecordRateLimiterDrop("user") })

	llmLimiter := ratelimit.NewLLMRateLimiter(cfg.AutofixPerHour, 10*time.Minute, m)

	a := &Application{
		cfg:         cfg,
		log:         log,
		db:          db,
		registry:    registry,
		metrics:     m,
		sessions:    sessions,
		studio:      gateway,
		gate:        studio.NewGate(gateway),
		submitter:   studio.NewSubmitter(backend),
		archiver:    archiver,
		fixer:       fixer,
		userLimiter: userLimiter,
		llmLimiter:  llmLimiter,
		stopCh:      make(chan struct{}),
	}

	a.server = &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           a.buildRouter(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	return a, nil
}

// buildRouter assembles the Gin engine with all middleware and routes.
func (a *Application) buildRouter() *gin.Engine {
	if a.cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	if sentry.IsEnabled() {
		router.Use(sentrygin.New(sentrygin.Options{Repanic: true}))
	}
	router.Use(requestIDMiddleware())
	router.Use(securityHeadersMiddleware())
	router.Use(loggingMiddleware(a.log))

	router.GET("/", a.handleRoot)
	router.GET("/healthz", a.handleHealthz)
	router.HEAD("/healthz", a.handleHealthz)
	router.GET("/ready", a.handleReady)
	router.HEAD("/ready", a.handleReady)

	router.GET("/metrics",
		metricsAuthMiddleware(a.cfg.MetricsUsername, a.cfg.MetricsPassword),
		gin.WrapH(promhttp.HandlerFor(a.registry, promhttp.HandlerOpts{})),
	)

	api := router.Group("/api")
	api.GET("/banks", a.listBanks)
	api.GET("/deployments", a.listDeployments)

	s := api.Group("/sessions")
	s.POST("", a.createSession)
	s.GET("/:id", a.getSession)
	s.DELETE("/:id", a.deleteSession)
	s.POST("/:id/advance", a.advanceSession)
	s.POST("/:id/retreat", a.retreatSession)
	s.POST("/:id/token", a.verifyToken)
	s.PUT("/:id/layout", a.updateLayout)
	s.POST("/:id/layout/autofix", a.autofixLayout)
	s.PUT("/:id/asset", a.updateAsset)
	s.GET("/:id/preview", a.previewSession)
	s.POST("/:id/deploy", a.deploySession)
	s.POST("/:id/slip", a.verifySlip)

	return router
}

func (a *Application) handleRoot(c *gin.Context) {
	resp := gin.H{
		"service": "richmenu-studio",
		"status":  "ok",
	}
	if buildinfo.Version != "" {
		resp["version"] = buildinfo.Version
	}
	c.JSON(http.StatusOK, resp)
}

func (a *Application) handleHealthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (a *Application) handleReady(c *gin.Context) {
	if err := a.db.Ready(c.Request.Context()); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ready"})
}

// Run starts the HTTP server and blocks until a shutdown signal arrives or
// the server fails.
func (a *Application) Run() error {
	a.startBackgroundJobs()

	errCh := make(chan error, 1)
	go func() {
		a.log.Infof("HTTP server listening on :%s", a.cfg.Port)
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	case sig := <-quit:
		a.log.Infof("Received signal %s, shutting down", sig)
	}

	return a.shutdown()
}

func (a *Application) shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer cancel()

	close(a.stopCh)

	var errs []error
	if err := a.server.Shutdown(ctx); err != nil {
		errs = append(errs, fmt.Errorf("server shutdown: %w", err))
	}

	a.wg.Wait()

	a.sessions.Stop()
	a.userLimiter.Stop()
	a.llmLimiter.Stop()

	if err := a.db.Close(); err != nil {
		errs = append(errs, fmt.Errorf("database close: %w", err))
	}

	sentry.Flush(2 * time.Second)

	if err := a.log.Shutdown(ctx); err != nil {
		errs = append(errs, fmt.Errorf("log flush: %w", err))
	}

	a.log.Info("Shutdown complete")
	return errors.Join(errs...)
}

func (a *Application) startBackgroundJobs() {
	a.wg.Add(2)
	go a.gaugeLoop()
	go a.auditPruneLoop()
}

// gaugeLoop keeps the session and rate limiter gauges fresh even when no
// sweep or request traffic touches them.
func (a *Application) gaugeLoop() {
	defer a.wg.Done()

	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			a.metrics.SetSessionsActive(a.sessions.Count())
			a.metrics.SetLLMRateLimiterUsers(a.llmLimiter.GetActiveCount())
		case <-a.stopCh:
			return
		}
	}
}

// auditPruneLoop removes deployment audit rows older than the retention
// window once a day.
func (a *Application) auditPruneLoop() {
	defer a.wg.Done()

	ticker := time.NewTicker(24 * time.Hour)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
			pruned, err := a.db.PruneDeployments(ctx, auditRetention)
			cancel()
			if err != nil {
				a.log.WithModule("app").WithError(err).Warn("Audit log prune failed")
				continue
			}
			if pruned > 0 {
				a.log.WithModule("app").WithField("rows", pruned).Info("Pruned deployment audit log")
			}
		case <-a.stopCh:
			return
		}
	}
}
