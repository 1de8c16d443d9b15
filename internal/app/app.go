package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/stellarlink/stellar/internal/bookmarks"
	"github.com/stellarlink/stellar/internal/config"
	"github.com/stellarlink/stellar/internal/httpserver"
	"github.com/stellarlink/stellar/internal/httpserver/deps"
	"github.com/stellarlink/stellar/internal/idp"
	"github.com/stellarlink/stellar/internal/kv"
	"github.com/stellarlink/stellar/internal/logger"
	"github.com/stellarlink/stellar/internal/redis"
	"github.com/stellarlink/stellar/internal/scheduler"
	"github.com/stellarlink/stellar/internal/session"
	"github.com/stellarlink/stellar/internal/version"
)

type App struct {
	cfg         *config.Config
	logger      logger.Logger
	server      *httpserver.Server
	redisClient *goredis.Client
	reaper      *scheduler.SessionReaper
}

func New() *App {
	cfg := config.Load()

	loggerClient := logger.New(cfg.LogLevel, cfg.PrettyLog)

	// KV backend - fail fast if Redis is configured but unavailable
	var store kv.Store
	var redisClient *goredis.Client
	switch cfg.KVBackend {
	case "redis":
		loggerClient.Infof("Connecting to Redis at %s", cfg.RedisAddr)
		client, err := redis.New(redis.ConnectOptions{
			Addr:           cfg.RedisAddr,
			User:           cfg.RedisUser,
			Password:       cfg.RedisPassword,
			RedisDB:        cfg.RedisDB,
			DialTimeout:    cfg.RedisDT,
			ReadTimeout:    cfg.RedisRT,
			WriteTimeout:   cfg.RedisWT,
			PoolSize:       cfg.RedisPoolSize,
			ConnectTimeout: cfg.RedisConnectTimeout,
			RetryInterval:  cfg.RedisRetryInterval,
			MaxWait:        cfg.RedisMaxWait,
			PingTimeout:    cfg.RedisPingTimeout,
			WarnThreshold:  cfg.RedisWarnThreshold,
		}, loggerClient)
		if err != nil {
			loggerClient.Errorf("Failed to connect to Redis: %v", err)
			os.Exit(1)
		}
		redisClient = client
		store = kv.NewRedis(client)
		loggerClient.Info("Redis initialized successfully")
	case "memory":
		loggerClient.Warn("using in-memory KV backend, state is lost on restart")
		store = kv.NewMemory()
	}

	// Session manager
	var sessions session.Manager
	switch cfg.SessionMode {
	case "token":
		loggerClient.Info("sessions are stateless signed tokens, logout cannot revoke")
		sessions = session.NewTokenManager(cfg.SessionSecret, cfg.SessionTTL)
	default:
		sessions = session.NewStoreManager(store, cfg.SessionTTL)
	}
	loggerClient.Info("session manager ready",
		logger.String("mode", cfg.SessionMode),
		logger.Duration("ttl", cfg.SessionTTL),
		logger.Bool("secure_cookies", cfg.SecureCookies))

	// Google OAuth client
	google := idp.New(idp.Options{
		ClientID:     cfg.GoogleClientID,
		ClientSecret: cfg.GoogleClientSecret,
		RedirectURL:  cfg.PublicBaseURL + "/api/auth/callback",
	})
	if !google.Configured() {
		loggerClient.Warn("google oauth credentials not configured, login is disabled")
	}

	// Bookmark store
	marks := bookmarks.New(store)

	// Expired-session sweep (backstop for backends without native TTL eviction)
	reaper := scheduler.NewSessionReaper(store, loggerClient, cfg.SessionSweepInterval)

	// Dependencies passed to routes.
	d := deps.Deps{
		Logger:          loggerClient,
		StartTime:       time.Now(),
		Version:         version.Version,
		Commit:          version.Commit,
		BuildDate:       version.BuildDate,
		GoVersion:       version.GoVersion,
		TimeNow:         time.Now,
		KV:              store,
		Sessions:        sessions,
		Bookmarks:       marks,
		IDP:             google,
		SessionTTL:      cfg.SessionTTL,
		SecureCookies:   cfg.SecureCookies,
		TrustProxy:      cfg.TrustProxy,
		RateLimitBurst:  cfg.RateLimitBurst,
		RateLimitPerMin: cfg.RateLimitPerMin,
	}

	server := httpserver.New(cfg, loggerClient, d)

	return &App{
		cfg:         cfg,
		logger:      loggerClient,
		server:      server,
		redisClient: redisClient,
		reaper:      reaper,
	}
}

func (a *App) Run() error {
	a.logger.Infof("🚀 Starting Stellar v%s on %s", version.Version, a.cfg.ListenPort)
	a.logger.Infof("Stellar %s (commit=%s, built=%s, go=%s)",
		version.Version, version.Commit, version.BuildDate, version.GoVersion)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := a.reaper.Start(ctx); err != nil {
		return fmt.Errorf("failed to start session reaper: %w", err)
	}
	a.logger.Info("session reaper started",
		logger.Duration("interval", a.cfg.SessionSweepInterval))

	errCh := make(chan error, 1)
	go func() {
		if err := a.server.Start(); err != nil {
			errCh <- fmt.Errorf("http server error: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		a.logger.Info("⏳ Shutting down gracefully...")
	case err := <-errCh:
		return err
	}

	a.reaper.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer cancel()
	if err := a.server.Stop(shutdownCtx); err != nil {
		return fmt.Errorf("failed to stop server: %w", err)
	}

	if a.redisClient != nil {
		if err := a.redisClient.Close(); err != nil {
			a.logger.Warnf("failed to close redis: %v", err)
		} else {
			a.logger.Info("✅ Redis closed cleanly")
		}
	}

	a.logger.Info("✅ Stellar stopped cleanly")
	return nil
}
