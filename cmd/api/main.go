package main

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"feedkeep/internal/config"
	"feedkeep/internal/infra/adapter/postgres"
	"feedkeep/internal/infra/adapter/redis"
	"feedkeep/internal/infra/fetch"
	"feedkeep/internal/infra/sanitize"
	"feedkeep/internal/infra/storage"
	"feedkeep/internal/job"
	"feedkeep/internal/service/auth"
	pkgconfig "feedkeep/pkg/config"
	"feedkeep/pkg/ratelimit"
	"feedkeep/pkg/security/csp"

	authUC "feedkeep/internal/usecase/auth"
	"feedkeep/internal/usecase/article"
	feedUC "feedkeep/internal/usecase/feed"
	folderUC "feedkeep/internal/usecase/folder"
	opmlUC "feedkeep/internal/usecase/opml"
	profileUC "feedkeep/internal/usecase/profile"
	searchUC "feedkeep/internal/usecase/search"
	subUC "feedkeep/internal/usecase/subscription"
	tagUC "feedkeep/internal/usecase/tag"
	userarticleUC "feedkeep/internal/usecase/userarticle"

	hhttp "feedkeep/internal/handler/http"
	harticle "feedkeep/internal/handler/http/article"
	hauth "feedkeep/internal/handler/http/auth"
	hfeed "feedkeep/internal/handler/http/feed"
	hfolder "feedkeep/internal/handler/http/folder"
	"feedkeep/internal/handler/http/me"
	"feedkeep/internal/handler/http/middleware"
	hopml "feedkeep/internal/handler/http/opml"
	"feedkeep/internal/handler/http/requestid"
	hsearch "feedkeep/internal/handler/http/search"
	htag "feedkeep/internal/handler/http/tag"
)

// publicPrefixes lists the route prefixes the session-auth middleware
// never gates (§6.1): signup/login (no session exists yet to verify)
// and the ambient health/metrics surface. Every other /auth/* route
// (logout, change-password, session listing/revocation) reads the
// caller's user or session id from context, so it stays behind
// Authenticate along with the rest of the resource routes.
var publicPrefixes = []string{"/auth/register", "/auth/login", "/health", "/ready", "/live", "/metrics"}

func main() {
	logger := initLogger()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	appCfg, err := config.LoadAppConfig()
	if err != nil {
		logger.Error("failed to load app configuration", slog.Any("error", err))
		os.Exit(1)
	}

	pool, err := connectPostgres(ctx, appCfg.DatabaseURL)
	if err != nil {
		logger.Error("failed to connect to postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	queue, err := redis.Connect(ctx, appCfg.RedisURL)
	if err != nil {
		logger.Error("failed to connect to redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := queue.Close(); err != nil {
			logger.Error("failed to close redis connection", slog.Any("error", err))
		}
	}()

	ready := &atomic.Bool{}
	components := setupServer(logger, appCfg, pool, queue, ready)
	ready.Store(true)

	runServer(ctx, logger, components)
}

func initLogger() *slog.Logger {
	logLevel := slog.LevelInfo
	if os.Getenv("LOG_LEVEL") == "debug" {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel}))
	slog.SetDefault(logger)
	return logger
}

func connectPostgres(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return pool, nil
}

// serverComponents holds the assembled HTTP handler plus anything
// runServer needs to clean up on shutdown.
type serverComponents struct {
	Handler         http.Handler
	IPRateLimiter   *middleware.IPRateLimiter
	UserRateLimiter *middleware.UserRateLimiter
}

// setupServer wires every repository, usecase service, and HTTP
// handler package into one mux, then wraps it with the ambient
// middleware chain (§6, §9).
func setupServer(logger *slog.Logger, appCfg *config.AppConfig, pool *pgxpool.Pool, queue *redis.Client, ready *atomic.Bool) *serverComponents {
	db := postgres.New(pool)

	users := postgres.NewUserRepo(db)
	sessionsRepo := postgres.NewSessionRepo(db)
	feeds := postgres.NewFeedRepo(db)
	subs := postgres.NewSubscriptionRepo(db)
	folders := postgres.NewFolderRepo(db)
	articles := postgres.NewArticleRepo(db)
	userArts := postgres.NewUserArticleRepo(db)
	tags := postgres.NewTagRepo(db)
	opmls := postgres.NewOpmlRepo(db)
	searchRepo := postgres.NewSearchRepo(db)

	sessions := auth.NewSessions(sessionsRepo, appCfg.SessionTimeout(), appCfg.MaxActiveSessions)

	store, err := storage.New(appCfg.StoragePath)
	if err != nil {
		logger.Error("failed to initialize opml storage", slog.Any("error", err))
		os.Exit(1)
	}

	tracker := job.NewTracker(queue, job.DefaultTTL)
	publisher := job.NewPublisher(queue, tracker)

	processor := article.NewProcessor(db, articles, userArts, tags, subs, sanitize.NewCleaner())
	fetcher := fetch.New(appCfg.RequestTimeout, appCfg.MaxFeedSizeMB)

	authSvc := authUC.New(users, sessions, appCfg.MinPasswordLength, appCfg.MaxPasswordLength)
	tagSvc := tagUC.New(tags)
	folderSvc := folderUC.New(folders)
	subSvc := subUC.New(db, subs, feeds, userArts, tags)
	feedSvc := feedUC.New(feeds, subs, folders, articles, userArts, tags, fetcher, processor, publisher, appCfg.FeedRefreshBatchSize)
	opmlSvc := opmlUC.New(opmls, folders, feeds, subSvc, feedSvc, store)
	userArtSvc := userarticleUC.New(articles, userArts, tagSvc)
	profileSvc := profileUC.New(users)
	searchSvc := searchUC.New(searchRepo)

	extractor := ipExtractor(logger)

	mux := http.NewServeMux()
	hauth.Register(mux, authSvc, cookieConfig(appCfg), extractor)
	harticle.Register(mux, userArtSvc)
	hfeed.Register(mux, subSvc, feedSvc, feeds)
	hfolder.Register(mux, folderSvc)
	htag.Register(mux, tagSvc)
	hopml.Register(mux, opmlSvc, publisher)
	hsearch.Register(mux, searchSvc)
	me.Register(mux, profileSvc)

	mux.Handle("GET /health", &hhttp.HealthHandler{DB: pool, Version: version()})
	mux.Handle("GET /ready", &hhttp.ReadyHandler{DB: pool, Ready: ready})
	mux.Handle("GET /live", &hhttp.LiveHandler{})
	mux.Handle("GET /metrics", hhttp.MetricsHandler())

	authenticated := middleware.Authenticate(sessions, appCfg.SessionCookieName, appCfg.CSRFCookieName, publicPrefixes)(mux)

	ipRateLimiter, userRateLimiter := setupRateLimiters(logger, extractor)
	if userRateLimiter != nil {
		authenticated = userRateLimiter.Middleware()(authenticated)
	}

	handler := applyMiddleware(logger, authenticated, ipRateLimiter)

	return &serverComponents{Handler: handler, IPRateLimiter: ipRateLimiter, UserRateLimiter: userRateLimiter}
}

func cookieConfig(appCfg *config.AppConfig) hauth.CookieConfig {
	return hauth.CookieConfig{
		SessionCookieName: appCfg.SessionCookieName,
		CSRFCookieName:    appCfg.CSRFCookieName,
		MaxAgeSeconds:     int(appCfg.SessionTimeout().Seconds()),
		Secure:            os.Getenv("COOKIE_SECURE") != "false",
	}
}

func ipExtractor(logger *slog.Logger) middleware.IPExtractor {
	proxyCfg, err := middleware.LoadTrustedProxyConfig()
	if err != nil {
		logger.Error("failed to load trusted proxy configuration", slog.Any("error", err))
		os.Exit(1)
	}
	if proxyCfg.Enabled {
		logger.Info("rate limiting: trusted proxy mode enabled", slog.Int("trusted_proxies_count", len(proxyCfg.AllowedCIDRs)))
		return middleware.NewTrustedProxyExtractor(*proxyCfg)
	}
	logger.Info("rate limiting: using RemoteAddr (secure mode, proxy headers ignored)")
	return &middleware.RemoteAddrExtractor{}
}

// setupRateLimiters builds the IP and per-user sliding-window limiters
// the teacher's cmd/api wires, swapping the JWT-claim user extractor
// for SessionUserExtractor since auth here is a session cookie, not a
// bearer token.
func setupRateLimiters(logger *slog.Logger, extractor middleware.IPExtractor) (*middleware.IPRateLimiter, *middleware.UserRateLimiter) {
	rlCfg, err := pkgconfig.LoadRateLimitConfig()
	if err != nil {
		logger.Error("failed to load rate limit configuration", slog.Any("error", err))
		os.Exit(1)
	}
	if !rlCfg.Enabled {
		logger.Warn("rate limiting is DISABLED - not recommended for production")
		return nil, nil
	}

	ipStore := ratelimit.NewInMemoryRateLimitStore(ratelimit.InMemoryStoreConfig{MaxKeys: rlCfg.MaxActiveKeys})
	userStore := ratelimit.NewInMemoryRateLimitStore(ratelimit.InMemoryStoreConfig{MaxKeys: rlCfg.MaxActiveKeys})
	algorithm := ratelimit.NewSlidingWindowAlgorithm(&ratelimit.SystemClock{})
	metrics := ratelimit.NewPrometheusMetrics()

	ipCircuitBreaker := ratelimit.NewCircuitBreaker(ratelimit.CircuitBreakerConfig{
		FailureThreshold: rlCfg.CircuitBreakerFailureThreshold,
		RecoveryTimeout:  rlCfg.CircuitBreakerResetTimeout,
	})
	userCircuitBreaker := ratelimit.NewCircuitBreaker(ratelimit.CircuitBreakerConfig{
		FailureThreshold: rlCfg.CircuitBreakerFailureThreshold,
		RecoveryTimeout:  rlCfg.CircuitBreakerResetTimeout,
	})

	ipRateLimiter := middleware.NewIPRateLimiter(
		middleware.IPRateLimiterConfig{Limit: rlCfg.DefaultIPLimit, Window: rlCfg.DefaultIPWindow, Enabled: true},
		extractor, ipStore, algorithm, metrics, ipCircuitBreaker,
	)

	tierLimits := make(map[ratelimit.UserTier]middleware.TierLimit, len(rlCfg.TierLimits))
	for _, t := range rlCfg.TierLimits {
		tierLimits[t.Tier] = middleware.TierLimit{Limit: t.Limit, Window: t.Window}
	}

	userRateLimiter := middleware.NewUserRateLimiter(middleware.UserRateLimiterConfig{
		Store:               userStore,
		Algorithm:           algorithm,
		Metrics:             metrics,
		CircuitBreaker:      userCircuitBreaker,
		UserExtractor:       &middleware.SessionUserExtractor{},
		TierLimits:          tierLimits,
		DefaultLimit:        rlCfg.DefaultUserLimit,
		DefaultWindow:       rlCfg.DefaultUserWindow,
		SkipUnauthenticated: true,
		Clock:               &ratelimit.SystemClock{},
	})

	logger.Info("rate limiting initialized",
		slog.Int("ip_limit", rlCfg.DefaultIPLimit), slog.Duration("ip_window", rlCfg.DefaultIPWindow),
		slog.Int("user_limit", rlCfg.DefaultUserLimit), slog.Duration("user_window", rlCfg.DefaultUserWindow))

	return ipRateLimiter, userRateLimiter
}

// applyMiddleware wraps handler with the ambient chain, applied
// innermost-first: Metrics, CSP, body-size limit, logging, recovery,
// IP rate limit, request id, CORS.
func applyMiddleware(logger *slog.Logger, handler http.Handler, ipRateLimiter *middleware.IPRateLimiter) http.Handler {
	corsCfg, err := middleware.LoadCORSConfig()
	if err != nil {
		logger.Error("failed to load CORS configuration", slog.Any("error", err))
		os.Exit(1)
	}
	corsCfg.Logger = &middleware.SlogAdapter{Logger: logger}

	cspCfg, err := pkgconfig.LoadCSPConfig()
	if err != nil {
		logger.Error("failed to load CSP configuration", slog.Any("error", err))
		os.Exit(1)
	}

	var cspMiddleware func(http.Handler) http.Handler
	if cspCfg.Enabled {
		cspMW := middleware.NewCSPMiddleware(middleware.CSPMiddlewareConfig{
			Enabled:       true,
			DefaultPolicy: csp.StrictPolicy(),
			ReportOnly:    cspCfg.ReportOnly,
		})
		cspMiddleware = cspMW.Middleware()
	} else {
		cspMiddleware = func(next http.Handler) http.Handler { return next }
		logger.Warn("CSP is disabled")
	}

	chain := handler
	chain = hhttp.MetricsMiddleware(chain)
	chain = cspMiddleware(chain)
	chain = hhttp.LimitRequestBody(1 << 20)(chain)
	chain = hhttp.Logging(logger)(chain)
	chain = hhttp.Recover(logger)(chain)
	if ipRateLimiter != nil {
		chain = ipRateLimiter.Middleware()(chain)
	}
	chain = requestid.Middleware(chain)
	chain = middleware.CORS(*corsCfg)(chain)
	return chain
}

func version() string {
	if v := os.Getenv("VERSION"); v != "" {
		return v
	}
	return "dev"
}

// runServer starts the HTTP server and blocks until ctx is cancelled,
// then drains in-flight requests within the shutdown grace period.
func runServer(ctx context.Context, logger *slog.Logger, components *serverComponents) {
	srv := &http.Server{
		Addr:              ":8080",
		Handler:           components.Handler,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext: func(_ net.Listener) context.Context {
			return ctx
		},
	}

	go func() {
		logger.Info("server starting", slog.String("addr", ":8080"), slog.String("version", version()))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server failed", slog.Any("error", err))
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown failed", slog.Any("error", err))
	}
	logger.Info("server stopped")
}
