package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"feedkeep/internal/infra/adapter/postgres"
	"feedkeep/internal/infra/adapter/redis"
	"feedkeep/internal/infra/fetch"
	"feedkeep/internal/infra/sanitize"
	"feedkeep/internal/infra/storage"
	workerPkg "feedkeep/internal/infra/worker"
	"feedkeep/internal/job"
	"feedkeep/internal/usecase/article"
	"feedkeep/internal/usecase/feed"
	"feedkeep/internal/usecase/opml"
	"feedkeep/internal/usecase/subscription"
)

func main() {
	logger := initLogger()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	pool, err := connectPostgres(ctx)
	if err != nil {
		logger.Error("failed to connect to postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()
	db := postgres.New(pool)

	queue, err := connectRedis(ctx)
	if err != nil {
		logger.Error("failed to connect to redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := queue.Close(); err != nil {
			logger.Error("failed to close redis connection", slog.Any("error", err))
		}
	}()

	store, err := storage.New(opmlStorageDir())
	if err != nil {
		logger.Error("failed to initialize opml storage", slog.Any("error", err))
		os.Exit(1)
	}

	tracker := job.NewTracker(queue, job.DefaultTTL)
	feedSvc, subSvc, opmlSvc := buildServices(db, queue, tracker, store)

	healthPort := healthPortFromEnv()
	healthAddr := fmt.Sprintf(":%d", healthPort)
	healthServer := workerPkg.NewHealthServer(healthAddr, logger)
	go func() {
		if err := healthServer.Start(ctx); err != nil && err != http.ErrServerClosed {
			logger.Error("health server failed", slog.Any("error", err))
		}
	}()
	logger.Info("health check server started", slog.String("addr", healthAddr))

	cron := &job.CronSchedule{Timezone: timezoneFromEnv(), Feeds: feedSvc}
	scheduler, err := cron.Start()
	if err != nil {
		logger.Error("failed to start cron schedule", slog.Any("error", err))
		os.Exit(1)
	}
	defer scheduler.Stop()

	worker := job.NewWorker(queue, tracker, feedSvc, subSvc, opmlSvc)
	healthServer.SetReady(true)
	logger.Info("worker started", slog.String("timezone", cron.Timezone))

	worker.Run(ctx)
	logger.Info("worker shutting down")
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

func connectPostgres(ctx context.Context) (*pgxpool.Pool, error) {
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
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

func connectRedis(ctx context.Context) (*redis.Client, error) {
	url := os.Getenv("REDIS_URL")
	if url == "" {
		url = "redis://localhost:6379/0"
	}
	return redis.Connect(ctx, url)
}

func opmlStorageDir() string {
	if dir := os.Getenv("OPML_STORAGE_DIR"); dir != "" {
		return dir
	}
	return "/var/lib/feedkeep/opml"
}

func timezoneFromEnv() string {
	if tz := os.Getenv("CRON_TIMEZONE"); tz != "" {
		return tz
	}
	return "UTC"
}

func healthPortFromEnv() int {
	return 9091
}

// buildServices wires every postgres repository into the article
// processor, feed/subscription/opml services, following the same
// construction order the usecase constructors declare. feedFetcher's
// timeout and size cap mirror §5's REQUEST_TIMEOUT/MAX_FEED_SIZE_MB
// defaults.
func buildServices(db *postgres.DB, queue *redis.Client, tracker *job.Tracker, store *storage.Local) (*feed.Service, *subscription.Service, *opml.Service) {
	feeds := postgres.NewFeedRepo(db)
	subs := postgres.NewSubscriptionRepo(db)
	folders := postgres.NewFolderRepo(db)
	articles := postgres.NewArticleRepo(db)
	userArts := postgres.NewUserArticleRepo(db)
	tags := postgres.NewTagRepo(db)
	opmls := postgres.NewOpmlRepo(db)

	processor := article.NewProcessor(db, articles, userArts, tags, subs, sanitize.NewCleaner())
	fetcher := fetch.New(30*time.Second, 10)
	publisher := job.NewPublisher(queue, tracker)

	feedSvc := feed.New(feeds, subs, folders, articles, userArts, tags, fetcher, processor, publisher, 50)
	subSvc := subscription.New(db, subs, feeds, userArts, tags)
	opmlSvc := opml.New(opmls, folders, feeds, subSvc, feedSvc, store)

	return feedSvc, subSvc, opmlSvc
}
