package main

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/VivekAsole/video-processing-backend/internal/config"
	"github.com/VivekAsole/video-processing-backend/internal/httpapi"
	"github.com/VivekAsole/video-processing-backend/internal/httpapi/handlers"
	"github.com/VivekAsole/video-processing-backend/internal/httpkit"
	"github.com/VivekAsole/video-processing-backend/internal/jobs"
	"github.com/VivekAsole/video-processing-backend/internal/media/ffmpeg"
	"github.com/VivekAsole/video-processing-backend/internal/media/ffprobe"
	"github.com/VivekAsole/video-processing-backend/internal/pkg/logger"
	"github.com/VivekAsole/video-processing-backend/internal/pkg/shutdown"
	"github.com/VivekAsole/video-processing-backend/internal/repositories"
	"github.com/VivekAsole/video-processing-backend/internal/storage"
	"github.com/VivekAsole/video-processing-backend/internal/worker/queue"
)

func main() {
	cfg := config.Load()

	logCfg := logger.DefaultConfig()
	logCfg.ServiceName = "vidproc-api"
	log := logger.New(logCfg)

	log.Info("starting video processing API")

	if err := cfg.Require("DATABASE_URL", "REDIS_ADDR"); err != nil {
		log.LogFatal("invalid configuration", err)
	}

	ctx := context.Background()
	shutdownMgr := shutdown.NewManager(log, cfg.ShutdownTimeout)

	// Connect to PostgreSQL
	log.Info("connecting to PostgreSQL")
	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		log.LogFatal("failed to connect to PostgreSQL", err)
	}
	shutdownMgr.RegisterSimple("postgres", pool.Close)

	if err := pool.Ping(ctx); err != nil {
		log.LogFatal("failed to ping PostgreSQL", err)
	}
	if err := repositories.EnsureSchema(ctx, pool); err != nil {
		log.LogFatal("failed to create schema", err)
	}
	log.Info("PostgreSQL connected")

	// Connect to Redis
	log.Info("connecting to Redis")
	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	shutdownMgr.Register("redis", func(ctx context.Context) error {
		return rdb.Close()
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		log.LogFatal("failed to ping Redis", err)
	}
	log.Info("Redis connected")

	sp, err := storage.NewProvider(ctx, cfg)
	if err != nil {
		log.LogFatal("failed to initialize storage provider", err)
	}
	if c, ok := sp.(io.Closer); ok {
		shutdownMgr.Register("storage", func(ctx context.Context) error { return c.Close() })
	}
	log.Info("storage provider initialized", "provider", sp.Provider())

	jobStore := repositories.NewJobRepository(pool)
	q := queue.NewRedisQueue(rdb, cfg.QueueName)

	router := httpapi.NewRouter(httpapi.Deps{
		Handlers: handlers.Deps{
			Videos:         repositories.NewVideoRepository(pool),
			Trimmed:        repositories.NewTrimmedVideoRepository(pool),
			Records:        repositories.NewOverlayRecordRepository(pool),
			Dispatcher:     jobs.NewDispatcher(jobStore, q, log),
			Tracker:        jobs.NewTracker(jobStore),
			SP:             sp,
			Prober:         ffprobe.Prober{Bin: cfg.FFprobeBin},
			Trimmer:        ffmpeg.Trimmer{Bin: cfg.FFmpegBin},
			Namer:          jobs.Namer{Unique: cfg.UniqueFilenames},
			Pool:           pool,
			Queue:          q,
			WorkDir:        cfg.WorkDir,
			MaxUploadBytes: cfg.MaxUploadBytes,
			Log:            log,
		},
		CORSOrigins: httpkit.SplitOrigins(cfg.CORSOrigins),
		Log:         log,
	})

	server := &http.Server{
		Addr:              "0.0.0.0:" + cfg.HTTPPort,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		// Uploads and downloads are large; only idle connections are bounded.
		IdleTimeout: 120 * time.Second,
	}
	shutdownMgr.Register("http-server", func(ctx context.Context) error {
		log.Info("shutting down HTTP server")
		return server.Shutdown(ctx)
	})

	go func() {
		log.Info("HTTP server listening", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.LogFatal("HTTP server failed", err)
		}
	}()

	shutdownMgr.Wait(context.Background())
}
