package main

import (
	"context"
	"io"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/VivekAsole/video-processing-backend/internal/config"
	"github.com/VivekAsole/video-processing-backend/internal/jobs"
	"github.com/VivekAsole/video-processing-backend/internal/pkg/logger"
	"github.com/VivekAsole/video-processing-backend/internal/pkg/shutdown"
	"github.com/VivekAsole/video-processing-backend/internal/repositories"
	"github.com/VivekAsole/video-processing-backend/internal/storage"
	"github.com/VivekAsole/video-processing-backend/internal/worker"
	"github.com/VivekAsole/video-processing-backend/internal/worker/queue"
	"github.com/VivekAsole/video-processing-backend/internal/worker/renderer"
)

func main() {
	cfg := config.Load()

	logCfg := logger.DefaultConfig()
	logCfg.ServiceName = "vidproc-worker"
	log := logger.New(logCfg)

	required := []string{"DATABASE_URL", "REDIS_ADDR"}
	if cfg.Renderer == "http" {
		required = append(required, "RENDERER_HTTP_BASEURL")
	}
	if err := cfg.Require(required...); err != nil {
		log.LogFatal("invalid configuration", err)
	}

	ctx := context.Background()
	shutdownMgr := shutdown.NewManager(log, cfg.ShutdownTimeout)

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

	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	shutdownMgr.Register("redis", func(ctx context.Context) error {
		return rdb.Close()
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		log.LogFatal("failed to ping Redis", err)
	}

	sp, err := storage.NewProvider(ctx, cfg)
	if err != nil {
		log.LogFatal("failed to initialize storage provider", err)
	}
	if c, ok := sp.(io.Closer); ok {
		shutdownMgr.Register("storage", func(ctx context.Context) error { return c.Close() })
	}

	var rc renderer.Client
	switch cfg.Renderer {
	case "http":
		rc = renderer.NewHTTPClient(cfg.RendererBaseURL, cfg.FontFile)
	case "ffmpeg":
		rc = renderer.NewFFmpegClient(cfg.FFmpegBin, cfg.FontFile)
	default:
		log.Error("unknown renderer", "renderer", cfg.Renderer)
		os.Exit(1)
	}
	log.Info("worker configured",
		"renderer", cfg.Renderer,
		"storage", sp.Provider(),
		"queue", cfg.QueueName,
		"concurrency", cfg.WorkerConcurrency,
	)

	done := make(chan struct{})
	go func() {
		defer close(done)
		err := worker.Run(shutdownMgr.Context(), worker.Deps{
			Queue:        queue.NewRedisQueue(rdb, cfg.QueueName),
			Store:        repositories.NewJobRepository(pool),
			Records:      repositories.NewOverlayRecordRepository(pool),
			Renderer:     rc,
			SP:           sp,
			WorkDir:      cfg.WorkDir,
			CleanupLocal: cfg.CleanupLocal,
			Namer:        jobs.Namer{Unique: cfg.UniqueFilenames},
			Concurrency:  cfg.WorkerConcurrency,
			Log:          log,
		})
		if err != nil {
			log.Error("worker stopped with error", "error", err.Error())
		}
	}()

	// Registered last so it runs first. Shutdown stops the loops from taking
	// new jobs; jobs already running reach a terminal status before the
	// connections they use are closed, unless SHUTDOWN_TIMEOUT runs out.
	shutdownMgr.Register("worker", func(ctx context.Context) error {
		select {
		case <-done:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	})

	shutdownMgr.Wait(context.Background())
}
