package main

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/VivekAsole/video-processing-backend/internal/config"
)

type commandContext struct {
	cfg config.Config
}

func newRootCommand() *cobra.Command {
	ctx := &commandContext{}

	rootCmd := &cobra.Command{
		Use:           "vidprocctl",
		Short:         "Inspect video processing jobs and assets",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			ctx.cfg = config.Load()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	rootCmd.AddCommand(newStatusCommand(ctx))
	rootCmd.AddCommand(newRecordCommand(ctx))
	rootCmd.AddCommand(newVideosCommand(ctx))
	rootCmd.AddCommand(newQueueCommand(ctx))

	return rootCmd
}

func (c *commandContext) withPool(ctx context.Context, fn func(*pgxpool.Pool) error) error {
	if err := c.cfg.Require("DATABASE_URL"); err != nil {
		return err
	}
	pool, err := pgxpool.New(ctx, c.cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("connect postgres: %w", err)
	}
	defer pool.Close()
	return fn(pool)
}

func (c *commandContext) withRedis(ctx context.Context, fn func(*redis.Client) error) error {
	if err := c.cfg.Require("REDIS_ADDR"); err != nil {
		return err
	}
	rdb := redis.NewClient(&redis.Options{Addr: c.cfg.RedisAddr})
	defer rdb.Close()
	return fn(rdb)
}
