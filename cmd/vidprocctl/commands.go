package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/VivekAsole/video-processing-backend/internal/jobs"
	"github.com/VivekAsole/video-processing-backend/internal/models"
	"github.com/VivekAsole/video-processing-backend/internal/repositories"
	"github.com/VivekAsole/video-processing-backend/internal/worker/queue"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status <jobId>",
		Short: "Show an overlay job's status",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withPool(cmd.Context(), func(pool *pgxpool.Pool) error {
				job, err := repositories.NewJobRepository(pool).Get(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				writeJob(cmd.OutOrStdout(), job)
				return nil
			})
		},
	}
}

func newRecordCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "record <jobId>",
		Short: "Show the overlay record written for a finished job",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withPool(cmd.Context(), func(pool *pgxpool.Pool) error {
				rec, err := repositories.NewOverlayRecordRepository(pool).GetRecord(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				return writeRecord(cmd.OutOrStdout(), rec)
			})
		},
	}
}

func newVideosCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "videos",
		Short: "List uploaded videos",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withPool(cmd.Context(), func(pool *pgxpool.Pool) error {
				videos, err := repositories.NewVideoRepository(pool).List(cmd.Context())
				if err != nil {
					return err
				}
				if len(videos) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No videos uploaded")
					return nil
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderTable(
					[]string{"ID", "Filename", "Saved As", "Size", "Duration", "Uploaded"},
					videoRows(videos),
					[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight, alignRight, alignLeft},
				))
				return nil
			})
		},
	}
}

func newQueueCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "queue",
		Short: "Show how many job ids are waiting in the queue",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withRedis(cmd.Context(), func(rdb *redis.Client) error {
				n, err := queue.NewRedisQueue(rdb, ctx.cfg.QueueName).Len(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderTable(
					[]string{"Queue", "Waiting"},
					[][]string{{ctx.cfg.QueueName, strconv.FormatInt(n, 10)}},
					[]columnAlignment{alignLeft, alignRight},
				))
				return nil
			})
		},
	}
}

func writeJob(w io.Writer, job jobs.Job) {
	view := jobs.View(job)
	result := "-"
	if view.Result != nil {
		result = *view.Result
	}
	rows := [][]string{
		{"Job", job.ID},
		{"Status", string(job.Status)},
		{"Video", job.Payload.VideoID},
		{"Input", job.Payload.InputKey},
		{"Overlays", strconv.Itoa(len(job.Payload.Overlays))},
		{"Created", formatTime(&job.CreatedAt)},
		{"Started", formatTime(job.StartedAt)},
		{"Finished", formatTime(job.FinishedAt)},
		{"Result", result},
	}
	fmt.Fprintln(w, renderTable([]string{"Field", "Value"}, rows, nil))
}

func writeRecord(w io.Writer, rec models.OverlayRecord) error {
	rows := [][]string{
		{"Job", rec.JobID},
		{"Filename", rec.OverlayFilename},
		{"Object", rec.ObjectKey},
		{"Created", formatTime(&rec.CreatedAt)},
	}
	fmt.Fprintln(w, renderTable([]string{"Field", "Value"}, rows, nil))

	if len(rec.Overlays) == 0 {
		return nil
	}
	var pretty any
	if err := json.Unmarshal(rec.Overlays, &pretty); err != nil {
		return fmt.Errorf("decode overlays: %w", err)
	}
	out, err := json.MarshalIndent(pretty, "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintln(w, string(out))
	return nil
}

func videoRows(videos []models.VideoAsset) [][]string {
	rows := make([][]string, 0, len(videos))
	for _, v := range videos {
		size, duration := "-", "-"
		if v.Size != nil {
			size = strconv.FormatInt(*v.Size, 10)
		}
		if v.Duration != nil {
			duration = strconv.FormatFloat(*v.Duration, 'f', 2, 64)
		}
		rows = append(rows, []string{
			v.ID,
			v.OriginalFilename,
			v.SavedFilename,
			size,
			duration,
			formatTime(&v.UploadTime),
		})
	}
	return rows
}

func formatTime(t *time.Time) string {
	if t == nil || t.IsZero() {
		return "-"
	}
	return t.UTC().Format(time.RFC3339)
}
