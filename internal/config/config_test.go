package config

import (
	"strings"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	for _, k := range []string{"HTTP_PORT", "JOB_QUEUE_NAME", "STORAGE_PROVIDER", "RENDERER", "UNIQUE_FILENAMES", "WORKER_CONCURRENCY", "MAX_UPLOAD_MB", "OVERLAY_FONT_FILE"} {
		t.Setenv(k, "")
	}

	cfg := Load()

	if cfg.HTTPPort != "8080" {
		t.Errorf("expected port 8080, got %s", cfg.HTTPPort)
	}
	if cfg.QueueName != "vidproc:overlay_jobs" {
		t.Errorf("unexpected queue name %s", cfg.QueueName)
	}
	if cfg.StorageProvider != "localfs" || cfg.Renderer != "ffmpeg" {
		t.Errorf("unexpected provider/renderer %s/%s", cfg.StorageProvider, cfg.Renderer)
	}
	if !cfg.UniqueFilenames {
		t.Error("expected unique filenames by default")
	}
	if cfg.WorkerConcurrency != 1 {
		t.Errorf("expected concurrency 1, got %d", cfg.WorkerConcurrency)
	}
	if cfg.MaxUploadBytes != 512<<20 {
		t.Errorf("expected 512MiB, got %d", cfg.MaxUploadBytes)
	}
	if cfg.FontFile != "" {
		t.Errorf("expected no font file, got %q", cfg.FontFile)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("STORAGE_PROVIDER", "GCS")
	t.Setenv("UNIQUE_FILENAMES", "false")
	t.Setenv("WORKER_CONCURRENCY", "4")
	t.Setenv("SHUTDOWN_TIMEOUT", "5s")
	t.Setenv("OVERLAY_FONT_FILE", "/usr/share/fonts/dejavu/DejaVuSans.ttf")

	cfg := Load()

	if cfg.StorageProvider != "gcs" {
		t.Errorf("expected lower-cased provider, got %s", cfg.StorageProvider)
	}
	if cfg.UniqueFilenames {
		t.Error("expected unique filenames to be disabled")
	}
	if cfg.WorkerConcurrency != 4 {
		t.Errorf("expected concurrency 4, got %d", cfg.WorkerConcurrency)
	}
	if cfg.ShutdownTimeout != 5*time.Second {
		t.Errorf("expected 5s, got %s", cfg.ShutdownTimeout)
	}
	if cfg.FontFile != "/usr/share/fonts/dejavu/DejaVuSans.ttf" {
		t.Errorf("unexpected font file %q", cfg.FontFile)
	}
}

func TestInvalidNumbersFallBack(t *testing.T) {
	t.Setenv("WORKER_CONCURRENCY", "-2")
	t.Setenv("MAX_UPLOAD_MB", "lots")
	t.Setenv("UNIQUE_FILENAMES", "maybe")

	cfg := Load()

	if cfg.WorkerConcurrency != 1 || cfg.MaxUploadBytes != 512<<20 || !cfg.UniqueFilenames {
		t.Errorf("expected defaults, got %+v", cfg)
	}
}

func TestRequire(t *testing.T) {
	cfg := Config{DatabaseURL: "postgres://x"}

	if err := cfg.Require("DATABASE_URL"); err != nil {
		t.Errorf("unexpected error: %v", err)
	}

	err := cfg.Require("DATABASE_URL", "REDIS_ADDR", "RENDERER_HTTP_BASEURL")
	if err == nil {
		t.Fatal("expected missing keys error")
	}
	if !strings.Contains(err.Error(), "REDIS_ADDR, RENDERER_HTTP_BASEURL") {
		t.Errorf("expected both keys named, got %v", err)
	}
}
