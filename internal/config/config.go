// Package config loads process configuration from the environment. A .env
// and .env.local file in the working directory are read first when present;
// variables already set in the environment win.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config is shared by the api, worker and vidprocctl binaries. Each binary
// only checks the required values it uses.
type Config struct {
	HTTPPort    string
	DatabaseURL string
	RedisAddr   string
	QueueName   string

	StorageProvider  string
	StorageLocalRoot string
	WorkDir          string
	CleanupLocal     bool

	GDriveClientID     string
	GDriveClientSecret string
	GDriveRefreshToken string
	GDriveFolderID     string

	GCSBucket          string
	GCSPrefix          string
	GCSCredentialsFile string

	Renderer        string
	RendererBaseURL string
	FFmpegBin       string
	FFprobeBin      string
	FontFile        string
	UniqueFilenames bool

	WorkerConcurrency int
	MaxUploadBytes    int64
	ShutdownTimeout   time.Duration
	CORSOrigins       string
}

// Load reads the configuration. It never fails on a missing .env file.
func Load() Config {
	_ = godotenv.Load(".env.local", ".env")

	return Config{
		HTTPPort:    getEnv("HTTP_PORT", "8080"),
		DatabaseURL: getEnv("DATABASE_URL", ""),
		RedisAddr:   getEnv("REDIS_ADDR", ""),
		QueueName:   getEnv("JOB_QUEUE_NAME", "vidproc:overlay_jobs"),

		StorageProvider:  strings.ToLower(getEnv("STORAGE_PROVIDER", "localfs")),
		StorageLocalRoot: getEnv("STORAGE_LOCAL_ROOT", "./data/storage"),
		WorkDir:          getEnv("WORK_DIR", os.TempDir()),
		CleanupLocal:     boolEnv("CLEANUP_LOCAL", true),

		GDriveClientID:     getEnv("GDRIVE_CLIENT_ID", ""),
		GDriveClientSecret: getEnv("GDRIVE_CLIENT_SECRET", ""),
		GDriveRefreshToken: getEnv("GDRIVE_REFRESH_TOKEN", ""),
		GDriveFolderID:     getEnv("GDRIVE_FOLDER_ID", ""),

		GCSBucket:          getEnv("GCS_BUCKET", ""),
		GCSPrefix:          getEnv("GCS_PREFIX", ""),
		GCSCredentialsFile: getEnv("GCS_CREDENTIALS_FILE", ""),

		Renderer:        strings.ToLower(getEnv("RENDERER", "ffmpeg")),
		RendererBaseURL: getEnv("RENDERER_HTTP_BASEURL", ""),
		FFmpegBin:       getEnv("FFMPEG_BIN", "ffmpeg"),
		FFprobeBin:      getEnv("FFPROBE_BIN", "ffprobe"),
		FontFile:        getEnv("OVERLAY_FONT_FILE", ""),
		UniqueFilenames: boolEnv("UNIQUE_FILENAMES", true),

		WorkerConcurrency: intEnv("WORKER_CONCURRENCY", 1),
		MaxUploadBytes:    int64(intEnv("MAX_UPLOAD_MB", 512)) << 20,
		ShutdownTimeout:   durationEnv("SHUTDOWN_TIMEOUT", 30*time.Second),
		CORSOrigins:       getEnv("CORS_ALLOWED_ORIGINS", "*"),
	}
}

// Require returns an error naming every listed key whose value is empty.
func (c Config) Require(keys ...string) error {
	values := map[string]string{
		"DATABASE_URL":          c.DatabaseURL,
		"REDIS_ADDR":            c.RedisAddr,
		"RENDERER_HTTP_BASEURL": c.RendererBaseURL,
		"GDRIVE_CLIENT_ID":      c.GDriveClientID,
		"GDRIVE_CLIENT_SECRET":  c.GDriveClientSecret,
		"GDRIVE_REFRESH_TOKEN":  c.GDriveRefreshToken,
		"GCS_BUCKET":            c.GCSBucket,
	}

	var missing []string
	for _, k := range keys {
		if strings.TrimSpace(values[k]) == "" {
			missing = append(missing, k)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required environment: %s", strings.Join(missing, ", "))
	}
	return nil
}

func getEnv(key, def string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	return v
}

// boolEnv accepts whatever strconv.ParseBool accepts; anything else is def.
func boolEnv(key string, def bool) bool {
	b, err := strconv.ParseBool(getEnv(key, ""))
	if err != nil {
		return def
	}
	return b
}

func intEnv(key string, def int) int {
	n, err := strconv.Atoi(getEnv(key, ""))
	if err != nil || n <= 0 {
		return def
	}
	return n
}

func durationEnv(key string, def time.Duration) time.Duration {
	d, err := time.ParseDuration(getEnv(key, ""))
	if err != nil || d <= 0 {
		return def
	}
	return d
}
