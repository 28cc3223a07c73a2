// Package handlers implements the HTTP surface of the API process.
package handlers

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/VivekAsole/video-processing-backend/internal/jobs"
	"github.com/VivekAsole/video-processing-backend/internal/media/ffprobe"
	"github.com/VivekAsole/video-processing-backend/internal/models"
	"github.com/VivekAsole/video-processing-backend/internal/pkg/logger"
	"github.com/VivekAsole/video-processing-backend/internal/ports"
)

type VideoStore interface {
	Create(ctx context.Context, v *models.VideoAsset) error
	Get(ctx context.Context, id string) (*models.VideoAsset, error)
	List(ctx context.Context) ([]models.VideoAsset, error)
}

type TrimmedVideoStore interface {
	Create(ctx context.Context, v *models.TrimmedVideoAsset) error
	Get(ctx context.Context, id string) (*models.TrimmedVideoAsset, error)
}

type Dispatcher interface {
	Dispatch(ctx context.Context, p jobs.Payload) (string, error)
}

type StatusReader interface {
	Status(ctx context.Context, id string) (jobs.StatusView, error)
}

type Prober interface {
	Inspect(ctx context.Context, path string) (ffprobe.Result, error)
}

type Trimmer interface {
	Trim(ctx context.Context, in, out string, start, end float64) error
}

// Pinger is anything the deep health check can ping.
type Pinger interface {
	Ping(ctx context.Context) error
}

type Deps struct {
	Videos     VideoStore
	Trimmed    TrimmedVideoStore
	Records    jobs.RecordStore
	Dispatcher Dispatcher
	Tracker    StatusReader
	SP         ports.StorageProvider
	Prober     Prober
	Trimmer    Trimmer
	Namer      jobs.Namer

	// Pool and Queue are only used by the deep health check; either may be
	// nil.
	Pool  *pgxpool.Pool
	Queue Pinger

	// WorkDir holds uploads while they are probed and trims while they are
	// cut.
	WorkDir        string
	MaxUploadBytes int64
	Log            *logger.Logger
}

type Handler struct {
	videos     VideoStore
	trimmed    TrimmedVideoStore
	records    jobs.RecordStore
	dispatcher Dispatcher
	tracker    StatusReader
	sp         ports.StorageProvider
	prober     Prober
	trimmer    Trimmer
	namer      jobs.Namer

	pool  *pgxpool.Pool
	queue Pinger

	workDir        string
	maxUploadBytes int64
	log            *logger.Logger
}

func New(d Deps) *Handler {
	log := d.Log
	if log == nil {
		log = logger.Discard()
	}
	maxUpload := d.MaxUploadBytes
	if maxUpload <= 0 {
		maxUpload = 512 << 20
	}
	return &Handler{
		videos:         d.Videos,
		trimmed:        d.Trimmed,
		records:        d.Records,
		dispatcher:     d.Dispatcher,
		tracker:        d.Tracker,
		sp:             d.SP,
		prober:         d.Prober,
		trimmer:        d.Trimmer,
		namer:          d.Namer,
		pool:           d.Pool,
		queue:          d.Queue,
		workDir:        d.WorkDir,
		maxUploadBytes: maxUpload,
		log:            log.WithComponent("api"),
	}
}

// newAssetID returns a 32 character hex id.
func newAssetID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}
