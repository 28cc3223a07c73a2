package worker

import (
	"github.com/VivekAsole/video-processing-backend/internal/jobs"
	"github.com/VivekAsole/video-processing-backend/internal/pkg/logger"
	"github.com/VivekAsole/video-processing-backend/internal/ports"
	"github.com/VivekAsole/video-processing-backend/internal/worker/renderer"
)

type Deps struct {
	Queue    jobs.Dequeuer
	Store    jobs.Store
	Records  jobs.RecordStore
	Renderer renderer.Client
	SP       ports.StorageProvider

	WorkDir      string
	CleanupLocal bool
	Namer        jobs.Namer
	// Concurrency is the number of jobs run in parallel; values below 1
	// mean 1.
	Concurrency int
	Log         *logger.Logger
}
