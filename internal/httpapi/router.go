// Package httpapi assembles the API router.
package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/VivekAsole/video-processing-backend/internal/httpapi/handlers"
	"github.com/VivekAsole/video-processing-backend/internal/httpkit"
	"github.com/VivekAsole/video-processing-backend/internal/pkg/logger"
	"github.com/VivekAsole/video-processing-backend/internal/pkg/middleware"
)

type Deps struct {
	Handlers    handlers.Deps
	CORSOrigins []string
	Log         *logger.Logger
}

func NewRouter(d Deps) http.Handler {
	log := d.Log
	if log == nil {
		log = logger.Discard()
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logging(log))
	r.Use(middleware.Recovery(log))
	r.Use(httpkit.CORS(httpkit.CORSOptions{
		AllowedOrigins: d.CORSOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type", "Accept", "X-Request-ID"},
		ExposedHeaders: []string{"Content-Disposition", "X-Request-ID", "X-Trimmed-Video-ID"},
		MaxAgeSeconds:  600,
	}))

	if d.Handlers.Log == nil {
		d.Handlers.Log = log
	}
	h := handlers.New(d.Handlers)
	wrap := func(fn middleware.ErrorHandlerFunc) http.HandlerFunc {
		return middleware.WrapHandler(log, fn)
	}

	// ---- HEALTH ----
	r.Get("/health", h.Health)

	// ---- VIDEOS ----
	r.Route("/video", func(r chi.Router) {
		r.Post("/upload", wrap(h.UploadVideo))
		r.Get("/get", wrap(h.ListVideos))
		r.Post("/trim", wrap(h.TrimVideo))
	})

	// ---- OVERLAYS ----
	r.Route("/process", func(r chi.Router) {
		r.Post("/overlay", wrap(h.PostOverlay))
		r.Get("/status/{jobId}", wrap(h.OverlayStatus))
		r.Get("/result/{jobId}", wrap(h.OverlayResult))
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		httpkit.WriteErr(w, http.StatusNotFound, "NOT_FOUND", "route not found", nil)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		httpkit.WriteErr(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "method not allowed", nil)
	})

	return r
}
