package storage

import "github.com/VivekAsole/video-processing-backend/internal/ports"

// Provider is the storage contract used across API and worker.
type Provider = ports.StorageProvider

// Object key prefixes.
const (
	PrefixVideos       = "videos"
	PrefixOverlayItems = "overlay_items"
	PrefixOverlays     = "overlays"
)

// Key joins a prefix and a stored filename into an object key.
func Key(prefix, filename string) string {
	return prefix + "/" + filename
}
