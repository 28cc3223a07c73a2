package overlay

import (
	"fmt"

	"github.com/VivekAsole/video-processing-backend/internal/pkg/errors"
)

// FileResolver maps an upload form key to the storage key of the stored file.
type FileResolver interface {
	ResolveFile(fileKey string) (string, bool)
}

// StoredFiles is a FileResolver backed by a map of form key to storage key.
type StoredFiles map[string]string

func (m StoredFiles) ResolveFile(fileKey string) (string, bool) {
	key, ok := m[fileKey]
	return key, ok && key != ""
}

// Resolved is a validated spec paired with the storage key of its media.
// Source is empty for text overlays.
type Resolved struct {
	Spec
	Source string `json:"source,omitempty"`
}

// Resolve returns a new list in which every media overlay carries its
// storage key. specs is not modified.
func Resolve(specs []Spec, files FileResolver) ([]Resolved, error) {
	out := make([]Resolved, len(specs))
	for i, s := range specs {
		out[i] = Resolved{Spec: s}
		if !s.Kind.HasMedia() {
			continue
		}
		if s.Media == nil {
			return nil, errors.Validation(fmt.Sprintf("Overlay %d: Missing or invalid file for overlay", i+1))
		}
		key, ok := files.ResolveFile(s.Media.FileKey)
		if !ok {
			return nil, errors.Validation(fmt.Sprintf("Overlay %d: Missing or invalid file for overlay", i+1)).
				WithField("file_key", s.Media.FileKey)
		}
		out[i].Source = key
	}
	return out, nil
}

// MediaSources lists the storage keys of media overlays in list order. This
// is the order in which the renderer receives its extra inputs.
func MediaSources(resolved []Resolved) []string {
	var keys []string
	for _, r := range resolved {
		if r.Kind.HasMedia() {
			keys = append(keys, r.Source)
		}
	}
	return keys
}
