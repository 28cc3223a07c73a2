package jobs

import (
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
)

// DefaultExt is used when a source file has no extension.
const DefaultExt = ".mp4"

// Namer mints stored filenames of the form video_<UTC YYYYmmdd_HHMMSS>.<ext>.
// With Unique set a short random suffix is appended so two names minted in
// the same second never collide.
type Namer struct {
	Unique bool
	Now    func() time.Time
}

// Name mints a filename carrying ext, which may be given with or without the
// leading dot.
func (n Namer) Name(ext string) string {
	now := time.Now
	if n.Now != nil {
		now = n.Now
	}

	ext = strings.ToLower(strings.TrimSpace(ext))
	if ext == "" || ext == "." {
		ext = DefaultExt
	} else if !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}

	name := "video_" + now().UTC().Format("20060102_150405")
	if n.Unique {
		name += "_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	}
	return name + ext
}

// NameLike mints a filename with the extension of source.
func (n Namer) NameLike(source string) string {
	return n.Name(path.Ext(source))
}
