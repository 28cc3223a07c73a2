package processor

import (
	"io"
	"path"
	"strings"
)

// ExtFromMime returns the file extension for the media types the service
// stores, or "" when unknown.
func ExtFromMime(mime string) string {
	mime = strings.ToLower(strings.TrimSpace(mime))
	if i := strings.IndexByte(mime, ';'); i >= 0 {
		mime = strings.TrimSpace(mime[:i])
	}
	switch mime {
	case "image/jpeg", "image/jpg":
		return ".jpg"
	case "image/png":
		return ".png"
	case "image/gif":
		return ".gif"
	case "image/bmp":
		return ".bmp"
	case "image/tiff":
		return ".tiff"
	case "video/mp4":
		return ".mp4"
	case "video/quicktime":
		return ".mov"
	case "video/webm":
		return ".webm"
	case "video/x-matroska":
		return ".mkv"
	default:
		return ""
	}
}

// localExt picks the extension of a materialised object. The key wins;
// providers whose keys are opaque ids fall back to the content type.
func localExt(objectKey, contentType string) string {
	if ext := strings.ToLower(path.Ext(objectKey)); ext != "" && len(ext) <= 6 {
		return ext
	}
	return ExtFromMime(contentType)
}

// needsNormalise reports whether a still image is rewritten to PNG before
// rendering. PNG already carries no orientation tag.
func needsNormalise(ext string) bool {
	switch ext {
	case ".jpg", ".jpeg", ".tif", ".tiff", ".bmp":
		return true
	}
	return false
}

// copyClose copies r into w and closes w. The Close error is returned when
// the copy itself succeeded.
func copyClose(w io.WriteCloser, r io.Reader) (err error) {
	defer func() {
		if cerr := w.Close(); err == nil {
			err = cerr
		}
	}()
	_, err = io.Copy(w, r)
	return err
}
