package storage

import (
	"context"
	"fmt"
	"io"
	"mime"
	"path/filepath"
	"regexp"
	"strings"
	"time"
)

// Object describes one stored file.
type Object struct {
	Key         string    `json:"key"`
	Name        string    `json:"name"`
	URL         string    `json:"url"`
	Size        int64     `json:"size"`
	ContentType string    `json:"content_type"`
	ModifiedAt  time.Time `json:"modified_at"`
}

// IsImage reports whether the object's content type is image/*.
func (o Object) IsImage() bool {
	return strings.HasPrefix(o.ContentType, "image/")
}

// Storage saves uploaded media and lists the media library.
type Storage interface {
	Save(ctx context.Context, filename, contentType string, body io.Reader) (string, error)
	List(ctx context.Context, prefix string) ([]Object, error)
}

// UploadPrefix is where Save puts new files.
const UploadPrefix = "uploads"

var unsafeChars = regexp.MustCompile(`[^a-zA-Z0-9_-]`)

// normalizeFilename creates a unique, normalized filename without spaces
func normalizeFilename(originalFilename string, now time.Time) string {
	ext := strings.ToLower(filepath.Ext(originalFilename))
	baseName := strings.TrimSuffix(filepath.Base(originalFilename), filepath.Ext(originalFilename))

	baseName = strings.ReplaceAll(baseName, " ", "_")
	baseName = unsafeChars.ReplaceAllString(baseName, "")
	if baseName == "" {
		baseName = "file"
	}

	// timestamp keeps repeated uploads of the same name apart
	return fmt.Sprintf("%s_%s%s", baseName, now.Format("20060102_150405.000"), ext)
}

// video types missing from Go's built-in table and from minimal containers'
// /etc/mime.types
func init() {
	for ext, typ := range map[string]string{
		".mp4":  "video/mp4",
		".webm": "video/webm",
		".mov":  "video/quicktime",
	} {
		if mime.TypeByExtension(ext) == "" {
			_ = mime.AddExtensionType(ext, typ)
		}
	}
}

func contentTypeFor(filename string) string {
	typ := mime.TypeByExtension(strings.ToLower(filepath.Ext(filename)))
	if typ == "" {
		return "application/octet-stream"
	}
	if mediaType, _, err := mime.ParseMediaType(typ); err == nil {
		return mediaType
	}
	return typ
}

func joinURL(base, key string) string {
	return strings.TrimSuffix(base, "/") + "/" + strings.TrimPrefix(key, "/")
}
