package playlist

import (
	"encoding/base64"
	"fmt"
	"io"
	"mime"
	"net/url"
	"slices"
	"strings"
	"time"
)

const (
	MaxImageBytes          = 5 * 1024 * 1024
	DefaultImageDuration   = 3
	DefaultVideoDuration   = 30
	youtubeEmbedPathPrefix = "/embed/"
)

// AllowedDurations is the fixed menu operators pick image durations from.
var AllowedDurations = []int{2, 3, 5, 8, 10, 15, 20, 30, 45, 60}

func IsAllowedDuration(seconds int) bool {
	return slices.Contains(AllowedDurations, seconds)
}

// VideoUpload is a video received from an operator. Body is streamed to
// media storage, never held in memory.
type VideoUpload struct {
	Filename    string
	ContentType string
	Body        io.ReadSeeker
}

// Upload is an image received from an operator, already read into memory.
type Upload struct {
	Filename    string
	ContentType string
	Data        []byte
}

func (u Upload) Size() int64 {
	return int64(len(u.Data))
}

func normalizeMimeType(value string) string {
	clean := strings.TrimSpace(value)
	if clean == "" {
		return ""
	}
	mediaType, _, err := mime.ParseMediaType(clean)
	if err != nil {
		return strings.ToLower(clean)
	}
	return strings.ToLower(mediaType)
}

// ValidateImage enforces the image/* type and the 5 MB ceiling.
func ValidateImage(u Upload) error {
	if !strings.HasPrefix(normalizeMimeType(u.ContentType), "image/") {
		return ErrNotAnImage
	}
	if u.Size() > MaxImageBytes {
		return ErrFileTooLarge
	}
	return nil
}

// DataURI encodes the upload so it can be embedded in the playlist row.
func DataURI(u Upload) string {
	return fmt.Sprintf("data:%s;base64,%s", normalizeMimeType(u.ContentType), base64.StdEncoding.EncodeToString(u.Data))
}

// YouTubeID extracts the video id from watch, short and embed URLs.
func YouTubeID(raw string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || u.Host == "" {
		return "", ErrInvalidYouTube
	}
	host := strings.TrimPrefix(strings.ToLower(u.Host), "www.")
	host = strings.TrimPrefix(host, "m.")

	var id string
	switch host {
	case "youtube.com", "youtube-nocookie.com":
		switch {
		case u.Path == "/watch":
			id = u.Query().Get("v")
		case strings.HasPrefix(u.Path, youtubeEmbedPathPrefix):
			id = strings.TrimPrefix(u.Path, youtubeEmbedPathPrefix)
		case strings.HasPrefix(u.Path, "/shorts/"):
			id = strings.TrimPrefix(u.Path, "/shorts/")
		}
	case "youtu.be":
		id = strings.TrimPrefix(u.Path, "/")
	}
	id = strings.Trim(id, "/")
	if id == "" || strings.Contains(id, "/") {
		return "", ErrInvalidYouTube
	}
	return id, nil
}

// EmbedURL rewrites a YouTube URL into its embeddable form. URLs that are
// already embeds, or that can't be parsed, fall back to the plain
// watch?v= -> embed/ substitution.
func EmbedURL(raw string) string {
	id, err := YouTubeID(raw)
	if err != nil {
		return strings.Replace(raw, "watch?v=", "embed/", 1)
	}
	return "https://www.youtube.com/embed/" + id
}

// ProbeFunc reads a video's duration. Any error makes the caller fall back
// to DefaultVideoDuration.
type ProbeFunc func(r io.ReadSeeker) (time.Duration, error)

func videoDurationSeconds(probe ProbeFunc, r io.ReadSeeker) int {
	if probe == nil {
		return DefaultVideoDuration
	}
	d, err := probe(r)
	if err != nil || d <= 0 {
		return DefaultVideoDuration
	}
	secs := int(d.Round(time.Second) / time.Second)
	if secs < 1 {
		secs = 1
	}
	return secs
}
