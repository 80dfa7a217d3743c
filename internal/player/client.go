package player

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/Nixie-Tech-LLC/cartelera/internal/http/api/tv/packets"
	"github.com/Nixie-Tech-LLC/cartelera/internal/model"
)

// ErrPlaylistNotFound means the shareable URL answered 404.
var ErrPlaylistNotFound = errors.New("playlist not found on server")

// Client polls the public playback URL with conditional requests.
type Client struct {
	http     *http.Client
	endpoint string
}

func NewClient(serverURL, playlistID string, timeout time.Duration) *Client {
	return &Client{
		http:     &http.Client{Timeout: timeout},
		endpoint: strings.TrimSuffix(serverURL, "/") + "/playlist/" + url.PathEscape(playlistID),
	}
}

// Fetch returns the playlist when it differs from etag. A nil payload with
// a nil error means the server answered 304.
func (c *Client) Fetch(ctx context.Context, etag string) (*packets.PlaybackResponse, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint, nil)
	if err != nil {
		return nil, "", err
	}
	req.Header.Set("Accept", "application/json")
	if etag != "" {
		req.Header.Set("If-None-Match", etag)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("fetch playlist: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusNotModified:
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, etag, nil
	case http.StatusOK:
	case http.StatusNotFound:
		return nil, "", ErrPlaylistNotFound
	default:
		return nil, "", fmt.Errorf("fetch playlist: unexpected status %d", resp.StatusCode)
	}

	var payload packets.PlaybackResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, "", fmt.Errorf("decode playlist: %w", err)
	}
	return &payload, resp.Header.Get("ETag"), nil
}

// Items converts the wire payload into engine items.
func Items(p *packets.PlaybackResponse) []model.PlaylistItem {
	out := make([]model.PlaylistItem, len(p.Items))
	for i, it := range p.Items {
		out[i] = model.PlaylistItem{
			Name:            it.Name,
			URL:             it.URL,
			Kind:            model.MediaKind(it.Kind),
			VideoKind:       model.VideoKind(it.VideoKind),
			DurationSeconds: it.DurationSeconds,
		}
	}
	return out
}
