package endpoints

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/Nixie-Tech-LLC/cartelera/internal/db"
	"github.com/Nixie-Tech-LLC/cartelera/internal/http/api"
	"github.com/Nixie-Tech-LLC/cartelera/internal/http/api/tv/packets"
	"github.com/Nixie-Tech-LLC/cartelera/internal/metrics"
	"github.com/Nixie-Tech-LLC/cartelera/internal/model"
	"github.com/Nixie-Tech-LLC/cartelera/internal/playlist"
	"github.com/Nixie-Tech-LLC/cartelera/internal/redis"
)

// ETagTTL bounds how long a cached ETag outlives the last save or read.
const ETagTTL = 24 * time.Hour

// PlaylistReader is the part of db.Store the public endpoint reads.
type PlaylistReader interface {
	GetPlaylist(ctx context.Context, id string) (model.Playlist, error)
}

type PlaybackController struct {
	store   PlaylistReader
	cache   *redis.Client
	metrics *metrics.Metrics
}

// PlaybackModule mounts the shareable playback URL. It needs no auth: the
// playlist id is the capability.
func PlaybackModule(store PlaylistReader, cache *redis.Client, m *metrics.Metrics) api.Module {
	ctl := &PlaybackController{store: store, cache: cache, metrics: m}
	return api.ModuleFunc(func(c *api.Controller) {
		c.PUBLIC_GET("/playlist/:id", ctl.getPlayback)
	})
}

// BuildPayload renders a playlist the way players consume it.
func BuildPayload(pl model.Playlist) packets.PlaybackResponse {
	items := make([]packets.PlaybackItem, len(pl.Items))
	for i, it := range pl.Items {
		url := it.URL
		if it.VideoKind == model.VideoKindYouTube {
			url = playlist.EmbedURL(it.URL)
		}
		items[i] = packets.PlaybackItem{
			Name:            it.Name,
			URL:             url,
			Kind:            string(it.Kind),
			VideoKind:       string(it.VideoKind),
			DurationSeconds: it.DurationSeconds,
		}
	}
	return packets.PlaybackResponse{ID: pl.ID, Name: pl.Name, Items: items}
}

// ETag is the quoted sha256 of an encoded payload.
func ETag(body []byte) string {
	sum := sha256.Sum256(body)
	return `"` + hex.EncodeToString(sum[:]) + `"`
}

// Encode renders pl as the playback body and returns it with its ETag.
func Encode(pl model.Playlist) ([]byte, string, error) {
	body, err := json.Marshal(BuildPayload(pl))
	if err != nil {
		return nil, "", err
	}
	return body, ETag(body), nil
}

// etagMatches implements the weak comparison If-None-Match asks for.
func etagMatches(header, etag string) bool {
	if header == "" || etag == "" {
		return false
	}
	for _, candidate := range strings.Split(header, ",") {
		candidate = strings.TrimSpace(candidate)
		if candidate == "*" || strings.TrimPrefix(candidate, "W/") == etag {
			return true
		}
	}
	return false
}

func (p *PlaybackController) notModified(ctx *gin.Context, etag string) (any, *api.APIError) {
	p.metrics.IncPlayback("not_modified")
	ctx.Header("ETag", etag)
	return api.Response{Code: http.StatusNotModified}, nil
}

// GET /playlist/:id
func (p *PlaybackController) getPlayback(ctx *gin.Context) (any, *api.APIError) {
	id := ctx.Param("id")
	etagKey := redis.PlaylistETagKey(id)
	ifNoneMatch := ctx.GetHeader("If-None-Match")

	// a cached ETag answers unchanged polls without touching the database
	if cached, err := p.cache.Get(ctx.Request.Context(), etagKey); err == nil && etagMatches(ifNoneMatch, cached) {
		return p.notModified(ctx, cached)
	}

	pl, err := p.store.GetPlaylist(ctx.Request.Context(), id)
	if errors.Is(err, db.ErrNotFound) {
		p.metrics.IncPlayback("not_found")
		return nil, api.NotFound("playlist not found")
	}
	if err != nil {
		log.Error().Err(err).Str("playlist_id", id).Msg("[playback] could not load playlist")
		return nil, api.Internal("could not load playlist")
	}

	body, etag, err := Encode(pl)
	if err != nil {
		return nil, api.Internal("could not encode playlist")
	}
	// saves write the key themselves; a read that raced one must not put
	// an older tag back
	if _, err := p.cache.SetNX(ctx.Request.Context(), etagKey, etag, ETagTTL); err != nil {
		log.Debug().Err(err).Str("etag_key", etagKey).Msg("[playback] ETag not cached")
	}

	if etagMatches(ifNoneMatch, etag) {
		return p.notModified(ctx, etag)
	}

	p.metrics.IncPlayback("ok")
	ctx.Header("ETag", etag)
	ctx.Header("Cache-Control", "no-cache")
	ctx.Data(http.StatusOK, "application/json; charset=utf-8", body)
	return nil, nil
}
