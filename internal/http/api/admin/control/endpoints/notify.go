package endpoints

import (
	"context"

	"github.com/rs/zerolog/log"

	playbackapi "github.com/Nixie-Tech-LLC/cartelera/internal/http/api/tv/endpoints"
	"github.com/Nixie-Tech-LLC/cartelera/internal/model"
	"github.com/Nixie-Tech-LLC/cartelera/internal/mqtt"
	"github.com/Nixie-Tech-LLC/cartelera/internal/redis"
)

// Notifier tells players that a saved playlist changed: the cached ETag is
// replaced with the saved content's tag, and an MQTT message asks subscribed
// players to re-fetch right away.
type Notifier struct {
	cache     *redis.Client
	publisher mqtt.Publisher
}

func NewNotifier(cache *redis.Client, publisher mqtt.Publisher) *Notifier {
	if publisher == nil {
		publisher = mqtt.Noop{}
	}
	return &Notifier{cache: cache, publisher: publisher}
}

func (n *Notifier) PlaylistSaved(ctx context.Context, saved model.Playlist) {
	if n == nil {
		return
	}
	n.refreshETag(ctx, saved)

	if err := n.publisher.PublishPlaylistUpdated(saved.ID); err != nil {
		log.Warn().Err(err).Str("playlist_id", saved.ID).Msg("failed to publish playlist update")
		return
	}
	log.Info().Str("playlist_id", saved.ID).Msg("playlist updated - notified players")
}

// refreshETag overwrites the cached tag. Dropping it instead would let a
// read that started before the save cache the old tag again.
func (n *Notifier) refreshETag(ctx context.Context, saved model.Playlist) {
	etagKey := redis.PlaylistETagKey(saved.ID)
	_, etag, err := playbackapi.Encode(saved)
	if err == nil {
		err = n.cache.Set(ctx, etagKey, etag, playbackapi.ETagTTL)
	}
	if err == nil {
		log.Debug().Str("playlist_id", saved.ID).Str("etag_key", etagKey).Msg("refreshed playlist ETag cache")
		return
	}
	log.Warn().Err(err).Str("playlist_id", saved.ID).Str("etag_key", etagKey).
		Msg("failed to refresh playlist ETag cache, dropping it")
	if err := n.cache.Del(ctx, etagKey); err != nil {
		log.Warn().Err(err).Str("etag_key", etagKey).Msg("failed to invalidate playlist ETag cache")
	}
}
