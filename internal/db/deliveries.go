package db

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/Nixie-Tech-LLC/cartelera/internal/model"
)

// RecordDelivery appends one row to the send history.
func (s *pgStore) RecordDelivery(ctx context.Context, d model.Delivery) error {
	const q = `
	INSERT INTO deliveries (batch_id, playlist_id, branch_id, status, sent_at)
	VALUES ($1, $2, $3, $4, $5);`
	if _, err := s.db.ExecContext(ctx, q, d.BatchID, d.PlaylistID, d.BranchID, d.Status, d.SentAt); err != nil {
		log.Error().Err(err).
			Str("playlist_id", d.PlaylistID).
			Int64("branch_id", d.BranchID).
			Msg("[db] RecordDelivery: insert failed")
		return err
	}
	return nil
}

// ListDeliveries returns the newest history rows first. An empty playlistID
// lists every playlist.
func (s *pgStore) ListDeliveries(ctx context.Context, playlistID string, limit int) ([]model.Delivery, error) {
	if limit <= 0 {
		limit = 100
	}
	var out []model.Delivery
	const q = `
	SELECT id, batch_id, playlist_id, branch_id, status, sent_at
	FROM deliveries
	WHERE ($1 = '' OR playlist_id = $1)
	ORDER BY sent_at DESC, id DESC
	LIMIT $2;`
	if err := s.db.SelectContext(ctx, &out, q, playlistID, limit); err != nil {
		log.Error().Err(err).Msg("[db] ListDeliveries: query failed")
		return nil, err
	}
	return out, nil
}
