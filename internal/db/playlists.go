package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"
	"github.com/rs/zerolog/log"

	"github.com/Nixie-Tech-LLC/cartelera/internal/model"
)

// playlistRow is the storage shape of a playlist: the item array and the
// schedule live in JSONB columns, targets in native postgres arrays.
type playlistRow struct {
	ID          string         `db:"id"`
	Name        string         `db:"name"`
	Items       string         `db:"items"`
	CompanyID   sql.NullInt64  `db:"company_id"`
	BranchIDs   pq.Int64Array  `db:"branch_ids"`
	DeviceTypes pq.StringArray `db:"device_types"`
	Schedule    sql.NullString `db:"schedule"`
	UpdatedAt   time.Time      `db:"updated_at"`
}

func toRow(p model.Playlist) (playlistRow, error) {
	items := p.Items
	if items == nil {
		items = []model.PlaylistItem{}
	}
	itemsJSON, err := json.Marshal(items)
	if err != nil {
		return playlistRow{}, fmt.Errorf("encode items: %w", err)
	}

	row := playlistRow{
		ID:        p.ID,
		Name:      p.Name,
		Items:     string(itemsJSON),
		BranchIDs: pq.Int64Array(p.BranchIDs),
		UpdatedAt: p.UpdatedAt,
	}
	if row.BranchIDs == nil {
		row.BranchIDs = pq.Int64Array{}
	}
	row.DeviceTypes = make(pq.StringArray, len(p.DeviceTypes))
	for i, d := range p.DeviceTypes {
		row.DeviceTypes[i] = string(d)
	}
	if p.CompanyID != nil {
		row.CompanyID = sql.NullInt64{Int64: *p.CompanyID, Valid: true}
	}
	if p.Schedule != nil {
		raw, err := json.Marshal(p.Schedule)
		if err != nil {
			return playlistRow{}, fmt.Errorf("encode schedule: %w", err)
		}
		row.Schedule = sql.NullString{String: string(raw), Valid: true}
	}
	return row, nil
}

func (r playlistRow) toModel() (model.Playlist, error) {
	p := model.Playlist{
		ID:        r.ID,
		Name:      r.Name,
		BranchIDs: []int64(r.BranchIDs),
		UpdatedAt: r.UpdatedAt,
	}
	if len(r.Items) > 0 {
		if err := json.Unmarshal([]byte(r.Items), &p.Items); err != nil {
			return model.Playlist{}, fmt.Errorf("decode items of %s: %w", r.ID, err)
		}
	}
	if p.Items == nil {
		p.Items = []model.PlaylistItem{}
	}
	if p.BranchIDs == nil {
		p.BranchIDs = []int64{}
	}
	p.DeviceTypes = make([]model.DeviceType, 0, len(r.DeviceTypes))
	for _, d := range r.DeviceTypes {
		p.DeviceTypes = append(p.DeviceTypes, model.DeviceType(d))
	}
	if r.CompanyID.Valid {
		id := r.CompanyID.Int64
		p.CompanyID = &id
	}
	if r.Schedule.Valid && r.Schedule.String != "null" {
		var s model.ScheduleWindow
		if err := json.Unmarshal([]byte(r.Schedule.String), &s); err != nil {
			return model.Playlist{}, fmt.Errorf("decode schedule of %s: %w", r.ID, err)
		}
		p.Schedule = &s
	}
	return p, nil
}

// SavePlaylist upserts the whole playlist. The row is overwritten, so the
// last writer wins.
func (s *pgStore) SavePlaylist(ctx context.Context, p model.Playlist) (model.Playlist, error) {
	row, err := toRow(p)
	if err != nil {
		return model.Playlist{}, err
	}

	const q = `
	INSERT INTO playlists (id, name, items, company_id, branch_ids, device_types, schedule, updated_at)
	VALUES (:id, :name, :items, :company_id, :branch_ids, :device_types, :schedule, now())
	ON CONFLICT (id) DO UPDATE SET
		name         = EXCLUDED.name,
		items        = EXCLUDED.items,
		company_id   = EXCLUDED.company_id,
		branch_ids   = EXCLUDED.branch_ids,
		device_types = EXCLUDED.device_types,
		schedule     = EXCLUDED.schedule,
		updated_at   = now()
	RETURNING updated_at;`

	rows, err := s.db.NamedQueryContext(ctx, q, row)
	if err != nil {
		log.Error().Err(err).Str("playlist_id", p.ID).Msg("[db] SavePlaylist: upsert failed")
		return model.Playlist{}, err
	}
	defer rows.Close()

	saved := p.Clone()
	if rows.Next() {
		if err := rows.Scan(&saved.UpdatedAt); err != nil {
			return model.Playlist{}, err
		}
	}
	return saved, rows.Err()
}

func (s *pgStore) GetPlaylist(ctx context.Context, id string) (model.Playlist, error) {
	var row playlistRow
	const q = `
	SELECT id, name, items, company_id, branch_ids, device_types, schedule, updated_at
	FROM playlists
	WHERE id = $1;`
	if err := s.db.GetContext(ctx, &row, q, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Playlist{}, ErrNotFound
		}
		log.Error().Err(err).Str("playlist_id", id).Msg("[db] GetPlaylist: query failed")
		return model.Playlist{}, err
	}
	return row.toModel()
}

// ListPlaylists returns the entire table. Search filters it in memory.
func (s *pgStore) ListPlaylists(ctx context.Context) ([]model.Playlist, error) {
	var rows []playlistRow
	const q = `
	SELECT id, name, items, company_id, branch_ids, device_types, schedule, updated_at
	FROM playlists
	ORDER BY updated_at DESC;`
	if err := s.db.SelectContext(ctx, &rows, q); err != nil {
		log.Error().Err(err).Msg("[db] ListPlaylists: failed to select playlists")
		return nil, err
	}

	out := make([]model.Playlist, 0, len(rows))
	for _, r := range rows {
		p, err := r.toModel()
		if err != nil {
			log.Warn().Err(err).Str("playlist_id", r.ID).Msg("[db] ListPlaylists: skipping undecodable row")
			continue
		}
		out = append(out, p)
	}
	return out, nil
}
