package db

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Nixie-Tech-LLC/cartelera/internal/model"
)

func samplePlaylist() model.Playlist {
	company := int64(4)
	return model.Playlist{
		ID:   "k3j9x0a1b",
		Name: "Promo verano",
		Items: []model.PlaylistItem{
			{Name: "banner.png", URL: "https://cdn.example/banner.png", Kind: model.MediaKindImage, DurationSeconds: 5},
			{Name: "youtube-abc", URL: "https://youtu.be/abc", Kind: model.MediaKindVideo, VideoKind: model.VideoKindYouTube, DurationSeconds: 30},
		},
		CompanyID:   &company,
		BranchIDs:   []int64{10, 11},
		DeviceTypes: []model.DeviceType{model.DeviceKiosk, model.DeviceTotem},
		Schedule:    &model.ScheduleWindow{StartDate: "2026-01-01", EndDate: "2026-02-01", StartTime: "08:00", EndTime: "20:00"},
	}
}

func TestPlaylistRowRoundTrip(t *testing.T) {
	p := samplePlaylist()

	row, err := toRow(p)
	require.NoError(t, err)
	assert.True(t, row.CompanyID.Valid)
	assert.True(t, row.Schedule.Valid)
	assert.Equal(t, []string{"kiosk", "totem"}, []string(row.DeviceTypes))

	back, err := row.toModel()
	require.NoError(t, err)
	assert.Equal(t, p, back)
}

func TestPlaylistRowEmptyFields(t *testing.T) {
	row, err := toRow(model.Playlist{ID: "abc", Name: model.DefaultPlaylistName})
	require.NoError(t, err)
	assert.Equal(t, "[]", row.Items)
	assert.False(t, row.CompanyID.Valid)
	assert.False(t, row.Schedule.Valid)
	assert.NotNil(t, row.BranchIDs)

	back, err := row.toModel()
	require.NoError(t, err)
	assert.Empty(t, back.Items)
	assert.NotNil(t, back.Items)
	assert.Nil(t, back.Schedule)
	assert.Nil(t, back.CompanyID)
}

func TestPlaylistRowCorruptItems(t *testing.T) {
	_, err := playlistRow{ID: "bad", Items: "{not json"}.toModel()
	assert.ErrorContains(t, err, "decode items of bad")
}

func TestSavePlaylistIntegration(t *testing.T) {
	if err := InitTestDB("../../migrations"); err != nil {
		t.Skipf("integration database unavailable: %v", err)
	}
	defer Close()
	ctx := context.Background()

	p := samplePlaylist()
	p.ID = newTestID(t)

	saved, err := TestStore.SavePlaylist(ctx, p)
	require.NoError(t, err)
	assert.False(t, saved.UpdatedAt.IsZero())

	p.Name = "Renamed"
	p.Items = p.Items[:1]
	_, err = TestStore.SavePlaylist(ctx, p)
	require.NoError(t, err)

	got, err := TestStore.GetPlaylist(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "Renamed", got.Name)
	assert.Len(t, got.Items, 1, "save overwrites the whole row")

	_, err = TestStore.GetPlaylist(ctx, "missing-id")
	assert.ErrorIs(t, err, ErrNotFound)
}

// newTestID returns an id unlikely to collide with rows left by other runs.
func newTestID(t *testing.T) string {
	t.Helper()
	return "t" + time.Now().Format("150405.000000")
}
