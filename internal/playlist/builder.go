package playlist

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/Nixie-Tech-LLC/cartelera/internal/model"
)

// Verifier checks that a library image is reachable before it is selected.
type Verifier interface {
	Verify(ctx context.Context, url string) error
}

// MediaStore persists uploaded videos and returns the URL they are served from.
type MediaStore interface {
	Save(ctx context.Context, filename, contentType string, body io.Reader) (string, error)
}

// Builder holds one playlist being edited. All methods are safe for
// concurrent use.
type Builder struct {
	mu       sync.Mutex
	playlist model.Playlist

	verifier Verifier
	media    MediaStore
	probe    ProbeFunc
}

type BuilderOption func(*Builder)

func WithVerifier(v Verifier) BuilderOption     { return func(b *Builder) { b.verifier = v } }
func WithMediaStore(m MediaStore) BuilderOption { return func(b *Builder) { b.media = m } }
func WithProbe(p ProbeFunc) BuilderOption       { return func(b *Builder) { b.probe = p } }

func NewBuilder(opts ...BuilderOption) *Builder {
	b := &Builder{
		playlist: model.Playlist{Name: model.DefaultPlaylistName},
		probe:    ProbeMP4,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Snapshot returns a copy of the playlist as it currently stands.
func (b *Builder) Snapshot() model.Playlist {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.playlist.Clone()
}

// Replace discards the draft and loads p wholesale. Unsaved edits are lost.
func (b *Builder) Replace(p model.Playlist) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.playlist = p.Clone()
}

// MarkSaved records that the playlist with id was persisted at updatedAt.
// Edits made while the save was in flight stay in the draft. It reports
// false when the draft now holds a different playlist.
func (b *Builder) MarkSaved(id string, updatedAt time.Time) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.playlist.ID != id {
		return false
	}
	b.playlist.UpdatedAt = updatedAt
	return true
}

// Details are the metadata fields an operator can edit on a draft.
type Details struct {
	Name        *string
	CompanyID   *int64
	BranchIDs   []int64
	DeviceTypes []model.DeviceType
	Schedule    *model.ScheduleWindow
}

func (b *Builder) SetDetails(d Details) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if d.Name != nil {
		b.playlist.Name = *d.Name
	}
	if d.CompanyID != nil {
		id := *d.CompanyID
		b.playlist.CompanyID = &id
	}
	if d.BranchIDs != nil {
		b.playlist.BranchIDs = append([]int64(nil), d.BranchIDs...)
	}
	if d.DeviceTypes != nil {
		b.playlist.DeviceTypes = append([]model.DeviceType(nil), d.DeviceTypes...)
	}
	if d.Schedule != nil {
		s := *d.Schedule
		b.playlist.Schedule = &s
	}
}

// appendLocked mints the playlist id on the first item.
func (b *Builder) appendLocked(it model.PlaylistItem) error {
	if b.playlist.IndexOf(it.Name) >= 0 {
		return ErrDuplicateName
	}
	if b.playlist.ID == "" {
		b.playlist.ID = NewID()
		log.Debug().Str("playlist_id", b.playlist.ID).Msg("[builder] minted playlist id")
	}
	b.playlist.Items = append(b.playlist.Items, it)
	return nil
}

// ToggleResult tells the caller which way a library toggle went.
type ToggleResult string

const (
	ToggleAdded   ToggleResult = "added"
	ToggleRemoved ToggleResult = "removed"
)

// ToggleLibraryImage selects a library image, or deselects it when an item
// with the same name is already in the playlist.
func (b *Builder) ToggleLibraryImage(ctx context.Context, name, url string) (ToggleResult, error) {
	if name == "" {
		return "", ErrInvalidMediaName
	}

	b.mu.Lock()
	if idx := b.playlist.IndexOf(name); idx >= 0 {
		b.removeLocked(idx)
		b.mu.Unlock()
		return ToggleRemoved, nil
	}
	b.mu.Unlock()

	if b.verifier != nil {
		if err := b.verifier.Verify(ctx, url); err != nil {
			log.Warn().Err(err).Str("url", url).Msg("[builder] library image verification failed")
			return "", fmt.Errorf("%w: %v", ErrVerifyFailed, err)
		}
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	// someone may have added it while we were verifying
	if b.playlist.IndexOf(name) >= 0 {
		return ToggleAdded, nil
	}
	if err := b.appendLocked(model.PlaylistItem{
		Name:            name,
		URL:             url,
		Kind:            model.MediaKindImage,
		DurationSeconds: DefaultImageDuration,
	}); err != nil {
		return "", err
	}
	return ToggleAdded, nil
}

// AddLocalImages validates each upload and appends the valid ones as data
// URIs. Invalid files are skipped and reported, never fatal.
func (b *Builder) AddLocalImages(uploads []Upload) ([]model.PlaylistItem, []FileError) {
	b.mu.Lock()
	defer b.mu.Unlock()

	var added []model.PlaylistItem
	var skipped []FileError
	for _, u := range uploads {
		if err := ValidateImage(u); err != nil {
			log.Warn().Err(err).Str("filename", u.Filename).Str("content_type", u.ContentType).
				Int64("size", u.Size()).Msg("[builder] image upload rejected")
			skipped = append(skipped, newFileError(u.Filename, err))
			continue
		}
		it := model.PlaylistItem{
			Name:            u.Filename,
			URL:             DataURI(u),
			Kind:            model.MediaKindImage,
			DurationSeconds: DefaultImageDuration,
		}
		if err := b.appendLocked(it); err != nil {
			skipped = append(skipped, newFileError(u.Filename, err))
			continue
		}
		added = append(added, it)
	}
	return added, skipped
}

// AddYouTubeVideo stores the URL as given; it is rewritten to embed form
// only when rendered for playback.
func (b *Builder) AddYouTubeVideo(url string) (model.PlaylistItem, error) {
	id, err := YouTubeID(url)
	if err != nil {
		return model.PlaylistItem{}, err
	}
	it := model.PlaylistItem{
		Name:            "youtube-" + id,
		URL:             url,
		Kind:            model.MediaKindVideo,
		VideoKind:       model.VideoKindYouTube,
		DurationSeconds: DefaultVideoDuration,
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.appendLocked(it); err != nil {
		return model.PlaylistItem{}, err
	}
	return it, nil
}

// AddLocalVideo probes the file's duration, falling back to
// DefaultVideoDuration when the container can't be read, then streams it to
// media storage.
func (b *Builder) AddLocalVideo(ctx context.Context, v VideoUpload) (model.PlaylistItem, error) {
	if v.Filename == "" {
		return model.PlaylistItem{}, ErrInvalidMediaName
	}
	b.mu.Lock()
	dup := b.playlist.IndexOf(v.Filename) >= 0
	b.mu.Unlock()
	if dup {
		return model.PlaylistItem{}, ErrDuplicateName
	}
	if b.media == nil {
		return model.PlaylistItem{}, fmt.Errorf("no media store configured")
	}

	seconds := videoDurationSeconds(b.probe, v.Body)
	if _, err := v.Body.Seek(0, io.SeekStart); err != nil {
		return model.PlaylistItem{}, fmt.Errorf("rewind %s: %w", v.Filename, err)
	}
	url, err := b.media.Save(ctx, v.Filename, normalizeMimeType(v.ContentType), v.Body)
	if err != nil {
		return model.PlaylistItem{}, fmt.Errorf("store video: %w", err)
	}

	it := model.PlaylistItem{
		Name:            v.Filename,
		URL:             url,
		Kind:            model.MediaKindVideo,
		VideoKind:       model.VideoKindLocal,
		DurationSeconds: seconds,
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.appendLocked(it); err != nil {
		return model.PlaylistItem{}, err
	}
	return it, nil
}

// MoveItem moves source into target's slot, shifting the items between
// them by one and leaving every other relative order untouched.
func (b *Builder) MoveItem(source, target string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if source == target {
		return nil
	}
	from := b.playlist.IndexOf(source)
	to := b.playlist.IndexOf(target)
	if from < 0 || to < 0 {
		return ErrItemNotFound
	}
	b.playlist.Items = moveItem(b.playlist.Items, from, to)
	return nil
}

func moveItem(items []model.PlaylistItem, from, to int) []model.PlaylistItem {
	moved := items[from]
	out := make([]model.PlaylistItem, 0, len(items))
	out = append(out, items[:from]...)
	out = append(out, items[from+1:]...)
	out = append(out[:to], append([]model.PlaylistItem{moved}, out[to:]...)...)
	return out
}

// UpdateDuration sets an item's display time. Unknown names are ignored.
func (b *Builder) UpdateDuration(name string, seconds int) error {
	if !IsAllowedDuration(seconds) {
		return ErrInvalidDuration
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if idx := b.playlist.IndexOf(name); idx >= 0 {
		b.playlist.Items[idx].DurationSeconds = seconds
	}
	return nil
}

// Remove deletes by position. Playback cursors are not adjusted here; the
// engine bounds-checks when the new item list is loaded.
func (b *Builder) Remove(index int) (model.PlaylistItem, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if index < 0 || index >= len(b.playlist.Items) {
		return model.PlaylistItem{}, ErrIndexOutOfRange
	}
	return b.removeLocked(index), nil
}

func (b *Builder) removeLocked(index int) model.PlaylistItem {
	removed := b.playlist.Items[index]
	b.playlist.Items = append(b.playlist.Items[:index:index], b.playlist.Items[index+1:]...)
	return removed
}
