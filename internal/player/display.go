package player

import (
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/Nixie-Tech-LLC/cartelera/internal/model"
	"github.com/Nixie-Tech-LLC/cartelera/internal/playback"
)

// HeadlessDisplay logs what would be on screen. It has no video decoder, so
// a video "ends" once its nominal duration has elapsed.
type HeadlessDisplay struct {
	mu      sync.Mutex
	clock   playback.Clock
	onEnded func()
	video   playback.Timer
	shown   []string
}

func NewHeadlessDisplay(clock playback.Clock) *HeadlessDisplay {
	if clock == nil {
		clock = playback.RealClock()
	}
	return &HeadlessDisplay{clock: clock}
}

// OnVideoEnded sets the callback fired when a simulated video finishes.
// It runs on the clock's goroutine, never inside Show.
func (d *HeadlessDisplay) OnVideoEnded(f func()) {
	d.mu.Lock()
	d.onEnded = f
	d.mu.Unlock()
}

func (d *HeadlessDisplay) Show(index int, item model.PlaylistItem) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stopVideoLocked()
	d.shown = append(d.shown, item.Name)
	log.Info().Int("index", index).Str("name", item.Name).Str("kind", string(item.Kind)).
		Str("url", item.URL).Int("duration_seconds", item.DurationSeconds).Msg("[player] showing")
	if item.IsVideo() {
		d.startVideoLocked(item)
	}
}

func (d *HeadlessDisplay) Replay(index int, item model.PlaylistItem) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stopVideoLocked()
	log.Info().Int("index", index).Str("name", item.Name).Msg("[player] replaying video")
	d.startVideoLocked(item)
}

func (d *HeadlessDisplay) Clear() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stopVideoLocked()
	log.Info().Msg("[player] screen cleared")
}

// Shown lists the item names in the order they were displayed.
func (d *HeadlessDisplay) Shown() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]string(nil), d.shown...)
}

func (d *HeadlessDisplay) startVideoLocked(item model.PlaylistItem) {
	dur := item.Duration()
	if dur <= 0 {
		dur = time.Second
	}
	var timer playback.Timer
	timer = d.clock.AfterFunc(dur, func() {
		d.mu.Lock()
		// superseded by a later Show
		if d.video != timer {
			d.mu.Unlock()
			return
		}
		d.video = nil
		cb := d.onEnded
		d.mu.Unlock()
		if cb != nil {
			cb()
		}
	})
	d.video = timer
}

func (d *HeadlessDisplay) stopVideoLocked() {
	if d.video != nil {
		d.video.Stop()
		d.video = nil
	}
}
