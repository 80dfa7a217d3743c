package playback

import (
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/Nixie-Tech-LLC/cartelera/internal/model"
)

type State string

const (
	StateIdle    State = "idle"
	StatePlaying State = "playing"
	StatePaused  State = "paused"
)

// Display renders what the engine decides. Calls are made while the engine
// lock is held, so implementations must not call back into the Engine
// synchronously.
type Display interface {
	Show(index int, item model.PlaylistItem)
	// Replay restarts the current video from position 0.
	Replay(index int, item model.PlaylistItem)
	Clear()
}

// Status is a point-in-time view of the engine.
type Status struct {
	State      State               `json:"state"`
	Cursor     int                 `json:"cursor"`
	Item       *model.PlaylistItem `json:"item,omitempty"`
	Count      int                 `json:"count"`
	Fullscreen bool                `json:"fullscreen"`
}

// Engine advances through a playlist. Images advance on a timer, videos on
// the display's end-of-playback signal. Every cursor change cancels the
// pending timer, so a timer armed for an earlier item can never fire.
type Engine struct {
	mu      sync.Mutex
	clock   Clock
	display Display
	logger  zerolog.Logger

	items      []model.PlaylistItem
	cursor     int
	started    bool
	paused     bool
	fullscreen bool

	timer Timer
	gen   uint64
}

func NewEngine(clock Clock, display Display) *Engine {
	if clock == nil {
		clock = RealClock()
	}
	return &Engine{
		clock:   clock,
		display: display,
		logger:  log.With().Str("component", "playback").Logger(),
	}
}

// Start mounts the engine: renders the item under the cursor and arms the
// timer. Playback always begins at the first item.
func (e *Engine) Start() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.started {
		return
	}
	e.started = true
	e.cursor = 0
	e.renderLocked()
	e.rearmLocked()
	e.logger.Info().Int("items", len(e.items)).Msg("playback started")
}

// Stop unmounts the engine and clears any pending timer.
func (e *Engine) Stop() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.started = false
	e.cancelLocked()
}

// Load replaces the item list. If the cursor falls outside the new list it
// resets to 0.
func (e *Engine) Load(items []model.PlaylistItem) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.items = append([]model.PlaylistItem(nil), items...)
	if !e.started {
		return
	}
	e.renderLocked()
	e.rearmLocked()
}

func (e *Engine) Next() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.stepLocked(1)
}

func (e *Engine) Prev() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.stepLocked(-1)
}

// Pause suppresses the timer. Resuming restarts the countdown from the
// item's full duration.
func (e *Engine) Pause() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.paused {
		return
	}
	e.paused = true
	e.cancelLocked()
}

func (e *Engine) Resume() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.paused {
		return
	}
	e.paused = false
	e.rearmLocked()
}

func (e *Engine) TogglePause() {
	e.mu.Lock()
	paused := e.paused
	e.mu.Unlock()
	if paused {
		e.Resume()
	} else {
		e.Pause()
	}
}

// VideoEnded is the end-of-playback signal for the current video. A single
// video playlist replays in place instead of advancing.
func (e *Engine) VideoEnded() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.started || len(e.items) == 0 {
		return
	}
	e.boundsLocked()
	cur := e.items[e.cursor]
	if !cur.IsVideo() {
		return
	}
	if len(e.items) == 1 {
		e.display.Replay(e.cursor, cur)
		return
	}
	e.stepLocked(1)
}

// SetFullscreen records the display mode. It is independent of the pause
// state.
func (e *Engine) SetFullscreen(on bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.fullscreen = on
}

func (e *Engine) Status() Status {
	e.mu.Lock()
	defer e.mu.Unlock()
	st := Status{
		State:      e.stateLocked(),
		Cursor:     e.cursor,
		Count:      len(e.items),
		Fullscreen: e.fullscreen,
	}
	if e.cursor < len(e.items) {
		it := e.items[e.cursor]
		st.Item = &it
	}
	return st
}

func (e *Engine) stateLocked() State {
	switch {
	case !e.started || len(e.items) == 0:
		return StateIdle
	case e.paused:
		return StatePaused
	default:
		return StatePlaying
	}
}

func (e *Engine) stepLocked(delta int) {
	n := len(e.items)
	if !e.started || n == 0 {
		return
	}
	e.boundsLocked()
	e.cursor = ((e.cursor+delta)%n + n) % n
	e.renderLocked()
	e.rearmLocked()
}

func (e *Engine) boundsLocked() {
	if e.cursor >= len(e.items) || e.cursor < 0 {
		e.cursor = 0
	}
}

func (e *Engine) renderLocked() {
	e.boundsLocked()
	if e.display == nil {
		return
	}
	if len(e.items) == 0 {
		e.display.Clear()
		return
	}
	e.display.Show(e.cursor, e.items[e.cursor])
}

func (e *Engine) cancelLocked() {
	e.gen++
	if e.timer != nil {
		e.timer.Stop()
		e.timer = nil
	}
}

func (e *Engine) rearmLocked() {
	e.cancelLocked()
	if !e.started || e.paused || len(e.items) == 0 {
		return
	}
	cur := e.items[e.cursor]
	if cur.IsVideo() {
		return
	}
	d := cur.Duration()
	if d < time.Second {
		d = time.Second
	}
	gen := e.gen
	e.timer = e.clock.AfterFunc(d, func() { e.onTimer(gen) })
}

func (e *Engine) onTimer(gen uint64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if gen != e.gen {
		e.logger.Debug().Uint64("gen", gen).Msg("stale timer ignored")
		return
	}
	e.timer = nil
	e.stepLocked(1)
}
