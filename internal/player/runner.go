package player

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/Nixie-Tech-LLC/cartelera/internal/http/api/tv/packets"
	"github.com/Nixie-Tech-LLC/cartelera/internal/mqtt"
	"github.com/Nixie-Tech-LLC/cartelera/internal/playback"
)

// Fetcher is the conditional GET the runner polls with.
type Fetcher interface {
	Fetch(ctx context.Context, etag string) (*packets.PlaybackResponse, string, error)
}

// Subscriber delivers broker messages. *mqtt.Client satisfies it.
type Subscriber interface {
	Subscribe(topic string, handler func(mqtt.Message)) error
}

// Runner keeps an engine in sync with the server and applies remote
// commands.
type Runner struct {
	fetcher    Fetcher
	engine     *playback.Engine
	subscriber Subscriber
	playlistID string
	deviceID   string
	interval   time.Duration

	refresh chan struct{}
	etag    string
}

func NewRunner(fetcher Fetcher, engine *playback.Engine, subscriber Subscriber, playlistID, deviceID string, interval time.Duration) *Runner {
	return &Runner{
		fetcher:    fetcher,
		engine:     engine,
		subscriber: subscriber,
		playlistID: playlistID,
		deviceID:   deviceID,
		interval:   interval,
		refresh:    make(chan struct{}, 1),
	}
}

// Run starts playback and blocks until ctx is cancelled or polling fails
// for good.
func (r *Runner) Run(ctx context.Context) error {
	if r.subscriber != nil {
		if err := r.subscribe(); err != nil {
			return err
		}
	}

	r.engine.Start()
	defer r.engine.Stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return r.poll(gctx) })
	g.Go(func() error { return r.heartbeat(gctx) })
	err := g.Wait()
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func (r *Runner) subscribe() error {
	if err := r.subscriber.Subscribe(mqtt.DeviceTopic(r.deviceID), r.handleCommand); err != nil {
		return err
	}
	return r.subscriber.Subscribe(mqtt.PlaylistTopic(r.playlistID), func(msg mqtt.Message) {
		if msg.Type != mqtt.TypePlaylistUpdated {
			return
		}
		r.RequestRefresh()
	})
}

// RequestRefresh asks the poll loop to fetch now instead of at the next tick.
func (r *Runner) RequestRefresh() {
	select {
	case r.refresh <- struct{}{}:
	default:
	}
}

func (r *Runner) poll(ctx context.Context) error {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	r.sync(ctx)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		case <-r.refresh:
			log.Debug().Str("playlist_id", r.playlistID).Msg("[player] refresh requested")
		}
		r.sync(ctx)
	}
}

const heartbeatInterval = time.Minute

// heartbeat logs what the engine is doing so unattended players can be
// checked from their logs.
func (r *Runner) heartbeat(ctx context.Context) error {
	ticker := time.NewTicker(heartbeatInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			st := r.engine.Status()
			ev := log.Info().Str("device_id", r.deviceID).Str("state", string(st.State)).
				Int("cursor", st.Cursor).Int("items", st.Count).Bool("fullscreen", st.Fullscreen)
			if st.Item != nil {
				ev = ev.Str("item", st.Item.Name)
			}
			ev.Msg("[player] heartbeat")
		}
	}
}

// sync fetches the playlist and loads it when it changed. Failures keep the
// current items on screen.
func (r *Runner) sync(ctx context.Context) {
	payload, etag, err := r.fetcher.Fetch(ctx, r.etag)
	if err != nil {
		if ctx.Err() == nil {
			log.Warn().Err(err).Str("playlist_id", r.playlistID).Msg("[player] could not fetch playlist")
		}
		return
	}
	if payload == nil {
		return
	}
	r.etag = etag
	r.engine.Load(Items(payload))
	log.Info().Str("playlist_id", r.playlistID).Str("name", payload.Name).Int("items", len(payload.Items)).
		Msg("[player] playlist loaded")
}

func (r *Runner) handleCommand(msg mqtt.Message) {
	if msg.Type != mqtt.TypeCommand {
		return
	}
	switch msg.Command {
	case mqtt.CommandNext:
		r.engine.Next()
	case mqtt.CommandPrev:
		r.engine.Prev()
	case mqtt.CommandPause:
		r.engine.Pause()
	case mqtt.CommandResume:
		r.engine.Resume()
	case mqtt.CommandFullscreen:
		r.engine.SetFullscreen(true)
	case mqtt.CommandWindowed:
		r.engine.SetFullscreen(false)
	default:
		log.Warn().Str("command", string(msg.Command)).Msg("[player] ignoring unknown command")
		return
	}
	log.Info().Str("command", string(msg.Command)).Msg("[player] command applied")
}
