package delivery

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/Nixie-Tech-LLC/cartelera/internal/metrics"
	"github.com/Nixie-Tech-LLC/cartelera/internal/model"
)

// DefaultDelay is how long a simulated send to one branch takes.
const DefaultDelay = 2 * time.Second

// Recorder appends sends to the history table.
type Recorder interface {
	RecordDelivery(ctx context.Context, d model.Delivery) error
}

// Dispatcher simulates sending a playlist to physical branches. There is no
// real device protocol behind it: every send waits a fixed delay and then
// succeeds.
type Dispatcher struct {
	delay    time.Duration
	recorder Recorder
	metrics  *metrics.Metrics

	mu       sync.RWMutex
	statuses map[int64]model.DeliveryStatus

	wg sync.WaitGroup

	now func() time.Time
}

type Option func(*Dispatcher)

func WithDelay(d time.Duration) Option { return func(x *Dispatcher) { x.delay = d } }

func WithRecorder(r Recorder) Option { return func(x *Dispatcher) { x.recorder = r } }

func WithMetrics(m *metrics.Metrics) Option { return func(x *Dispatcher) { x.metrics = m } }

func NewDispatcher(opts ...Option) *Dispatcher {
	d := &Dispatcher{
		delay:    DefaultDelay,
		statuses: make(map[int64]model.DeliveryStatus),
		now:      time.Now,
	}
	for _, o := range opts {
		o(d)
	}
	return d
}

// Status returns the last known status of a branch; idle if never sent.
func (d *Dispatcher) Status(branchID int64) model.DeliveryStatus {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if s, ok := d.statuses[branchID]; ok {
		return s
	}
	return model.DeliveryIdle
}

// Statuses returns a copy of every branch status seen so far.
func (d *Dispatcher) Statuses() map[int64]model.DeliveryStatus {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make(map[int64]model.DeliveryStatus, len(d.statuses))
	for k, v := range d.statuses {
		out[k] = v
	}
	return out
}

func (d *Dispatcher) setStatus(branchID int64, s model.DeliveryStatus) {
	d.mu.Lock()
	d.statuses[branchID] = s
	d.mu.Unlock()
}

// Send delivers playlistID to one branch: sending, wait, success. A
// cancelled context aborts the wait and puts the branch back to idle.
func (d *Dispatcher) Send(ctx context.Context, batchID, playlistID string, branchID int64) error {
	d.setStatus(branchID, model.DeliverySending)
	log.Debug().Str("playlist_id", playlistID).Int64("branch_id", branchID).Msg("[delivery] sending")

	if d.delay > 0 {
		timer := time.NewTimer(d.delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			d.setStatus(branchID, model.DeliveryIdle)
			return ctx.Err()
		case <-timer.C:
		}
	}

	d.setStatus(branchID, model.DeliverySuccess)
	d.metrics.IncDelivery(string(model.DeliverySuccess))

	if d.recorder != nil {
		rec := model.Delivery{
			BatchID:    batchID,
			PlaylistID: playlistID,
			BranchID:   branchID,
			Status:     model.DeliverySuccess,
			SentAt:     d.now(),
		}
		// history is best effort, the send itself already succeeded
		if err := d.recorder.RecordDelivery(context.WithoutCancel(ctx), rec); err != nil {
			log.Error().Err(err).
				Str("playlist_id", playlistID).
				Int64("branch_id", branchID).
				Msg("[delivery] failed to record send history")
		}
	}
	return nil
}

// SendToAll delivers to every branch in order, one after the other, and
// returns the batch id that groups the sends.
func (d *Dispatcher) SendToAll(ctx context.Context, playlistID string, branchIDs []int64) (string, error) {
	batchID := uuid.NewString()
	return batchID, d.sendBatch(ctx, batchID, playlistID, branchIDs)
}

func (d *Dispatcher) sendBatch(ctx context.Context, batchID, playlistID string, branchIDs []int64) error {
	start := d.now()
	for _, id := range branchIDs {
		if err := d.Send(ctx, batchID, playlistID, id); err != nil {
			log.Warn().Err(err).Str("batch_id", batchID).Msg("[delivery] batch interrupted")
			return err
		}
	}
	d.metrics.ObserveDeliveryBatch(d.now().Sub(start))
	log.Info().
		Str("batch_id", batchID).
		Str("playlist_id", playlistID).
		Int("branches", len(branchIDs)).
		Msg("[delivery] batch complete")
	return nil
}

// Start runs SendToAll in the background and returns the batch id at once.
// Statuses can be polled while it runs.
func (d *Dispatcher) Start(ctx context.Context, playlistID string, branchIDs []int64) string {
	batchID := uuid.NewString()
	ids := append([]int64(nil), branchIDs...)
	for _, id := range ids {
		d.setStatus(id, model.DeliveryIdle)
	}
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		_ = d.sendBatch(ctx, batchID, playlistID, ids)
	}()
	return batchID
}

// Wait blocks until every batch started with Start has finished.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}
