package delivery

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Nixie-Tech-LLC/cartelera/internal/model"
)

type memoryRecorder struct {
	mu   sync.Mutex
	rows []model.Delivery
	err  error
}

func (m *memoryRecorder) RecordDelivery(ctx context.Context, d model.Delivery) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.rows = append(m.rows, d)
	return nil
}

func TestSendToAllIsSequential(t *testing.T) {
	rec := &memoryRecorder{}
	d := NewDispatcher(WithDelay(10*time.Millisecond), WithRecorder(rec))

	start := time.Now()
	batch, err := d.SendToAll(context.Background(), "abc", []int64{1, 2, 3})
	require.NoError(t, err)

	assert.GreaterOrEqual(t, time.Since(start), 30*time.Millisecond)
	assert.NotEmpty(t, batch)
	for _, id := range []int64{1, 2, 3} {
		assert.Equal(t, model.DeliverySuccess, d.Status(id))
	}

	assert.Len(t, d.Statuses(), 3)

	require.Len(t, rec.rows, 3)
	for i, row := range rec.rows {
		assert.Equal(t, int64(i+1), row.BranchID, "history follows send order")
		assert.Equal(t, batch, row.BatchID)
	}
}

func TestStatusDefaultsToIdle(t *testing.T) {
	d := NewDispatcher()
	assert.Equal(t, model.DeliveryIdle, d.Status(42))
}

func TestSendShowsSendingWhileWaiting(t *testing.T) {
	d := NewDispatcher(WithDelay(200 * time.Millisecond))
	d.Start(context.Background(), "abc", []int64{7, 8})

	assert.Eventually(t, func() bool {
		return d.Status(7) == model.DeliverySending
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, model.DeliveryIdle, d.Status(8), "second branch waits its turn")

	d.Wait()
	assert.Equal(t, model.DeliverySuccess, d.Status(7))
	assert.Equal(t, model.DeliverySuccess, d.Status(8))
}

func TestRecorderErrorDoesNotFailSend(t *testing.T) {
	d := NewDispatcher(WithDelay(0), WithRecorder(&memoryRecorder{err: errors.New("db down")}))
	_, err := d.SendToAll(context.Background(), "abc", []int64{1})
	require.NoError(t, err)
	assert.Equal(t, model.DeliverySuccess, d.Status(1))
}

func TestCancelledSendReturnsToIdle(t *testing.T) {
	d := NewDispatcher(WithDelay(time.Hour))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := d.SendToAll(ctx, "abc", []int64{1, 2})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, model.DeliveryIdle, d.Status(1))
	assert.Equal(t, model.DeliveryIdle, d.Status(2))
}
