package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics records the server's domain counters. A nil *Metrics is valid and
// records nothing.
type Metrics struct {
	deliveries       *prometheus.CounterVec
	deliveryDuration prometheus.Histogram
	saves            *prometheus.CounterVec
	playbackRequests *prometheus.CounterVec
	drafts           prometheus.Gauge
}

// New registers the metrics on the provided registerer.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		return &Metrics{}
	}
	deliveries := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "cartelera",
		Name:      "deliveries_total",
		Help:      "Per-branch playlist deliveries by final status.",
	}, []string{"status"})
	deliveryDuration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "cartelera",
		Name:      "delivery_batch_duration_seconds",
		Help:      "Wall time of a delivery batch.",
		Buckets:   []float64{1, 2, 5, 10, 30, 60, 120, 300},
	})
	saves := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "cartelera",
		Name:      "playlist_saves_total",
		Help:      "Playlist save attempts by result.",
	}, []string{"result"})
	playbackRequests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "cartelera",
		Name:      "playback_requests_total",
		Help:      "Public playback payload requests by outcome.",
	}, []string{"outcome"})
	drafts := prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "cartelera",
		Name:      "open_drafts",
		Help:      "Drafts currently held in memory.",
	})
	reg.MustRegister(deliveries, deliveryDuration, saves, playbackRequests, drafts)
	return &Metrics{
		deliveries:       deliveries,
		deliveryDuration: deliveryDuration,
		saves:            saves,
		playbackRequests: playbackRequests,
		drafts:           drafts,
	}
}

func (m *Metrics) IncDelivery(status string) {
	if m == nil || m.deliveries == nil {
		return
	}
	m.deliveries.WithLabelValues(normalizeLabel(status)).Inc()
}

func (m *Metrics) ObserveDeliveryBatch(d time.Duration) {
	if m == nil || m.deliveryDuration == nil {
		return
	}
	m.deliveryDuration.Observe(d.Seconds())
}

func (m *Metrics) IncSave(ok bool) {
	if m == nil || m.saves == nil {
		return
	}
	result := "ok"
	if !ok {
		result = "error"
	}
	m.saves.WithLabelValues(result).Inc()
}

// IncPlayback counts a playback request. outcome is one of ok, not_modified
// or not_found.
func (m *Metrics) IncPlayback(outcome string) {
	if m == nil || m.playbackRequests == nil {
		return
	}
	m.playbackRequests.WithLabelValues(normalizeLabel(outcome)).Inc()
}

func (m *Metrics) SetDrafts(n int) {
	if m == nil || m.drafts == nil {
		return
	}
	m.drafts.Set(float64(n))
}

func normalizeLabel(v string) string {
	if v == "" {
		return "unknown"
	}
	return v
}
