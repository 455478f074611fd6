package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Orchestration records outcomes of the multi-step cart flows.
type Orchestration struct {
	duration     *prometheus.HistogramVec
	ordersPlaced prometheus.Counter
	sagaAborts   prometheus.Counter
	splits       prometheus.Counter
	compensated  prometheus.Counter
	replays      prometheus.Counter
}

// NewOrchestration registers the orchestration metrics on the provided registerer.
func NewOrchestration(reg prometheus.Registerer) *Orchestration {
	if reg == nil {
		return &Orchestration{}
	}
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "cart_flow_duration_seconds",
		Help:    "Duration of multi-step cart flows in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"flow"})
	ordersPlaced := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "orders_placed_total",
		Help: "Orders successfully placed, one per cost center.",
	})
	sagaAborts := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "placement_aborts_total",
		Help: "Order placement runs aborted before completing all cost centers.",
	})
	splits := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "address_splits_total",
		Help: "Completed address split operations.",
	})
	compensated := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "address_split_compensations_total",
		Help: "Address splits rolled back after a failed shipping commit.",
	})
	replays := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cart_replays_total",
		Help: "Saved carts replayed onto a fresh live cart.",
	})
	reg.MustRegister(duration, ordersPlaced, sagaAborts, splits, compensated, replays)
	return &Orchestration{
		duration:     duration,
		ordersPlaced: ordersPlaced,
		sagaAborts:   sagaAborts,
		splits:       splits,
		compensated:  compensated,
		replays:      replays,
	}
}

// ObserveDuration records the duration for the named flow.
func (o *Orchestration) ObserveDuration(flow string, duration time.Duration) {
	if o == nil || o.duration == nil {
		return
	}
	o.duration.WithLabelValues(flow).Observe(duration.Seconds())
}

// IncOrdersPlaced counts one finalized order.
func (o *Orchestration) IncOrdersPlaced() {
	if o == nil || o.ordersPlaced == nil {
		return
	}
	o.ordersPlaced.Inc()
}

// IncSagaAbort counts a placement run that aborted partway.
func (o *Orchestration) IncSagaAbort() {
	if o == nil || o.sagaAborts == nil {
		return
	}
	o.sagaAborts.Inc()
}

// IncSplit counts a completed address split.
func (o *Orchestration) IncSplit() {
	if o == nil || o.splits == nil {
		return
	}
	o.splits.Inc()
}

// IncSplitCompensated counts a rolled-back address split.
func (o *Orchestration) IncSplitCompensated() {
	if o == nil || o.compensated == nil {
		return
	}
	o.compensated.Inc()
}

// IncReplay counts a completed cart replay.
func (o *Orchestration) IncReplay() {
	if o == nil || o.replays == nil {
		return
	}
	o.replays.Inc()
}
