// Package mtmetrics exposes Prometheus metrics for the sender pool.
package mtmetrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	namespace = "gomtproto"
	subsystem = "pool"
)

// Label names for pool/sender metrics.
const (
	labelDC     = "dc_id"
	labelMethod = "method"
)

// Collector holds all gomtproto Prometheus metrics.
//
//   - Senders tracks currently live per-DC connections.
//   - RPC counters and a latency histogram track call volume and cost.
//   - Retry and flood-wait counters surface how often AutoSleep kicks in.
//   - Migrations and update-drops flag reconnection churn and backpressure.
type Collector struct {
	// Senders tracks the number of currently connected per-DC senders.
	Senders *prometheus.GaugeVec

	// RPCTotal counts completed Invoke calls per datacenter and method,
	// labeled by outcome ("ok", "rpc_error", "dropped", "canceled").
	RPCTotal *prometheus.CounterVec

	// RPCDuration observes Invoke latency in seconds per datacenter.
	RPCDuration *prometheus.HistogramVec

	// Retries counts calls re-enqueued after bad_server_salt,
	// bad_msg_notification, or an automatically slept FLOOD_WAIT.
	Retries *prometheus.CounterVec

	// FloodWaits counts FLOOD_WAIT errors observed per datacenter, split
	// by whether AutoSleep retried them or surfaced them to the caller.
	FloodWaits *prometheus.CounterVec

	// Migrations counts datacenter migrations the pool has followed.
	Migrations *prometheus.CounterVec

	// Reconnects counts sender reconnect attempts per datacenter.
	Reconnects *prometheus.CounterVec

	// UpdatesDropped counts update payloads discarded because the pool's
	// bounded update channel was full.
	UpdatesDropped prometheus.Counter
}

// NewCollector creates a Collector with all metrics registered against
// reg. If reg is nil, prometheus.DefaultRegisterer is used.
func NewCollector(reg prometheus.Registerer) *Collector {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	c := newMetrics()

	reg.MustRegister(
		c.Senders,
		c.RPCTotal,
		c.RPCDuration,
		c.Retries,
		c.FloodWaits,
		c.Migrations,
		c.Reconnects,
		c.UpdatesDropped,
	)

	return c
}

func newMetrics() *Collector {
	dcLabels := []string{labelDC}
	rpcLabels := []string{labelDC, labelMethod, "outcome"}

	return &Collector{
		Senders: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "senders",
			Help:      "Number of currently connected per-datacenter senders.",
		}, dcLabels),

		RPCTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "rpc_total",
			Help:      "Total RPCs invoked through the pool, labeled by outcome.",
		}, rpcLabels),

		RPCDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "rpc_duration_seconds",
			Help:      "RPC round-trip latency as observed by Invoke.",
			Buckets:   prometheus.DefBuckets,
		}, []string{labelDC, labelMethod}),

		Retries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "retries_total",
			Help:      "Total calls re-enqueued after a recoverable server error.",
		}, []string{labelDC, "reason"}),

		FloodWaits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "flood_waits_total",
			Help:      "Total FLOOD_WAIT errors observed, labeled by whether they were auto-retried.",
		}, []string{labelDC, "auto_retried"}),

		Migrations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "migrations_total",
			Help:      "Total datacenter migrations followed by the pool.",
		}, []string{"to_dc_id"}),

		Reconnects: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "reconnects_total",
			Help:      "Total sender reconnect attempts per datacenter.",
		}, dcLabels),

		UpdatesDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "updates_dropped_total",
			Help:      "Total update payloads discarded because the update channel was full.",
		}),
	}
}

// -------------------------------------------------------------------------
// Senders
// -------------------------------------------------------------------------

// RegisterSender increments the live sender gauge for dcID.
func (c *Collector) RegisterSender(dcID int32) {
	c.Senders.WithLabelValues(dcIDLabel(dcID)).Inc()
}

// UnregisterSender decrements the live sender gauge for dcID.
func (c *Collector) UnregisterSender(dcID int32) {
	c.Senders.WithLabelValues(dcIDLabel(dcID)).Dec()
}

// -------------------------------------------------------------------------
// RPCs
// -------------------------------------------------------------------------

// ObserveRPC records one completed Invoke call's outcome and latency.
func (c *Collector) ObserveRPC(dcID int32, method, outcome string, seconds float64) {
	c.RPCTotal.WithLabelValues(dcIDLabel(dcID), method, outcome).Inc()
	c.RPCDuration.WithLabelValues(dcIDLabel(dcID), method).Observe(seconds)
}

// IncRetries increments the retry counter for dcID, labeled by reason
// ("bad_server_salt", "bad_msg_notification", "flood_wait").
func (c *Collector) IncRetries(dcID int32, reason string) {
	c.Retries.WithLabelValues(dcIDLabel(dcID), reason).Inc()
}

// IncFloodWait records a FLOOD_WAIT observation, noting whether AutoSleep
// retried it automatically or surfaced it to the caller.
func (c *Collector) IncFloodWait(dcID int32, autoRetried bool) {
	c.FloodWaits.WithLabelValues(dcIDLabel(dcID), boolLabel(autoRetried)).Inc()
}

// -------------------------------------------------------------------------
// Reconnection and migration
// -------------------------------------------------------------------------

// IncMigrations records a followed migration to toDCID.
func (c *Collector) IncMigrations(toDCID int32) {
	c.Migrations.WithLabelValues(dcIDLabel(toDCID)).Inc()
}

// IncReconnects records one reconnect attempt for dcID.
func (c *Collector) IncReconnects(dcID int32) {
	c.Reconnects.WithLabelValues(dcIDLabel(dcID)).Inc()
}

// IncUpdatesDropped records one discarded update payload.
func (c *Collector) IncUpdatesDropped() {
	c.UpdatesDropped.Inc()
}

func dcIDLabel(dcID int32) string {
	return strconv.FormatInt(int64(dcID), 10)
}

func boolLabel(b bool) string {
	if b {
		return "true"
	}
	return "false"
}
