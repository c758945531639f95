package mtmetrics_test

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"

	"github.com/dantte-lp/gomtproto/internal/mtmetrics"
)

func gaugeValue(t *testing.T, vec *prometheus.GaugeVec, labels ...string) float64 {
	t.Helper()

	gauge, err := vec.GetMetricWithLabelValues(labels...)
	if err != nil {
		t.Fatalf("GetMetricWithLabelValues(%v): %v", labels, err)
	}

	m := &dto.Metric{}
	if err := gauge.Write(m); err != nil {
		t.Fatalf("Write metric: %v", err)
	}

	return m.GetGauge().GetValue()
}

func counterValue(t *testing.T, vec *prometheus.CounterVec, labels ...string) float64 {
	t.Helper()

	counter, err := vec.GetMetricWithLabelValues(labels...)
	if err != nil {
		t.Fatalf("GetMetricWithLabelValues(%v): %v", labels, err)
	}

	m := &dto.Metric{}
	if err := counter.Write(m); err != nil {
		t.Fatalf("Write metric: %v", err)
	}

	return m.GetCounter().GetValue()
}

func TestNewCollector(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	c := mtmetrics.NewCollector(reg)

	if c.Senders == nil {
		t.Error("Senders is nil")
	}
	if c.RPCTotal == nil {
		t.Error("RPCTotal is nil")
	}
	if c.RPCDuration == nil {
		t.Error("RPCDuration is nil")
	}
	if c.Retries == nil {
		t.Error("Retries is nil")
	}
	if c.FloodWaits == nil {
		t.Error("FloodWaits is nil")
	}
	if c.Migrations == nil {
		t.Error("Migrations is nil")
	}
	if c.Reconnects == nil {
		t.Error("Reconnects is nil")
	}
	if c.UpdatesDropped == nil {
		t.Error("UpdatesDropped is nil")
	}

	if _, err := reg.Gather(); err != nil {
		t.Fatalf("Gather() error: %v", err)
	}
}

func TestRegisterUnregisterSender(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	c := mtmetrics.NewCollector(reg)

	c.RegisterSender(2)
	if got := gaugeValue(t, c.Senders, "2"); got != 1 {
		t.Errorf("after RegisterSender: senders gauge = %v, want 1", got)
	}

	c.RegisterSender(4)
	if got := gaugeValue(t, c.Senders, "4"); got != 1 {
		t.Errorf("dc 4 gauge = %v, want 1", got)
	}

	c.UnregisterSender(2)
	if got := gaugeValue(t, c.Senders, "2"); got != 0 {
		t.Errorf("after UnregisterSender: dc 2 gauge = %v, want 0", got)
	}
	if got := gaugeValue(t, c.Senders, "4"); got != 1 {
		t.Errorf("dc 4 gauge = %v, want 1 (should be unaffected)", got)
	}
}

func TestObserveRPC(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	c := mtmetrics.NewCollector(reg)

	c.ObserveRPC(2, "messages.sendMessage", "ok", 0.05)
	c.ObserveRPC(2, "messages.sendMessage", "ok", 0.1)
	c.ObserveRPC(2, "messages.sendMessage", "rpc_error", 0.02)

	if got := counterValue(t, c.RPCTotal, "2", "messages.sendMessage", "ok"); got != 2 {
		t.Errorf("RPCTotal ok = %v, want 2", got)
	}
	if got := counterValue(t, c.RPCTotal, "2", "messages.sendMessage", "rpc_error"); got != 1 {
		t.Errorf("RPCTotal rpc_error = %v, want 1", got)
	}
}

func TestRetriesAndFloodWaits(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	c := mtmetrics.NewCollector(reg)

	c.IncRetries(1, "bad_server_salt")
	c.IncRetries(1, "bad_server_salt")
	c.IncRetries(1, "flood_wait")

	if got := counterValue(t, c.Retries, "1", "bad_server_salt"); got != 2 {
		t.Errorf("Retries bad_server_salt = %v, want 2", got)
	}

	c.IncFloodWait(1, true)
	c.IncFloodWait(1, false)
	c.IncFloodWait(1, false)

	if got := counterValue(t, c.FloodWaits, "1", "true"); got != 1 {
		t.Errorf("FloodWaits auto_retried=true = %v, want 1", got)
	}
	if got := counterValue(t, c.FloodWaits, "1", "false"); got != 2 {
		t.Errorf("FloodWaits auto_retried=false = %v, want 2", got)
	}
}

func TestMigrationsAndReconnects(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	c := mtmetrics.NewCollector(reg)

	c.IncMigrations(5)
	c.IncMigrations(5)
	if got := counterValue(t, c.Migrations, "5"); got != 2 {
		t.Errorf("Migrations to dc 5 = %v, want 2", got)
	}

	c.IncReconnects(5)
	if got := counterValue(t, c.Reconnects, "5"); got != 1 {
		t.Errorf("Reconnects dc 5 = %v, want 1", got)
	}
}

func TestUpdatesDropped(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	c := mtmetrics.NewCollector(reg)

	c.IncUpdatesDropped()
	c.IncUpdatesDropped()

	m := &dto.Metric{}
	if err := c.UpdatesDropped.Write(m); err != nil {
		t.Fatalf("Write metric: %v", err)
	}
	if got := m.GetCounter().GetValue(); got != 2 {
		t.Errorf("UpdatesDropped = %v, want 2", got)
	}
}
