package zwmetrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
)

func TestNewRegistersEveryCollector(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)
	if m == nil {
		t.Fatal("New returned nil for a non-nil registry")
	}
	if m.retries == nil || m.timeouts == nil || m.queueDepth == nil || m.pollTicks == nil || m.failedNodes == nil {
		t.Fatal("expected every collector to be initialized")
	}
}

func TestNewNilRegistryDisablesMetrics(t *testing.T) {
	if m := New(nil); m != nil {
		t.Fatalf("expected New(nil) to return nil, got %+v", m)
	}
}

func TestRetryAndTimeoutCountersIncrement(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.RecordRetry()
	m.RecordRetry()
	m.RecordTimeout()

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("Gather failed: %v", err)
	}

	var sawRetries, sawTimeouts bool
	for _, mf := range mfs {
		switch mf.GetName() {
		case "zwave_transaction_retries_total":
			sawRetries = true
			if got := mf.GetMetric()[0].GetCounter().GetValue(); got != 2 {
				t.Fatalf("expected 2 retries, got %v", got)
			}
		case "zwave_transaction_timeouts_total":
			sawTimeouts = true
			if got := mf.GetMetric()[0].GetCounter().GetValue(); got != 1 {
				t.Fatalf("expected 1 timeout, got %v", got)
			}
		}
	}
	if !sawRetries || !sawTimeouts {
		t.Fatalf("expected both retry and timeout series, sawRetries=%v sawTimeouts=%v", sawRetries, sawTimeouts)
	}
}

func TestQueueDepthGaugePerBand(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.SetQueueDepth("Query", 3)
	m.SetQueueDepth("Poll", 7)

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("Gather failed: %v", err)
	}

	for _, mf := range mfs {
		if mf.GetName() != "zwave_queue_depth" {
			continue
		}
		if len(mf.GetMetric()) != 2 {
			t.Fatalf("expected 2 band series, got %d", len(mf.GetMetric()))
		}
		return
	}
	t.Fatal("expected zwave_queue_depth series")
}

func TestNilMetricsMethodsDoNotPanic(t *testing.T) {
	var m *Metrics
	m.RecordRetry()
	m.RecordTimeout()
	m.SetQueueDepth("Query", 1)
	m.IncPollTick()
	m.SetFailedNodes(2)
}
