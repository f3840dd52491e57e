package ws

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *Metrics

	m.connected()
	m.disconnected(reasonExplicit)
	m.handshakeFailed()
	m.received()
	m.sent()
	m.httpResponse(200)
	m.updated(3)
}

func TestMetrics_ConnectionLifecycle(t *testing.T) {
	m := NewMetrics(WithRegistry(prometheus.NewRegistry()), WithNamespace("test"))

	m.connected()
	m.connected()
	m.disconnected(reasonReadError)

	if got := testutil.ToFloat64(m.activeConnections); got != 1 {
		t.Errorf("expected 1 active connection, got %v", got)
	}

	if got := testutil.ToFloat64(m.connectionsTotal); got != 2 {
		t.Errorf("expected 2 connections total, got %v", got)
	}

	if got := testutil.ToFloat64(m.disconnectsTotal.WithLabelValues(reasonReadError)); got != 1 {
		t.Errorf("expected 1 read_error disconnect, got %v", got)
	}
}

func TestMetrics_Registered(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(WithRegistry(reg), WithSubsystem("chat"))

	m.received()
	m.updated(1)

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather failed: %v", err)
	}

	names := make(map[string]bool)
	for _, f := range families {
		names[f.GetName()] = true
	}

	for _, name := range []string{"stnet_chat_messages_received_total", "stnet_chat_update_events"} {
		if !names[name] {
			t.Errorf("metric %s not registered", name)
		}
	}
}
