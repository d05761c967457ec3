package metrics_test

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/edgard/sedbot/internal/metrics"
)

func TestCommandsTotal(t *testing.T) {
	before := testutil.ToFloat64(metrics.CommandsTotal.WithLabelValues(metrics.ResultBlocked))
	metrics.CommandsTotal.WithLabelValues(metrics.ResultBlocked).Inc()
	after := testutil.ToFloat64(metrics.CommandsTotal.WithLabelValues(metrics.ResultBlocked))

	if after-before != 1 {
		t.Errorf("counter moved by %v, want 1", after-before)
	}
}

func TestHandlerExposesMetrics(t *testing.T) {
	metrics.MessagesRecorded.Inc()

	srv := httptest.NewServer(metrics.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	if err != nil {
		t.Fatalf("GET /metrics failed: %v", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("failed to read body: %v", err)
	}
	if !strings.Contains(string(body), "sedbot_messages_recorded_total") {
		t.Error("metrics output does not contain sedbot_messages_recorded_total")
	}
}
