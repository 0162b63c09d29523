package observability

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestContractMetricsCountOutcomes(t *testing.T) {
	m := Contract()
	before := testutil.ToFloat64(m.executions.WithLabelValues("buy", "error"))
	m.ObserveExecute("buy", "PriceMismatch", 5*time.Millisecond)
	m.ObserveExecute("buy", "", time.Millisecond)
	if got := testutil.ToFloat64(m.executions.WithLabelValues("buy", "error")); got != before+1 {
		t.Fatalf("error executions = %v, want %v", got, before+1)
	}
	if got := testutil.ToFloat64(m.errors.WithLabelValues("buy", "PriceMismatch")); got < 1 {
		t.Fatalf("error kind not recorded")
	}
}

func TestGatewayThrottleDefaults(t *testing.T) {
	m := Gateway()
	m.RecordThrottle("", "")
	if got := testutil.ToFloat64(m.throttles.WithLabelValues("unknown", "unspecified")); got < 1 {
		t.Fatalf("throttle not recorded")
	}
}
