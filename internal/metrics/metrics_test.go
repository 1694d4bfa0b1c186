package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestBreakerStateValue(t *testing.T) {
	assert.Equal(t, 0.0, BreakerStateValue("closed"))
	assert.Equal(t, 1.0, BreakerStateValue("half_open"))
	assert.Equal(t, 2.0, BreakerStateValue("open"))
	assert.Equal(t, -1.0, BreakerStateValue("melted"))
}

func TestCollectorsRecord(t *testing.T) {
	before := testutil.ToFloat64(CircuitBreakerRequests.WithLabelValues("metrics_test", ResultRejected))
	CircuitBreakerRequests.WithLabelValues("metrics_test", ResultRejected).Inc()
	assert.Equal(t, before+1, testutil.ToFloat64(CircuitBreakerRequests.WithLabelValues("metrics_test", ResultRejected)))

	CircuitBreakerState.WithLabelValues("metrics_test").Set(BreakerStateValue("open"))
	assert.Equal(t, 2.0, testutil.ToFloat64(CircuitBreakerState.WithLabelValues("metrics_test")))
}
