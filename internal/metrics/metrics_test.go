package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/assert"
)

func TestObserveEngineOperation(t *testing.T) {
	before := testutil.ToFloat64(EngineOperationsTotal.WithLabelValues("test_op", OutcomeDegraded))
	ObserveEngineOperation("test_op", time.Now(), errors.New("boom"))
	assert.Equal(t, before+1, testutil.ToFloat64(EngineOperationsTotal.WithLabelValues("test_op", OutcomeDegraded)))

	before = testutil.ToFloat64(EngineOperationsTotal.WithLabelValues("test_op", OutcomeSuccess))
	ObserveEngineOperation("test_op", time.Now(), nil)
	assert.Equal(t, before+1, testutil.ToFloat64(EngineOperationsTotal.WithLabelValues("test_op", OutcomeSuccess)))
}

func TestSetBreakerState(t *testing.T) {
	SetBreakerState("directory", gobreaker.StateOpen)
	assert.Equal(t, 2.0, testutil.ToFloat64(CircuitBreakerState.WithLabelValues("directory")))

	SetBreakerState("directory", gobreaker.StateHalfOpen)
	assert.Equal(t, 1.0, testutil.ToFloat64(CircuitBreakerState.WithLabelValues("directory")))

	SetBreakerState("directory", gobreaker.StateClosed)
	assert.Equal(t, 0.0, testutil.ToFloat64(CircuitBreakerState.WithLabelValues("directory")))
}
