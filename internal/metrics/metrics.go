// Package metrics 定义服务暴露给 Prometheus 的指标。
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sony/gobreaker/v2"

	"github.com/Xushengqwer/business_search/constants"
)

const namespace = constants.ServiceName

// 引擎调用的结果标签。
const (
	OutcomeSuccess  = "success"
	OutcomeDegraded = "degraded"
	OutcomeSkipped  = "skipped"
)

// Kafka 消息处理的结果标签。
const (
	MessageProcessed = "processed"
	MessageSkipped   = "skipped"
	MessageDLQ       = "dlq"
)

var (
	EngineOperationsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "engine_operations_total",
		Help:      "Search engine operations by operation and outcome",
	}, []string{"operation", "outcome"})

	EngineOperationDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "engine_operation_duration_seconds",
		Help:      "Search engine round-trip latency",
		Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
	}, []string{"operation"})

	KafkaMessagesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "kafka_messages_total",
		Help:      "Business lifecycle messages by topic and outcome",
	}, []string{"topic", "outcome"})

	CircuitBreakerState = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "circuit_breaker_state",
		Help:      "Current state of the circuit breaker (0=closed, 1=half-open, 2=open)",
	}, []string{"name"})
)

func init() {
	prometheus.MustRegister(
		EngineOperationsTotal,
		EngineOperationDuration,
		KafkaMessagesTotal,
		CircuitBreakerState,
	)
}

// ObserveEngineOperation 记录一次引擎调用的耗时与结果。
func ObserveEngineOperation(operation string, start time.Time, err error) {
	EngineOperationDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
	if err != nil {
		EngineOperationsTotal.WithLabelValues(operation, OutcomeDegraded).Inc()
		return
	}
	EngineOperationsTotal.WithLabelValues(operation, OutcomeSuccess).Inc()
}

// SetBreakerState 把熔断器状态映射为 gauge 值。
func SetBreakerState(name string, state gobreaker.State) {
	var v float64
	switch state {
	case gobreaker.StateClosed:
		v = 0
	case gobreaker.StateHalfOpen:
		v = 1
	case gobreaker.StateOpen:
		v = 2
	default:
		v = -1
	}
	CircuitBreakerState.WithLabelValues(name).Set(v)
}
