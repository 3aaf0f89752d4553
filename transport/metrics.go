package transport

import (
	metrics "github.com/rcrowley/go-metrics"
)

// Metric names registered by every Node.
const (
	MetricRxFrames       = "rx.frames"
	MetricRxDecodeErrors = "rx.decode_errors"
	MetricRxUnsolicited  = "rx.unsolicited"
	MetricTxFrames       = "tx.frames"
	MetricTxErrors       = "tx.errors"
	MetricTxCompleted    = "tx.completed"
	MetricTxFailed       = "tx.failed"
	MetricQueueOverflow  = "queue.overflow"
	MetricTransitions    = "peers.transitions"
	MetricPasses         = "reconcile.passes"
	MetricPeersConnected = "peers.connected"
	MetricPeersTotal     = "peers.total"
)

type nodeMetrics struct {
	registry metrics.Registry

	rxFrames       metrics.Counter
	rxDecodeErrors metrics.Counter
	rxUnsolicited  metrics.Counter
	txFrames       metrics.Counter
	txErrors       metrics.Counter
	txCompleted    metrics.Counter
	txFailed       metrics.Counter
	queueOverflow  metrics.Counter
	transitions    metrics.Counter
	passes         metrics.Counter

	peersConnected metrics.Gauge
	peersTotal     metrics.Gauge
}

func newNodeMetrics(r metrics.Registry) *nodeMetrics {
	if r == nil {
		r = metrics.NewRegistry()
	}
	counter := func(name string) metrics.Counter { return metrics.GetOrRegisterCounter(name, r) }
	gauge := func(name string) metrics.Gauge { return metrics.GetOrRegisterGauge(name, r) }

	return &nodeMetrics{
		registry:       r,
		rxFrames:       counter(MetricRxFrames),
		rxDecodeErrors: counter(MetricRxDecodeErrors),
		rxUnsolicited:  counter(MetricRxUnsolicited),
		txFrames:       counter(MetricTxFrames),
		txErrors:       counter(MetricTxErrors),
		txCompleted:    counter(MetricTxCompleted),
		txFailed:       counter(MetricTxFailed),
		queueOverflow:  counter(MetricQueueOverflow),
		transitions:    counter(MetricTransitions),
		passes:         counter(MetricPasses),
		peersConnected: gauge(MetricPeersConnected),
		peersTotal:     gauge(MetricPeersTotal),
	}
}

// snapshot flattens the registry into name -> value.
func (m *nodeMetrics) snapshot() map[string]int64 {
	out := make(map[string]int64)
	m.registry.Each(func(name string, i interface{}) {
		switch v := i.(type) {
		case metrics.Counter:
			out[name] = v.Count()
		case metrics.Gauge:
			out[name] = v.Value()
		}
	})
	return out
}
