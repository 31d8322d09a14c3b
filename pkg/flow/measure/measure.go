// Package measure records per-node fit and apply durations of a flow.
package measure

import (
	"sync"
	"time"
)

// Measure aggregates the metrics of every node in a flow.
type Measure struct {
	mu      sync.Mutex
	metrics map[string]*Metric
}

// New creates an empty measure.
func New() *Measure {
	return &Measure{metrics: make(map[string]*Metric)}
}

// Metric returns the metric for a node, creating it on first use.
func (m *Measure) Metric(node string) *Metric {
	m.mu.Lock()
	defer m.mu.Unlock()

	mt, ok := m.metrics[node]
	if !ok {
		mt = &Metric{}
		m.metrics[node] = mt
	}

	return mt
}

// All returns a snapshot of every node metric.
func (m *Measure) All() map[string]*Metric {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make(map[string]*Metric, len(m.metrics))
	for node, mt := range m.metrics {
		out[node] = mt
	}

	return out
}

// Metric accumulates the durations of one node.
type Metric struct {
	mu         sync.Mutex
	fitTotal   time.Duration
	fitCount   int64
	applyTotal time.Duration
	applyCount int64
}

// AddFit records one fit execution.
func (mt *Metric) AddFit(elapsed time.Duration) {
	mt.mu.Lock()
	defer mt.mu.Unlock()
	mt.fitTotal += elapsed
	mt.fitCount++
}

// AddApply records one apply execution.
func (mt *Metric) AddApply(elapsed time.Duration) {
	mt.mu.Lock()
	defer mt.mu.Unlock()
	mt.applyTotal += elapsed
	mt.applyCount++
}

// AvgFit returns the average fit duration.
func (mt *Metric) AvgFit() time.Duration {
	mt.mu.Lock()
	defer mt.mu.Unlock()
	if mt.fitCount == 0 {
		return 0
	}

	return round(time.Duration(float64(mt.fitTotal) / float64(mt.fitCount)))
}

// AvgApply returns the average apply duration.
func (mt *Metric) AvgApply() time.Duration {
	mt.mu.Lock()
	defer mt.mu.Unlock()
	if mt.applyCount == 0 {
		return 0
	}

	return round(time.Duration(float64(mt.applyTotal) / float64(mt.applyCount)))
}

func round(d time.Duration) time.Duration {
	switch {
	case d > time.Second:
		d = d.Round(time.Second)
	case d > time.Millisecond:
		d = d.Round(time.Millisecond)
	case d > time.Microsecond:
		d = d.Round(time.Microsecond)
	}

	return d
}
