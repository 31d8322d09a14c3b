package measure

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestMetricReuse(t *testing.T) {
	t.Parallel()

	m := New()
	first := m.Metric("scale")
	second := m.Metric("scale")
	assert.Same(t, first, second)

	assert.Len(t, m.All(), 1)
}

func TestAverages(t *testing.T) {
	t.Parallel()

	m := New()
	mt := m.Metric("encode")

	mt.AddFit(2 * time.Millisecond)
	mt.AddFit(4 * time.Millisecond)
	mt.AddApply(10 * time.Microsecond)

	assert.Equal(t, 3*time.Millisecond, mt.AvgFit())
	assert.Equal(t, 10*time.Microsecond, mt.AvgApply())
}

func TestEmptyMetric(t *testing.T) {
	t.Parallel()

	mt := New().Metric("impute")
	assert.Equal(t, time.Duration(0), mt.AvgFit())
	assert.Equal(t, time.Duration(0), mt.AvgApply())
}

func TestAvgRounding(t *testing.T) {
	t.Parallel()

	mt := New().Metric("scale")
	mt.AddFit(1*time.Second + 499*time.Millisecond)
	mt.AddFit(1*time.Second + 499*time.Millisecond)

	assert.Equal(t, time.Second, mt.AvgFit())
}

func TestConcurrentRecording(t *testing.T) {
	t.Parallel()

	m := New()

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			m.Metric("encode").AddFit(time.Millisecond)
		}()
	}
	wg.Wait()

	assert.Equal(t, time.Millisecond, m.Metric("encode").AvgFit())
}
