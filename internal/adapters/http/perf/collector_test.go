package perf

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestCollector_Record_And_Snapshot verifies entries land in the right bucket.
func TestCollector_Record_And_Snapshot(t *testing.T) {
	c := NewCollector(100)
	now := time.Now()

	c.Record(Entry{Kind: KindRequest, Path: "GET /lesson/{slug...}", StatusCode: 200, DurationMs: 10, Timestamp: now})
	c.Record(Entry{Kind: KindRequest, Path: "GET /lesson/{slug...}", StatusCode: 200, DurationMs: 30, Timestamp: now})
	c.Record(Entry{Kind: KindQuery, Path: "SELECT pro_user", DurationMs: 5, Timestamp: now})
	c.Record(Entry{Kind: KindProvider, Path: "firebase.verify_session", DurationMs: 40, Timestamp: now})
	c.Record(Entry{Kind: KindProvider, Path: "firebase.verify_session", DurationMs: 60, Failed: true, Timestamp: now})

	snap := c.Snapshot(now.Add(-time.Minute), 10)
	assert.EqualValues(t, 5, snap.TotalRecorded)
	require.Len(t, snap.SlowestPaths, 1)
	assert.Equal(t, 20.0, snap.SlowestPaths[0].AvgMs)
	assert.Len(t, snap.SlowestQueries, 1)

	require.Len(t, snap.ProviderCalls, 1)
	p := snap.ProviderCalls[0]
	assert.Equal(t, 2, p.Count)
	assert.Equal(t, 1, p.Failures)
	assert.Equal(t, 50.0, p.AvgMs)
	assert.Equal(t, 60.0, p.MaxMs)
}

// TestCollector_RingBuffer_Overwrites verifies oldest entries are overwritten when full.
func TestCollector_RingBuffer_Overwrites(t *testing.T) {
	c := NewCollector(3)
	now := time.Now()

	for i := 0; i < 5; i++ {
		c.Record(Entry{Kind: KindRequest, Path: "GET /x", DurationMs: float64(i), Timestamp: now})
	}
	assert.EqualValues(t, 5, c.TotalRecorded())

	snap := c.Snapshot(now.Add(-time.Minute), 10)
	require.Len(t, snap.SlowestPaths, 1)
	assert.Equal(t, 3, snap.SlowestPaths[0].Count, "ring buffer keeps the last 3")
}

func TestCollector_Percentiles(t *testing.T) {
	c := NewCollector(200)
	now := time.Now()
	for i := 1; i <= 100; i++ {
		c.Record(Entry{Kind: KindRequest, Path: "GET /p", DurationMs: float64(i), Timestamp: now})
	}

	snap := c.Snapshot(now.Add(-time.Minute), 10)
	assert.InDelta(t, 50, snap.RequestP50Ms, 1)
	assert.InDelta(t, 99, snap.RequestP99Ms, 1)
}

// TestCollector_Snapshot_FiltersBySince verifies old entries are excluded.
func TestCollector_Snapshot_FiltersBySince(t *testing.T) {
	c := NewCollector(100)
	c.Record(Entry{Kind: KindRequest, Path: "GET /old", DurationMs: 100, Timestamp: time.Now().Add(-2 * time.Hour)})
	c.Record(Entry{Kind: KindRequest, Path: "GET /new", DurationMs: 10, Timestamp: time.Now()})

	snap := c.Snapshot(time.Now().Add(-time.Hour), 10)
	require.Len(t, snap.SlowestPaths, 1)
	assert.Equal(t, "GET /new", snap.SlowestPaths[0].Path)
}

func TestCollector_NilIsNoop(t *testing.T) {
	var c *Collector
	assert.NotPanics(t, func() {
		c.Record(Entry{Kind: KindRequest, Path: "GET /", Timestamp: time.Now()})
	})
}

// TestCollector_ConcurrentWrites verifies goroutine safety of Record.
func TestCollector_ConcurrentWrites(t *testing.T) {
	c := NewCollector(1000)
	now := time.Now()
	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			for j := 0; j < 10; j++ {
				c.Record(Entry{Kind: KindRequest, Path: "GET /c", DurationMs: float64(n), Timestamp: now})
			}
		}(i)
	}
	wg.Wait()
	assert.EqualValues(t, 1000, c.TotalRecorded())
}

// BenchmarkCollectorRecord measures per-call cost of Record().
func BenchmarkCollectorRecord(b *testing.B) {
	c := NewCollector(DefaultRingSize)
	e := Entry{Kind: KindRequest, Path: "GET /bench", StatusCode: 200, DurationMs: 1.5, Timestamp: time.Now()}
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		c.Record(e)
	}
}
