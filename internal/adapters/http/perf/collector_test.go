package perf

import (
	"sync"
	"testing"
	"time"
)

// TestCollector_GroupsByKind keeps routes and queries apart.
func TestCollector_GroupsByKind(t *testing.T) {
	c := NewCollector(100)
	now := time.Now()

	c.Record(Entry{Kind: KindRequest, Path: "GET /calendar", StatusCode: 200, DurationMs: 10, Timestamp: now})
	c.Record(Entry{Kind: KindRequest, Path: "GET /calendar", StatusCode: 500, DurationMs: 30, Timestamp: now})
	c.Record(Entry{Kind: KindQuery, Path: "query event", DurationMs: 5, Timestamp: now})

	snap := c.Snapshot(now.Add(-time.Minute), 10)
	if snap.TotalRecorded != 3 || snap.Requests != 2 {
		t.Errorf("TotalRecorded/Requests = %d/%d, want 3/2", snap.TotalRecorded, snap.Requests)
	}
	if len(snap.SlowestRoutes) != 1 {
		t.Fatalf("SlowestRoutes = %+v", snap.SlowestRoutes)
	}
	r := snap.SlowestRoutes[0]
	if r.AvgMs != 20 || r.MaxMs != 30 || r.Errors != 1 {
		t.Errorf("route stat = %+v", r)
	}
	if len(snap.SlowestQueries) != 1 || snap.SlowestQueries[0].Path != "query event" {
		t.Errorf("SlowestQueries = %+v", snap.SlowestQueries)
	}
}

// TestCollector_RingOverwritesOldest keeps only the last size entries.
func TestCollector_RingOverwritesOldest(t *testing.T) {
	c := NewCollector(3)
	now := time.Now()
	for i := 0; i < 5; i++ {
		c.Record(Entry{Kind: KindRequest, Path: "GET /x", DurationMs: float64(i), Timestamp: now})
	}

	if c.TotalRecorded() != 5 {
		t.Errorf("TotalRecorded = %d, want 5", c.TotalRecorded())
	}
	snap := c.Snapshot(now.Add(-time.Minute), 10)
	if got := snap.SlowestRoutes[0]; got.Count != 3 || got.AvgMs != 3 {
		t.Errorf("stat = %+v, want the last three entries (2,3,4)", got)
	}
}

// TestCollector_Percentiles interpolates over 1..100 ms.
func TestCollector_Percentiles(t *testing.T) {
	c := NewCollector(200)
	now := time.Now()
	for i := 1; i <= 100; i++ {
		c.Record(Entry{Kind: KindRequest, Path: "GET /x", DurationMs: float64(i), Timestamp: now})
	}

	snap := c.Snapshot(now.Add(-time.Minute), 10)
	if snap.RequestP50Ms != 50.5 {
		t.Errorf("P50 = %v, want 50.5", snap.RequestP50Ms)
	}
	if snap.RequestP99Ms < 99 || snap.RequestP99Ms > 100 {
		t.Errorf("P99 = %v", snap.RequestP99Ms)
	}
}

// TestCollector_SnapshotWindowAndTopN filters by time and orders slowest first.
func TestCollector_SnapshotWindowAndTopN(t *testing.T) {
	c := NewCollector(100)
	now := time.Now()
	c.Record(Entry{Kind: KindRequest, Path: "GET /old", DurationMs: 999, Timestamp: now.Add(-time.Hour)})
	c.Record(Entry{Kind: KindRequest, Path: "GET /fast", DurationMs: 1, Timestamp: now})
	c.Record(Entry{Kind: KindRequest, Path: "GET /slow", DurationMs: 50, Timestamp: now})
	c.Record(Entry{Kind: KindRequest, Path: "GET /mid", DurationMs: 10, Timestamp: now})

	snap := c.Snapshot(now.Add(-time.Minute), 2)
	if len(snap.SlowestRoutes) != 2 {
		t.Fatalf("SlowestRoutes = %+v", snap.SlowestRoutes)
	}
	if snap.SlowestRoutes[0].Path != "GET /slow" || snap.SlowestRoutes[1].Path != "GET /mid" {
		t.Errorf("order = %+v", snap.SlowestRoutes)
	}
}

// TestCollector_ConcurrentWrites is run under -race.
func TestCollector_ConcurrentWrites(t *testing.T) {
	c := NewCollector(50)
	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				c.Record(Entry{Kind: KindQuery, Path: "exec event", DurationMs: 1, Timestamp: time.Now()})
			}
		}()
	}
	wg.Wait()
	if c.TotalRecorded() != 800 {
		t.Errorf("TotalRecorded = %d, want 800", c.TotalRecorded())
	}
}

func BenchmarkCollectorRecord(b *testing.B) {
	c := NewCollector(DefaultRingSize)
	e := Entry{Kind: KindRequest, Path: "GET /calendar", StatusCode: 200, DurationMs: 1.5, Timestamp: time.Now()}
	b.ReportAllocs()
	for b.Loop() {
		c.Record(e)
	}
}
