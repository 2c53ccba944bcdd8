package perf

import (
	"sync"
	"testing"
	"time"
)

// TestCollector_Record_And_Snapshot verifies basic record and snapshot functionality.
func TestCollector_Record_And_Snapshot(t *testing.T) {
	c := NewCollector(100)
	now := time.Now()

	c.Record(Entry{Kind: KindRequest, Path: "GET /activities/{id}/sessions", StatusCode: 200, DurationMs: 10, Timestamp: now})
	c.Record(Entry{Kind: KindRequest, Path: "GET /activities/{id}/sessions", StatusCode: 200, DurationMs: 30, Timestamp: now})
	c.Record(Entry{Kind: KindUpstream, Path: "GET /bookings/api/sessions/", StatusCode: 200, DurationMs: 5, Timestamp: now})
	c.Record(Entry{Kind: KindUpstream, Path: "POST /bookings/session/", StatusCode: 0, DurationMs: 15, Timestamp: now})

	snap := c.Snapshot(now.Add(-time.Minute), 10)
	if snap.TotalRecorded != 4 {
		t.Errorf("TotalRecorded = %d, want 4", snap.TotalRecorded)
	}
	if len(snap.SlowestPaths) != 1 {
		t.Fatalf("SlowestPaths len = %d, want 1", len(snap.SlowestPaths))
	}
	if snap.SlowestPaths[0].AvgMs != 20 {
		t.Errorf("AvgMs = %v, want 20", snap.SlowestPaths[0].AvgMs)
	}
	if len(snap.SlowestUpstream) != 2 {
		t.Fatalf("SlowestUpstream len = %d, want 2", len(snap.SlowestUpstream))
	}
	if snap.SlowestUpstream[0].Path != "POST /bookings/session/" {
		t.Errorf("slowest upstream = %q", snap.SlowestUpstream[0].Path)
	}
	if snap.UpstreamFailures != 1 {
		t.Errorf("UpstreamFailures = %d, want 1", snap.UpstreamFailures)
	}
}

// TestCollector_RingBuffer_Overwrites verifies oldest entries are overwritten when full.
func TestCollector_RingBuffer_Overwrites(t *testing.T) {
	c := NewCollector(3)
	now := time.Now()

	for i := 0; i < 5; i++ {
		c.Record(Entry{Kind: KindRequest, Path: "GET /", StatusCode: 200, DurationMs: float64(i), Timestamp: now})
	}

	if c.TotalRecorded() != 5 {
		t.Errorf("TotalRecorded = %d, want 5", c.TotalRecorded())
	}
	snap := c.Snapshot(now.Add(-time.Minute), 10)
	if snap.SlowestPaths[0].Count != 3 {
		t.Errorf("Count = %d, want 3 (ring buffer kept last 3)", snap.SlowestPaths[0].Count)
	}
}

// TestCollector_SinceFilter verifies entries older than `since` are ignored.
func TestCollector_SinceFilter(t *testing.T) {
	c := NewCollector(10)
	now := time.Now()
	c.Record(Entry{Kind: KindUpstream, Path: "old", StatusCode: 200, DurationMs: 1, Timestamp: now.Add(-time.Hour)})
	c.Record(Entry{Kind: KindUpstream, Path: "new", StatusCode: 200, DurationMs: 1, Timestamp: now})

	snap := c.Snapshot(now.Add(-time.Minute), 10)
	if len(snap.SlowestUpstream) != 1 || snap.SlowestUpstream[0].Path != "new" {
		t.Errorf("SlowestUpstream = %+v", snap.SlowestUpstream)
	}
}

func TestPercentile(t *testing.T) {
	sorted := []float64{1, 2, 3, 4, 5}
	if got := percentile(sorted, 50); got != 3 {
		t.Errorf("p50 = %v, want 3", got)
	}
	if got := percentile(nil, 50); got != 0 {
		t.Errorf("p50 of empty = %v, want 0", got)
	}
}

func TestCollector_NilSafe(t *testing.T) {
	var c *Collector
	c.Record(Entry{Kind: KindRequest})
}

// TestCollector_Concurrent verifies concurrent writers do not race.
func TestCollector_Concurrent(t *testing.T) {
	c := NewCollector(50)
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				c.Record(Entry{Kind: KindUpstream, Path: "x", StatusCode: 200, DurationMs: 1, Timestamp: time.Now()})
			}
		}()
	}
	wg.Wait()
	if c.TotalRecorded() != 800 {
		t.Errorf("TotalRecorded = %d, want 800", c.TotalRecorded())
	}
}
