package perf

import (
	"math"
	"sort"
	"sync"
	"sync/atomic"
	"time"
)

// DefaultRingSize is the default capacity of the ring buffer.
const DefaultRingSize = 4096

// EntryKind distinguishes front requests from booking server calls.
type EntryKind uint8

const (
	KindRequest EntryKind = iota
	KindUpstream
)

// Entry is a single timing record stored in the ring buffer.
type Entry struct {
	Kind       EntryKind
	Path       string // "GET /activities/{id}/sessions" or "GET /bookings/api/sessions/"
	StatusCode int    // 0 when the upstream call failed before a response
	DurationMs float64
	Timestamp  time.Time
}

// Failed reports whether the entry represents a failed exchange.
func (e Entry) Failed() bool {
	return e.StatusCode == 0 || e.StatusCode >= 400
}

// Collector is a fixed-size ring buffer for timing entries.
// Writes are non-blocking; when full, oldest entries are overwritten.
// Aggregation happens only on read (Snapshot).
type Collector struct {
	mu      sync.Mutex
	entries []Entry
	size    int
	pos     int
	count   int64
}

// NewCollector creates a collector with the given ring buffer capacity.
// PRE: size > 0
// POST: Returns a ready-to-use collector with pre-allocated storage
func NewCollector(size int) *Collector {
	if size <= 0 {
		size = DefaultRingSize
	}
	return &Collector{
		entries: make([]Entry, size),
		size:    size,
	}
}

// Record appends an entry to the ring buffer.
// A nil collector drops the entry so callers need no guard.
func (c *Collector) Record(e Entry) {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.entries[c.pos] = e
	c.pos = (c.pos + 1) % c.size
	c.mu.Unlock()
	atomic.AddInt64(&c.count, 1)
}

// TotalRecorded returns the total number of entries ever recorded.
func (c *Collector) TotalRecorded() int64 {
	return atomic.LoadInt64(&c.count)
}

// Snapshot holds aggregated performance data computed on read.
type Snapshot struct {
	TotalRecorded    int64      `json:"total_recorded"`
	RequestP50Ms     float64    `json:"request_p50_ms"`
	RequestP95Ms     float64    `json:"request_p95_ms"`
	UpstreamP50Ms    float64    `json:"upstream_p50_ms"`
	UpstreamP95Ms    float64    `json:"upstream_p95_ms"`
	UpstreamFailures int        `json:"upstream_failures"`
	SlowestPaths     []PathStat `json:"slowest_paths"`
	SlowestUpstream  []PathStat `json:"slowest_upstream"`
}

// PathStat aggregates timing for a single route or upstream endpoint.
type PathStat struct {
	Path     string  `json:"path"`
	AvgMs    float64 `json:"avg_ms"`
	MaxMs    float64 `json:"max_ms"`
	Count    int     `json:"count"`
	Failures int     `json:"failures"`
	TotalMs  float64 `json:"total_ms"`
}

// Snapshot computes aggregated stats from the ring buffer.
// PRE: topN > 0
// POST: Returns a Snapshot with percentiles and top-N lists for entries since `since`
func (c *Collector) Snapshot(since time.Time, topN int) Snapshot {
	c.mu.Lock()
	buf := make([]Entry, c.size)
	copy(buf, c.entries)
	c.mu.Unlock()

	durations := map[EntryKind][]float64{}
	stats := map[EntryKind]map[string]*PathStat{
		KindRequest:  {},
		KindUpstream: {},
	}
	failures := 0

	for _, e := range buf {
		if e.Timestamp.IsZero() || e.Timestamp.Before(since) {
			continue
		}
		byPath, ok := stats[e.Kind]
		if !ok {
			continue
		}
		durations[e.Kind] = append(durations[e.Kind], e.DurationMs)
		s, ok := byPath[e.Path]
		if !ok {
			s = &PathStat{Path: e.Path}
			byPath[e.Path] = s
		}
		s.Count++
		s.TotalMs += e.DurationMs
		if e.DurationMs > s.MaxMs {
			s.MaxMs = e.DurationMs
		}
		if e.Failed() {
			s.Failures++
			if e.Kind == KindUpstream {
				failures++
			}
		}
	}

	snap := Snapshot{
		TotalRecorded:    c.TotalRecorded(),
		UpstreamFailures: failures,
		SlowestPaths:     topByAvg(stats[KindRequest], topN),
		SlowestUpstream:  topByAvg(stats[KindUpstream], topN),
	}
	if d := durations[KindRequest]; len(d) > 0 {
		sort.Float64s(d)
		snap.RequestP50Ms = percentile(d, 50)
		snap.RequestP95Ms = percentile(d, 95)
	}
	if d := durations[KindUpstream]; len(d) > 0 {
		sort.Float64s(d)
		snap.UpstreamP50Ms = percentile(d, 50)
		snap.UpstreamP95Ms = percentile(d, 95)
	}
	return snap
}

// percentile returns the p-th percentile from a sorted slice.
func percentile(sorted []float64, p float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	idx := (p / 100) * float64(len(sorted)-1)
	lower := int(math.Floor(idx))
	upper := int(math.Ceil(idx))
	if lower == upper || upper >= len(sorted) {
		return sorted[lower]
	}
	frac := idx - float64(lower)
	return sorted[lower]*(1-frac) + sorted[upper]*frac
}

// topByAvg returns the top N paths sorted by average duration (descending).
func topByAvg(stats map[string]*PathStat, n int) []PathStat {
	list := make([]PathStat, 0, len(stats))
	for _, s := range stats {
		s.AvgMs = s.TotalMs / float64(s.Count)
		list = append(list, *s)
	}
	sort.Slice(list, func(i, j int) bool {
		if list[i].AvgMs == list[j].AvgMs {
			return list[i].Path < list[j].Path
		}
		return list[i].AvgMs > list[j].AvgMs
	})
	if len(list) > n {
		list = list[:n]
	}
	return list
}
