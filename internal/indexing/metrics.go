package indexing

import (
	"fmt"
	"runtime"
	"sync/atomic"
	"time"
)

const (
	slowIndexingThreshold = 1 * time.Second
	slowSearchThreshold   = 100 * time.Millisecond
)

// Metrics tracks engine-wide performance counters: files indexed, search
// queries served, cumulative durations for each, and peak process memory.
// Grounded on the original engine's PerformanceMetrics/PerformanceMonitor
// pair, collapsed into a single atomic-counter struct idiomatic to Go.
type Metrics struct {
	totalFilesIndexed   int64
	totalSearchQueries  int64
	totalIndexingTimeMS int64
	totalSearchTimeMS   int64
	peakMemoryUsage     int64
}

// NewMetrics returns a zeroed Metrics.
func NewMetrics() *Metrics {
	return &Metrics{}
}

// RecordFileIndexed records one completed indexing operation and its
// duration, then opportunistically samples runtime.MemStats.Sys and keeps
// the largest value seen as the peak.
// Sampling here (rather than on every index mutation) keeps OS-level
// memory stats off the index's hot path.
func (m *Metrics) RecordFileIndexed(d time.Duration) {
	atomic.AddInt64(&m.totalFilesIndexed, 1)
	atomic.AddInt64(&m.totalIndexingTimeMS, d.Milliseconds())
	m.sampleMemory()
}

// RecordSearchQuery records one completed search query and its duration.
func (m *Metrics) RecordSearchQuery(d time.Duration) {
	atomic.AddInt64(&m.totalSearchQueries, 1)
	atomic.AddInt64(&m.totalSearchTimeMS, d.Milliseconds())
}

func (m *Metrics) sampleMemory() {
	var stats runtime.MemStats
	runtime.ReadMemStats(&stats)
	current := int64(stats.Sys)

	for {
		peak := atomic.LoadInt64(&m.peakMemoryUsage)
		if current <= peak {
			return
		}
		if atomic.CompareAndSwapInt64(&m.peakMemoryUsage, peak, current) {
			return
		}
	}
}

// TotalFilesIndexed returns the number of files successfully indexed.
func (m *Metrics) TotalFilesIndexed() int64 {
	return atomic.LoadInt64(&m.totalFilesIndexed)
}

// TotalSearchQueries returns the number of search queries served.
func (m *Metrics) TotalSearchQueries() int64 {
	return atomic.LoadInt64(&m.totalSearchQueries)
}

// AverageIndexingTime returns the mean indexing duration, truncated to
// whole milliseconds via integer division, matching the original engine's
// totalIndexingTime/totalFilesIndexed arithmetic.
func (m *Metrics) AverageIndexingTime() time.Duration {
	total := atomic.LoadInt64(&m.totalFilesIndexed)
	if total == 0 {
		return 0
	}
	return time.Duration(atomic.LoadInt64(&m.totalIndexingTimeMS)/total) * time.Millisecond
}

// AverageSearchTime returns the mean search duration, integer-divided.
func (m *Metrics) AverageSearchTime() time.Duration {
	total := atomic.LoadInt64(&m.totalSearchQueries)
	if total == 0 {
		return 0
	}
	return time.Duration(atomic.LoadInt64(&m.totalSearchTimeMS)/total) * time.Millisecond
}

// PeakMemoryUsage returns the highest Sys byte count observed so far.
func (m *Metrics) PeakMemoryUsage() int64 {
	return atomic.LoadInt64(&m.peakMemoryUsage)
}

// IsHealthy reports whether both average indexing and average search time
// are within their thresholds (1s and 100ms respectively).
func (m *Metrics) IsHealthy() bool {
	return m.AverageSearchTime() < slowSearchThreshold && m.AverageIndexingTime() < slowIndexingThreshold
}

// HealthSummary returns a short human-readable health report.
func (m *Metrics) HealthSummary() string {
	if m.IsHealthy() {
		return "System is performing well"
	}

	summary := "Performance issues detected: "
	var issues []string
	if avg := m.AverageSearchTime(); avg >= slowSearchThreshold {
		issues = append(issues, fmt.Sprintf("slow search performance (%dms avg)", avg.Milliseconds()))
	}
	if avg := m.AverageIndexingTime(); avg >= slowIndexingThreshold {
		issues = append(issues, fmt.Sprintf("slow indexing performance (%dms avg)", avg.Milliseconds()))
	}
	for i, issue := range issues {
		if i > 0 {
			summary += ", "
		}
		summary += issue
	}
	return summary
}

// Snapshot is a point-in-time, immutable copy of Metrics' counters, safe to
// log or serialize.
type Snapshot struct {
	TotalFilesIndexed   int64
	TotalSearchQueries  int64
	AverageIndexingTime time.Duration
	AverageSearchTime   time.Duration
	PeakMemoryUsage     int64
	Healthy             bool
}

// Snapshot captures the current metrics state.
func (m *Metrics) Snapshot() Snapshot {
	return Snapshot{
		TotalFilesIndexed:   m.TotalFilesIndexed(),
		TotalSearchQueries:  m.TotalSearchQueries(),
		AverageIndexingTime: m.AverageIndexingTime(),
		AverageSearchTime:   m.AverageSearchTime(),
		PeakMemoryUsage:     m.PeakMemoryUsage(),
		Healthy:             m.IsHealthy(),
	}
}
