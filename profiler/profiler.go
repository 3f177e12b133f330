// Package profiler times pipeline operations and counts their failures.
package profiler

import (
	"context"
	"fmt"
	"runtime"
	"sort"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"go.uber.org/atomic"
)

// RuntimeProfiler tracks per-operation timings, failure counts and custom
// metrics, and can periodically log a status report.
//
// All methods are safe for concurrent use. A nil *RuntimeProfiler is valid and
// records nothing.
type RuntimeProfiler struct {
	// Configuration
	reportInterval time.Duration
	maxSamples     int
	log            logrus.FieldLogger

	// State management
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	mu        sync.RWMutex
	startTime time.Time
	running   bool

	// Performance tracking
	operationTimes map[string]*TimeTracker
	customMetrics  map[string]*MetricTracker

	// Totals across every operation, readable without the lock.
	completed atomic.Uint64
	failed    atomic.Uint64
	lastGC    uint32
}

// MetricTracker tracks statistics for a custom metric.
type MetricTracker struct {
	values []float64
	sum    float64
	min    float64
	max    float64
	count  int64
}

// TimeTracker tracks operation timing statistics.
type TimeTracker struct {
	durations []time.Duration
	totalTime time.Duration
	minTime   time.Duration
	maxTime   time.Duration
	count     int64
	failures  int64
}

// OperationStats is a point-in-time summary of one operation.
type OperationStats struct {
	Count    int64
	Failures int64
	Avg      time.Duration
	Min      time.Duration
	Max      time.Duration
}

// MetricStats is a point-in-time summary of one custom metric.
type MetricStats struct {
	Count int64
	Avg   float64
	Min   float64
	Max   float64
}

// ProfilingOptions configures the runtime profiler.
type ProfilingOptions struct {
	// ReportInterval specifies how often to emit status reports (default: 10s)
	ReportInterval time.Duration
	// MaxSamples specifies the timing window kept per operation (default: 600)
	MaxSamples int
	// Logger receives the status reports (default: the logrus standard logger)
	Logger logrus.FieldLogger
}

// NewRuntimeProfiler creates a new runtime profiler with the specified options.
//
// Arguments:
// - opts: Configuration options for the profiler
//
// Returns:
// - A configured RuntimeProfiler instance
func NewRuntimeProfiler(opts ProfilingOptions) *RuntimeProfiler {
	if opts.ReportInterval <= 0 {
		opts.ReportInterval = 10 * time.Second
	}
	if opts.MaxSamples <= 0 {
		opts.MaxSamples = 600
	}
	if opts.Logger == nil {
		opts.Logger = logrus.StandardLogger()
	}

	return &RuntimeProfiler{
		reportInterval: opts.ReportInterval,
		maxSamples:     opts.MaxSamples,
		log:            opts.Logger.WithField("subsystem", "profiler"),
		startTime:      time.Now(),
		operationTimes: make(map[string]*TimeTracker),
		customMetrics:  make(map[string]*MetricTracker),
	}
}

// Start begins emitting periodic reports. Calling it twice is a no-op, and a
// stopped profiler can be started again.
func (rp *RuntimeProfiler) Start() {
	if rp == nil {
		return
	}

	rp.mu.Lock()
	defer rp.mu.Unlock()

	if rp.running {
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	rp.cancel = cancel
	rp.running = true
	rp.startTime = time.Now()

	rp.wg.Add(1)
	go func() {
		defer rp.wg.Done()

		ticker := time.NewTicker(rp.reportInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				rp.emitStatusReport()
			}
		}
	}()
}

// Stop gracefully stops the profiler and waits for the reporter to exit.
func (rp *RuntimeProfiler) Stop() {
	if rp == nil {
		return
	}

	rp.mu.Lock()
	if !rp.running {
		rp.mu.Unlock()
		return
	}
	rp.running = false
	cancel := rp.cancel
	rp.cancel = nil
	rp.mu.Unlock()

	cancel()
	rp.wg.Wait()
}

// StartOperation begins timing an operation.
//
// Arguments:
// - name: The name of the operation to track
//
// Returns:
// - A function to call when the operation completes
func (rp *RuntimeProfiler) StartOperation(name string) func() {
	if rp == nil {
		return func() {}
	}
	start := time.Now()
	return func() {
		rp.recordOperationTime(name, time.Since(start))
	}
}

// RecordFailure counts a failed run of an operation.
func (rp *RuntimeProfiler) RecordFailure(name string) {
	if rp == nil {
		return
	}
	rp.failed.Inc()

	rp.mu.Lock()
	defer rp.mu.Unlock()
	rp.tracker(name).failures++
}

// RecordMetric records a custom metric value.
//
// Arguments:
// - name: The name of the metric
// - value: The metric value to record
func (rp *RuntimeProfiler) RecordMetric(name string, value float64) {
	if rp == nil {
		return
	}

	rp.mu.Lock()
	defer rp.mu.Unlock()

	tracker, exists := rp.customMetrics[name]
	if !exists {
		tracker = &MetricTracker{
			values: make([]float64, 0, rp.maxSamples),
			min:    value,
			max:    value,
		}
		rp.customMetrics[name] = tracker
	}

	tracker.values = append(tracker.values, value)
	if len(tracker.values) > rp.maxSamples {
		// Remove oldest sample
		tracker.sum -= tracker.values[0]
		tracker.values = tracker.values[1:]
	}

	tracker.sum += value
	tracker.count++

	if value < tracker.min {
		tracker.min = value
	}
	if value > tracker.max {
		tracker.max = value
	}
}

// tracker returns the tracker for name, creating it. Callers hold rp.mu.
func (rp *RuntimeProfiler) tracker(name string) *TimeTracker {
	t, exists := rp.operationTimes[name]
	if !exists {
		t = &TimeTracker{}
		rp.operationTimes[name] = t
	}
	return t
}

// recordOperationTime records the completion time of an operation.
func (rp *RuntimeProfiler) recordOperationTime(name string, duration time.Duration) {
	rp.completed.Inc()

	rp.mu.Lock()
	defer rp.mu.Unlock()

	tracker := rp.tracker(name)
	if tracker.count == 0 || duration < tracker.minTime {
		tracker.minTime = duration
	}
	if duration > tracker.maxTime {
		tracker.maxTime = duration
	}

	tracker.durations = append(tracker.durations, duration)
	if len(tracker.durations) > rp.maxSamples {
		// Remove oldest sample
		tracker.totalTime -= tracker.durations[0]
		tracker.durations = tracker.durations[1:]
	}

	tracker.totalTime += duration
	tracker.count++
}

// Totals returns how many operations completed and how many of them failed.
func (rp *RuntimeProfiler) Totals() (completed, failed uint64) {
	if rp == nil {
		return 0, 0
	}
	return rp.completed.Load(), rp.failed.Load()
}

// Snapshot returns per-operation statistics. Averages cover the sample window.
func (rp *RuntimeProfiler) Snapshot() map[string]OperationStats {
	if rp == nil {
		return map[string]OperationStats{}
	}

	rp.mu.RLock()
	defer rp.mu.RUnlock()

	out := make(map[string]OperationStats, len(rp.operationTimes))
	for name, t := range rp.operationTimes {
		s := OperationStats{
			Count:    t.count,
			Failures: t.failures,
			Min:      t.minTime,
			Max:      t.maxTime,
		}
		if n := len(t.durations); n > 0 {
			s.Avg = t.totalTime / time.Duration(n)
		}
		out[name] = s
	}
	return out
}

// Metrics returns the custom metric statistics.
func (rp *RuntimeProfiler) Metrics() map[string]MetricStats {
	if rp == nil {
		return map[string]MetricStats{}
	}

	rp.mu.RLock()
	defer rp.mu.RUnlock()

	out := make(map[string]MetricStats, len(rp.customMetrics))
	for name, t := range rp.customMetrics {
		s := MetricStats{Count: t.count, Min: t.min, Max: t.max}
		if n := len(t.values); n > 0 {
			s.Avg = t.sum / float64(n)
		}
		out[name] = s
	}
	return out
}

// emitStatusReport logs one line for the process and one per operation.
func (rp *RuntimeProfiler) emitStatusReport() {
	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	completed, failed := rp.Totals()
	fields := logrus.Fields{
		"uptime":     time.Since(rp.startTime).Truncate(time.Millisecond).String(),
		"goroutines": runtime.NumGoroutine(),
		"cgo_calls":  runtime.NumCgoCall(),
		"heap_alloc": formatBytes(mem.HeapAlloc),
		"sys":        formatBytes(mem.Sys),
		"completed":  completed,
		"failed":     failed,
	}
	rp.mu.Lock()
	if mem.NumGC > rp.lastGC {
		fields["gc_new"] = mem.NumGC - rp.lastGC
		rp.lastGC = mem.NumGC
	}
	rp.mu.Unlock()
	rp.log.WithFields(fields).Info("Runtime profiler status")

	snapshot := rp.Snapshot()
	names := make([]string, 0, len(snapshot))
	for name := range snapshot {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		s := snapshot[name]
		rp.log.WithFields(logrus.Fields{
			"operation": name,
			"count":     s.Count,
			"failures":  s.Failures,
			"avg":       s.Avg.Truncate(time.Microsecond).String(),
			"min":       s.Min.Truncate(time.Microsecond).String(),
			"max":       s.Max.Truncate(time.Microsecond).String(),
		}).Info("Operation timings")
	}

	for name, m := range rp.Metrics() {
		rp.log.WithFields(logrus.Fields{
			"metric": name,
			"avg":    fmt.Sprintf("%.2f", m.Avg),
			"min":    m.Min,
			"max":    m.Max,
		}).Info("Custom metric")
	}
}

// formatBytes formats byte counts in human-readable format.
func formatBytes(bytes uint64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(bytes)/float64(div), "KMGTPE"[exp])
}
