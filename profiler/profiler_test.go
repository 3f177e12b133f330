package profiler

import (
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStartOperationRecordsTimings(t *testing.T) {
	rp := NewRuntimeProfiler(ProfilingOptions{})

	done := rp.StartOperation("blur")
	time.Sleep(2 * time.Millisecond)
	done()
	rp.StartOperation("blur")()
	rp.RecordFailure("blur")

	snap := rp.Snapshot()
	require.Contains(t, snap, "blur")
	s := snap["blur"]
	assert.Equal(t, int64(2), s.Count)
	assert.Equal(t, int64(1), s.Failures)
	assert.GreaterOrEqual(t, s.Max, 2*time.Millisecond)
	assert.LessOrEqual(t, s.Min, s.Avg)
	assert.LessOrEqual(t, s.Avg, s.Max)

	completed, failed := rp.Totals()
	assert.Equal(t, uint64(2), completed)
	assert.Equal(t, uint64(1), failed)
}

func TestSampleWindowIsBounded(t *testing.T) {
	rp := NewRuntimeProfiler(ProfilingOptions{MaxSamples: 3})
	for i := 0; i < 10; i++ {
		rp.recordOperationTime("gray", time.Duration(i+1)*time.Millisecond)
	}

	s := rp.Snapshot()["gray"]
	assert.Equal(t, int64(10), s.Count)
	assert.Equal(t, 9*time.Millisecond, s.Avg, "average covers the last three samples")
	assert.Equal(t, time.Millisecond, s.Min)
	assert.Equal(t, 10*time.Millisecond, s.Max)
}

func TestRecordMetric(t *testing.T) {
	rp := NewRuntimeProfiler(ProfilingOptions{})
	rp.RecordMetric("faces", 1)
	rp.RecordMetric("faces", 3)

	m := rp.Metrics()["faces"]
	assert.Equal(t, int64(2), m.Count)
	assert.Equal(t, 2.0, m.Avg)
	assert.Equal(t, 1.0, m.Min)
	assert.Equal(t, 3.0, m.Max)
}

func TestNilProfiler(t *testing.T) {
	var rp *RuntimeProfiler
	assert.NotPanics(t, func() {
		rp.StartOperation("x")()
		rp.RecordFailure("x")
		rp.RecordMetric("x", 1)
		rp.Start()
		rp.Stop()
	})
	assert.Empty(t, rp.Snapshot())
}

func TestConcurrentRecording(t *testing.T) {
	rp := NewRuntimeProfiler(ProfilingOptions{})
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				rp.StartOperation("edges")()
				if j%10 == 0 {
					rp.RecordFailure("edges")
				}
			}
		}()
	}
	wg.Wait()

	s := rp.Snapshot()["edges"]
	assert.Equal(t, int64(800), s.Count)
	assert.Equal(t, int64(80), s.Failures)
}

func TestStatusReportIsLogged(t *testing.T) {
	logger, hook := logtest.NewNullLogger()
	rp := NewRuntimeProfiler(ProfilingOptions{ReportInterval: 5 * time.Millisecond, Logger: logger})
	rp.StartOperation("gray")()
	rp.RecordMetric("faces", 2)

	rp.Start()
	rp.Start()
	require.Eventually(t, func() bool {
		for _, e := range hook.AllEntries() {
			if e.Message == "Operation timings" {
				return true
			}
		}
		return false
	}, time.Second, 5*time.Millisecond)
	rp.Stop()
	rp.Stop()

	var sawStatus bool
	for _, e := range hook.AllEntries() {
		assert.Equal(t, logrus.InfoLevel, e.Level)
		assert.Equal(t, "profiler", e.Data["subsystem"])
		if e.Message == "Runtime profiler status" {
			sawStatus = true
		}
	}
	assert.True(t, sawStatus)
}

func TestRestartAfterStop(t *testing.T) {
	logger, hook := logtest.NewNullLogger()
	rp := NewRuntimeProfiler(ProfilingOptions{ReportInterval: 5 * time.Millisecond, Logger: logger})

	rp.Start()
	rp.Stop()
	hook.Reset()

	rp.Start()
	defer rp.Stop()
	require.Eventually(t, func() bool {
		for _, e := range hook.AllEntries() {
			if e.Message == "Runtime profiler status" {
				return true
			}
		}
		return false
	}, time.Second, 5*time.Millisecond, "a restarted profiler keeps reporting")
}

func TestFormatBytes(t *testing.T) {
	assert.Equal(t, "512 B", formatBytes(512))
	assert.Equal(t, "1.5 KB", formatBytes(1536))
	assert.Equal(t, "2.0 MB", formatBytes(2*1024*1024))
}
