package analysis

import (
	"bytes"
	"strings"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
)

// recordingObserver keeps every update it receives.
type recordingObserver struct {
	mu      sync.Mutex
	updates []ProgressUpdate
}

func (o *recordingObserver) Update(index int, progress float64) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.updates = append(o.updates, ProgressUpdate{AnalysisIndex: index, Value: progress})
}

func (o *recordingObserver) count() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.updates)
}

func TestProgressSubject(t *testing.T) {
	t.Parallel()
	s := NewProgressSubject()
	s.Register(nil)
	if s.ObserverCount() != 0 {
		t.Fatalf("Registering nil should be a no-op")
	}

	o1, o2 := &recordingObserver{}, &recordingObserver{}
	s.Register(o1)
	s.Register(o2)
	s.Notify(1, 0.5)
	s.AsProgressReporter(2)(0.75)
	if o1.count() != 2 || o2.count() != 2 {
		t.Errorf("Both observers should see two updates, got %d and %d", o1.count(), o2.count())
	}
	if o1.updates[1] != (ProgressUpdate{AnalysisIndex: 2, Value: 0.75}) {
		t.Errorf("Unexpected update %+v", o1.updates[1])
	}

	s.Unregister(nil)
	s.Unregister(o1)
	if s.ObserverCount() != 1 {
		t.Errorf("Expected 1 observer after Unregister, got %d", s.ObserverCount())
	}
	s.Notify(0, 1)
	if o1.count() != 2 || o2.count() != 3 {
		t.Error("Unregistered observer should not be notified")
	}
}

func TestProgressSubjectConcurrent(t *testing.T) {
	t.Parallel()
	s := NewProgressSubject()
	o := &recordingObserver{}
	s.Register(o)
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			report := s.AsProgressReporter(i)
			for j := 0; j < 50; j++ {
				report(float64(j) / 50)
			}
		}(i)
	}
	wg.Wait()
	if o.count() != 400 {
		t.Errorf("Expected 400 updates, got %d", o.count())
	}
}

func TestChannelObserver(t *testing.T) {
	t.Parallel()
	ch := make(chan ProgressUpdate, 1)
	o := NewChannelObserver(ch)
	o.Update(0, 1.5)
	o.Update(0, 0.2) // dropped: channel full
	if u := <-ch; u.Value != 1.0 {
		t.Errorf("Progress should be clamped to 1.0, got %v", u.Value)
	}
	select {
	case u := <-ch:
		t.Errorf("Expected the second update to be dropped, got %+v", u)
	default:
	}
	NewChannelObserver(nil).Update(0, 0.5)
}

func TestLoggingObserver(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	logger := zerolog.New(&buf).Level(zerolog.DebugLevel)
	o := NewLoggingObserver(logger, 0.25)
	for _, p := range []float64{0.1, 0.2, 0.4, 0.5, 1.0} {
		o.Update(0, p)
	}
	lines := strings.Count(buf.String(), "analysis progress")
	// 0.1 (first), 0.4 (+0.3), 1.0 (final)
	if lines != 3 {
		t.Errorf("Expected 3 log lines, got %d:\n%s", lines, buf.String())
	}
	if NewLoggingObserver(logger, 0).threshold != 0.1 {
		t.Error("Non-positive threshold should default to 0.1")
	}
}

func TestMetricsObserver(t *testing.T) {
	o := NewMetricsObserver()
	o.ResetMetrics()
	o.Update(42, 0.3)
	if got := testutil.ToFloat64(progressGauge.WithLabelValues("42")); got != 0.3 {
		t.Errorf("Expected gauge 0.3, got %v", got)
	}
	o.ResetMetrics()
	NewNoOpObserver().Update(0, 1)
}
