package analysis

import "sync"

// ProgressUpdate carries the progress of one running analysis to the UI.
type ProgressUpdate struct {
	// AnalysisIndex identifies the analysis among those started together.
	AnalysisIndex int
	// Value is the normalized progress, from 0.0 to 1.0.
	Value float64
}

// ProgressReporter is the callback analyses use to report progress without
// knowing who listens.
type ProgressReporter func(progress float64)

// ProgressReportThreshold is the minimum progress change reported by a
// Stepper between the first and last step.
const ProgressReportThreshold = 0.01

// Stepper converts loop iterations into throttled progress reports.
type Stepper struct {
	report ProgressReporter
	total  int
	last   float64
}

// NewStepper returns a Stepper for a loop of total iterations. A nil
// reporter is allowed.
func NewStepper(report ProgressReporter, total int) *Stepper {
	if report == nil {
		report = func(float64) {}
	}
	return &Stepper{report: report, total: total}
}

// Step reports that iteration i (zero-based) has completed.
func (s *Stepper) Step(i int) {
	if s.total <= 0 {
		return
	}
	p := float64(i+1) / float64(s.total)
	if p-s.last >= ProgressReportThreshold || i == 0 || i == s.total-1 {
		s.report(p)
		s.last = p
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// Observer Pattern
// ─────────────────────────────────────────────────────────────────────────────

// ProgressObserver receives progress notifications.
type ProgressObserver interface {
	// Update is called when the progress of analysis index changes.
	Update(index int, progress float64)
}

// ProgressSubject fans progress out to its registered observers. It is safe
// for concurrent use.
type ProgressSubject struct {
	observers []ProgressObserver
	mu        sync.RWMutex
}

// NewProgressSubject creates a subject with no observers.
func NewProgressSubject() *ProgressSubject {
	return &ProgressSubject{}
}

// Register adds an observer. Nil observers are ignored. Observers are
// notified in registration order.
func (s *ProgressSubject) Register(observer ProgressObserver) {
	if observer == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.observers = append(s.observers, observer)
}

// Unregister removes an observer if present.
func (s *ProgressSubject) Unregister(observer ProgressObserver) {
	if observer == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, o := range s.observers {
		if o == observer {
			s.observers = append(s.observers[:i], s.observers[i+1:]...)
			return
		}
	}
}

// Notify forwards an update to every observer synchronously.
func (s *ProgressSubject) Notify(index int, progress float64) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, o := range s.observers {
		o.Update(index, progress)
	}
}

// ObserverCount returns the number of registered observers.
func (s *ProgressSubject) ObserverCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.observers)
}

// AsProgressReporter binds the subject to an analysis index.
func (s *ProgressSubject) AsProgressReporter(index int) ProgressReporter {
	return func(progress float64) {
		s.Notify(index, progress)
	}
}
