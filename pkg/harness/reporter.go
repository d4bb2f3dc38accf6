package harness

// Reporter receives benchmark events. All methods are called from the
// goroutine driving the harness, never concurrently.
type Reporter interface {
	// StartSection announces the start of a discipline phase.
	StartSection(discipline Discipline, calls int)

	// Record receives a completed timing.
	Record(result TimingResult)

	// Failure receives a (target, discipline) pair that did not complete.
	Failure(label string, discipline Discipline, err error)
}

// NopReporter discards all events.
type NopReporter struct{}

// StartSection implements Reporter.
func (NopReporter) StartSection(Discipline, int) {}

// Record implements Reporter.
func (NopReporter) Record(TimingResult) {}

// Failure implements Reporter.
func (NopReporter) Failure(string, Discipline, error) {}
