// Package report renders benchmark events and summaries.
package report

import (
	"fmt"
	"io"
	"sync"

	"github.com/ethpandaops/stitchoor/pkg/harness"
	"github.com/ethpandaops/stitchoor/pkg/sysinfo"
)

// Formats understood by Render.
const (
	FormatText     = "text"
	FormatMarkdown = "markdown"
	FormatJSON     = "json"
)

// Failure is a (target, discipline) pair that produced no timing.
type Failure struct {
	Label      string             `json:"label"`
	Discipline harness.Discipline `json:"discipline"`
	Error      string             `json:"error"`
}

// Summary is everything a finished run reports.
type Summary struct {
	Calls    int                    `json:"calls"`
	Query    string                 `json:"query"`
	System   *sysinfo.Info          `json:"system,omitempty"`
	Results  []harness.TimingResult `json:"results"`
	Failures []Failure              `json:"failures,omitempty"`
}

// Render writes the summary in the given format. The text format streams
// through Console while the run progresses, so it renders nothing here.
func Render(w io.Writer, format string, summary *Summary) error {
	switch format {
	case FormatText, "":
		return nil
	case FormatMarkdown:
		return Markdown(w, summary)
	case FormatJSON:
		return JSON(w, summary)
	default:
		return fmt.Errorf("unknown report format %q", format)
	}
}

// Console writes section headers and timing lines as they happen.
type Console struct {
	mu sync.Mutex
	w  io.Writer
}

// Ensure interface compliance.
var _ harness.Reporter = (*Console)(nil)

// NewConsole creates a console reporter writing to w.
func NewConsole(w io.Writer) *Console {
	return &Console{w: w}
}

// StartSection implements harness.Reporter.
func (c *Console) StartSection(discipline harness.Discipline, calls int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	fmt.Fprintf(c.w, "%s tests (%d)\n", discipline, calls)
}

// Record implements harness.Reporter.
func (c *Console) Record(result harness.TimingResult) {
	c.mu.Lock()
	defer c.mu.Unlock()

	fmt.Fprintf(c.w, "%s %s: %.3fms\n", result.Label, result.Discipline, result.ElapsedMillis())
}

// Failure implements harness.Reporter.
func (c *Console) Failure(label string, discipline harness.Discipline, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	fmt.Fprintf(c.w, "%s %s: failed: %v\n", label, discipline, err)
}

// Section is an announced discipline phase.
type Section struct {
	Discipline harness.Discipline
	Calls      int
}

// Collector keeps every event for later rendering.
type Collector struct {
	mu       sync.Mutex
	sections []Section
	results  []harness.TimingResult
	failures []Failure
}

// Ensure interface compliance.
var _ harness.Reporter = (*Collector)(nil)

// NewCollector creates an empty collector.
func NewCollector() *Collector {
	return &Collector{}
}

// StartSection implements harness.Reporter.
func (c *Collector) StartSection(discipline harness.Discipline, calls int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.sections = append(c.sections, Section{Discipline: discipline, Calls: calls})
}

// Record implements harness.Reporter.
func (c *Collector) Record(result harness.TimingResult) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.results = append(c.results, result)
}

// Failure implements harness.Reporter.
func (c *Collector) Failure(label string, discipline harness.Discipline, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.failures = append(c.failures, Failure{
		Label:      label,
		Discipline: discipline,
		Error:      err.Error(),
	})
}

// Sections returns the announced sections in order.
func (c *Collector) Sections() []Section {
	c.mu.Lock()
	defer c.mu.Unlock()

	return append([]Section(nil), c.sections...)
}

// Results returns the recorded timings in order.
func (c *Collector) Results() []harness.TimingResult {
	c.mu.Lock()
	defer c.mu.Unlock()

	return append([]harness.TimingResult(nil), c.results...)
}

// Failures returns the recorded failures in order.
func (c *Collector) Failures() []Failure {
	c.mu.Lock()
	defer c.mu.Unlock()

	return append([]Failure(nil), c.failures...)
}

// Summary builds a run summary from the collected events.
func (c *Collector) Summary(calls int, query string, system *sysinfo.Info) *Summary {
	return &Summary{
		Calls:    calls,
		Query:    query,
		System:   system,
		Results:  c.Results(),
		Failures: c.Failures(),
	}
}

// Multi fans every event out to several reporters in order.
type Multi []harness.Reporter

// Ensure interface compliance.
var _ harness.Reporter = Multi(nil)

// StartSection implements harness.Reporter.
func (m Multi) StartSection(discipline harness.Discipline, calls int) {
	for _, r := range m {
		r.StartSection(discipline, calls)
	}
}

// Record implements harness.Reporter.
func (m Multi) Record(result harness.TimingResult) {
	for _, r := range m {
		r.Record(result)
	}
}

// Failure implements harness.Reporter.
func (m Multi) Failure(label string, discipline harness.Discipline, err error) {
	for _, r := range m {
		r.Failure(label, discipline, err)
	}
}
