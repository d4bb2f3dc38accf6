package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/ethpandaops/stitchoor/pkg/harness"
	"github.com/ethpandaops/stitchoor/pkg/sysinfo"
)

// targetRow aggregates both disciplines of one target.
type targetRow struct {
	label   string
	elapsed map[harness.Discipline]float64
	failed  map[harness.Discipline]bool
}

// Markdown writes the summary as a markdown document.
func Markdown(w io.Writer, summary *Summary) error {
	var sb strings.Builder

	sb.Grow(2048)

	sb.WriteString("# GraphQL Schema Benchmark\n\n")
	writeOverview(&sb, summary)
	writeResults(&sb, summary)
	writeFailures(&sb, summary.Failures)
	writeSystem(&sb, summary.System)

	if _, err := io.WriteString(w, sb.String()); err != nil {
		return fmt.Errorf("writing markdown: %w", err)
	}

	return nil
}

// JSON writes the summary as indented JSON.
func JSON(w io.Writer, summary *Summary) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")

	if err := enc.Encode(summary); err != nil {
		return fmt.Errorf("encoding summary: %w", err)
	}

	return nil
}

func writeOverview(sb *strings.Builder, summary *Summary) {
	sb.WriteString("## Overview\n\n")
	sb.WriteString("| Field | Value |\n")
	sb.WriteString("|---|---|\n")
	fmt.Fprintf(sb, "| Calls | %d |\n", summary.Calls)
	fmt.Fprintf(sb, "| Query | `%s` |\n", strings.Join(strings.Fields(summary.Query), " "))
	fmt.Fprintf(sb, "| Results | %d |\n", len(summary.Results))
	fmt.Fprintf(sb, "| Failures | %d |\n", len(summary.Failures))
	sb.WriteString("\n")
}

func writeResults(sb *strings.Builder, summary *Summary) {
	rows := buildRows(summary)
	if len(rows) == 0 {
		return
	}

	sb.WriteString("## Results\n\n")
	sb.WriteString("| Target | Consecutive (ms) | Concurrent (ms) | Speedup |\n")
	sb.WriteString("|---|---:|---:|---:|\n")

	for _, row := range rows {
		fmt.Fprintf(sb, "| %s | %s | %s | %s |\n",
			row.label,
			row.cell(harness.Consecutive),
			row.cell(harness.Concurrent),
			row.speedup(),
		)
	}

	sb.WriteString("\n")
}

func writeFailures(sb *strings.Builder, failures []Failure) {
	if len(failures) == 0 {
		return
	}

	sb.WriteString("## Failures\n\n")

	for _, f := range failures {
		fmt.Fprintf(sb, "- **%s** (%s): `%s`\n", f.Label, f.Discipline, f.Error)
	}

	sb.WriteString("\n")
}

func writeSystem(sb *strings.Builder, sys *sysinfo.Info) {
	if sys == nil {
		return
	}

	sb.WriteString("## System\n\n")
	sb.WriteString("| Field | Value |\n")
	sb.WriteString("|---|---|\n")

	if sys.Hostname != "" {
		fmt.Fprintf(sb, "| Hostname | %s |\n", sys.Hostname)
	}

	if sys.CPUModel != "" {
		fmt.Fprintf(sb, "| CPU | %s |\n", sys.CPUModel)
	}

	if sys.CPUCores > 0 {
		fmt.Fprintf(sb, "| Cores | %d |\n", sys.CPUCores)
	}

	if sys.CPUThreads > 0 {
		fmt.Fprintf(sb, "| Threads | %d |\n", sys.CPUThreads)
	}

	if sys.CPUMhz > 0 {
		fmt.Fprintf(sb, "| CPU MHz | %.1f |\n", sys.CPUMhz)
	}

	if memory := sys.MemoryTotal(); memory != "" {
		fmt.Fprintf(sb, "| Memory | %s |\n", memory)
	}

	if sys.OS != "" {
		fmt.Fprintf(sb, "| OS | %s |\n", sys.OS)
	}

	if sys.Platform != "" {
		platform := sys.Platform
		if sys.PlatformVersion != "" {
			platform += " " + sys.PlatformVersion
		}

		fmt.Fprintf(sb, "| Platform | %s |\n", platform)
	}

	if sys.KernelVersion != "" {
		fmt.Fprintf(sb, "| Kernel | %s |\n", sys.KernelVersion)
	}

	if sys.Arch != "" {
		fmt.Fprintf(sb, "| Arch | %s |\n", sys.Arch)
	}

	if sys.GoVersion != "" {
		fmt.Fprintf(sb, "| Go | %s |\n", sys.GoVersion)
	}

	sb.WriteString("\n")
}

// buildRows groups results and failures by target in first-seen order.
func buildRows(summary *Summary) []*targetRow {
	rows := make([]*targetRow, 0, len(summary.Results))
	byLabel := make(map[string]*targetRow, len(summary.Results))

	row := func(label string) *targetRow {
		if r, ok := byLabel[label]; ok {
			return r
		}

		r := &targetRow{
			label:   label,
			elapsed: make(map[harness.Discipline]float64, 2),
			failed:  make(map[harness.Discipline]bool, 2),
		}

		byLabel[label] = r
		rows = append(rows, r)

		return r
	}

	for i := range summary.Results {
		res := &summary.Results[i]
		row(res.Label).elapsed[res.Discipline] = res.ElapsedMillis()
	}

	for _, f := range summary.Failures {
		row(f.Label).failed[f.Discipline] = true
	}

	return rows
}

func (r *targetRow) cell(d harness.Discipline) string {
	if ms, ok := r.elapsed[d]; ok {
		return fmt.Sprintf("%.3f", ms)
	}

	if r.failed[d] {
		return "failed"
	}

	return "-"
}

// speedup is the consecutive time divided by the concurrent time.
func (r *targetRow) speedup() string {
	consecutive, okA := r.elapsed[harness.Consecutive]
	concurrent, okB := r.elapsed[harness.Concurrent]

	if !okA || !okB || concurrent <= 0 {
		return "-"
	}

	return fmt.Sprintf("%.2fx", consecutive/concurrent)
}
