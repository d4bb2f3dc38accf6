package main

import (
	"fmt"
	"os"

	"github.com/ethpandaops/stitchoor/pkg/config"
	"github.com/ethpandaops/stitchoor/pkg/fixture"
	"github.com/ethpandaops/stitchoor/pkg/harness"
	"github.com/ethpandaops/stitchoor/pkg/report"
	"github.com/ethpandaops/stitchoor/pkg/schema"
	"github.com/ethpandaops/stitchoor/pkg/sysinfo"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	runCalls              int
	runQuery              string
	runFormat             string
	limitTargetLabels     []string
	limitTargetStrategies []string
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the benchmark",
	Long: `Build every configured target and time the query against each of
them, first with consecutive calls and then with concurrent calls.`,
	RunE: runBenchmark,
}

func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().IntVar(&runCalls, "calls", config.DefaultCalls,
		"Number of invocations per target and discipline")
	runCmd.Flags().StringVar(&runQuery, "query", config.DefaultQuery,
		"GraphQL query every target executes")
	runCmd.Flags().StringVar(&runFormat, "format", config.DefaultFormat,
		"Report format (text, markdown, json)")
	runCmd.Flags().StringSliceVar(&limitTargetLabels, "limit-target", nil,
		"Limit to targets with these labels (comma-separated or repeated flag)")
	runCmd.Flags().StringSliceVar(&limitTargetStrategies, "limit-strategy", nil,
		"Limit to targets with these strategies (comma-separated or repeated flag)")
}

func runBenchmark(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	// Flags win over config files and environment.
	if cmd.Flags().Changed("calls") {
		cfg.Benchmark.Calls = runCalls
	}

	if cmd.Flags().Changed("query") {
		cfg.Benchmark.Query = runQuery
	}

	if cmd.Flags().Changed("format") {
		cfg.Benchmark.Format = runFormat
	}

	if err := selectTargets(cfg, limitTargetLabels, limitTargetStrategies); err != nil {
		return err
	}

	harnessCfg, err := buildHarnessConfig(&cfg.Benchmark)
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	ds := fixture.New(cfg.Fixture.Records, cfg.Fixture.Seed)

	log.WithFields(logrus.Fields{
		"records": ds.Len(),
		"seed":    ds.Seed(),
	}).Debug("Fixture built")

	targets, err := schema.NewRegistry(log).BuildAll(ctx, cfg.Targets, ds)
	if err != nil {
		return err
	}

	collector := report.NewCollector()
	reporters := report.Multi{collector}

	if cfg.Benchmark.Format == config.FormatText {
		reporters = append(reporters, report.NewConsole(os.Stdout))
	}

	h, err := harness.NewHarness(log, harnessCfg, reporters)
	if err != nil {
		return fmt.Errorf("creating harness: %w", err)
	}

	log.WithFields(logrus.Fields{
		"targets": len(targets),
		"calls":   harnessCfg.Calls,
	}).Info("Starting benchmark")

	results, err := h.RunSuite(ctx, targets)
	if err != nil {
		return fmt.Errorf("running benchmark: %w", err)
	}

	var system *sysinfo.Info

	if cfg.Benchmark.SystemInfo && cfg.Benchmark.Format != config.FormatText {
		info, err := sysinfo.Collect(ctx)
		if err != nil {
			log.WithError(err).Warn("Failed to collect system information")
		}

		system = info
	}

	summary := collector.Summary(harnessCfg.Calls, harnessCfg.Query, system)
	if err := report.Render(os.Stdout, cfg.Benchmark.Format, summary); err != nil {
		return fmt.Errorf("rendering report: %w", err)
	}

	log.WithFields(logrus.Fields{
		"results":  len(results),
		"failures": len(summary.Failures),
	}).Info("Benchmark completed")

	if len(results) == 0 {
		return fmt.Errorf("no target produced a result")
	}

	return nil
}

// buildHarnessConfig converts the benchmark section into harness settings.
func buildHarnessConfig(cfg *config.BenchmarkConfig) (*harness.Config, error) {
	disciplines := make([]harness.Discipline, 0, len(cfg.Disciplines))

	for _, name := range cfg.Disciplines {
		d, err := harness.ParseDiscipline(name)
		if err != nil {
			return nil, err
		}

		disciplines = append(disciplines, d)
	}

	return &harness.Config{
		Calls:       cfg.Calls,
		Query:       cfg.Query,
		CallTimeout: cfg.CallTimeout,
		Disciplines: disciplines,
	}, nil
}
