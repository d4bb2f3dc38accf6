package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/ethpandaops/stitchoor/pkg/config"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// loadConfig loads the configuration files and applies the configured log
// level unless --log-level was given explicitly.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load(cfgFiles...)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	if !cmd.Flags().Changed("log-level") {
		level, err := logrus.ParseLevel(cfg.Global.LogLevel)
		if err != nil {
			return nil, fmt.Errorf("invalid log level %q: %w", cfg.Global.LogLevel, err)
		}

		log.SetLevel(level)
	}

	return cfg, nil
}

// signalContext returns a context cancelled on SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		select {
		case sig := <-sigCh:
			log.WithField("signal", sig).Info("Received shutdown signal")
			cancel()
		case <-ctx.Done():
		}

		signal.Stop(sigCh)
	}()

	return ctx, cancel
}

// filterTargets returns the targets matching the label and strategy limits.
func filterTargets(targets []config.TargetConfig, labels, strategies []string) []config.TargetConfig {
	// No filters, return all.
	if len(labels) == 0 && len(strategies) == 0 {
		return targets
	}

	labelSet := make(map[string]struct{}, len(labels))
	for _, l := range labels {
		labelSet[l] = struct{}{}
	}

	strategySet := make(map[string]struct{}, len(strategies))
	for _, s := range strategies {
		strategySet[s] = struct{}{}
	}

	filtered := make([]config.TargetConfig, 0, len(targets))

	for _, target := range targets {
		if len(labelSet) > 0 {
			if _, ok := labelSet[target.Label]; !ok {
				continue
			}
		}

		if len(strategySet) > 0 {
			if _, ok := strategySet[target.Strategy]; !ok {
				continue
			}
		}

		filtered = append(filtered, target)
	}

	return filtered
}

// selectTargets narrows the configured targets to the limit flags and
// validates the result.
func selectTargets(cfg *config.Config, labels, strategies []string) error {
	targets := filterTargets(cfg.Targets, labels, strategies)
	if len(targets) == 0 {
		return fmt.Errorf("no targets match the specified filters")
	}

	if len(targets) != len(cfg.Targets) {
		log.WithFields(logrus.Fields{
			"total":    len(cfg.Targets),
			"filtered": len(targets),
		}).Info("Running filtered targets")
	}

	cfg.Targets = targets

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("validating config: %w", err)
	}

	return nil
}
