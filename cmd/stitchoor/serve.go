package main

import (
	"fmt"

	"github.com/ethpandaops/stitchoor/pkg/api"
	"github.com/ethpandaops/stitchoor/pkg/fixture"
	"github.com/ethpandaops/stitchoor/pkg/schema"
	"github.com/spf13/cobra"
)

var (
	serveListen string
	serveLimit  []string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the configured targets over HTTP",
	Long: `Build every configured target and expose it at /graphql/{label} so a
remote target can benchmark the HTTP overhead of any strategy.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&serveListen, "listen", "",
		"Listen address, overrides api.listen")
	serveCmd.Flags().StringSliceVar(&serveLimit, "limit-target", nil,
		"Limit to targets with these labels (comma-separated or repeated flag)")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	if serveListen != "" {
		cfg.API.Listen = serveListen
	}

	if err := selectTargets(cfg, serveLimit, nil); err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	ds := fixture.New(cfg.Fixture.Records, cfg.Fixture.Seed)

	built, err := schema.NewRegistry(log).BuildAll(ctx, cfg.Targets, ds)
	if err != nil {
		return err
	}

	targets := make([]api.Target, 0, len(built))
	for i, t := range built {
		targets = append(targets, api.Target{
			Label:    t.Label,
			Strategy: cfg.Targets[i].Strategy,
			Handle:   t.Handle,
		})
	}

	srv := api.NewServer(log, &cfg.API, targets)

	if err := srv.Start(ctx); err != nil {
		return fmt.Errorf("starting api server: %w", err)
	}

	<-ctx.Done()
	log.Info("Shutting down API server")

	if err := srv.Stop(); err != nil {
		return fmt.Errorf("stopping api server: %w", err)
	}

	return nil
}
