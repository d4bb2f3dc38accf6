// Package api serves benchmark targets over HTTP so a remote target can
// measure the transport overhead of any local strategy.
package api

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/ethpandaops/stitchoor/pkg/config"
	"github.com/ethpandaops/stitchoor/pkg/harness"
	"github.com/sirupsen/logrus"
)

const shutdownTimeout = 10 * time.Second

// Target is an executable exposed under /graphql/{label}.
type Target struct {
	Label    string
	Strategy string
	Handle   harness.Executable
}

// Server exposes the API HTTP server lifecycle.
type Server interface {
	Start(ctx context.Context) error
	Stop() error

	// Addr returns the bound listen address once started.
	Addr() string
}

// Compile-time interface check.
var _ Server = (*server)(nil)

type server struct {
	log        logrus.FieldLogger
	cfg        *config.APIConfig
	targets    []Target
	byLabel    map[string]*Target
	httpServer *http.Server
	addr       string
	wg         sync.WaitGroup
	done       chan struct{}
}

// NewServer creates a new API server for the given targets.
func NewServer(
	log logrus.FieldLogger,
	cfg *config.APIConfig,
	targets []Target,
) Server {
	s := &server{
		log:     log.WithField("component", "api"),
		cfg:     cfg,
		targets: targets,
		byLabel: make(map[string]*Target, len(targets)),
		done:    make(chan struct{}),
	}

	for i := range s.targets {
		s.byLabel[s.targets[i].Label] = &s.targets[i]
	}

	return s
}

// Start binds the listener and serves requests in the background.
func (s *server) Start(_ context.Context) error {
	router := s.buildRouter()

	s.httpServer = &http.Server{
		Addr:              s.cfg.Listen,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Bind the listener synchronously so we fail fast on port conflicts.
	ln, err := net.Listen("tcp", s.cfg.Listen)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", s.cfg.Listen, err)
	}

	s.addr = ln.Addr().String()

	s.wg.Add(1)

	go func() {
		defer s.wg.Done()

		s.log.WithFields(logrus.Fields{
			"listen":  s.addr,
			"targets": len(s.targets),
		}).Info("API server starting")

		if err := s.httpServer.Serve(ln); err != nil &&
			err != http.ErrServerClosed {
			s.log.WithError(err).Error("HTTP server error")
		}
	}()

	return nil
}

// Stop gracefully shuts down the HTTP server.
func (s *server) Stop() error {
	close(s.done)

	if s.httpServer != nil {
		ctx, cancel := context.WithTimeout(
			context.Background(), shutdownTimeout,
		)
		defer cancel()

		if err := s.httpServer.Shutdown(ctx); err != nil {
			return fmt.Errorf("shutting down http server: %w", err)
		}
	}

	s.wg.Wait()

	s.log.Info("API server stopped")

	return nil
}

func (s *server) Addr() string {
	return s.addr
}
