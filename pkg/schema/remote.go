package schema

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/ethpandaops/stitchoor/pkg/config"
	"github.com/ethpandaops/stitchoor/pkg/fixture"
	"github.com/ethpandaops/stitchoor/pkg/gqlresp"
	"github.com/ethpandaops/stitchoor/pkg/harness"
	"github.com/tidwall/sjson"
)

const (
	defaultRemoteTimeout = 30 * time.Second
	maxErrorBodyBytes    = 512
)

// remoteBuilder targets a GraphQL endpoint over HTTP.
type remoteBuilder struct{}

// NewRemoteBuilder returns the builder for the remote strategy.
func NewRemoteBuilder() Builder {
	return &remoteBuilder{}
}

func (b *remoteBuilder) Strategy() Strategy {
	return StrategyRemote
}

func (b *remoteBuilder) Build(
	_ context.Context,
	cfg *config.TargetConfig,
	_ *fixture.Dataset,
) (harness.Executable, error) {
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("remote target requires an endpoint")
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultRemoteTimeout
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.MaxIdleConnsPerHost = 256

	return &remoteExecutable{
		endpoint: cfg.Endpoint,
		headers:  cfg.Headers,
		client: &http.Client{
			Timeout:   timeout,
			Transport: transport,
		},
	}, nil
}

type remoteExecutable struct {
	endpoint string
	headers  map[string]string
	client   *http.Client
}

// Ensure interface compliance.
var _ harness.Executable = (*remoteExecutable)(nil)

// Execute posts the query to the endpoint and parses the response envelope.
func (e *remoteExecutable) Execute(ctx context.Context, query string) (*gqlresp.Response, error) {
	payload, err := sjson.SetBytes([]byte(`{}`), "query", query)
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	for k, v := range e.headers {
		req.Header.Set(k, v)
	}

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("sending request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		if len(body) > maxErrorBodyBytes {
			body = body[:maxErrorBodyBytes]
		}

		return nil, fmt.Errorf("unexpected status %d: %s", resp.StatusCode, string(body))
	}

	return gqlresp.Parse(body)
}
