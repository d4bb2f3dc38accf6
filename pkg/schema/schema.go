// Package schema builds executable GraphQL targets with different
// construction strategies: direct execution, merged type definitions,
// delegation to a subschema, transformed type definitions and remote
// endpoints.
package schema

import (
	"context"
	"fmt"

	"github.com/ethpandaops/stitchoor/pkg/config"
	"github.com/ethpandaops/stitchoor/pkg/fixture"
	"github.com/ethpandaops/stitchoor/pkg/gqlresp"
	"github.com/ethpandaops/stitchoor/pkg/harness"
	graphql "github.com/graph-gophers/graphql-go"
)

// TypeDefs are the type definitions every local strategy starts from.
const TypeDefs = `
type Query {
  test: [Test]
}

type Test {
  id: Float!
  value: Float!
}
`

// DefaultQuery selects every field of every record.
const DefaultQuery = `
{
  test {
    id
    value
  }
}
`

// delegationQuery is the sub-query gateways forward to their subschema.
const delegationQuery = `{ test { id value } }`

// Strategy identifies how a target's executable is constructed.
type Strategy string

const (
	StrategyDirect      Strategy = "direct"
	StrategyMerged      Strategy = "merged"
	StrategyDelegated   Strategy = "delegated"
	StrategyTransformed Strategy = "transformed"
	StrategyRemote      Strategy = "remote"
)

// Builder constructs executables for one strategy.
type Builder interface {
	// Strategy returns the strategy this builder implements.
	Strategy() Strategy

	// Build creates the executable described by cfg over the dataset.
	Build(
		ctx context.Context,
		cfg *config.TargetConfig,
		ds *fixture.Dataset,
	) (harness.Executable, error)
}

// localExecutable runs queries in-process against a parsed schema.
type localExecutable struct {
	schema *graphql.Schema
}

// Ensure interface compliance.
var _ harness.Executable = (*localExecutable)(nil)

func newLocalExecutable(
	sdl string,
	resolver any,
	cfg *config.TargetConfig,
) (*localExecutable, error) {
	opts := make([]graphql.SchemaOpt, 0, 1)
	if cfg != nil && cfg.MaxParallelism > 0 {
		opts = append(opts, graphql.MaxParallelism(cfg.MaxParallelism))
	}

	s, err := graphql.ParseSchema(sdl, resolver, opts...)
	if err != nil {
		return nil, fmt.Errorf("parsing schema: %w", err)
	}

	return &localExecutable{schema: s}, nil
}

// Execute runs the query and converts the library response.
func (e *localExecutable) Execute(ctx context.Context, query string) (*gqlresp.Response, error) {
	resp := e.schema.Exec(ctx, query, "", nil)

	out := &gqlresp.Response{
		Data:       resp.Data,
		Extensions: resp.Extensions,
	}

	if len(resp.Errors) > 0 {
		out.Errors = make([]gqlresp.Error, 0, len(resp.Errors))

		for _, qe := range resp.Errors {
			gqlErr := gqlresp.Error{
				Message: qe.Message,
				Path:    qe.Path,
			}

			for _, loc := range qe.Locations {
				gqlErr.Locations = append(gqlErr.Locations, gqlresp.Location{
					Line:   loc.Line,
					Column: loc.Column,
				})
			}

			out.Errors = append(out.Errors, gqlErr)
		}
	}

	return out, nil
}
