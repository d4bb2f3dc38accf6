package schema

import (
	"context"
	"fmt"

	"github.com/ethpandaops/stitchoor/pkg/config"
	"github.com/ethpandaops/stitchoor/pkg/fixture"
	"github.com/ethpandaops/stitchoor/pkg/harness"
)

// directBuilder executes the base type definitions with resolvers bound to
// the dataset.
type directBuilder struct{}

// NewDirectBuilder returns the builder for the direct strategy.
func NewDirectBuilder() Builder {
	return &directBuilder{}
}

func (b *directBuilder) Strategy() Strategy {
	return StrategyDirect
}

func (b *directBuilder) Build(
	_ context.Context,
	cfg *config.TargetConfig,
	ds *fixture.Dataset,
) (harness.Executable, error) {
	return newLocalExecutable(TypeDefs, &queryResolver{records: ds.Records()}, cfg)
}

// mergedBuilder executes the merge of the base type definitions and any
// configured source files.
type mergedBuilder struct{}

// NewMergedBuilder returns the builder for the merged strategy.
func NewMergedBuilder() Builder {
	return &mergedBuilder{}
}

func (b *mergedBuilder) Strategy() Strategy {
	return StrategyMerged
}

func (b *mergedBuilder) Build(
	_ context.Context,
	cfg *config.TargetConfig,
	ds *fixture.Dataset,
) (harness.Executable, error) {
	doc, err := mergedTypeDefs(cfg.Sources)
	if err != nil {
		return nil, fmt.Errorf("merging type definitions: %w", err)
	}

	sdl := FormatTypeDefs(doc)
	if err := ValidateTypeDefs(cfg.Label+".graphql", sdl); err != nil {
		return nil, err
	}

	return newLocalExecutable(sdl, &queryResolver{records: ds.Records()}, cfg)
}

// delegatedBuilder executes a gateway schema whose root field forwards to a
// direct subschema.
type delegatedBuilder struct{}

// NewDelegatedBuilder returns the builder for the delegated strategy.
func NewDelegatedBuilder() Builder {
	return &delegatedBuilder{}
}

func (b *delegatedBuilder) Strategy() Strategy {
	return StrategyDelegated
}

func (b *delegatedBuilder) Build(
	_ context.Context,
	cfg *config.TargetConfig,
	ds *fixture.Dataset,
) (harness.Executable, error) {
	sub, err := newLocalExecutable(TypeDefs, &queryResolver{records: ds.Records()}, cfg)
	if err != nil {
		return nil, fmt.Errorf("building subschema: %w", err)
	}

	return newLocalExecutable(TypeDefs, &delegatingResolver{
		subschema: sub,
		query:     delegationQuery,
	}, cfg)
}

// transformedBuilder executes type definitions with renamed types through a
// gateway that delegates to the untransformed subschema.
type transformedBuilder struct{}

// NewTransformedBuilder returns the builder for the transformed strategy.
func NewTransformedBuilder() Builder {
	return &transformedBuilder{}
}

func (b *transformedBuilder) Strategy() Strategy {
	return StrategyTransformed
}

func (b *transformedBuilder) Build(
	_ context.Context,
	cfg *config.TargetConfig,
	ds *fixture.Dataset,
) (harness.Executable, error) {
	sub, err := newLocalExecutable(TypeDefs, &queryResolver{records: ds.Records()}, cfg)
	if err != nil {
		return nil, fmt.Errorf("building subschema: %w", err)
	}

	doc, err := mergedTypeDefs(cfg.Sources)
	if err != nil {
		return nil, fmt.Errorf("merging type definitions: %w", err)
	}

	prefix := cfg.TypePrefix
	if prefix == "" {
		prefix = DefaultTypePrefix
	}

	sdl := FormatTypeDefs(RenameTypes(doc, PrefixTypes(prefix)))
	if err := ValidateTypeDefs(cfg.Label+".graphql", sdl); err != nil {
		return nil, err
	}

	return newLocalExecutable(sdl, &delegatingResolver{
		subschema: sub,
		query:     delegationQuery,
	}, cfg)
}
