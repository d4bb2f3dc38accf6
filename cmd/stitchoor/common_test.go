package main

import (
	"io"
	"testing"
	"time"

	"github.com/ethpandaops/stitchoor/pkg/config"
	"github.com/ethpandaops/stitchoor/pkg/harness"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFilterTargets(t *testing.T) {
	targets := []config.TargetConfig{
		{Label: "direct", Strategy: "direct"},
		{Label: "merged", Strategy: "merged"},
		{Label: "remote-direct", Strategy: "remote"},
		{Label: "remote-merged", Strategy: "remote"},
	}

	tests := []struct {
		name       string
		labels     []string
		strategies []string
		expected   []string
	}{
		{
			name:     "no filters",
			expected: []string{"direct", "merged", "remote-direct", "remote-merged"},
		},
		{
			name:     "by label",
			labels:   []string{"merged", "remote-direct"},
			expected: []string{"merged", "remote-direct"},
		},
		{
			name:       "by strategy",
			strategies: []string{"remote"},
			expected:   []string{"remote-direct", "remote-merged"},
		},
		{
			name:       "label and strategy",
			labels:     []string{"direct", "remote-merged"},
			strategies: []string{"remote"},
			expected:   []string{"remote-merged"},
		},
		{
			name:     "no match",
			labels:   []string{"missing"},
			expected: []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := filterTargets(targets, tt.labels, tt.strategies)

			labels := make([]string, 0, len(got))
			for _, target := range got {
				labels = append(labels, target.Label)
			}

			assert.Equal(t, tt.expected, labels)
		})
	}
}

func TestSelectTargets(t *testing.T) {
	log = logrus.New()
	log.SetOutput(io.Discard)

	cfg, err := config.Load()
	require.NoError(t, err)

	require.NoError(t, selectTargets(cfg, nil, []string{"merged"}))
	require.Len(t, cfg.Targets, 1)
	assert.Equal(t, "merged", cfg.Targets[0].Label)

	err = selectTargets(cfg, []string{"missing"}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no targets match")
}

func TestBuildHarnessConfig(t *testing.T) {
	cfg, err := buildHarnessConfig(&config.BenchmarkConfig{
		Calls:       5,
		Query:       "{ test { id } }",
		CallTimeout: time.Second,
		Disciplines: []string{"concurrent"},
	})
	require.NoError(t, err)

	assert.Equal(t, 5, cfg.Calls)
	assert.Equal(t, "{ test { id } }", cfg.Query)
	assert.Equal(t, time.Second, cfg.CallTimeout)
	assert.Equal(t, []harness.Discipline{harness.Concurrent}, cfg.Disciplines)

	_, err = buildHarnessConfig(&config.BenchmarkConfig{Disciplines: []string{"sideways"}})
	require.Error(t, err)
}
