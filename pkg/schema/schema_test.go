package schema

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/ethpandaops/stitchoor/pkg/config"
	"github.com/ethpandaops/stitchoor/pkg/fixture"
	"github.com/ethpandaops/stitchoor/pkg/harness"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vektah/gqlparser/v2/ast"
)

func testLogger() logrus.FieldLogger {
	log := logrus.New()
	log.SetOutput(io.Discard)

	return log
}

func sourceOf(name, input string) *ast.Source {
	return &ast.Source{Name: name, Input: input}
}

type testPayload struct {
	Test []fixture.Record `json:"test"`
}

func TestRegistry_LocalStrategiesReturnDataset(t *testing.T) {
	ds := fixture.New(fixture.DefaultSize, 1)
	reg := NewRegistry(testLogger())

	for _, strategy := range []Strategy{
		StrategyDirect,
		StrategyMerged,
		StrategyDelegated,
		StrategyTransformed,
	} {
		t.Run(string(strategy), func(t *testing.T) {
			target, err := reg.Build(context.Background(), &config.TargetConfig{
				Label:    string(strategy),
				Strategy: string(strategy),
			}, ds)
			require.NoError(t, err)
			assert.Equal(t, string(strategy), target.Label)

			resp, err := target.Handle.Execute(context.Background(), DefaultQuery)
			require.NoError(t, err)
			require.Empty(t, resp.Errors)

			var payload testPayload
			require.NoError(t, resp.ParseData(&payload))
			require.Len(t, payload.Test, fixture.DefaultSize)
			assert.Equal(t, ds.Records()[0], payload.Test[0])
			assert.Equal(t, ds.Records()[fixture.DefaultSize-1], payload.Test[fixture.DefaultSize-1])
		})
	}
}

func TestRegistry_InvalidQueryReturnsErrors(t *testing.T) {
	reg := NewRegistry(testLogger())

	target, err := reg.Build(context.Background(), &config.TargetConfig{
		Label:    "direct",
		Strategy: "direct",
	}, fixture.New(3, 1))
	require.NoError(t, err)

	resp, err := target.Handle.Execute(context.Background(), "{ missing }")
	require.NoError(t, err)
	require.NotEmpty(t, resp.Errors)
	assert.False(t, resp.HasData())
}

func TestRegistry_Build_ConstructionError(t *testing.T) {
	reg := NewRegistry(testLogger())
	ds := fixture.New(3, 1)

	tests := []struct {
		name string
		cfg  config.TargetConfig
	}{
		{
			name: "unknown strategy",
			cfg:  config.TargetConfig{Label: "x", Strategy: "federated"},
		},
		{
			name: "remote without endpoint",
			cfg:  config.TargetConfig{Label: "r", Strategy: "remote"},
		},
		{
			name: "missing source file",
			cfg: config.TargetConfig{
				Label:    "m",
				Strategy: "merged",
				Sources:  []string{"/nonexistent/extra.graphql"},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := reg.Build(context.Background(), &tt.cfg, ds)
			require.Error(t, err)

			var constructionErr *harness.ConstructionError
			require.True(t, errors.As(err, &constructionErr))
			assert.Equal(t, tt.cfg.Label, constructionErr.Label)
			assert.Equal(t, tt.cfg.Strategy, constructionErr.Strategy)
		})
	}
}

func TestRegistry_BuildAll(t *testing.T) {
	reg := NewRegistry(testLogger())
	ds := fixture.New(3, 1)

	targets, err := reg.BuildAll(context.Background(), config.DefaultTargets(), ds)
	require.NoError(t, err)
	require.Len(t, targets, 4)

	for i, want := range []string{"direct", "merged", "delegated", "transformed"} {
		assert.Equal(t, want, targets[i].Label)
	}

	cfgs := append(config.DefaultTargets(), config.TargetConfig{Label: "bad", Strategy: "nope"})

	_, err = reg.BuildAll(context.Background(), cfgs, ds)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `"bad"`)
}

func TestRegistry_List(t *testing.T) {
	reg := NewRegistry(testLogger())

	assert.Equal(t, []Strategy{
		StrategyDelegated,
		StrategyDirect,
		StrategyMerged,
		StrategyRemote,
		StrategyTransformed,
	}, reg.List())

	_, err := reg.Get("nope")
	require.Error(t, err)
}

func TestMergedBuilder_ExtraSources(t *testing.T) {
	dir := t.TempDir()
	ds := fixture.New(5, 1)

	write := func(name, content string) string {
		path := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

		return path
	}

	compatible := write("compatible.graphql", `
type Test {
  id: Float!
}

enum Order {
  ASC
  DESC
}

extend type Query {
  test: [Test]
}
`)

	conflicting := write("conflicting.graphql", `
type Test {
  id: String!
}
`)

	t.Run("compatible sources merge", func(t *testing.T) {
		exec, err := NewMergedBuilder().Build(context.Background(), &config.TargetConfig{
			Label:   "merged",
			Sources: []string{compatible},
		}, ds)
		require.NoError(t, err)

		resp, err := exec.Execute(context.Background(), DefaultQuery)
		require.NoError(t, err)
		require.Empty(t, resp.Errors)

		var payload testPayload
		require.NoError(t, resp.ParseData(&payload))
		assert.Len(t, payload.Test, 5)
	})

	t.Run("conflicting field types fail", func(t *testing.T) {
		_, err := NewMergedBuilder().Build(context.Background(), &config.TargetConfig{
			Label:   "merged",
			Sources: []string{conflicting},
		}, ds)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "Test.id")
	})
}

func TestMergeTypeDefs(t *testing.T) {
	t.Run("extends base definition", func(t *testing.T) {
		doc, err := MergeTypeDefs(baseSource(), sourceOf("ext", `
extend type Test {
  label: String
}
`))
		require.NoError(t, err)

		def := doc.Definitions.ForName("Test")
		require.NotNil(t, def)
		assert.NotNil(t, def.Fields.ForName("label"))
		assert.NotNil(t, def.Fields.ForName("value"))
	})

	t.Run("extending undefined type fails", func(t *testing.T) {
		_, err := MergeTypeDefs(baseSource(), sourceOf("ext", `
extend type Missing {
  x: Int
}
`))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "undefined type")
	})

	t.Run("kind mismatch fails", func(t *testing.T) {
		_, err := MergeTypeDefs(baseSource(), sourceOf("enum", `
enum Test {
  A
}
`))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "declared as both")
	})

	t.Run("syntax error fails", func(t *testing.T) {
		_, err := MergeTypeDefs(sourceOf("broken", "type {"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "broken")
	})

	t.Run("no sources", func(t *testing.T) {
		_, err := MergeTypeDefs()
		require.Error(t, err)
	})

	t.Run("formatted output validates", func(t *testing.T) {
		doc, err := MergeTypeDefs(baseSource())
		require.NoError(t, err)
		require.NoError(t, ValidateTypeDefs("merged.graphql", FormatTypeDefs(doc)))
	})
}

func TestRenameTypes(t *testing.T) {
	doc, err := MergeTypeDefs(baseSource(), sourceOf("extra", `
interface Node {
  id: Float!
}

union Item = Test

extend type Query {
  items(kind: Kind): [Item!]
}

enum Kind {
  A
  B
}
`))
	require.NoError(t, err)

	RenameTypes(doc, PrefixTypes("P"))

	assert.NotNil(t, doc.Definitions.ForName("Query"))
	assert.Nil(t, doc.Definitions.ForName("Test"))
	require.NotNil(t, doc.Definitions.ForName("PTest"))
	require.NotNil(t, doc.Definitions.ForName("PNode"))
	require.NotNil(t, doc.Definitions.ForName("PKind"))

	query := doc.Definitions.ForName("Query")
	assert.Equal(t, "PTest", query.Fields.ForName("test").Type.Elem.NamedType)

	items := query.Fields.ForName("items")
	assert.Equal(t, "PItem", items.Type.Elem.NamedType)
	assert.Equal(t, "PKind", items.Arguments.ForName("kind").Type.NamedType)
	assert.Equal(t, []string{"PTest"}, doc.Definitions.ForName("PItem").Types)

	// Built-in scalars are left alone.
	assert.Equal(t, "Float", doc.Definitions.ForName("PTest").Fields.ForName("id").Type.NamedType)

	require.NoError(t, ValidateTypeDefs("renamed.graphql", FormatTypeDefs(doc)))
}

func TestTransformedBuilder_UsesPrefix(t *testing.T) {
	exec, err := NewTransformedBuilder().Build(context.Background(), &config.TargetConfig{
		Label:      "transformed",
		TypePrefix: "Renamed",
	}, fixture.New(2, 1))
	require.NoError(t, err)

	resp, err := exec.Execute(context.Background(), `{ test { __typename id } }`)
	require.NoError(t, err)
	require.Empty(t, resp.Errors)

	assert.JSONEq(t,
		`{"test":[{"__typename":"RenamedTest","id":0},{"__typename":"RenamedTest","id":1}]}`,
		string(resp.Data))
}

func TestDecodeRecords(t *testing.T) {
	tests := []struct {
		name   string
		data   string
		want   []fixture.Record
		wantOK bool
	}{
		{
			name:   "records",
			data:   `{"test":[{"id":0,"value":0.5},{"id":1,"value":0.25}]}`,
			want:   []fixture.Record{{ID: 0, Value: 0.5}, {ID: 1, Value: 0.25}},
			wantOK: true,
		},
		{
			name:   "empty list",
			data:   `{"test":[]}`,
			want:   []fixture.Record{},
			wantOK: true,
		},
		{
			name: "null field",
			data: `{"test":null}`,
		},
		{
			name: "missing field",
			data: `{}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := decodeRecords([]byte(tt.data), "test")
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRemoteBuilder(t *testing.T) {
	ds := fixture.New(4, 1)

	direct, err := NewDirectBuilder().Build(context.Background(), &config.TargetConfig{}, ds)
	require.NoError(t, err)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer secret" {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte("unauthorized"))

			return
		}

		var body struct {
			Query string `json:"query"`
		}

		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			w.WriteHeader(http.StatusBadRequest)

			return
		}

		resp, err := direct.Execute(r.Context(), body.Query)
		if err != nil {
			w.WriteHeader(http.StatusInternalServerError)

			return
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	}))
	defer srv.Close()

	t.Run("forwards query and headers", func(t *testing.T) {
		exec, err := NewRemoteBuilder().Build(context.Background(), &config.TargetConfig{
			Label:    "remote",
			Endpoint: srv.URL,
			Headers:  map[string]string{"authorization": "Bearer secret"},
		}, nil)
		require.NoError(t, err)

		resp, err := exec.Execute(context.Background(), DefaultQuery)
		require.NoError(t, err)
		require.Empty(t, resp.Errors)

		var payload testPayload
		require.NoError(t, resp.ParseData(&payload))
		assert.Equal(t, ds.Records(), payload.Test)
	})

	t.Run("non-200 status is an error", func(t *testing.T) {
		exec, err := NewRemoteBuilder().Build(context.Background(), &config.TargetConfig{
			Label:    "remote",
			Endpoint: srv.URL,
		}, nil)
		require.NoError(t, err)

		_, err = exec.Execute(context.Background(), DefaultQuery)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unexpected status 401")
	})

	t.Run("cancelled context", func(t *testing.T) {
		exec, err := NewRemoteBuilder().Build(context.Background(), &config.TargetConfig{
			Label:    "remote",
			Endpoint: srv.URL,
		}, nil)
		require.NoError(t, err)

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err = exec.Execute(ctx, DefaultQuery)
		require.Error(t, err)
		assert.ErrorIs(t, err, context.Canceled)
	})
}
