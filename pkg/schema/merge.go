package schema

import (
	"bytes"
	"fmt"
	"os"

	"github.com/vektah/gqlparser/v2"
	"github.com/vektah/gqlparser/v2/ast"
	"github.com/vektah/gqlparser/v2/formatter"
	"github.com/vektah/gqlparser/v2/parser"
)

// baseSource returns the default type definitions as a parser source.
func baseSource() *ast.Source {
	return &ast.Source{Name: "base.graphql", Input: TypeDefs}
}

// loadSources reads SDL files from disk.
func loadSources(paths []string) ([]*ast.Source, error) {
	sources := make([]*ast.Source, 0, len(paths))

	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading type definitions %s: %w", path, err)
		}

		sources = append(sources, &ast.Source{Name: path, Input: string(data)})
	}

	return sources, nil
}

// MergeTypeDefs folds the type definitions of all sources into a single
// document. Types declared more than once are combined field by field and
// type extensions are applied to their base definition. Declaring the same
// field with two different types is an error.
func MergeTypeDefs(sources ...*ast.Source) (*ast.SchemaDocument, error) {
	if len(sources) == 0 {
		return nil, fmt.Errorf("no type definitions to merge")
	}

	merged := &ast.SchemaDocument{}

	var extensions ast.DefinitionList

	for _, src := range sources {
		doc, err := parseSource(src)
		if err != nil {
			return nil, err
		}

		merged.Schema = append(merged.Schema, doc.Schema...)
		merged.SchemaExtension = append(merged.SchemaExtension, doc.SchemaExtension...)

		for _, dir := range doc.Directives {
			if merged.Directives.ForName(dir.Name) == nil {
				merged.Directives = append(merged.Directives, dir)
			}
		}

		for _, def := range doc.Definitions {
			existing := merged.Definitions.ForName(def.Name)
			if existing == nil {
				merged.Definitions = append(merged.Definitions, def)

				continue
			}

			if existing.Kind != def.Kind {
				return nil, fmt.Errorf(
					"type %q is declared as both %s and %s",
					def.Name, existing.Kind, def.Kind,
				)
			}

			if err := mergeDefinition(existing, def); err != nil {
				return nil, err
			}
		}

		extensions = append(extensions, doc.Extensions...)
	}

	for _, ext := range extensions {
		base := merged.Definitions.ForName(ext.Name)
		if base == nil {
			return nil, fmt.Errorf("cannot extend undefined type %q", ext.Name)
		}

		if err := mergeDefinition(base, ext); err != nil {
			return nil, err
		}

		base.Directives = append(base.Directives, ext.Directives...)
	}

	return merged, nil
}

func parseSource(src *ast.Source) (*ast.SchemaDocument, error) {
	doc, err := parser.ParseSchema(src)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", src.Name, err)
	}

	return doc, nil
}

// mergeDefinition copies the members of from into into.
func mergeDefinition(into, from *ast.Definition) error {
	for _, field := range from.Fields {
		current := into.Fields.ForName(field.Name)
		if current == nil {
			into.Fields = append(into.Fields, field)

			continue
		}

		if current.Type.String() != field.Type.String() {
			return fmt.Errorf(
				"field %s.%s is declared as both %s and %s",
				into.Name, field.Name, current.Type.String(), field.Type.String(),
			)
		}
	}

	for _, value := range from.EnumValues {
		if into.EnumValues.ForName(value.Name) == nil {
			into.EnumValues = append(into.EnumValues, value)
		}
	}

	into.Interfaces = appendUnique(into.Interfaces, from.Interfaces...)
	into.Types = appendUnique(into.Types, from.Types...)

	if into.Description == "" {
		into.Description = from.Description
	}

	return nil
}

func appendUnique(list []string, values ...string) []string {
	for _, v := range values {
		found := false

		for _, existing := range list {
			if existing == v {
				found = true

				break
			}
		}

		if !found {
			list = append(list, v)
		}
	}

	return list
}

// FormatTypeDefs prints a schema document back to SDL.
func FormatTypeDefs(doc *ast.SchemaDocument) string {
	var buf bytes.Buffer

	formatter.NewFormatter(&buf).FormatSchemaDocument(doc)

	return buf.String()
}

// ValidateTypeDefs checks that sdl forms a complete, valid schema.
func ValidateTypeDefs(name, sdl string) error {
	if _, err := gqlparser.LoadSchema(&ast.Source{Name: name, Input: sdl}); err != nil {
		return fmt.Errorf("validating %s: %w", name, err)
	}

	return nil
}

// mergedTypeDefs merges the base type definitions with extra source files.
func mergedTypeDefs(extra []string) (*ast.SchemaDocument, error) {
	sources, err := loadSources(extra)
	if err != nil {
		return nil, err
	}

	return MergeTypeDefs(append([]*ast.Source{baseSource()}, sources...)...)
}
