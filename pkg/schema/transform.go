package schema

import "github.com/vektah/gqlparser/v2/ast"

// DefaultTypePrefix is prepended to type names by the transformed strategy.
const DefaultTypePrefix = "Transformed"

var defaultRootTypeNames = []string{"Query", "Mutation", "Subscription"}

// RenameTypes renames every type defined in doc except the root operation
// types, rewriting all references to the renamed types. Built-in scalars are
// never defined in a document and stay untouched. doc is modified in place.
func RenameTypes(doc *ast.SchemaDocument, rename func(string) string) *ast.SchemaDocument {
	renamed := make(map[string]string, len(doc.Definitions))

	rootTypeNames := make(map[string]struct{}, len(defaultRootTypeNames))
	for _, name := range defaultRootTypeNames {
		rootTypeNames[name] = struct{}{}
	}

	for _, schemaDef := range doc.Schema {
		for _, op := range schemaDef.OperationTypes {
			rootTypeNames[op.Type] = struct{}{}
		}
	}

	for _, def := range doc.Definitions {
		if _, isRoot := rootTypeNames[def.Name]; isRoot {
			continue
		}

		renamed[def.Name] = rename(def.Name)
	}

	lookup := func(name string) string {
		if to, ok := renamed[name]; ok {
			return to
		}

		return name
	}

	for _, def := range doc.Definitions {
		renameDefinition(def, lookup)
	}

	for _, def := range doc.Extensions {
		renameDefinition(def, lookup)
	}

	return doc
}

func renameDefinition(def *ast.Definition, lookup func(string) string) {
	def.Name = lookup(def.Name)

	for i, iface := range def.Interfaces {
		def.Interfaces[i] = lookup(iface)
	}

	for i, member := range def.Types {
		def.Types[i] = lookup(member)
	}

	for _, field := range def.Fields {
		renameTypeRef(field.Type, lookup)

		for _, arg := range field.Arguments {
			renameTypeRef(arg.Type, lookup)
		}
	}
}

func renameTypeRef(t *ast.Type, lookup func(string) string) {
	for ; t != nil; t = t.Elem {
		if t.NamedType != "" {
			t.NamedType = lookup(t.NamedType)
		}
	}
}

// PrefixTypes returns a rename function that prepends prefix.
func PrefixTypes(prefix string) func(string) string {
	return func(name string) string {
		return prefix + name
	}
}
