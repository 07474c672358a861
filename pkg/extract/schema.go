package extract

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

type Kind string

const (
	KindString  Kind = "string"
	KindNumber  Kind = "number"
	KindInteger Kind = "integer"
	KindBoolean Kind = "boolean"
	KindArray   Kind = "array"
	KindObject  Kind = "object"

	// KindAny accepts any JSON value. As a schema root it accepts any object
	// or array.
	KindAny Kind = "any"
)

// Field describes one JSON value the model is expected to produce. Objects list
// their keys in Fields (required unless Optional) or describe an open map with
// Values. Arrays describe their elements with Items.
type Field struct {
	Name        string
	Kind        Kind
	Description string
	Optional    bool

	Min *float64
	Max *float64

	Items    *Field
	MinItems int
	MaxItems int

	Fields []Field
	Values *Field
}

func Range(min, max float64) (*float64, *float64) {
	return &min, &max
}

// Schema is a compiled descriptor for one task's reply.
type Schema struct {
	name     string
	root     Field
	compiled *jsonschema.Schema
}

func Compile(name string, root Field) (*Schema, error) {
	doc, err := json.Marshal(root.jsonSchema())
	if err != nil {
		return nil, fmt.Errorf("encode schema %s: %w", name, err)
	}

	location := url.PathEscape(name) + ".json"
	compiler := jsonschema.NewCompiler()
	compiler.Draft = jsonschema.Draft2020
	if err := compiler.AddResource(location, bytes.NewReader(doc)); err != nil {
		return nil, fmt.Errorf("add schema %s: %w", name, err)
	}
	compiled, err := compiler.Compile(location)
	if err != nil {
		return nil, fmt.Errorf("compile schema %s: %w", name, err)
	}

	return &Schema{name: name, root: root, compiled: compiled}, nil
}

func MustCompile(name string, root Field) *Schema {
	s, err := Compile(name, root)
	if err != nil {
		panic(err)
	}
	return s
}

func (s *Schema) Name() string { return s.name }
func (s *Schema) Root() Field { return s.root }

func (f Field) jsonSchema() map[string]any {
	out := map[string]any{}

	switch f.Kind {
	case KindString, KindBoolean:
		out["type"] = string(f.Kind)
	case KindNumber, KindInteger:
		out["type"] = string(f.Kind)
		if f.Min != nil {
			out["minimum"] = *f.Min
		}
		if f.Max != nil {
			out["maximum"] = *f.Max
		}
	case KindArray:
		out["type"] = "array"
		if f.Items != nil {
			out["items"] = f.Items.jsonSchema()
		}
		if f.MinItems > 0 {
			out["minItems"] = f.MinItems
		}
		if f.MaxItems > 0 {
			out["maxItems"] = f.MaxItems
		}
	case KindObject:
		out["type"] = "object"
		if len(f.Fields) > 0 {
			props := make(map[string]any, len(f.Fields))
			required := []string{}
			for _, child := range f.Fields {
				props[child.Name] = child.jsonSchema()
				if !child.Optional {
					required = append(required, child.Name)
				}
			}
			out["properties"] = props
			if len(required) > 0 {
				out["required"] = required
			}
		}
		if f.Values != nil {
			out["additionalProperties"] = f.Values.jsonSchema()
		}
	}

	return out
}

func (s *Schema) checkShape(value any) string {
	got := kindOf(value)
	switch s.root.Kind {
	case KindAny:
		if got == KindObject || got == KindArray {
			return ""
		}
		return fmt.Sprintf("expected a JSON object or array, got %s", got)
	case got:
		return ""
	}
	return fmt.Sprintf("expected a JSON %s at the top level, got %s", s.root.Kind, got)
}

// validate returns one diagnostic line per violation and the sorted, unique
// field paths involved.
func (s *Schema) validate(value any) ([]string, []string) {
	err := s.compiled.Validate(value)
	if err == nil {
		return nil, nil
	}

	var verr *jsonschema.ValidationError
	if !errors.As(err, &verr) {
		return []string{err.Error()}, nil
	}

	var leaves []*jsonschema.ValidationError
	collectLeaves(verr, &leaves)

	var problems []string
	seen := map[string]bool{}
	var fields []string
	addField := func(f string) {
		if f != "" && !seen[f] {
			seen[f] = true
			fields = append(fields, f)
		}
	}

	for _, leaf := range leaves {
		path := pointerToPath(leaf.InstanceLocation)
		display := path
		if display == "" {
			display = "(root)"
		}
		problems = append(problems, display+": "+leaf.Message)

		if strings.HasSuffix(leaf.KeywordLocation, "/required") {
			for _, m := range quotedName.FindAllStringSubmatch(leaf.Message, -1) {
				addField(joinPath(path, m[1]))
			}
			continue
		}
		addField(path)
	}

	sort.Strings(problems)
	sort.Strings(fields)
	return problems, fields
}

func collectLeaves(verr *jsonschema.ValidationError, out *[]*jsonschema.ValidationError) {
	if len(verr.Causes) == 0 {
		*out = append(*out, verr)
		return
	}
	for _, cause := range verr.Causes {
		collectLeaves(cause, out)
	}
}

// pointerToPath turns "/suggested_companies/0/name" into
// "suggested_companies[0].name".
func pointerToPath(pointer string) string {
	if pointer == "" || pointer == "/" {
		return ""
	}
	var sb strings.Builder
	for _, token := range strings.Split(strings.TrimPrefix(pointer, "/"), "/") {
		token = strings.ReplaceAll(strings.ReplaceAll(token, "~1", "/"), "~0", "~")
		if isIndex(token) {
			sb.WriteString("[" + token + "]")
			continue
		}
		if sb.Len() > 0 {
			sb.WriteString(".")
		}
		sb.WriteString(token)
	}
	return sb.String()
}

func joinPath(parent, name string) string {
	if parent == "" {
		return name
	}
	return parent + "." + name
}

func isIndex(token string) bool {
	if token == "" {
		return false
	}
	for _, r := range token {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func kindOf(value any) Kind {
	switch value.(type) {
	case map[string]any:
		return KindObject
	case []any:
		return KindArray
	case string:
		return KindString
	case float64, json.Number:
		return KindNumber
	case bool:
		return KindBoolean
	case nil:
		return "null"
	}
	return KindAny
}
