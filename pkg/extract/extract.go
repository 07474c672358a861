// Package extract turns raw model replies into JSON values that satisfy a
// task schema, or into a classified Failure.
package extract

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
)

type FailureKind string

const (
	InvalidJSON    FailureKind = "invalid_json"
	SchemaMismatch FailureKind = "schema_mismatch"
)

// Failure describes a reply that could not be turned into a schema value.
// Raw is always the reply exactly as the model returned it.
type Failure struct {
	Kind       FailureKind
	Raw        string
	Diagnostic string
	Fields     []string
}

func (f *Failure) Error() string {
	return fmt.Sprintf("%s: %s", f.Kind, f.Diagnostic)
}

// Result holds either a validated value or a Failure, never both.
type Result struct {
	value   any
	json    json.RawMessage
	failure *Failure
}

func (r Result) OK() bool { return r.failure == nil }
func (r Result) Value() any { return r.value }
func (r Result) JSON() json.RawMessage { return r.json }
func (r Result) Failure() *Failure { return r.failure }

const fence = "```"

var (
	fenceTag   = regexp.MustCompile(`^[A-Za-z][\w.+-]*[ \t]*\r?\n`)
	quotedName = regexp.MustCompile(`'((?:[^'\\]|\\.)*)'`)
)

// StripFences removes markdown code fences wrapping a reply, with or without a
// language tag, and trims surrounding whitespace. Text without fences is only
// trimmed. Applying it twice gives the same result as applying it once.
func StripFences(text string) string {
	text = strings.TrimSpace(text)
	for {
		stripped := strings.TrimSpace(trimLeadingFence(text))
		stripped = strings.TrimSpace(strings.TrimSuffix(stripped, fence))
		if stripped == text {
			return text
		}
		text = stripped
	}
}

func trimLeadingFence(text string) string {
	if !strings.HasPrefix(text, fence) {
		return text
	}
	rest := text[len(fence):]
	if len(rest) >= 4 && strings.EqualFold(rest[:4], "json") && !startsWithLetter(rest[4:]) {
		return rest[4:]
	}
	if tag := fenceTag.FindString(rest); tag != "" && !isJSONLiteral(strings.TrimSpace(tag)) {
		rest = rest[len(tag):]
	}
	return rest
}

func startsWithLetter(s string) bool {
	if s == "" {
		return false
	}
	c := s[0]
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isJSONLiteral(word string) bool {
	return word == "true" || word == "false" || word == "null"
}

// Extract strips fences from raw, parses it and validates it against schema.
// Failures are logged together with the raw reply.
func Extract(raw string, schema *Schema) Result {
	if schema == nil {
		return reject("", &Failure{Kind: SchemaMismatch, Raw: raw, Diagnostic: "no schema to validate against"})
	}

	text := StripFences(raw)

	var value any
	if err := json.Unmarshal([]byte(text), &value); err != nil {
		return reject(schema.name, &Failure{Kind: InvalidJSON, Raw: raw, Diagnostic: err.Error()})
	}

	if diag := schema.checkShape(value); diag != "" {
		return reject(schema.name, &Failure{Kind: SchemaMismatch, Raw: raw, Diagnostic: diag})
	}

	if problems, fields := schema.validate(value); len(problems) > 0 {
		return reject(schema.name, &Failure{
			Kind:       SchemaMismatch,
			Raw:        raw,
			Diagnostic: strings.Join(problems, "; "),
			Fields:     fields,
		})
	}

	var compact bytes.Buffer
	if err := json.Compact(&compact, []byte(text)); err != nil {
		return reject(schema.name, &Failure{Kind: InvalidJSON, Raw: raw, Diagnostic: err.Error()})
	}

	return Result{value: value, json: json.RawMessage(compact.Bytes())}
}

func reject(schema string, f *Failure) Result {
	slog.Warn("model reply rejected",
		"schema", schema,
		"kind", f.Kind,
		"diagnostic", f.Diagnostic,
		"fields", f.Fields,
		"raw", f.Raw,
	)
	return Result{failure: f}
}
