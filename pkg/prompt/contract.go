package prompt

import (
	"fmt"
	"strconv"
	"strings"

	"careerpath/pkg/extract"
)

const jsonOnly = "Return only valid JSON. Do not wrap it in markdown code fences and do not add any text before or after the JSON."

// Contract describes the reply schema in plain language. It is appended to
// every prompt so the instructions and the validator share one source.
func Contract(schema *extract.Schema) string {
	root := schema.Root()

	var sb strings.Builder
	switch root.Kind {
	case extract.KindObject:
		sb.WriteString("Respond with a single JSON object with exactly these keys:\n")
		writeFields(&sb, root.Fields, 0)
	case extract.KindArray:
		sb.WriteString("Respond with a JSON array of ")
		sb.WriteString(countPhrase(root))
		if root.Items != nil && root.Items.Kind == extract.KindObject {
			sb.WriteString("objects. Every object has exactly these keys:\n")
			writeFields(&sb, root.Items.Fields, 0)
		} else {
			sb.WriteString(plural(root.Items) + ".\n")
		}
	default:
		sb.WriteString("Respond with a JSON object or a JSON array.\n")
	}
	sb.WriteString(jsonOnly)
	return sb.String()
}

func writeFields(sb *strings.Builder, fields []extract.Field, depth int) {
	indent := strings.Repeat("  ", depth)
	for _, f := range fields {
		sb.WriteString(fmt.Sprintf("%s- %q: %s", indent, f.Name, describe(f)))
		if f.Optional {
			sb.WriteString(" (optional)")
		}
		if f.Description != "" {
			sb.WriteString(" - " + f.Description)
		}
		sb.WriteString("\n")

		switch {
		case f.Kind == extract.KindObject && len(f.Fields) > 0:
			writeFields(sb, f.Fields, depth+1)
		case f.Kind == extract.KindArray && f.Items != nil && f.Items.Kind == extract.KindObject:
			writeFields(sb, f.Items.Fields, depth+1)
		}
	}
}

func describe(f extract.Field) string {
	switch f.Kind {
	case extract.KindString:
		return "string"
	case extract.KindBoolean:
		return "boolean"
	case extract.KindNumber:
		return "number" + rangePhrase(f)
	case extract.KindInteger:
		return "integer" + rangePhrase(f)
	case extract.KindArray:
		if f.Items == nil {
			return "array"
		}
		if f.Items.Kind == extract.KindObject {
			return "array of " + countPhrase(f) + "objects with keys"
		}
		return "array of " + countPhrase(f) + plural(f.Items)
	case extract.KindObject:
		if f.Values != nil {
			return "object mapping names to " + describe(*f.Values)
		}
		return "object with keys"
	}
	return "any JSON value"
}

func plural(items *extract.Field) string {
	if items == nil {
		return "values"
	}
	switch items.Kind {
	case extract.KindString:
		return "strings"
	case extract.KindNumber:
		return "numbers" + rangePhrase(*items)
	case extract.KindInteger:
		return "integers" + rangePhrase(*items)
	case extract.KindBoolean:
		return "booleans"
	case extract.KindObject:
		return "objects"
	case extract.KindArray:
		return "arrays"
	}
	return "values"
}

func countPhrase(f extract.Field) string {
	switch {
	case f.MinItems > 0 && f.MinItems == f.MaxItems:
		return "exactly " + strconv.Itoa(f.MinItems) + " "
	case f.MinItems > 1 && f.MaxItems > 0:
		return fmt.Sprintf("%d to %d ", f.MinItems, f.MaxItems)
	case f.MinItems > 1:
		return "at least " + strconv.Itoa(f.MinItems) + " "
	case f.MaxItems > 0:
		return "at most " + strconv.Itoa(f.MaxItems) + " "
	}
	return ""
}

func rangePhrase(f extract.Field) string {
	switch {
	case f.Min != nil && f.Max != nil:
		return fmt.Sprintf(" from %s to %s", formatNumber(*f.Min), formatNumber(*f.Max))
	case f.Min != nil:
		return " of at least " + formatNumber(*f.Min)
	case f.Max != nil:
		return " of at most " + formatNumber(*f.Max)
	}
	return ""
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
