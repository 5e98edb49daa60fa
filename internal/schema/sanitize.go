package schema

import (
	"strconv"
	"strings"
)

// Family selects how aggressively tool schemas are rewritten before they are
// forwarded upstream. Strict-family models reject a number of JSON Schema
// keywords and union constructs; permissive models take schemas as-is apart
// from basic repairs.
type Family int

const (
	FamilyPermissive Family = iota
	FamilyStrict
)

func (f Family) String() string {
	if f == FamilyStrict {
		return "strict"
	}
	return "permissive"
}

// FamilyFor returns the schema family implied by a canonical model name.
func FamilyFor(model string) Family {
	if strings.Contains(model, "claude") || strings.HasPrefix(model, "gemini-3") {
		return FamilyStrict
	}
	return FamilyPermissive
}

// disallowedKeys are schema keywords the strict dialect rejects outright.
var disallowedKeys = map[string]bool{
	"$schema":               true,
	"$id":                   true,
	"$ref":                  true,
	"$defs":                 true,
	"definitions":           true,
	"default":               true,
	"format":                true,
	"examples":              true,
	"additionalProperties":  true,
	"patternProperties":     true,
	"unevaluatedProperties": true,
}

// numericKeys are constraint keywords whose values some schema generators
// emit as strings. Both families get these repaired.
var numericKeys = map[string]bool{
	"minLength":     true,
	"maxLength":     true,
	"minItems":      true,
	"maxItems":      true,
	"minProperties": true,
	"maxProperties": true,
	"minimum":       true,
	"maximum":       true,
	"multipleOf":    true,
}

// schemaContainerKeys are keys whose object value is itself a full tool
// parameter schema and therefore must carry a type annotation.
var schemaContainerKeys = []string{"input_schema", "parameters"}

// Sanitize rewrites a tool parameter schema so the target model family
// accepts it. The input tree is never mutated; every container in the result
// is freshly allocated.
func Sanitize(node any, family Family) any {
	switch v := node.(type) {
	case map[string]any:
		return sanitizeObject(v, family)
	case []any:
		out := make([]any, len(v))
		for i, item := range v {
			out[i] = Sanitize(item, family)
		}
		return out
	default:
		return v
	}
}

func sanitizeObject(m map[string]any, family Family) map[string]any {
	out := make(map[string]any, len(m))

	for key, value := range m {
		if family == FamilyStrict && disallowedKeys[key] {
			continue
		}

		cleaned := Sanitize(value, family)
		if numericKeys[key] {
			cleaned = coerceNumber(cleaned)
		}
		out[key] = cleaned
	}

	// A node that declares properties is an object schema even when the
	// generator forgot to say so.
	if _, hasProps := out["properties"]; hasProps {
		if _, hasType := out["type"]; !hasType {
			out["type"] = "object"
		}
	}

	for _, key := range schemaContainerKeys {
		if child, ok := out[key].(map[string]any); ok {
			if _, hasType := child["type"]; !hasType {
				child["type"] = "object"
			}
		}
	}

	if family == FamilyStrict {
		for _, key := range []string{"anyOf", "oneOf"} {
			collapseUnion(out, key)
		}
	}

	return out
}

// collapseUnion replaces an anyOf/oneOf wrapper with its first non-null
// alternative, merging that alternative's keys onto the node. When every
// alternative is the null type (or the survivor is not an object) the union
// is left in place; inventing a schema would be worse than forwarding one the
// upstream rejects.
func collapseUnion(node map[string]any, unionKey string) {
	alternatives, ok := node[unionKey].([]any)
	if !ok {
		return
	}

	var chosen map[string]any
	for _, alt := range alternatives {
		altMap, isMap := alt.(map[string]any)
		if isMap {
			if t, _ := altMap["type"].(string); t == "null" {
				continue
			}
		}
		if !isMap {
			return
		}
		chosen = altMap
		break
	}

	if chosen == nil {
		return
	}

	delete(node, unionKey)
	for k, v := range chosen {
		node[k] = v
	}
}

// coerceNumber turns "10" into 10 while leaving anything that is not a
// numeric string untouched.
func coerceNumber(v any) any {
	s, ok := v.(string)
	if !ok {
		return v
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return v
	}
	return f
}
