package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFamilyFor(t *testing.T) {
	tests := []struct {
		model    string
		expected Family
	}{
		{"claude-sonnet-4-5", FamilyStrict},
		{"gemini-3-pro-preview", FamilyStrict},
		{"gemini-3.1-pro-preview", FamilyStrict},
		{"gemini-2.5-flash", FamilyPermissive},
		{"gemini-2.0-flash", FamilyPermissive},
		{"", FamilyPermissive},
	}

	for _, tt := range tests {
		t.Run(tt.model, func(t *testing.T) {
			assert.Equal(t, tt.expected, FamilyFor(tt.model))
		})
	}
}

func TestSanitize_NumericCoercion(t *testing.T) {
	input := map[string]any{
		"type":      "string",
		"maxLength": "10",
		"minLength": "abc",
	}

	result, ok := Sanitize(input, FamilyPermissive).(map[string]any)
	require.True(t, ok)

	assert.Equal(t, float64(10), result["maxLength"], "numeric string should be parsed")
	assert.Equal(t, "abc", result["minLength"], "non-numeric string should be retained")
}

func TestSanitize_ObjectTypeInference(t *testing.T) {
	input := map[string]any{
		"properties": map[string]any{
			"a": map[string]any{"type": "string"},
		},
	}

	result, ok := Sanitize(input, FamilyPermissive).(map[string]any)
	require.True(t, ok)

	assert.Equal(t, "object", result["type"])

	props, ok := result["properties"].(map[string]any)
	require.True(t, ok)
	inner, ok := props["a"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, map[string]any{"type": "string"}, inner, "nested nodes should be untouched")
}

func TestSanitize_SchemaContainerTypeInference(t *testing.T) {
	input := map[string]any{
		"name": "lookup",
		"input_schema": map[string]any{
			"properties": map[string]any{},
		},
		"parameters": map[string]any{
			"required": []any{"q"},
		},
	}

	result, ok := Sanitize(input, FamilyPermissive).(map[string]any)
	require.True(t, ok)

	inputSchema := result["input_schema"].(map[string]any)
	assert.Equal(t, "object", inputSchema["type"])

	params := result["parameters"].(map[string]any)
	assert.Equal(t, "object", params["type"])
}

func TestSanitize_DisallowedKeywords(t *testing.T) {
	input := map[string]any{
		"type":                 "object",
		"$schema":              "http://json-schema.org/draft-07/schema#",
		"additionalProperties": false,
		"default":              "x",
		"format":               "uri",
		"description":          "kept",
	}

	strict, ok := Sanitize(input, FamilyStrict).(map[string]any)
	require.True(t, ok)

	assert.NotContains(t, strict, "$schema")
	assert.NotContains(t, strict, "additionalProperties")
	assert.NotContains(t, strict, "default")
	assert.NotContains(t, strict, "format")
	assert.Equal(t, "kept", strict["description"])

	permissive, ok := Sanitize(input, FamilyPermissive).(map[string]any)
	require.True(t, ok)

	assert.Contains(t, permissive, "$schema", "permissive family keeps all keywords")
	assert.Contains(t, permissive, "format")
}

func TestSanitize_UnionCollapse(t *testing.T) {
	input := map[string]any{
		"anyOf": []any{
			map[string]any{"type": "null"},
			map[string]any{"type": "string", "minLength": float64(1)},
		},
	}

	result, ok := Sanitize(input, FamilyStrict).(map[string]any)
	require.True(t, ok)

	assert.NotContains(t, result, "anyOf")
	assert.Equal(t, "string", result["type"])
	assert.Equal(t, float64(1), result["minLength"])
}

func TestSanitize_UnionCollapse_AlternativeWinsConflicts(t *testing.T) {
	input := map[string]any{
		"description": "outer",
		"type":        "object",
		"oneOf": []any{
			map[string]any{"type": "integer", "description": "inner"},
		},
	}

	result, ok := Sanitize(input, FamilyStrict).(map[string]any)
	require.True(t, ok)

	assert.NotContains(t, result, "oneOf")
	assert.Equal(t, "integer", result["type"])
	assert.Equal(t, "inner", result["description"])
}

func TestSanitize_UnionCollapse_AllNullLeftInPlace(t *testing.T) {
	input := map[string]any{
		"anyOf": []any{
			map[string]any{"type": "null"},
		},
	}

	result, ok := Sanitize(input, FamilyStrict).(map[string]any)
	require.True(t, ok)

	assert.Contains(t, result, "anyOf", "an all-null union has no usable alternative")
}

func TestSanitize_UnionKeptForPermissiveFamily(t *testing.T) {
	input := map[string]any{
		"anyOf": []any{
			map[string]any{"type": "null"},
			map[string]any{"type": "string"},
		},
	}

	result, ok := Sanitize(input, FamilyPermissive).(map[string]any)
	require.True(t, ok)

	assert.Contains(t, result, "anyOf")
}

func TestSanitize_ArraysElementWise(t *testing.T) {
	input := []any{
		map[string]any{"properties": map[string]any{}},
		"scalar",
		float64(3),
	}

	result, ok := Sanitize(input, FamilyStrict).([]any)
	require.True(t, ok)
	require.Len(t, result, 3)

	first := result[0].(map[string]any)
	assert.Equal(t, "object", first["type"])
	assert.Equal(t, "scalar", result[1])
	assert.Equal(t, float64(3), result[2])
}

func TestSanitize_Idempotent(t *testing.T) {
	input := map[string]any{
		"$schema":   "x",
		"maxLength": "12",
		"properties": map[string]any{
			"a": map[string]any{
				"anyOf": []any{
					map[string]any{"type": "null"},
					map[string]any{"type": "object", "properties": map[string]any{"b": map[string]any{"type": "string"}}},
				},
			},
		},
	}

	for _, family := range []Family{FamilyStrict, FamilyPermissive} {
		t.Run(family.String(), func(t *testing.T) {
			once := Sanitize(input, family)
			twice := Sanitize(once, family)
			assert.Equal(t, once, twice)
		})
	}
}

func TestSanitize_DoesNotMutateInput(t *testing.T) {
	input := map[string]any{
		"maxLength": "10",
		"$ref":      "#/defs/x",
		"anyOf": []any{
			map[string]any{"type": "null"},
			map[string]any{"type": "string"},
		},
	}

	_ = Sanitize(input, FamilyStrict)

	assert.Equal(t, "10", input["maxLength"])
	assert.Contains(t, input, "$ref")
	alternatives := input["anyOf"].([]any)
	require.Len(t, alternatives, 2)
	assert.Equal(t, map[string]any{"type": "null"}, alternatives[0])
}

func TestSanitize_ScalarsPassThrough(t *testing.T) {
	assert.Equal(t, "x", Sanitize("x", FamilyStrict))
	assert.Equal(t, float64(7), Sanitize(float64(7), FamilyStrict))
	assert.Equal(t, true, Sanitize(true, FamilyStrict))
	assert.Nil(t, Sanitize(nil, FamilyStrict))
}
