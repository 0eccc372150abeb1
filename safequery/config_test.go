package safequery

import (
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSchemaYAML(t *testing.T) {
	yaml := `
who:
  required: true
age:
  map: number
  min: 18
tags:
  map: array
  delimiter: [",", ":"]
  coerce: true
debug:
  map: boolean
  notNull: true
sort:
  oneOf: [asc, desc]
plain:
`
	schema, err := ParseSchemaYAML([]byte(yaml), nil)
	require.NoError(t, err)
	require.NotNil(t, schema)

	assert.Equal(t, []string{"who", "age", "tags", "debug", "sort", "plain"}, schema.Keys())

	who, ok := schema.Field("who")
	require.True(t, ok)
	assert.True(t, who.Required)
	assert.Nil(t, who.Map)
	assert.Nil(t, who.Validate)

	plain, ok := schema.Field("plain")
	require.True(t, ok)
	assert.Equal(t, Field{Key: "plain"}, plain)

	res, err := Parse("?who=ann&age=21&tags=1:2,x&debug&sort=asc", schema)
	require.NoError(t, err)
	assert.Nil(t, res.Error)
	assert.Equal(t, map[string]any{
		"who":   "ann",
		"age":   float64(21),
		"tags":  []any{[]any{float64(1), float64(2)}, "x"},
		"debug": true,
		"sort":  "asc",
	}, res.Param)

	res, err = Parse("?age=12&debug=maybe&sort=up", schema)
	require.NoError(t, err)
	require.NotNil(t, res.Error)
	assert.Equal(t, []string{"who"}, res.Error.RequiredKeys)
	assert.Equal(t, []string{"age", "debug", "sort"}, res.Error.InvalidKeys)
}

func TestParseSchemaYAMLSingleDelimiter(t *testing.T) {
	schema, err := ParseSchemaYAML([]byte("ids:\n  map: array\n  delimiter: \"|\"\n"), nil)
	require.NoError(t, err)

	res, err := Parse("?ids=a|b", schema)
	require.NoError(t, err)
	assert.Equal(t, []any{"a", "b"}, res.Param["ids"])
}

func TestParseSchemaYAMLCustomMapper(t *testing.T) {
	custom := map[string]Mapper{
		"upper":  MapTo(strings.ToUpper),
		"number": MapTo(func(string) float64 { return 42 }),
	}
	schema, err := ParseSchemaYAML([]byte("name:\n  map: upper\nn:\n  map: number\n"), custom)
	require.NoError(t, err)

	res, err := Parse("?name=ann&n=1", schema)
	require.NoError(t, err)
	assert.Equal(t, "ANN", res.Param["name"])
	assert.Equal(t, float64(42), res.Param["n"], "custom names take precedence")
}

func TestParseSchemaYAMLRules(t *testing.T) {
	yaml := `
n:
  map: number
  min: 1
  max: 5
  notNull: true
s:
  min: 2
  max: 3
list:
  map: array
  max: 2
id:
  pattern: "^[a-z]+[0-9]$"
`
	schema, err := ParseSchemaYAML([]byte(yaml), nil)
	require.NoError(t, err)

	tests := []struct {
		name    string
		query   string
		invalid []string
	}{
		{name: "all_valid", query: "?n=3&s=ab&list=a,b&id=abc1", invalid: nil},
		{name: "number_above_max", query: "?n=6", invalid: []string{"n"}},
		{name: "number_nan", query: "?n=x", invalid: []string{"n"}},
		{name: "string_too_short", query: "?s=a", invalid: []string{"s"}},
		{name: "string_rune_length", query: "?s=%E4%B8%AD%E6%96%87", invalid: nil},
		{name: "array_too_long", query: "?list=a,b,c", invalid: []string{"list"}},
		{name: "pattern_mismatch", query: "?id=ABC1", invalid: []string{"id"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := Parse(tt.query, schema)
			require.NoError(t, err)
			if tt.invalid == nil {
				assert.Nil(t, res.Error)
				return
			}
			require.NotNil(t, res.Error)
			assert.Equal(t, tt.invalid, res.Error.InvalidKeys)
		})
	}
}

func TestParseSchemaYAMLEmpty(t *testing.T) {
	schema, err := ParseSchemaYAML(nil, nil)
	require.NoError(t, err)
	assert.Equal(t, 0, schema.Len())

	res, err := Parse("?a=1", schema)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"a": "1"}, res.Foreign, "an empty schema makes every key foreign")
}

func TestParseSchemaYAMLErrors(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr string
	}{
		{name: "not_a_mapping", yaml: "- a\n- b\n", wantErr: "schema must be a mapping"},
		{name: "unknown_mapper", yaml: "a:\n  map: date\n", wantErr: `unknown mapper "date"`},
		{name: "unknown_setting", yaml: "a:\n  requried: true\n", wantErr: `unknown setting "requried"`},
		{name: "delimiter_without_array", yaml: "a:\n  map: number\n  delimiter: \",\"\n", wantErr: "apply only to map: array"},
		{name: "bad_pattern", yaml: "a:\n  pattern: \"(\"\n", wantErr: "pattern:"},
		{name: "bad_delimiter", yaml: "a:\n  map: array\n  delimiter: {x: y}\n", wantErr: "delimiter must be a string or a list"},
		{name: "field_not_mapping", yaml: "a: yes\n", wantErr: "field settings must be a mapping"},
		{name: "invalid_yaml", yaml: "a: [", wantErr: "failed to parse schema YAML"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseSchemaYAML([]byte(tt.yaml), nil)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestParseSchemaYAMLUnknownMapperSentinel(t *testing.T) {
	_, err := ParseSchemaYAML([]byte("a:\n  map: date\n"), nil)
	assert.ErrorIs(t, err, ErrUnknownMapper)
}

func TestMagnitude(t *testing.T) {
	n, ok := magnitude(math.NaN())
	assert.False(t, ok)
	assert.Zero(t, n)

	_, ok = magnitude(true)
	assert.False(t, ok)

	n, ok = magnitude([]any{1, 2, 3})
	assert.True(t, ok)
	assert.Equal(t, float64(3), n)
}
