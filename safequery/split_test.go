package safequery

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCoerce(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  any
	}{
		{name: "true", input: "true", want: true},
		{name: "false", input: "false", want: false},
		{name: "integer", input: "99", want: float64(99)},
		{name: "zero", input: "0", want: float64(0)},
		{name: "negative", input: "-2", want: float64(-2)},
		{name: "fraction", input: "1.5", want: 1.5},
		{name: "leading_dot", input: ".5", want: 0.5},
		{name: "exponent", input: "1e3", want: float64(1000)},
		{name: "empty_stays_string", input: "", want: ""},
		{name: "text", input: "hi", want: "hi"},
		{name: "mixed", input: "12abc", want: "12abc"},
		{name: "capitalised_bool", input: "True", want: "True"},
		{name: "nan_spelling", input: "NaN", want: "NaN"},
		{name: "inf_spelling", input: "Inf", want: "Inf"},
		{name: "padded", input: " 1", want: " 1"},
		{name: "sign_only", input: "-", want: "-"},
		{name: "trailing_dot", input: "1.", want: float64(1)},
		{name: "signed_exponent", input: "+2E-1", want: 0.2},
		{name: "hex", input: "0x10", want: "0x10"},
		{name: "hex_float", input: "0x1p4", want: "0x1p4"},
		{name: "hex_float_upper", input: "0X1P-2", want: "0X1P-2"},
		{name: "hex_float_underscore", input: "0x1_0p0", want: "0x1_0p0"},
		{name: "digit_separator", input: "1_000", want: "1_000"},
		{name: "dot_only", input: ".", want: "."},
		{name: "exponent_only", input: "e5", want: "e5"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Coerce(tt.input))
		})
	}
}

func TestCoerceOutOfRange(t *testing.T) {
	got, ok := Coerce("1e400").(float64)
	assert.True(t, ok)
	assert.True(t, math.IsInf(got, 1))
}

func TestSplit(t *testing.T) {
	tests := []struct {
		name   string
		delims []string
		input  string
		coerce bool
		want   any
	}{
		{
			name:   "single_delimiter",
			delims: []string{","},
			input:  "1,2",
			want:   []any{"1", "2"},
		},
		{
			name:   "single_element_unwrapped",
			delims: []string{","},
			input:  "1",
			want:   "1",
		},
		{
			name:   "empty_tokens_kept",
			delims: []string{","},
			input:  ",",
			want:   []any{"", ""},
		},
		{
			name:   "no_delimiters",
			delims: nil,
			input:  "1,2",
			want:   "1,2",
		},
		{
			name:   "no_delimiters_coerced",
			delims: nil,
			input:  "7",
			coerce: true,
			want:   float64(7),
		},
		{
			name:   "empty_delimiter_splits_characters",
			delims: []string{""},
			input:  "ab",
			want:   []any{"a", "b"},
		},
		{
			name:   "nested_two_levels",
			delims: []string{",", ":"},
			input:  "1:2,hi,3",
			want:   []any{[]any{"1", "2"}, "hi", "3"},
		},
		{
			name:   "nested_single_outer_element",
			delims: []string{",", ":"},
			input:  "1:2",
			want:   []any{"1", "2"},
		},
		{
			name:   "nested_three_levels",
			delims: []string{"&", ";", ":"},
			input:  "1:x:1;2:x:2&debug",
			want: []any{
				[]any{
					[]any{"1", "x", "1"},
					[]any{"2", "x", "2"},
				},
				"debug",
			},
		},
		{
			name:   "nested_coerced",
			delims: []string{",", ":"},
			input:  "1:2,hi:false,99",
			coerce: true,
			want:   []any{[]any{float64(1), float64(2)}, []any{"hi", false}, float64(99)},
		},
		{
			name:   "coerced_leaf_is_split_before_coercion",
			delims: []string{"&", ";", "."},
			input:  "1.5",
			coerce: true,
			want:   []any{float64(1), float64(5)},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Split(tt.delims, tt.input, tt.coerce))
		})
	}
}

func TestSplitDepthMatchesDelimiterCount(t *testing.T) {
	depth := func(v any) int {
		d := 0
		for {
			arr, ok := v.([]any)
			if !ok {
				return d
			}
			d++
			v = arr[0]
		}
	}
	assert.Equal(t, 1, depth(Split([]string{","}, "a:b,c", false)))
	assert.Equal(t, 2, depth(Split([]string{",", ":"}, "a:b,c", false)))
	assert.Equal(t, 3, depth(Split([]string{"|", ",", ":"}, "a:b,c|d", false)))
}

func TestCollapse(t *testing.T) {
	assert.Equal(t, "a", collapse([]string{"a"}))
	assert.Equal(t, []string{"a", "b"}, collapse([]string{"a", "b"}))
	assert.Equal(t, []any{}, collapse([]any{}))
}
