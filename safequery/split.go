package safequery

import (
	"errors"
	"regexp"
	"strconv"
	"strings"

	"github.com/samber/lo"
)

// Coerce converts a token to a bool or float64 when it unambiguously reads as
// one, and returns it unchanged otherwise.
//   - "true" and "false" become booleans
//   - non-empty, fully numeric decimal text becomes a float64
//   - anything else, including "", stays a string
func Coerce(token string) any {
	switch token {
	case "true":
		return true
	case "false":
		return false
	}
	if n, ok := parseNumber(token); ok {
		return n
	}
	return token
}

// decimalNumber is the numeric text Coerce accepts: an optional sign, digits
// with an optional fraction (or a bare fraction), and an optional exponent.
var decimalNumber = regexp.MustCompile(`^[+-]?(\d+\.?\d*|\.\d+)([eE][+-]?\d+)?$`)

// parseNumber reports whether s is a number written in decimal (optionally
// signed, fractional or with an exponent). Hex, digit separators, "Inf", "NaN"
// and whitespace-padded text are rejected. Out-of-range values saturate to ±Inf
// or 0.
func parseNumber(s string) (float64, bool) {
	if !decimalNumber.MatchString(s) {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil && !errors.Is(err, strconv.ErrRange) {
		return 0, false
	}
	return f, true
}

// Split turns value into a nested structure using an ordered list of
// delimiters. The first delimiter produces the outermost level; each following
// delimiter is applied to every string leaf of the previous level. At every
// level a split yielding a single element collapses to that bare element.
//
// When coerce is set, string leaves are passed through Coerce once all levels
// are split.
//
//	Split([]string{",", ":"}, "1:2,hi,3", false) // []any{[]any{"1", "2"}, "hi", "3"}
//	Split([]string{","}, "7", true)              // float64(7)
func Split(delimiters []string, value string, coerce bool) any {
	var acc any = value
	for _, delim := range delimiters {
		acc = splitLeaves(acc, delim)
	}
	if coerce {
		acc = coerceLeaves(acc)
	}
	return acc
}

func splitLeaves(acc any, delim string) any {
	switch v := acc.(type) {
	case string:
		return collapse(lo.Map(strings.Split(v, delim), func(s string, _ int) any {
			return s
		}))
	case []any:
		out := make([]any, len(v))
		for i, elem := range v {
			out[i] = splitLeaves(elem, delim)
		}
		return out
	default:
		return acc
	}
}

func coerceLeaves(acc any) any {
	switch v := acc.(type) {
	case string:
		return Coerce(v)
	case []any:
		out := make([]any, len(v))
		for i, elem := range v {
			out[i] = coerceLeaves(elem)
		}
		return out
	default:
		return acc
	}
}

// collapse returns the sole element of a one-element list and the list itself
// otherwise.
func collapse[T any](vals []T) any {
	if len(vals) == 1 {
		return vals[0]
	}
	return vals
}
