package safequery

import (
	"encoding/base64"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/tidwall/gjson"
)

// DefaultDelimiter is used by ToArray and Array when no delimiter is given.
const DefaultDelimiter = ","

// ErrInvalidJSON is returned by the JSON mappers when a value does not hold
// valid JSON.
var ErrInvalidJSON = errors.New("invalid JSON")

// ToNumber maps a value to a float64, or NaN when it is empty or not numeric.
func ToNumber(value string) float64 {
	if n, ok := parseNumber(value); ok {
		return n
	}
	return math.NaN()
}

// ToBoolean maps a value to a bool.
//   - "true" and "" (a bare flag such as ?debug) give true
//   - "false" gives false
//   - anything else is ambiguous and reports ok == false
func ToBoolean(value string) (v bool, ok bool) {
	switch value {
	case "true", "":
		return true, true
	case "false":
		return false, true
	}
	return false, false
}

// ToArray returns a function mapping a value to a slice split by delimiters.
// More than one delimiter produces nested slices (see Split). With coerce set,
// "true"/"false" and numeric leaves become bools and float64s.
//
// The result is always a slice at the top level: empty input gives an empty
// slice and a value without any delimiter gives a one-element slice.
func ToArray(delimiters []string, coerce bool) func(value string) []any {
	delims := []string{DefaultDelimiter}
	if len(delimiters) > 0 {
		delims = append([]string(nil), delimiters...)
	}
	return func(value string) []any {
		if value == "" {
			return []any{}
		}
		out := Split(delims, value, coerce)
		if arr, ok := out.([]any); ok && len(arr) > 1 {
			return arr
		}
		return []any{out}
	}
}

// ToJSON maps a JSON document to its decoded form: map[string]any, []any,
// float64, bool, string or nil.
func ToJSON(value string) (any, error) {
	if !gjson.Valid(value) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidJSON, value)
	}
	return gjson.Parse(value).Value(), nil
}

// ToBase64JSON maps a base64 encoded JSON document (standard or URL alphabet,
// padded or not) to its decoded form.
func ToBase64JSON(value string) (any, error) {
	// form decoding turns an unescaped '+' into a space
	value = strings.ReplaceAll(value, " ", "+")

	var (
		data []byte
		err  error
	)
	for _, enc := range []*base64.Encoding{
		base64.StdEncoding,
		base64.RawStdEncoding,
		base64.URLEncoding,
		base64.RawURLEncoding,
	} {
		if data, err = enc.DecodeString(value); err == nil {
			return ToJSON(string(data))
		}
	}
	return nil, fmt.Errorf("decode base64: %w", err)
}

// Schema-ready mappers built on the functions above.
var (
	// Number maps with ToNumber.
	Number = MapTo(ToNumber)

	// Boolean maps with ToBoolean; ambiguous values map to nil.
	Boolean Mapper = func(value, _ string, _ RawParams) (any, error) {
		if b, ok := ToBoolean(value); ok {
			return b, nil
		}
		return nil, nil
	}

	// JSON maps with ToJSON.
	JSON = MapToE(ToJSON)

	// Base64JSON maps with ToBase64JSON.
	Base64JSON = MapToE(ToBase64JSON)
)

// Array returns a mapper using ToArray. Without delimiters it splits on ",".
func Array(coerce bool, delimiters ...string) Mapper {
	return MapTo(ToArray(delimiters, coerce))
}
