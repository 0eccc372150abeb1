package safequery

import (
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"
)

// ErrInvalidPercent is wrapped by ParseQuery when StrictDecode is set and a
// key or value holds a malformed percent-escape.
var ErrInvalidPercent = errors.New("invalid percent-escape")

// Values is an ordered multi-valued param container.
//
// It remembers every key/value pair in the order it was added (used when the
// container is rendered back to a query string) and the order in which each
// distinct key was first seen (used when it is evaluated against a schema).
// The zero value is an empty container ready to use.
type Values struct {
	pairs []pair
	keys  []string
	index map[string][]string
}

type pair struct {
	key   string
	value string
}

// NewValues returns an empty container.
func NewValues() *Values {
	return &Values{}
}

// ValuesFromURL converts a standard library url.Values into a container.
// url.Values carries no order, so keys are added in sorted order, the same
// order url.Values.Encode uses.
func ValuesFromURL(uv url.Values) *Values {
	v := NewValues()
	keys := make([]string, 0, len(uv))
	for k := range uv {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		for _, val := range uv[k] {
			v.Add(k, val)
		}
	}
	return v
}

// Add appends a value to key.
func (v *Values) Add(key, value string) {
	if v.index == nil {
		v.index = make(map[string][]string)
	}
	if _, seen := v.index[key]; !seen {
		v.keys = append(v.keys, key)
	}
	v.index[key] = append(v.index[key], value)
	v.pairs = append(v.pairs, pair{key: key, value: value})
}

// Get returns the first value associated with key, or "" if there is none.
func (v *Values) Get(key string) string {
	if v == nil {
		return ""
	}
	if vals := v.index[key]; len(vals) > 0 {
		return vals[0]
	}
	return ""
}

// GetAll returns every value associated with key in the order they were added.
func (v *Values) GetAll(key string) []string {
	if v == nil {
		return nil
	}
	vals := v.index[key]
	if vals == nil {
		return nil
	}
	out := make([]string, len(vals))
	copy(out, vals)
	return out
}

// Has reports whether key was added at least once.
func (v *Values) Has(key string) bool {
	if v == nil {
		return false
	}
	_, ok := v.index[key]
	return ok
}

// Keys returns the distinct keys in first-occurrence order.
func (v *Values) Keys() []string {
	if v == nil {
		return nil
	}
	out := make([]string, len(v.keys))
	copy(out, v.keys)
	return out
}

// Len returns the number of key/value pairs.
func (v *Values) Len() int {
	if v == nil {
		return 0
	}
	return len(v.pairs)
}

// Encode renders the pairs in insertion order using form-urlencoding
// ("a=1&flag=&a=2").
func (v *Values) Encode() string {
	return v.encode(false)
}

// encode renders the container; with bareFlags set, pairs holding an empty
// value are written without the trailing '=' ("a=1&flag").
func (v *Values) encode(bareFlags bool) string {
	if v.Len() == 0 {
		return ""
	}
	var b strings.Builder
	for i, p := range v.pairs {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(url.QueryEscape(p.key))
		if bareFlags && p.value == "" && p.key != "" {
			continue
		}
		b.WriteByte('=')
		b.WriteString(url.QueryEscape(p.value))
	}
	return b.String()
}

// ParseQuery builds a container from a raw query string.
//   - An optional leading '?' is trimmed
//   - Pairs are split by opts.Separators; empty pairs are skipped
//   - The first '=' splits key and value; a key without '=' gets an empty value
//   - Keys and values are decoded with application/x-www-form-urlencoded rules
//   - A pair with an empty key, such as "=1", is kept under the key ""
func ParseQuery(query string, opts Options) (*Values, error) {
	opts = opts.withDefaults()

	query = strings.TrimPrefix(query, "?")

	values := NewValues()
	for _, raw := range splitBySeparators(query, opts.Separators) {
		k, v := splitPair(raw)

		dk, err := decode(k, opts.StrictDecode)
		if err != nil {
			return nil, fmt.Errorf("decode key error: %w", err)
		}
		dv, err := decode(v, opts.StrictDecode)
		if err != nil {
			return nil, fmt.Errorf("decode value error: %w", err)
		}
		values.Add(dk, dv)
	}
	return values, nil
}

// splitPair splits a raw pair into key and value, only on the first '='.
func splitPair(s string) (string, string) {
	if i := strings.IndexByte(s, '='); i >= 0 {
		return s[:i], s[i+1:]
	}
	return s, ""
}

// splitBySeparators splits s by any rune in seps, dropping empty segments
// (leading/trailing separators or double separators).
func splitBySeparators(s string, seps []rune) []string {
	return strings.FieldsFunc(s, func(r rune) bool {
		for _, sep := range seps {
			if r == sep {
				return true
			}
		}
		return false
	})
}

// decode applies application/x-www-form-urlencoded rules.
// When strict=false, invalid percent sequences are left as literal characters.
func decode(s string, strict bool) (string, error) {
	d, err := url.QueryUnescape(s)
	if err == nil {
		return d, nil
	}
	if strict {
		return "", fmt.Errorf("%w: %q", ErrInvalidPercent, s)
	}
	return lenientDecode(s), nil
}

// lenientDecode performs application/x-www-form-urlencoded decoding without failing on malformed escapes.
// '+' -> space; valid %XX hex are decoded; invalid '%' sequences are kept literally.
func lenientDecode(s string) string {
	out := make([]byte, 0, len(s))
	b := []byte(s)
	for i := 0; i < len(b); i++ {
		c := b[i]
		switch c {
		case '+':
			out = append(out, ' ')
		case '%':
			if i+2 < len(b) && isHex(b[i+1]) && isHex(b[i+2]) {
				v, _ := strconv.ParseUint(string(b[i+1:i+3]), 16, 8)
				out = append(out, byte(v))
				i += 2
			} else {
				// keep literal '%'; following bytes are appended normally
				out = append(out, '%')
			}
		default:
			out = append(out, c)
		}
	}
	return string(out)
}

func isHex(c byte) bool {
	return ('0' <= c && c <= '9') || ('a' <= c && c <= 'f') || ('A' <= c && c <= 'F')
}
