package safequery

import (
	"strings"

	"github.com/samber/lo"
	"github.com/samber/mo"
)

// ParamError collects the problems found while evaluating a query. It is
// reported on Result.Error, never returned as the error value of Parse.
type ParamError struct {
	RequiredKeys  []string `json:"requiredKeys,omitempty"`
	InvalidKeys   []string `json:"invalidKeys,omitempty"`
	NoQueryString bool     `json:"noQueryString,omitempty"`
}

// Error implements the error interface.
func (e *ParamError) Error() string {
	if e == nil || e.empty() {
		return ""
	}
	var parts []string
	if e.NoQueryString {
		parts = append(parts, "no query string")
	}
	if len(e.RequiredKeys) > 0 {
		parts = append(parts, "missing required keys: "+strings.Join(e.RequiredKeys, ", "))
	}
	if len(e.InvalidKeys) > 0 {
		parts = append(parts, "invalid keys: "+strings.Join(e.InvalidKeys, ", "))
	}
	return "safequery: " + strings.Join(parts, "; ")
}

func (e *ParamError) empty() bool {
	return !e.NoQueryString && len(e.RequiredKeys) == 0 && len(e.InvalidKeys) == 0
}

// Result describes a parsed query.
//
// Param holds the expected values: a single value for a key seen once, a
// slice for a key seen more than once. Foreign holds keys the schema does not
// declare, Duplicate the keys seen more than once. Foreign, Duplicate and
// Error are nil when there is nothing to report.
type Result struct {
	Raw       string         `json:"raw"`
	Param     map[string]any `json:"param"`
	Foreign   map[string]any `json:"foreign,omitempty"`
	Duplicate []string       `json:"duplicate,omitempty"`
	Error     *ParamError    `json:"error,omitempty"`
}

// Err returns Error as an error, or nil when there is none.
func (r *Result) Err() error {
	if r == nil || r.Error == nil {
		return nil
	}
	return r.Error
}

// IsDuplicate reports whether key was seen more than once.
func (r *Result) IsDuplicate(key string) bool {
	return r != nil && lo.Contains(r.Duplicate, key)
}

// occurrences returns the per-occurrence values stored for key.
func (r *Result) occurrences(key string) ([]any, bool) {
	if r == nil {
		return nil, false
	}
	v, ok := r.Param[key]
	if !ok {
		return nil, false
	}
	if !r.IsDuplicate(key) {
		return []any{v}, true
	}
	switch vals := v.(type) {
	case []string:
		return lo.Map(vals, func(s string, _ int) any { return s }), true
	case []any:
		return vals, true
	}
	return []any{v}, true
}

// Lookup returns the value of key as a T. For a key seen more than once the
// first occurrence is returned. The option is empty when the key is absent or
// its value is not a T.
func Lookup[T any](r *Result, key string) mo.Option[T] {
	vals, ok := r.occurrences(key)
	if !ok || len(vals) == 0 {
		return mo.None[T]()
	}
	v, ok := vals[0].(T)
	if !ok {
		return mo.None[T]()
	}
	return mo.Some(v)
}

// LookupAll returns every occurrence of key as a T, in observation order. It
// returns nil when the key is absent or any occurrence is not a T.
func LookupAll[T any](r *Result, key string) []T {
	vals, ok := r.occurrences(key)
	if !ok {
		return nil
	}
	out := make([]T, 0, len(vals))
	for _, v := range vals {
		t, ok := v.(T)
		if !ok {
			return nil
		}
		out = append(out, t)
	}
	return out
}
