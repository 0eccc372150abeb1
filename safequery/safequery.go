// Package safequery extracts typed, validated parameters from URL query strings.
//
// A Schema declares, per key, whether it is required, how each occurrence is
// mapped to a typed value and how that value is validated. Parse evaluates a
// query against the schema and reports everything it finds on a Result instead
// of failing on the first problem:
//
//	schema := safequery.NewSchema(
//		safequery.Field{Key: "who", Required: true},
//		safequery.Field{
//			Key:      "age",
//			Map:      safequery.Number,
//			Validate: safequery.ValidateAs(func(n float64) bool { return n > 17 }),
//		},
//		safequery.Field{Key: "tags", Map: safequery.Array(false)},
//	)
//
//	res, err := safequery.Parse("http://site.com?who=ann&age=21&tags=a,b&x=1", schema)
//	// res.Param   -> {"who": "ann", "age": 21.0, "tags": []any{"a", "b"}}
//	// res.Foreign -> {"x": "1"}
//	// res.Error   -> nil
//
// Keys that appear more than once are listed in Result.Duplicate and their
// values are kept as slices in observation order.
package safequery

import "github.com/samber/lo"

// Parse evaluates u against schema using DefaultOptions. A nil schema passes
// every key through unmapped.
//
// The returned error is non-nil only when a Mapper fails; problems with the
// query itself are reported on Result.Error.
func Parse[U URLLike](u U, schema *Schema) (*Result, error) {
	return ParseWithOptions(u, schema, DefaultOptions)
}

// ParseWithOptions is like Parse but allows configuration via Options. With
// StrictDecode set, a malformed percent-escape is returned as an error
// wrapping ErrInvalidPercent.
func ParseWithOptions[U URLLike](u U, schema *Schema, opts Options) (*Result, error) {
	values, raw, err := resolve(any(u), opts)
	if err != nil {
		return nil, err
	}
	return Evaluate(values, raw, schema, opts)
}

// Evaluate runs schema over an already built container; raw is reported
// unchanged as Result.Raw.
//
// Keys are first visited in the order they were seen: each is recorded in the
// RawParams snapshot, flagged as duplicate when seen more than once, and copied
// into Param (no schema) or Foreign (schema without the key). Schema fields are
// then visited in declaration order: missing required keys are reported,
// present keys are mapped occurrence by occurrence, validated, and stored.
func Evaluate(values *Values, raw string, schema *Schema, opts Options) (*Result, error) {
	opts = opts.withDefaults()
	logger := opts.Logger

	var (
		param     = make(map[string]any)
		foreign   = make(map[string]any)
		rawParams = make(RawParams)
		duplicate []string
		perr      ParamError
	)

	if values.Len() == 0 {
		perr.NoQueryString = true
		logger.Debug("no query string", "raw", raw)
	}

	for _, key := range values.Keys() {
		vals := values.GetAll(key)
		if len(vals) > 1 {
			duplicate = append(duplicate, key)
			logger.Debug("duplicate query key", "key", key, "count", len(vals))
		}

		collapsed := collapse(vals)
		rawParams[key] = collapsed

		if schema == nil {
			param[key] = collapsed
		} else if !schema.Has(key) {
			foreign[key] = collapsed
			logger.Debug("foreign query key", "key", key)
		}
	}

	for _, field := range schema.Fields() {
		key := field.Key
		if !values.Has(key) {
			if field.Required {
				perr.RequiredKeys = append(perr.RequiredKeys, key)
				logger.Debug("missing required query key", "key", key)
			}
			continue
		}

		vals := values.GetAll(key)
		mapped, err := mapOccurrences(field, vals, rawParams)
		if err != nil {
			return nil, err
		}

		if field.Validate != nil {
			for _, v := range mapped {
				if field.Validate(v, key, rawParams) {
					continue
				}
				if !lo.Contains(perr.InvalidKeys, key) {
					perr.InvalidKeys = append(perr.InvalidKeys, key)
					logger.Debug("invalid query key", "key", key)
				}
			}
		}

		if field.Map == nil {
			param[key] = collapse(vals)
		} else {
			param[key] = collapse(mapped)
		}
	}

	res := &Result{Raw: raw, Param: param}
	if len(foreign) > 0 {
		res.Foreign = foreign
	}
	if len(duplicate) > 0 {
		res.Duplicate = duplicate
	}
	if !perr.empty() {
		res.Error = &perr
	}
	return res, nil
}

// mapOccurrences applies field.Map to every occurrence. Without a mapper the
// raw strings are returned. A mapper error is returned as is.
func mapOccurrences(field Field, vals []string, rawParams RawParams) ([]any, error) {
	if field.Map == nil {
		return lo.Map(vals, func(s string, _ int) any { return s }), nil
	}
	out := make([]any, 0, len(vals))
	for _, v := range vals {
		m, err := field.Map(v, field.Key, rawParams)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, nil
}
