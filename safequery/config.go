package safequery

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"unicode/utf8"

	"github.com/samber/lo"
	"gopkg.in/yaml.v3"
)

// ErrUnknownMapper is returned by ParseSchemaYAML for a map name that is
// neither built in nor registered by the caller.
var ErrUnknownMapper = errors.New("unknown mapper")

// fieldConfig is the YAML shape of one schema key.
type fieldConfig struct {
	Required  bool       `yaml:"required"`
	Map       string     `yaml:"map"`
	Delimiter delimiters `yaml:"delimiter"`
	Coerce    bool       `yaml:"coerce"`
	Min       *float64   `yaml:"min"`
	Max       *float64   `yaml:"max"`
	OneOf     []string   `yaml:"oneOf"`
	Pattern   string     `yaml:"pattern"`
	NotNull   bool       `yaml:"notNull"`
}

var fieldConfigKeys = []string{
	"required", "map", "delimiter", "coerce", "min", "max", "oneOf", "pattern", "notNull",
}

// delimiters accepts either a single string or a list of strings.
type delimiters []string

func (d *delimiters) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		var s string
		if err := node.Decode(&s); err != nil {
			return err
		}
		*d = delimiters{s}
	case yaml.SequenceNode:
		var list []string
		if err := node.Decode(&list); err != nil {
			return err
		}
		*d = list
	default:
		return fmt.Errorf("line %d: delimiter must be a string or a list of strings", node.Line)
	}
	return nil
}

// builtinMappers maps the names accepted in `map:` to mappers. "array" is
// built per field from delimiter and coerce.
var builtinMappers = map[string]Mapper{
	"number":     Number,
	"boolean":    Boolean,
	"json":       JSON,
	"base64json": Base64JSON,
}

// ParseSchemaYAML builds a schema from a YAML mapping of query keys to field
// settings. Keys keep the order they are written in.
//
//	who:
//	  required: true
//	age:
//	  map: number
//	  min: 18
//	tags:
//	  map: array
//	  delimiter: [",", ":"]
//	  coerce: true
//	sort:
//	  oneOf: [asc, desc]
//
// map accepts string (the default, no mapping), number, boolean, array, json,
// base64json, or any name registered in custom; custom names take precedence.
// min/max bound numbers and the length of strings and arrays, oneOf and
// pattern constrain the textual value, and notNull rejects nil and NaN.
func ParseSchemaYAML(data []byte, custom map[string]Mapper) (*Schema, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse schema YAML: %w", err)
	}

	schema := NewSchema()
	if len(doc.Content) == 0 {
		return schema, nil
	}

	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("line %d: schema must be a mapping of query keys", root.Line)
	}

	for i := 0; i+1 < len(root.Content); i += 2 {
		keyNode, valueNode := root.Content[i], root.Content[i+1]

		if err := checkFieldKeys(valueNode); err != nil {
			return nil, fmt.Errorf("key %q: %w", keyNode.Value, err)
		}

		var fc fieldConfig
		if err := valueNode.Decode(&fc); err != nil {
			return nil, fmt.Errorf("key %q: %w", keyNode.Value, err)
		}

		field, err := fc.field(keyNode.Value, custom)
		if err != nil {
			return nil, fmt.Errorf("key %q (line %d): %w", keyNode.Value, keyNode.Line, err)
		}
		schema.put(field)
	}
	return schema, nil
}

func checkFieldKeys(node *yaml.Node) error {
	switch node.Kind {
	case yaml.MappingNode:
	case yaml.ScalarNode:
		if node.Tag == "!!null" {
			return nil
		}
		fallthrough
	default:
		return fmt.Errorf("line %d: field settings must be a mapping", node.Line)
	}
	for i := 0; i < len(node.Content); i += 2 {
		name := node.Content[i].Value
		if !lo.Contains(fieldConfigKeys, name) {
			return fmt.Errorf("line %d: unknown setting %q", node.Content[i].Line, name)
		}
	}
	return nil
}

func (fc fieldConfig) field(key string, custom map[string]Mapper) (Field, error) {
	f := Field{Key: key, Required: fc.Required}

	if fc.Map != "array" && (len(fc.Delimiter) > 0 || fc.Coerce) {
		return Field{}, errors.New("delimiter and coerce apply only to map: array")
	}

	if m, ok := custom[fc.Map]; ok && fc.Map != "" {
		f.Map = m
	} else {
		switch fc.Map {
		case "", "string":
		case "array":
			f.Map = Array(fc.Coerce, fc.Delimiter...)
		default:
			m, ok := builtinMappers[fc.Map]
			if !ok {
				return Field{}, fmt.Errorf("%w %q", ErrUnknownMapper, fc.Map)
			}
			f.Map = m
		}
	}

	v, err := fc.validator()
	if err != nil {
		return Field{}, err
	}
	f.Validate = v
	return f, nil
}

// validator combines the declarative rules into one Validator, or returns nil
// when none are set.
func (fc fieldConfig) validator() (Validator, error) {
	var rules []func(any) bool

	if fc.NotNull {
		rules = append(rules, func(v any) bool {
			if n, ok := v.(float64); ok {
				return !math.IsNaN(n)
			}
			return v != nil
		})
	}
	if fc.Min != nil || fc.Max != nil {
		lower, upper := math.Inf(-1), math.Inf(1)
		if fc.Min != nil {
			lower = *fc.Min
		}
		if fc.Max != nil {
			upper = *fc.Max
		}
		rules = append(rules, func(v any) bool {
			n, ok := magnitude(v)
			return ok && n >= lower && n <= upper
		})
	}
	if len(fc.OneOf) > 0 {
		allowed := append([]string(nil), fc.OneOf...)
		rules = append(rules, func(v any) bool {
			s, ok := v.(string)
			return ok && lo.Contains(allowed, s)
		})
	}
	if fc.Pattern != "" {
		re, err := regexp.Compile(fc.Pattern)
		if err != nil {
			return nil, fmt.Errorf("pattern: %w", err)
		}
		rules = append(rules, func(v any) bool {
			s, ok := v.(string)
			return ok && re.MatchString(s)
		})
	}

	if len(rules) == 0 {
		return nil, nil
	}
	return func(value any, _ string, _ RawParams) bool {
		for _, rule := range rules {
			if !rule(value) {
				return false
			}
		}
		return true
	}, nil
}

// magnitude returns the value min/max compare against: the number itself, or
// the length of a string or array. NaN has no magnitude.
func magnitude(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, !math.IsNaN(t)
	case string:
		return float64(utf8.RuneCountInString(t)), true
	case []any:
		return float64(len(t)), true
	}
	return 0, false
}
