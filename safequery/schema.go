package safequery

// RawParams is the collapsed view of the parsed query handed to every Mapper
// and Validator: a string for a key seen once, a []string for a key seen more
// than once.
type RawParams map[string]any

// Get returns the first value of key, or "" if the key was not seen.
func (r RawParams) Get(key string) string {
	switch v := r[key].(type) {
	case string:
		return v
	case []string:
		if len(v) > 0 {
			return v[0]
		}
	}
	return ""
}

// All returns every value of key in observation order.
func (r RawParams) All(key string) []string {
	switch v := r[key].(type) {
	case string:
		return []string{v}
	case []string:
		return append([]string(nil), v...)
	}
	return nil
}

// Mapper transforms one occurrence of a key into its typed value. A returned
// error aborts evaluation and is returned to the caller unchanged.
type Mapper func(value, key string, raw RawParams) (any, error)

// Validator reports whether a (mapped) value is acceptable. Returning false
// marks the key invalid.
type Validator func(value any, key string, raw RawParams) bool

// Field describes how one query key is handled.
//
// A key without a Field is foreign. Required keys that are missing are
// reported in ParamError.RequiredKeys. Map, when set, runs once per occurrence
// of the key; Validate then runs on every mapped value.
type Field struct {
	Key      string
	Required bool
	Map      Mapper
	Validate Validator
}

// Schema is an ordered set of fields. Fields are evaluated in declaration
// order. A Schema is read-only once built and safe for concurrent use.
type Schema struct {
	fields []Field
	index  map[string]int
}

// NewSchema builds a schema from fields. Declaring the same key twice keeps
// the first position and the last definition.
func NewSchema(fields ...Field) *Schema {
	s := &Schema{index: make(map[string]int, len(fields))}
	for _, f := range fields {
		s.put(f)
	}
	return s
}

func (s *Schema) put(f Field) {
	if i, ok := s.index[f.Key]; ok {
		s.fields[i] = f
		return
	}
	s.index[f.Key] = len(s.fields)
	s.fields = append(s.fields, f)
}

// Extend returns a new schema holding the fields of s followed by those of
// another. Fields of another win on key conflicts.
func (s *Schema) Extend(another *Schema) *Schema {
	out := NewSchema(s.Fields()...)
	for _, f := range another.Fields() {
		out.put(f)
	}
	return out
}

// Field returns the field declared for key.
func (s *Schema) Field(key string) (Field, bool) {
	if s == nil {
		return Field{}, false
	}
	i, ok := s.index[key]
	if !ok {
		return Field{}, false
	}
	return s.fields[i], true
}

// Has reports whether key is declared.
func (s *Schema) Has(key string) bool {
	_, ok := s.Field(key)
	return ok
}

// Fields returns the fields in declaration order.
func (s *Schema) Fields() []Field {
	if s == nil {
		return nil
	}
	return append([]Field(nil), s.fields...)
}

// Keys returns the declared keys in declaration order.
func (s *Schema) Keys() []string {
	if s == nil {
		return nil
	}
	keys := make([]string, len(s.fields))
	for i, f := range s.fields {
		keys[i] = f.Key
	}
	return keys
}

// Len returns the number of declared keys.
func (s *Schema) Len() int {
	if s == nil {
		return 0
	}
	return len(s.fields)
}

// MapTo adapts a plain conversion function into a Mapper.
//
//	schema := safequery.NewSchema(safequery.Field{
//		Key: "at",
//		Map: safequery.MapTo(func(v string) time.Time { t, _ := time.Parse(time.DateOnly, v); return t }),
//	})
func MapTo[T any](fn func(value string) T) Mapper {
	return func(value, _ string, _ RawParams) (any, error) {
		return fn(value), nil
	}
}

// MapToE is like MapTo for conversions that can fail.
func MapToE[T any](fn func(value string) (T, error)) Mapper {
	return func(value, _ string, _ RawParams) (any, error) {
		v, err := fn(value)
		if err != nil {
			return nil, err
		}
		return v, nil
	}
}

// ValidateAs adapts a typed predicate into a Validator. Values that are not a
// T fail validation.
func ValidateAs[T any](fn func(value T) bool) Validator {
	return func(value any, _ string, _ RawParams) bool {
		v, ok := value.(T)
		return ok && fn(v)
	}
}
