package safequery

import "log/slog"

// Options defines configurable behavior for parsing and evaluation.
//
// Separators: characters used to split pairs. Defaults to '&' only.
// StrictDecode: if true, malformed percent-escapes are returned as errors.
// If false, invalid escape sequences are kept as-is without failing the parse.
// Logger: receives Debug records about foreign, duplicate, missing and invalid
// keys. If nil, slog.Default() is used.
//
// Note: Parse uses DefaultOptions.
type Options struct {
	Separators   []rune
	StrictDecode bool
	Logger       *slog.Logger
}

// DefaultOptions used by Parse.
var DefaultOptions = Options{
	Separators:   []rune{'&'},
	StrictDecode: false,
}

func (o Options) withDefaults() Options {
	if len(o.Separators) == 0 {
		o.Separators = DefaultOptions.Separators
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	return o
}
