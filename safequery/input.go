package safequery

import (
	"net/url"
	"strings"
)

// URLLike lists the inputs Parse accepts: a URL string (only the part from the
// first '?' is used), a parsed URL, a Values container or a standard library
// url.Values.
type URLLike interface {
	string | *url.URL | *Values | url.Values
}

// RawQuery renders a container the way Result.Raw reports it: a leading '?'
// followed by the pairs, with bare flags written as "flag" rather than
// "flag=". An empty container renders as "".
func RawQuery(v *Values) string {
	if v.Len() == 0 {
		return ""
	}
	return "?" + v.encode(true)
}

// queryFromString returns the substring of s starting at, and including, the
// first '?', or "" when there is none.
func queryFromString(s string) string {
	if i := strings.IndexByte(s, '?'); i >= 0 {
		return s[i:]
	}
	return ""
}

// queryFromURL returns the search part of u ("?a=1"), or "" when u has no query.
func queryFromURL(u *url.URL) string {
	if u == nil || u.RawQuery == "" {
		return ""
	}
	return "?" + u.RawQuery
}

// resolve turns a URLLike into the container to evaluate and the raw query
// string to report.
func resolve(u any, opts Options) (*Values, string, error) {
	var raw string
	switch t := u.(type) {
	case string:
		raw = queryFromString(t)
	case *url.URL:
		raw = queryFromURL(t)
	case *Values:
		if t == nil {
			t = NewValues()
		}
		return t, RawQuery(t), nil
	case url.Values:
		v := ValuesFromURL(t)
		return v, RawQuery(v), nil
	}
	values, err := ParseQuery(raw, opts)
	if err != nil {
		return nil, "", err
	}
	return values, raw, nil
}
