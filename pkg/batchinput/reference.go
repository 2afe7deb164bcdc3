package batchinput

import "strings"

const (
	referencePrefix = "${"
	referenceSuffix = "}"
)

// Reference is a parsed "${dotted.path}" mapping expression.
type Reference struct {
	// Raw is the expression exactly as written
	Raw string
	// Path is the text between the braces
	Path string
	// Segments is Path split on "."
	Segments []string
}

// Split is one way of reading a reference path as dataset key and field.
type Split struct {
	Key    string
	Source string
}

// ParseReference reports whether expr is a reference. The whole string must be
// "${" + path + "}" with a non-empty path that contains no braces.
func ParseReference(expr string) (Reference, bool) {
	if !strings.HasPrefix(expr, referencePrefix) || !strings.HasSuffix(expr, referenceSuffix) {
		return Reference{}, false
	}
	if len(expr) < len(referencePrefix)+len(referenceSuffix) {
		return Reference{}, false
	}
	path := expr[len(referencePrefix) : len(expr)-len(referenceSuffix)]
	if path == "" || strings.ContainsAny(path, "{}") {
		return Reference{}, false
	}
	return Reference{
		Raw:      expr,
		Path:     path,
		Segments: strings.Split(path, "."),
	}, true
}

// Splits returns the candidate (key, source) readings of the path in priority
// order: the key takes 1, 2, ..., n-1 leading segments. A path without a dot
// has no candidates and can never resolve.
func (r Reference) Splits() []Split {
	n := len(r.Segments)
	if n < 2 {
		return nil
	}
	splits := make([]Split, 0, n-1)
	for i := 1; i < n; i++ {
		splits = append(splits, Split{
			Key:    strings.Join(r.Segments[:i], "."),
			Source: strings.Join(r.Segments[i:], "."),
		})
	}
	return splits
}

// Resolve returns the value the reference names on line. The first split whose
// key is an entry of the line and whose source is a field of that entry wins.
func (r Reference) Resolve(line CompositeLine) (interface{}, bool) {
	for _, split := range r.Splits() {
		if value, ok := line.Lookup(split.Key, split.Source); ok {
			return value, true
		}
	}
	return nil, false
}
