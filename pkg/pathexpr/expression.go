package pathexpr

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Wildcard is the segment that fans out over every element of an array.
const Wildcard = "*"

var (
	ErrEmptyPath           = errors.New("pathexpr: path is empty")
	ErrEmptySegment        = errors.New("pathexpr: empty path segment")
	ErrUnbalancedCondition = errors.New("pathexpr: condition must be a single trailing (...) group")
)

// Segment is a single step of a path expression.
type Segment struct {
	// Name holds the raw segment text. Index segments keep their digits here
	// so they can also address string-keyed maps.
	Name     string
	Index    int
	IsIndex  bool
	Wildcard bool
}

// Expression is a parsed validation key. Key is kept verbatim because the
// registry is keyed by the exact text the rule author wrote.
type Expression struct {
	Key       string
	Field     string
	Condition string
	Segments  []Segment
}

// HasWildcard reports whether the expression fans out over arrays.
func (e Expression) HasWildcard() bool {
	for _, seg := range e.Segments {
		if seg.Wildcard {
			return true
		}
	}
	return false
}

// HasCondition reports whether the key carries an inline condition.
func (e Expression) HasCondition() bool {
	return strings.TrimSpace(e.Condition) != ""
}

// Parse splits a validation key into its field path and optional trailing
// condition, e.g. `location.addresses.*.city(location.addresses.*.country == "CA")`.
func Parse(key string) (Expression, error) {
	if strings.TrimSpace(key) == "" {
		return Expression{}, ErrEmptyPath
	}

	field, condition, err := splitCondition(key)
	if err != nil {
		return Expression{}, err
	}

	segments, err := ParseSegments(field)
	if err != nil {
		return Expression{}, fmt.Errorf("pathexpr: parse %q: %w", key, err)
	}

	return Expression{
		Key:       key,
		Field:     strings.TrimSpace(field),
		Condition: strings.TrimSpace(condition),
		Segments:  segments,
	}, nil
}

func splitCondition(key string) (string, string, error) {
	open := strings.IndexByte(key, '(')
	if open < 0 {
		if strings.IndexByte(key, ')') >= 0 {
			return "", "", fmt.Errorf("%w: %q", ErrUnbalancedCondition, key)
		}
		return key, "", nil
	}
	trimmed := strings.TrimRight(key, " \t")
	if !strings.HasSuffix(trimmed, ")") {
		return "", "", fmt.Errorf("%w: %q", ErrUnbalancedCondition, key)
	}
	field := key[:open]
	if strings.TrimSpace(field) == "" {
		return "", "", ErrEmptyPath
	}
	return field, trimmed[open+1 : len(trimmed)-1], nil
}

// ParseSegments splits a dotted path into segments. Bracketed indices
// (`contacts[2]`, `contacts[*]`) are accepted alongside dotted ones.
func ParseSegments(path string) ([]Segment, error) {
	clean := strings.TrimSpace(path)
	if clean == "" {
		return nil, ErrEmptyPath
	}

	replacer := strings.NewReplacer("[", ".", "]", "")
	clean = replacer.Replace(clean)
	clean = strings.TrimPrefix(clean, ".")

	parts := strings.Split(clean, ".")
	out := make([]Segment, 0, len(parts))
	for _, part := range parts {
		raw := strings.TrimSpace(part)
		if raw == "" {
			return nil, ErrEmptySegment
		}
		out = append(out, newSegment(raw))
	}
	return out, nil
}

func newSegment(raw string) Segment {
	if raw == Wildcard {
		return Segment{Name: raw, Wildcard: true}
	}
	if isDigits(raw) {
		if idx, err := strconv.Atoi(raw); err == nil {
			return Segment{Name: raw, Index: idx, IsIndex: true}
		}
	}
	return Segment{Name: raw}
}

// Bind substitutes wildcard indices into path, in order, and renders the
// result with bracketed indices. Wildcards beyond len(indices) stay as `*`.
// Paths that fail to parse are returned unchanged.
func Bind(path string, indices []int) string {
	segments, err := ParseSegments(path)
	if err != nil {
		return path
	}
	next := 0
	for i, seg := range segments {
		if !seg.Wildcard || next >= len(indices) {
			continue
		}
		segments[i] = Segment{Name: strconv.Itoa(indices[next]), Index: indices[next], IsIndex: true}
		next++
	}
	return Format(segments)
}

// Format renders segments as a concrete field id: names are dot-joined and
// indices are bracketed, e.g. `location.contacts[1].email`.
func Format(segments []Segment) string {
	var b strings.Builder
	for i, seg := range segments {
		switch {
		case seg.IsIndex:
			b.WriteString("[")
			b.WriteString(strconv.Itoa(seg.Index))
			b.WriteString("]")
		default:
			if i > 0 {
				b.WriteString(".")
			}
			b.WriteString(seg.Name)
		}
	}
	return b.String()
}

func isDigits(value string) bool {
	if value == "" {
		return false
	}
	for _, r := range value {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
