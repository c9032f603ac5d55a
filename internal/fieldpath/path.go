// Package fieldpath addresses values inside nested records.
//
// Paths are written the way mapping files write them:
//
//	user.first_name
//	items[0].sku
//	items[-1]
//	items[*].price
//	.order.id?
//
// A path holds at most one wildcard. Reads never fail: anything that cannot
// be resolved reads as Null. Writes create the intermediate maps (and, for
// explicit indices, sequences) they need.
package fieldpath

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

// ErrMultipleWildcards is returned when a path holds more than one [*].
var ErrMultipleWildcards = errors.New("only one [*] wildcard is allowed per path")

// SegmentKind tells the three kinds of path segment apart.
type SegmentKind uint8

const (
	// SegmentField selects a key of a map.
	SegmentField SegmentKind = iota
	// SegmentIndex selects one element of a sequence; negative indices
	// count from the end.
	SegmentIndex
	// SegmentWildcard fans out over every element of a sequence.
	SegmentWildcard
)

// Segment is one step of a Path.
type Segment struct {
	Kind  SegmentKind
	Name  string
	Index int
}

// Field returns a field segment.
func Field(name string) Segment { return Segment{Kind: SegmentField, Name: name} }

// Index returns an index segment.
func Index(i int) Segment { return Segment{Kind: SegmentIndex, Index: i} }

// Wildcard returns a wildcard segment.
func Wildcard() Segment { return Segment{Kind: SegmentWildcard} }

// Path is a parsed field path.
type Path struct {
	Segments []Segment
	// Optional is set by a trailing "?": a Null read skips the mapping.
	Optional bool
	// Rooted records a leading "."; it carries no meaning beyond rendering.
	Rooted bool
}

// New builds a path from segments.
func New(segs ...Segment) Path {
	return Path{Segments: segs}
}

// WildcardIndex returns the position of the wildcard segment or -1.
func (p Path) WildcardIndex() int {
	for i, s := range p.Segments {
		if s.Kind == SegmentWildcard {
			return i
		}
	}

	return -1
}

// HasWildcard reports whether the path fans out.
func (p Path) HasWildcard() bool {
	return p.WildcardIndex() >= 0
}

// IsZero reports whether the path has no segments.
func (p Path) IsZero() bool {
	return len(p.Segments) == 0
}

// Validate checks the structural rules a parsed path must satisfy.
func (p Path) Validate() error {
	if len(p.Segments) == 0 {
		return errors.New("empty path")
	}

	if p.Segments[0].Kind != SegmentField {
		return fmt.Errorf("path %q must start with a field name", p)
	}

	wildcards := 0

	for _, s := range p.Segments {
		if s.Kind == SegmentWildcard {
			wildcards++
		}
	}

	if wildcards > 1 {
		return fmt.Errorf("path %q: %w", p, ErrMultipleWildcards)
	}

	return nil
}

// String renders the path in mapping-file syntax.
func (p Path) String() string {
	var b strings.Builder

	if p.Rooted {
		b.WriteByte('.')
	}

	for i, s := range p.Segments {
		switch s.Kind {
		case SegmentField:
			if i > 0 {
				b.WriteByte('.')
			}

			b.WriteString(s.Name)
		case SegmentIndex:
			b.WriteByte('[')
			b.WriteString(strconv.Itoa(s.Index))
			b.WriteByte(']')
		case SegmentWildcard:
			b.WriteString("[*]")
		}
	}

	if p.Optional {
		b.WriteByte('?')
	}

	return b.String()
}

// Parse parses a path from text.
// Supports: "a", "a.b", "a[0]", "a[-1].b", "items[*].price", ".a", "a.b?".
func Parse(text string) (Path, error) {
	if text == "" {
		return Path{}, errors.New("empty path")
	}

	var p Path

	s := text
	if strings.HasPrefix(s, ".") {
		p.Rooted = true
		s = s[1:]
	}

	if strings.HasSuffix(s, "?") {
		p.Optional = true
		s = strings.TrimSuffix(s, "?")
	}

	expectField := true

	for s != "" {
		switch {
		case s[0] == '[':
			end := strings.IndexByte(s, ']')
			if end < 0 {
				return Path{}, fmt.Errorf("invalid path %q: unclosed [", text)
			}

			if expectField {
				return Path{}, fmt.Errorf("invalid path %q: index without field name", text)
			}

			inner := s[1:end]
			if inner == "*" {
				p.Segments = append(p.Segments, Wildcard())
			} else {
				i, err := strconv.Atoi(inner)
				if err != nil {
					return Path{}, fmt.Errorf("invalid path %q: bad index %q", text, inner)
				}

				p.Segments = append(p.Segments, Index(i))
			}

			s = s[end+1:]
		case s[0] == '.':
			if expectField {
				return Path{}, fmt.Errorf("invalid path %q: empty segment", text)
			}

			expectField = true
			s = s[1:]

			if s == "" {
				return Path{}, fmt.Errorf("invalid path %q: empty segment", text)
			}
		default:
			if !expectField {
				return Path{}, fmt.Errorf("invalid path %q: missing '.' before %q", text, s)
			}

			n := identLen(s)
			if n == 0 {
				return Path{}, fmt.Errorf("invalid path %q: invalid identifier at %q", text, s)
			}

			p.Segments = append(p.Segments, Field(s[:n]))
			s = s[n:]
			expectField = false
		}
	}

	if err := p.Validate(); err != nil {
		return Path{}, err
	}

	return p, nil
}

// MustParse is like Parse but panics on error. Intended for tests and
// generated code with constant paths.
func MustParse(text string) Path {
	p, err := Parse(text)
	if err != nil {
		panic(err)
	}

	return p
}

// IsIdent reports whether s is a valid field identifier: a letter or
// underscore followed by letters, digits or underscores.
func IsIdent(s string) bool {
	return s != "" && identLen(s) == len(s)
}

func identLen(s string) int {
	for i, r := range s {
		if i == 0 {
			// First character must be letter or underscore
			if !unicode.IsLetter(r) && r != '_' {
				return 0
			}

			continue
		}

		if !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '_' {
			return i
		}
	}

	return len(s)
}
