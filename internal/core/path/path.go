// Package path parses and normalizes slash-delimited data references.
//
// A reference is either absolute ("/orders/3") or relative ("status"). Relative
// references are resolved against a context path, which is how nested
// components address data without knowing their ancestors' full location.
package path

import (
	"strconv"
	"strings"
)

// Separator delimits segments in a string reference.
const Separator = "/"

// Path is a normalized, immutable sequence of segment names.
type Path struct {
	segments []string
	absolute bool
}

// Root is the empty absolute path addressing the tree root.
var Root = Path{absolute: true}

// New builds a path from already-split segments. Empty segments are dropped.
func New(absolute bool, segments ...string) Path {
	out := make([]string, 0, len(segments))
	for _, s := range segments {
		if s != "" {
			out = append(out, s)
		}
	}
	return Path{segments: out, absolute: absolute}
}

// Parse turns a reference into a Path. It panics with ErrInvalidRef when ref
// (or a context) is of an unsupported type; see ParseE.
func Parse(ref any, context ...any) Path {
	p, err := ParseE(ref, context...)
	if err != nil {
		panic(err)
	}
	return p
}

// ParseE turns a reference into a Path.
//
// A Path is returned unchanged, a []string is promoted to an absolute path and
// a string is split on "/" with a leading "/" marking it absolute. nil and ""
// denote the root. When the result is relative and a context is given, the
// context (parsed by the same rules) is prepended.
func ParseE(ref any, context ...any) (Path, error) {
	var p Path
	switch r := ref.(type) {
	case nil:
		p = Path{}
	case Path:
		p = r
	case *Path:
		if r != nil {
			p = *r
		}
	case []string:
		p = New(true, r...)
	case string:
		p = New(strings.HasPrefix(r, Separator), strings.Split(r, Separator)...)
	default:
		return Path{}, invalidRef(ref)
	}

	if p.absolute || len(context) == 0 || context[0] == nil {
		return p, nil
	}
	ctx, err := ParseE(context[0], context[1:]...)
	if err != nil {
		return Path{}, err
	}
	return p.InContext(ctx), nil
}

// InContext returns p prefixed with the segments of ctx. The result is always
// absolute.
func (p Path) InContext(ctx Path) Path {
	segments := make([]string, 0, len(ctx.segments)+len(p.segments))
	segments = append(segments, ctx.segments...)
	segments = append(segments, p.segments...)
	return Path{segments: segments, absolute: true}
}

// Child returns a copy of p with the given segments appended.
func (p Path) Child(segments ...string) Path {
	return New(p.absolute, append(p.Segments(), segments...)...)
}

// Parent returns p without its final segment. The parent of the root is the root.
func (p Path) Parent() Path {
	if len(p.segments) == 0 {
		return p
	}
	return Path{segments: p.Segments()[:len(p.segments)-1], absolute: p.absolute}
}

// Segments returns a copy of the segment list.
func (p Path) Segments() []string {
	out := make([]string, len(p.segments))
	copy(out, p.segments)
	return out
}

func (p Path) Len() int         { return len(p.segments) }
func (p Path) IsAbsolute() bool { return p.absolute }
func (p Path) IsRoot() bool     { return len(p.segments) == 0 }

// Last returns the final segment, or "" for the root.
func (p Path) Last() string {
	if len(p.segments) == 0 {
		return ""
	}
	return p.segments[len(p.segments)-1]
}

// HasPrefix reports whether every segment of prefix leads p.
func (p Path) HasPrefix(prefix Path) bool {
	if len(prefix.segments) > len(p.segments) {
		return false
	}
	for i, s := range prefix.segments {
		if p.segments[i] != s {
			return false
		}
	}
	return true
}

// Equal compares segments and absoluteness.
func (p Path) Equal(o Path) bool {
	if p.absolute != o.absolute || len(p.segments) != len(o.segments) {
		return false
	}
	for i := range p.segments {
		if p.segments[i] != o.segments[i] {
			return false
		}
	}
	return true
}

func (p Path) String() string {
	s := strings.Join(p.segments, Separator)
	if p.absolute {
		return Separator + s
	}
	return s
}

// Prefix renders the first i+1 segments.
func (p Path) Prefix(i int) string {
	if i+1 < len(p.segments) {
		return Path{segments: p.segments[:i+1], absolute: p.absolute}.String()
	}
	return p.String()
}

// Index formats an integer segment, as used for list rows.
func Index(i int) string {
	return strconv.Itoa(i)
}

// Iterator returns a cursor over p for node resolution.
func (p Path) Iterator() *Iterator {
	return &Iterator{segments: p.segments, idx: -1}
}

// Absolute returns p marked absolute. Unresolved relative paths are taken to
// start at the root.
func (p Path) Absolute() Path {
	return Path{segments: p.segments, absolute: true}
}
