package path

import "strings"

// Iterator walks a path from the first segment to the second last one. The
// final segment is reached through Last, so resolution stops at the container
// that holds the addressed property.
type Iterator struct {
	segments []string
	idx      int
}

// Next advances the cursor. It returns false once only the final segment remains.
func (it *Iterator) Next() bool {
	it.idx++
	return it.idx < len(it.segments)-1
}

// Head returns the segment under the cursor.
func (it *Iterator) Head() string {
	if it.idx < 0 || it.idx >= len(it.segments) {
		return ""
	}
	return it.segments[it.idx]
}

// Last returns the final segment of the path.
func (it *Iterator) Last() string {
	if len(it.segments) == 0 {
		return ""
	}
	return it.segments[len(it.segments)-1]
}

// Rest joins the segments from the cursor to the end.
func (it *Iterator) Rest() string {
	idx := it.idx
	if idx < 0 {
		idx = 0
	}
	if idx >= len(it.segments) {
		return ""
	}
	return strings.Join(it.segments[idx:], Separator)
}

// Path returns the path being iterated.
func (it *Iterator) Path() Path {
	return Path{segments: it.segments, absolute: true}
}

// Len returns the number of segments in the iterated path.
func (it *Iterator) Len() int {
	return len(it.segments)
}
