// Package animrange parses and edits the "start-end" frame range strings
// stored on labels, e.g. "32-160".
package animrange

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrInvalidRange is returned for anything that is not exactly two
// hyphen separated integers.
var ErrInvalidRange = errors.New("invalid animation range")

// Default is used by exports when a label has no usable range.
var Default = Range{Start: 32, End: 160}

// Range is a pair of timeline frames.
type Range struct {
	Start int `json:"start" msgpack:"start"`
	End   int `json:"end" msgpack:"end"`
}

// Parse reads "start-end". Surrounding spaces around each number are
// tolerated. Negative frames cannot be written in this format: "-5-10"
// splits into three parts and is rejected.
func Parse(s string) (Range, error) {
	parts := strings.Split(s, "-")
	if len(parts) != 2 {
		return Range{}, fmt.Errorf("%w: %q", ErrInvalidRange, s)
	}
	start, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return Range{}, fmt.Errorf("%w: %q", ErrInvalidRange, s)
	}
	end, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil {
		return Range{}, fmt.Errorf("%w: %q", ErrInvalidRange, s)
	}
	return Range{Start: start, End: end}, nil
}

// ParseOr returns the parsed range, or prev unchanged when s is invalid.
func ParseOr(s string, prev Range) Range {
	r, err := Parse(s)
	if err != nil {
		return prev
	}
	return r
}

// Shift moves both ends by offset frames.
func (r Range) Shift(offset int) Range {
	return Range{Start: r.Start + offset, End: r.End + offset}
}

// Duration is End - Start.
func (r Range) Duration() int {
	return r.End - r.Start
}

func (r Range) String() string {
	return fmt.Sprintf("%d-%d", r.Start, r.End)
}

// ShiftString shifts a range string. Invalid strings are returned as-is
// with ok=false.
func ShiftString(s string, offset int) (string, bool) {
	r, err := Parse(s)
	if err != nil {
		return s, false
	}
	return r.Shift(offset).String(), true
}

// FromFrames spans the smallest and largest frame. ok is false for no frames.
func FromFrames(frames []int) (Range, bool) {
	if len(frames) == 0 {
		return Range{}, false
	}
	r := Range{Start: frames[0], End: frames[0]}
	for _, f := range frames[1:] {
		r.Start = min(r.Start, f)
		r.End = max(r.End, f)
	}
	return r, true
}
