package buffer

import (
	"fmt"

	"github.com/NamanBalaji/repstream/pkg/errors"
)

// Range is a half-open interval [Start, End) of absolute stream offsets.
type Range struct {
	Start int64
	End   int64
}

// NewRange validates and returns [start, end).
func NewRange(start, end int64) (Range, error) {
	if start < 0 || end < start {
		return Range{}, fmt.Errorf("%w: [%d, %d)", errors.ErrInvalidRange, start, end)
	}

	return Range{Start: start, End: end}, nil
}

// mustRange is for ranges derived from already validated ones. A failure
// here is a bug in this package, never a caller mistake.
func mustRange(start, end int64) Range {
	r, err := NewRange(start, end)
	if err != nil {
		panic(err)
	}
	return r
}

func (r Range) Len() int64 {
	return r.End - r.Start
}

// Contains reports whether other lies entirely inside r.
func (r Range) Contains(other Range) bool {
	return r.Start <= other.Start && r.End >= other.End
}

// IsAhead reports whether r starts after other does while still reaching
// other's end, i.e. the head of other has already slid out of r.
func (r Range) IsAhead(other Range) bool {
	return r.Start > other.Start && r.End >= other.End
}

// IsBehind reports whether r ends before other does.
func (r Range) IsBehind(other Range) bool {
	return r.End < other.End
}

// StartsAfter reports whether r begins strictly after other ends.
func (r Range) StartsAfter(other Range) bool {
	return r.Start > other.End
}

// Advance returns the n bytes following r.
func (r Range) Advance(n int64) Range {
	return mustRange(r.End, r.End+n)
}

func (r Range) String() string {
	return fmt.Sprintf("[%d, %d)", r.Start, r.End)
}
