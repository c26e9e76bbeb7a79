// Package clock supplies a minimal Lamport counter for stamping
// weave.Atom.Clock values. spec.md treats Clock as an opaque,
// non-authoritative hint and explicitly excludes clock policy from the
// weave core (SPEC_FULL.md §10.2); this package is grounded on the
// teacher's CausalTree.Timestamp field and its increment-and-check pattern
// in addAtom/Merge.
package clock

import (
	"errors"

	"github.com/jeffd/weave/weave"
)

// ErrOverflow is returned instead of silently wrapping around once the
// counter reaches weave.Clock's maximum value, unlike the teacher's
// ErrStateLimitExceeded check which the core itself raises inline.
var ErrOverflow = errors.New("clock: counter would overflow")

// Clock is a single replica's Lamport counter. The zero value starts at 0;
// the first call to Next returns 1, mirroring the teacher's convention that
// timestamp 0 is reserved to mean "no atom".
type Clock struct {
	current weave.Clock
}

// Next advances the counter by one and returns the new value.
func (c *Clock) Next() (weave.Clock, error) {
	if c.current == ^weave.Clock(0) {
		return 0, ErrOverflow
	}
	c.current++
	return c.current, nil
}

// Observe advances the counter past an externally seen value, mirroring
// the teacher's `if t.Timestamp < remote.Timestamp { t.Timestamp =
// remote.Timestamp }` in Merge. It never lowers the counter.
func (c *Clock) Observe(seen weave.Clock) {
	if seen > c.current {
		c.current = seen
	}
}

// Current returns the counter's present value without advancing it.
func (c *Clock) Current() weave.Clock {
	return c.current
}
