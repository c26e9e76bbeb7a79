// Package weave implements the Causal Tree Weave: a convergent replicated
// data type representing an ordered document as a causal tree of atoms,
// linearized into a deterministic total order.
//
// Based on the Causal Tree structure proposed by Victor Grishchenko [1],
// following the excellent explanation by Archagon [2].
//
// [1]: GRISCHENKO, VICTOR. Causal trees: towards real-time read-write hypertext.
// [2]: http://archagon.net/blog/2018/03/24/data-laced-with-history/
package weave

import (
	"fmt"
	"sort"
)

// SiteId identifies a replica. It indexes into a per-weave yarn cache, not
// into any process-wide table; mapping a SiteId to a stable identity (e.g. a
// UUID) across replicas is the job of an external site registry, not of this
// package.
type SiteId uint32

// YarnIndex is the position of an atom within its site's yarn: the
// sequence of atoms created by that site, in creation order.
type YarnIndex uint32

// Clock is a monotonic hint attached to an atom at creation time. It is
// informational only — the weave never relies on it for ordering or
// causality, both of which are determined entirely by AtomId and Cause.
type Clock uint64

// AtomId uniquely identifies an atom by the site that created it and that
// site's yarn position at creation time.
type AtomId struct {
	Site  SiteId
	Index YarnIndex
}

// ControlSite is the reserved site that owns the start and end atoms.
const ControlSite SiteId = 0

// InvalidSite and InvalidIndex compose NullAtomId, the sentinel for "no
// atom" — used as Cause for unparented atoms and as Reference when absent.
const (
	InvalidSite  SiteId    = ^SiteId(0)
	InvalidIndex YarnIndex = ^YarnIndex(0)
)

// NullAtomId is the sentinel AtomId meaning "no atom".
var NullAtomId = AtomId{Site: InvalidSite, Index: InvalidIndex}

// StartAtomId and EndAtomId are the reserved identities of the weave's root
// and end-of-unparented-region marker, per §6.
var (
	StartAtomId = AtomId{Site: ControlSite, Index: 0}
	EndAtomId   = AtomId{Site: ControlSite, Index: 1}
)

// StartClock and EndClock are the reserved, distinct clocks carried by the
// start and end atoms.
const (
	StartClock Clock = 0
	EndClock   Clock = 1
)

// IsNull reports whether id is the sentinel "no atom" identifier.
func (id AtomId) IsNull() bool {
	return id == NullAtomId
}

func (id AtomId) String() string {
	if id.IsNull() {
		return "∅"
	}
	return fmt.Sprintf("(%d,%d)", id.Site, id.Index)
}

// Compare orders ids lexicographically by site then by index, used for the
// unparented region's order (§4.4) and by the merge walk's case C.
func (id AtomId) Compare(other AtomId) int {
	if id.Site != other.Site {
		if id.Site < other.Site {
			return -1
		}
		return +1
	}
	if id.Index != other.Index {
		if id.Index < other.Index {
			return -1
		}
		return +1
	}
	return 0
}

// Weft is a mapping from SiteId to the highest YarnIndex known for that
// site, encoding a causal frontier. A nil Weft reads as the empty weft
// (observes nothing), but Update on it panics; NewWeft returns a writable
// empty weft.
type Weft map[SiteId]YarnIndex

// NewWeft returns an empty weft.
func NewWeft() Weft {
	return make(Weft)
}

// Update records that the weft has observed up to (site, index), raising
// the stored bound if index is higher than what's already recorded.
func (w Weft) Update(site SiteId, index YarnIndex) {
	if cur, ok := w[site]; !ok || index > cur {
		w[site] = index
	}
}

// UpdateAtom is shorthand for Update(id.Site, id.Index).
func (w Weft) UpdateAtom(id AtomId) {
	if id.IsNull() {
		return
	}
	w.Update(id.Site, id.Index)
}

// Includes reports whether the weft's causal frontier includes id. The
// null atom is included by every weft, vacuously.
func (w Weft) Includes(id AtomId) bool {
	if id.IsNull() {
		return true
	}
	index, ok := w[id.Site]
	return ok && index >= id.Index
}

// Get returns the highest known yarn index for site, and whether the site
// is present in the weft at all.
func (w Weft) Get(site SiteId) (YarnIndex, bool) {
	index, ok := w[site]
	return index, ok
}

// Clone returns an independent copy of w.
func (w Weft) Clone() Weft {
	clone := make(Weft, len(w))
	for site, index := range w {
		clone[site] = index
	}
	return clone
}

// Equal reports whether w and other observe exactly the same atoms.
func (w Weft) Equal(other Weft) bool {
	if len(w) != len(other) {
		return false
	}
	for site, index := range w {
		if other[site] != index {
			return false
		}
	}
	return true
}

// LessEq reports whether w is pointwise less-than-or-equal to other — i.e.
// whether other is a superset of w's knowledge. A site present in w but
// absent from other makes the result false, since other then observes
// nothing from that site.
func (w Weft) LessEq(other Weft) bool {
	for site, index := range w {
		if got, ok := other[site]; !ok || got < index {
			return false
		}
	}
	return true
}

// Less is a total, but not causally meaningful, tiebreak order over wefts:
// lexicographic comparison over sites sorted by id, where a site absent
// from a weft sorts below any index present at that site (absence means
// "no atoms observed from this site yet", lower than index 0). It is used
// only where the algorithm needs a deterministic "more aware" proxy
// between incomparable wefts, never to decide causality.
func (w Weft) Less(other Weft) bool {
	sites := make(map[SiteId]bool, len(w)+len(other))
	for site := range w {
		sites[site] = true
	}
	for site := range other {
		sites[site] = true
	}
	ordered := make([]SiteId, 0, len(sites))
	for site := range sites {
		ordered = append(ordered, site)
	}
	sort.Slice(ordered, func(i, j int) bool { return ordered[i] < ordered[j] })
	for _, site := range ordered {
		a, aok := w[site]
		b, bok := other[site]
		if aok != bok {
			return !aok
		}
		if !aok {
			continue
		}
		if a != b {
			return a < b
		}
	}
	return false
}
