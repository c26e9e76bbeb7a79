package weave

// AtomType is a closed, tagged set of atom kinds. Rather than dynamic
// dispatch through an interface (as the teacher's AtomValue does for
// priority/child validation), each type carries three precomputed boolean
// facets that drive ordering and validation directly.
type AtomType uint8

const (
	// TypeStart is the single root atom of the tree region, at weave index 0.
	TypeStart AtomType = iota
	// TypeEnd marks the start of the unparented region.
	TypeEnd
	// TypeNone is an ordinary content atom.
	TypeNone
	// TypeDelete tombstones its Cause.
	TypeDelete
	// TypeCommit is an unparented awareness-forcing atom produced by AddAtom.
	TypeCommit
)

func (t AtomType) String() string {
	switch t {
	case TypeStart:
		return "start"
	case TypeEnd:
		return "end"
	case TypeNone:
		return "none"
	case TypeDelete:
		return "delete"
	case TypeCommit:
		return "commit"
	default:
		return "unknown"
	}
}

// Unparented reports whether atoms of this type live in the weave's
// unparented region (cause is always NullAtomId).
func (t AtomType) Unparented() bool {
	return t == TypeCommit || t == TypeEnd
}

// Childless reports whether atoms of this type must never be a Cause.
func (t AtomType) Childless() bool {
	return t == TypeDelete || t == TypeEnd
}

// Priority reports whether atoms of this type sort before their siblings
// regardless of awareness (§4.4).
func (t AtomType) Priority() bool {
	return t == TypeDelete
}

// Atom is the immutable unit of the causal tree. Atoms are created once by
// their owning site with the next yarn index for that site, and never
// mutated afterwards; RemapIndices renumbers sites globally but preserves
// identity structure.
type Atom[V comparable] struct {
	// ID is this atom's unique identifier.
	ID AtomId
	// Cause is the parent in the causal tree, or NullAtomId for unparented atoms.
	Cause AtomId
	// Clock is an informational Lamport-style hint, not authoritative.
	Clock Clock
	// Value is the opaque user payload.
	Value V
	// Reference is an optional non-causal weak link (e.g. a commit target).
	Reference AtomId
	// Type determines this atom's ordering and validation facets.
	Type AtomType
}

// startAtom returns the reserved root atom, at weave index 0.
func startAtom[V comparable]() Atom[V] {
	return Atom[V]{
		ID:        StartAtomId,
		Cause:     StartAtomId,
		Clock:     StartClock,
		Reference: NullAtomId,
		Type:      TypeStart,
	}
}

// endAtom returns the reserved marker atom for the unparented region, at
// AtomId (ControlSite, 1).
func endAtom[V comparable]() Atom[V] {
	return Atom[V]{
		ID:        EndAtomId,
		Cause:     NullAtomId,
		Clock:     EndClock,
		Reference: NullAtomId,
		Type:      TypeEnd,
	}
}
