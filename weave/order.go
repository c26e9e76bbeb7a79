package weave

// atomSiblingOrder implements the canonical sibling order of spec.md §4.4.
// It reports whether a1 sorts before a2 among siblings (atoms sharing the
// same Cause), given that a1IsMoreAware tells whether a1's awareness weft
// dominates a2's.
//
// Ties — same priority facet and equal awareness between distinct atoms —
// must not occur in a well-formed weave; callers that can detect the tie
// (validation) must treat it as corruption rather than call this function
// expecting a meaningful answer.
func atomSiblingOrder[V comparable](a1, a2 Atom[V], a1IsMoreAware bool) bool {
	if a1.ID == a2.ID {
		return false
	}
	p1, p2 := a1.Type.Priority(), a2.Type.Priority()
	if p1 != p2 {
		return p1
	}
	return a1IsMoreAware
}

// unparentedAtomOrder is the lexicographic order on AtomId (site ascending,
// then index ascending) used for the unparented region.
func unparentedAtomOrder(id1, id2 AtomId) bool {
	return id1.Compare(id2) < 0
}
