package weave

import "fmt"

// ValidationErrorKind enumerates the ways a weave can fail validation, per
// spec.md §4.10. Validate stops at the first failure it finds; the catalogue
// exists so callers (and tests) can assert on *which* invariant broke, not
// just that something did.
type ValidationErrorKind int

const (
	NoAtoms ValidationErrorKind = iota
	NoSites
	CausalityViolation
	AtomUnawareOfParent
	AtomUnawareOfReference
	ChildlessAtomHasChildren
	TreeAtomIsUnparented
	UnparentedAtomIsParented
	IncorrectTreeAtomOrder
	IncorrectUnparentedAtomOrder
	MissingStartOfUnparentedSection
	LikelyCorruption
)

func (k ValidationErrorKind) String() string {
	switch k {
	case NoAtoms:
		return "no atoms"
	case NoSites:
		return "no sites"
	case CausalityViolation:
		return "causality violation"
	case AtomUnawareOfParent:
		return "atom unaware of parent"
	case AtomUnawareOfReference:
		return "atom unaware of reference"
	case ChildlessAtomHasChildren:
		return "childless atom has children"
	case TreeAtomIsUnparented:
		return "tree atom is unparented"
	case UnparentedAtomIsParented:
		return "unparented atom is parented"
	case IncorrectTreeAtomOrder:
		return "incorrect tree atom order"
	case IncorrectUnparentedAtomOrder:
		return "incorrect unparented atom order"
	case MissingStartOfUnparentedSection:
		return "missing start of unparented section"
	case LikelyCorruption:
		return "likely corruption"
	default:
		return "unknown"
	}
}

// ValidationError is returned by Validate. Index is the weave index of the
// offending atom, or -1 when the failure is not localized to one atom.
type ValidationError struct {
	Kind    ValidationErrorKind
	Index   int
	Message string
}

func (e *ValidationError) Error() string {
	if e.Index < 0 {
		return fmt.Sprintf("weave: invalid (%s): %s", e.Kind, e.Message)
	}
	return fmt.Sprintf("weave: invalid at index %d (%s): %s", e.Index, e.Kind, e.Message)
}

func validationErr(kind ValidationErrorKind, index int, format string, args ...interface{}) *ValidationError {
	return &ValidationError{Kind: kind, Index: index, Message: fmt.Sprintf(format, args...)}
}

// Validate checks w's current atom sequence against the invariants of
// spec.md §3/§4.10: region partitioning, causes and references, the end
// marker, and tree and unparented order. It does not inspect the yarn
// cache, and it checks that an atom is aware of its cause and reference
// only by weave order: both must sit at a lower weave index than the atom.
// It is meant for untrusted input
// (e.g. a remote weave before Integrate, or a deserialized weave): New and
// the mutators never produce an invalid weave on their own, so Validate is
// never called internally on the happy path, mirroring the teacher's own
// split between defensive construction and an explicit, optional
// consistency check.
func (w *Weave[V]) Validate() error {
	if len(w.atoms) == 0 {
		return validationErr(NoAtoms, -1, "weave has no atoms")
	}
	if len(w.weft) == 0 {
		return validationErr(NoSites, -1, "weft observes no sites")
	}

	start := w.atoms[0]
	if start.Type != TypeStart || start.ID != StartAtomId {
		return validationErr(LikelyCorruption, 0, "first atom is not the reserved start atom")
	}

	seen := make(map[AtomId]bool, len(w.atoms))
	for i, atom := range w.atoms {
		if seen[atom.ID] {
			return validationErr(LikelyCorruption, i, "duplicate atom id %s", atom.ID)
		}
		seen[atom.ID] = true
	}

	for i, atom := range w.atoms {
		isUnparented := atom.Type.Unparented()

		if i < w.treeLen {
			if isUnparented {
				return validationErr(TreeAtomIsUnparented, i, "tree region holds unparented atom %s", atom.ID)
			}
		} else {
			if !isUnparented {
				return validationErr(UnparentedAtomIsParented, i, "unparented region holds tree atom %s", atom.ID)
			}
		}

		if !isUnparented {
			if atom.ID != StartAtomId {
				causeIdx, ok := w.index[atom.Cause]
				if !ok {
					return validationErr(CausalityViolation, i, "cause %s of atom %s not found in weave", atom.Cause, atom.ID)
				}
				if causeIdx >= i {
					return validationErr(AtomUnawareOfParent, i, "atom %s does not follow its cause %s in weave order", atom.ID, atom.Cause)
				}
				if w.atoms[causeIdx].Type.Childless() {
					return validationErr(ChildlessAtomHasChildren, causeIdx, "childless atom %s has child %s", atom.Cause, atom.ID)
				}
			}
		} else if !atom.Cause.IsNull() {
			return validationErr(CausalityViolation, i, "unparented atom %s has non-null cause", atom.ID)
		}

		if !atom.Reference.IsNull() {
			refIdx, ok := w.index[atom.Reference]
			if !ok {
				return validationErr(CausalityViolation, i, "reference %s of atom %s not found in weave", atom.Reference, atom.ID)
			}
			if refIdx >= i {
				return validationErr(AtomUnawareOfReference, i, "atom %s does not follow its reference %s in weave order", atom.ID, atom.Reference)
			}
		}
	}

	if w.treeLen < len(w.atoms) {
		boundary := w.atoms[w.treeLen]
		if boundary.Type != TypeEnd || boundary.ID != EndAtomId {
			return validationErr(MissingStartOfUnparentedSection, w.treeLen, "unparented region does not begin with the reserved end atom")
		}
	}

	if err := w.validateUnparentedOrder(); err != nil {
		return err
	}
	if err := w.validateTreeOrder(); err != nil {
		return err
	}
	return nil
}

// validateUnparentedOrder checks that the unparented region is sorted by
// the lexicographic AtomId order of spec.md §4.4.
func (w *Weave[V]) validateUnparentedOrder() error {
	for i := w.treeLen + 1; i < len(w.atoms); i++ {
		prev, cur := w.atoms[i-1], w.atoms[i]
		if unparentedAtomOrder(cur.ID, prev.ID) {
			return validationErr(IncorrectUnparentedAtomOrder, i, "atom %s sorts before preceding atom %s", cur.ID, prev.ID)
		}
	}
	return nil
}

// validateTreeOrder checks that siblings within the tree region respect
// the canonical sibling order of spec.md §4.4: among atoms sharing the same
// Cause, priority atoms (tombstones) sort first, and otherwise the atom
// with the more-aware creator sorts first.
func (w *Weave[V]) validateTreeOrder() error {
	byCause := make(map[AtomId][]int)
	for i := 0; i < w.treeLen; i++ {
		if w.atoms[i].ID == StartAtomId {
			continue // the root is its own Cause; it is nobody's sibling.
		}
		cause := w.atoms[i].Cause
		byCause[cause] = append(byCause[cause], i)
	}
	for _, indices := range byCause {
		for k := 1; k < len(indices); k++ {
			prevIdx, curIdx := indices[k-1], indices[k]
			prev, cur := w.atoms[prevIdx], w.atoms[curIdx]

			prevAwareness, err := w.AwarenessWeft(prev.ID)
			if err != nil {
				return err
			}
			curAwareness, err := w.AwarenessWeft(cur.ID)
			if err != nil {
				return err
			}
			if prevAwareness.Equal(curAwareness) {
				return validationErr(IncorrectTreeAtomOrder, curIdx, "siblings %s and %s have indistinguishable awareness", prev.ID, cur.ID)
			}
			prevMoreAware := curAwareness.Less(prevAwareness)
			if !atomSiblingOrder(prev, cur, prevMoreAware) {
				return validationErr(IncorrectTreeAtomOrder, curIdx, "sibling %s does not sort before %s", prev.ID, cur.ID)
			}
		}
	}
	return nil
}
