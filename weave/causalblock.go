package weave

// CausalBlock returns the contiguous weave-index range [lo, hi) comprising
// the subtree rooted at the atom at weaveIndex. Per spec.md §4.6 and Open
// Question 2, the block is not strictly "descendants of root": walking
// forward from weaveIndex+1, it includes any atom whose Cause is included
// in the root's awareness weft and which is not the root itself, stopping
// at the first atom that fails both tests. This is broader than "descendant
// of root" but correct for contiguous linearizations of well-formed weaves.
//
// A childless root yields the single-element range [weaveIndex,
// weaveIndex+1). An unparented root has no causal block.
//
// If awareness is nil, the root's awareness weft is computed internally;
// passing a precomputed weft (as the merge engine does) avoids recomputing
// it for every causal block query.
func (w *Weave[V]) CausalBlock(weaveIndex int, awareness *Weft) (lo, hi int, err error) {
	if weaveIndex < 0 || weaveIndex >= len(w.atoms) {
		return 0, 0, ErrAtomNotFound
	}
	root := w.atoms[weaveIndex]
	if root.Type.Unparented() {
		return weaveIndex, weaveIndex, nil
	}
	if root.Type.Childless() {
		return weaveIndex, weaveIndex + 1, nil
	}
	var rootAwareness Weft
	if awareness != nil {
		rootAwareness = *awareness
	} else {
		rootAwareness, err = w.AwarenessWeft(root.ID)
		if err != nil {
			return 0, 0, err
		}
	}
	end := weaveIndex + 1
	for end < len(w.atoms) {
		next := w.atoms[end]
		if next.Type.Unparented() || !rootAwareness.Includes(next.Cause) {
			break
		}
		end++
	}
	return weaveIndex, end, nil
}
