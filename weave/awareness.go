package weave

// AwarenessWeft computes the weft of every atom that id transitively
// depends on, per spec.md §4.5. It runs a fixed point over per-site
// frontiers: at each round, every yarn between its previously-completed
// bound and its newly-seen bound is walked once, so each yarn index is
// visited at most once across the whole computation (O(N) worst case).
func (w *Weave[V]) AwarenessWeft(id AtomId) (Weft, error) {
	atom, ok := w.AtomForId(id)
	if !ok {
		return nil, ErrAtomNotFound
	}

	working := NewWeft()
	working.UpdateAtom(id)
	completed := NewWeft()

	for !weftKeysEqual(working, completed) {
		next := working.Clone()
		for site, upTo := range working {
			lowerBound := -1 // exclusive; walk down to index 0 if site isn't completed yet.
			if from, ok := completed.Get(site); ok {
				lowerBound = int(from)
			}
			yarn := w.yarns.yarn(site)
			for i := int(upTo); i > lowerBound && i < len(yarn); i-- {
				atom := yarn[i]
				if !atom.Cause.IsNull() && atom.Cause.Site != site {
					next.UpdateAtom(atom.Cause)
				}
				if !atom.Reference.IsNull() {
					next.UpdateAtom(atom.Reference)
				}
			}
		}
		for site, upTo := range working {
			completed.Update(site, upTo)
		}
		working = next
	}

	if !atom.Cause.IsNull() {
		completed.UpdateAtom(atom.Cause)
	}
	if !atom.Reference.IsNull() {
		completed.UpdateAtom(atom.Reference)
	}
	return completed, nil
}

// weftKeysEqual reports whether working and completed observe the same set
// of (site, index) pairs — the fixed-point termination condition of §4.5.
func weftKeysEqual(working, completed Weft) bool {
	return working.Equal(completed)
}

// isAware reports whether the awareness weft of atom a dominates b's id —
// i.e. whether a transitively depends on (and therefore follows) b.
func (w *Weave[V]) isAware(aID, bID AtomId) (bool, error) {
	aware, err := w.AwarenessWeft(aID)
	if err != nil {
		return false, err
	}
	return aware.Includes(bID), nil
}
