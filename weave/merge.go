package weave

import "fmt"

// MergeError reports that the remote weave passed to Integrate is
// malformed: two atoms at the walk's current position are unequal,
// mutually unaware, and not siblings (spec.md §4.7 case G), or one side's
// weft claims an atom that its weave does not hold (cases D and E). Per spec.md §7
// class 3, this is an assertion-level failure: the local weave is left
// untouched (Integrate never mutates local state before the walk
// completes), and the caller must validate untrusted remotes before
// calling Integrate.
type MergeError struct {
	LocalIndex, RemoteIndex int
	Reason                  string
}

func (e *MergeError) Error() string {
	return fmt.Sprintf("weave: corrupt merge at local[%d]/remote[%d]: %s", e.LocalIndex, e.RemoteIndex, e.Reason)
}

// insertionRange describes a contiguous run of the remote weave to be
// spliced into the local weave at a single local position, coalesced from
// possibly many individual case A/C/E/F decisions that all target the same
// spot.
type insertionRange struct {
	at       int // local insertion position
	from, to int // [from, to) into the remote weave
}

// Integrate merges other into w, per the two-pointer walk of spec.md §4.7.
// It never partially mutates w: the walk over read-only snapshots produces
// a list of insertions first, which are then applied and the caches
// rebuilt. other is not modified.
func (w *Weave[V]) Integrate(other *Weave[V]) error {
	local := w.atoms
	remote := other.atoms

	var insertions []insertionRange
	var pending insertionRange
	havePending := false

	commit := func() {
		if havePending {
			insertions = append(insertions, pending)
			havePending = false
		}
	}
	insertOne := func(at, j int) {
		if havePending && pending.at == at && pending.to == j {
			pending.to = j + 1
			return
		}
		commit()
		pending = insertionRange{at: at, from: j, to: j + 1}
		havePending = true
	}

	i, j := 0, 0
	for j < len(remote) {
		// Case A: local is exhausted; everything left in remote is tail.
		if i >= len(local) {
			insertOne(i, j)
			j++
			continue
		}

		la, ra := local[i], remote[j]

		// Case B: same atom on both sides.
		if la.ID == ra.ID {
			commit()
			i++
			j++
			continue
		}

		// Case C: both unparented — total order on AtomId settles it directly.
		if la.Type.Unparented() && ra.Type.Unparented() {
			switch la.ID.Compare(ra.ID) {
			case 0:
				commit()
				i++
				j++
			case -1:
				commit()
				i++
			default:
				insertOne(i, j)
				j++
			}
			continue
		}

		// Case D: remote atom is already present later in local.
		if w.weft.Includes(ra.ID) {
			commit()
			for i < len(local) && local[i].ID != ra.ID {
				i++
			}
			if i >= len(local) {
				return &MergeError{i, j, "local weft claims awareness of an atom missing from the local weave"}
			}
			continue
		}

		// Case E: local atom is already present later in remote.
		if other.weft.Includes(la.ID) {
			for j < len(remote) && remote[j].ID != la.ID {
				insertOne(i, j)
				j++
			}
			if j >= len(remote) {
				return &MergeError{i, j, "remote weft claims awareness of an atom missing from the remote weave"}
			}
			continue
		}

		// Case F: unaware siblings — order by the canonical sibling order,
		// using each side's causal block so the whole losing subtree moves
		// together.
		if la.Cause == ra.Cause {
			localAwareness, err := w.AwarenessWeft(la.ID)
			if err != nil {
				return err
			}
			remoteAwareness, err := other.AwarenessWeft(ra.ID)
			if err != nil {
				return err
			}
			_, localEnd, err := w.CausalBlock(i, &localAwareness)
			if err != nil {
				return err
			}
			_, remoteEnd, err := other.CausalBlock(j, &remoteAwareness)
			if err != nil {
				return err
			}
			localMoreAware := remoteAwareness.Less(localAwareness)
			if atomSiblingOrder(la, ra, localMoreAware) {
				commit()
				i = localEnd
			} else {
				for jj := j; jj < remoteEnd; jj++ {
					insertOne(i, jj)
				}
				j = remoteEnd
			}
			continue
		}

		// Case G: unequal, mutually unaware, not siblings — the remote
		// weave is not a valid extension of a common history.
		return &MergeError{i, j, "atoms unequal, mutually unaware, and not siblings"}
	}
	commit()

	for k := len(insertions) - 1; k >= 0; k-- {
		r := insertions[k]
		w.spliceAtoms(r.at, remote[r.from:r.to])
	}
	w.rebuildAuxIndex()
	w.rebuildYarnCache(other)
	return nil
}

// spliceAtoms inserts atoms (already in the correct relative order) into
// w.atoms at position at.
func (w *Weave[V]) spliceAtoms(at int, atoms []Atom[V]) {
	if len(atoms) == 0 {
		return
	}
	n := len(w.atoms)
	w.atoms = append(w.atoms, make([]Atom[V], len(atoms))...)
	copy(w.atoms[at+len(atoms):], w.atoms[at:n])
	copy(w.atoms[at:], atoms)
}

// rebuildAuxIndex recomputes the auxiliary AtomId→weave-index map and the
// tree/unparented boundary from scratch, after Integrate has spliced in an
// arbitrary number of atoms at arbitrary positions.
func (w *Weave[V]) rebuildAuxIndex() {
	w.index = make(map[AtomId]int, len(w.atoms))
	treeLen := len(w.atoms)
	for i, atom := range w.atoms {
		w.index[atom.ID] = i
		if atom.Type.Unparented() && treeLen == len(w.atoms) {
			treeLen = i
		}
	}
	w.treeLen = treeLen
}

// rebuildYarnCache implements spec.md §4.8: for every site present in
// other's yarns, if other's yarn for that site is longer than w's, the
// uncovered tail is appended to w's yarn cache (sites unique to other
// start from an empty local yarn, so their whole yarn is "the tail").
func (w *Weave[V]) rebuildYarnCache(other *Weave[V]) {
	for site, remoteSpan := range other.yarns.spans {
		remoteYarn := other.yarns.atoms[remoteSpan.lo:remoteSpan.hi]
		localYarn := w.yarns.yarn(site)
		if len(remoteYarn) <= len(localYarn) {
			continue
		}
		tail := remoteYarn[len(localYarn):]
		w.yarns.appendTail(site, tail)
		w.weft.Update(site, tail[len(tail)-1].ID.Index)
	}
}
