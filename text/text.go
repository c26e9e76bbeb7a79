// Package text is a thin, user-facing projection of a weave.Weave[rune]
// into a Go string, and the inverse: replaying a target string as
// AddAtom/DeleteAtom calls. spec.md explicitly keeps this out of the core
// (SPEC_FULL.md §10.3). String is grounded on the teacher's
// RList.filterDeleted + AsString; Edit is grounded on the teacher's sibling
// diff package (diff.Diff, diff.Operation), which the teacher's own demo
// server never ends up calling — here it drives the weave directly.
package text

import (
	"github.com/jeffd/weave/clock"
	"github.com/jeffd/weave/diff"
	"github.com/jeffd/weave/weave"
)

// visible returns w's tree-region atoms with tombstoned characters and
// their delete atoms dropped, in weave order. Grounded on the teacher's
// filterDeleted: every Delete atom zeroes out both itself and its cause.
func visible(w *weave.Weave[rune]) []weave.Atom[rune] {
	atoms := w.Atoms()
	live := make([]bool, len(atoms))
	for i := range live {
		live[i] = true
	}
	for i, atom := range atoms {
		switch {
		case atom.Type == weave.TypeDelete:
			live[i] = false
			if j, ok := w.AtomWeaveIndex(atom.Cause); ok {
				live[j] = false
			}
		case atom.Type != weave.TypeNone:
			live[i] = false
		}
	}
	out := make([]weave.Atom[rune], 0, len(atoms))
	for i, atom := range atoms {
		if live[i] {
			out = append(out, atom)
		}
	}
	return out
}

// String renders w's current visible content as a Go string.
func String(w *weave.Weave[rune]) string {
	atoms := visible(w)
	chars := make([]rune, len(atoms))
	for i, atom := range atoms {
		chars[i] = atom.Value
	}
	return string(chars)
}

// Edit transforms w's current text into target by computing the Myers
// edit script between them and replaying it as AddAtom/DeleteAtom calls.
// causeForInsert anchors the edit when target's first characters are new
// insertions with no preceding kept character — ordinarily
// weave.StartAtomId, the root of the document. clk stamps every atom
// created during the replay.
func Edit(w *weave.Weave[rune], target string, causeForInsert weave.AtomId, clk *clock.Clock) error {
	old := visible(w)
	chars := make([]rune, len(old))
	for i, atom := range old {
		chars[i] = atom.Value
	}

	ops, err := diff.Diff(string(chars), target)
	if err != nil {
		return err
	}

	cause := causeForInsert
	i := 0
	for _, op := range ops {
		switch op.Op {
		case diff.Keep:
			cause = old[i].ID
			i++
		case diff.Insert:
			ts, err := clk.Next()
			if err != nil {
				return err
			}
			id, err := w.AddAtom(op.Char, cause, ts)
			if err != nil {
				return err
			}
			cause = id
		case diff.Delete:
			ts, err := clk.Next()
			if err != nil {
				return err
			}
			if _, err := w.DeleteAtom(old[i].ID, ts); err != nil {
				return err
			}
			i++
		}
	}
	return nil
}
