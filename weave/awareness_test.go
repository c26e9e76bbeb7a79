package weave_test

import (
	"testing"

	"github.com/jeffd/weave/weave"
)

func TestAwarenessWeftIncludesAncestors(t *testing.T) {
	w := weave.New[rune](1)
	a := mustAdd(t, w, 'a', weave.StartAtomId)
	b := mustAdd(t, w, 'b', a)
	c := mustAdd(t, w, 'c', b)

	aware, err := w.AwarenessWeft(c)
	if err != nil {
		t.Fatalf("AwarenessWeft: %v", err)
	}
	for _, id := range []weave.AtomId{weave.StartAtomId, a, b} {
		if !aware.Includes(id) {
			t.Errorf("awareness of %v does not include ancestor %v", c, id)
		}
	}
}

func TestAwarenessWeftFollowsCommitReferences(t *testing.T) {
	w0 := weave.New[rune](1)
	root := mustAdd(t, w0, 'r', weave.StartAtomId)
	w1 := weave.FromSerialized[rune](2, append([]weave.Atom[rune]{}, w0.Atoms()...))
	farAtom := mustAdd(t, w1, 'f', root)
	if err := w0.Integrate(w1); err != nil {
		t.Fatalf("Integrate: %v", err)
	}

	// Site 1 commits to site 2's yarn, then creates another child of root.
	next := mustAdd(t, w0, 'n', root)
	aware, err := w0.AwarenessWeft(next)
	if err != nil {
		t.Fatalf("AwarenessWeft: %v", err)
	}
	if !aware.Includes(farAtom) {
		t.Errorf("awareness of %v does not include committed-to atom %v", next, farAtom)
	}
}

func TestAwarenessWeftUnknownAtom(t *testing.T) {
	w := weave.New[rune](1)
	if _, err := w.AwarenessWeft(weave.AtomId{Site: 9, Index: 9}); err != weave.ErrAtomNotFound {
		t.Fatalf("got %v, want ErrAtomNotFound", err)
	}
}
