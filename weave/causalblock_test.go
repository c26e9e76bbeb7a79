package weave_test

import (
	"testing"

	"github.com/jeffd/weave/weave"
)

func TestCausalBlockChildlessRootIsSingleton(t *testing.T) {
	w := weave.New[rune](1)
	a := mustAdd(t, w, 'a', weave.StartAtomId)
	mustAdd(t, w, 'b', a)
	// The delete atom is a's first child, followed by its sibling 'b'.
	del, err := w.DeleteAtom(a, 1)
	if err != nil {
		t.Fatalf("DeleteAtom: %v", err)
	}
	idx, _ := w.AtomWeaveIndex(del)

	lo, hi, err := w.CausalBlock(idx, nil)
	if err != nil {
		t.Fatalf("CausalBlock: %v", err)
	}
	if lo != idx || hi != idx+1 {
		t.Fatalf("got [%d,%d), want [%d,%d)", lo, hi, idx, idx+1)
	}
}

func TestCausalBlockCoversSubtree(t *testing.T) {
	w := weave.New[rune](1)
	root := mustAdd(t, w, 'r', weave.StartAtomId)
	mustAdd(t, w, 'a', root)
	mustAdd(t, w, 'b', root)
	rootIdx, _ := w.AtomWeaveIndex(root)

	lo, hi, err := w.CausalBlock(rootIdx, nil)
	if err != nil {
		t.Fatalf("CausalBlock: %v", err)
	}
	if lo != rootIdx {
		t.Fatalf("lo = %d, want %d", lo, rootIdx)
	}
	if got, want := hi-lo, 3; got != want {
		t.Fatalf("block size = %d, want %d", got, want)
	}
}

func TestCausalBlockUnparentedRootIsEmpty(t *testing.T) {
	w := weave.New[rune](1)
	endIdx, _ := w.AtomWeaveIndex(weave.EndAtomId)

	lo, hi, err := w.CausalBlock(endIdx, nil)
	if err != nil {
		t.Fatalf("CausalBlock: %v", err)
	}
	if lo != hi {
		t.Fatalf("got [%d,%d), want empty range", lo, hi)
	}
}

func TestCausalBlockOutOfRange(t *testing.T) {
	w := weave.New[rune](1)
	if _, _, err := w.CausalBlock(1000, nil); err != weave.ErrAtomNotFound {
		t.Fatalf("got %v, want ErrAtomNotFound", err)
	}
}
