package weave_test

import (
	"testing"

	"github.com/jeffd/weave/weave"
)

func TestWeftIncludesNullAtom(t *testing.T) {
	w := weave.NewWeft()
	if !w.Includes(weave.NullAtomId) {
		t.Fatal("empty weft does not vacuously include the null atom")
	}
}

func TestWeftUpdateOnlyRaises(t *testing.T) {
	w := weave.NewWeft()
	w.Update(1, 5)
	w.Update(1, 2)
	if got, _ := w.Get(1); got != 5 {
		t.Fatalf("Get(1) = %d, want 5", got)
	}
}

func TestWeftLessEq(t *testing.T) {
	a := weave.Weft{1: 2, 2: 3}
	b := weave.Weft{1: 5, 2: 3, 3: 0}
	if !a.LessEq(b) {
		t.Fatal("a should be pointwise <= b")
	}
	if b.LessEq(a) {
		t.Fatal("b should not be pointwise <= a")
	}
}

func TestWeftLessTreatsAbsenceBelowZero(t *testing.T) {
	// Neither weft observes the other's site, but both report index 0 for
	// their own site: absence must be distinguishable from "index 0", or
	// the tiebreak would be unable to order them at all.
	a := weave.Weft{1: 0}
	b := weave.Weft{2: 0}
	if !a.Less(b) && !b.Less(a) {
		t.Fatal("Less must pick a deterministic direction between two wefts observing disjoint sites")
	}
	if a.Less(b) == b.Less(a) {
		t.Fatal("Less must be asymmetric for distinct wefts")
	}
}

func TestWeftCloneIsIndependent(t *testing.T) {
	a := weave.Weft{1: 1}
	b := a.Clone()
	b.Update(1, 9)
	if got, _ := a.Get(1); got != 1 {
		t.Fatalf("original weft was mutated through its clone: got %d", got)
	}
}
