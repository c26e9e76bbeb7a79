package weave_test

import (
	"testing"

	"github.com/jeffd/weave/weave"
)

func kindOf(t *testing.T, err error) weave.ValidationErrorKind {
	t.Helper()
	verr, ok := err.(*weave.ValidationError)
	if !ok {
		t.Fatalf("got %T (%v), want *weave.ValidationError", err, err)
	}
	return verr.Kind
}

func TestValidateAcceptsWellFormedWeave(t *testing.T) {
	w := weave.New[rune](1)
	a := mustAdd(t, w, 'a', weave.StartAtomId)
	mustAdd(t, w, 'b', a)
	if err := w.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
}

func TestValidateAcceptsAfterMerge(t *testing.T) {
	w0 := weave.New[rune](1)
	root := mustAdd(t, w0, 'r', weave.StartAtomId)
	w1 := cloneWeave(w0, 2)
	mustAdd(t, w0, 'a', root)
	mustAdd(t, w1, 'b', root)
	if err := w0.Integrate(w1); err != nil {
		t.Fatalf("Integrate: %v", err)
	}
	if err := w0.Validate(); err != nil {
		t.Fatalf("Validate after merge: %v", err)
	}
}

func TestValidateEmptyWeave(t *testing.T) {
	w := weave.FromSerialized[rune](1, nil)
	err := w.Validate()
	if err == nil {
		t.Fatal("got nil, want error")
	}
	if kind := kindOf(t, err); kind != weave.NoAtoms {
		t.Fatalf("got kind %v, want NoAtoms", kind)
	}
}

// null is the "no atom" id; the zero AtomId is the start atom's id, so
// fixtures must set Cause and Reference to it explicitly.
var null = weave.NullAtomId

func TestValidateDetectsUnparentedAtomIsParented(t *testing.T) {
	start := weave.Atom[rune]{ID: weave.StartAtomId, Cause: weave.StartAtomId, Reference: null, Type: weave.TypeStart}
	end := weave.Atom[rune]{ID: weave.EndAtomId, Cause: null, Reference: null, Type: weave.TypeEnd}
	content := weave.Atom[rune]{ID: weave.AtomId{Site: 1, Index: 0}, Cause: weave.StartAtomId, Reference: null, Value: 'x', Type: weave.TypeNone}

	w := weave.FromSerialized[rune](1, []weave.Atom[rune]{start, end, content})
	err := w.Validate()
	if err == nil {
		t.Fatal("got nil, want error")
	}
	if kind := kindOf(t, err); kind != weave.UnparentedAtomIsParented {
		t.Fatalf("got kind %v, want UnparentedAtomIsParented", kind)
	}
}

func TestValidateDetectsMissingStartOfUnparentedSection(t *testing.T) {
	start := weave.Atom[rune]{ID: weave.StartAtomId, Cause: weave.StartAtomId, Reference: null, Type: weave.TypeStart}
	content := weave.Atom[rune]{ID: weave.AtomId{Site: 1, Index: 0}, Cause: weave.StartAtomId, Reference: null, Value: 'x', Type: weave.TypeNone}
	commit := weave.Atom[rune]{ID: weave.AtomId{Site: 2, Index: 0}, Cause: null, Reference: null, Type: weave.TypeCommit}

	w := weave.FromSerialized[rune](1, []weave.Atom[rune]{start, content, commit})
	err := w.Validate()
	if err == nil {
		t.Fatal("got nil, want error")
	}
	if kind := kindOf(t, err); kind != weave.MissingStartOfUnparentedSection {
		t.Fatalf("got kind %v, want MissingStartOfUnparentedSection", kind)
	}
}

func TestValidateDetectsChildlessAtomHasChildren(t *testing.T) {
	start := weave.Atom[rune]{ID: weave.StartAtomId, Cause: weave.StartAtomId, Reference: null, Type: weave.TypeStart}
	target := weave.Atom[rune]{ID: weave.AtomId{Site: 1, Index: 0}, Cause: weave.StartAtomId, Reference: null, Value: 'x', Type: weave.TypeNone}
	del := weave.Atom[rune]{ID: weave.AtomId{Site: 1, Index: 1}, Cause: target.ID, Reference: null, Type: weave.TypeDelete}
	child := weave.Atom[rune]{ID: weave.AtomId{Site: 1, Index: 2}, Cause: del.ID, Reference: null, Value: 'y', Type: weave.TypeNone}

	w := weave.FromSerialized[rune](1, []weave.Atom[rune]{start, target, del, child})
	err := w.Validate()
	if err == nil {
		t.Fatal("got nil, want error")
	}
	if kind := kindOf(t, err); kind != weave.ChildlessAtomHasChildren {
		t.Fatalf("got kind %v, want ChildlessAtomHasChildren", kind)
	}
}

func TestValidateDetectsAtomUnawareOfParent(t *testing.T) {
	start := weave.Atom[rune]{ID: weave.StartAtomId, Cause: weave.StartAtomId, Reference: null, Type: weave.TypeStart}
	parent := weave.Atom[rune]{ID: weave.AtomId{Site: 1, Index: 0}, Cause: weave.StartAtomId, Reference: null, Value: 'p', Type: weave.TypeNone}
	child := weave.Atom[rune]{ID: weave.AtomId{Site: 1, Index: 1}, Cause: parent.ID, Reference: null, Value: 'c', Type: weave.TypeNone}

	// child placed before its own cause in weave order.
	w := weave.FromSerialized[rune](1, []weave.Atom[rune]{start, child, parent})
	err := w.Validate()
	if err == nil {
		t.Fatal("got nil, want error")
	}
	if kind := kindOf(t, err); kind != weave.AtomUnawareOfParent {
		t.Fatalf("got kind %v, want AtomUnawareOfParent", kind)
	}
}

func TestValidateDetectsIncorrectUnparentedAtomOrder(t *testing.T) {
	start := weave.Atom[rune]{ID: weave.StartAtomId, Cause: weave.StartAtomId, Reference: null, Type: weave.TypeStart}
	end := weave.Atom[rune]{ID: weave.EndAtomId, Cause: null, Reference: null, Type: weave.TypeEnd}
	commitHi := weave.Atom[rune]{ID: weave.AtomId{Site: 2, Index: 0}, Cause: null, Reference: null, Type: weave.TypeCommit}
	commitLo := weave.Atom[rune]{ID: weave.AtomId{Site: 1, Index: 0}, Cause: null, Reference: null, Type: weave.TypeCommit}

	w := weave.FromSerialized[rune](1, []weave.Atom[rune]{start, end, commitHi, commitLo})
	err := w.Validate()
	if err == nil {
		t.Fatal("got nil, want error")
	}
	if kind := kindOf(t, err); kind != weave.IncorrectUnparentedAtomOrder {
		t.Fatalf("got kind %v, want IncorrectUnparentedAtomOrder", kind)
	}
}

func TestValidateDetectsCausalityViolationOnUnparentedCause(t *testing.T) {
	start := weave.Atom[rune]{ID: weave.StartAtomId, Cause: weave.StartAtomId, Reference: null, Type: weave.TypeStart}
	end := weave.Atom[rune]{ID: weave.EndAtomId, Cause: null, Reference: null, Type: weave.TypeEnd}
	commit := weave.Atom[rune]{ID: weave.AtomId{Site: 1, Index: 0}, Cause: weave.StartAtomId, Reference: null, Type: weave.TypeCommit}

	w := weave.FromSerialized[rune](1, []weave.Atom[rune]{start, end, commit})
	err := w.Validate()
	if err == nil {
		t.Fatal("got nil, want error")
	}
	if kind := kindOf(t, err); kind != weave.CausalityViolation {
		t.Fatalf("got kind %v, want CausalityViolation", kind)
	}
}
