package weave_test

import (
	"encoding/json"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/jeffd/weave/weave"
)

func TestMarshalRoundTrip(t *testing.T) {
	w := weave.New[rune](1)
	a := mustAdd(t, w, 'a', weave.StartAtomId)
	mustAdd(t, w, 'b', a)
	if _, err := w.DeleteAtom(a, 1); err != nil {
		t.Fatalf("DeleteAtom: %v", err)
	}

	data, err := json.Marshal(w)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}

	var got weave.Weave[rune]
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}

	if diff := cmp.Diff(w.Atoms(), got.Atoms()); diff != "" {
		t.Fatalf("round trip changed atoms (-want +got):\n%s", diff)
	}
	if got.Owner != w.Owner {
		t.Fatalf("Owner = %d, want %d", got.Owner, w.Owner)
	}
}

func TestUnmarshalRebuildsCaches(t *testing.T) {
	w := weave.New[rune](1)
	a := mustAdd(t, w, 'a', weave.StartAtomId)
	data, err := json.Marshal(w)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}

	var got weave.Weave[rune]
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}

	atom, ok := got.AtomForId(a)
	if !ok {
		t.Fatalf("atom %v not found after round trip", a)
	}
	if atom.Value != 'a' {
		t.Fatalf("Value = %q, want 'a'", atom.Value)
	}
	if _, ok := got.AtomWeaveIndex(a); !ok {
		t.Fatalf("AtomWeaveIndex(%v) not found after round trip", a)
	}
}
