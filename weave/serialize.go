package weave

import "encoding/json"

// serializedAtom is the wire representation of Atom[V], grounded on the
// teacher's AtomValue.MarshalJSON: every fixed-width field is written out
// plainly, and Value is left to encoding/json's generic marshaling since V
// is concrete at the call site, not dispatched through an interface.
type serializedAtom[V comparable] struct {
	ID        AtomId   `json:"id"`
	Cause     AtomId   `json:"cause"`
	Clock     Clock    `json:"clock"`
	Value     V        `json:"value"`
	Reference AtomId   `json:"reference,omitempty"`
	Type      AtomType `json:"type"`
}

// serializedWeave is the persistence format of spec.md §6: the owning site
// plus the weave's canonical atom sequence. Everything else (weft, yarn
// cache, auxiliary index) is a cache FromSerialized rebuilds on load.
type serializedWeave[V comparable] struct {
	Owner SiteId              `json:"owner"`
	Atoms []serializedAtom[V] `json:"atoms"`
}

// MarshalJSON writes w in the §6 persistence format.
func (w *Weave[V]) MarshalJSON() ([]byte, error) {
	out := serializedWeave[V]{
		Owner: w.Owner,
		Atoms: make([]serializedAtom[V], len(w.atoms)),
	}
	for i, atom := range w.atoms {
		out.Atoms[i] = serializedAtom[V]{
			ID:        atom.ID,
			Cause:     atom.Cause,
			Clock:     atom.Clock,
			Value:     atom.Value,
			Reference: atom.Reference,
			Type:      atom.Type,
		}
	}
	return json.Marshal(out)
}

// UnmarshalJSON reads the §6 persistence format and rebuilds w's caches via
// FromSerialized. It does not validate the decoded sequence; call Validate
// explicitly if the source is untrusted.
func (w *Weave[V]) UnmarshalJSON(data []byte) error {
	var in serializedWeave[V]
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	atoms := make([]Atom[V], len(in.Atoms))
	for i, atom := range in.Atoms {
		atoms[i] = Atom[V]{
			ID:        atom.ID,
			Cause:     atom.Cause,
			Clock:     atom.Clock,
			Value:     atom.Value,
			Reference: atom.Reference,
			Type:      atom.Type,
		}
	}
	*w = *FromSerialized[V](in.Owner, atoms)
	return nil
}
