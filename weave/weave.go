package weave

import (
	"errors"
	"fmt"
	"sort"
	"unsafe"
)

// Errors returned by Weave mutators. These are precondition failures
// (spec.md §7 class 2): the caller decides whether to surface them, and no
// recovery is attempted inside the package.
var (
	ErrAtomNotFound       = errors.New("weave: atom not found")
	ErrCauseNotFound      = errors.New("weave: cause atom not found in weave")
	ErrChildlessCause     = errors.New("weave: cause atom cannot have children")
	ErrTargetNotPlain     = errors.New("weave: delete target is not a plain content atom")
	ErrCommitToSelf       = errors.New("weave: cannot commit a site to itself")
	ErrUnparentedHasCause = errors.New("weave: unparented atom must have a null cause")
	ErrSiteLimitExceeded  = errors.New("weave: site id would collide with an existing site after remap")
)

// Weave is a replicated, deterministically-linearized causal tree of atoms
// owned by a single site. Only the owning replica's task may mutate it; see
// spec.md §5 for the concurrency model.
type Weave[V comparable] struct {
	// Owner is the site that creates new atoms through AddAtom/DeleteAtom/AddCommit.
	Owner SiteId

	atoms   []Atom[V]
	treeLen int // K: atoms[0:treeLen] is the tree region, atoms[treeLen:] is unparented.
	weft    Weft
	yarns   yarnCache[V]
	index   map[AtomId]int // auxiliary O(1) atomWeaveIndex, per spec.md §9 open question 3.
}

// New creates a Weave seeded with the start and end atoms, owned by owner.
func New[V comparable](owner SiteId) *Weave[V] {
	w := &Weave[V]{
		Owner: owner,
		weft:  NewWeft(),
		yarns: newYarnCache[V](),
		index: make(map[AtomId]int),
	}
	start := startAtom[V]()
	end := endAtom[V]()
	w.atoms = []Atom[V]{start, end}
	w.treeLen = 1
	w.index[start.ID] = 0
	w.index[end.ID] = 1
	w.yarns.append(start)
	w.yarns.append(end)
	w.weft.UpdateAtom(start.ID)
	w.weft.UpdateAtom(end.ID)
	return w
}

// FromSerialized rebuilds a Weave's caches from a previously serialized
// atom sequence, preserving weave order exactly. It does not validate the
// sequence; call Validate explicitly if the source is untrusted.
func FromSerialized[V comparable](owner SiteId, atoms []Atom[V]) *Weave[V] {
	w := &Weave[V]{
		Owner: owner,
		atoms: append([]Atom[V]{}, atoms...),
		weft:  NewWeft(),
		index: make(map[AtomId]int, len(atoms)),
	}
	treeLen := len(atoms)
	for i, atom := range atoms {
		w.index[atom.ID] = i
		w.weft.UpdateAtom(atom.ID)
		if atom.Type.Unparented() && treeLen == len(atoms) {
			treeLen = i
		}
	}
	w.treeLen = treeLen
	w.yarns = buildYarnCache(atoms)
	return w
}

// buildYarnCache groups atoms by site and sorts each group by YarnIndex,
// since weave order (tree order) is independent of yarn order: a site's
// own atoms generally do not appear in the weave in creation order.
func buildYarnCache[V comparable](atoms []Atom[V]) yarnCache[V] {
	bySite := make(map[SiteId][]Atom[V])
	for _, atom := range atoms {
		bySite[atom.ID.Site] = append(bySite[atom.ID.Site], atom)
	}
	sites := make([]SiteId, 0, len(bySite))
	for site := range bySite {
		sites = append(sites, site)
	}
	sort.Slice(sites, func(i, j int) bool { return sites[i] < sites[j] })

	cache := newYarnCache[V]()
	for _, site := range sites {
		yarn := bySite[site]
		sort.Slice(yarn, func(i, j int) bool { return yarn[i].ID.Index < yarn[j].ID.Index })
		cache.appendTail(site, yarn)
	}
	return cache
}

// Atoms returns the weave's canonical linear sequence. Callers must not
// mutate the returned slice.
func (w *Weave[V]) Atoms() []Atom[V] {
	return w.atoms
}

// CompleteWeft returns the weft observing every atom currently in the weave.
func (w *Weave[V]) CompleteWeft() Weft {
	return w.weft.Clone()
}

// Superset reports whether w's weft pointwise dominates other's.
func (w *Weave[V]) Superset(other *Weave[V]) bool {
	return other.weft.LessEq(w.weft)
}

// AtomForId returns the atom identified by id, in O(1).
func (w *Weave[V]) AtomForId(id AtomId) (Atom[V], bool) {
	return w.yarns.atomForId(id)
}

// AtomYarnsIndex returns id's position within its site's flat yarn storage.
func (w *Weave[V]) AtomYarnsIndex(id AtomId) (int, bool) {
	return w.yarns.atomYarnsIndex(id)
}

// AtomWeaveIndex returns id's position within the canonical weave order.
// O(1) via the auxiliary index maintained across every mutation and merge.
func (w *Weave[V]) AtomWeaveIndex(id AtomId) (int, bool) {
	i, ok := w.index[id]
	return i, ok
}

// LastSiteAtomYarnsIndex returns the flat-vector index of site's most
// recently created atom.
func (w *Weave[V]) LastSiteAtomYarnsIndex(site SiteId) (int, bool) {
	return w.yarns.lastSiteAtomYarnsIndex(site)
}

// Yarn returns site's atoms in yarn-index order.
func (w *Weave[V]) Yarn(site SiteId) []Atom[V] {
	return w.yarns.yarn(site)
}

// SizeInBytes estimates the weave's memory footprint: the atom vector plus
// the yarn cache's parallel copy plus bookkeeping maps, at a fixed
// per-atom cost (AtomId, Cause, Clock, Reference, Type are all fixed-width;
// V's size is taken from a zero value since Go offers no generic sizeof).
func (w *Weave[V]) SizeInBytes() int {
	var zero Atom[V]
	perAtom := int(unsafe.Sizeof(zero))
	total := 2 * len(w.atoms) * perAtom // weave vector + yarn cache's parallel vector
	total += len(w.index) * 24          // AtomId key + int value + map bucket overhead, approximated
	return total
}

func (w *Weave[V]) lastAtomOf(site SiteId) AtomId {
	i, ok := w.yarns.lastSiteAtomYarnsIndex(site)
	if !ok {
		return NullAtomId
	}
	return w.yarns.atoms[i].ID
}

func (w *Weave[V]) nextIndex(site SiteId) YarnIndex {
	if idx, ok := w.weft.Get(site); ok {
		return idx + 1
	}
	return 0
}

// distinctSiblingSites returns, in ascending order, every site (other than
// exclude) that owns an atom sharing cause as its Cause. The start atom,
// whose Cause is itself, is not counted as a child of itself.
func (w *Weave[V]) distinctSiblingSites(cause AtomId, exclude SiteId) []SiteId {
	seen := make(map[SiteId]bool)
	for _, atom := range w.atoms {
		if atom.Cause == cause && atom.ID.Site != exclude && atom.ID != StartAtomId {
			seen[atom.ID.Site] = true
		}
	}
	sites := make([]SiteId, 0, len(seen))
	for site := range seen {
		sites = append(sites, site)
	}
	sort.Slice(sites, func(i, j int) bool { return sites[i] < sites[j] })
	return sites
}

// AddAtom appends value as a child of cause, returning the newly created
// atom's id. Per spec.md §4.3, it first synthesizes a commit from the
// owner to every sibling site of cause, ensuring the new atom's awareness
// dominates known sibling yarns so merges at other replicas converge.
func (w *Weave[V]) AddAtom(value V, cause AtomId, clock Clock) (AtomId, error) {
	for _, site := range w.distinctSiblingSites(cause, w.Owner) {
		if _, err := w.AddCommit(w.Owner, site, clock); err != nil {
			return NullAtomId, err
		}
	}
	id := AtomId{Site: w.Owner, Index: w.nextIndex(w.Owner)}
	atom := Atom[V]{
		ID:    id,
		Cause: cause,
		Clock: clock,
		Value: value,
		Type:  TypeNone,
	}
	if err := w.integrate(atom); err != nil {
		return NullAtomId, err
	}
	return id, nil
}

// DeleteAtom tombstones target by appending a delete atom caused by it.
// target must currently be a plain content atom (type none).
func (w *Weave[V]) DeleteAtom(target AtomId, clock Clock) (AtomId, error) {
	existing, ok := w.AtomForId(target)
	if !ok {
		return NullAtomId, ErrAtomNotFound
	}
	if existing.Type != TypeNone {
		return NullAtomId, ErrTargetNotPlain
	}
	id := AtomId{Site: w.Owner, Index: w.nextIndex(w.Owner)}
	var zero V
	atom := Atom[V]{
		ID:    id,
		Cause: target,
		Clock: clock,
		Value: zero,
		Type:  TypeDelete,
	}
	if err := w.integrate(atom); err != nil {
		return NullAtomId, err
	}
	return id, nil
}

// AddCommit appends an unparented commit atom recording that fromSite is
// now aware of toSite's latest atom. It is a no-op error if fromSite equals
// toSite.
func (w *Weave[V]) AddCommit(fromSite, toSite SiteId, clock Clock) (AtomId, error) {
	if fromSite == toSite {
		return NullAtomId, ErrCommitToSelf
	}
	id := AtomId{Site: fromSite, Index: w.nextIndex(fromSite)}
	var zero V
	atom := Atom[V]{
		ID:        id,
		Cause:     NullAtomId,
		Clock:     clock,
		Value:     zero,
		Reference: w.lastAtomOf(toSite),
		Type:      TypeCommit,
	}
	if err := w.integrate(atom); err != nil {
		return NullAtomId, err
	}
	return id, nil
}

// integrate places a newly created atom into the weave, updating the yarn
// cache, weft and auxiliary index. See spec.md §4.3 "Integration".
func (w *Weave[V]) integrate(atom Atom[V]) error {
	if atom.Type.Unparented() {
		if !atom.Cause.IsNull() {
			return ErrUnparentedHasCause
		}
		pos := w.treeLen
		for pos < len(w.atoms) && unparentedAtomOrder(w.atoms[pos].ID, atom.ID) {
			pos++
		}
		w.insertAt(pos, atom, false)
		return nil
	}
	causeIdx, ok := w.AtomWeaveIndex(atom.Cause)
	if !ok {
		return ErrCauseNotFound
	}
	if w.atoms[causeIdx].Type.Childless() {
		return ErrChildlessCause
	}
	w.insertAt(causeIdx+1, atom, true)
	return nil
}

// insertAt splices atom into the weave at pos, shifting the auxiliary
// index for every later atom, and records the atom in the yarn cache and
// weft. isTreeAtom tells whether the tree region grows by one.
func (w *Weave[V]) insertAt(pos int, atom Atom[V], isTreeAtom bool) {
	w.atoms = append(w.atoms, Atom[V]{})
	copy(w.atoms[pos+1:], w.atoms[pos:])
	w.atoms[pos] = atom
	for id, i := range w.index {
		if i >= pos {
			w.index[id] = i + 1
		}
	}
	w.index[atom.ID] = pos
	if isTreeAtom {
		w.treeLen++
	}
	w.yarns.append(atom)
	w.weft.UpdateAtom(atom.ID)
}

func (w *Weave[V]) String() string {
	return fmt.Sprintf("Weave{owner=%d, atoms=%d, weft=%v}", w.Owner, len(w.atoms), w.weft)
}
