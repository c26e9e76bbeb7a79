package weave

// yarnRange is the half-open [lo, hi) slice of the flat yarn store holding
// one site's atoms, in increasing YarnIndex order.
type yarnRange struct {
	lo, hi int
}

func (r yarnRange) len() int { return r.hi - r.lo }

// yarnCache is a flat vector concatenating every site's atoms, plus a map
// from SiteId to that site's contiguous slice within the vector. Site
// ranges are stored in arbitrary order; each individual range is
// yarn-index-ordered. Grounded on the teacher's Yarns [][]Atom field,
// flattened into one vector per spec.md §4.2.
type yarnCache[V comparable] struct {
	atoms []Atom[V]
	spans map[SiteId]yarnRange
}

func newYarnCache[V comparable]() yarnCache[V] {
	return yarnCache[V]{spans: make(map[SiteId]yarnRange)}
}

// atomYarnsIndex returns the position of id within the flat yarn vector.
func (c *yarnCache[V]) atomYarnsIndex(id AtomId) (int, bool) {
	if id.IsNull() {
		return 0, false
	}
	span, ok := c.spans[id.Site]
	if !ok {
		return 0, false
	}
	i := span.lo + int(id.Index)
	if i >= span.hi {
		return 0, false
	}
	return i, true
}

// atomForId returns the atom identified by id, in O(1).
func (c *yarnCache[V]) atomForId(id AtomId) (Atom[V], bool) {
	i, ok := c.atomYarnsIndex(id)
	if !ok {
		return Atom[V]{}, false
	}
	return c.atoms[i], true
}

// yarn returns the slice of atoms created by site, in yarn order.
func (c *yarnCache[V]) yarn(site SiteId) []Atom[V] {
	span, ok := c.spans[site]
	if !ok {
		return nil
	}
	return c.atoms[span.lo:span.hi]
}

// lastSiteAtomYarnsIndex returns the flat-vector index of the last atom of
// site's yarn, or false if the site has no atoms.
func (c *yarnCache[V]) lastSiteAtomYarnsIndex(site SiteId) (int, bool) {
	span, ok := c.spans[site]
	if !ok || span.len() == 0 {
		return 0, false
	}
	return span.hi - 1, true
}

// append adds atom to the end of its site's yarn. If the site is new, its
// range is pushed to the tail of the flat vector; otherwise the atom is
// inserted right after the site's current range and every later range is
// shifted by one, per spec.md §4.2's maintenance rule.
func (c *yarnCache[V]) append(atom Atom[V]) {
	site := atom.ID.Site
	span, ok := c.spans[site]
	if !ok {
		lo := len(c.atoms)
		c.atoms = append(c.atoms, atom)
		c.spans[site] = yarnRange{lo: lo, hi: lo + 1}
		return
	}
	at := span.hi
	c.atoms = append(c.atoms, Atom[V]{})
	copy(c.atoms[at+1:], c.atoms[at:])
	c.atoms[at] = atom
	c.spans[site] = yarnRange{lo: span.lo, hi: span.hi + 1}
	for other, r := range c.spans {
		if other == site {
			continue
		}
		if r.lo > span.hi-1 {
			c.spans[other] = yarnRange{lo: r.lo + 1, hi: r.hi + 1}
		}
	}
}

// appendTail grows site's range by tail, a contiguous run of the site's
// yarn that starts exactly where its current range ends. Used by the
// post-merge cache rebuild of §4.8.
func (c *yarnCache[V]) appendTail(site SiteId, tail []Atom[V]) {
	if len(tail) == 0 {
		return
	}
	span, ok := c.spans[site]
	if !ok {
		lo := len(c.atoms)
		c.atoms = append(c.atoms, tail...)
		c.spans[site] = yarnRange{lo: lo, hi: lo + len(tail)}
		return
	}
	at := span.hi
	c.atoms = append(c.atoms, make([]Atom[V], len(tail))...)
	copy(c.atoms[at+len(tail):], c.atoms[at:])
	copy(c.atoms[at:], tail)
	c.spans[site] = yarnRange{lo: span.lo, hi: span.hi + len(tail)}
	for other, r := range c.spans {
		if other == site {
			continue
		}
		if r.lo >= at {
			c.spans[other] = yarnRange{lo: r.lo + len(tail), hi: r.hi + len(tail)}
		}
	}
}

// size returns the number of atoms held across all yarns.
func (c *yarnCache[V]) size() int {
	return len(c.atoms)
}
