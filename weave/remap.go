package weave

// RemapIndices rewrites every SiteId appearing in w according to m: Owner,
// every atom's ID.Site, Cause.Site and Reference.Site, and the keys of the
// weft and yarn cache. Sites absent from m are left untouched. Per spec.md
// §4.9, RemapIndices does not re-sort anything; it is the caller's
// responsibility (typically a site registry merge, see SPEC_FULL.md §10.1)
// to supply a map that preserves whatever order the weave currently relies
// on, or to call Validate afterwards.
//
// Grounded on the teacher's CausalTree.Merge, which applies localRemap and
// remoteRemap across every AtomID/Sitemap field before joining two trees;
// here that rewrite is split out as its own operation so it can be applied
// to either side independently of Integrate.
func (w *Weave[V]) RemapIndices(m map[SiteId]SiteId) {
	remapSite := func(s SiteId) SiteId {
		if r, ok := m[s]; ok {
			return r
		}
		return s
	}
	remapId := func(id AtomId) AtomId {
		if id.IsNull() {
			return id
		}
		return AtomId{Site: remapSite(id.Site), Index: id.Index}
	}

	w.Owner = remapSite(w.Owner)

	for i, atom := range w.atoms {
		atom.ID = remapId(atom.ID)
		atom.Cause = remapId(atom.Cause)
		atom.Reference = remapId(atom.Reference)
		w.atoms[i] = atom
	}

	remappedWeft := NewWeft()
	for site, index := range w.weft {
		remappedWeft.Update(remapSite(site), index)
	}
	w.weft = remappedWeft

	remappedSpans := make(map[SiteId]yarnRange, len(w.yarns.spans))
	for site, span := range w.yarns.spans {
		remappedSpans[remapSite(site)] = span
	}
	w.yarns.spans = remappedSpans
	for i, atom := range w.yarns.atoms {
		atom.ID = remapId(atom.ID)
		atom.Cause = remapId(atom.Cause)
		atom.Reference = remapId(atom.Reference)
		w.yarns.atoms[i] = atom
	}

	remappedIndex := make(map[AtomId]int, len(w.index))
	for id, i := range w.index {
		remappedIndex[remapId(id)] = i
	}
	w.index = remappedIndex
}
