// Package site maps stable, process-external identities (UUIDs) onto the
// small-integer weave.SiteId the core operates on. spec.md excludes this
// mapping from the weave package entirely (SPEC_FULL.md §10.1); it is
// grounded on the teacher's CausalTree.Sitemap, siteIndex and
// mergeSitemaps, factored out of the tree type into its own package.
package site

import (
	"bytes"
	"sort"

	"github.com/google/uuid"
	"github.com/jeffd/weave/weave"
)

// Registry is an ordered set of site UUIDs. The sorted position of a UUID,
// offset by one, is its weave.SiteId — offset because weave.ControlSite (0)
// is reserved for the core's start/end atoms, and a real site landing on 0
// would collide with them.
type Registry struct {
	ids []uuid.UUID
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// search returns the position at which id belongs in the sorted slice, and
// whether it's already present there. Grounded on the teacher's siteIndex.
func search(ids []uuid.UUID, id uuid.UUID) (int, bool) {
	i := sort.Search(len(ids), func(i int) bool {
		return bytes.Compare(ids[i][:], id[:]) >= 0
	})
	return i, i < len(ids) && ids[i] == id
}

// SiteID returns id's weave.SiteId, inserting id into the registry if it
// isn't already present. Grounded on the teacher's Fork, which inserts a
// newly minted UUID at its sorted position and remaps every existing atom
// whose site index shifted as a result.
func (r *Registry) SiteID(id uuid.UUID) weave.SiteId {
	i, ok := search(r.ids, id)
	if !ok {
		r.ids = append(r.ids, uuid.UUID{})
		copy(r.ids[i+1:], r.ids[i:])
		r.ids[i] = id
	}
	return weave.SiteId(i + 1)
}

// UUID returns the UUID registered at siteID, if any.
func (r *Registry) UUID(siteID weave.SiteId) (uuid.UUID, bool) {
	i := int(siteID) - 1
	if i < 0 || i >= len(r.ids) {
		return uuid.UUID{}, false
	}
	return r.ids[i], true
}

// Len returns the number of registered sites.
func (r *Registry) Len() int {
	return len(r.ids)
}

// Merge folds other's UUIDs into r and returns the remap table translating
// other's old weave.SiteId values to their position in the merged
// registry. Pass the result to weave.Weave[V].RemapIndices on the weave
// that was built against other, before calling Integrate — exactly the
// role localRemap/remoteRemap play inline in the teacher's
// CausalTree.Merge, here computed once and handed to the caller instead.
func (r *Registry) Merge(other *Registry) map[weave.SiteId]weave.SiteId {
	merged := mergeSorted(r.ids, other.ids)
	remap := make(map[weave.SiteId]weave.SiteId, len(other.ids))
	for i, id := range other.ids {
		j, _ := search(merged, id)
		remap[weave.SiteId(i+1)] = weave.SiteId(j + 1)
	}
	r.ids = merged
	return remap
}

// mergeSorted merges two sorted, deduplicated UUID slices into one sorted,
// deduplicated slice. Grounded on the teacher's mergeSitemaps.
func mergeSorted(s1, s2 []uuid.UUID) []uuid.UUID {
	var i, j int
	merged := make([]uuid.UUID, 0, len(s1)+len(s2))
	for i < len(s1) && j < len(s2) {
		id1, id2 := s1[i], s2[j]
		switch bytes.Compare(id1[:], id2[:]) {
		case -1:
			merged = append(merged, id1)
			i++
		case 1:
			merged = append(merged, id2)
			j++
		default:
			merged = append(merged, id1)
			i++
			j++
		}
	}
	merged = append(merged, s1[i:]...)
	merged = append(merged, s2[j:]...)
	return merged
}
