package engine

import (
	"sort"

	"github.com/openfroyo/junoctl/pkg/manifest"
)

type idSet map[string]struct{}

func (s idSet) sorted() []string {
	out := make([]string, 0, len(s))
	for id := range s {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// kindSets holds the authoritative union for one kind and the two
// diagnostic provenance shadows.
type kindSets struct {
	union       idSet
	independent idSet
	merged      idSet
}

func newKindSets() *kindSets {
	return &kindSets{
		union:       make(idSet),
		independent: make(idSet),
		merged:      make(idSet),
	}
}

func (k *kindSets) shadow(p Provenance) idSet {
	if p == ProvenanceMerged {
		return k.merged
	}
	return k.independent
}

// ResourceSet accumulates the identifiers a deployment owns, per kind.
// The union is authoritative for cleanup and reporting; the provenance
// shadows exist for diagnostics only. Identifiers are case-sensitive and
// deduplicated by exact equality. The zero value is ready to use.
type ResourceSet struct {
	kinds map[ResourceKind]*kindSets
}

// NewResourceSet creates an empty resource set.
func NewResourceSet() *ResourceSet {
	return &ResourceSet{}
}

func (s *ResourceSet) get(kind ResourceKind) *kindSets {
	if s.kinds == nil {
		return nil
	}
	return s.kinds[kind]
}

// Add records id under kind with the given provenance. It reports whether
// id was new to the union. Empty identifiers and invalid kinds or
// provenances are ignored.
func (s *ResourceSet) Add(kind ResourceKind, p Provenance, id string) bool {
	if id == "" || kind.Validate() != nil || p.Validate() != nil {
		return false
	}
	if s.kinds == nil {
		s.kinds = make(map[ResourceKind]*kindSets, len(AllKinds))
	}
	ks, ok := s.kinds[kind]
	if !ok {
		ks = newKindSets()
		s.kinds[kind] = ks
	}

	_, seen := ks.union[id]
	ks.union[id] = struct{}{}
	ks.shadow(p)[id] = struct{}{}
	return !seen
}

// Items returns the sorted union for kind.
func (s *ResourceSet) Items(kind ResourceKind) []string {
	ks := s.get(kind)
	if ks == nil {
		return []string{}
	}
	return ks.union.sorted()
}

// From returns the sorted identifiers of kind seen with provenance p.
func (s *ResourceSet) From(kind ResourceKind, p Provenance) []string {
	ks := s.get(kind)
	if ks == nil {
		return []string{}
	}
	return ks.shadow(p).sorted()
}

// Count returns the size of the union for kind.
func (s *ResourceSet) Count(kind ResourceKind) int {
	ks := s.get(kind)
	if ks == nil {
		return 0
	}
	return len(ks.union)
}

// CountBy returns the number of identifiers of kind seen with provenance p.
func (s *ResourceSet) CountBy(kind ResourceKind, p Provenance) int {
	ks := s.get(kind)
	if ks == nil {
		return 0
	}
	return len(ks.shadow(p))
}

// Len returns the total number of identifiers across all kinds.
func (s *ResourceSet) Len() int {
	n := 0
	for _, kind := range AllKinds {
		n += s.Count(kind)
	}
	return n
}

// Resolution is the outcome of asking the daemon for the merged view of the
// manifests under one project. It is either available with a tree or
// unavailable with a reason; an unavailable resolution has no tree, not an
// empty one.
type Resolution struct {
	tree   manifest.Tree
	reason string
	ok     bool
}

// Resolved returns an available resolution.
func Resolved(tree manifest.Tree) Resolution {
	if tree == nil {
		tree = manifest.Tree{}
	}
	return Resolution{tree: tree, ok: true}
}

// Unavailable returns a resolution that carries no information.
func Unavailable(reason string) Resolution {
	return Resolution{reason: reason}
}

// Tree returns the merged tree and whether it is available.
func (r Resolution) Tree() (manifest.Tree, bool) {
	return r.tree, r.ok
}

// Available reports whether the resolution carries a tree.
func (r Resolution) Available() bool {
	return r.ok
}

// Reason explains an unavailable resolution.
func (r Resolution) Reason() string {
	return r.reason
}

// LiveResource is one row of a daemon listing.
type LiveResource struct {
	Kind ResourceKind `json:"kind"`

	// Name is the container/volume/network name or repository:tag.
	Name string `json:"name"`

	// Size is the daemon-reported size string, possibly empty.
	Size string `json:"size,omitempty"`

	// Status is the container run state, image tag or network/volume driver.
	Status string `json:"status,omitempty"`

	// Labels is the raw comma-separated label list.
	Labels string `json:"labels,omitempty"`
}

// LeftoverRecord is a live resource still present after a sweep.
type LeftoverRecord struct {
	Kind   ResourceKind `json:"kind"`
	ID     string       `json:"id"`
	Size   string       `json:"size"`
	Status string       `json:"status"`
}

// Summary is the result of one verification pass.
type Summary struct {
	// Leftovers holds the matching live resources per kind.
	Leftovers map[ResourceKind][]LeftoverRecord `json:"leftovers"`

	// Bytes holds the aggregated size per kind.
	Bytes map[ResourceKind]uint64 `json:"bytes"`

	// Unavailable records kinds whose listing failed, with the reason.
	Unavailable map[ResourceKind]string `json:"unavailable,omitempty"`
}

// NewSummary creates an empty summary.
func NewSummary() *Summary {
	return &Summary{
		Leftovers:   make(map[ResourceKind][]LeftoverRecord),
		Bytes:       make(map[ResourceKind]uint64),
		Unavailable: make(map[ResourceKind]string),
	}
}

// Count returns the number of leftovers of kind.
func (s *Summary) Count(kind ResourceKind) int {
	return len(s.Leftovers[kind])
}

// Total returns the number of leftovers across kinds.
func (s *Summary) Total() int {
	n := 0
	for _, records := range s.Leftovers {
		n += len(records)
	}
	return n
}

// Clean reports whether nothing was left behind and every listing
// succeeded.
func (s *Summary) Clean() bool {
	return s.Total() == 0 && len(s.Unavailable) == 0
}
