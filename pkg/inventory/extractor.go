// Package inventory discovers the resources a deployment owns by walking
// manifest trees.
package inventory

import (
	"sort"

	"github.com/openfroyo/junoctl/pkg/engine"
	"github.com/openfroyo/junoctl/pkg/manifest"
	"github.com/openfroyo/junoctl/pkg/telemetry"
)

// Service attributes read during extraction.
const (
	attrContainerName = "container_name"
	attrImage         = "image"
	attrBuild         = "build"
	attrCacheFrom     = "cache_from"
)

// Extractor accumulates containers, images, volumes and networks from
// independent and merged trees into one ResourceSet.
type Extractor struct {
	set    *engine.ResourceSet
	logger *telemetry.Logger
}

// NewExtractor creates an extractor with an empty resource set.
func NewExtractor(logger *telemetry.Logger) *Extractor {
	if logger == nil {
		logger = telemetry.NewNopLogger()
	}
	return &Extractor{
		set:    engine.NewResourceSet(),
		logger: logger.NewComponentLogger("extractor"),
	}
}

// ExtractIndependent walks trees parsed directly from manifest files.
// Nil trees are skipped.
func (e *Extractor) ExtractIndependent(trees ...manifest.Tree) {
	for _, tree := range trees {
		if tree == nil {
			continue
		}
		e.Extract(tree, engine.ProvenanceIndependent)
	}
}

// ExtractMerged walks a daemon-resolved tree.
func (e *Extractor) ExtractMerged(tree manifest.Tree) {
	if tree == nil {
		return
	}
	e.Extract(tree, engine.ProvenanceMerged)
}

// Extract walks one tree, recording every identifier with provenance p.
//
// Services contribute their explicit container name, image and build cache
// sources; services without a container name are skipped for containers
// because the daemon names those nondeterministically. Volumes and networks
// contribute their top-level keys. Malformed entries are ignored.
func (e *Extractor) Extract(tree manifest.Tree, p engine.Provenance) {
	added := 0
	add := func(kind engine.ResourceKind, id string) {
		if e.set.Add(kind, p, id) {
			added++
		}
	}

	services := tree.Services()
	names := make([]string, 0, len(services))
	for name := range services {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		svc, ok := services[name].(map[string]any)
		if !ok {
			e.logger.Debugf("skipping service %s: not a mapping", name)
			continue
		}
		if container, ok := manifest.String(svc, attrContainerName); ok {
			add(engine.KindContainer, container)
		}
		if image, ok := manifest.String(svc, attrImage); ok {
			add(engine.KindImage, image)
		}
		for _, cache := range manifest.Strings(svc, attrBuild, attrCacheFrom) {
			add(engine.KindImage, cache)
		}
	}

	for _, volume := range tree.Keys(manifest.SectionVolumes) {
		add(engine.KindVolume, volume)
	}
	for _, network := range tree.Keys(manifest.SectionNetworks) {
		add(engine.KindNetwork, network)
	}

	e.logger.Debugf("extracted %d new identifiers from %s tree", added, p)
}

// Resources returns the accumulated set.
func (e *Extractor) Resources() *engine.ResourceSet {
	return e.set
}
