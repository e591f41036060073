package engine

import (
	"fmt"
)

// ResourceKind identifies one of the four daemon resource kinds a deployment
// owns.
type ResourceKind string

const (
	// KindContainer is a container, identified by name.
	KindContainer ResourceKind = "container"

	// KindImage is an image, identified by reference (repository[:tag]).
	KindImage ResourceKind = "image"

	// KindVolume is a named volume.
	KindVolume ResourceKind = "volume"

	// KindNetwork is a named network.
	KindNetwork ResourceKind = "network"
)

// AllKinds lists the resource kinds in cleanup order.
var AllKinds = []ResourceKind{KindContainer, KindImage, KindVolume, KindNetwork}

// Plural returns the kind's plural form for summaries.
func (k ResourceKind) Plural() string {
	return string(k) + "s"
}

// Validate checks if the kind is valid.
func (k ResourceKind) Validate() error {
	switch k {
	case KindContainer, KindImage, KindVolume, KindNetwork:
		return nil
	default:
		return fmt.Errorf("invalid resource kind: %s", k)
	}
}

// Provenance records which extraction path surfaced an identifier.
type Provenance string

const (
	// ProvenanceIndependent marks identifiers read directly from a manifest
	// file.
	ProvenanceIndependent Provenance = "independent"

	// ProvenanceMerged marks identifiers read from the daemon's resolved
	// view of the layered manifests.
	ProvenanceMerged Provenance = "merged"
)

// Validate checks if the provenance is valid.
func (p Provenance) Validate() error {
	switch p {
	case ProvenanceIndependent, ProvenanceMerged:
		return nil
	default:
		return fmt.Errorf("invalid provenance: %s", p)
	}
}

// Outcome is the result of one speculative daemon mutation.
type Outcome string

const (
	// OutcomeDone indicates the daemon carried out the call.
	OutcomeDone Outcome = "done"

	// OutcomeMissing indicates the resource did not exist.
	OutcomeMissing Outcome = "missing"

	// OutcomeInUse indicates the resource is still referenced.
	OutcomeInUse Outcome = "in_use"

	// OutcomeFailed indicates any other daemon failure.
	OutcomeFailed Outcome = "failed"

	// OutcomePlanned indicates a dry run announced the call instead.
	OutcomePlanned Outcome = "planned"
)

// OutcomeOf maps the error of a daemon mutation to its outcome.
func OutcomeOf(err error, dryRun bool) Outcome {
	switch {
	case err == nil && dryRun:
		return OutcomePlanned
	case err == nil:
		return OutcomeDone
	case IsNotFound(err):
		return OutcomeMissing
	case IsInUse(err):
		return OutcomeInUse
	default:
		return OutcomeFailed
	}
}
