package engine

import (
	"context"
)

// ConfigResolver produces the daemon's merged view of layered manifests.
type ConfigResolver interface {
	// ResolveConfig renders files, layered in order, under project and
	// returns the raw rendered document.
	ResolveConfig(ctx context.Context, project string, files []string) ([]byte, error)
}

// Remover is the mutating daemon surface used by cleanup. Every method is
// a single speculative call: not-found and in-use failures are reported as
// classified errors, never panics. In dry-run mode implementations announce
// the call and return nil without contacting the daemon.
type Remover interface {
	StopContainer(ctx context.Context, name string) error
	RemoveContainer(ctx context.Context, name string) error
	RemoveImage(ctx context.Context, ref string) error
	RemoveVolume(ctx context.Context, name string) error
	RemoveNetwork(ctx context.Context, name string) error

	// ComposeDown tears down project, removing its volumes and orphans.
	ComposeDown(ctx context.Context, project string, files []string) error

	// PruneImages removes dangling images.
	PruneImages(ctx context.Context) error

	// ImageTags lists every local repository:tag of repo. Read-only.
	ImageTags(ctx context.Context, repo string) ([]string, error)

	// DryRun reports whether mutations are announced instead of run.
	DryRun() bool
}

// Lister is the read-only daemon surface used by verification.
type Lister interface {
	// List returns the live resources of kind.
	List(ctx context.Context, kind ResourceKind) ([]LiveResource, error)
}

// Daemon combines every daemon surface.
type Daemon interface {
	ConfigResolver
	Remover
	Lister
}

// Verifier produces a live-state summary.
type Verifier interface {
	Report(ctx context.Context) *Summary
}
