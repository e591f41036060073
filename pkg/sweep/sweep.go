// Package sweep drives a complete cleanup: discovery from manifests and
// merged views, teardown, an optional prune and live-state verification.
package sweep

import (
	"context"
	"errors"
	"io"
	"os"

	"github.com/openfroyo/junoctl/pkg/docker"
	"github.com/openfroyo/junoctl/pkg/engine"
	"github.com/openfroyo/junoctl/pkg/inventory"
	"github.com/openfroyo/junoctl/pkg/manifest"
	"github.com/openfroyo/junoctl/pkg/reconcile"
	"github.com/openfroyo/junoctl/pkg/report"
	"github.com/openfroyo/junoctl/pkg/telemetry"
)

// ErrNoManifests is returned when neither manifest yields a tree.
var ErrNoManifests = errors.New("no compose files found to parse")

// Options configures a sweep.
type Options struct {
	// BaseFile and RuntimeFile are the base manifest and its runtime
	// overlay.
	BaseFile    string
	RuntimeFile string

	// Projects are the known project names.
	Projects []string

	// Patterns select live resources during verification.
	Patterns []string

	// Prune offers a dangling-image prune after cleanup.
	Prune bool

	// AssumeYes answers the prune confirmation without prompting.
	AssumeYes bool

	// In and Out carry the confirmation prompt.
	In  io.Reader
	Out io.Writer

	Logger  *telemetry.Logger
	Metrics *telemetry.Metrics
}

// Result describes a completed sweep.
type Result struct {
	RunID     string
	DryRun    bool
	Resources *engine.ResourceSet
	Cleanup   *reconcile.Report
	Pruned    bool

	// Summary is nil in dry-run mode, where nothing changed.
	Summary *engine.Summary
}

// Sweep runs cleanups against one daemon.
type Sweep struct {
	daemon engine.Daemon
	parser *manifest.Parser
	opts   Options
	logger *telemetry.Logger
}

// New creates a sweep. Dry-run behavior follows daemon.DryRun().
func New(daemon engine.Daemon, opts Options) *Sweep {
	logger := opts.Logger
	if logger == nil {
		logger = telemetry.NewNopLogger()
	}
	return &Sweep{
		daemon: daemon,
		parser: manifest.NewComposeParser(),
		opts:   opts,
		logger: logger,
	}
}

// Discover parses both manifests and extracts the deployment's resources
// from them and from every project's merged view. It returns
// ErrNoManifests, without contacting the daemon, when neither manifest
// yields a non-empty tree.
func (s *Sweep) Discover(ctx context.Context) (*engine.ResourceSet, error) {
	base, baseOK := s.load(s.opts.BaseFile)
	runtime, runtimeOK := s.load(s.opts.RuntimeFile)
	if !nonEmpty(base, baseOK) && !nonEmpty(runtime, runtimeOK) {
		s.logger.Error("No compose files found to parse")
		return nil, ErrNoManifests
	}

	extractor := inventory.NewExtractor(s.logger)

	s.logger.Info("=== Extracting from independent files ===")
	extractor.ExtractIndependent(base, runtime)

	s.logger.Info("=== Extracting from merged configs ===")
	fetcher := docker.NewFetcher(s.daemon, s.parser, s.logger)
	for _, project := range s.opts.Projects {
		res := fetcher.Fetch(ctx, s.opts.BaseFile, s.opts.RuntimeFile, project)
		if tree, ok := res.Tree(); ok {
			extractor.ExtractMerged(tree)
		} else {
			s.logger.WithProject(project).Debugf("merged view unavailable: %s", res.Reason())
		}
	}

	set := extractor.Resources()
	s.logSummary(set)
	return set, nil
}

// Run executes a full sweep. A sweep that completes returns a nil error
// even when leftovers remain.
func (s *Sweep) Run(ctx context.Context) (*Result, error) {
	runID := telemetry.NewRunID()
	run := *s
	run.logger = s.logger.WithRunID(runID)
	return run.run(ctx, runID)
}

func (s *Sweep) run(ctx context.Context, runID string) (result *Result, err error) {
	dryRun := s.daemon.DryRun()

	ctx = telemetry.WithSweepContext(ctx, runID, dryRun)
	defer func() {
		status := "completed"
		if err != nil {
			status = "failed"
		}
		telemetry.EndSweepContext(ctx, status, err)
	}()

	s.logger.Info("=== Juno Runtime Cleanup ===")
	if dryRun {
		s.logger.Warn("DRY-RUN MODE: No changes will be made")
	}

	phase := telemetry.StartOperation(ctx, "sweep.discover")
	set, err := s.Discover(phase.Ctx)
	phase.End(err)
	if err != nil {
		return nil, err
	}

	result = &Result{RunID: runID, DryRun: dryRun, Resources: set}

	phase = telemetry.StartOperation(ctx, "sweep.cleanup")
	cleaner := reconcile.NewCleaner(s.daemon, reconcile.Options{
		Projects: s.opts.Projects,
		Files:    s.ExistingFiles(),
		Logger:   s.logger,
		Metrics:  s.opts.Metrics,
	})
	result.Cleanup = cleaner.Cleanup(phase.Ctx, set)
	phase.End(nil)

	if s.opts.Prune {
		var interrupted bool
		result.Pruned, interrupted = s.prune(ctx)
		if interrupted {
			// The prompt absorbed the interrupt; verification is read-only.
			ctx = context.WithoutCancel(ctx)
		}
	}

	if dryRun {
		s.logger.Info("Dry-run complete! Run without --dry-run to actually clean up.")
		return result, nil
	}

	phase = telemetry.StartOperation(ctx, "sweep.verify")
	result.Summary = report.NewReporter(s.daemon, s.opts.Patterns, s.logger, s.opts.Metrics).Report(phase.Ctx)
	phase.End(nil)

	if result.Summary.Clean() {
		s.logger.Info("Cleanup complete!")
	} else {
		s.logger.Warnf("Cleanup complete with %d leftover resources", result.Summary.Total())
	}
	return result, nil
}

// prune offers the dangling-image prune. It reports whether the prune ran
// and whether the prompt was interrupted.
func (s *Sweep) prune(ctx context.Context) (bool, bool) {
	confirmed := s.opts.AssumeYes
	if !confirmed {
		confirmed = Confirm(ctx, s.opts.In, s.opts.Out, "Prune all dangling images?")
		if ctx.Err() != nil {
			s.logger.Info("Prune skipped (interrupted)")
			return false, true
		}
	}
	if !confirmed {
		s.logger.Info("Prune skipped")
		return false, false
	}

	s.logger.Info("--- Pruning dangling images ---")
	if err := s.daemon.PruneImages(ctx); err != nil {
		s.logger.WithError(err).Warn("Image prune failed")
		return false, false
	}
	return true, false
}

// load parses path and reports whether a tree was obtained. A missing
// manifest is a warning and an unparseable one an error; both are treated
// as absent.
func (s *Sweep) load(path string) (manifest.Tree, bool) {
	s.logger.Infof("Parsing %s", path)
	tree, err := s.parser.ParseFile(path)
	switch {
	case err == nil:
		return tree, true
	case errors.Is(err, manifest.ErrNotFound):
		s.logger.Warnf("Compose file not found: %s", path)
	case manifest.IsParseError(err):
		err = engine.NewManifestParseError("manifest treated as absent", err).WithResource(path)
		s.logger.WithError(err).Errorf("Error parsing %s", path)
		s.opts.Metrics.RecordError(string(engine.ClassOf(err)))
	default:
		s.logger.WithError(err).Errorf("Error reading %s", path)
	}
	return nil, false
}

func (s *Sweep) logSummary(set *engine.ResourceSet) {
	s.logger.Infof("=== Resource Summary (%d identifiers) ===", set.Len())
	for _, kind := range engine.AllKinds {
		n := set.Count(kind)
		s.logger.Infof("Total %s: %d (independent: %d, merged: %d)",
			kind.Plural(), n,
			set.CountBy(kind, engine.ProvenanceIndependent),
			set.CountBy(kind, engine.ProvenanceMerged))
		s.opts.Metrics.SetExtracted(string(kind), string(engine.ProvenanceIndependent), set.CountBy(kind, engine.ProvenanceIndependent))
		s.opts.Metrics.SetExtracted(string(kind), string(engine.ProvenanceMerged), set.CountBy(kind, engine.ProvenanceMerged))
	}
}

// ExistingFiles returns the manifests that exist, in layering order.
func (s *Sweep) ExistingFiles() []string {
	var files []string
	for _, f := range []string{s.opts.BaseFile, s.opts.RuntimeFile} {
		if _, err := os.Stat(f); err == nil {
			files = append(files, f)
		}
	}
	return files
}

func nonEmpty(tree manifest.Tree, ok bool) bool {
	return ok && len(tree) > 0
}
