// Package reconcile drives idempotent teardown of a deployment's resources
// against the container daemon.
package reconcile

import (
	"context"
	"fmt"
	"strings"

	"github.com/openfroyo/junoctl/pkg/engine"
	"github.com/openfroyo/junoctl/pkg/telemetry"
)

// Options configures a Cleaner.
type Options struct {
	// Projects are the known project names used for prefixed name variants
	// and compose teardown.
	Projects []string

	// Files are the manifests passed to compose down, in layering order.
	Files []string

	Logger  *telemetry.Logger
	Metrics *telemetry.Metrics
}

// Resource operations.
const (
	opStop   = "stop"
	opRemove = "remove"
)

// Stats counts removal attempts by outcome.
type Stats struct {
	Attempted int `json:"attempted"`
	Removed   int `json:"removed"`
	Missing   int `json:"missing"`
	InUse     int `json:"in_use"`
	Failed    int `json:"failed"`
	Planned   int `json:"planned"`
}

func (s *Stats) add(o engine.Outcome) {
	s.Attempted++
	switch o {
	case engine.OutcomeDone:
		s.Removed++
	case engine.OutcomeMissing:
		s.Missing++
	case engine.OutcomeInUse:
		s.InUse++
	case engine.OutcomePlanned:
		s.Planned++
	default:
		s.Failed++
	}
}

// Report summarizes one cleanup pass.
type Report struct {
	Kinds    map[engine.ResourceKind]*Stats `json:"kinds"`
	Projects Stats                          `json:"projects"`
}

func newReport() *Report {
	r := &Report{Kinds: make(map[engine.ResourceKind]*Stats, len(engine.AllKinds))}
	for _, kind := range engine.AllKinds {
		r.Kinds[kind] = &Stats{}
	}
	return r
}

// Cleaner removes the resources of a ResourceSet. Every call is
// speculative: a resource that is already gone or still in use is the
// expected steady state, so no failure ever aborts the pass.
type Cleaner struct {
	remover  engine.Remover
	projects []string
	files    []string
	logger   *telemetry.Logger
	metrics  *telemetry.Metrics
}

// NewCleaner creates a cleaner driving remover.
func NewCleaner(remover engine.Remover, opts Options) *Cleaner {
	logger := opts.Logger
	if logger == nil {
		logger = telemetry.NewNopLogger()
	}
	return &Cleaner{
		remover:  remover,
		projects: opts.Projects,
		files:    opts.Files,
		logger:   logger.NewComponentLogger("cleaner"),
		metrics:  opts.Metrics,
	}
}

// Cleanup removes containers, images, volumes and networks in that order,
// then tears down every known compose project.
func (c *Cleaner) Cleanup(ctx context.Context, set *engine.ResourceSet) *Report {
	report := newReport()

	c.CleanContainers(ctx, set.Items(engine.KindContainer), report.Kinds[engine.KindContainer])
	c.CleanImages(ctx, set.Items(engine.KindImage), report.Kinds[engine.KindImage])
	c.CleanVolumes(ctx, set.Items(engine.KindVolume), report.Kinds[engine.KindVolume])
	c.CleanNetworks(ctx, set.Items(engine.KindNetwork), report.Kinds[engine.KindNetwork])
	c.CleanComposeProjects(ctx, &report.Projects)

	return report
}

// CleanContainers stops then removes each container. Removal is attempted
// whether or not the stop succeeded.
func (c *Cleaner) CleanContainers(ctx context.Context, containers []string, stats *Stats) {
	if len(containers) == 0 {
		c.logger.Info("No containers to clean")
		return
	}

	c.logger.Infof("Cleaning %d containers...", len(containers))
	for _, name := range containers {
		c.logger.Infof("  Stopping container: %s", name)
		c.observe(ctx, opStop, engine.KindContainer, name, c.remover.StopContainer(ctx, name))

		c.logger.Infof("  Removing container: %s", name)
		stats.add(c.observe(ctx, opRemove, engine.KindContainer, name, c.remover.RemoveContainer(ctx, name)))
	}
}

// CleanImages force-removes each image reference, then every local tag of
// its bare repository. Tag enumeration is read-only and only feeds further
// removals, so it is skipped in dry-run mode.
func (c *Cleaner) CleanImages(ctx context.Context, images []string, stats *Stats) {
	if len(images) == 0 {
		c.logger.Info("No images to clean")
		return
	}

	c.logger.Infof("Cleaning %d images...", len(images))
	for _, ref := range images {
		c.logger.Infof("  Removing image: %s", ref)
		stats.add(c.observe(ctx, opRemove, engine.KindImage, ref, c.remover.RemoveImage(ctx, ref)))

		repo := Repository(ref)
		c.logger.Infof("  Removing all tags for: %s", repo)
		if c.remover.DryRun() {
			continue
		}

		tags, err := c.remover.ImageTags(ctx, repo)
		if err != nil {
			c.logger.WithError(err).Warnf("  Could not list tags for %s", repo)
			c.metrics.RecordError(string(engine.ClassOf(err)))
			continue
		}
		for _, tag := range tags {
			stats.add(c.observe(ctx, opRemove, engine.KindImage, tag, c.remover.RemoveImage(ctx, tag)))
		}
	}
}

// CleanVolumes removes each volume by its bare name and by every
// project-prefixed variant.
func (c *Cleaner) CleanVolumes(ctx context.Context, volumes []string, stats *Stats) {
	if len(volumes) == 0 {
		c.logger.Info("No volumes to clean")
		return
	}

	c.logger.Infof("Cleaning %d volumes...", len(volumes))
	for _, volume := range volumes {
		for _, name := range c.variants(volume) {
			c.logger.Infof("  Removing volume: %s", name)
			stats.add(c.observe(ctx, opRemove, engine.KindVolume, name, c.remover.RemoveVolume(ctx, name)))
		}
	}
}

// CleanNetworks removes each network by its bare name and by every
// project-prefixed variant.
func (c *Cleaner) CleanNetworks(ctx context.Context, networks []string, stats *Stats) {
	if len(networks) == 0 {
		c.logger.Info("No networks to clean")
		return
	}

	c.logger.Infof("Cleaning %d networks...", len(networks))
	for _, network := range networks {
		for _, name := range c.variants(network) {
			c.logger.Infof("  Removing network: %s", name)
			stats.add(c.observe(ctx, opRemove, engine.KindNetwork, name, c.remover.RemoveNetwork(ctx, name)))
		}
	}
}

// CleanComposeProjects runs compose down for every known project.
func (c *Cleaner) CleanComposeProjects(ctx context.Context, stats *Stats) {
	if len(c.files) == 0 {
		c.logger.Info("No compose files; skipping compose down")
		return
	}

	c.logger.Info("Running docker compose down for each project...")
	for _, project := range c.projects {
		c.logger.Infof("  Cleaning compose project: %s", project)
		err := c.remover.ComposeDown(ctx, project, c.files)
		o := engine.OutcomeOf(err, c.remover.DryRun())
		stats.add(o)
		if o == engine.OutcomeFailed {
			c.logger.WithProject(project).WithError(err).Warn("  compose down failed")
			c.metrics.RecordError(string(engine.ClassOf(err)))
		}
	}
}

// variants returns name followed by "{project}_{name}" for every project.
func (c *Cleaner) variants(name string) []string {
	out := make([]string, 0, len(c.projects)+1)
	out = append(out, name)
	for _, project := range c.projects {
		out = append(out, fmt.Sprintf("%s_%s", project, name))
	}
	return out
}

// observe logs and counts the outcome of one mutation.
func (c *Cleaner) observe(ctx context.Context, op string, kind engine.ResourceKind, id string, err error) engine.Outcome {
	o := engine.OutcomeOf(err, c.remover.DryRun())
	c.metrics.RecordResourceOperation(op, string(kind), string(o))
	telemetry.AddResourceEvent(telemetry.SpanFromContext(ctx), op, string(kind), id, string(o))

	log := c.logger.WithResource(string(kind), id)
	switch o {
	case engine.OutcomeMissing, engine.OutcomeInUse:
		log.WithError(err).Debugf("    %s", o)
	case engine.OutcomeFailed:
		log.WithError(err).Warnf("    %s failed", op)
		c.metrics.RecordError(string(engine.ClassOf(err)))
	}
	return o
}

// Repository returns the text of ref before its first colon.
func Repository(ref string) string {
	repo, _, _ := strings.Cut(ref, ":")
	return repo
}
