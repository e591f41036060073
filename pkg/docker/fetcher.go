package docker

import (
	"context"
	"fmt"
	"os"

	"github.com/openfroyo/junoctl/pkg/engine"
	"github.com/openfroyo/junoctl/pkg/manifest"
	"github.com/openfroyo/junoctl/pkg/telemetry"
)

// Fetcher obtains the daemon's merged view of the base and overlay
// manifests under one project. It never fails: any problem yields an
// unavailable resolution and a logged warning.
type Fetcher struct {
	resolver engine.ConfigResolver
	parser   *manifest.Parser
	logger   *telemetry.Logger
}

// NewFetcher creates a fetcher. A nil parser defaults to the compose
// parser.
func NewFetcher(resolver engine.ConfigResolver, parser *manifest.Parser, logger *telemetry.Logger) *Fetcher {
	if parser == nil {
		parser = manifest.NewComposeParser()
	}
	if logger == nil {
		logger = telemetry.NewNopLogger()
	}
	return &Fetcher{
		resolver: resolver,
		parser:   parser,
		logger:   logger.NewComponentLogger("fetcher"),
	}
}

// Fetch resolves base layered with overlay under project. Both files must
// exist; otherwise the daemon is not invoked.
func (f *Fetcher) Fetch(ctx context.Context, base, overlay, project string) engine.Resolution {
	for _, path := range []string{base, overlay} {
		if _, err := os.Stat(path); err != nil {
			return engine.Unavailable(fmt.Sprintf("manifest missing: %s", path))
		}
	}

	log := f.logger.WithProject(project)
	log.Infof("Getting merged config for project '%s'", project)

	out, err := f.resolver.ResolveConfig(ctx, project, []string{base, overlay})
	if err != nil {
		log.WithError(err).Warnf("Could not get merged config for project '%s'", project)
		return engine.Unavailable(err.Error())
	}

	tree, err := f.parser.Parse(out, "compose config -p "+project)
	if err != nil {
		log.WithError(err).Warnf("Could not parse merged config for project '%s'", project)
		return engine.Unavailable(err.Error())
	}
	return engine.Resolved(tree)
}
