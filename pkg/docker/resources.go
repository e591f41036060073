package docker

import (
	"context"
	"fmt"
	"strings"

	"github.com/openfroyo/junoctl/pkg/engine"
)

// Listing templates. Fields are tab separated.
const (
	containerFormat = "{{.Names}}\t{{.Status}}\t{{.Size}}\t{{.Labels}}"
	imageFormat     = "{{.Repository}}:{{.Tag}}\t{{.Tag}}\t{{.Size}}"
	volumeFormat    = "{{.Name}}\t{{.Driver}}\t{{.Labels}}"
	networkFormat   = "{{.Name}}\t{{.Driver}}\t{{.Labels}}"
	tagFormat       = "{{.Repository}}:{{.Tag}}"
)

// untagged is how docker renders a dangling image reference.
const untagged = "<none>:<none>"

// noSize is reported for kinds the daemon does not size.
const noSize = "N/A"

// StopContainer runs docker stop.
func (c *Client) StopContainer(ctx context.Context, name string) error {
	return c.mutate(ctx, "container.stop", name, "stop", name)
}

// RemoveContainer runs docker rm.
func (c *Client) RemoveContainer(ctx context.Context, name string) error {
	return c.mutate(ctx, "container.rm", name, "rm", name)
}

// RemoveImage force-removes an image reference.
func (c *Client) RemoveImage(ctx context.Context, ref string) error {
	return c.mutate(ctx, "image.rm", ref, "rmi", "-f", ref)
}

// RemoveVolume runs docker volume rm.
func (c *Client) RemoveVolume(ctx context.Context, name string) error {
	return c.mutate(ctx, "volume.rm", name, "volume", "rm", name)
}

// RemoveNetwork runs docker network rm.
func (c *Client) RemoveNetwork(ctx context.Context, name string) error {
	return c.mutate(ctx, "network.rm", name, "network", "rm", name)
}

// PruneImages removes dangling images.
func (c *Client) PruneImages(ctx context.Context) error {
	return c.mutate(ctx, "image.prune", "", "image", "prune", "-f")
}

// ImageTags lists every local repository:tag for repo, skipping dangling
// entries.
func (c *Client) ImageTags(ctx context.Context, repo string) ([]string, error) {
	res, err := c.query(ctx, "image.tags", repo, "images", "--format", tagFormat, repo)
	if err != nil {
		return nil, err
	}

	var tags []string
	for _, line := range lines(res.Stdout) {
		if line == untagged {
			continue
		}
		tags = append(tags, line)
	}
	return tags, nil
}

// List returns the live resources of kind.
func (c *Client) List(ctx context.Context, kind engine.ResourceKind) ([]engine.LiveResource, error) {
	var args []string
	switch kind {
	case engine.KindContainer:
		args = []string{"ps", "-a", "-s", "--format", containerFormat}
	case engine.KindImage:
		args = []string{"images", "--format", imageFormat}
	case engine.KindVolume:
		args = []string{"volume", "ls", "--format", volumeFormat}
	case engine.KindNetwork:
		args = []string{"network", "ls", "--format", networkFormat}
	default:
		return nil, fmt.Errorf("cannot list %q", kind)
	}

	res, err := c.query(ctx, string(kind)+".ls", "", args...)
	if err != nil {
		return nil, err
	}

	var out []engine.LiveResource
	for _, line := range lines(res.Stdout) {
		out = append(out, parseRow(kind, line))
	}
	return out, nil
}

// parseRow decodes one tab-separated listing row. Missing trailing fields
// are left empty.
func parseRow(kind engine.ResourceKind, line string) engine.LiveResource {
	fields := strings.Split(line, "\t")
	field := func(i int) string {
		if i < len(fields) {
			return strings.TrimSpace(fields[i])
		}
		return ""
	}

	r := engine.LiveResource{Kind: kind, Name: field(0)}
	switch kind {
	case engine.KindContainer:
		r.Status, r.Size, r.Labels = field(1), field(2), field(3)
	case engine.KindImage:
		r.Status, r.Size = field(1), field(2)
	default:
		r.Status, r.Labels, r.Size = field(1), field(2), noSize
	}
	return r
}

func lines(out []byte) []string {
	var result []string
	for _, line := range strings.Split(string(out), "\n") {
		line = strings.TrimRight(line, "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		result = append(result, line)
	}
	return result
}
