package docker

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openfroyo/junoctl/pkg/engine"
	"github.com/openfroyo/junoctl/pkg/runner"
	"github.com/openfroyo/junoctl/pkg/runner/runnertest"
)

func newTestClient(fake *runnertest.Fake, dryRun bool) *Client {
	return New(Options{Runner: fake, DryRun: dryRun})
}

func TestClassifyDaemonFailures(t *testing.T) {
	tests := []struct {
		name   string
		stderr string
		check  func(error) bool
	}{
		{"missing container", "Error response from daemon: No such container: app1", engine.IsNotFound},
		{"missing image", "Error: No such image: repo/app:1.0", engine.IsNotFound},
		{"missing network", "Error response from daemon: network juno_net not found", engine.IsNotFound},
		{"volume in use", "Error response from daemon: remove juno_data: volume is in use - [abc]", engine.IsInUse},
		{"image being used", "conflict: unable to delete (cannot be forced) - image is being used by running container", engine.IsInUse},
		{"network endpoints", "Error response from daemon: error while removing network: network juno_default has active endpoints", engine.IsInUse},
		{"daemon down", "Cannot connect to the Docker daemon at unix:///var/run/docker.sock", daemonUnavailable},
		{"silent failure", "", daemonUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := classify("rm", "x", &runner.Result{ExitCode: 1, Stderr: []byte(tt.stderr)}, nil)
			require.Error(t, err)
			assert.True(t, tt.check(err), "unexpected class %s", engine.ClassOf(err))
		})
	}
}

func TestClassifySuccessAndExecFailure(t *testing.T) {
	assert.NoError(t, classify("rm", "x", &runner.Result{}, nil))

	err := classify("rm", "x", &runner.Result{ExitCode: runner.ExitNotFound}, errors.New("executable file not found"))
	assert.True(t, daemonUnavailable(err))
}

func TestMutatingCallsExecute(t *testing.T) {
	fake := runnertest.New()
	c := newTestClient(fake, false)
	ctx := context.Background()

	require.NoError(t, c.StopContainer(ctx, "app1"))
	require.NoError(t, c.RemoveContainer(ctx, "app1"))
	require.NoError(t, c.RemoveImage(ctx, "repo/app:1.0"))
	require.NoError(t, c.RemoveVolume(ctx, "data"))
	require.NoError(t, c.RemoveNetwork(ctx, "net"))
	require.NoError(t, c.ComposeDown(ctx, "juno", []string{"a.yml", "b.yml"}))
	require.NoError(t, c.PruneImages(ctx))

	assert.Equal(t, []string{
		"docker stop app1",
		"docker rm app1",
		"docker rmi -f repo/app:1.0",
		"docker volume rm data",
		"docker network rm net",
		"docker compose -p juno -f a.yml -f b.yml down -v --remove-orphans",
		"docker image prune -f",
	}, fake.Calls())
	assert.Empty(t, c.Planned())
}

func TestDryRunIssuesNoMutatingCalls(t *testing.T) {
	fake := runnertest.New()
	c := newTestClient(fake, true)
	ctx := context.Background()

	require.NoError(t, c.StopContainer(ctx, "app1"))
	require.NoError(t, c.RemoveImage(ctx, "repo/app:1.0"))
	require.NoError(t, c.RemoveVolume(ctx, "juno_data"))
	require.NoError(t, c.ComposeDown(ctx, "helios", []string{"a.yml"}))
	require.NoError(t, c.PruneImages(ctx))
	code, err := c.ComposeUp(ctx, "juno", []string{"combined.yml"}, []string{"llm"}, Streams{})
	require.NoError(t, err)
	assert.Equal(t, 0, code)

	assert.Empty(t, fake.Calls())
	assert.True(t, c.DryRun())
	assert.Equal(t, []string{
		"docker stop app1",
		"docker rmi -f repo/app:1.0",
		"docker volume rm juno_data",
		"docker compose -p helios -f a.yml down -v --remove-orphans",
		"docker image prune -f",
		"docker compose -p juno -f combined.yml up --remove-orphans llm",
	}, c.Planned())
}

func TestDryRunStillRunsReadOnlyCalls(t *testing.T) {
	fake := runnertest.New().On("docker compose -p juno", runnertest.Response{Stdout: "services: {}\n"})
	c := newTestClient(fake, true)

	out, err := c.ResolveConfig(context.Background(), "juno", []string{"a.yml", "b.yml"})
	require.NoError(t, err)
	assert.Equal(t, "services: {}\n", string(out))
	assert.Equal(t, []string{"docker compose -p juno -f a.yml -f b.yml config"}, fake.Calls())
}

func TestRemoveReportsClassifiedErrors(t *testing.T) {
	fake := runnertest.New().
		On("docker volume rm data", runnertest.Response{ExitCode: 1, Stderr: "Error: No such volume: data"}).
		On("docker volume rm juno_data", runnertest.Response{ExitCode: 1, Stderr: "volume is in use"})
	c := newTestClient(fake, false)

	assert.True(t, engine.IsNotFound(c.RemoveVolume(context.Background(), "data")))
	assert.True(t, engine.IsInUse(c.RemoveVolume(context.Background(), "juno_data")))
}

func TestImageTags(t *testing.T) {
	fake := runnertest.New().On("docker images --format", runnertest.Response{
		Stdout: "repo/app:1.0\nrepo/app:latest\n<none>:<none>\n\n",
	})
	c := newTestClient(fake, false)

	tags, err := c.ImageTags(context.Background(), "repo/app")
	require.NoError(t, err)
	assert.Equal(t, []string{"repo/app:1.0", "repo/app:latest"}, tags)
	assert.Equal(t, []string{"docker images --format {{.Repository}}:{{.Tag}} repo/app"}, fake.Calls())
}

func TestImageTagsDaemonFailure(t *testing.T) {
	fake := runnertest.New().On("docker images", runnertest.Response{ExitCode: 1, Stderr: "Cannot connect to the Docker daemon"})
	c := newTestClient(fake, false)

	tags, err := c.ImageTags(context.Background(), "repo/app")
	assert.Nil(t, tags)
	assert.True(t, daemonUnavailable(err))
}

func TestList(t *testing.T) {
	fake := runnertest.New().
		On("docker ps", runnertest.Response{Stdout: "juno-llm\tUp 2 hours\t1.2kB (virtual 3.4GB)\tcom.docker.compose.project=juno\n"}).
		On("docker images", runnertest.Response{Stdout: "juno/llm:latest\tlatest\t3.4GB\n"}).
		On("docker volume ls", runnertest.Response{Stdout: "juno_data\tlocal\tcom.docker.compose.project=juno\n"}).
		On("docker network ls", runnertest.Response{Stdout: "juno_default\tbridge\n"})
	c := newTestClient(fake, true)
	ctx := context.Background()

	containers, err := c.List(ctx, engine.KindContainer)
	require.NoError(t, err)
	require.Len(t, containers, 1)
	assert.Equal(t, engine.LiveResource{
		Kind:   engine.KindContainer,
		Name:   "juno-llm",
		Status: "Up 2 hours",
		Size:   "1.2kB (virtual 3.4GB)",
		Labels: "com.docker.compose.project=juno",
	}, containers[0])

	images, err := c.List(ctx, engine.KindImage)
	require.NoError(t, err)
	assert.Equal(t, "latest", images[0].Status)
	assert.Equal(t, "3.4GB", images[0].Size)

	volumes, err := c.List(ctx, engine.KindVolume)
	require.NoError(t, err)
	assert.Equal(t, "local", volumes[0].Status)
	assert.Equal(t, "N/A", volumes[0].Size)

	networks, err := c.List(ctx, engine.KindNetwork)
	require.NoError(t, err)
	assert.Equal(t, "juno_default", networks[0].Name)
	assert.Equal(t, "bridge", networks[0].Status)
	assert.Empty(t, networks[0].Labels)

	_, err = c.List(ctx, engine.ResourceKind("pod"))
	assert.Error(t, err)
}

func TestComposeStreams(t *testing.T) {
	fake := runnertest.New().
		On("docker compose -p juno -f c.yml up", runnertest.Response{Stdout: "attached\n", ExitCode: 130})
	c := newTestClient(fake, false)

	var out bytes.Buffer
	require.NoError(t, c.ComposePull(context.Background(), "juno", []string{"c.yml"}, []string{"llm", "tts"}, Streams{Stdout: &out}))

	code, err := c.ComposeUp(context.Background(), "juno", []string{"c.yml"}, []string{"llm"}, Streams{Stdout: &out})
	require.NoError(t, err)
	assert.Equal(t, 130, code)
	assert.Equal(t, "attached\n", out.String())
	assert.Equal(t, []string{
		"docker compose -p juno -f c.yml pull --ignore-pull-failures llm tts",
		"docker compose -p juno -f c.yml up --remove-orphans llm",
	}, fake.Calls())
}

func TestComposePullFailure(t *testing.T) {
	fake := runnertest.New().On("docker compose", runnertest.Response{ExitCode: 1})
	c := newTestClient(fake, false)

	err := c.ComposePull(context.Background(), "juno", []string{"c.yml"}, nil, Streams{})
	assert.Error(t, err)
}

func writeManifest(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestFetcher(t *testing.T) {
	dir := t.TempDir()
	base := writeManifest(t, dir, "docker-compose.yml", "services: {}\n")
	overlay := writeManifest(t, dir, "docker-compose.runtime.yml", "services: {}\n")

	t.Run("available", func(t *testing.T) {
		fake := runnertest.New().On("docker compose -p helios", runnertest.Response{
			Stdout: "name: helios\nservices:\n  llm:\n    image: juno/llm:2025.10\n",
		})
		f := NewFetcher(newTestClient(fake, false), nil, nil)

		res := f.Fetch(context.Background(), base, overlay, "helios")
		tree, ok := res.Tree()
		require.True(t, ok)
		assert.Contains(t, tree.Services(), "llm")
		assert.Equal(t, []string{"docker compose -p helios -f " + base + " -f " + overlay + " config"}, fake.Calls())
	})

	t.Run("daemon failure", func(t *testing.T) {
		fake := runnertest.New().On("docker", runnertest.Response{ExitCode: 1, Stderr: "Cannot connect"})
		res := NewFetcher(newTestClient(fake, false), nil, nil).Fetch(context.Background(), base, overlay, "juno")
		assert.False(t, res.Available())
		assert.NotEmpty(t, res.Reason())
	})

	t.Run("garbage output", func(t *testing.T) {
		fake := runnertest.New().On("docker", runnertest.Response{Stdout: "- not\n- a mapping\n"})
		res := NewFetcher(newTestClient(fake, false), nil, nil).Fetch(context.Background(), base, overlay, "juno")
		assert.False(t, res.Available())
	})

	t.Run("missing file skips daemon", func(t *testing.T) {
		fake := runnertest.New()
		res := NewFetcher(newTestClient(fake, false), nil, nil).
			Fetch(context.Background(), base, filepath.Join(dir, "absent.yml"), "juno")
		assert.False(t, res.Available())
		assert.Contains(t, res.Reason(), "absent.yml")
		assert.Empty(t, fake.Calls())
	})
}

func daemonUnavailable(err error) bool {
	return engine.ClassOf(err) == engine.ErrorClassDaemonUnavailable
}
