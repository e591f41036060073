package report

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openfroyo/junoctl/pkg/engine"
)

type fakeLister struct {
	rows  map[engine.ResourceKind][]engine.LiveResource
	fail  map[engine.ResourceKind]error
	calls []engine.ResourceKind
}

func (f *fakeLister) List(_ context.Context, kind engine.ResourceKind) ([]engine.LiveResource, error) {
	f.calls = append(f.calls, kind)
	if err := f.fail[kind]; err != nil {
		return nil, err
	}
	return f.rows[kind], nil
}

func liveState() *fakeLister {
	return &fakeLister{rows: map[engine.ResourceKind][]engine.LiveResource{
		engine.KindContainer: {
			{Kind: engine.KindContainer, Name: "juno-llm", Status: "Up 2 hours", Size: "1.5KB (virtual 3.4GB)"},
			{Kind: engine.KindContainer, Name: "postgres", Status: "Up", Size: "10MB"},
			{Kind: engine.KindContainer, Name: "web_1", Status: "Exited (0)", Size: "512B", Labels: "com.docker.compose.project=Helios"},
		},
		engine.KindImage: {
			{Kind: engine.KindImage, Name: "JUNO/tts:latest", Status: "latest", Size: "1.5GB"},
			{Kind: engine.KindImage, Name: "alpine:3.20", Status: "3.20", Size: "7.8MB"},
		},
		engine.KindVolume: {
			{Kind: engine.KindVolume, Name: "juno_data", Status: "local", Size: "N/A"},
		},
	}}
}

func TestReportFiltersByPattern(t *testing.T) {
	lister := liveState()
	summary := NewReporter(lister, []string{"juno", "helios"}, nil, nil).Report(context.Background())

	assert.Equal(t, engine.AllKinds, lister.calls)

	require.Equal(t, 2, summary.Count(engine.KindContainer))
	assert.Equal(t, "juno-llm", summary.Leftovers[engine.KindContainer][0].ID)
	assert.Equal(t, "Up 2 hours", summary.Leftovers[engine.KindContainer][0].Status)
	assert.Equal(t, "web_1", summary.Leftovers[engine.KindContainer][1].ID, "label match")
	assert.Equal(t, uint64(1536+512), summary.Bytes[engine.KindContainer])

	require.Equal(t, 1, summary.Count(engine.KindImage))
	assert.Equal(t, "latest", summary.Leftovers[engine.KindImage][0].Status)
	assert.Equal(t, uint64(1610612736), summary.Bytes[engine.KindImage])

	assert.Equal(t, 1, summary.Count(engine.KindVolume))
	assert.Zero(t, summary.Bytes[engine.KindVolume])
	assert.Zero(t, summary.Count(engine.KindNetwork))
	assert.False(t, summary.Clean())
}

func TestReportCleanState(t *testing.T) {
	lister := &fakeLister{rows: map[engine.ResourceKind][]engine.LiveResource{
		engine.KindImage: {{Kind: engine.KindImage, Name: "alpine:3.20", Size: "7.8MB"}},
	}}
	summary := NewReporter(lister, []string{"juno"}, nil, nil).Report(context.Background())
	assert.True(t, summary.Clean())
}

func TestReportToleratesListingFailure(t *testing.T) {
	lister := liveState()
	lister.fail = map[engine.ResourceKind]error{
		engine.KindImage: engine.NewDaemonUnavailableError("docker exited nonzero", errors.New("Cannot connect")),
	}
	summary := NewReporter(lister, []string{"juno"}, nil, nil).Report(context.Background())

	assert.Contains(t, summary.Unavailable, engine.KindImage)
	assert.Zero(t, summary.Count(engine.KindImage))
	assert.Equal(t, 1, summary.Count(engine.KindContainer))
	assert.False(t, summary.Clean())
}

func TestReportIgnoresUnparseableSizes(t *testing.T) {
	lister := &fakeLister{rows: map[engine.ResourceKind][]engine.LiveResource{
		engine.KindContainer: {
			{Kind: engine.KindContainer, Name: "juno-a", Size: "weird"},
			{Kind: engine.KindContainer, Name: "juno-b", Size: "1KB"},
		},
	}}
	summary := NewReporter(lister, []string{"juno"}, nil, nil).Report(context.Background())
	assert.Equal(t, 2, summary.Count(engine.KindContainer))
	assert.Equal(t, uint64(1024), summary.Bytes[engine.KindContainer])
}

func TestMatchesIgnoresBlankPatterns(t *testing.T) {
	r := NewReporter(&fakeLister{}, []string{"", "  "}, nil, nil)
	assert.False(t, r.Matches(engine.LiveResource{Name: "anything"}))
}

func TestRender(t *testing.T) {
	summary := NewReporter(liveState(), []string{"juno"}, nil, nil).Report(context.Background())

	var buf bytes.Buffer
	require.NoError(t, Render(&buf, summary))

	out := buf.String()
	assert.Contains(t, out, "containers: 1 (1.50KB)")
	assert.Contains(t, out, "images:     1 (1.50GB)")
	assert.Contains(t, out, "networks:   0 (0.00B)")
	assert.Contains(t, out, "juno_data")
	assert.Contains(t, out, "3 leftover resources remain.")
}

func TestRenderClean(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Render(&buf, engine.NewSummary()))
	assert.Contains(t, buf.String(), "No leftover resources found.")
}
