package engine

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openfroyo/junoctl/pkg/manifest"
)

func TestResourceSetAdd(t *testing.T) {
	var set ResourceSet

	assert.True(t, set.Add(KindVolume, ProvenanceIndependent, "data"))
	assert.False(t, set.Add(KindVolume, ProvenanceMerged, "data"), "second add is not new to the union")
	assert.True(t, set.Add(KindVolume, ProvenanceMerged, "juno_data"))

	assert.Equal(t, []string{"data", "juno_data"}, set.Items(KindVolume))
	assert.Equal(t, 2, set.Count(KindVolume))
	assert.Equal(t, 1, set.CountBy(KindVolume, ProvenanceIndependent))
	assert.Equal(t, 2, set.CountBy(KindVolume, ProvenanceMerged))
	assert.Equal(t, []string{"data"}, set.From(KindVolume, ProvenanceIndependent))
}

func TestResourceSetIgnoresInvalidInput(t *testing.T) {
	set := NewResourceSet()

	assert.False(t, set.Add(KindImage, ProvenanceIndependent, ""))
	assert.False(t, set.Add(ResourceKind("pod"), ProvenanceIndependent, "x"))
	assert.False(t, set.Add(KindImage, Provenance("guess"), "x"))
	assert.Equal(t, 0, set.Len())
}

func TestResourceSetIsCaseSensitive(t *testing.T) {
	set := NewResourceSet()
	set.Add(KindContainer, ProvenanceIndependent, "App")
	set.Add(KindContainer, ProvenanceIndependent, "app")

	assert.Equal(t, []string{"App", "app"}, set.Items(KindContainer))
	assert.False(t, set.Add(KindContainer, ProvenanceMerged, "App"))
}

func TestResourceSetItemsReturnsCopy(t *testing.T) {
	set := NewResourceSet()
	set.Add(KindNetwork, ProvenanceIndependent, "net")

	items := set.Items(KindNetwork)
	items[0] = "mutated"

	assert.Equal(t, []string{"net"}, set.Items(KindNetwork))
}

func TestResourceSetEmptyKinds(t *testing.T) {
	set := NewResourceSet()

	for _, kind := range AllKinds {
		assert.NotNil(t, set.Items(kind))
		assert.Empty(t, set.Items(kind))
		assert.Empty(t, set.From(kind, ProvenanceMerged))
		assert.Equal(t, 0, set.CountBy(kind, ProvenanceMerged))
	}
}

func TestResolution(t *testing.T) {
	t.Run("available", func(t *testing.T) {
		r := Resolved(manifest.Tree{"services": map[string]any{}})
		tree, ok := r.Tree()
		require.True(t, ok)
		assert.True(t, r.Available())
		assert.Contains(t, tree, "services")
		assert.Empty(t, r.Reason())
	})

	t.Run("available with nil tree", func(t *testing.T) {
		tree, ok := Resolved(nil).Tree()
		require.True(t, ok)
		assert.NotNil(t, tree)
	})

	t.Run("unavailable", func(t *testing.T) {
		r := Unavailable("daemon not running")
		tree, ok := r.Tree()
		assert.False(t, ok)
		assert.Nil(t, tree)
		assert.Equal(t, "daemon not running", r.Reason())
	})
}

func TestSummary(t *testing.T) {
	s := NewSummary()
	assert.True(t, s.Clean())

	s.Leftovers[KindImage] = append(s.Leftovers[KindImage], LeftoverRecord{Kind: KindImage, ID: "juno/llm:latest"})
	assert.Equal(t, 1, s.Count(KindImage))
	assert.Equal(t, 1, s.Total())
	assert.False(t, s.Clean())

	s = NewSummary()
	s.Unavailable[KindVolume] = "daemon unavailable"
	assert.False(t, s.Clean())
}

func TestResourceKind(t *testing.T) {
	assert.Equal(t, "containers", KindContainer.Plural())
	assert.NoError(t, KindNetwork.Validate())
	assert.Error(t, ResourceKind("").Validate())
}

func TestOutcomeOf(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		dryRun bool
		want   Outcome
	}{
		{"success", nil, false, OutcomeDone},
		{"dry run", nil, true, OutcomePlanned},
		{"not found", NewNotFoundError("no such volume", nil), false, OutcomeMissing},
		{"in use", NewInUseError("volume is in use", nil), false, OutcomeInUse},
		{"daemon", NewDaemonUnavailableError("cannot connect", nil), false, OutcomeFailed},
		{"plain", errors.New("boom"), false, OutcomeFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, OutcomeOf(tt.err, tt.dryRun))
		})
	}
}

func TestEngineErrorClassification(t *testing.T) {
	base := errors.New("exit status 1")
	err := NewNotFoundError("no such container", base).
		WithResource("app1").
		WithOperation("rm").
		WithCode(ErrCodeNotFound)

	assert.Equal(t, "[resource_not_found] no such container (resource=app1, operation=rm): exit status 1", err.Error())
	assert.ErrorIs(t, err, base)
	assert.True(t, errors.Is(err, &EngineError{Class: ErrorClassResourceNotFound, Code: ErrCodeNotFound}))
	assert.True(t, IsNotFound(err))
	assert.Equal(t, ErrorClassResourceNotFound, ClassOf(err))

	wrapped := errors.Join(errors.New("context"), NewInUseError("busy", nil))
	assert.True(t, IsInUse(wrapped))
	assert.Equal(t, ErrorClass(""), ClassOf(base))
}
