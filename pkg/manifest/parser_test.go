package manifest

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const baseManifest = `
x-defaults: &defaults
  restart: unless-stopped
  image: repo/base:1.0

services:
  app:
    container_name: app1
    image: repo/app:1.0
    build:
      context: .
      cache_from:
        - repo/app:cache
  worker:
    <<: *defaults
    container_name: worker1
volumes:
  data: {}
networks:
  backend:
    driver: bridge
`

func TestParseBuildsTree(t *testing.T) {
	tree, err := NewComposeParser().Parse([]byte(baseManifest), "base")
	require.NoError(t, err)

	services := tree.Services()
	require.Len(t, services, 2)

	name, ok := String(services["app"], "container_name")
	assert.True(t, ok)
	assert.Equal(t, "app1", name)
	assert.Equal(t, []string{"repo/app:cache"}, Strings(services["app"], "build", "cache_from"))

	assert.Equal(t, []string{"data"}, tree.Keys(SectionVolumes))
	assert.Equal(t, []string{"backend"}, tree.Keys(SectionNetworks))
}

func TestParseResolvesMergeKeys(t *testing.T) {
	tree, err := NewComposeParser().Parse([]byte(baseManifest), "base")
	require.NoError(t, err)

	worker := tree.Services()["worker"]
	image, ok := String(worker, "image")
	assert.True(t, ok)
	assert.Equal(t, "repo/base:1.0", image)

	restart, _ := String(worker, "restart")
	assert.Equal(t, "unless-stopped", restart)
}

func TestParseExplicitKeyWinsOverMerge(t *testing.T) {
	src := `
base: &b
  image: one
services:
  svc:
    <<: *b
    image: two
`
	tree, err := NewComposeParser().Parse([]byte(src), "inline")
	require.NoError(t, err)

	image, _ := String(tree.Services()["svc"], "image")
	assert.Equal(t, "two", image)
}

func TestParseDirectives(t *testing.T) {
	src := `
services:
  llm:
    image: !override repo/llm:2.0
    ports: !reset []
    command: !override ["serve", "--fast"]
    environment: !reset
volumes:
  cache: !reset {}
`
	tree, err := NewComposeParser().Parse([]byte(src), "runtime")
	require.NoError(t, err)

	llm := tree.Services()["llm"]
	image, ok := String(llm, "image")
	assert.True(t, ok)
	assert.Equal(t, "repo/llm:2.0", image)

	ports, ok := Lookup(llm, "ports")
	assert.True(t, ok)
	assert.Nil(t, ports)

	assert.Equal(t, []string{"serve", "--fast"}, Strings(llm, "command"))

	env, ok := Lookup(llm, "environment")
	assert.True(t, ok)
	assert.Nil(t, env)

	cache, ok := tree.Section(SectionVolumes)["cache"]
	assert.True(t, ok)
	assert.Nil(t, cache)
}

func TestParserWithoutDirectivesKeepsLiterals(t *testing.T) {
	src := `
services:
  app:
    image: !override repo/app:3
`
	tree, err := NewParser().Parse([]byte(src), "inline")
	require.NoError(t, err)

	image, ok := String(tree.Services()["app"], "image")
	assert.True(t, ok)
	assert.Equal(t, "repo/app:3", image)
}

func TestParserInstancesAreIndependent(t *testing.T) {
	custom := NewParser(WithDirective("!secret", func(any) any { return "redacted" }))
	plain := NewComposeParser()

	src := []byte("password: !secret hunter2\n")

	got, err := custom.Parse(src, "a")
	require.NoError(t, err)
	assert.Equal(t, "redacted", got["password"])

	got, err = plain.Parse(src, "b")
	require.NoError(t, err)
	assert.Equal(t, "hunter2", got["password"])
}

func TestParseEmptyDocument(t *testing.T) {
	for _, src := range []string{"", "\n", "~\n", "# only a comment\n"} {
		tree, err := NewComposeParser().Parse([]byte(src), "empty")
		require.NoError(t, err, "source %q", src)
		assert.Empty(t, tree)
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{name: "syntax error", src: "services:\n  app: [unclosed\n"},
		{name: "sequence root", src: "- a\n- b\n"},
		{name: "scalar root", src: "just text\n"},
		{name: "bad merge", src: "a:\n  <<: 3\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewComposeParser().Parse([]byte(tt.src), "bad")
			require.Error(t, err)
			assert.True(t, IsParseError(err))
		})
	}
}

func TestParseFile(t *testing.T) {
	dir := t.TempDir()

	t.Run("missing file", func(t *testing.T) {
		_, err := NewComposeParser().ParseFile(filepath.Join(dir, "nope.yml"))
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrNotFound))
		assert.False(t, IsParseError(err))
	})

	t.Run("valid file", func(t *testing.T) {
		path := filepath.Join(dir, "docker-compose.yml")
		require.NoError(t, os.WriteFile(path, []byte(baseManifest), 0o644))

		tree, err := NewComposeParser().ParseFile(path)
		require.NoError(t, err)
		assert.Len(t, tree.Services(), 2)
	})

	t.Run("broken file", func(t *testing.T) {
		path := filepath.Join(dir, "broken.yml")
		require.NoError(t, os.WriteFile(path, []byte("services: [\n"), 0o644))

		_, err := NewComposeParser().ParseFile(path)
		require.Error(t, err)
		assert.True(t, IsParseError(err))
	})
}

func TestLookupHelpers(t *testing.T) {
	svc := map[string]any{
		"image":     "",
		"build":     "just-a-path",
		"cache":     []any{"a", 3, "", true, "b"},
		"container": 42,
		"flag":      true,
	}

	_, ok := String(svc, "image")
	assert.False(t, ok, "empty string is not a value")

	name, ok := String(svc, "container")
	assert.True(t, ok)
	assert.Equal(t, "42", name)

	_, ok = String(svc, "flag")
	assert.False(t, ok, "booleans are not identifiers")

	_, ok = String(svc, "build", "context")
	assert.False(t, ok)

	assert.Nil(t, Strings(svc, "build", "cache_from"))
	assert.Equal(t, []string{"a", "3", "b"}, Strings(svc, "cache"))

	var nilTree Tree
	assert.Nil(t, nilTree.Services())
	assert.Empty(t, nilTree.Keys(SectionVolumes))
}

func TestParseRejectsRecursiveAlias(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"self reference", "services:\n  app: &a\n    image: repo/app\n    extra: *a\n"},
		{"merge into itself", "x: &a\n  image: repo/app\n  <<: *a\n"},
		{"sequence", "list: &l [a, *l]\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewComposeParser().Parse([]byte(tt.doc), "recursive.yml")
			require.Error(t, err)
			assert.True(t, IsParseError(err))
			assert.ErrorIs(t, err, errAliasCycle)
		})
	}
}

func TestParseRepeatedAliasIsNotACycle(t *testing.T) {
	doc := "x: &img repo/app\nservices:\n  a:\n    image: *img\n  b:\n    image: *img\n"
	tree, err := NewComposeParser().Parse([]byte(doc), "shared.yml")
	require.NoError(t, err)

	image, ok := String(tree.Services()["b"], "image")
	assert.True(t, ok)
	assert.Equal(t, "repo/app", image)
}

func TestParseBoundsAliasExpansion(t *testing.T) {
	doc := `a: &a ["x","x","x","x","x","x","x","x","x","x"]
b: &b [*a,*a,*a,*a,*a,*a,*a,*a,*a,*a]
c: &c [*b,*b,*b,*b,*b,*b,*b,*b,*b,*b]
d: &d [*c,*c,*c,*c,*c,*c,*c,*c,*c,*c]
e: &e [*d,*d,*d,*d,*d,*d,*d,*d,*d,*d]
f: &f [*e,*e,*e,*e,*e,*e,*e,*e,*e,*e]
g: &g [*f,*f,*f,*f,*f,*f,*f,*f,*f,*f]
h: &h [*g,*g,*g,*g,*g,*g,*g,*g,*g,*g]
i: &i [*h,*h,*h,*h,*h,*h,*h,*h,*h,*h]
`
	_, err := NewComposeParser().Parse([]byte(doc), "bomb.yml")
	require.Error(t, err)
	assert.True(t, IsParseError(err))
	assert.ErrorIs(t, err, errTooLarge)
}
