package runner

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExecRunnerSuccess(t *testing.T) {
	if !LookPath("sh") {
		t.Skip("sh not available")
	}

	var live bytes.Buffer
	res, err := ExecRunner{}.Run(context.Background(), Command{
		Name:   "sh",
		Args:   []string{"-c", "echo hello; echo oops >&2"},
		Stdout: &live,
	})
	require.NoError(t, err)
	assert.True(t, res.OK())
	assert.Equal(t, "hello", res.StdoutString())
	assert.Equal(t, "oops", res.StderrString())
	assert.Equal(t, "hello\n", live.String())
}

func TestExecRunnerNonZeroExit(t *testing.T) {
	if !LookPath("sh") {
		t.Skip("sh not available")
	}

	res, err := ExecRunner{}.Run(context.Background(), Command{
		Name: "sh",
		Args: []string{"-c", "exit 3"},
	})
	require.NoError(t, err)
	assert.Equal(t, 3, res.ExitCode)
	assert.False(t, res.OK())
}

func TestExecRunnerMissingExecutable(t *testing.T) {
	res, err := ExecRunner{}.Run(context.Background(), Command{Name: "definitely-not-a-real-binary-junoctl"})
	require.Error(t, err)
	require.NotNil(t, res)
	assert.Equal(t, ExitNotFound, res.ExitCode)
}

func TestExecRunnerEnv(t *testing.T) {
	if !LookPath("sh") {
		t.Skip("sh not available")
	}

	res, err := ExecRunner{}.Run(context.Background(), Command{
		Name: "sh",
		Args: []string{"-c", "printf %s \"$JUNO_TEST\""},
		Env:  []string{"JUNO_TEST=value"},
	})
	require.NoError(t, err)
	assert.Equal(t, "value", res.StdoutString())
}

func TestExecRunnerRequiresName(t *testing.T) {
	_, err := ExecRunner{}.Run(context.Background(), Command{})
	assert.Error(t, err)
}

func TestCommandString(t *testing.T) {
	tests := []struct {
		name string
		cmd  Command
		want string
	}{
		{"plain", Command{Name: "docker", Args: []string{"rm", "app"}}, "docker rm app"},
		{"sudo", Command{Name: "systemctl", Args: []string{"enable", "x"}, Sudo: true}, "sudo systemctl enable x"},
		{"quoted", Command{Name: "docker", Args: []string{"ps", "--format", "{{.Names}}"}}, `docker ps --format "{{.Names}}"`},
		{"empty arg", Command{Name: "echo", Args: []string{""}}, `echo ""`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.cmd.String())
		})
	}
}

func TestFuncAdapter(t *testing.T) {
	var seen Command
	f := Func(func(_ context.Context, c Command) (*Result, error) {
		seen = c
		return &Result{ExitCode: 0}, nil
	})

	res, err := f.Run(context.Background(), Command{Name: "x"})
	require.NoError(t, err)
	assert.True(t, res.OK())
	assert.Equal(t, "x", seen.Name)
}
