package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunShellOutput(t *testing.T) {
	output, err := RunShellOutput("", "echo hello")
	assert.NoError(t, err)
	assert.Equal(t, "hello\n", output)
}

func TestRunShellOutputCwd(t *testing.T) {
	output, err := RunShellOutput("/tmp", "pwd")
	assert.NoError(t, err)
	assert.Contains(t, output, "/tmp")
}

func TestRunShellOutputFailure(t *testing.T) {
	output, err := RunShellOutput("", "echo oops; exit 1")
	require.Error(t, err)
	assert.Contains(t, output, "oops")

	detailed, ok := err.(DetailedError)
	require.True(t, ok)
	assert.Contains(t, detailed.Details(), "oops")
}

func TestRunOutputCapturesStderr(t *testing.T) {
	output, err := RunOutput("", "/bin/sh", "-c", "echo to-stderr 1>&2")
	assert.NoError(t, err)
	assert.Contains(t, output, "to-stderr")
}
