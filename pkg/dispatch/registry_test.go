package dispatch

import (
	"strconv"
	"testing"

	"github.com/fsteinmetz/runlib/pkg/protocol"
	"github.com/fsteinmetz/runlib/pkg/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistryLookup(t *testing.T) {
	registry := NewRegistry()
	registry.Register("square", func(args []string) (string, error) {
		n, err := strconv.Atoi(args[0])
		if err != nil {
			return "", err
		}
		return strconv.Itoa(n * n), nil
	})

	fn, err := registry.Lookup("square")
	require.NoError(t, err)

	result, err := fn([]string{"7"})
	assert.NoError(t, err)
	assert.Equal(t, "49", result)

	_, err = registry.Lookup("cube")
	assert.ErrorIs(t, err, utils.ErrUnknownPayload)
}

func TestExecutorFunctionPayload(t *testing.T) {
	registry := NewRegistry()
	registry.Register("concat", func(args []string) (string, error) {
		return args[0] + args[1], nil
	})

	executor := NewExecutor(registry)

	result, output, err := executor.Execute(protocol.NewFunctionPayload("concat", "foo", "bar"))
	require.NoError(t, err)
	assert.Equal(t, "foobar", result)
	assert.Empty(t, output)
}

func TestExecutorUnknownFunction(t *testing.T) {
	executor := NewExecutor(NewRegistry())

	_, _, err := executor.Execute(protocol.NewFunctionPayload("missing"))
	assert.ErrorIs(t, err, utils.ErrUnknownPayload)
}

func TestExecutorUnknownKind(t *testing.T) {
	executor := NewExecutor(NewRegistry())

	_, _, err := executor.Execute(protocol.Payload{Kind: "bogus"})
	assert.ErrorIs(t, err, utils.ErrUnknownPayload)
}

func TestExecutorRecoversPanic(t *testing.T) {
	registry := NewRegistry()
	registry.Register("explode", func(args []string) (string, error) {
		panic("kaboom")
	})

	executor := NewExecutor(registry)

	_, _, err := executor.Execute(protocol.NewFunctionPayload("explode"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "kaboom")
}

func TestExecutorCommandPayload(t *testing.T) {
	executor := NewExecutor(NewRegistry())

	result, output, err := executor.Execute(protocol.NewCommandPayload("", "echo hello"))
	require.NoError(t, err)
	assert.Empty(t, result)
	assert.Contains(t, output, "hello")
}

func TestExecutorCommandFailure(t *testing.T) {
	executor := NewExecutor(NewRegistry())

	_, _, err := executor.Execute(protocol.NewCommandPayload("", "exit 3"))
	assert.Error(t, err)
}
