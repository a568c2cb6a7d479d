package dispatch

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/fsteinmetz/runlib/pkg/rendezvous"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCoordinator() *Coordinator {
	store := rendezvous.NewStore(afero.NewMemMapFs(), rendezvous.DefaultPath)
	return NewCoordinator(NewJobQueue(), store, nil)
}

func TestConsoleQuitDrains(t *testing.T) {
	coordinator := newTestCoordinator()

	console := NewConsole(coordinator, strings.NewReader("q\n"))
	require.NoError(t, console.Run(context.Background()))

	assert.True(t, coordinator.Queue().Draining())
}

func TestConsoleInfoKeepsRunning(t *testing.T) {
	coordinator := newTestCoordinator()

	// Snapshot requests do not end the loop; closed input does.
	console := NewConsole(coordinator, strings.NewReader("\n\nstatus\n"))
	require.NoError(t, console.Run(context.Background()))

	assert.False(t, coordinator.Queue().Draining())
}

func TestConsoleCancelled(t *testing.T) {
	coordinator := newTestCoordinator()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	// A reader that never yields input, as stdin would.
	reader, writer := io.Pipe()
	defer writer.Close()

	console := NewConsole(coordinator, reader)
	assert.ErrorIs(t, console.Run(ctx), context.Canceled)
}
