package dispatch

import (
	"bufio"
	"context"
	"io"
	"strings"
	"time"

	"github.com/fsteinmetz/runlib/pkg/log"
)

// Interactive control loop of the coordinator process.
// Runs concurrently with gateway serving and shares only the queue's
// synchronized state with it. An empty line prints the current
// snapshot; 'q' triggers drain-and-shutdown.
type Console struct {
	coordinator *Coordinator
	in          io.Reader
}

func NewConsole(coordinator *Coordinator, in io.Reader) *Console {
	return &Console{
		coordinator: coordinator,
		in:          in,
	}
}

func (con *Console) Run(ctx context.Context) error {
	log.Info("(q) quit (other) info")

	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(con.in)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case line, ok := <-lines:
			if !ok {
				// Input closed; keep serving without a console.
				return nil
			}

			if strings.TrimSpace(line) == "q" {
				log.Info("Drain requested")
				con.coordinator.Drain()
				return nil
			}

			con.printSnapshot()
		}
	}
}

func (con *Console) printSnapshot() {
	snapshot, err := con.coordinator.Queue().Snapshot()
	if err != nil {
		log.Error(err)
		return
	}

	elapsed := con.coordinator.Elapsed().Round(time.Second)

	eta := "N/A"
	if snapshot.Done+snapshot.Failed > 0 {
		done := snapshot.Done + snapshot.Failed
		left := time.Duration(snapshot.Pending) * elapsed / time.Duration(done)
		eta = left.Round(time.Second).String()
	}

	log.Infof("%d jobs left, %d in progress, %d done, %d failed, elapsed=%s, ETA=%s",
		snapshot.Pending, snapshot.Claimed, snapshot.Done, snapshot.Failed, elapsed, eta)
}
