package dispatch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"sync/atomic"

	"github.com/denisbrodbeck/machineid"
	"github.com/fsteinmetz/runlib/pkg/log"
	"github.com/fsteinmetz/runlib/pkg/utils"
	"github.com/google/uuid"
)

// Destination for captured job output.
// Satisfied by the joblog stash and by the gateway client.
type LogSink interface {
	Append(id string) (io.WriteCloser, error)
}

// A worker repeatedly claims and executes jobs until the queue is empty.
// Workers are independent; they coordinate only through the job queue.
type Worker struct {
	id       string
	queue    Queue
	executor *Executor
	sink     LogSink
	claimed  int64
}

func NewWorker(queue Queue, registry *Registry, sink LogSink) *Worker {
	return &Worker{
		id:       WorkerIdentity(),
		queue:    queue,
		executor: NewExecutor(registry),
		sink:     sink,
	}
}

// A stable identity for this worker process.
// Derived from the machine id so that operators can tell which host
// claimed a job; a random suffix separates workers on the same host.
func WorkerIdentity() string {
	host, err := machineid.ProtectedID("runlib")
	if err != nil {
		host, _ = os.Hostname()
	}
	if len(host) > 12 {
		host = host[:12]
	}

	id, _ := uuid.NewRandom()
	return host + "-" + id.String()[:8] + "-" + strconv.Itoa(os.Getpid())
}

func (w *Worker) Id() string {
	return w.id
}

// Number of jobs this worker has claimed.
func (w *Worker) Claimed() int {
	return int(atomic.LoadInt64(&w.claimed))
}

// Run the claim loop. Returns nil when the queue has no pending job
// left; returns an error only for unrecoverable queue access failures.
func (w *Worker) Run(ctx context.Context) error {
	log.Info("Starting worker", w.id)

	// Log uploads run off the claim loop so that a slow sink does not
	// stall job execution.
	uploads := utils.NewWorkerPool(0)
	uploads.Start()
	defer func() {
		uploads.Wait()
		uploads.Stop()
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		job, err := w.queue.Claim(w.id)
		if err != nil {
			return fmt.Errorf("claim failed: %w", err)
		}

		if job == nil {
			log.Info("No job left.")
			return nil
		}

		atomic.AddInt64(&w.claimed, 1)

		result, output, execErr := w.executor.Execute(job.Payload)

		if output != "" {
			id := job.Id
			uploads.SubmitOrRun(func() {
				w.stashOutput(id, output)
			})
		}

		if execErr != nil {
			log.Warnf("job %d failed: %v", job.Id, execErr)
			log.DebugError(execErr)
			err = w.queue.Fail(job.Id, execErr.Error())
		} else {
			err = w.queue.Complete(job.Id, result)
		}

		if err != nil {
			// A duplicate or stale report; not fatal to the loop.
			if errors.Is(err, utils.ErrUnknownJob) {
				log.Warnf("stale report for job %d: %v", job.Id, err)
				continue
			}
			return fmt.Errorf("report failed: %w", err)
		}
	}
}

func (w *Worker) stashOutput(id int64, output string) {
	if w.sink == nil {
		return
	}

	writer, err := w.sink.Append(strconv.FormatInt(id, 10))
	if err != nil {
		log.Debugf("unable to stash output of job %d: %v", id, err)
		return
	}

	if _, err := io.WriteString(writer, output); err != nil {
		log.Debugf("unable to stash output of job %d: %v", id, err)
	}

	if err := writer.Close(); err != nil {
		log.Debugf("unable to stash output of job %d: %v", id, err)
	}
}
