package dispatch

import (
	"sync"

	"github.com/fsteinmetz/runlib/pkg/log"
	"github.com/fsteinmetz/runlib/pkg/protocol"
	"github.com/fsteinmetz/runlib/pkg/utils"
)

// The queue operations available to a worker.
// Implemented by the in-process JobQueue and by the gateway client.
type Queue interface {
	// Claim the head pending job. Returns (nil, nil) when no pending
	// job exists; this is the normal empty signal, not an error.
	Claim(worker string) (*protocol.Job, error)

	// Transition a claimed job to done.
	Complete(id int64, result string) error

	// Transition a claimed job to failed.
	Fail(id int64, reason string) error

	// Per-status job counts at a consistent instant.
	Snapshot() (protocol.Snapshot, error)
}

// The single source of truth for job state.
// One mutex serializes all transitions; in particular no two concurrent
// Claim calls can return the same job.
type JobQueue struct {
	mu sync.Mutex

	// Map of job id to job.
	jobs map[int64]*protocol.Job

	// Pending job ids in enqueue order.
	pending []int64

	// Number of jobs currently claimed.
	claimed int

	// Next id to assign.
	nextId int64

	// No further enqueues are accepted once draining.
	draining bool

	// Fan-out of status changes to observers.
	updates *utils.Broadcast[*protocol.JobUpdate]
}

func NewJobQueue() *JobQueue {
	return &JobQueue{
		jobs:    map[int64]*protocol.Job{},
		updates: utils.NewBroadcast[*protocol.JobUpdate](),
	}
}

// Append a new pending job. Ids are strictly increasing in
// submission order.
func (q *JobQueue) Enqueue(payload protocol.Payload) (int64, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.draining {
		return 0, utils.ErrDraining
	}

	q.nextId++
	job := &protocol.Job{
		Id:      q.nextId,
		Payload: payload,
		Status:  protocol.JobStatus_PENDING,
	}
	q.jobs[job.Id] = job
	q.pending = append(q.pending, job.Id)

	log.Debugf("new - job - id: %d", job.Id)

	return job.Id, nil
}

// Atomically pop the head pending job and mark it claimed.
func (q *JobQueue) Claim(worker string) (*protocol.Job, error) {
	q.mu.Lock()

	if len(q.pending) == 0 {
		q.mu.Unlock()
		return nil, nil
	}

	id := q.pending[0]
	q.pending = q.pending[1:]

	job := q.jobs[id]
	job.Status = protocol.JobStatus_CLAIMED
	job.Worker = worker
	q.claimed++

	copy := *job
	q.mu.Unlock()

	log.Debugf("run - job - id: %d, worker: %s", copy.Id, worker)
	q.updates.Send(&protocol.JobUpdate{Job: &copy})

	return &copy, nil
}

// Transition a claimed job to done with the given result.
func (q *JobQueue) Complete(id int64, result string) error {
	return q.finish(id, protocol.JobStatus_DONE, result, "")
}

// Transition a claimed job to failed, recording the failure description.
func (q *JobQueue) Fail(id int64, reason string) error {
	return q.finish(id, protocol.JobStatus_FAILED, "", reason)
}

func (q *JobQueue) finish(id int64, status protocol.JobStatus, result, reason string) error {
	q.mu.Lock()

	job, ok := q.jobs[id]
	if !ok || job.Status != protocol.JobStatus_CLAIMED {
		q.mu.Unlock()
		return utils.ErrUnknownJob
	}

	job.Status = status
	job.Result = result
	job.Error = reason
	q.claimed--

	copy := *job
	q.mu.Unlock()

	log.Debugf("end - job - id: %d, status: %s", id, status)
	q.updates.Send(&protocol.JobUpdate{Job: &copy})

	return nil
}

// Per-status counts, consistent across all categories.
func (q *JobQueue) Snapshot() (protocol.Snapshot, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	snapshot := protocol.Snapshot{
		Pending: len(q.pending),
		Claimed: q.claimed,
	}
	for _, job := range q.jobs {
		switch job.Status {
		case protocol.JobStatus_DONE:
			snapshot.Done++
		case protocol.JobStatus_FAILED:
			snapshot.Failed++
		}
	}

	return snapshot, nil
}

// A copy of the job with the given id, or nil.
func (q *JobQueue) Job(id int64) *protocol.Job {
	q.mu.Lock()
	defer q.mu.Unlock()

	job, ok := q.jobs[id]
	if !ok {
		return nil
	}

	copy := *job
	return &copy
}

// Stop accepting new jobs. Claim, complete and fail continue to be
// served for work already in the queue.
func (q *JobQueue) Drain() {
	q.mu.Lock()
	defer q.mu.Unlock()

	if !q.draining {
		log.Info("Queue is draining, no further submissions accepted")
		q.draining = true
	}
}

func (q *JobQueue) Draining() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.draining
}

// Returns true when no job is pending or claimed.
func (q *JobQueue) Idle() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending) == 0 && q.claimed == 0
}

// Subscribe to job status changes.
func (q *JobQueue) Updates() *utils.BroadcastConsumer[*protocol.JobUpdate] {
	return q.updates.NewConsumer()
}

// Close the queue and cancel all observers.
func (q *JobQueue) Close() {
	q.updates.Close()
}
