package dispatch

import (
	"context"
	"fmt"
	"time"

	"github.com/fsteinmetz/runlib/pkg/gateway"
	"github.com/fsteinmetz/runlib/pkg/joblog"
	"github.com/fsteinmetz/runlib/pkg/log"
	"github.com/fsteinmetz/runlib/pkg/protocol"
	"github.com/fsteinmetz/runlib/pkg/rendezvous"
	"github.com/fsteinmetz/runlib/pkg/utils"
	"github.com/spf13/afero"
	"golang.org/x/sync/errgroup"
)

type Mode string

const (
	ModeAuto        Mode = "auto"
	ModeLocal       Mode = "local"
	ModeCoordinator Mode = "coordinator"
	ModeWorker      Mode = "worker"
)

// Terminal state of one submitted job.
type Result struct {
	Id     int64
	Status protocol.JobStatus
	Value  string
	Err    string
}

// The caller-facing entry point. Depending on the mode it hosts a
// coordinator, runs a worker against a discovered coordinator, or
// executes jobs purely in-process, and it aggregates the results of
// everything it submitted.
type Processor struct {
	config      *Config
	registry    *Registry
	mode        Mode
	store       *rendezvous.Store
	queue       *JobQueue
	coordinator *Coordinator
	client      *gateway.Client
	updates     *utils.BroadcastConsumer[*protocol.JobUpdate]
	submitted   []int64
	results     map[int64]Result
}

func NewProcessor(config *Config, registry *Registry, fs afero.Fs) (*Processor, error) {
	config.SetDefaults()
	if err := config.Validate(); err != nil {
		return nil, err
	}

	store := rendezvous.NewStore(fs, config.ServerFile)

	mode := Mode(config.Mode)
	if mode == ModeAuto {
		if store.Exists() {
			mode = ModeWorker
		} else {
			mode = ModeCoordinator
		}
		log.Infof("Auto mode resolved to %s", mode)
	}

	p := &Processor{
		config:   config,
		registry: registry,
		mode:     mode,
		store:    store,
		results:  map[int64]Result{},
	}

	switch mode {
	case ModeLocal:
		p.queue = NewJobQueue()

	case ModeCoordinator:
		p.queue = NewJobQueue()
		p.updates = p.queue.Updates()

		stashFs, err := config.JobLog.CreateFs()
		if err != nil {
			return nil, err
		}

		p.coordinator = NewCoordinator(p.queue, store, joblog.NewStash(stashFs))
		if err := p.coordinator.Start(config.ListenHttp, config.Force); err != nil {
			return nil, err
		}

	case ModeWorker:
		endpoint, err := store.Resolve()
		if err != nil {
			return nil, err
		}

		log.Infof("Trying to reach coordinator at %s", endpoint)
		p.client = gateway.NewClient(endpoint, config.Connect)
	}

	return p, nil
}

func (p *Processor) Mode() Mode {
	return p.mode
}

// The hosted coordinator, or nil outside coordinator mode.
func (p *Processor) Coordinator() *Coordinator {
	return p.coordinator
}

// Submit a payload for execution. In coordinator and local mode the
// job is enqueued directly; in worker mode it is forwarded to the
// discovered coordinator.
func (p *Processor) Submit(payload protocol.Payload) (int64, error) {
	var id int64
	var err error

	switch p.mode {
	case ModeLocal, ModeCoordinator:
		id, err = p.queue.Enqueue(payload)
	case ModeWorker:
		id, err = p.client.Enqueue(payload)
	}

	if err != nil {
		return 0, err
	}

	p.submitted = append(p.submitted, id)
	return id, nil
}

// Block until every job submitted through this processor has reached
// a terminal state. Individual job failures never fail the wait;
// callers inspect each result entry.
func (p *Processor) Wait(ctx context.Context) error {
	switch p.mode {
	case ModeLocal:
		return p.waitLocal(ctx)
	case ModeCoordinator:
		return p.waitCoordinator(ctx)
	case ModeWorker:
		worker := NewWorker(p.client, p.registry, p.client)
		return worker.Run(ctx)
	}
	return fmt.Errorf("invalid mode: %q", p.mode)
}

// Local mode: run in-process workers against the queue, no networking.
func (p *Processor) waitLocal(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)

	for i := 0; i < p.config.Threads; i++ {
		worker := NewWorker(p.queue, p.registry, nil)
		g.Go(func() error {
			return worker.Run(gctx)
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}

	p.collect()
	return nil
}

// Coordinator mode: serve connected workers (and optionally execute
// jobs in-process) until all submitted jobs are terminal, then drain
// and shut down.
func (p *Processor) waitCoordinator(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)

	if p.config.SelfExecute {
		for i := 0; i < p.config.Threads; i++ {
			worker := NewWorker(p.queue, p.registry, p.coordinator.Stash())
			g.Go(func() error {
				return worker.Run(gctx)
			})
		}
	}

	if err := p.awaitTerminal(ctx); err != nil {
		return err
	}

	p.collect()

	p.coordinator.Drain()
	if err := p.coordinator.WaitDrained(ctx); err != nil {
		return err
	}

	return g.Wait()
}

// Consume queue updates until every submitted job is terminal.
// A ticker backs up the update channel so that a transition observed
// before subscription is never waited for forever.
//
// The consumer is unsubscribed on return: nothing drains it afterwards,
// and an abandoned consumer would eventually block every status
// transition once its buffer fills.
func (p *Processor) awaitTerminal(ctx context.Context) error {
	defer p.updates.Close()

	remaining := map[int64]struct{}{}
	for _, id := range p.submitted {
		if job := p.queue.Job(id); job == nil || !job.Status.IsTerminal() {
			remaining[id] = struct{}{}
		}
	}

	ticker := time.NewTicker(200 * time.Millisecond)
	defer ticker.Stop()

	for len(remaining) > 0 {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case update := <-p.updates.Chan:
			if update != nil && update.Job.Status.IsTerminal() {
				delete(remaining, update.Job.Id)
			}

		case <-ticker.C:
			for id := range remaining {
				if job := p.queue.Job(id); job != nil && job.Status.IsTerminal() {
					delete(remaining, id)
				}
			}
		}
	}

	return nil
}

func (p *Processor) collect() {
	for _, id := range p.submitted {
		job := p.queue.Job(id)
		if job == nil {
			continue
		}
		p.results[id] = Result{
			Id:     id,
			Status: job.Status,
			Value:  job.Result,
			Err:    job.Error,
		}
	}
}

// The terminal states of all submitted jobs, in submission order.
// Valid after Wait has returned.
func (p *Processor) Results() []Result {
	results := make([]Result, 0, len(p.submitted))
	for _, id := range p.submitted {
		results = append(results, p.results[id])
	}
	return results
}
