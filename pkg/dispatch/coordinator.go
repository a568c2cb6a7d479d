package dispatch

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/fsteinmetz/runlib/pkg/gateway"
	"github.com/fsteinmetz/runlib/pkg/joblog"
	"github.com/fsteinmetz/runlib/pkg/log"
	"github.com/fsteinmetz/runlib/pkg/protocol"
	"github.com/fsteinmetz/runlib/pkg/rendezvous"
	"github.com/fsteinmetz/runlib/pkg/utils"
	echo "github.com/labstack/echo/v4"
)

// The coordinator owns the job queue and the rendezvous entry, and
// serves gateway calls to any number of concurrently connected workers.
type Coordinator struct {
	queue    *JobQueue
	store    *rendezvous.Store
	stash    joblog.Stash
	server   *http.Server
	listener net.Listener
	endpoint protocol.Endpoint
	started  time.Time

	shutdownOnce sync.Once
	shutdownErr  error
}

func NewCoordinator(queue *JobQueue, store *rendezvous.Store, stash joblog.Stash) *Coordinator {
	return &Coordinator{
		queue: queue,
		store: store,
		stash: stash,
	}
}

// Publish the endpoint and begin serving gateway calls.
// Workers may connect before any job has been submitted.
//
// A live rendezvous entry is refused unless force is set: either
// another coordinator owns the path, or a previous run died without
// retracting its entry and the operator must decide.
func (c *Coordinator) Start(listenUri string, force bool) error {
	if c.store.Exists() && !force {
		return fmt.Errorf("rendezvous entry %s already exists; "+
			"remove it if you are sure the coordinator is down", c.store.Path())
	}

	addr, err := utils.ParseHttpUrl(listenUri)
	if err != nil {
		return err
	}

	host, err := utils.LocalIP()
	if err != nil {
		return fmt.Errorf("error retrieving local ip: %w", err)
	}

	c.listener, err = net.Listen("tcp", addr)
	if err != nil {
		return err
	}

	c.endpoint = protocol.Endpoint{
		Host: host,
		Port: c.listener.Addr().(*net.TCPAddr).Port,
	}

	r := echo.New()
	r.HideBanner = true
	r.Use(utils.HttpLogger)

	gateway.NewHttpHandler(c.queue, r)
	gateway.NewMetricsHandler(c.queue, r)
	joblog.NewHttpHandler(c.stash, r)

	c.server = &http.Server{Handler: r}

	if err := c.store.Publish(c.endpoint); err != nil {
		c.listener.Close()
		return err
	}

	c.started = time.Now()

	go func() {
		if err := c.server.Serve(c.listener); err != nil && err != http.ErrServerClosed {
			log.Error("gateway server:", err)
		}
	}()

	log.Info("Serving gateway at", c.endpoint.String())
	return nil
}

func (c *Coordinator) Endpoint() protocol.Endpoint {
	return c.endpoint
}

func (c *Coordinator) Queue() *JobQueue {
	return c.queue
}

func (c *Coordinator) Stash() joblog.Stash {
	return c.stash
}

// Time since the coordinator started serving.
func (c *Coordinator) Elapsed() time.Duration {
	return time.Since(c.started)
}

// Stop accepting new submissions. Work already in the queue is still
// served until it reaches a terminal state.
func (c *Coordinator) Drain() {
	c.queue.Drain()
}

// Block until the queue is draining and has no pending or claimed
// jobs left, then shut down. Jobs still claimed by a worker are
// waited for, never discarded.
func (c *Coordinator) WaitDrained(ctx context.Context) error {
	consumer := c.queue.Updates()
	defer consumer.Close()

	ticker := time.NewTicker(200 * time.Millisecond)
	defer ticker.Stop()

	for {
		if c.queue.Draining() && c.queue.Idle() {
			return c.Shutdown(ctx)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-consumer.Chan:
		case <-ticker.C:
		}
	}
}

// Retract the rendezvous entry and release the gateway so that
// late-starting workers fail discovery instead of connecting to a
// dead coordinator.
func (c *Coordinator) Shutdown(ctx context.Context) error {
	c.shutdownOnce.Do(func() {
		log.Info("Shutting down coordinator")

		if err := c.store.Retract(); err != nil {
			log.Warn("unable to retract rendezvous entry:", err)
			c.shutdownErr = err
		}

		if err := c.server.Shutdown(ctx); err != nil {
			c.shutdownErr = err
		}

		c.queue.Close()
	})

	return c.shutdownErr
}
