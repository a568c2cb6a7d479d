package dispatch

import (
	"fmt"
	"sync"

	"github.com/fsteinmetz/runlib/pkg/utils"
)

// A function that can be dispatched as a job payload.
type JobFunc func(args []string) (string, error)

// Registry of dispatchable functions.
// Coordinator and worker processes must register the same functions;
// payload names are resolved at execution time inside the worker.
type Registry struct {
	mu    sync.RWMutex
	funcs map[string]JobFunc
}

func NewRegistry() *Registry {
	return &Registry{
		funcs: map[string]JobFunc{},
	}
}

func (r *Registry) Register(name string, fn JobFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.funcs[name] = fn
}

func (r *Registry) Lookup(name string) (JobFunc, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	fn, ok := r.funcs[name]
	if !ok {
		return nil, fmt.Errorf("%w: no registered function %q", utils.ErrUnknownPayload, name)
	}
	return fn, nil
}
