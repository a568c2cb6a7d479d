package dispatch

import (
	"fmt"

	"github.com/fsteinmetz/runlib/pkg/protocol"
	"github.com/fsteinmetz/runlib/pkg/utils"
)

// Executes job payloads inside a worker.
// All execution failures, including panics in registered functions,
// are returned as errors and never crash the worker loop.
type Executor struct {
	registry *Registry
}

func NewExecutor(registry *Registry) *Executor {
	return &Executor{registry: registry}
}

// Run the payload. Returns the job result and, for command payloads,
// the captured process output.
func (e *Executor) Execute(payload protocol.Payload) (result string, output string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("job panicked: %v", r)
		}
	}()

	switch payload.Kind {
	case protocol.PayloadKind_COMMAND:
		output, err = utils.RunShellOutput(payload.Cwd, payload.Command)
		return "", output, err

	case protocol.PayloadKind_FUNCTION:
		fn, err := e.registry.Lookup(payload.Name)
		if err != nil {
			return "", "", err
		}

		result, err = fn(payload.Args)
		return result, "", err

	default:
		return "", "", fmt.Errorf("%w: %q", utils.ErrUnknownPayload, payload.Kind)
	}
}
