package protocol

// Payload kinds understood by workers.
const (
	PayloadKind_COMMAND  = "command"
	PayloadKind_FUNCTION = "function"
)

// An opaque work descriptor.
// Command payloads run a shell command line in a working directory.
// Function payloads resolve Name in the process-local registry;
// the registry must be identical in coordinator and worker processes.
type Payload struct {
	Kind string `json:"kind"`

	// Command line for command payloads.
	Command string `json:"command,omitempty"`

	// Working directory for command payloads.
	Cwd string `json:"cwd,omitempty"`

	// Registered function name for function payloads.
	Name string `json:"name,omitempty"`

	// Function arguments.
	Args []string `json:"args,omitempty"`
}

func NewCommandPayload(cwd, cmdline string) Payload {
	return Payload{
		Kind:    PayloadKind_COMMAND,
		Command: cmdline,
		Cwd:     cwd,
	}
}

func NewFunctionPayload(name string, args ...string) Payload {
	return Payload{
		Kind: PayloadKind_FUNCTION,
		Name: name,
		Args: args,
	}
}

// One unit of work tracked by the coordinator.
type Job struct {
	// Strictly increasing id assigned at enqueue time.
	Id int64 `json:"id"`

	Payload Payload `json:"payload"`

	Status JobStatus `json:"status"`

	// Result value of a done job.
	Result string `json:"result,omitempty"`

	// Failure description of a failed job.
	Error string `json:"error,omitempty"`

	// Identity of the worker that claimed the job.
	Worker string `json:"worker,omitempty"`
}

// A job status change, fanned out to queue observers.
type JobUpdate struct {
	Job *Job `json:"job"`
}
