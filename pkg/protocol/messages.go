package protocol

// Typed gateway messages, independent of the transport.

type ClaimRequest struct {
	// Identity of the claiming worker.
	Worker string `json:"worker"`
}

type ClaimResponse struct {
	// The claimed job, or null when no pending job exists.
	Job *Job `json:"job"`
}

type CompleteRequest struct {
	Id     int64  `json:"id"`
	Result string `json:"result,omitempty"`
}

type FailRequest struct {
	Id    int64  `json:"id"`
	Error string `json:"error"`
}

type EnqueueRequest struct {
	Payload Payload `json:"payload"`
}

type EnqueueResponse struct {
	Id int64 `json:"id"`
}

type Ack struct {
	Ok bool `json:"ok"`
}

// Consistent per-status job counts.
type Snapshot struct {
	Pending int `json:"pending"`
	Claimed int `json:"claimed"`
	Done    int `json:"done"`
	Failed  int `json:"failed"`
}

// Total number of jobs ever enqueued.
func (s Snapshot) Total() int {
	return s.Pending + s.Claimed + s.Done + s.Failed
}
