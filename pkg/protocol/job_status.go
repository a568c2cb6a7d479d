package protocol

// The lifecycle state of a job.
// Transitions are monotonic: pending -> claimed -> done or failed.
type JobStatus string

const (
	JobStatus_PENDING JobStatus = "pending"
	JobStatus_CLAIMED JobStatus = "claimed"
	JobStatus_DONE    JobStatus = "done"
	JobStatus_FAILED  JobStatus = "failed"
)

// Should return true if the job is no longer in progress.
func (status JobStatus) IsTerminal() bool {
	switch status {
	case JobStatus_DONE, JobStatus_FAILED:
		return true
	default:
		return false
	}
}

func (status JobStatus) String() string {
	return string(status)
}
