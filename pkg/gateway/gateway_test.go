package gateway

import (
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/fsteinmetz/runlib/pkg/joblog"
	"github.com/fsteinmetz/runlib/pkg/protocol"
	"github.com/fsteinmetz/runlib/pkg/utils"
	echo "github.com/labstack/echo/v4"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Minimal queue backing the gateway under test.
type testQueue struct {
	jobs     map[int64]*protocol.Job
	pending  []int64
	nextId   int64
	draining bool
}

func newTestQueue() *testQueue {
	return &testQueue{jobs: map[int64]*protocol.Job{}}
}

func (q *testQueue) Enqueue(payload protocol.Payload) (int64, error) {
	if q.draining {
		return 0, utils.ErrDraining
	}

	q.nextId++
	q.jobs[q.nextId] = &protocol.Job{Id: q.nextId, Payload: payload, Status: protocol.JobStatus_PENDING}
	q.pending = append(q.pending, q.nextId)
	return q.nextId, nil
}

func (q *testQueue) Claim(worker string) (*protocol.Job, error) {
	if len(q.pending) == 0 {
		return nil, nil
	}

	id := q.pending[0]
	q.pending = q.pending[1:]

	job := q.jobs[id]
	job.Status = protocol.JobStatus_CLAIMED
	job.Worker = worker
	return job, nil
}

func (q *testQueue) Complete(id int64, result string) error {
	job, ok := q.jobs[id]
	if !ok || job.Status != protocol.JobStatus_CLAIMED {
		return utils.ErrUnknownJob
	}
	job.Status = protocol.JobStatus_DONE
	job.Result = result
	return nil
}

func (q *testQueue) Fail(id int64, reason string) error {
	job, ok := q.jobs[id]
	if !ok || job.Status != protocol.JobStatus_CLAIMED {
		return utils.ErrUnknownJob
	}
	job.Status = protocol.JobStatus_FAILED
	job.Error = reason
	return nil
}

func (q *testQueue) Snapshot() (protocol.Snapshot, error) {
	snapshot := protocol.Snapshot{}
	for _, job := range q.jobs {
		switch job.Status {
		case protocol.JobStatus_PENDING:
			snapshot.Pending++
		case protocol.JobStatus_CLAIMED:
			snapshot.Claimed++
		case protocol.JobStatus_DONE:
			snapshot.Done++
		case protocol.JobStatus_FAILED:
			snapshot.Failed++
		}
	}
	return snapshot, nil
}

func newTestGateway(t *testing.T, queue Queue) (*httptest.Server, *Client) {
	r := echo.New()
	r.HideBanner = true

	NewHttpHandler(queue, r)
	NewMetricsHandler(queue, r)
	joblog.NewHttpHandler(joblog.NewStash(afero.NewMemMapFs()), r)

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)

	addr := srv.Listener.Addr().(*net.TCPAddr)
	client := NewClient(protocol.Endpoint{Host: "127.0.0.1", Port: addr.Port}, ClientConfig{})

	return srv, client
}

func TestClientEnqueueClaimComplete(t *testing.T) {
	queue := newTestQueue()
	_, client := newTestGateway(t, queue)

	id, err := client.Enqueue(protocol.NewFunctionPayload("square", "3"))
	require.NoError(t, err)

	job, err := client.Claim("w1")
	require.NoError(t, err)
	require.NotNil(t, job)
	assert.Equal(t, id, job.Id)
	assert.Equal(t, "square", job.Payload.Name)
	assert.Equal(t, []string{"3"}, job.Payload.Args)
	assert.Equal(t, "w1", job.Worker)

	require.NoError(t, client.Complete(job.Id, "9"))
	assert.Equal(t, "9", queue.jobs[id].Result)
}

func TestClientClaimEmpty(t *testing.T) {
	_, client := newTestGateway(t, newTestQueue())

	job, err := client.Claim("w1")
	assert.NoError(t, err)
	assert.Nil(t, job)
}

func TestClientFail(t *testing.T) {
	queue := newTestQueue()
	_, client := newTestGateway(t, queue)

	id, _ := client.Enqueue(protocol.NewFunctionPayload("noop"))
	job, _ := client.Claim("w1")

	require.NoError(t, client.Fail(job.Id, "boom"))
	assert.Equal(t, protocol.JobStatus_FAILED, queue.jobs[id].Status)
	assert.Equal(t, "boom", queue.jobs[id].Error)
}

func TestClientUnknownJob(t *testing.T) {
	_, client := newTestGateway(t, newTestQueue())

	assert.ErrorIs(t, client.Complete(42, "ok"), utils.ErrUnknownJob)
	assert.ErrorIs(t, client.Fail(42, "boom"), utils.ErrUnknownJob)
}

func TestClientDraining(t *testing.T) {
	queue := newTestQueue()
	queue.draining = true

	_, client := newTestGateway(t, queue)

	_, err := client.Enqueue(protocol.NewFunctionPayload("noop"))
	assert.ErrorIs(t, err, utils.ErrDraining)
}

func TestClientSnapshot(t *testing.T) {
	queue := newTestQueue()
	_, client := newTestGateway(t, queue)

	client.Enqueue(protocol.NewFunctionPayload("noop"))
	client.Enqueue(protocol.NewFunctionPayload("noop"))
	job, _ := client.Claim("w1")
	client.Complete(job.Id, "ok")

	snapshot, err := client.Snapshot()
	require.NoError(t, err)
	assert.Equal(t, 1, snapshot.Pending)
	assert.Equal(t, 1, snapshot.Done)
	assert.Equal(t, 2, snapshot.Total())
}

func TestClientConnectionFailure(t *testing.T) {
	// Nothing listens here; the reserved port is closed again before use.
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := listener.Addr().(*net.TCPAddr).Port
	listener.Close()

	client := NewClient(protocol.Endpoint{Host: "127.0.0.1", Port: port},
		ClientConfig{Attempts: 2, Backoff: time.Millisecond})

	_, err = client.Claim("w1")
	assert.ErrorIs(t, err, utils.ErrConnection)
}

func TestClientLogRoundtrip(t *testing.T) {
	_, client := newTestGateway(t, newTestQueue())

	writer, err := client.Append("7")
	require.NoError(t, err)
	_, err = io.WriteString(writer, "captured output\n")
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	reader, err := client.ReadLog("7")
	require.NoError(t, err)
	defer reader.Close()

	data, err := io.ReadAll(reader)
	require.NoError(t, err)
	assert.Equal(t, "captured output\n", string(data))
}

func TestMetricsEndpoint(t *testing.T) {
	queue := newTestQueue()
	srv, client := newTestGateway(t, queue)

	client.Enqueue(protocol.NewFunctionPayload("noop"))

	resp, err := http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "runlib_jobs_pending 1")
	assert.Contains(t, string(body), "runlib_jobs_done_total 0")
}
