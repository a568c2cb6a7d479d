package gateway

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/fsteinmetz/runlib/pkg/log"
	"github.com/fsteinmetz/runlib/pkg/protocol"
	"github.com/fsteinmetz/runlib/pkg/utils"
	"github.com/klauspost/compress/gzip"
)

type ClientConfig struct {
	// Maximum number of connection attempts per call.
	Attempts int `mapstructure:"attempts"`

	// Initial retry backoff, doubled after every failed attempt.
	Backoff time.Duration `mapstructure:"backoff"`
}

func (c *ClientConfig) SetDefaults() {
	if c.Attempts <= 0 {
		c.Attempts = 6
	}
	if c.Backoff <= 0 {
		c.Backoff = 250 * time.Millisecond
	}
}

// HTTP client for the coordinator gateway.
// Implements the worker-side queue contract; transient transport
// failures are retried with bounded exponential backoff.
type Client struct {
	endpoint protocol.Endpoint
	base     string
	config   ClientConfig
	http     *http.Client
}

func NewClient(endpoint protocol.Endpoint, config ClientConfig) *Client {
	config.SetDefaults()

	return &Client{
		endpoint: endpoint,
		base:     "http://" + endpoint.Addr(),
		config:   config,
		http:     &http.Client{Timeout: 30 * time.Second},
	}
}

func (c *Client) Endpoint() protocol.Endpoint {
	return c.endpoint
}

// Issue a request, retrying transport failures.
// Status codes are returned to the caller for per-call mapping.
func (c *Client) do(method, path string, body []byte, contentType string) (*http.Response, error) {
	backoff := c.config.Backoff

	var lastErr error
	for attempt := 0; attempt < c.config.Attempts; attempt++ {
		if attempt > 0 {
			log.Debugf("retrying %s %s in %s (attempt %d/%d)",
				method, path, backoff, attempt+1, c.config.Attempts)
			time.Sleep(backoff)
			backoff *= 2
		}

		req, err := http.NewRequest(method, c.base+path, bytes.NewReader(body))
		if err != nil {
			return nil, err
		}
		if contentType != "" {
			req.Header.Set("Content-Type", contentType)
		}

		resp, err := c.http.Do(req)
		if err != nil {
			lastErr = err
			continue
		}

		return resp, nil
	}

	return nil, fmt.Errorf("%w: %s: %v", utils.ErrConnection, c.base, lastErr)
}

func (c *Client) call(method, path string, in, out any) (int, error) {
	var body []byte
	var err error

	if in != nil {
		body, err = json.Marshal(in)
		if err != nil {
			return 0, err
		}
	}

	resp, err := c.do(method, path, body, "application/json")
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusOK && out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return resp.StatusCode, err
		}
	}

	return resp.StatusCode, nil
}

func (c *Client) Enqueue(payload protocol.Payload) (int64, error) {
	var out protocol.EnqueueResponse

	status, err := c.call(http.MethodPost, "/api/v1/enqueue", &protocol.EnqueueRequest{Payload: payload}, &out)
	if err != nil {
		return 0, err
	}

	switch status {
	case http.StatusOK:
		return out.Id, nil
	case http.StatusServiceUnavailable:
		return 0, utils.ErrDraining
	default:
		return 0, fmt.Errorf("enqueue: unexpected status %d", status)
	}
}

func (c *Client) Claim(worker string) (*protocol.Job, error) {
	var out protocol.ClaimResponse

	status, err := c.call(http.MethodPost, "/api/v1/claim", &protocol.ClaimRequest{Worker: worker}, &out)
	if err != nil {
		return nil, err
	}

	switch status {
	case http.StatusOK:
		return out.Job, nil
	case http.StatusNoContent:
		return nil, nil
	default:
		return nil, fmt.Errorf("claim: unexpected status %d", status)
	}
}

func (c *Client) Complete(id int64, result string) error {
	status, err := c.call(http.MethodPost, "/api/v1/complete", &protocol.CompleteRequest{Id: id, Result: result}, nil)
	if err != nil {
		return err
	}

	return ackStatus("complete", status)
}

func (c *Client) Fail(id int64, reason string) error {
	status, err := c.call(http.MethodPost, "/api/v1/fail", &protocol.FailRequest{Id: id, Error: reason}, nil)
	if err != nil {
		return err
	}

	return ackStatus("fail", status)
}

func (c *Client) Snapshot() (protocol.Snapshot, error) {
	var out protocol.Snapshot

	status, err := c.call(http.MethodGet, "/api/v1/snapshot", nil, &out)
	if err != nil {
		return protocol.Snapshot{}, err
	}

	if status != http.StatusOK {
		return protocol.Snapshot{}, fmt.Errorf("snapshot: unexpected status %d", status)
	}

	return out, nil
}

func ackStatus(op string, status int) error {
	switch status {
	case http.StatusOK:
		return nil
	case http.StatusNotFound:
		return utils.ErrUnknownJob
	case http.StatusBadRequest:
		return utils.ErrBadRequest
	default:
		return fmt.Errorf("%s: unexpected status %d", op, status)
	}
}

// Upload captured job output to the coordinator's log stash.
// Satisfies the worker's log sink contract. The upload is buffered
// and sent gzip compressed when the writer is closed.
func (c *Client) Append(id string) (io.WriteCloser, error) {
	return &logUpload{client: c, id: id}, nil
}

// Fetch the stored output of a job as plain text.
func (c *Client) ReadLog(id string) (io.ReadCloser, error) {
	resp, err := c.do(http.MethodGet, "/logs/"+id, nil, "")
	if err != nil {
		return nil, err
	}

	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("log %s: unexpected status %d", id, resp.StatusCode)
	}

	return resp.Body, nil
}

type logUpload struct {
	client *Client
	id     string
	buf    bytes.Buffer
}

func (u *logUpload) Write(data []byte) (int, error) {
	return u.buf.Write(data)
}

func (u *logUpload) Close() error {
	compressed := bytes.Buffer{}

	writer := gzip.NewWriter(&compressed)
	if _, err := writer.Write(u.buf.Bytes()); err != nil {
		return err
	}
	if err := writer.Close(); err != nil {
		return err
	}

	req, err := http.NewRequest(http.MethodPut, u.client.base+"/logs/"+u.id, &compressed)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Encoding", "gzip")
	req.Header.Set("Content-Type", "text/plain")

	resp, err := u.client.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("log upload %s: unexpected status %d", u.id, resp.StatusCode)
	}

	return nil
}
