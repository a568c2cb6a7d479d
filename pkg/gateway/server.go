// Package gateway exposes the coordinator's job queue over HTTP.
// The message contract lives in pkg/protocol; this package binds it
// to an echo server on the coordinator and an http client on workers.
package gateway

import (
	"errors"
	"net/http"

	"github.com/fsteinmetz/runlib/pkg/protocol"
	"github.com/fsteinmetz/runlib/pkg/utils"
	echo "github.com/labstack/echo/v4"
)

// The queue operations served to remote processes.
type Queue interface {
	Enqueue(payload protocol.Payload) (int64, error)
	Claim(worker string) (*protocol.Job, error)
	Complete(id int64, result string) error
	Fail(id int64, reason string) error
	Snapshot() (protocol.Snapshot, error)
}

// Registers the gateway endpoints on the given echo instance.
func NewHttpHandler(queue Queue, r *echo.Echo) {
	r.POST("/api/v1/claim", func(c echo.Context) error {
		var req protocol.ClaimRequest
		if err := c.Bind(&req); err != nil {
			return c.String(http.StatusBadRequest, err.Error())
		}

		job, err := queue.Claim(req.Worker)
		if err != nil {
			return c.String(http.StatusInternalServerError, err.Error())
		}

		if job == nil {
			return c.NoContent(http.StatusNoContent)
		}

		return c.JSON(http.StatusOK, &protocol.ClaimResponse{Job: job})
	})

	r.POST("/api/v1/complete", func(c echo.Context) error {
		var req protocol.CompleteRequest
		if err := c.Bind(&req); err != nil {
			return c.String(http.StatusBadRequest, err.Error())
		}

		if err := queue.Complete(req.Id, req.Result); err != nil {
			return httpError(c, err)
		}

		return c.JSON(http.StatusOK, &protocol.Ack{Ok: true})
	})

	r.POST("/api/v1/fail", func(c echo.Context) error {
		var req protocol.FailRequest
		if err := c.Bind(&req); err != nil {
			return c.String(http.StatusBadRequest, err.Error())
		}

		if err := queue.Fail(req.Id, req.Error); err != nil {
			return httpError(c, err)
		}

		return c.JSON(http.StatusOK, &protocol.Ack{Ok: true})
	})

	r.POST("/api/v1/enqueue", func(c echo.Context) error {
		var req protocol.EnqueueRequest
		if err := c.Bind(&req); err != nil {
			return c.String(http.StatusBadRequest, err.Error())
		}

		id, err := queue.Enqueue(req.Payload)
		if err != nil {
			return httpError(c, err)
		}

		return c.JSON(http.StatusOK, &protocol.EnqueueResponse{Id: id})
	})

	r.GET("/api/v1/snapshot", func(c echo.Context) error {
		snapshot, err := queue.Snapshot()
		if err != nil {
			return c.String(http.StatusInternalServerError, err.Error())
		}

		return c.JSON(http.StatusOK, &snapshot)
	})
}

// Convert queue errors to http status codes.
func httpError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, utils.ErrUnknownJob):
		return c.String(http.StatusNotFound, err.Error())
	case errors.Is(err, utils.ErrDraining):
		return c.String(http.StatusServiceUnavailable, err.Error())
	default:
		return c.String(http.StatusInternalServerError, err.Error())
	}
}
