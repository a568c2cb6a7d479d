package gateway

import (
	"fmt"
	"net/http"

	echo "github.com/labstack/echo/v4"
)

// Registers a Prometheus text exposition of the queue snapshot.
func NewMetricsHandler(queue Queue, r *echo.Echo) {
	r.GET("/metrics", func(c echo.Context) error {
		snapshot, err := queue.Snapshot()
		if err != nil {
			return c.String(http.StatusInternalServerError, err.Error())
		}

		metrics := fmt.Sprintln("# TYPE runlib_jobs_pending gauge")
		metrics += fmt.Sprintln("# HELP runlib_jobs_pending The number of jobs waiting to be claimed.")
		metrics += fmt.Sprintf("runlib_jobs_pending %d\n", snapshot.Pending)

		metrics += fmt.Sprintln("# TYPE runlib_jobs_claimed gauge")
		metrics += fmt.Sprintln("# HELP runlib_jobs_claimed The number of jobs currently claimed by workers.")
		metrics += fmt.Sprintf("runlib_jobs_claimed %d\n", snapshot.Claimed)

		metrics += fmt.Sprintln("# TYPE runlib_jobs_done_total counter")
		metrics += fmt.Sprintln("# HELP runlib_jobs_done_total The total number of successfully completed jobs.")
		metrics += fmt.Sprintf("runlib_jobs_done_total %d\n", snapshot.Done)

		metrics += fmt.Sprintln("# TYPE runlib_jobs_failed_total counter")
		metrics += fmt.Sprintln("# HELP runlib_jobs_failed_total The total number of failed jobs.")
		metrics += fmt.Sprintf("runlib_jobs_failed_total %d\n", snapshot.Failed)

		c.String(http.StatusOK, metrics)
		return nil
	})
}
