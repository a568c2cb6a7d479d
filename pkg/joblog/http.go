package joblog

import (
	"io"
	"net/http"

	"github.com/klauspost/compress/gzip"
	echo "github.com/labstack/echo/v4"
)

// Registers the job log endpoints.
// Logs are uploaded by workers and read back by operators as plain text.
func NewHttpHandler(stash Stash, r *echo.Echo) {
	r.GET("/logs/:id", func(c echo.Context) error {
		reader, err := stash.Read(c.Param("id"))
		if err != nil {
			return c.String(http.StatusNotFound, err.Error())
		}
		defer reader.Close()

		return c.Stream(http.StatusOK, echo.MIMETextPlain, reader)
	})

	r.PUT("/logs/:id", func(c echo.Context) error {
		var body io.Reader = c.Request().Body

		// Workers compress uploads.
		if c.Request().Header.Get(echo.HeaderContentEncoding) == "gzip" {
			reader, err := gzip.NewReader(body)
			if err != nil {
				return c.String(http.StatusBadRequest, err.Error())
			}
			defer reader.Close()
			body = reader
		}

		writer, err := stash.Append(c.Param("id"))
		if err != nil {
			return c.String(http.StatusInternalServerError, err.Error())
		}

		if _, err := io.Copy(writer, body); err != nil {
			writer.Close()
			return c.String(http.StatusInternalServerError, err.Error())
		}

		if err := writer.Close(); err != nil {
			return c.String(http.StatusInternalServerError, err.Error())
		}

		return c.NoContent(http.StatusOK)
	})
}
