package server

import (
	"io"
	"net/http"
	"path/filepath"

	"github.com/labstack/echo/v4"

	"github.com/joseph-ayodele/scandocx/internal/common"
	"github.com/joseph-ayodele/scandocx/internal/intake"
)

// startJob registers a job. The request body, if present, is the settings
// document, persisted verbatim after schema validation.
func (s *Service) startJob(c echo.Context) error {
	var raw []byte
	if c.Request().Body != nil {
		b, err := io.ReadAll(io.LimitReader(c.Request().Body, 1<<20))
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "unreadable request body")
		}
		raw = b
	}

	jobID, err := s.orch.Start(c.Request().Context(), raw)
	if err != nil {
		return common.ToHTTPError(err)
	}
	return c.JSON(http.StatusCreated, map[string]string{"job_id": jobID})
}

// uploadAndRun accepts the PDF as multipart field "file" and drives the job
// to a terminal state before responding. The stage work itself happens on
// the worker pool; this handler only waits for its result, so status polls
// for other jobs stay responsive.
func (s *Service) uploadAndRun(c echo.Context) error {
	jobID := c.Param("id")
	if jobID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "job id is required")
	}

	fh, err := c.FormFile("file")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "multipart field 'file' is required")
	}
	f, err := fh.Open()
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "cannot open uploaded file")
	}
	defer f.Close()

	up := intake.Upload{
		Filename:    fh.Filename,
		ContentType: fh.Header.Get("Content-Type"),
		Body:        f,
	}

	done, err := s.queue.Submit(c.Request().Context(), jobID, up)
	if err != nil {
		return common.ToHTTPError(err)
	}

	// Block until the workers finish this job. The upload body must stay
	// open for the validate stage, so the handler cannot return earlier;
	// the worker pool's own timeout bounds the wait.
	res := <-done
	if res.Err != nil {
		return common.ToHTTPError(res.Err)
	}
	return c.JSON(http.StatusOK, res.Final)
}

func (s *Service) jobStatus(c echo.Context) error {
	job, err := s.orch.Status(c.Request().Context(), c.Param("id"))
	if err != nil {
		return common.ToHTTPError(err)
	}
	return c.JSON(http.StatusOK, job)
}

// jobResult streams the artifact. Anything other than a succeeded job is a
// 404, including still-processing and failed jobs.
func (s *Service) jobResult(c echo.Context) error {
	path, err := s.orch.FetchResult(c.Request().Context(), c.Param("id"))
	if err != nil {
		return common.ToHTTPError(err)
	}
	return c.Attachment(path, filepath.Base(path))
}

func (s *Service) exportJobs(c echo.Context) error {
	data, err := s.export.ExportJobsXLSX(c.Request().Context(), 500)
	if err != nil {
		return common.ToHTTPError(err)
	}
	c.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="jobs.xlsx"`)
	return c.Blob(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", data)
}
