package http

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/readlater/internal/database/importjobs"
	"github.com/mrlokans/readlater/internal/entities"
	"github.com/mrlokans/readlater/internal/importers"
)

// ImportUploadField is the multipart field carrying the export file.
const ImportUploadField = "export_file"

// ImportJobResponse is an import job with its derived progress.
type ImportJobResponse struct {
	*entities.ImportJob
	Processed int                         `json:"processed"`
	Failures  []entities.ImportJobFailure `json:"failures,omitempty"`
}

type ImportsController struct {
	jobs           ImportJobStore
	preparer       ImportPreparer
	dispatch       ImportDispatchFunc
	maxUploadBytes int64
	logger         *slog.Logger
}

func NewImportsController(jobs ImportJobStore, preparer ImportPreparer, dispatch ImportDispatchFunc, maxUploadBytes int64, logger *slog.Logger) *ImportsController {
	if logger == nil {
		logger = slog.Default()
	}
	return &ImportsController{
		jobs:           jobs,
		preparer:       preparer,
		dispatch:       dispatch,
		maxUploadBytes: maxUploadBytes,
		logger:         logger,
	}
}

// CreateImport handles POST /api/imports
// Validates the upload, records a pending job and starts it in the
// background. Responds 202 with the job.
func (ic *ImportsController) CreateImport(c *gin.Context) {
	if ic.maxUploadBytes > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, ic.maxUploadBytes)
	}

	header, err := c.FormFile(ImportUploadField)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respondError(c, http.StatusRequestEntityTooLarge, "export file is too large")
			return
		}
		respondBadRequest(c, ImportUploadField+" is required")
		return
	}

	file, err := header.Open()
	if err != nil {
		respondInternalError(c, err, "open upload")
		return
	}
	defer file.Close()

	job, items, err := ic.preparer.Prepare(c.Request.Context(), header.Filename, file)
	if err != nil {
		var validation *importers.ValidationError
		if errors.As(err, &validation) {
			respondBadRequest(c, validation.Message)
			return
		}
		respondInternalError(c, err, "prepare import")
		return
	}

	// The import outlives this request.
	if err := ic.dispatch(context.WithoutCancel(c.Request.Context()), job.ID, items); err != nil {
		if abandonErr := ic.jobs.AbandonJob(c.Request.Context(), job.ID); abandonErr != nil {
			ic.logger.Error("import_abandon_failed",
				slog.String("job_id", job.ID),
				slog.String("error", abandonErr.Error()))
		}
		respondInternalError(c, err, "dispatch import")
		return
	}

	ic.logger.Info("import_accepted",
		slog.String("job_id", job.ID),
		slog.String("filename", header.Filename),
		slog.Int("items", len(items)))

	c.JSON(http.StatusAccepted, ImportJobResponse{ImportJob: job})
}

// ListImports handles GET /api/imports
func (ic *ImportsController) ListImports(c *gin.Context) {
	limit, ok := parseLimit(c, "limit", 20, 200)
	if !ok {
		return
	}

	jobs, err := ic.jobs.ListJobs(c.Request.Context(), limit)
	if err != nil {
		respondInternalError(c, err, "list import jobs")
		return
	}

	response := make([]ImportJobResponse, len(jobs))
	for i := range jobs {
		response[i] = ImportJobResponse{ImportJob: &jobs[i], Processed: jobs[i].Processed()}
	}
	c.JSON(http.StatusOK, response)
}

// GetImport handles GET /api/imports/:id
// Includes the recorded per-item failures.
func (ic *ImportsController) GetImport(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	ctx := c.Request.Context()
	job, err := ic.jobs.GetJob(ctx, id)
	if errors.Is(err, importjobs.ErrJobNotFound) {
		respondNotFound(c, "import job")
		return
	}
	if err != nil {
		respondInternalError(c, err, "get import job")
		return
	}

	failures, err := ic.jobs.ListFailures(ctx, id)
	if err != nil {
		respondInternalError(c, err, "list import failures")
		return
	}

	c.JSON(http.StatusOK, ImportJobResponse{
		ImportJob: job,
		Processed: job.Processed(),
		Failures:  failures,
	})
}
