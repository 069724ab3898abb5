package http

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/readlater/internal/scheduler"
)

type ExportController struct {
	archiver  MarkdownArchiver
	scheduler ExportScheduler
}

func NewExportController(archiver MarkdownArchiver, scheduler ExportScheduler) *ExportController {
	return &ExportController{archiver: archiver, scheduler: scheduler}
}

// DownloadMarkdownZip handles GET /api/export/markdown.zip
// Streams one Markdown note per article.
func (ec *ExportController) DownloadMarkdownZip(c *gin.Context) {
	filename := fmt.Sprintf("readlater-export-%s.zip", time.Now().Format("2006-01-02"))
	c.Header("Content-Type", "application/zip")
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	c.Status(http.StatusOK)

	if _, err := ec.archiver.WriteZip(c.Request.Context(), c.Writer); err != nil {
		// Headers are already sent; the client sees a truncated archive.
		slog.Error("markdown_zip_failed", slog.String("error", err.Error()))
	}
}

// RunExport handles POST /api/export/run
// Exports to the configured directory now.
func (ec *ExportController) RunExport(c *gin.Context) {
	if ec.scheduler == nil {
		respondError(c, http.StatusServiceUnavailable, "export scheduler not available")
		return
	}
	err := ec.scheduler.RunNow(c.Request.Context())
	if errors.Is(err, scheduler.ErrExportDirNotConfigured) {
		respondBadRequest(c, err.Error())
		return
	}
	if err != nil {
		respondInternalError(c, err, "run export")
		return
	}
	respondAccepted(c, "export started", nil)
}
