package handlers

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mdiouf/bookkeep/internal/service/backup"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// BackupHandler exposes the export/import pipeline: xlsx workbook download
// and upload, plus the plain JSON pair.
type BackupHandler struct {
	exporter *backup.Exporter
	importer *backup.Importer
	logger   *zap.Logger
}

// NewBackupHandler constructs the HTTP handler adapter.
func NewBackupHandler(exporter *backup.Exporter, importer *backup.Importer, logger *zap.Logger) *BackupHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BackupHandler{exporter: exporter, importer: importer, logger: logger}
}

// ExportWorkbook streams the six-sheet backup workbook as a download.
func (h *BackupHandler) ExportWorkbook(c *gin.Context) {
	content, err := h.exporter.ExportWorkbook()
	if err != nil {
		h.logger.Error("backup export failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to build backup"})
		return
	}

	filename := fmt.Sprintf("bookkeep-backup-%s.xlsx", time.Now().Format("20060102-150405"))
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, xlsxContentType, content)
}

// ImportWorkbook restores the store from an uploaded workbook. Row-level
// problems come back as warnings on a successful response; structural
// problems are a 400 before the store is touched.
func (h *BackupHandler) ImportWorkbook(c *gin.Context) {
	file, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "no backup file uploaded"})
		return
	}

	src, err := file.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "cannot read uploaded file"})
		return
	}
	defer func() { _ = src.Close() }()

	result, err := h.importer.ImportWorkbook(src)
	if err != nil {
		h.respondImportError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// ExportJSON returns the plain-data backup document.
func (h *BackupHandler) ExportJSON(c *gin.Context) {
	content, err := h.exporter.ExportJSON()
	if err != nil {
		h.logger.Error("json export failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to build backup"})
		return
	}

	filename := fmt.Sprintf("bookkeep-backup-%s.json", time.Now().Format("20060102-150405"))
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, "application/json", content)
}

// ImportJSON restores the store from a plain-data document in the request
// body.
func (h *BackupHandler) ImportJSON(c *gin.Context) {
	data, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "cannot read request body"})
		return
	}

	result, err := h.importer.ImportJSON(data)
	if err != nil {
		h.respondImportError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// respondImportError keeps the three failure classes distinguishable at the
// HTTP boundary: rejected documents are 400s, write-phase failures are 500s
// whose message states whether the previous data survived.
func (h *BackupHandler) respondImportError(c *gin.Context, err error) {
	if errors.Is(err, backup.ErrNoDataSheets) ||
		errors.Is(err, backup.ErrNoValidRows) ||
		errors.Is(err, backup.ErrInvalidFormat) {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	h.logger.Error("backup restore failed", zap.Error(err))
	c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
}
