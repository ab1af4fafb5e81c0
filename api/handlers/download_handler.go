package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yourusername/ytdl-go/internal/app"
	"github.com/yourusername/ytdl-go/internal/domain"
	"go.uber.org/zap"
)

// DownloadHandler handles download-related HTTP requests
type DownloadHandler struct {
	downloadMgr *app.DownloadManager
	logger      *zap.Logger
}

// NewDownloadHandler creates a new download handler
func NewDownloadHandler(downloadMgr *app.DownloadManager, logger *zap.Logger) *DownloadHandler {
	return &DownloadHandler{
		downloadMgr: downloadMgr,
		logger:      logger,
	}
}

// AddDownloadRequest represents a request to add a download
type AddDownloadRequest struct {
	URL    string `json:"url" binding:"required"`
	Format string `json:"format,omitempty"`
}

// DownloadResponse is a download record with its live progress, if any
type DownloadResponse struct {
	*domain.Download
	Progress *domain.ProgressState `json:"progress,omitempty"`
}

// AddDownload handles POST /api/v1/downloads
func (h *DownloadHandler) AddDownload(c *gin.Context) {
	var req AddDownloadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	download, err := h.downloadMgr.AddDownload(c.Request.Context(), req.URL, req.Format)
	if err != nil {
		h.respondError(c, "Failed to add download", err)
		return
	}

	c.JSON(http.StatusCreated, download)
}

// GetDownload handles GET /api/v1/downloads/:id
func (h *DownloadHandler) GetDownload(c *gin.Context) {
	id := c.Param("id")

	download, err := h.downloadMgr.GetDownload(id)
	if err != nil {
		h.respondError(c, "Failed to get download", err)
		return
	}

	resp := DownloadResponse{Download: download}
	if progress, ok := h.downloadMgr.Progress(id); ok {
		resp.Progress = &progress
	}
	c.JSON(http.StatusOK, resp)
}

// GetProgress handles GET /api/v1/downloads/:id/progress
func (h *DownloadHandler) GetProgress(c *gin.Context) {
	progress, ok := h.downloadMgr.Progress(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "download has no running task"})
		return
	}
	c.JSON(http.StatusOK, progress)
}

// ListDownloads handles GET /api/v1/downloads
func (h *DownloadHandler) ListDownloads(c *gin.Context) {
	filters := make(map[string]interface{})

	if status := c.Query("status"); status != "" {
		if !domain.ValidateStatus(domain.DownloadStatus(status)) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "unknown status: " + status})
			return
		}
		filters["status"] = status
	}

	downloads, err := h.downloadMgr.ListDownloads(filters)
	if err != nil {
		h.respondError(c, "Failed to list downloads", err)
		return
	}
	if downloads == nil {
		downloads = []*domain.Download{}
	}

	c.JSON(http.StatusOK, downloads)
}

// GetStats handles GET /api/v1/downloads/stats
func (h *DownloadHandler) GetStats(c *gin.Context) {
	stats, err := h.downloadMgr.GetStats()
	if err != nil {
		h.respondError(c, "Failed to get stats", err)
		return
	}

	c.JSON(http.StatusOK, stats)
}

// CancelDownload handles POST /api/v1/downloads/:id/cancel
func (h *DownloadHandler) CancelDownload(c *gin.Context) {
	id := c.Param("id")

	if err := h.downloadMgr.CancelDownload(id); err != nil {
		h.respondError(c, "Failed to cancel download", err)
		return
	}

	c.JSON(http.StatusAccepted, gin.H{"message": "download cancellation requested"})
}

// RetryDownload handles POST /api/v1/downloads/:id/retry
func (h *DownloadHandler) RetryDownload(c *gin.Context) {
	id := c.Param("id")

	download, err := h.downloadMgr.RetryDownload(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, "Failed to retry download", err)
		return
	}

	c.JSON(http.StatusOK, download)
}

// DeleteDownload handles DELETE /api/v1/downloads/:id
func (h *DownloadHandler) DeleteDownload(c *gin.Context) {
	id := c.Param("id")

	if err := h.downloadMgr.DeleteDownload(id); err != nil {
		h.respondError(c, "Failed to delete download", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "download deleted"})
}

func (h *DownloadHandler) respondError(c *gin.Context, msg string, err error) {
	respondManagerError(c, h.logger, msg, err)
}

// respondManagerError maps manager errors onto HTTP status codes
func respondManagerError(c *gin.Context, log *zap.Logger, msg string, err error) {
	switch {
	case errors.Is(err, domain.ErrDownloadNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, app.ErrInvalidRequest):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, app.ErrInvalidState):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		log.Error(msg, zap.String("id", c.Param("id")), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}
