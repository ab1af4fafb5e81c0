package handlers

import (
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/yourusername/ytdl-go/internal/app"
	"github.com/yourusername/ytdl-go/pkg/logger"
)

const (
	defaultLogLimit = 200
	maxLogLimit     = 5000
)

// LogHandler serves the raw downloader output logs
type LogHandler struct {
	reader      *logger.ProcessLogReader
	downloadMgr *app.DownloadManager
	logger      *zap.Logger
}

// NewLogHandler creates a new log handler
func NewLogHandler(logsDir string, downloadMgr *app.DownloadManager, log *zap.Logger) *LogHandler {
	return &LogHandler{
		reader:      logger.NewProcessLogReader(logsDir),
		downloadMgr: downloadMgr,
		logger:      log,
	}
}

// GetDays handles GET /api/v1/logs/days
func (h *LogHandler) GetDays(c *gin.Context) {
	days, err := h.reader.Days()
	if err != nil {
		h.logger.Error("Failed to list logs", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list logs"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"days": days})
}

// GetLogs handles GET /api/v1/logs?date=YYYY-MM-DD&limit=N
func (h *LogHandler) GetLogs(c *gin.Context) {
	date, ok := parseLogDate(c)
	if !ok {
		return
	}
	h.respondLines(c, date, "")
}

// GetDownloadLog handles GET /api/v1/downloads/:id/log
func (h *LogHandler) GetDownloadLog(c *gin.Context) {
	download, err := h.downloadMgr.GetDownload(c.Param("id"))
	if err != nil {
		respondManagerError(c, h.logger, "Failed to get download", err)
		return
	}

	// a download that never started has no output yet
	if download.StartedAt == nil {
		c.JSON(http.StatusOK, gin.H{"id": download.ID, "count": 0, "lines": []string{}})
		return
	}
	h.respondLines(c, *download.StartedAt, download.ID)
}

// ExportLogs handles GET /api/v1/logs/export?date=YYYY-MM-DD
func (h *LogHandler) ExportLogs(c *gin.Context) {
	date, ok := parseLogDate(c)
	if !ok {
		return
	}

	path := h.reader.Path(date)
	if _, err := os.Stat(path); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "no log for " + date.Format("2006-01-02")})
		return
	}

	c.FileAttachment(path, "download-"+date.Format("20060102")+".log")
}

func (h *LogHandler) respondLines(c *gin.Context, date time.Time, id string) {
	lines, err := h.reader.ReadLines(date, id, parseLogLimit(c))
	if err != nil {
		h.logger.Error("Failed to read logs", zap.String("date", date.Format("2006-01-02")), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to read logs"})
		return
	}

	body := gin.H{
		"date":  date.Format("2006-01-02"),
		"count": len(lines),
		"lines": lines,
	}
	if id != "" {
		body["id"] = id
	}
	c.JSON(http.StatusOK, body)
}

func parseLogDate(c *gin.Context) (time.Time, bool) {
	dateStr := c.Query("date")
	if dateStr == "" {
		return time.Now(), true
	}

	date, err := time.ParseInLocation("2006-01-02", dateStr, time.Local)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid date format, use YYYY-MM-DD"})
		return time.Time{}, false
	}
	return date, true
}

func parseLogLimit(c *gin.Context) int {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(defaultLogLimit)))
	if err != nil || limit < 0 {
		return defaultLogLimit
	}
	if limit == 0 || limit > maxLogLimit {
		return maxLogLimit
	}
	return limit
}
