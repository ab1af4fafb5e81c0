package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/yourusername/ytdl-go/api/handlers"
	"github.com/yourusername/ytdl-go/api/middleware"
	"github.com/yourusername/ytdl-go/internal/app"
)

// SetupRouter sets up the HTTP router. logsDir holds the process logs served
// under /api/v1/logs.
func SetupRouter(downloadMgr *app.DownloadManager, logsDir string, log *zap.Logger, version string) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()

	router.Use(middleware.Logger(log))
	router.Use(middleware.Recovery(log))
	router.Use(middleware.CORS())

	// Health endpoints
	healthHandler := handlers.NewHealthHandler(downloadMgr, version)
	router.GET("/health", healthHandler.Health)
	router.GET("/ready", healthHandler.Ready)

	// API v1 routes
	v1 := router.Group("/api/v1")
	{
		downloadHandler := handlers.NewDownloadHandler(downloadMgr, log)
		progressHandler := handlers.NewProgressWebSocketHandler(downloadMgr, log)
		logHandler := handlers.NewLogHandler(logsDir, downloadMgr, log)
		downloads := v1.Group("/downloads")
		{
			downloads.POST("", downloadHandler.AddDownload)
			downloads.GET("", downloadHandler.ListDownloads)
			downloads.GET("/stats", downloadHandler.GetStats)
			downloads.GET("/:id", downloadHandler.GetDownload)
			downloads.GET("/:id/progress", downloadHandler.GetProgress)
			downloads.GET("/:id/ws", progressHandler.HandleWebSocket)
			downloads.GET("/:id/log", logHandler.GetDownloadLog)
			downloads.POST("/:id/cancel", downloadHandler.CancelDownload)
			downloads.POST("/:id/retry", downloadHandler.RetryDownload)
			downloads.DELETE("/:id", downloadHandler.DeleteDownload)
		}

		logs := v1.Group("/logs")
		{
			logs.GET("", logHandler.GetLogs)
			logs.GET("/days", logHandler.GetDays)
			logs.GET("/export", logHandler.ExportLogs)
		}
	}

	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	})

	return router
}
