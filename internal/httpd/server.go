// Package httpd implements the read-only ops HTTP API: health, run logs,
// and stored notices.
package httpd

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jonesrussell/bidcrawl/internal/database"
	"github.com/jonesrussell/bidcrawl/internal/logger"
)

const (
	readHeaderTimeout = 10 * time.Second
	defaultListLimit  = 50
	maxListLimit      = 500
)

// Server serves the ops API.
type Server struct {
	notices *database.NoticeRepository
	logs    *database.LogRepository
	log     logger.Interface
}

// NewServer creates an ops API server.
func NewServer(
	notices *database.NoticeRepository,
	logs *database.LogRepository,
	log logger.Interface,
) *Server {
	return &Server{notices: notices, logs: logs, log: log}
}

// Router builds the configured Gin router.
func (s *Server) Router() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(s.loggingMiddleware())

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	v1 := router.Group("/api/v1")
	v1.GET("/logs", s.listLogs)
	v1.GET("/notices", s.listNotices)

	return router
}

// Serve runs the HTTP server until ctx is done.
func (s *Server) Serve(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: readHeaderTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	s.log.Info("ops api listening", "addr", addr)

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

// listLogs handles GET /api/v1/logs
func (s *Server) listLogs(c *gin.Context) {
	logs, err := s.logs.Recent(c.Request.Context(), parseLimit(c))
	if err != nil {
		s.log.Error("failed to list logs", "error", err.Error())
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list logs"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"logs": logs, "count": len(logs)})
}

// listNotices handles GET /api/v1/notices. Filters on ?category= when given.
func (s *Server) listNotices(c *gin.Context) {
	ctx := c.Request.Context()
	limit := parseLimit(c)

	var err error
	var notices any
	if category := c.Query("category"); category != "" {
		notices, err = s.notices.ListByCategory(ctx, category, limit)
	} else {
		notices, err = s.notices.Recent(ctx, limit)
	}
	if err != nil {
		s.log.Error("failed to list notices", "error", err.Error())
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list notices"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"notices": notices})
}

// parseLimit reads the limit query parameter with bounds applied.
func parseLimit(c *gin.Context) int {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(defaultListLimit)))
	if err != nil || limit <= 0 {
		return defaultListLimit
	}
	if limit > maxListLimit {
		return maxListLimit
	}
	return limit
}

// loggingMiddleware logs each request with latency.
func (s *Server) loggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.log.Debug("http request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration", time.Since(start).String())
	}
}
