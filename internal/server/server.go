// Package server exposes the web UI and JSON API: video info extraction,
// download start, status polling and the downloads listing.
package server

import (
	"context"
	"errors"
	"net/http"
	"path/filepath"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"golang.org/x/time/rate"

	"vgrab/internal/download"
	"vgrab/internal/model"
	"vgrab/internal/ytdlp"
)

// Server wires the echo router to the extractor and download manager.
type Server struct {
	cfg       *model.Config
	extractor ytdlp.Extractor
	manager   *download.Manager
	echo      *echo.Echo
}

func New(cfg *model.Config, extractor ytdlp.Extractor, manager *download.Manager) *Server {
	s := &Server{
		cfg:       cfg,
		extractor: extractor,
		manager:   manager,
		echo:      echo.New(),
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	e := s.echo
	e.HideBanner = true
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.RateLimiterWithConfig(middleware.RateLimiterConfig{
		Store: middleware.NewRateLimiterMemoryStoreWithConfig(middleware.RateLimiterMemoryStoreConfig{
			Rate:      rate.Limit(s.cfg.RateLimit),
			Burst:     s.cfg.RateBurst,
			ExpiresIn: 3 * time.Minute,
		}),
	}))

	e.File("/", filepath.Join(s.cfg.StaticDir, "index.html"))
	e.Static("/static", s.cfg.StaticDir)

	e.POST("/get_info", s.handleGetInfo)
	e.POST("/download", s.handleDownload)
	e.GET("/status", s.handleStatus)
	e.GET("/downloads", s.handleDownloads)
}

// infoRequest is the JSON body of /get_info and /download.
type infoRequest struct {
	URL      string `json:"url" form:"url"`
	FormatID string `json:"format_id" form:"format_id"`
	Filename string `json:"filename" form:"filename"`
}

func fail(c echo.Context, code int, msg string) error {
	return c.JSON(code, map[string]any{"success": false, "error": msg})
}

func (s *Server) handleGetInfo(c echo.Context) error {
	ctx, span := tracer.Start(c.Request().Context(), "get_info")
	defer span.End()

	var req infoRequest
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "invalid request body")
	}
	if !ytdlp.IsValidURL(req.URL) {
		return fail(c, http.StatusBadRequest, model.ErrInvalidURL.Error())
	}

	extractCtx, cancel := context.WithTimeout(ctx, 60*time.Second)
	defer cancel()
	info, err := s.extractor.ExtractInfo(extractCtx, req.URL)
	if err != nil {
		span.RecordError(err)
		if errors.Is(err, model.ErrNoFormats) {
			return fail(c, http.StatusUnprocessableEntity, err.Error())
		}
		return fail(c, http.StatusBadGateway, err.Error())
	}

	return c.JSON(http.StatusOK, map[string]any{
		"success":     true,
		"title":       info.Title,
		"duration":    info.DurationStr,
		"uploader":    info.Uploader,
		"upload_date": info.UploadDate,
		"view_count":  info.ViewCount,
		"description": info.Description,
		"thumbnail":   info.Thumbnail,
		"site":        info.Site,
		"formats":     info.Formats,
	})
}

func (s *Server) handleDownload(c echo.Context) error {
	_, span := tracer.Start(c.Request().Context(), "download")
	defer span.End()

	var req infoRequest
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "invalid request body")
	}

	jobID, err := s.manager.Start(&model.DownloadRequest{
		URL:      req.URL,
		FormatID: req.FormatID,
		Filename: req.Filename,
		OutPath:  s.cfg.DownloadPath,
	})
	if err != nil {
		span.RecordError(err)
		if errors.Is(err, model.ErrDownloadInProgress) {
			return fail(c, http.StatusConflict, err.Error())
		}
		return fail(c, http.StatusBadRequest, err.Error())
	}

	return c.JSON(http.StatusOK, map[string]any{
		"success": true,
		"message": "Download started",
		"job_id":  jobID,
	})
}

func (s *Server) handleStatus(c echo.Context) error {
	return c.JSON(http.StatusOK, s.manager.Status())
}

func (s *Server) handleDownloads(c echo.Context) error {
	files, err := download.ListDownloads(s.cfg.DownloadPath)
	if err != nil {
		return fail(c, http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, map[string]any{
		"success": true,
		"files":   files,
	})
}

// Start blocks serving HTTP until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) Start(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- s.echo.Start(s.cfg.ListenAddr)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return s.echo.Shutdown(shutdownCtx)
	}
}

// Handler exposes the router for tests.
func (s *Server) Handler() http.Handler {
	return s.echo
}
