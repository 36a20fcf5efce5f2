package handlers

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html/template"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"legaltriad-backend/models"
	"legaltriad-backend/repository"
	"legaltriad-backend/service"
	"legaltriad-backend/storage"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	defaultRunLimit = 20
	maxRunLimit     = 100
)

// RunLog reads the submission audit trail
type RunLog interface {
	ListRecent(ctx context.Context, limit int) ([]*models.AnalysisRun, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.AnalysisRun, error)
}

// SessionHandler serves the single study session over HTTP
type SessionHandler struct {
	session          *service.Session
	analysis         *service.AnalysisService
	storage          storage.Storage
	runs             RunLog
	templates        *template.Template
	logger           *zap.Logger
	maxFileSize      int64
	allowedMimeTypes map[string]bool
}

// NewSessionHandler creates a session handler. store may be nil, which
// disables export archiving; runs may be nil when no database is configured.
func NewSessionHandler(
	session *service.Session,
	analysis *service.AnalysisService,
	store storage.Storage,
	runs RunLog,
	templates *template.Template,
	logger *zap.Logger,
	maxFileSize int64,
) *SessionHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SessionHandler{
		session:     session,
		analysis:    analysis,
		storage:     store,
		runs:        runs,
		templates:   templates,
		logger:      logger,
		maxFileSize: maxFileSize,
		allowedMimeTypes: map[string]bool{
			"application/pdf":   true,
			"application/x-pdf": true,
		},
	}
}

// Register mounts the session API on a router group
func (h *SessionHandler) Register(api *gin.RouterGroup) {
	api.GET("/session", h.GetSession)
	api.PUT("/session/topic", h.SetTopic)
	api.POST("/session/files/:category", h.AddFiles)
	api.DELETE("/session/files/:category/:index", h.RemoveFile)
	api.POST("/session/process", h.Process)
	api.POST("/session/reset", h.Reset)
	api.GET("/session/export", h.ExportView)
	api.POST("/session/export", h.ArchiveExport)
	api.GET("/exports/*path", h.GetExport)
	api.DELETE("/exports/*path", h.DeleteExport)
	api.GET("/runs", h.ListRuns)
	api.GET("/runs/:id", h.GetRun)
}

func respondError(c *gin.Context, status int, code, message string) {
	c.JSON(status, gin.H{
		"success": false,
		"error": gin.H{
			"code":    code,
			"message": message,
		},
	})
}

func respondData(c *gin.Context, status int, data interface{}) {
	c.JSON(status, gin.H{
		"success": true,
		"data":    data,
	})
}

// Index handles GET /
func (h *SessionHandler) Index(c *gin.Context) {
	c.HTML(http.StatusOK, "index.html", gin.H{
		"State": h.session.Snapshot(),
	})
}

// GetSession handles GET /api/session
func (h *SessionHandler) GetSession(c *gin.Context) {
	respondData(c, http.StatusOK, h.session.Snapshot())
}

// SetTopicRequest is the body of PUT /api/session/topic
type SetTopicRequest struct {
	Topic string `json:"topic"`
}

// SetTopic handles PUT /api/session/topic
func (h *SessionHandler) SetTopic(c *gin.Context) {
	var req SetTopicRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}
	h.session.SetTopic(req.Topic)
	respondData(c, http.StatusOK, h.session.Snapshot())
}

// AddFiles handles POST /api/session/files/:category
func (h *SessionHandler) AddFiles(c *gin.Context) {
	category, err := models.ParseCategory(c.Param("category"))
	if err != nil {
		respondError(c, http.StatusBadRequest, "INVALID_CATEGORY", err.Error())
		return
	}

	form, err := c.MultipartForm()
	if err != nil {
		respondError(c, http.StatusBadRequest, "INVALID_FORM", "multipart form with a \"files\" field is required")
		return
	}
	headers := form.File["files"]
	if len(headers) == 0 {
		respondError(c, http.StatusBadRequest, "MISSING_FILE", "at least one file is required")
		return
	}
	if !category.Cumulative() && len(headers) > 1 {
		respondError(c, http.StatusBadRequest, "SINGLE_FILE_ONLY", "the law picker accepts a single file")
		return
	}

	files := make([]service.RawFile, 0, len(headers))
	for _, fh := range headers {
		if fh.Size > h.maxFileSize {
			respondError(c, http.StatusBadRequest, "FILE_TOO_LARGE",
				fmt.Sprintf("%s exceeds the maximum of %d bytes", fh.Filename, h.maxFileSize))
			return
		}
		if !h.acceptable(fh) {
			respondError(c, http.StatusBadRequest, "INVALID_FILE_TYPE",
				fmt.Sprintf("%s is not a PDF", fh.Filename))
			return
		}
		files = append(files, multipartFile{fh})
	}

	set, err := h.session.AddFiles(c.Request.Context(), category, files)
	if err != nil {
		if errors.Is(err, service.ErrSubmissionInFlight) {
			respondError(c, http.StatusConflict, "SUBMISSION_IN_FLIGHT", service.UserMessage(err))
			return
		}
		h.logger.Warn("failed to encode batch", zap.String("category", string(category)), zap.Error(err))
		respondError(c, http.StatusUnprocessableEntity, "FILE_READ_ERROR", service.UserMessage(err))
		return
	}

	respondData(c, http.StatusOK, gin.H{
		"category": category,
		"files":    set,
	})
}

// RemoveFile handles DELETE /api/session/files/:category/:index
func (h *SessionHandler) RemoveFile(c *gin.Context) {
	category, err := models.ParseCategory(c.Param("category"))
	if err != nil {
		respondError(c, http.StatusBadRequest, "INVALID_CATEGORY", err.Error())
		return
	}
	index, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		respondError(c, http.StatusBadRequest, "INVALID_INDEX", "index must be an integer")
		return
	}

	set, err := h.session.RemoveFile(category, index)
	switch {
	case errors.Is(err, service.ErrIndexOutOfRange):
		respondError(c, http.StatusNotFound, "NOT_FOUND", err.Error())
		return
	case errors.Is(err, service.ErrSubmissionInFlight):
		respondError(c, http.StatusConflict, "SUBMISSION_IN_FLIGHT", service.UserMessage(err))
		return
	case err != nil:
		respondError(c, http.StatusInternalServerError, "REMOVE_FAILED", err.Error())
		return
	}

	respondData(c, http.StatusOK, gin.H{
		"category": category,
		"files":    set,
	})
}

// Process handles POST /api/session/process. Pre-flight failures answer
// immediately; the reasoning call itself runs in the background and the
// client polls GET /api/session.
func (h *SessionHandler) Process(c *gin.Context) {
	sub, err := h.analysis.Start(c.Request.Context(), h.session)
	if err != nil {
		status := http.StatusBadRequest
		switch {
		case errors.Is(err, service.ErrSubmissionInFlight):
			status = http.StatusConflict
		case errors.Is(err, service.ErrConfiguration):
			status = http.StatusServiceUnavailable
		}
		respondError(c, status, strings.ToUpper(service.ErrorKind(err)), service.UserMessage(err))
		return
	}

	go func() {
		// outcome is stored on the session; the error is already logged
		_, _ = h.analysis.Run(sub)
	}()

	respondData(c, http.StatusAccepted, h.session.Snapshot())
}

// Reset handles POST /api/session/reset
func (h *SessionHandler) Reset(c *gin.Context) {
	h.session.Reset()
	respondData(c, http.StatusOK, h.session.Snapshot())
}

// ExportView handles GET /api/session/export: a print-ready page the
// browser's own print dialog turns into a PDF
func (h *SessionHandler) ExportView(c *gin.Context) {
	result := h.session.Result()
	if result == nil {
		respondError(c, http.StatusNotFound, "NO_RESULT", service.ErrNoResult.Error())
		return
	}
	c.HTML(http.StatusOK, "sheet.html", result)
}

// ArchiveExport handles POST /api/session/export
func (h *SessionHandler) ArchiveExport(c *gin.Context) {
	if h.storage == nil {
		respondError(c, http.StatusServiceUnavailable, "STORAGE_DISABLED", "export storage is not configured")
		return
	}
	result := h.session.Result()
	if result == nil {
		respondError(c, http.StatusNotFound, "NO_RESULT", service.ErrNoResult.Error())
		return
	}

	var buf bytes.Buffer
	if err := h.templates.ExecuteTemplate(&buf, "sheet.html", result); err != nil {
		h.logger.Error("failed to render export", zap.Error(err))
		respondError(c, http.StatusInternalServerError, "RENDER_FAILED", err.Error())
		return
	}

	// statute names carry slashes ("Lei 8.072/90")
	filename := strings.NewReplacer("/", "-", "\\", "-").Replace(result.LawName) + ".html"
	exportID := uuid.New()
	path, err := h.storage.Save(c.Request.Context(), exportID, filename, &buf)
	if err != nil {
		h.logger.Error("failed to archive export", zap.Error(err))
		respondError(c, http.StatusInternalServerError, "EXPORT_FAILED", err.Error())
		return
	}

	respondData(c, http.StatusCreated, gin.H{
		"export_id":    exportID,
		"storage_path": path,
		"url":          "/api/exports/" + path,
	})
}

// GetExport handles GET /api/exports/*path: serves an archived sheet
func (h *SessionHandler) GetExport(c *gin.Context) {
	if h.storage == nil {
		respondError(c, http.StatusServiceUnavailable, "STORAGE_DISABLED", "export storage is not configured")
		return
	}
	storagePath := strings.TrimPrefix(c.Param("path"), "/")
	if storagePath == "" {
		respondError(c, http.StatusBadRequest, "INVALID_PATH", "export path is required")
		return
	}

	rc, err := h.storage.Open(c.Request.Context(), storagePath)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			respondError(c, http.StatusNotFound, "NOT_FOUND", "export not found")
			return
		}
		h.logger.Warn("failed to open export", zap.String("path", storagePath), zap.Error(err))
		respondError(c, http.StatusBadRequest, "EXPORT_UNAVAILABLE", "export could not be opened")
		return
	}
	defer rc.Close()

	c.DataFromReader(http.StatusOK, -1, storage.ContentType(storagePath), rc, nil)
}

// DeleteExport handles DELETE /api/exports/*path
func (h *SessionHandler) DeleteExport(c *gin.Context) {
	if h.storage == nil {
		respondError(c, http.StatusServiceUnavailable, "STORAGE_DISABLED", "export storage is not configured")
		return
	}
	storagePath := strings.TrimPrefix(c.Param("path"), "/")
	if storagePath == "" {
		respondError(c, http.StatusBadRequest, "INVALID_PATH", "export path is required")
		return
	}

	if err := h.storage.Delete(c.Request.Context(), storagePath); err != nil {
		h.logger.Warn("failed to delete export", zap.String("path", storagePath), zap.Error(err))
		respondError(c, http.StatusBadRequest, "DELETE_FAILED", "export could not be deleted")
		return
	}
	respondData(c, http.StatusOK, gin.H{"storage_path": storagePath})
}

// ListRuns handles GET /api/runs
func (h *SessionHandler) ListRuns(c *gin.Context) {
	if h.runs == nil {
		respondError(c, http.StatusServiceUnavailable, "RUNS_DISABLED", "run audit log is not configured")
		return
	}
	limit := defaultRunLimit
	if v := c.Query("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			respondError(c, http.StatusBadRequest, "INVALID_LIMIT", "limit must be a positive integer")
			return
		}
		limit = min(n, maxRunLimit)
	}

	runs, err := h.runs.ListRecent(c.Request.Context(), limit)
	if err != nil {
		h.logger.Error("failed to list runs", zap.Error(err))
		respondError(c, http.StatusInternalServerError, "INTERNAL_ERROR", "failed to list runs")
		return
	}
	respondData(c, http.StatusOK, runs)
}

// GetRun handles GET /api/runs/:id
func (h *SessionHandler) GetRun(c *gin.Context) {
	if h.runs == nil {
		respondError(c, http.StatusServiceUnavailable, "RUNS_DISABLED", "run audit log is not configured")
		return
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondError(c, http.StatusBadRequest, "INVALID_ID", "run id must be a UUID")
		return
	}

	run, err := h.runs.GetByID(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrRunNotFound) {
			respondError(c, http.StatusNotFound, "NOT_FOUND", err.Error())
			return
		}
		h.logger.Error("failed to get run", zap.Error(err))
		respondError(c, http.StatusInternalServerError, "INTERNAL_ERROR", "failed to get run")
		return
	}
	respondData(c, http.StatusOK, run)
}

// acceptable mirrors the picker's PDF-only constraint. A missing or generic
// declared type falls back to the file extension.
func (h *SessionHandler) acceptable(fh *multipart.FileHeader) bool {
	declared, _, err := mime.ParseMediaType(fh.Header.Get("Content-Type"))
	if err == nil && declared != "application/octet-stream" {
		return h.allowedMimeTypes[declared]
	}
	return strings.HasSuffix(strings.ToLower(fh.Filename), ".pdf")
}

// multipartFile adapts an uploaded part to service.RawFile
type multipartFile struct {
	fh *multipart.FileHeader
}

func (f multipartFile) Name() string     { return f.fh.Filename }
func (f multipartFile) MimeType() string { return f.fh.Header.Get("Content-Type") }
func (f multipartFile) Open() (io.ReadCloser, error) {
	return f.fh.Open()
}
