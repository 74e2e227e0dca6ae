package handler

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/finextract/ocr-financial-extraction/dto"
	"github.com/finextract/ocr-financial-extraction/export"
	"github.com/finextract/ocr-financial-extraction/logger"
	"github.com/finextract/ocr-financial-extraction/parser"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Extractor runs the extraction pipeline on a file on disk.
type Extractor interface {
	Extract(ctx context.Context, path string, kind dto.DocumentKind, opts parser.Options) (*dto.Table, error)
}

// TableStore persists an extracted table.
type TableStore interface {
	SaveTable(ctx context.Context, documentID uuid.UUID, source string, table *dto.Table) (int, error)
}

// ExtractHandler handles document uploads.
type ExtractHandler struct {
	extractor   Extractor
	store       TableStore
	maxFileSize int64
}

// NewExtractHandler creates a new ExtractHandler. store may be nil, in which
// case persist requests are answered without saving.
func NewExtractHandler(extractor Extractor, store TableStore, maxFileSize int64) *ExtractHandler {
	return &ExtractHandler{
		extractor:   extractor,
		store:       store,
		maxFileSize: maxFileSize,
	}
}

// Extract handles the POST /api/v1/extract/:kind endpoint
func (h *ExtractHandler) Extract(c *gin.Context) {
	requestID := uuid.New()
	log := logger.FromContext(c.Request.Context()).With().Str("request_id", requestID.String()).Logger()
	ctx := logger.WithContext(c.Request.Context(), log)

	kind, err := dto.ParseDocumentKind(c.Param("kind"))
	if err != nil {
		h.sendError(c, http.StatusBadRequest, "INVALID_REQUEST", "Unknown document kind", err)
		return
	}

	file, err := c.FormFile("file")
	if err != nil {
		h.sendError(c, http.StatusBadRequest, "INVALID_REQUEST", "A file is required", err)
		return
	}
	if h.maxFileSize > 0 && file.Size > h.maxFileSize {
		h.sendError(c, http.StatusRequestEntityTooLarge, "FILE_TOO_LARGE",
			fmt.Sprintf("File exceeds %d bytes", h.maxFileSize), nil)
		return
	}

	request := &dto.ExtractRequest{
		File:           file,
		Kind:           kind,
		Format:         strings.ToLower(c.DefaultQuery("format", "json")),
		OpeningBalance: strings.TrimSpace(c.PostForm("opening_balance")),
		Persist:        c.Query("persist") == "true" || c.PostForm("persist") == "true",
	}
	if err := request.Validate(); err != nil {
		if errors.Is(err, dto.ErrUnsupportedFormat) {
			h.sendError(c, http.StatusUnsupportedMediaType, "UNSUPPORTED_FORMAT", err.Error(), err)
			return
		}
		h.sendError(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error(), err)
		return
	}
	format, err := export.ParseFormat(request.Format)
	if err != nil {
		h.sendError(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error(), err)
		return
	}

	var opts parser.Options
	if request.OpeningBalance != "" {
		// already validated
		opts.OpeningBalance = decimal.NewNullDecimal(decimal.RequireFromString(request.OpeningBalance))
	}

	// The extractor picks the decoder from the extension, so the temp file keeps it.
	tempFile, err := os.CreateTemp("", "finextract-*"+strings.ToLower(filepath.Ext(file.Filename)))
	if err != nil {
		h.sendError(c, http.StatusInternalServerError, "EXTRACTION_FAILED", "Failed to store upload", err)
		return
	}
	tempPath := tempFile.Name()
	tempFile.Close()
	defer os.Remove(tempPath)

	if err := c.SaveUploadedFile(file, tempPath); err != nil {
		h.sendError(c, http.StatusInternalServerError, "EXTRACTION_FAILED", "Failed to store upload", err)
		return
	}

	log.Info().Str("filename", file.Filename).Str("kind", kind.String()).Int64("size", file.Size).Msg("processing upload")

	table, err := h.extractor.Extract(ctx, tempPath, kind, opts)
	if err != nil {
		status, code := statusForError(err)
		h.sendError(c, status, code, "Failed to extract document", err)
		return
	}

	persisted := false
	if request.Persist {
		if h.store == nil {
			log.Warn().Msg("persist requested but no database is configured")
		} else {
			n, err := h.store.SaveTable(ctx, requestID, file.Filename, table)
			if err != nil {
				h.sendError(c, http.StatusInternalServerError, "PERSIST_FAILED", "Failed to save records", err)
				return
			}
			log.Info().Int("rows", n).Msg("records saved")
			persisted = true
		}
	}

	if format == export.FormatJSON {
		c.JSON(http.StatusOK, dto.ExtractResponse{
			RequestID:   requestID.String(),
			Filename:    file.Filename,
			Table:       table,
			Records:     table.Len(),
			Persisted:   persisted,
			ProcessedAt: time.Now().Format(time.RFC3339),
		})
		return
	}

	var buf bytes.Buffer
	if err := export.Write(&buf, table, format); err != nil {
		h.sendError(c, http.StatusInternalServerError, "EXTRACTION_FAILED", "Failed to encode table", err)
		return
	}
	name := strings.TrimSuffix(file.Filename, filepath.Ext(file.Filename)) + "." + string(format)
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	c.Header("X-Request-ID", requestID.String())
	c.Data(http.StatusOK, format.ContentType(), buf.Bytes())
}

// statusForError maps pipeline errors to an HTTP status and error code.
func statusForError(err error) (int, string) {
	switch {
	case errors.Is(err, dto.ErrUnsupportedFormat):
		return http.StatusUnsupportedMediaType, "UNSUPPORTED_FORMAT"
	case errors.Is(err, dto.ErrImageDecode):
		return http.StatusUnprocessableEntity, "IMAGE_DECODE_FAILED"
	case errors.Is(err, dto.ErrOCRUnavailable):
		return http.StatusServiceUnavailable, "OCR_UNAVAILABLE"
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, "EXTRACTION_TIMEOUT"
	default:
		return http.StatusInternalServerError, "EXTRACTION_FAILED"
	}
}

// sendError sends a structured error response
func (h *ExtractHandler) sendError(c *gin.Context, statusCode int, code, message string, err error) {
	errorMsg := message
	if err != nil {
		errorMsg = err.Error()
		log := logger.FromContext(c.Request.Context())
		log.Error().Err(err).Int("status", statusCode).Msg(message)
	}

	c.JSON(statusCode, dto.ErrorResponse{
		Error:   code,
		Message: errorMsg,
		Code:    statusCode,
	})
}
