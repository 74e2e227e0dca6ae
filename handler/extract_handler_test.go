package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/finextract/ocr-financial-extraction/dto"
	"github.com/finextract/ocr-financial-extraction/logger"
	"github.com/finextract/ocr-financial-extraction/parser"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeExtractor struct {
	table  *dto.Table
	err    error
	called bool
	ext    string
	opts   parser.Options
}

func (f *fakeExtractor) Extract(_ context.Context, path string, _ dto.DocumentKind, opts parser.Options) (*dto.Table, error) {
	f.called = true
	f.ext = filepath.Ext(path)
	f.opts = opts
	return f.table, f.err
}

type fakeStore struct {
	source string
	err    error
}

func (f *fakeStore) SaveTable(_ context.Context, _ uuid.UUID, source string, table *dto.Table) (int, error) {
	f.source = source
	return table.Len(), f.err
}

func init() {
	gin.SetMode(gin.TestMode)
}

func statementTable() *dto.Table {
	table := dto.NewTable(dto.KindTransaction)
	table.Transactions = []dto.TransactionRecord{{
		Date:        dto.NewDate(time.Date(2023, 2, 1, 0, 0, 0, 0, time.UTC)),
		Description: "Grocery Store",
		Credit:      decimal.RequireFromString("45"),
		Balance:     decimal.RequireFromString("955"),
	}}
	table.Projection = []dto.ProjectionRow{{Category: "Grocery Store", Amount: decimal.RequireFromString("45")}}
	return table
}

func newTestRouter(ext Extractor, store TableStore) *gin.Engine {
	var buf bytes.Buffer
	return NewRouter(NewExtractHandler(ext, store, 1<<20), logger.NewWithWriter(&buf))
}

func upload(t *testing.T, router *gin.Engine, target, filename string, fields map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	if filename != "" {
		part, err := w.CreateFormFile("file", filename)
		require.NoError(t, err)
		_, err = part.Write([]byte("fake document bytes"))
		require.NoError(t, err)
	}
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, target, &body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestExtractJSON(t *testing.T) {
	ext := &fakeExtractor{table: statementTable()}
	rec := upload(t, newTestRouter(ext, nil), "/api/v1/extract/bank_statement", "Statement.PDF",
		map[string]string{"opening_balance": "1000.00"})

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, ".pdf", ext.ext)
	require.True(t, ext.opts.OpeningBalance.Valid)
	assert.True(t, decimal.NewFromInt(1000).Equal(ext.opts.OpeningBalance.Decimal))

	var resp struct {
		RequestID string `json:"request_id"`
		Filename  string `json:"filename"`
		Records   int    `json:"records"`
		Persisted bool   `json:"persisted"`
		Table     struct {
			Transactions []map[string]any `json:"transactions"`
		} `json:"table"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.RequestID)
	assert.Equal(t, "Statement.PDF", resp.Filename)
	assert.Equal(t, 1, resp.Records)
	assert.False(t, resp.Persisted)
	require.Len(t, resp.Table.Transactions, 1)
	assert.Equal(t, "01-02-2023", resp.Table.Transactions[0]["date"])
}

func TestExtractCSV(t *testing.T) {
	ext := &fakeExtractor{table: statementTable()}
	rec := upload(t, newTestRouter(ext, nil), "/api/v1/extract/bank_statement?format=csv", "statement.png", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/csv")
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "statement.csv")
	assert.True(t, strings.HasPrefix(rec.Body.String(), "date,description,debit,credit,balance,category\n"))
}

func TestExtractPersist(t *testing.T) {
	store := &fakeStore{}
	rec := upload(t, newTestRouter(&fakeExtractor{table: statementTable()}, store),
		"/api/v1/extract/bank_statement?persist=true", "statement.jpg", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "statement.jpg", store.source)
	assert.Contains(t, rec.Body.String(), `"persisted":true`)
}

func TestExtractPersistFailure(t *testing.T) {
	store := &fakeStore{err: errors.New("connection refused")}
	rec := upload(t, newTestRouter(&fakeExtractor{table: statementTable()}, store),
		"/api/v1/extract/bank_statement?persist=true", "statement.jpg", nil)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "PERSIST_FAILED")
}

func TestExtractRejectsBadRequests(t *testing.T) {
	cases := []struct {
		name     string
		target   string
		filename string
		fields   map[string]string
		want     int
	}{
		{"unknown kind", "/api/v1/extract/payslip", "a.pdf", nil, http.StatusBadRequest},
		{"missing file", "/api/v1/extract/invoice", "", nil, http.StatusBadRequest},
		{"unsupported extension", "/api/v1/extract/invoice", "a.docx", nil, http.StatusUnsupportedMediaType},
		{"bad format", "/api/v1/extract/invoice?format=pdf", "a.pdf", nil, http.StatusBadRequest},
		{"bad opening balance", "/api/v1/extract/bank_statement", "a.pdf", map[string]string{"opening_balance": "lots"}, http.StatusBadRequest},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ext := &fakeExtractor{table: statementTable()}
			rec := upload(t, newTestRouter(ext, nil), tc.target, tc.filename, tc.fields)
			assert.Equal(t, tc.want, rec.Code)
			assert.False(t, ext.called)
		})
	}
}

func TestExtractMapsPipelineErrors(t *testing.T) {
	cases := []struct {
		err  error
		want int
		code string
	}{
		{&dto.ImageDecodeError{Err: errors.New("unexpected EOF")}, http.StatusUnprocessableEntity, "IMAGE_DECODE_FAILED"},
		{&dto.OCRUnavailableError{Op: "recognize", Err: errors.New("no tessdata")}, http.StatusServiceUnavailable, "OCR_UNAVAILABLE"},
		{&dto.UnsupportedFormatError{Ext: ".gif"}, http.StatusUnsupportedMediaType, "UNSUPPORTED_FORMAT"},
		{context.DeadlineExceeded, http.StatusGatewayTimeout, "EXTRACTION_TIMEOUT"},
		{errors.New("boom"), http.StatusInternalServerError, "EXTRACTION_FAILED"},
	}
	for _, tc := range cases {
		rec := upload(t, newTestRouter(&fakeExtractor{err: tc.err}, nil), "/api/v1/extract/invoice", "invoice.pdf", nil)
		assert.Equal(t, tc.want, rec.Code)

		var resp dto.ErrorResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, tc.code, resp.Error)
		assert.Equal(t, tc.want, resp.Code)
	}
}

func TestHealthAndMetrics(t *testing.T) {
	router := newTestRouter(&fakeExtractor{}, nil)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "healthy")

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}
