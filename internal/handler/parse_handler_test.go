package handler_test

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"docparse/internal/domain"
	"docparse/internal/handler"
	"docparse/internal/parser"
	"docparse/internal/service"
	"docparse/mocks"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newParseHandler(ext *mocks.MockExtractionService, batch *mocks.MockBatchService) *handler.ParseHandler {
	return handler.NewParseHandler(ext, batch, service.BatchOptions{Concurrency: 4, Extract: true}, nil)
}

func postJSON(t *testing.T, path string, body interface{}) (*httptest.ResponseRecorder, *gin.Context) {
	t.Helper()
	raw, err := json.Marshal(body)
	require.NoError(t, err)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request, _ = http.NewRequest(http.MethodPost, path, bytes.NewReader(raw))
	c.Request.Header.Set("Content-Type", "application/json")
	return w, c
}

func decode(t *testing.T, w *httptest.ResponseRecorder) handler.APIResponse {
	t.Helper()
	var resp handler.APIResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func TestParseHandler_ParseText_Success(t *testing.T) {
	ext := new(mocks.MockExtractionService)
	h := newParseHandler(ext, nil)

	rec := &domain.ExtractedRecord{InvoiceNumber: "INV-1", VendorName: "Acme", Currency: "USD", Items: []domain.LineItem{}}
	ext.On("ParseText", mock.Anything, "INVOICE INV-1", service.ParseOptions{SkipClassification: true}).Return(rec, nil)

	w, c := postJSON(t, "/api/v1/parse/text", map[string]interface{}{"text": "INVOICE INV-1", "skipClassification": true})
	h.ParseText(c)

	assert.Equal(t, http.StatusOK, w.Code)
	resp := decode(t, w)
	assert.True(t, resp.Success)
	data := resp.Data.(map[string]interface{})
	assert.Equal(t, "INV-1", data["invoiceNumber"])
	ext.AssertExpectations(t)
}

func TestParseHandler_ParseText_MissingText(t *testing.T) {
	ext := new(mocks.MockExtractionService)
	h := newParseHandler(ext, nil)

	w, c := postJSON(t, "/api/v1/parse/text", map[string]interface{}{})
	h.ParseText(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	resp := decode(t, w)
	assert.False(t, resp.Success)
	assert.Equal(t, "text is required", resp.Error)
	ext.AssertNotCalled(t, "ParseText", mock.Anything, mock.Anything, mock.Anything)
}

func TestParseHandler_ParseText_ErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
		retryAfter string
	}{
		{"no content", domain.ErrNoContent, http.StatusBadGateway, "NO_CONTENT", ""},
		{"malformed", fmt.Errorf("%w: unexpected end (raw: {)", domain.ErrMalformedResponse), http.StatusBadGateway, "MALFORMED_RESPONSE", ""},
		{"backend down", fmt.Errorf("extraction request: %w", parser.NewBackendError("openai", 500, errors.New("boom"))), http.StatusBadGateway, "BACKEND_UNAVAILABLE", ""},
		{"rate limited", parser.NewRateLimitError("openai", errors.New("slow down"), 30), http.StatusServiceUnavailable, "BACKEND_RATE_LIMITED", "30"},
		{"invalid input", fmt.Errorf("%w: text is empty", domain.ErrInvalidInput), http.StatusBadRequest, "INVALID_REQUEST", ""},
		{"unexpected", errors.New("kaboom"), http.StatusInternalServerError, "INTERNAL_ERROR", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ext := new(mocks.MockExtractionService)
			h := newParseHandler(ext, nil)
			ext.On("ParseText", mock.Anything, "x", service.ParseOptions{}).Return(nil, tt.err)

			w, c := postJSON(t, "/api/v1/parse/text", map[string]interface{}{"text": "x"})
			h.ParseText(c)

			assert.Equal(t, tt.wantStatus, w.Code)
			resp := decode(t, w)
			assert.False(t, resp.Success)
			assert.Equal(t, tt.err.Error(), resp.Error)
			assert.Equal(t, tt.wantCode, resp.Code)
			assert.Equal(t, tt.retryAfter, w.Header().Get("Retry-After"))
		})
	}
}

func TestParseHandler_ParseImage(t *testing.T) {
	ext := new(mocks.MockExtractionService)
	h := newParseHandler(ext, nil)

	img := []byte{0x89, 'P', 'N', 'G'}
	ext.On("ParseImage", mock.Anything, img, "image/png", service.ParseOptions{}).
		Return(&domain.ExtractedRecord{InvoiceNumber: "R-1"}, nil)

	w, c := postJSON(t, "/api/v1/parse/image", map[string]interface{}{
		"image":    base64.StdEncoding.EncodeToString(img),
		"mimeType": "image/png",
	})
	h.ParseImage(c)

	assert.Equal(t, http.StatusOK, w.Code)
	ext.AssertExpectations(t)
}

func TestParseHandler_ParseImage_BadBase64(t *testing.T) {
	ext := new(mocks.MockExtractionService)
	h := newParseHandler(ext, nil)

	w, c := postJSON(t, "/api/v1/parse/image", map[string]interface{}{"image": "%%%not-base64"})
	h.ParseImage(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "image must be base64 encoded", decode(t, w).Error)
}

func TestParseHandler_ParseImage_Unsupported(t *testing.T) {
	ext := new(mocks.MockExtractionService)
	h := newParseHandler(ext, nil)
	ext.On("ParseImage", mock.Anything, mock.Anything, "application/pdf", service.ParseOptions{}).
		Return(nil, fmt.Errorf("%w: application/pdf", domain.ErrUnsupportedFileType))

	w, c := postJSON(t, "/api/v1/parse/image", map[string]interface{}{
		"image":    base64.StdEncoding.EncodeToString([]byte("%PDF")),
		"mimeType": "application/pdf",
	})
	h.ParseImage(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "UNSUPPORTED_FILE_TYPE", decode(t, w).Code)
}

func TestParseHandler_Classify(t *testing.T) {
	ext := new(mocks.MockExtractionService)
	h := newParseHandler(ext, nil)
	ext.On("Classify", mock.Anything, mock.MatchedBy(func(d *domain.Document) bool {
		return d.Text == "RECEIPT #9"
	})).Return(domain.Classification{Type: domain.DocumentTypeReceipt, Confidence: 0.8}, nil)

	w, c := postJSON(t, "/api/v1/classify", map[string]interface{}{"text": "RECEIPT #9"})
	h.Classify(c)

	assert.Equal(t, http.StatusOK, w.Code)
	data := decode(t, w).Data.(map[string]interface{})
	assert.Equal(t, "RECEIPT", data["type"])
	assert.Equal(t, 0.8, data["confidence"])
}

func TestParseHandler_ParseBatch(t *testing.T) {
	batch := new(mocks.MockBatchService)
	h := newParseHandler(nil, batch)

	img := []byte{0xff, 0xd8}
	results := []domain.BatchResult{
		{ID: "a", State: domain.StateDone, Classification: &domain.Classification{Type: domain.DocumentTypeStandard, Confidence: 0.9}},
		{ID: "b", State: domain.StateFailed, FailedStage: domain.StateExtracting, Error: "backend returned no content"},
	}
	batch.On("ProcessDocuments", mock.Anything, []domain.Document{
		{ID: "a", Text: "invoice"},
		{ID: "b", Image: img, MimeType: "image/jpeg"},
	}, service.BatchOptions{Concurrency: 2, Extract: false}).Return(results)

	w, c := postJSON(t, "/api/v1/parse/batch", map[string]interface{}{
		"documents": []map[string]interface{}{
			{"id": "a", "text": "invoice"},
			{"id": "b", "image": base64.StdEncoding.EncodeToString(img), "mimeType": "image/jpeg"},
		},
		"extract":     false,
		"concurrency": 2,
	})
	h.ParseBatch(c)

	assert.Equal(t, http.StatusOK, w.Code)
	resp := decode(t, w)
	assert.True(t, resp.Success)
	data := resp.Data.([]interface{})
	require.Len(t, data, 2)
	assert.Equal(t, "FAILED", data[1].(map[string]interface{})["state"])
	assert.Equal(t, "EXTRACTING", data[1].(map[string]interface{})["failedStage"])
	batch.AssertExpectations(t)
}

func TestParseHandler_ParseBatch_Defaults(t *testing.T) {
	batch := new(mocks.MockBatchService)
	h := newParseHandler(nil, batch)
	batch.On("ProcessDocuments", mock.Anything, mock.Anything, service.BatchOptions{Concurrency: 4, Extract: true}).
		Return([]domain.BatchResult{{ID: "x", State: domain.StateDone}})

	w, c := postJSON(t, "/api/v1/parse/batch", map[string]interface{}{
		"documents": []map[string]interface{}{{"text": "invoice"}},
	})
	h.ParseBatch(c)

	assert.Equal(t, http.StatusOK, w.Code)
	batch.AssertExpectations(t)
}

func TestParseHandler_ParseBatch_Invalid(t *testing.T) {
	tests := []struct {
		name string
		body map[string]interface{}
	}{
		{"missing documents", map[string]interface{}{}},
		{"empty documents", map[string]interface{}{"documents": []interface{}{}}},
		{"bad image", map[string]interface{}{"documents": []map[string]interface{}{{"image": "!!"}}}},
		{"concurrency too high", map[string]interface{}{"documents": []map[string]interface{}{{"text": "x"}}, "concurrency": 1000}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			batch := new(mocks.MockBatchService)
			h := newParseHandler(nil, batch)

			w, c := postJSON(t, "/api/v1/parse/batch", tt.body)
			h.ParseBatch(c)

			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.False(t, decode(t, w).Success)
			batch.AssertNotCalled(t, "ProcessDocuments", mock.Anything, mock.Anything, mock.Anything)
		})
	}
}

func TestHealthHandler_Liveness(t *testing.T) {
	h := handler.NewHealthHandler("openai", "gpt-4o")

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request, _ = http.NewRequest(http.MethodGet, "/healthz", nil)
	h.Liveness(c)

	assert.Equal(t, http.StatusOK, w.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, "openai", body["provider"])
}
