package handler

import (
	"encoding/base64"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"docparse/internal/domain"
	"docparse/internal/logger"
	"docparse/internal/service"
)

// maxBatchDocuments bounds a single HTTP batch request.
const maxBatchDocuments = 100

// ParseHandler handles extraction and classification endpoints.
type ParseHandler struct {
	extractionService service.ExtractionService
	batchService      service.BatchService
	batchDefaults     service.BatchOptions
	log               *zap.Logger
}

// NewParseHandler creates a new ParseHandler. batchDefaults fills in options a
// batch request leaves out.
func NewParseHandler(
	extractionService service.ExtractionService,
	batchService service.BatchService,
	batchDefaults service.BatchOptions,
	log *zap.Logger,
) *ParseHandler {
	return &ParseHandler{
		extractionService: extractionService,
		batchService:      batchService,
		batchDefaults:     batchDefaults,
		log:               logger.OrNop(log),
	}
}

// ParseText handles POST /api/v1/parse/text
// @Summary Extract a record from text
// @Description Classify (unless skipped) and extract an invoice-like record from plain text
// @Tags parse
// @Accept json
// @Produce json
// @Param request body ParseTextRequest true "Document text"
// @Success 200 {object} Response{data=domain.ExtractedRecord} "Extracted record"
// @Failure 400 {object} ErrorResponseBody "Invalid request"
// @Failure 502 {object} ErrorResponseBody "Backend failure"
// @Failure 503 {object} ErrorResponseBody "Backend rate limited"
// @Router /parse/text [post]
func (h *ParseHandler) ParseText(c *gin.Context) {
	var req ParseTextRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_REQUEST", "text is required")
		return
	}

	rec, err := h.extractionService.ParseText(c.Request.Context(), req.Text, service.ParseOptions{
		SkipClassification: req.SkipClassification,
	})
	if err != nil {
		HandleError(c, h.log, err)
		return
	}

	RespondOK(c, rec)
}

// ParseImage handles POST /api/v1/parse/image
// @Summary Extract a record from an image
// @Description Classify (unless skipped) and extract an invoice-like record from a base64 image
// @Tags parse
// @Accept json
// @Produce json
// @Param request body ParseImageRequest true "Base64 image"
// @Success 200 {object} Response{data=domain.ExtractedRecord} "Extracted record"
// @Failure 400 {object} ErrorResponseBody "Invalid request or unsupported image type"
// @Failure 502 {object} ErrorResponseBody "Backend failure"
// @Failure 503 {object} ErrorResponseBody "Backend rate limited"
// @Router /parse/image [post]
func (h *ParseHandler) ParseImage(c *gin.Context) {
	var req ParseImageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_REQUEST", "image is required")
		return
	}

	img, err := base64.StdEncoding.DecodeString(req.Image)
	if err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_REQUEST", "image must be base64 encoded")
		return
	}

	rec, err := h.extractionService.ParseImage(c.Request.Context(), img, req.MimeType, service.ParseOptions{
		SkipClassification: req.SkipClassification,
	})
	if err != nil {
		HandleError(c, h.log, err)
		return
	}

	RespondOK(c, rec)
}

// Classify handles POST /api/v1/classify
// @Summary Classify a document
// @Description Decide the invoice-family type of a text document. Never fails on backend errors; degrades to UNKNOWN
// @Tags parse
// @Accept json
// @Produce json
// @Param request body ClassifyRequest true "Document text"
// @Success 200 {object} Response{data=domain.Classification} "Classification"
// @Failure 400 {object} ErrorResponseBody "Invalid request"
// @Router /classify [post]
func (h *ParseHandler) Classify(c *gin.Context) {
	var req ClassifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_REQUEST", "text is required")
		return
	}

	cls, err := h.extractionService.Classify(c.Request.Context(), &domain.Document{ID: "classify", Text: req.Text})
	if err != nil {
		HandleError(c, h.log, err)
		return
	}

	RespondOK(c, cls)
}

// ParseBatch handles POST /api/v1/parse/batch
// @Summary Process a batch of documents
// @Description Detect the type of every document and extract invoice-family ones. Per-document failures are reported in the results
// @Tags parse
// @Accept json
// @Produce json
// @Param request body BatchRequest true "Documents"
// @Success 200 {object} Response{data=[]domain.BatchResult} "Per-document results in input order"
// @Failure 400 {object} ErrorResponseBody "Invalid request"
// @Router /parse/batch [post]
func (h *ParseHandler) ParseBatch(c *gin.Context) {
	var req BatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_REQUEST", "documents is required")
		return
	}
	if len(req.Documents) > maxBatchDocuments {
		RespondError(c, http.StatusBadRequest, "INVALID_REQUEST", "too many documents in one batch")
		return
	}

	docs := make([]domain.Document, len(req.Documents))
	for i, d := range req.Documents {
		docs[i] = domain.Document{ID: d.ID, Text: d.Text, MimeType: d.MimeType}
		if d.Image != "" {
			img, err := base64.StdEncoding.DecodeString(d.Image)
			if err != nil {
				RespondError(c, http.StatusBadRequest, "INVALID_REQUEST", fmt.Sprintf("documents[%d].image must be base64 encoded", i))
				return
			}
			docs[i].Image = img
		}
	}

	opts := h.batchDefaults
	if req.Extract != nil {
		opts.Extract = *req.Extract
	}
	if req.Concurrency > 0 {
		opts.Concurrency = req.Concurrency
	}

	results := h.batchService.ProcessDocuments(c.Request.Context(), docs, opts)
	RespondOK(c, results)
}
