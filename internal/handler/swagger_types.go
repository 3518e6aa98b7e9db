package handler

// Request and response bodies. Besides binding requests, these types are
// referenced by the swag annotations on the handlers.

// --- Request Types ---

// ParseTextRequest represents the parse text request body.
type ParseTextRequest struct {
	Text               string `json:"text" binding:"required" example:"INVOICE INV-2024-001\nAcme Supplies\nTotal: 120.00 USD"`
	SkipClassification bool   `json:"skipClassification" example:"false"`
}

// ParseImageRequest represents the parse image request body.
type ParseImageRequest struct {
	Image              string `json:"image" binding:"required" example:"/9j/4AAQSkZJRgABAQ..."`
	MimeType           string `json:"mimeType" example:"image/jpeg"`
	SkipClassification bool   `json:"skipClassification" example:"false"`
}

// ClassifyRequest represents the classify request body.
type ClassifyRequest struct {
	Text string `json:"text" binding:"required" example:"PURCHASE ORDER PO-7781"`
}

// BatchDocument is one in-memory document of a batch request. Exactly one of
// Text or Image is expected.
type BatchDocument struct {
	ID       string `json:"id" example:"invoice-001"`
	Text     string `json:"text"`
	Image    string `json:"image"`
	MimeType string `json:"mimeType" example:"image/png"`
}

// BatchRequest represents the batch request body.
type BatchRequest struct {
	Documents   []BatchDocument `json:"documents" binding:"required,min=1,dive"`
	Extract     *bool           `json:"extract" example:"true"`
	Concurrency int             `json:"concurrency" binding:"omitempty,min=1,max=32" example:"4"`
}

// --- Response Types ---

// Response is the success envelope.
type Response struct {
	Success bool        `json:"success" example:"true"`
	Data    interface{} `json:"data"`
}

// ErrorResponseBody is the failure envelope.
type ErrorResponseBody struct {
	Success bool   `json:"success" example:"false"`
	Error   string `json:"error" example:"backend returned no content"`
	Code    string `json:"code" example:"NO_CONTENT"`
}
