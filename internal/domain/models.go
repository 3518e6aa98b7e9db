package domain

// ConfidenceThreshold is the confidence below which callers should treat a
// classification as uncertain.
const ConfidenceThreshold = 0.7

// UnknownValue is the sentinel written into required text fields the backend omitted.
const UnknownValue = "UNKNOWN"

// Document is a single unit of input to the extraction pipeline. Exactly one of
// Text or Image carries the content.
type Document struct {
	ID       string `json:"id"`
	Text     string `json:"text,omitempty"`
	Image    []byte `json:"-"`
	MimeType string `json:"mimeType,omitempty"`
}

// IsImage reports whether the document content is an image payload.
func (d *Document) IsImage() bool {
	return len(d.Image) > 0
}

// IsEmpty reports whether the document carries no content at all.
func (d *Document) IsEmpty() bool {
	return len(d.Image) == 0 && d.Text == ""
}

// Classification is the decided document type plus confidence and runner-up types.
type Classification struct {
	Type          DocumentType      `json:"type"`
	Confidence    float64           `json:"confidence"`
	PossibleTypes []DocumentType    `json:"possibleTypes,omitempty"`
	Metadata      map[string]string `json:"metadata,omitempty"`
}

// UnknownClassification is the degraded result used whenever classification fails.
func UnknownClassification() Classification {
	return Classification{Type: DocumentTypeUnknown, Confidence: 0}
}

// IsUncertain reports whether the confidence falls below ConfidenceThreshold.
func (c *Classification) IsUncertain() bool {
	return c.Confidence < ConfidenceThreshold
}

// LineItem is a single row of an extracted record.
type LineItem struct {
	Description string  `json:"description"`
	Quantity    float64 `json:"quantity"`
	UnitPrice   float64 `json:"unitPrice"`
	Amount      float64 `json:"amount"`
}

// ExtractedRecord is the normalized invoice-like record produced by the pipeline.
// Required fields are always populated; optional ones use pointers or omitempty.
type ExtractedRecord struct {
	InvoiceNumber   string          `json:"invoiceNumber"`
	InvoiceDate     string          `json:"invoiceDate"`
	DueDate         string          `json:"dueDate,omitempty"`
	VendorName      string          `json:"vendorName"`
	VendorAddress   string          `json:"vendorAddress,omitempty"`
	CustomerName    string          `json:"customerName,omitempty"`
	CustomerAddress string          `json:"customerAddress,omitempty"`
	Items           []LineItem      `json:"items"`
	Subtotal        float64         `json:"subtotal"`
	Tax             *float64        `json:"tax,omitempty"`
	TotalAmount     float64         `json:"totalAmount"`
	Currency        string          `json:"currency"`
	PaymentTerms    string          `json:"paymentTerms,omitempty"`
	Classification  *Classification `json:"classification,omitempty"`

	// Extensions holds fields declared by a per-type strategy schema
	// (for example shipToAddress on purchase orders).
	Extensions map[string]any `json:"extensions,omitempty"`
}

// Diagnostic is a non-fatal quality signal raised while normalizing a record.
type Diagnostic struct {
	Kind    DiagnosticKind `json:"kind"`
	Fields  []string       `json:"fields,omitempty"`
	Message string         `json:"message"`
}

// BatchResult is the outcome of one document in a batch. On success Classification
// is set and Error is empty; on failure only Error and FailedStage are set.
type BatchResult struct {
	ID             string           `json:"id"`
	State          DocumentState    `json:"state"`
	FailedStage    DocumentState    `json:"failedStage,omitempty"`
	Classification *Classification  `json:"classification,omitempty"`
	Record         *ExtractedRecord `json:"data,omitempty"`
	Error          string           `json:"error,omitempty"`
}

// Succeeded reports whether the document finished without error.
func (r *BatchResult) Succeeded() bool {
	return r.State == StateDone && r.Error == ""
}
