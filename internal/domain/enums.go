package domain

import "strings"

// FileType represents the document file types accepted for extraction.
type FileType string

const (
	FileTypeText FileType = "txt"
	FileTypeJPG  FileType = "jpg"
	FileTypePNG  FileType = "png"
	FileTypeGIF  FileType = "gif"
	FileTypeWEBP FileType = "webp"
)

// AllowedFileTypes maps FileType to its MIME content type.
var AllowedFileTypes = map[FileType]string{
	FileTypeText: "text/plain",
	FileTypeJPG:  "image/jpeg",
	FileTypePNG:  "image/png",
	FileTypeGIF:  "image/gif",
	FileTypeWEBP: "image/webp",
}

// AllowedImageContentTypes lists the image MIME types a gateway can receive inline.
var AllowedImageContentTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/gif":  true,
	"image/webp": true,
}

// AllowedExtensions maps file extensions (without dot) to FileType.
var AllowedExtensions = map[string]FileType{
	"txt":  FileTypeText,
	"text": FileTypeText,
	"md":   FileTypeText,
	"jpg":  FileTypeJPG,
	"jpeg": FileTypeJPG,
	"png":  FileTypePNG,
	"gif":  FileTypeGIF,
	"webp": FileTypeWEBP,
}

// DefaultImageContentType is assumed when an image arrives without a MIME type.
const DefaultImageContentType = "image/jpeg"

// ContentTypeForExtension resolves a file extension (with or without the dot)
// to its MIME type.
func ContentTypeForExtension(ext string) (string, error) {
	ext = strings.ToLower(strings.TrimPrefix(ext, "."))
	ft, ok := AllowedExtensions[ext]
	if !ok {
		return "", ErrUnsupportedFileType
	}
	return AllowedFileTypes[ft], nil
}

// DocumentType is the label a classifier assigns to a document.
type DocumentType string

const (
	DocumentTypeStandard        DocumentType = "STANDARD"
	DocumentTypePurchaseOrder   DocumentType = "PURCHASE_ORDER"
	DocumentTypeReceipt         DocumentType = "RECEIPT"
	DocumentTypeProforma        DocumentType = "PROFORMA"
	DocumentTypeCreditNote      DocumentType = "CREDIT_NOTE"
	DocumentTypeUnknown         DocumentType = "UNKNOWN"
	DocumentTypeBillOfLading    DocumentType = "BILL_OF_LADING"
	DocumentTypeDeliveryReceipt DocumentType = "DELIVERY_RECEIPT"
)

// IsLogistics reports whether the type belongs to the shipping document family,
// which has no invoice record to extract.
func (t DocumentType) IsLogistics() bool {
	return t == DocumentTypeBillOfLading || t == DocumentTypeDeliveryReceipt
}

// Taxonomy is a named, closed set of document types a classifier may answer with.
type Taxonomy struct {
	Name  string
	Types []DocumentType
}

// Contains reports whether t is a member of the taxonomy.
func (tx Taxonomy) Contains(t DocumentType) bool {
	for _, member := range tx.Types {
		if member == t {
			return true
		}
	}
	return false
}

// Lookup matches a raw label case-insensitively against the taxonomy.
func (tx Taxonomy) Lookup(label string) (DocumentType, bool) {
	candidate := DocumentType(strings.ToUpper(strings.TrimSpace(label)))
	if candidate == "" || !tx.Contains(candidate) {
		return DocumentTypeUnknown, false
	}
	return candidate, true
}

// Labels returns the taxonomy members as strings, in declaration order.
func (tx Taxonomy) Labels() []string {
	out := make([]string, len(tx.Types))
	for i, t := range tx.Types {
		out[i] = string(t)
	}
	return out
}

var (
	// InvoiceTaxonomy is the closed set used for single-document extraction.
	InvoiceTaxonomy = Taxonomy{
		Name: "invoice",
		Types: []DocumentType{
			DocumentTypeStandard,
			DocumentTypePurchaseOrder,
			DocumentTypeReceipt,
			DocumentTypeProforma,
			DocumentTypeCreditNote,
			DocumentTypeUnknown,
		},
	}

	// ShippingTaxonomy covers the logistics document family.
	ShippingTaxonomy = Taxonomy{
		Name: "shipping",
		Types: []DocumentType{
			DocumentTypeBillOfLading,
			DocumentTypeDeliveryReceipt,
			DocumentTypeUnknown,
		},
	}

	// DetectionTaxonomy is the union used by batch type detection.
	DetectionTaxonomy = Taxonomy{
		Name: "detection",
		Types: []DocumentType{
			DocumentTypeStandard,
			DocumentTypePurchaseOrder,
			DocumentTypeReceipt,
			DocumentTypeProforma,
			DocumentTypeCreditNote,
			DocumentTypeBillOfLading,
			DocumentTypeDeliveryReceipt,
			DocumentTypeUnknown,
		},
	}
)

// DocumentState is a step in the per-document batch lifecycle.
type DocumentState string

const (
	StatePending           DocumentState = "PENDING"
	StateClassifying       DocumentState = "CLASSIFYING"
	StateExtracting        DocumentState = "EXTRACTING"
	StateSkippedExtraction DocumentState = "SKIPPED_EXTRACTION"
	StateDone              DocumentState = "DONE"
	StateFailed            DocumentState = "FAILED"
)

var stateTransitions = map[DocumentState][]DocumentState{
	StatePending:           {StateClassifying},
	StateClassifying:       {StateExtracting, StateSkippedExtraction},
	StateExtracting:        {StateDone},
	StateSkippedExtraction: {StateDone},
}

// CanTransition reports whether the lifecycle allows moving from one state to
// another. Any non-terminal state may move to FAILED.
func CanTransition(from, to DocumentState) bool {
	if from == StateDone || from == StateFailed {
		return false
	}
	if to == StateFailed {
		return true
	}
	for _, next := range stateTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// DiagnosticKind identifies a non-fatal quality signal.
type DiagnosticKind string

const (
	DiagnosticLowConfidence DiagnosticKind = "low_confidence_extraction"
)
