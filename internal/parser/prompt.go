package parser

import (
	"encoding/json"
	"strings"

	"docparse/internal/domain"
)

// typeDescriptions is the guidance shown to the backend for each label it may choose.
var typeDescriptions = map[domain.DocumentType]string{
	domain.DocumentTypeStandard:        "a regular commercial invoice requesting payment for goods or services",
	domain.DocumentTypePurchaseOrder:   "a buyer-issued order authorizing a purchase, usually with a PO number and ship-to address",
	domain.DocumentTypeReceipt:         "proof of a completed payment, often from a point of sale, with a payment method",
	domain.DocumentTypeProforma:        "a preliminary or quotation invoice sent before goods are delivered",
	domain.DocumentTypeCreditNote:      "a document reducing the amount owed on a previous invoice",
	domain.DocumentTypeBillOfLading:    "a carrier-issued document of title listing shipped goods, shipper and consignee",
	domain.DocumentTypeDeliveryReceipt: "a signed acknowledgement that goods were delivered to the consignee",
	domain.DocumentTypeUnknown:         "anything that does not clearly match another type",
}

// BuildClassificationPrompt returns the closed-taxonomy classification instruction.
// It enumerates exactly the taxonomy's labels.
func BuildClassificationPrompt(tx domain.Taxonomy) string {
	var b strings.Builder
	b.WriteString("You are a document classification assistant. Decide which type of financial or logistics document the provided content is.\n\n")
	b.WriteString("Choose exactly one of these types: ")
	b.WriteString(strings.Join(tx.Labels(), ", "))
	b.WriteString(".\n\nType guide:\n")
	for _, t := range tx.Types {
		b.WriteString("- ")
		b.WriteString(string(t))
		b.WriteString(": ")
		b.WriteString(typeDescriptions[t])
		b.WriteString("\n")
	}
	b.WriteString(`
Return ONLY a JSON object with no markdown formatting and no explanation:
{
  "type": "<one of the types above>",
  "confidence": <number between 0.0 and 1.0>,
  "possibleTypes": ["<other plausible types, most plausible first>"]
}`)
	return b.String()
}

const genericExtractionInstruction = `You are a document data extraction assistant. Extract the financial record contained in the provided document.

IMPORTANT INSTRUCTIONS:
- Extract EVERY line item into the "items" array. Do not skip, summarize, or merge items.
- Normalize all dates to YYYY-MM-DD. Strip times and annotations.
- Currency must be a 3-letter ISO 4217 code.
- Numbers must be plain JSON numbers without currency symbols or thousands separators.
- If a field is not present in the document, omit it. Never invent values.

Return ONLY valid JSON with no markdown formatting, no code fences, no explanation.`

// baseRecordProperties is the generic ExtractedRecord schema sent to the backend.
func baseRecordProperties() map[string]any {
	return map[string]any{
		"invoiceNumber":   map[string]any{"type": "string"},
		"invoiceDate":     map[string]any{"type": "string", "description": "YYYY-MM-DD"},
		"dueDate":         map[string]any{"type": "string", "description": "YYYY-MM-DD"},
		"vendorName":      map[string]any{"type": "string"},
		"vendorAddress":   map[string]any{"type": "string"},
		"customerName":    map[string]any{"type": "string"},
		"customerAddress": map[string]any{"type": "string"},
		"items": map[string]any{
			"type": "array",
			"items": map[string]any{
				"type": "object",
				"properties": map[string]any{
					"description": map[string]any{"type": "string"},
					"quantity":    map[string]any{"type": "number"},
					"unitPrice":   map[string]any{"type": "number"},
					"amount":      map[string]any{"type": "number"},
				},
			},
		},
		"subtotal":     map[string]any{"type": "number"},
		"tax":          map[string]any{"type": "number"},
		"totalAmount":  map[string]any{"type": "number"},
		"currency":     map[string]any{"type": "string", "description": "ISO 4217"},
		"paymentTerms": map[string]any{"type": "string"},
	}
}

var baseRequired = []string{"invoiceNumber", "invoiceDate", "vendorName", "items", "totalAmount", "currency"}

// BuildRecordSchema returns the JSON Schema for an extraction reply, extended with
// the fields of ext when it is non-nil.
func BuildRecordSchema(ext *SchemaExtension) map[string]any {
	props := baseRecordProperties()
	if ext != nil {
		for name, field := range ext.Fields {
			props[name] = field.property()
		}
	}
	return map[string]any{
		"type":       "object",
		"properties": props,
		"required":   baseRequired,
	}
}

func mustJSON(v any) string {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "{}"
	}
	return string(b)
}
