package parser

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"docparse/internal/domain"
)

const (
	defaultCurrency = "USD"
	dateLayout      = "2006-01-02"
)

// Normalizer turns a RawRecord into a well-formed ExtractedRecord. It never
// fails: absent or falsy required fields receive defaults, and a
// low-confidence Diagnostic is returned when sentinels remain.
type Normalizer struct {
	now func() time.Time
}

// NewNormalizer creates a Normalizer using the wall clock for default dates.
func NewNormalizer() *Normalizer {
	return &Normalizer{now: time.Now}
}

// NewNormalizerWithClock creates a Normalizer with a fixed clock (for testing).
func NewNormalizerWithClock(now func() time.Time) *Normalizer {
	return &Normalizer{now: now}
}

// Normalize builds the record. cls is attached unmodified; fields named in
// extensionFields are copied into Extensions when present.
func (n *Normalizer) Normalize(raw RawRecord, cls *domain.Classification, extensionFields ...string) (*domain.ExtractedRecord, []domain.Diagnostic) {
	rec := &domain.ExtractedRecord{
		InvoiceNumber:   stringField(raw, "invoiceNumber"),
		InvoiceDate:     stringField(raw, "invoiceDate"),
		DueDate:         stringField(raw, "dueDate"),
		VendorName:      stringField(raw, "vendorName"),
		VendorAddress:   stringField(raw, "vendorAddress"),
		CustomerName:    stringField(raw, "customerName"),
		CustomerAddress: stringField(raw, "customerAddress"),
		Items:           itemsField(raw, "items"),
		Subtotal:        numberField(raw, "subtotal"),
		TotalAmount:     numberField(raw, "totalAmount"),
		Currency:        stringField(raw, "currency"),
		PaymentTerms:    stringField(raw, "paymentTerms"),
		Classification:  cls,
	}
	if tax, ok := numberValue(raw["tax"]); ok {
		rec.Tax = &tax
	}

	if rec.InvoiceNumber == "" {
		rec.InvoiceNumber = domain.UnknownValue
	}
	if rec.VendorName == "" {
		rec.VendorName = domain.UnknownValue
	}
	if rec.Currency == "" {
		rec.Currency = defaultCurrency
	}
	if rec.InvoiceDate == "" {
		rec.InvoiceDate = n.now().Format(dateLayout)
	}
	if rec.Subtotal == 0 {
		rec.Subtotal = rec.TotalAmount
	}

	for _, name := range extensionFields {
		if v, ok := raw[name]; ok && v != nil {
			if rec.Extensions == nil {
				rec.Extensions = map[string]any{}
			}
			rec.Extensions[name] = v
		}
	}

	return rec, lowConfidenceDiagnostics(rec)
}

func lowConfidenceDiagnostics(rec *domain.ExtractedRecord) []domain.Diagnostic {
	var missing []string
	if rec.InvoiceNumber == domain.UnknownValue {
		missing = append(missing, "invoiceNumber")
	}
	if rec.VendorName == domain.UnknownValue {
		missing = append(missing, "vendorName")
	}
	if len(missing) == 0 {
		return nil
	}
	return []domain.Diagnostic{{
		Kind:    domain.DiagnosticLowConfidence,
		Fields:  missing,
		Message: fmt.Sprintf("low-confidence extraction: %s defaulted to %s", strings.Join(missing, ", "), domain.UnknownValue),
	}}
}

// stringField reads a text field. Numbers are formatted; other shapes count as absent.
func stringField(raw RawRecord, key string) string {
	switch v := raw[key].(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return ""
	}
}

// numberField reads a numeric field, returning 0 when absent or unparseable.
func numberField(raw RawRecord, key string) float64 {
	f, _ := numberValue(raw[key])
	return f
}

// numberValue accepts JSON numbers and numeric strings.
func numberValue(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

func itemsField(raw RawRecord, key string) []domain.LineItem {
	list, _ := raw[key].([]any)
	items := make([]domain.LineItem, 0, len(list))
	for _, entry := range list {
		obj, ok := entry.(map[string]any)
		if !ok {
			continue
		}
		row := RawRecord(obj)
		items = append(items, domain.LineItem{
			Description: stringField(row, "description"),
			Quantity:    numberField(row, "quantity"),
			UnitPrice:   numberField(row, "unitPrice"),
			Amount:      numberField(row, "amount"),
		})
	}
	return items
}
