package report_test

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"docparse/internal/domain"
	"docparse/internal/report"
)

func sampleResults() []domain.BatchResult {
	tax := 1.5
	return []domain.BatchResult{
		{
			ID:             "a.txt",
			State:          domain.StateDone,
			Classification: &domain.Classification{Type: domain.DocumentTypeStandard, Confidence: 0.9},
			Record: &domain.ExtractedRecord{
				InvoiceNumber: "INV-1",
				InvoiceDate:   "2024-01-15",
				VendorName:    "Acme",
				Items: []domain.LineItem{
					{Description: "Widget", Quantity: 2, UnitPrice: 5, Amount: 10},
					{Description: "Gadget", Quantity: 1, UnitPrice: 3, Amount: 3},
				},
				Subtotal:    13,
				Tax:         &tax,
				TotalAmount: 14.5,
				Currency:    "USD",
			},
		},
		{
			ID:             "bol.txt",
			State:          domain.StateDone,
			Classification: &domain.Classification{Type: domain.DocumentTypeBillOfLading, Confidence: 0.8},
		},
		{
			ID:          "missing.txt",
			State:       domain.StateFailed,
			FailedStage: domain.StatePending,
			Error:       "document not found: missing.txt",
		},
	}
}

func TestWrite(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, report.Write(&buf, sampleResults()))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer func() { _ = f.Close() }()

	assert.Equal(t, []string{"Results", "LineItems"}, f.GetSheetList())

	rows, err := f.GetRows("Results")
	require.NoError(t, err)
	require.Len(t, rows, 4)
	assert.Equal(t, "Document", rows[0][0])
	assert.Equal(t, []string{"a.txt", "DONE", "", "STANDARD", "0.9", "INV-1", "2024-01-15", "", "Acme", "", "13", "1.5", "14.5", "USD", "2"}, rows[1])
	assert.Equal(t, "BILL_OF_LADING", rows[2][3])
	assert.Equal(t, "FAILED", rows[3][1])
	assert.Equal(t, "PENDING", rows[3][2])
	assert.Equal(t, "document not found: missing.txt", rows[3][15])

	items, err := f.GetRows("LineItems")
	require.NoError(t, err)
	require.Len(t, items, 3)
	assert.Equal(t, []string{"a.txt", "1", "Widget", "2", "5", "10"}, items[1])
	assert.Equal(t, []string{"a.txt", "2", "Gadget", "1", "3", "3"}, items[2])
}

func TestWriteFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.xlsx")

	require.NoError(t, report.WriteFile(path, nil))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Positive(t, info.Size())
}
