package report_test

import (
	"bytes"
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docparse/internal/report"
)

func TestCSVWriter_Header(t *testing.T) {
	var buf bytes.Buffer
	w := report.NewCSVWriter(&buf)
	require.NoError(t, w.WriteHeader())
	w.Flush()
	require.NoError(t, w.Error())

	row, err := csv.NewReader(&buf).Read()
	require.NoError(t, err)

	assert.Len(t, row, 16)
	assert.Equal(t, "Document", row[0])
	assert.Equal(t, "Error", row[15])
}

func TestCSVWriter_Results(t *testing.T) {
	var buf bytes.Buffer
	w := report.NewCSVWriter(&buf)
	require.NoError(t, w.WriteResults(sampleResults()))
	w.Flush()
	require.NoError(t, w.Error())

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)

	done := rows[0]
	assert.Equal(t, "a.txt", done[0])
	assert.Equal(t, "DONE", done[1])
	assert.Equal(t, "", done[2])
	assert.Equal(t, "STANDARD", done[3])
	assert.Equal(t, "0.9", done[4])
	assert.Equal(t, "INV-1", done[5])
	assert.Equal(t, "13.00", done[10])
	assert.Equal(t, "1.50", done[11])
	assert.Equal(t, "14.50", done[12])
	assert.Equal(t, "2", done[14])

	logistics := rows[1]
	assert.Equal(t, "BILL_OF_LADING", logistics[3])
	assert.Equal(t, "", logistics[5])
	assert.Equal(t, "", logistics[14])

	failed := rows[2]
	assert.Equal(t, "FAILED", failed[1])
	assert.Equal(t, "PENDING", failed[2])
	assert.Equal(t, "", failed[3])
	assert.Equal(t, "document not found: missing.txt", failed[15])
}

func TestWriteCSVFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.csv")
	require.NoError(t, report.WriteCSVFile(path, sampleResults()))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	require.True(t, bytes.HasPrefix(raw, report.BOM))

	rows, err := csv.NewReader(bytes.NewReader(raw[len(report.BOM):])).ReadAll()
	require.NoError(t, err)
	assert.Len(t, rows, 4)
	assert.Equal(t, "Document", rows[0][0])
}

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		input, want string
	}{
		{"Q1 invoices", "Q1_invoices"},
		{"a/b\\c", "a_b_c"},
		{"__weird!!name__", "weird_name"},
		{"keep-dash_and_underscore", "keep-dash_and_underscore"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, report.SanitizeFilename(tt.input), tt.input)
	}
}

func TestBuildFilename(t *testing.T) {
	day := time.Date(2025, 3, 9, 12, 0, 0, 0, time.UTC)
	assert.Equal(t, "vendor_run_2025-03-09.csv", report.BuildFilename("vendor run", "csv", day))
	assert.Equal(t, "batch_2025-03-09.xlsx", report.BuildFilename("!!!", ".xlsx", day))
}
