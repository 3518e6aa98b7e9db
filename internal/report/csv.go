package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	"docparse/internal/domain"
)

// BOM is the UTF-8 byte order mark, written first so spreadsheet apps on
// Windows pick the right encoding.
var BOM = []byte{0xEF, 0xBB, 0xBF}

// CSVWriter writes batch results as CSV with the same columns as the
// workbook's Results sheet.
type CSVWriter struct {
	csv *csv.Writer
}

// NewCSVWriter creates a CSVWriter that writes to w.
func NewCSVWriter(w io.Writer) *CSVWriter {
	return &CSVWriter{csv: csv.NewWriter(w)}
}

// WriteHeader writes the header row.
func (w *CSVWriter) WriteHeader() error {
	return w.csv.Write(resultColumns)
}

// WriteResults converts results to CSV rows and writes them.
func (w *CSVWriter) WriteResults(results []domain.BatchResult) error {
	for i := range results {
		if err := w.csv.Write(resultToRecord(&results[i])); err != nil {
			return err
		}
	}
	return nil
}

// Flush flushes the underlying csv.Writer buffer.
func (w *CSVWriter) Flush() {
	w.csv.Flush()
}

// Error returns any error from the underlying csv.Writer.
func (w *CSVWriter) Error() error {
	return w.csv.Error()
}

// WriteCSVFile writes BOM, header and rows to path.
func WriteCSVFile(path string, results []domain.BatchResult) error {
	out, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating csv report: %w", err)
	}
	if _, err := out.Write(BOM); err != nil {
		_ = out.Close()
		return fmt.Errorf("writing csv report: %w", err)
	}

	w := NewCSVWriter(out)
	if err := w.WriteHeader(); err != nil {
		_ = out.Close()
		return fmt.Errorf("writing csv report: %w", err)
	}
	if err := w.WriteResults(results); err != nil {
		_ = out.Close()
		return fmt.Errorf("writing csv report: %w", err)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		_ = out.Close()
		return fmt.Errorf("writing csv report: %w", err)
	}
	return out.Close()
}

// resultToRecord renders a result as strings. Amounts use two decimals and
// absent values stay empty.
func resultToRecord(r *domain.BatchResult) []string {
	row := make([]string, len(resultColumns))
	for i, v := range resultToRow(r) {
		switch val := v.(type) {
		case nil:
		case string:
			row[i] = val
		case int:
			row[i] = strconv.Itoa(val)
		case float64:
			if i == 4 {
				row[i] = strconv.FormatFloat(val, 'f', -1, 64)
			} else {
				row[i] = formatMoney(val)
			}
		default:
			row[i] = fmt.Sprint(val)
		}
	}
	return row
}

func formatMoney(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

// nonAlphanumeric matches characters that are not alphanumeric, hyphen, or underscore.
var nonAlphanumeric = regexp.MustCompile(`[^a-zA-Z0-9_-]+`)

// multiUnderscore matches consecutive underscores.
var multiUnderscore = regexp.MustCompile(`_{2,}`)

// SanitizeFilename cleans a name for use in a report filename. Replaces
// non-alphanumeric chars (except - _) with _, collapses consecutive
// underscores, and truncates to 100 chars.
func SanitizeFilename(name string) string {
	s := nonAlphanumeric.ReplaceAllString(name, "_")
	s = multiUnderscore.ReplaceAllString(s, "_")
	s = strings.Trim(s, "_")
	if len(s) > 100 {
		s = s[:100]
	}
	return s
}

// BuildFilename returns {sanitized_name}_{YYYY-MM-DD}.{ext} for the given day.
func BuildFilename(name, ext string, day time.Time) string {
	sanitized := SanitizeFilename(name)
	if sanitized == "" {
		sanitized = "batch"
	}
	return fmt.Sprintf("%s_%s.%s", sanitized, day.Format("2006-01-02"), strings.TrimPrefix(ext, "."))
}
