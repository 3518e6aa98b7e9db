package report

import (
	"fmt"
	"io"
	"os"

	"github.com/xuri/excelize/v2"

	"docparse/internal/domain"
)

const (
	resultsSheet   = "Results"
	lineItemsSheet = "LineItems"
)

// resultColumns defines the Results sheet header row.
var resultColumns = []string{
	"Document",
	"State",
	"Failed Stage",
	"Type",
	"Confidence",
	"Invoice Number",
	"Invoice Date",
	"Due Date",
	"Vendor",
	"Customer",
	"Subtotal",
	"Tax",
	"Total",
	"Currency",
	"Line Item Count",
	"Error",
}

var lineItemColumns = []string{
	"Document",
	"Line",
	"Description",
	"Quantity",
	"Unit Price",
	"Amount",
}

// Build renders batch results into a workbook with a Results sheet (one row per
// document) and a LineItems sheet (one row per extracted line item).
func Build(results []domain.BatchResult) (*excelize.File, error) {
	f := excelize.NewFile()

	if err := f.SetSheetName(f.GetSheetName(0), resultsSheet); err != nil {
		return nil, fmt.Errorf("naming results sheet: %w", err)
	}
	if _, err := f.NewSheet(lineItemsSheet); err != nil {
		return nil, fmt.Errorf("creating line items sheet: %w", err)
	}

	if err := writeRow(f, resultsSheet, 1, toAny(resultColumns)); err != nil {
		return nil, err
	}
	if err := writeRow(f, lineItemsSheet, 1, toAny(lineItemColumns)); err != nil {
		return nil, err
	}

	itemRow := 2
	for i := range results {
		r := &results[i]
		if err := writeRow(f, resultsSheet, i+2, resultToRow(r)); err != nil {
			return nil, err
		}
		if r.Record == nil {
			continue
		}
		for n, item := range r.Record.Items {
			row := []any{r.ID, n + 1, item.Description, item.Quantity, item.UnitPrice, item.Amount}
			if err := writeRow(f, lineItemsSheet, itemRow, row); err != nil {
				return nil, err
			}
			itemRow++
		}
	}

	_ = f.SetColWidth(resultsSheet, "A", "A", 40)
	_ = f.SetColWidth(resultsSheet, "P", "P", 60)
	_ = f.SetColWidth(lineItemsSheet, "C", "C", 50)
	f.SetActiveSheet(0)
	return f, nil
}

// Write renders results as XLSX into w.
func Write(w io.Writer, results []domain.BatchResult) error {
	f, err := Build(results)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()
	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("writing workbook: %w", err)
	}
	return nil
}

// WriteFile renders results as XLSX at path.
func WriteFile(path string, results []domain.BatchResult) error {
	out, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating report: %w", err)
	}
	if err := Write(out, results); err != nil {
		_ = out.Close()
		return err
	}
	return out.Close()
}

func resultToRow(r *domain.BatchResult) []any {
	row := make([]any, len(resultColumns))
	row[0] = r.ID
	row[1] = string(r.State)
	row[2] = string(r.FailedStage)
	if r.Classification != nil {
		row[3] = string(r.Classification.Type)
		row[4] = r.Classification.Confidence
	}
	if rec := r.Record; rec != nil {
		row[5] = rec.InvoiceNumber
		row[6] = rec.InvoiceDate
		row[7] = rec.DueDate
		row[8] = rec.VendorName
		row[9] = rec.CustomerName
		row[10] = rec.Subtotal
		if rec.Tax != nil {
			row[11] = *rec.Tax
		}
		row[12] = rec.TotalAmount
		row[13] = rec.Currency
		row[14] = len(rec.Items)
	}
	row[15] = r.Error
	return row
}

func writeRow(f *excelize.File, sheet string, row int, values []any) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	if err := f.SetSheetRow(sheet, cell, &values); err != nil {
		return fmt.Errorf("writing %s row %d: %w", sheet, row, err)
	}
	return nil
}

func toAny(ss []string) []any {
	out := make([]any, len(ss))
	for i, s := range ss {
		out[i] = s
	}
	return out
}
