// Package xlsx exports reconciliation results as a spreadsheet for the stock
// controllers who work through manual reviews.
package xlsx

import (
	"fmt"
	"io"

	"inventory-reconciler/internal/app"
	"inventory-reconciler/internal/core"

	"github.com/xuri/excelize/v2"
)

const (
	SheetSummary       = "Summary"
	SheetDiscrepancies = "Discrepancies"
	SheetActions       = "Actions"
)

// Export writes result to a new workbook at path.
func Export(path string, result *app.ReconcileResult) error {
	f, err := build(result)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save workbook %s: %w", path, err)
	}
	return nil
}

// Write streams the workbook for result to w.
func Write(w io.Writer, result *app.ReconcileResult) error {
	f, err := build(result)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

// build lays out every discrepancy and action, not just the report preview.
func build(result *app.ReconcileResult) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", SheetSummary); err != nil {
		return nil, fmt.Errorf("failed to name summary sheet: %w", err)
	}
	for _, name := range []string{SheetDiscrepancies, SheetActions} {
		if _, err := f.NewSheet(name); err != nil {
			return nil, fmt.Errorf("failed to create sheet %s: %w", name, err)
		}
	}

	r := result.Report
	summary := [][]any{
		{"Run", r.RunID},
		{"Mode", string(r.Mode)},
		{"Product", r.Scope.ProductID},
		{"Branch", r.Scope.BranchID},
		{"Variants scanned", r.VariantsScanned},
		{"Total discrepancies", r.TotalDiscrepancies},
		{"Mismatch value", r.MismatchValue.StringFixed(2)},
	}
	for _, c := range r.Counts {
		summary = append(summary, []any{string(c.Type), c.Count})
	}
	if r.Execution != nil {
		summary = append(summary,
			[]any{"Applied", r.Execution.Applied},
			[]any{"Failed", r.Execution.Failed},
			[]any{"Needs review", r.Execution.Flagged},
		)
	}
	if err := writeRows(f, SheetSummary, nil, summary); err != nil {
		return nil, err
	}

	var discrepancyRows [][]any
	for _, d := range result.Discrepancies {
		discrepancyRows = append(discrepancyRows, []any{
			string(d.Type), d.VariantID, d.ProductID, d.ParentID,
			d.Recorded, d.Expected, d.Delta, d.ValueDelta.StringFixed(2), d.Value, d.DuplicateOf,
		})
	}
	if err := writeRows(f, SheetDiscrepancies,
		[]any{"Type", "Variant", "Product", "Parent", "Recorded", "Expected", "Delta", "Value delta", "Value", "Duplicate of"},
		discrepancyRows,
	); err != nil {
		return nil, err
	}

	if err := writeRows(f, SheetActions, []any{"Action", "Variant", "Detail", "Outcome"}, actionRows(result)); err != nil {
		return nil, err
	}
	return f, nil
}

func actionRows(result *app.ReconcileResult) [][]any {
	outcome := make(map[string]string)
	if result.Execution != nil {
		for _, a := range result.Execution.Applied {
			outcome[key(a)] = "applied"
		}
		for _, fail := range result.Execution.Failures {
			outcome[key(fail.ActionRecord)] = "failed: " + fail.Error
		}
	}

	var rows [][]any
	for _, step := range result.Plan.Steps() {
		rec := core.ActionRecord{Action: step.Kind(), VariantID: step.Target(), Detail: step.Describe()}
		status := "planned"
		switch {
		case step.Kind() == core.ActionManualReview:
			status = "needs review"
		case outcome[key(rec)] != "":
			status = outcome[key(rec)]
		}
		rows = append(rows, []any{string(rec.Action), rec.VariantID, rec.Detail, status})
	}
	return rows
}

func key(a core.ActionRecord) string {
	return string(a.Action) + "/" + a.VariantID
}

func writeRows(f *excelize.File, sheet string, header []any, rows [][]any) error {
	row := 1
	if header != nil {
		if err := setRow(f, sheet, row, header); err != nil {
			return err
		}
		row++
	}
	for _, values := range rows {
		if err := setRow(f, sheet, row, values); err != nil {
			return err
		}
		row++
	}
	return nil
}

func setRow(f *excelize.File, sheet string, row int, values []any) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	if err := f.SetSheetRow(sheet, cell, &values); err != nil {
		return fmt.Errorf("failed to write %s row %d: %w", sheet, row, err)
	}
	return nil
}
