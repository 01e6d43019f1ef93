package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"inventory-reconciler/internal/core"
)

const ruleWidth = 72

// WriteJSON writes the report as indented JSON.
func WriteJSON(w io.Writer, report core.Report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(report); err != nil {
		return fmt.Errorf("failed to encode report: %w", err)
	}
	return nil
}

// PrintReport renders the report as ruled console tables.
func PrintReport(w io.Writer, r core.Report) {
	rule := strings.Repeat("=", ruleWidth)
	thin := strings.Repeat("-", ruleWidth)

	fmt.Fprintln(w)
	fmt.Fprintln(w, rule)
	fmt.Fprintf(w, "  %-68s\n", "INVENTORY RECONCILIATION")
	fmt.Fprintf(w, "  Run      : %s\n", r.RunID)
	fmt.Fprintf(w, "  Scope    : %s\n", describeScope(r.Scope))
	fmt.Fprintf(w, "  Mode     : %s\n", r.Mode)
	fmt.Fprintf(w, "  Variants : %d scanned\n", r.VariantsScanned)
	fmt.Fprintln(w, rule)

	fmt.Fprintf(w, "  %-40s %10s\n", "DISCREPANCY", "COUNT")
	fmt.Fprintln(w, thin)
	for _, c := range r.Counts {
		fmt.Fprintf(w, "  %-40s %10d\n", c.Type, c.Count)
	}
	fmt.Fprintln(w, thin)
	fmt.Fprintf(w, "  %-40s %10d\n", "TOTAL", r.TotalDiscrepancies)
	if !r.MismatchValue.IsZero() {
		fmt.Fprintf(w, "  %-40s %10s\n", "MISMATCH VALUE", r.MismatchValue.StringFixed(2))
	}

	if r.Clean() {
		fmt.Fprintln(w, rule)
		fmt.Fprintln(w, "  No discrepancies found.")
		fmt.Fprintln(w, rule)
		return
	}

	fmt.Fprintln(w, rule)
	fmt.Fprintf(w, "  %-22s %-38s %s\n", "TYPE", "VARIANT", "DETAIL")
	fmt.Fprintln(w, thin)
	for _, d := range r.Preview {
		fmt.Fprintf(w, "  %-22s %-38s %s\n", d.Type, d.VariantID, detail(d))
	}
	if more := r.TotalDiscrepancies - len(r.Preview); more > 0 {
		fmt.Fprintf(w, "  ... and %d more\n", more)
	}

	fmt.Fprintln(w, rule)
	fmt.Fprintf(w, "  Affected variants : %d    Affected products : %d\n", r.AffectedVariants.Total, r.AffectedProducts.Total)
	fmt.Fprintf(w, "  Planned           : %d automatic, %d manual review\n", r.Plan.AutoActions, r.Plan.ManualReviews)

	if r.Execution != nil {
		e := r.Execution
		fmt.Fprintf(w, "  Applied           : %d\n", e.Applied)
		fmt.Fprintf(w, "  Failed            : %d\n", e.Failed)
		fmt.Fprintf(w, "  Needs review      : %d\n", e.Flagged)
		for _, f := range e.Failures {
			fmt.Fprintf(w, "    ! %s %s: %s\n", f.Action, f.VariantID, f.Error)
		}
	}
	fmt.Fprintln(w, rule)
}

func describeScope(s core.LedgerScope) string {
	if s.IsCatalog() {
		return "whole catalog"
	}
	var parts []string
	if s.ProductID != "" {
		parts = append(parts, "product "+s.ProductID)
	}
	if s.BranchID != "" {
		parts = append(parts, "branch "+s.BranchID)
	}
	return strings.Join(parts, ", ")
}

func detail(d core.Discrepancy) string {
	switch d.Type {
	case core.StockMismatch:
		return fmt.Sprintf("recorded %d, expected %d (delta %+d)", d.Recorded, d.Expected, d.Delta)
	case core.DanglingParentRef:
		return "parent " + d.ParentID + " not found"
	case core.NestedParent:
		return "has children but is itself a child of " + d.ParentID
	case core.InvalidImeiFormat:
		return fmt.Sprintf("imei %q", d.Value)
	case core.DuplicateImei:
		return fmt.Sprintf("imei %s also on %s", d.Value, d.DuplicateOf)
	}
	return ""
}
