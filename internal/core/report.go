package core

import (
	"slices"

	"github.com/shopspring/decimal"
)

// DefaultPreviewLimit caps preview lists when no limit is given.
const DefaultPreviewLimit = 10

// ReportMode distinguishes a read-only run from one that wrote repairs.
type ReportMode string

const (
	ModeDryRun    ReportMode = "dry_run"
	ModePostApply ReportMode = "post_apply"
)

// TypeCount is the number of discrepancies of one type.
type TypeCount struct {
	Type  DiscrepancyType `json:"type"`
	Count int             `json:"count"`
}

// IDPreview is a capped list of identifiers with the uncapped total.
type IDPreview struct {
	Total int      `json:"total"`
	IDs   []string `json:"ids"`
}

// PlanSummary counts the planned actions.
type PlanSummary struct {
	AutoActions   int            `json:"auto_actions"`
	ManualReviews int            `json:"manual_reviews"`
	Steps         []ActionRecord `json:"steps"`
}

// ExecutionSummary counts what an apply pass did.
type ExecutionSummary struct {
	Applied  int             `json:"applied"`
	Failed   int             `json:"failed"`
	Flagged  int             `json:"flagged_for_review"`
	Failures []ActionFailure `json:"failures"`
}

// Report is the structured summary of one reconciliation run.
// Preview holds at most PreviewLimit discrepancies; TotalDiscrepancies is
// always the full count.
type Report struct {
	RunID              string            `json:"run_id,omitempty"`
	Scope              LedgerScope       `json:"scope"`
	Mode               ReportMode        `json:"mode" jsonschema_description:"dry_run when nothing was written, post_apply after repairs were attempted"`
	VariantsScanned    int               `json:"variants_scanned"`
	TotalDiscrepancies int               `json:"total_discrepancies" jsonschema_description:"Full discrepancy count, independent of the preview size"`
	Counts             []TypeCount       `json:"counts"`
	PreviewLimit       int               `json:"preview_limit"`
	Preview            []Discrepancy     `json:"preview" jsonschema_description:"At most preview_limit discrepancies in reporting order"`
	AffectedVariants   IDPreview         `json:"affected_variants"`
	AffectedProducts   IDPreview         `json:"affected_products"`
	MismatchValue      decimal.Decimal   `json:"mismatch_value" jsonschema_description:"Sum of stock mismatch deltas valued at cost price, as a decimal string"`
	Plan               PlanSummary       `json:"plan"`
	Execution          *ExecutionSummary `json:"execution,omitempty"`
}

// Clean reports whether the run found nothing at all.
func (r Report) Clean() bool { return r.TotalDiscrepancies == 0 }

// Unresolved returns the number of discrepancies still open after the run.
// For a dry run that is every discrepancy.
func (r Report) Unresolved() int {
	if r.Execution == nil {
		return r.TotalDiscrepancies
	}
	return r.TotalDiscrepancies - r.Execution.Applied
}

// BuildReport summarizes a run. Pass a nil result for a dry run.
// Counts cover every type, including those with zero findings, so no category
// is ever silently missing from the output.
func BuildReport(discrepancies []Discrepancy, plan RepairPlan, result *ExecutionResult, previewLimit int) Report {
	if previewLimit <= 0 {
		previewLimit = DefaultPreviewLimit
	}

	r := Report{
		Mode:               ModeDryRun,
		TotalDiscrepancies: len(discrepancies),
		PreviewLimit:       previewLimit,
		Preview:            capped(discrepancies, previewLimit),
		MismatchValue:      decimal.Zero,
	}

	counts := make(map[DiscrepancyType]int)
	var variantIDs, productIDs []string
	for _, d := range discrepancies {
		counts[d.Type]++
		variantIDs = append(variantIDs, d.VariantID)
		if d.ProductID != "" {
			productIDs = append(productIDs, d.ProductID)
		}
		if d.Type == StockMismatch {
			r.MismatchValue = r.MismatchValue.Add(d.ValueDelta)
		}
	}
	for _, t := range DiscrepancyTypes {
		r.Counts = append(r.Counts, TypeCount{Type: t, Count: counts[t]})
	}
	r.AffectedVariants = previewIDs(variantIDs, previewLimit)
	r.AffectedProducts = previewIDs(productIDs, previewLimit)

	r.Plan = PlanSummary{AutoActions: len(plan.Auto), ManualReviews: len(plan.Manual)}
	for _, step := range plan.Steps() {
		r.Plan.Steps = append(r.Plan.Steps, recordOf(step))
	}

	if result != nil {
		r.Mode = ModePostApply
		r.Execution = &ExecutionSummary{
			Applied:  len(result.Applied),
			Failed:   len(result.Failures),
			Flagged:  len(result.NeedsReview),
			Failures: result.Failures,
		}
	}
	return r
}

// CountOf returns the count recorded for t.
func (r Report) CountOf(t DiscrepancyType) int {
	for _, c := range r.Counts {
		if c.Type == t {
			return c.Count
		}
	}
	return 0
}

func capped[T any](items []T, limit int) []T {
	if len(items) > limit {
		items = items[:limit]
	}
	return slices.Clone(items)
}

func previewIDs(ids []string, limit int) IDPreview {
	slices.Sort(ids)
	ids = slices.Compact(ids)
	return IDPreview{Total: len(ids), IDs: capped(ids, limit)}
}
