package core

import "github.com/shopspring/decimal"

// DiscrepancyType names one class of ledger defect.
type DiscrepancyType string

const (
	MisclassifiedParent DiscrepancyType = "misclassified_parent"
	StockMismatch       DiscrepancyType = "stock_mismatch"
	OrphanedChild       DiscrepancyType = "orphaned_child"
	DanglingParentRef   DiscrepancyType = "dangling_parent_ref"
	NestedParent        DiscrepancyType = "nested_parent"
	MissingImei         DiscrepancyType = "missing_imei"
	InvalidImeiFormat   DiscrepancyType = "invalid_imei_format"
	DuplicateImei       DiscrepancyType = "duplicate_imei"
	MissingStatus       DiscrepancyType = "missing_status"
)

// DiscrepancyTypes lists every type in reporting order. Kind fixes come before
// quantity fixes so a repair pass converges in one run.
var DiscrepancyTypes = []DiscrepancyType{
	MisclassifiedParent,
	StockMismatch,
	OrphanedChild,
	DanglingParentRef,
	NestedParent,
	MissingImei,
	InvalidImeiFormat,
	DuplicateImei,
	MissingStatus,
}

// Rank returns the position of t in DiscrepancyTypes, or len(DiscrepancyTypes) if unknown.
func (t DiscrepancyType) Rank() int {
	for i, known := range DiscrepancyTypes {
		if known == t {
			return i
		}
	}
	return len(DiscrepancyTypes)
}

// Discrepancy is an immutable finding produced by Reconcile.
//
// VariantID is the row at fault; for StockMismatch it is the parent.
// Recorded, Expected, Delta and ValueDelta are only set for StockMismatch,
// where Delta = Expected - Recorded and may be negative.
type Discrepancy struct {
	Type        DiscrepancyType `json:"type"`
	VariantID   string          `json:"variant_id"`
	ProductID   string          `json:"product_id,omitempty"`
	ParentID    string          `json:"parent_id,omitempty"`
	Recorded    int             `json:"recorded"`
	Expected    int             `json:"expected"`
	Delta       int             `json:"delta"`
	ValueDelta  decimal.Decimal `json:"value_delta"`
	Value       string          `json:"value,omitempty"`
	DuplicateOf string          `json:"duplicate_of,omitempty"`
}

// IsAutoFixable reports whether the planner proposes an automatic repair for t.
func (t DiscrepancyType) IsAutoFixable() bool {
	switch t {
	case StockMismatch, MissingStatus, MisclassifiedParent:
		return true
	}
	return false
}
