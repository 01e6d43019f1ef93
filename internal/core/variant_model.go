package core

import (
	"strings"

	"github.com/shopspring/decimal"
)

// VariantKind classifies a sellable unit within the parent/child stock hierarchy.
type VariantKind string

const (
	KindStandard  VariantKind = "standard"
	KindParent    VariantKind = "parent"
	KindImeiChild VariantKind = "imei_child"
)

// Variant is one row of the product variant ledger.
// ParentID is only meaningful for imei_child rows. Inactive rows are soft-deleted
// and excluded from every quantity aggregate.
type Variant struct {
	ID        string          `json:"id"`
	ProductID string          `json:"product_id"`
	BranchID  string          `json:"branch_id,omitempty"`
	Kind      VariantKind     `json:"kind"`
	ParentID  *string         `json:"parent_id,omitempty"`
	Quantity  int             `json:"quantity"`
	IsActive  bool            `json:"is_active"`
	IMEI      *string         `json:"imei,omitempty"`
	Status    *string         `json:"status,omitempty"`
	CostPrice decimal.Decimal `json:"cost_price"`
}

func (v Variant) parentRef() string {
	if v.ParentID == nil {
		return ""
	}
	return strings.TrimSpace(*v.ParentID)
}

// LedgerScope restricts a ledger read. Empty fields mean the whole catalog.
type LedgerScope struct {
	ProductID string `json:"product_id,omitempty"`
	BranchID  string `json:"branch_id,omitempty"`
}

// IsCatalog reports whether the scope covers every variant.
func (s LedgerScope) IsCatalog() bool {
	return s.ProductID == "" && s.BranchID == ""
}

// Matches reports whether v falls directly inside the scope.
func (s LedgerScope) Matches(v Variant) bool {
	if s.ProductID != "" && v.ProductID != s.ProductID {
		return false
	}
	if s.BranchID != "" && v.BranchID != s.BranchID {
		return false
	}
	return true
}

// LedgerSnapshot is a consistent, flat read of every variant in a scope,
// active and inactive alike.
type LedgerSnapshot struct {
	Scope    LedgerScope `json:"scope"`
	Variants []Variant   `json:"variants"`
}

// SelectScope returns the variants of all that belong to scope, plus the
// parents referenced by in-scope children and every child of any parent
// included either way. A parent in the result always comes with all of its
// children, so its expected quantity is never computed from a partial set.
// Input order is preserved.
func SelectScope(all []Variant, scope LedgerScope) []Variant {
	if scope.IsCatalog() {
		out := make([]Variant, len(all))
		copy(out, all)
		return out
	}

	inScope := make(map[string]bool)
	referenced := make(map[string]bool)
	for _, v := range all {
		if !scope.Matches(v) {
			continue
		}
		inScope[v.ID] = true
		if ref := v.parentRef(); ref != "" {
			referenced[ref] = true
		}
	}

	var out []Variant
	for _, v := range all {
		ref := v.parentRef()
		if inScope[v.ID] || referenced[v.ID] || inScope[ref] || referenced[ref] {
			out = append(out, v)
		}
	}
	return out
}
