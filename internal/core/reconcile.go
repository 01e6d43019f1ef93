package core

import (
	"cmp"
	"regexp"
	"slices"
	"strings"

	"github.com/shopspring/decimal"
)

var imeiPattern = regexp.MustCompile(`^[0-9]{15}$`)

// ValidIMEI reports whether s is exactly 15 ASCII digits.
func ValidIMEI(s string) bool {
	return imeiPattern.MatchString(s)
}

// Reconcile compares every parent variant's recorded quantity against the sum
// of its active IMEI children and validates each child's linkage, IMEI and
// status. It never mutates the snapshot and always returns discrepancies
// ordered by (type rank, variant id).
//
// Inactive parents are skipped for quantity checks. Child checks apply to
// inactive children too.
func Reconcile(snapshot LedgerSnapshot) []Discrepancy {
	byID := make(map[string]Variant, len(snapshot.Variants))
	activeChildren := make(map[string][]Variant)
	var children []Variant

	for _, v := range snapshot.Variants {
		byID[v.ID] = v
		if v.Kind != KindImeiChild {
			continue
		}
		children = append(children, v)
		if ref := v.parentRef(); ref != "" && v.IsActive {
			activeChildren[ref] = append(activeChildren[ref], v)
		}
	}

	var out []Discrepancy

	// Only active children make a variant a parent in practice: a non-parent
	// row whose children are all inactive is not checked for its kind.
	for _, v := range snapshot.Variants {
		if !v.IsActive {
			continue
		}
		kids, hasKids := activeChildren[v.ID]
		switch {
		case v.Kind == KindParent:
		case !hasKids:
			continue
		case v.Kind == KindImeiChild:
			// Retagging would give a parent its own parent; a human has to untangle it.
			out = append(out, Discrepancy{Type: NestedParent, VariantID: v.ID, ProductID: v.ProductID, ParentID: v.parentRef()})
			continue
		default:
			out = append(out, Discrepancy{Type: MisclassifiedParent, VariantID: v.ID, ProductID: v.ProductID})
		}

		expected := 0
		for _, c := range kids {
			expected += c.Quantity
		}
		if expected != v.Quantity {
			delta := expected - v.Quantity
			out = append(out, Discrepancy{
				Type:       StockMismatch,
				VariantID:  v.ID,
				ProductID:  v.ProductID,
				ParentID:   v.ID,
				Recorded:   v.Quantity,
				Expected:   expected,
				Delta:      delta,
				ValueDelta: v.CostPrice.Mul(decimal.NewFromInt(int64(delta))),
			})
		}
	}

	for _, c := range children {
		ref := c.parentRef()
		switch {
		case ref == "":
			out = append(out, Discrepancy{Type: OrphanedChild, VariantID: c.ID, ProductID: c.ProductID})
		case !exists(byID, ref):
			out = append(out, Discrepancy{Type: DanglingParentRef, VariantID: c.ID, ProductID: c.ProductID, ParentID: ref})
		}

		switch {
		case blank(c.IMEI):
			out = append(out, Discrepancy{Type: MissingImei, VariantID: c.ID, ProductID: c.ProductID})
		case !ValidIMEI(*c.IMEI):
			out = append(out, Discrepancy{Type: InvalidImeiFormat, VariantID: c.ID, ProductID: c.ProductID, Value: *c.IMEI})
		}

		// Orphans are already flagged for review; status is only checked on linked rows.
		if ref != "" && blank(c.Status) {
			out = append(out, Discrepancy{Type: MissingStatus, VariantID: c.ID, ProductID: c.ProductID, ParentID: ref})
		}
	}

	out = append(out, duplicateIMEIs(children)...)

	slices.SortStableFunc(out, func(a, b Discrepancy) int {
		if c := cmp.Compare(a.Type.Rank(), b.Type.Rank()); c != 0 {
			return c
		}
		return cmp.Compare(a.VariantID, b.VariantID)
	})
	return out
}

// duplicateIMEIs flags every child after the first (by id) that carries an
// IMEI already held by another child. Only well-formed IMEIs are compared.
func duplicateIMEIs(children []Variant) []Discrepancy {
	holders := make(map[string][]Variant)
	for _, c := range children {
		if blank(c.IMEI) || !ValidIMEI(*c.IMEI) {
			continue
		}
		holders[*c.IMEI] = append(holders[*c.IMEI], c)
	}

	var out []Discrepancy
	for imei, rows := range holders {
		if len(rows) < 2 {
			continue
		}
		slices.SortFunc(rows, func(a, b Variant) int { return cmp.Compare(a.ID, b.ID) })
		for _, dup := range rows[1:] {
			out = append(out, Discrepancy{
				Type:        DuplicateImei,
				VariantID:   dup.ID,
				ProductID:   dup.ProductID,
				Value:       imei,
				DuplicateOf: rows[0].ID,
			})
		}
	}
	return out
}

func exists(byID map[string]Variant, id string) bool {
	_, ok := byID[id]
	return ok
}

func blank(s *string) bool {
	return s == nil || strings.TrimSpace(*s) == ""
}
