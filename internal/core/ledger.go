package core

import (
	"context"
	"errors"
)

var (
	// ErrVariantNotFound is returned by a VariantWriter when the target row no longer exists.
	ErrVariantNotFound = errors.New("variant not found")
	// ErrStaleVariant is returned when a row changed after the snapshot was taken.
	ErrStaleVariant = errors.New("variant changed since snapshot")
)

// LedgerReader is the Stock Ledger Reader: the only component aware of where
// variant rows actually live. Each call is a full read with no caching.
type LedgerReader interface {
	// LoadLedger returns every variant in scope, active and inactive.
	// An empty scope result is an empty snapshot, not an error.
	LoadLedger(ctx context.Context, scope LedgerScope) (LedgerSnapshot, error)
}

// VariantWriter performs single-row corrections. Each call must be atomic on
// its own so that one failed write never rolls back another.
type VariantWriter interface {
	// SetQuantity overwrites the on-hand quantity. recorded is the value the
	// caller observed; implementations return ErrStaleVariant if it has moved.
	SetQuantity(ctx context.Context, variantID string, recorded, quantity int) error
	SetStatus(ctx context.Context, variantID, status string) error
	SetKind(ctx context.Context, variantID string, kind VariantKind) error
}
