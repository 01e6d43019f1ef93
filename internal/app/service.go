package app

import (
	"context"

	"inventory-reconciler/internal/core"
)

// Store is a ledger the service can both read and correct.
type Store interface {
	core.LedgerReader
	// Writer returns a VariantWriter whose audit trail is tagged with runID.
	Writer(runID string) core.VariantWriter
}

// ApplicationService is the single interface the CLI calls. Implementations
// contain no display logic.
type ApplicationService interface {
	// Reconcile runs the full pipeline: load, reconcile, plan, then either stop
	// (dry run) or apply the automatic repairs, and summarize the run.
	// A ledger read failure aborts the run; write failures are reported.
	Reconcile(ctx context.Context, req ReconcileRequest) (*ReconcileResult, error)
}
