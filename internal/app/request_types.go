package app

import "inventory-reconciler/internal/core"

// ReconcileRequest selects what to reconcile and whether to write repairs.
type ReconcileRequest struct {
	Scope  core.LedgerScope
	DryRun bool
}

// Options tunes planning and reporting.
type Options struct {
	DefaultStatus string
	PreviewLimit  int
}
