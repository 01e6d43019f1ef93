package app

import "inventory-reconciler/internal/core"

// ReconcileResult is returned by Reconcile. Discrepancies and Plan are the
// full, uncapped lists; Report carries the capped summary.
type ReconcileResult struct {
	RunID         string
	Discrepancies []core.Discrepancy
	Plan          core.RepairPlan
	Execution     *core.ExecutionResult
	Report        core.Report
}
