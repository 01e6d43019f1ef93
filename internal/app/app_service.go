package app

import (
	"context"
	"fmt"

	"inventory-reconciler/internal/core"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type appService struct {
	store   Store
	planner *core.Planner
	opts    Options
	logger  *zap.Logger
}

// NewAppService wires the reconciliation pipeline over store.
func NewAppService(store Store, opts Options, logger *zap.Logger) ApplicationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.PreviewLimit <= 0 {
		opts.PreviewLimit = core.DefaultPreviewLimit
	}
	return &appService{
		store:   store,
		planner: core.NewPlanner(opts.DefaultStatus),
		opts:    opts,
		logger:  logger,
	}
}

func (s *appService) Reconcile(ctx context.Context, req ReconcileRequest) (*ReconcileResult, error) {
	runID := uuid.NewString()
	log := s.logger.With(
		zap.String("run_id", runID),
		zap.String("product_id", req.Scope.ProductID),
		zap.String("branch_id", req.Scope.BranchID),
		zap.Bool("dry_run", req.DryRun),
	)

	snapshot, err := s.store.LoadLedger(ctx, req.Scope)
	if err != nil {
		return nil, fmt.Errorf("failed to load ledger: %w", err)
	}
	log.Info("ledger loaded", zap.Int("variants", len(snapshot.Variants)))

	discrepancies := core.Reconcile(snapshot)
	plan := s.planner.Plan(discrepancies)
	log.Info("reconciliation complete",
		zap.Int("discrepancies", len(discrepancies)),
		zap.Int("auto_actions", len(plan.Auto)),
		zap.Int("manual_reviews", len(plan.Manual)))

	result := &ReconcileResult{
		RunID:         runID,
		Discrepancies: discrepancies,
		Plan:          plan,
	}

	if !req.DryRun {
		exec := core.NewExecutor(s.store.Writer(runID), log).Apply(ctx, plan)
		result.Execution = &exec
		log.Info("repairs applied",
			zap.Int("applied", len(exec.Applied)),
			zap.Int("failed", len(exec.Failures)),
			zap.Int("flagged", len(exec.NeedsReview)))
	}

	report := core.BuildReport(discrepancies, plan, result.Execution, s.opts.PreviewLimit)
	report.RunID = runID
	report.Scope = req.Scope
	report.VariantsScanned = len(snapshot.Variants)
	result.Report = report

	return result, nil
}
