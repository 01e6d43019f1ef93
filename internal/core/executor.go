package core

import (
	"context"

	"go.uber.org/zap"
)

// ActionRecord is the reportable form of one repair action.
type ActionRecord struct {
	Action    ActionKind `json:"action"`
	VariantID string     `json:"variant_id"`
	Detail    string     `json:"detail"`
}

func recordOf(a RepairAction) ActionRecord {
	return ActionRecord{Action: a.Kind(), VariantID: a.Target(), Detail: a.Describe()}
}

// ActionFailure is an automatic repair the store rejected.
type ActionFailure struct {
	ActionRecord
	Error string `json:"error"`
	Err   error  `json:"-"`
}

// ExecutionResult records what an apply pass actually did.
type ExecutionResult struct {
	Applied     []ActionRecord  `json:"applied"`
	Failures    []ActionFailure `json:"failures"`
	NeedsReview []ManualReview  `json:"needs_review"`
}

// Executor is the Execution Adapter: the only component with write access.
type Executor struct {
	writer VariantWriter
	logger *zap.Logger
}

// NewExecutor returns an Executor writing through w. A nil logger is replaced by a no-op logger.
func NewExecutor(w VariantWriter, logger *zap.Logger) *Executor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Executor{writer: w, logger: logger}
}

// Apply runs the plan's automatic repairs one at a time, in plan order.
// A failed write is recorded and the pass continues with the next action.
// Manual reviews are never sent to the writer; they pass straight through to
// the result. Once ctx is done, every remaining action is recorded as failed.
func (e *Executor) Apply(ctx context.Context, plan RepairPlan) ExecutionResult {
	var result ExecutionResult

	for _, action := range plan.Auto {
		rec := recordOf(action)

		err := ctx.Err()
		if err == nil {
			err = action.apply(ctx, e.writer)
		}
		if err != nil {
			e.logger.Warn("repair failed",
				zap.String("action", string(rec.Action)),
				zap.String("variant_id", rec.VariantID),
				zap.Error(err))
			result.Failures = append(result.Failures, ActionFailure{ActionRecord: rec, Error: err.Error(), Err: err})
			continue
		}

		e.logger.Info("repair applied",
			zap.String("action", string(rec.Action)),
			zap.String("variant_id", rec.VariantID),
			zap.String("detail", rec.Detail))
		result.Applied = append(result.Applied, rec)
	}

	result.NeedsReview = append(result.NeedsReview, plan.Manual...)
	if len(result.NeedsReview) > 0 {
		e.logger.Info("variants need manual review", zap.Int("count", len(result.NeedsReview)))
	}
	return result
}
