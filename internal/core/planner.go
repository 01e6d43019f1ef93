package core

// DefaultStatus is assigned to linked IMEI children whose status is blank.
const DefaultStatus = "available"

// Manual review reasons.
const (
	ReasonNoParent      = "no parent assigned"
	ReasonParentMissing = "parent missing"
	ReasonNestedParent  = "imei child has children"
	ReasonMissingIMEI   = "missing imei"
	ReasonInvalidIMEI   = "invalid imei"
	ReasonDuplicateIMEI = "duplicate imei"
)

// Planner turns discrepancies into a repair plan. It never executes anything.
type Planner struct {
	defaultStatus string
}

// NewPlanner returns a Planner that backfills blank statuses with defaultStatus.
// An empty value falls back to DefaultStatus.
func NewPlanner(defaultStatus string) *Planner {
	if defaultStatus == "" {
		defaultStatus = DefaultStatus
	}
	return &Planner{defaultStatus: defaultStatus}
}

// Plan maps each discrepancy to exactly one action using the default planner.
func Plan(discrepancies []Discrepancy) RepairPlan {
	return NewPlanner(DefaultStatus).Plan(discrepancies)
}

// Plan maps each discrepancy to exactly one action, preserving input order.
// Orphans, dangling references, nested parents and IMEI defects are never
// guessed at; they are always flagged for manual review.
func (p *Planner) Plan(discrepancies []Discrepancy) RepairPlan {
	plan := RepairPlan{steps: make([]RepairAction, 0, len(discrepancies))}

	for _, d := range discrepancies {
		var auto AutoRepair
		var reason string

		switch d.Type {
		case StockMismatch:
			auto = SetQuantity{VariantID: d.VariantID, Recorded: d.Recorded, NewValue: d.Expected}
		case MissingStatus:
			auto = SetStatus{VariantID: d.VariantID, NewValue: p.defaultStatus}
		case MisclassifiedParent:
			auto = SetKind{VariantID: d.VariantID, NewValue: KindParent}
		case OrphanedChild:
			reason = ReasonNoParent
		case DanglingParentRef:
			reason = ReasonParentMissing
		case NestedParent:
			reason = ReasonNestedParent
		case MissingImei:
			reason = ReasonMissingIMEI
		case InvalidImeiFormat:
			reason = ReasonInvalidIMEI
		case DuplicateImei:
			reason = ReasonDuplicateIMEI
		default:
			reason = "unknown discrepancy " + string(d.Type)
		}

		if auto != nil {
			plan.Auto = append(plan.Auto, auto)
			plan.steps = append(plan.steps, auto)
			continue
		}
		review := ManualReview{VariantID: d.VariantID, Reason: reason, Discrepancy: d.Type}
		plan.Manual = append(plan.Manual, review)
		plan.steps = append(plan.steps, review)
	}
	return plan
}
