package core

import (
	"context"
	"fmt"
)

// ActionKind names a repair action for reporting.
type ActionKind string

const (
	ActionSetQuantity  ActionKind = "set_quantity"
	ActionSetStatus    ActionKind = "set_status"
	ActionSetKind      ActionKind = "set_kind"
	ActionManualReview ActionKind = "flag_for_manual_review"
)

// RepairAction is any step of a repair plan.
type RepairAction interface {
	Kind() ActionKind
	Target() string
	Describe() string
}

// AutoRepair is a repair the executor may apply without a human.
// The unexported method seals the set: only SetQuantity, SetStatus and SetKind
// implement it, so a ManualReview can never reach a VariantWriter.
type AutoRepair interface {
	RepairAction
	apply(ctx context.Context, w VariantWriter) error
}

// SetQuantity corrects a parent's on-hand quantity to the sum of its active children.
type SetQuantity struct {
	VariantID string `json:"variant_id"`
	Recorded  int    `json:"recorded"`
	NewValue  int    `json:"new_value"`
}

func (a SetQuantity) Kind() ActionKind { return ActionSetQuantity }
func (a SetQuantity) Target() string   { return a.VariantID }
func (a SetQuantity) Describe() string {
	return fmt.Sprintf("set quantity %d -> %d", a.Recorded, a.NewValue)
}
func (a SetQuantity) apply(ctx context.Context, w VariantWriter) error {
	return w.SetQuantity(ctx, a.VariantID, a.Recorded, a.NewValue)
}

// SetStatus backfills a blank IMEI child status.
type SetStatus struct {
	VariantID string `json:"variant_id"`
	NewValue  string `json:"new_value"`
}

func (a SetStatus) Kind() ActionKind { return ActionSetStatus }
func (a SetStatus) Target() string   { return a.VariantID }
func (a SetStatus) Describe() string { return fmt.Sprintf("set status %q", a.NewValue) }
func (a SetStatus) apply(ctx context.Context, w VariantWriter) error {
	return w.SetStatus(ctx, a.VariantID, a.NewValue)
}

// SetKind retags a variant that has children but is not marked as a parent.
type SetKind struct {
	VariantID string      `json:"variant_id"`
	NewValue  VariantKind `json:"new_value"`
}

func (a SetKind) Kind() ActionKind { return ActionSetKind }
func (a SetKind) Target() string   { return a.VariantID }
func (a SetKind) Describe() string { return fmt.Sprintf("set kind %s", a.NewValue) }
func (a SetKind) apply(ctx context.Context, w VariantWriter) error {
	return w.SetKind(ctx, a.VariantID, a.NewValue)
}

// ManualReview is a finding that needs a human. It is deliberately not an AutoRepair.
type ManualReview struct {
	VariantID   string          `json:"variant_id"`
	Reason      string          `json:"reason"`
	Discrepancy DiscrepancyType `json:"discrepancy"`
}

func (a ManualReview) Kind() ActionKind { return ActionManualReview }
func (a ManualReview) Target() string   { return a.VariantID }
func (a ManualReview) Describe() string { return a.Reason }

// RepairPlan is the planner's output. Auto and Manual are kept in separate
// typed slices; steps preserves the combined discrepancy order for display.
type RepairPlan struct {
	Auto   []AutoRepair
	Manual []ManualReview
	steps  []RepairAction
}

// Steps returns every action in plan order.
func (p RepairPlan) Steps() []RepairAction {
	if p.steps != nil {
		return p.steps
	}
	steps := make([]RepairAction, 0, len(p.Auto)+len(p.Manual))
	for _, a := range p.Auto {
		steps = append(steps, a)
	}
	for _, m := range p.Manual {
		steps = append(steps, m)
	}
	return steps
}

// Len returns the total number of actions.
func (p RepairPlan) Len() int { return len(p.Auto) + len(p.Manual) }
