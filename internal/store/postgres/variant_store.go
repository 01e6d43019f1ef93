// Package postgres reads and corrects the POS variant ledger over pgx.
package postgres

import (
	"context"
	"errors"
	"fmt"

	"inventory-reconciler/internal/core"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// VariantStore is the Stock Ledger Reader for the lats_product_variants schema.
//
// Kind is derived from variant_type and is_parent. IMEI and status live in the
// variant_attributes JSONB column under "imei" and "imei_status".
type VariantStore struct {
	pool  *pgxpool.Pool
	table string
}

// NewVariantStore returns a store over table. The name is quoted as an identifier.
func NewVariantStore(pool *pgxpool.Pool, table string) *VariantStore {
	return &VariantStore{pool: pool, table: pgx.Identifier{table}.Sanitize()}
}

// LoadLedger reads every row in scope, the parents of in-scope children, and
// every child of any parent it returns. Empty scope fields match everything.
func (s *VariantStore) LoadLedger(ctx context.Context, scope core.LedgerScope) (core.LedgerSnapshot, error) {
	query := fmt.Sprintf(`
		WITH scoped AS (
			SELECT id, parent_variant_id
			FROM %[1]s
			WHERE ($1 = '' OR product_id::text = $1)
			  AND ($2 = '' OR branch_id::text = $2)
		)
		SELECT v.id::text,
		       v.product_id::text,
		       COALESCE(v.branch_id::text, ''),
		       CASE
		           WHEN v.variant_type = 'imei_child' THEN 'imei_child'
		           WHEN v.variant_type = 'parent' OR COALESCE(v.is_parent, false) THEN 'parent'
		           ELSE 'standard'
		       END,
		       v.parent_variant_id::text,
		       COALESCE(v.quantity, 0),
		       COALESCE(v.is_active, true),
		       v.variant_attributes->>'imei',
		       v.variant_attributes->>'imei_status',
		       COALESCE(v.cost_price, 0)
		FROM %[1]s v
		WHERE v.id IN (SELECT id FROM scoped)
		   OR v.id IN (SELECT parent_variant_id FROM scoped WHERE parent_variant_id IS NOT NULL)
		   OR v.parent_variant_id IN (SELECT id FROM scoped)
		   OR v.parent_variant_id IN (SELECT parent_variant_id FROM scoped WHERE parent_variant_id IS NOT NULL)
		ORDER BY v.id
	`, s.table)

	rows, err := s.pool.Query(ctx, query, scope.ProductID, scope.BranchID)
	if err != nil {
		return core.LedgerSnapshot{}, fmt.Errorf("failed to query variants: %w", err)
	}
	defer rows.Close()

	snapshot := core.LedgerSnapshot{Scope: scope}
	for rows.Next() {
		var v core.Variant
		var kind string
		if err := rows.Scan(
			&v.ID, &v.ProductID, &v.BranchID, &kind,
			&v.ParentID, &v.Quantity, &v.IsActive,
			&v.IMEI, &v.Status, &v.CostPrice,
		); err != nil {
			return core.LedgerSnapshot{}, fmt.Errorf("failed to scan variant: %w", err)
		}
		v.Kind = core.VariantKind(kind)
		snapshot.Variants = append(snapshot.Variants, v)
	}
	if err := rows.Err(); err != nil {
		return core.LedgerSnapshot{}, fmt.Errorf("failed to read variants: %w", err)
	}
	return snapshot, nil
}

// Writer returns a VariantWriter that tags its audit rows with runID.
func (s *VariantStore) Writer(runID string) core.VariantWriter {
	return &variantWriter{store: s, runID: runID}
}

// variantWriter applies each correction in its own transaction together with
// an inventory_reconciliation_log row, so a failure never affects other rows.
type variantWriter struct {
	store *VariantStore
	runID string
}

func (w *variantWriter) SetQuantity(ctx context.Context, variantID string, recorded, quantity int) error {
	return w.inTx(ctx, func(tx pgx.Tx) error {
		var current int
		if err := w.lockRow(ctx, tx, variantID, "COALESCE(quantity, 0)", &current); err != nil {
			return err
		}
		if current != recorded {
			return fmt.Errorf("%w: %s quantity is %d, expected %d", core.ErrStaleVariant, variantID, current, recorded)
		}

		_, err := tx.Exec(ctx, fmt.Sprintf(`
			UPDATE %s SET quantity = $1, updated_at = NOW()
			WHERE id::text = $2
		`, w.store.table), quantity, variantID)
		if err != nil {
			return fmt.Errorf("failed to update quantity for %s: %w", variantID, err)
		}
		return w.audit(ctx, tx, variantID, core.ActionSetQuantity, fmt.Sprint(current), fmt.Sprint(quantity))
	})
}

func (w *variantWriter) SetStatus(ctx context.Context, variantID, status string) error {
	return w.inTx(ctx, func(tx pgx.Tx) error {
		var current *string
		if err := w.lockRow(ctx, tx, variantID, "variant_attributes->>'imei_status'", &current); err != nil {
			return err
		}

		_, err := tx.Exec(ctx, fmt.Sprintf(`
			UPDATE %s
			SET variant_attributes = COALESCE(variant_attributes, '{}'::jsonb) || jsonb_build_object('imei_status', $1::text),
			    updated_at = NOW()
			WHERE id::text = $2
		`, w.store.table), status, variantID)
		if err != nil {
			return fmt.Errorf("failed to update status for %s: %w", variantID, err)
		}

		old := ""
		if current != nil {
			old = *current
		}
		return w.audit(ctx, tx, variantID, core.ActionSetStatus, old, status)
	})
}

func (w *variantWriter) SetKind(ctx context.Context, variantID string, kind core.VariantKind) error {
	return w.inTx(ctx, func(tx pgx.Tx) error {
		var current string
		if err := w.lockRow(ctx, tx, variantID, "COALESCE(variant_type, '')", &current); err != nil {
			return err
		}

		_, err := tx.Exec(ctx, fmt.Sprintf(`
			UPDATE %s SET variant_type = $1, is_parent = $2, updated_at = NOW()
			WHERE id::text = $3
		`, w.store.table), string(kind), kind == core.KindParent, variantID)
		if err != nil {
			return fmt.Errorf("failed to update kind for %s: %w", variantID, err)
		}
		return w.audit(ctx, tx, variantID, core.ActionSetKind, current, string(kind))
	})
}

// lockRow selects column for variantID FOR UPDATE into dst.
func (w *variantWriter) lockRow(ctx context.Context, tx pgx.Tx, variantID, column string, dst any) error {
	err := tx.QueryRow(ctx, fmt.Sprintf(
		"SELECT %s FROM %s WHERE id::text = $1 FOR UPDATE", column, w.store.table,
	), variantID).Scan(dst)
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("%w: %s", core.ErrVariantNotFound, variantID)
	}
	if err != nil {
		return fmt.Errorf("failed to lock variant %s: %w", variantID, err)
	}
	return nil
}

func (w *variantWriter) audit(ctx context.Context, tx pgx.Tx, variantID string, action core.ActionKind, oldValue, newValue string) error {
	_, err := tx.Exec(ctx, `
		INSERT INTO inventory_reconciliation_log (run_id, variant_id, action, old_value, new_value)
		VALUES ($1, $2, $3, $4, $5)
	`, w.runID, variantID, string(action), oldValue, newValue)
	if err != nil {
		return fmt.Errorf("failed to write reconciliation log for %s: %w", variantID, err)
	}
	return nil
}

func (w *variantWriter) inTx(ctx context.Context, fn func(tx pgx.Tx) error) error {
	tx, err := w.store.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit correction: %w", err)
	}
	return nil
}
