package memory_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"inventory-reconciler/internal/core"
	"inventory-reconciler/internal/store/memory"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func str(s string) *string { return &s }

func writeFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "ledger.json")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadFile_BareArray(t *testing.T) {
	path := writeFile(t, `[
		{"id": "P1", "product_id": "prod-1", "kind": "parent", "quantity": 2, "is_active": true, "cost_price": "350.00"},
		{"id": "C1", "product_id": "prod-1", "kind": "imei_child", "parent_id": "P1", "quantity": 1,
		 "is_active": true, "imei": "123456789012345", "status": "available"}
	]`)

	store, err := memory.LoadFile(path)
	require.NoError(t, err)

	variants := store.Variants()
	require.Len(t, variants, 2)
	assert.Equal(t, core.KindParent, variants[0].Kind)
	assert.True(t, decimal.RequireFromString("350").Equal(variants[0].CostPrice))
	require.NotNil(t, variants[1].ParentID)
	assert.Equal(t, "P1", *variants[1].ParentID)
}

func TestLoadFile_WrappedObject(t *testing.T) {
	path := writeFile(t, `{"variants": [{"id": "S1", "product_id": "case", "kind": "standard", "quantity": 7, "is_active": true}]}`)

	store, err := memory.LoadFile(path)
	require.NoError(t, err)

	v, ok := store.Get("S1")
	require.True(t, ok)
	assert.Equal(t, 7, v.Quantity)
}

func TestLoadFile_Errors(t *testing.T) {
	_, err := memory.LoadFile(filepath.Join(t.TempDir(), "missing.json"))
	assert.ErrorContains(t, err, "failed to read snapshot")

	_, err = memory.LoadFile(writeFile(t, `not json`))
	assert.ErrorContains(t, err, "failed to parse snapshot")
}

func TestLoadLedger_ScopePullsInLinkedRows(t *testing.T) {
	store := memory.New(
		core.Variant{ID: "P1", ProductID: "phone", BranchID: "dar", Kind: core.KindParent, IsActive: true},
		core.Variant{ID: "C1", ProductID: "phone", BranchID: "arusha", Kind: core.KindImeiChild, ParentID: str("P1"), IsActive: true},
		core.Variant{ID: "S1", ProductID: "case", BranchID: "dar", Kind: core.KindStandard, IsActive: true},
	)

	snap, err := store.LoadLedger(context.Background(), core.LedgerScope{BranchID: "arusha"})
	require.NoError(t, err)

	var ids []string
	for _, v := range snap.Variants {
		ids = append(ids, v.ID)
	}
	assert.Equal(t, []string{"P1", "C1"}, ids)
	assert.Equal(t, core.LedgerScope{BranchID: "arusha"}, snap.Scope)
}

func TestLoadLedger_ScopeKeepsSiblingsOfReferencedParent(t *testing.T) {
	store := memory.New(
		core.Variant{ID: "P1", ProductID: "phone", BranchID: "dar", Kind: core.KindParent, Quantity: 2, IsActive: true},
		core.Variant{ID: "C1", ProductID: "phone", BranchID: "dar", Kind: core.KindImeiChild, ParentID: str("P1"),
			Quantity: 1, IsActive: true, IMEI: str("111111111111111"), Status: str("available")},
		core.Variant{ID: "C2", ProductID: "phone", BranchID: "arusha", Kind: core.KindImeiChild, ParentID: str("P1"),
			Quantity: 1, IsActive: true, IMEI: str("222222222222222"), Status: str("available")},
	)
	ctx := context.Background()

	snap, err := store.LoadLedger(ctx, core.LedgerScope{BranchID: "arusha"})
	require.NoError(t, err)
	require.Len(t, snap.Variants, 3)
	assert.Empty(t, core.Reconcile(snap))

	result := core.NewExecutor(store.Writer("run-1"), nil).Apply(ctx, core.Plan(core.Reconcile(snap)))
	assert.Empty(t, result.Applied)

	p1, _ := store.Get("P1")
	assert.Equal(t, 2, p1.Quantity)
}

func TestLoadLedger_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := memory.New().LoadLedger(ctx, core.LedgerScope{})

	assert.ErrorIs(t, err, context.Canceled)
}

func TestWrites(t *testing.T) {
	store := memory.New(
		core.Variant{ID: "P1", Kind: core.KindStandard, Quantity: 4, IsActive: true},
		core.Variant{ID: "C1", Kind: core.KindImeiChild, ParentID: str("P1"), Quantity: 1, IsActive: true},
	)
	w := store.Writer("run-1")
	ctx := context.Background()

	require.NoError(t, w.SetKind(ctx, "P1", core.KindParent))
	require.NoError(t, w.SetQuantity(ctx, "P1", 4, 1))
	require.NoError(t, w.SetStatus(ctx, "C1", "available"))

	p1, _ := store.Get("P1")
	assert.Equal(t, core.KindParent, p1.Kind)
	assert.Equal(t, 1, p1.Quantity)
	c1, _ := store.Get("C1")
	require.NotNil(t, c1.Status)
	assert.Equal(t, "available", *c1.Status)

	assert.ErrorIs(t, w.SetQuantity(ctx, "P1", 4, 0), core.ErrStaleVariant)
	assert.ErrorIs(t, w.SetStatus(ctx, "nope", "available"), core.ErrVariantNotFound)

	boom := errors.New("disk full")
	store.FailWrites("C1", boom)
	assert.ErrorIs(t, w.SetStatus(ctx, "C1", "sold"), boom)
	c1, _ = store.Get("C1")
	assert.Equal(t, "available", *c1.Status)
}

func TestSaveFile_RoundTrip(t *testing.T) {
	path := writeFile(t, `[{"id": "P1", "product_id": "phone", "kind": "parent", "quantity": 3, "is_active": true, "cost_price": "120.50"}]`)
	store, err := memory.LoadFile(path)
	require.NoError(t, err)
	require.NoError(t, store.Writer("run-1").SetQuantity(context.Background(), "P1", 3, 2))

	require.NoError(t, store.SaveFile(path))

	reloaded, err := memory.LoadFile(path)
	require.NoError(t, err)
	p1, ok := reloaded.Get("P1")
	require.True(t, ok)
	assert.Equal(t, 2, p1.Quantity)
	assert.True(t, decimal.RequireFromString("120.5").Equal(p1.CostPrice))

	leftovers, err := filepath.Glob(path + ".*.tmp")
	require.NoError(t, err)
	assert.Empty(t, leftovers)
}

func TestSaveFile_MissingDirectory(t *testing.T) {
	err := memory.New().SaveFile(filepath.Join(t.TempDir(), "nope", "ledger.json"))

	assert.ErrorContains(t, err, "failed to create snapshot temp file")
}
