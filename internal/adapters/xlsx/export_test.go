package xlsx_test

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"

	"inventory-reconciler/internal/adapters/xlsx"
	"inventory-reconciler/internal/app"
	"inventory-reconciler/internal/core"
	"inventory-reconciler/internal/store/memory"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func str(s string) *string { return &s }

func reconcileSample(t *testing.T, dryRun bool) *app.ReconcileResult {
	t.Helper()
	store := memory.New(
		core.Variant{ID: "P1", ProductID: "prod-1", Kind: core.KindParent, Quantity: 3, IsActive: true},
		core.Variant{ID: "C1", ProductID: "prod-1", Kind: core.KindImeiChild, ParentID: str("P1"),
			Quantity: 1, IsActive: true, IMEI: str("123456789012345"), Status: str("available")},
		core.Variant{ID: "C2", ProductID: "prod-1", Kind: core.KindImeiChild, ParentID: str("P1"),
			Quantity: 1, IsActive: true, IMEI: str("bad-imei"), Status: str("")},
	)
	result, err := app.NewAppService(store, app.Options{}, nil).Reconcile(context.Background(), app.ReconcileRequest{DryRun: dryRun})
	require.NoError(t, err)
	return result
}

func TestWrite_Sheets(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, xlsx.Write(&buf, reconcileSample(t, false)))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{xlsx.SheetSummary, xlsx.SheetDiscrepancies, xlsx.SheetActions}, f.GetSheetList())

	mode, err := f.GetCellValue(xlsx.SheetSummary, "B2")
	require.NoError(t, err)
	assert.Equal(t, "post_apply", mode)

	rows, err := f.GetRows(xlsx.SheetDiscrepancies)
	require.NoError(t, err)
	require.Len(t, rows, 4)
	assert.Equal(t, "Type", rows[0][0])
	assert.Equal(t, "stock_mismatch", rows[1][0])
	assert.Equal(t, "P1", rows[1][1])

	actions, err := f.GetRows(xlsx.SheetActions)
	require.NoError(t, err)
	require.Len(t, actions, 4)
	assert.Equal(t, []string{"set_quantity", "P1", "set quantity 3 -> 2", "applied"}, actions[1])
	assert.Equal(t, "needs review", actions[2][3])
	assert.Equal(t, "applied", actions[3][3])
}

func TestExport_DryRunFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reconcile.xlsx")
	require.NoError(t, xlsx.Export(path, reconcileSample(t, true)))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	actions, err := f.GetRows(xlsx.SheetActions)
	require.NoError(t, err)
	assert.Equal(t, "planned", actions[1][3])
}
