package cli_test

import (
	"bytes"
	"encoding/json"
	"testing"

	"inventory-reconciler/internal/adapters/cli"
	"inventory-reconciler/internal/core"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleReport(result *core.ExecutionResult) core.Report {
	discrepancies := []core.Discrepancy{
		{Type: core.StockMismatch, VariantID: "P1", ProductID: "prod-1", Recorded: 3, Expected: 2, Delta: -1},
		{Type: core.InvalidImeiFormat, VariantID: "C2", ProductID: "prod-1", Value: "bad-imei"},
		{Type: core.MissingStatus, VariantID: "C2", ProductID: "prod-1"},
	}
	r := core.BuildReport(discrepancies, core.Plan(discrepancies), result, 2)
	r.RunID = "run-1"
	r.Scope = core.LedgerScope{BranchID: "arusha"}
	return r
}

func TestPrintReport_DryRun(t *testing.T) {
	var buf bytes.Buffer
	cli.PrintReport(&buf, sampleReport(nil))
	out := buf.String()

	assert.Contains(t, out, "INVENTORY RECONCILIATION")
	assert.Contains(t, out, "branch arusha")
	assert.Contains(t, out, "dry_run")
	assert.Contains(t, out, "recorded 3, expected 2 (delta -1)")
	assert.Contains(t, out, `imei "bad-imei"`)
	assert.Contains(t, out, "... and 1 more")
	assert.Contains(t, out, "2 automatic, 1 manual review")
	assert.NotContains(t, out, "Applied")
}

func TestPrintReport_PostApply(t *testing.T) {
	result := &core.ExecutionResult{
		Applied: []core.ActionRecord{{Action: core.ActionSetStatus, VariantID: "C2"}},
		Failures: []core.ActionFailure{{
			ActionRecord: core.ActionRecord{Action: core.ActionSetQuantity, VariantID: "P1"},
			Error:        "variant changed since snapshot",
		}},
	}

	var buf bytes.Buffer
	cli.PrintReport(&buf, sampleReport(result))
	out := buf.String()

	assert.Contains(t, out, "post_apply")
	assert.Contains(t, out, "! set_quantity P1: variant changed since snapshot")
}

func TestPrintReport_Clean(t *testing.T) {
	var buf bytes.Buffer
	cli.PrintReport(&buf, core.BuildReport(nil, core.Plan(nil), nil, 10))

	assert.Contains(t, buf.String(), "No discrepancies found.")
	assert.Contains(t, buf.String(), "whole catalog")
}

func TestWriteJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, cli.WriteJSON(&buf, sampleReport(nil)))

	var decoded core.Report
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, "run-1", decoded.RunID)
	assert.Equal(t, 3, decoded.TotalDiscrepancies)
	assert.Len(t, decoded.Preview, 2)
}

func TestWriteSchema(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, cli.WriteSchema(&buf))

	var schema struct {
		Type       string `json:"type"`
		Properties map[string]struct {
			Type string `json:"type"`
		} `json:"properties"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &schema))

	assert.Equal(t, "object", schema.Type)
	assert.Equal(t, "string", schema.Properties["mismatch_value"].Type)
	assert.Equal(t, "integer", schema.Properties["total_discrepancies"].Type)
	assert.Contains(t, schema.Properties, "preview")
}
