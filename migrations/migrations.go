// Package migrations embeds the SQL schema for the variant ledger and the
// reconciliation audit log.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
