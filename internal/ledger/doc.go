// Package ledger persists recipe run history and an index of published
// manifests in SQLite.
//
// The ledger is secondary to the sidecars: it lets `modsuite history` list
// past runs and lets digest lookups find the manifest describing a file
// without walking the workspace. Schema changes ship as numbered files under
// migrations/ and are applied in order on Open.
package ledger
