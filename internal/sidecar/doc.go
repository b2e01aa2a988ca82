// Package sidecar persists provenance records beside their artifacts.
//
// The primary sidecar is <artifact>.ams.json; the secondary <artifact>.ams.yaml
// is re-encoded from the primary's bytes rather than built independently.
// Writes are not transactional across the pair. WriteOptions.Atomic stages
// each file through a rename but a crash between the two files can still
// leave the secondary stale or absent.
package sidecar
