// Package manifest builds AMS provenance records for produced artifacts.
//
// A Builder hashes the artifact as it exists on storage, stamps identity,
// time, user, and host, and returns an immutable Record. Optional audit data
// is a builder input; records are never patched after construction. Geometry
// is always expressed in meters regardless of the active unit profile.
package manifest
