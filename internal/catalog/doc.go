// Package catalog provides read-only table metadata to the validator.
//
// The validator consumes exactly two things from a catalog: table resolution
// by name and the identifier-matching policy. Everything else about metadata
// management (DDL, versioning, persistence) lives outside this subsystem.
//
// PROVIDERS:
//
//   - Mem: map-backed, for tests and programmatic assembly.
//   - LoadYAML: catalog definition files.
//   - CompileCUE: the same schema expressed as a CUE value, with
//     position-carrying errors.
//   - OpenSQLite: introspects a live SQLite database via sqlite_master and
//     PRAGMA table_info, so an existing database can serve as the catalog.
//
// All providers produce the same immutable Table values. Resolution failures
// wrap ErrTableNotFound so callers can probe with errors.Is.
package catalog
