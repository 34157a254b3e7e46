// Package assessment provides read access to health assessment snapshots.
//
// The chat side of the application only reads assessments; intake owns the
// records. A Snapshot carries the cycle pattern classification and the
// answers it was derived from, frozen at the moment a conversation links to
// it.
//
// Two Lookup implementations exist: SQLiteLookup reads the shared
// application database, and StaticLookup serves a fixed in-memory set for
// tests and mock deployments.
package assessment
