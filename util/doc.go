// Package util provides the small set of generic helpers shared by
// flowspec, topology, and the server middleware: checking a declared value
// against an accepted set (Contains), applying a default in place of a
// zero value (Coalesce), rejecting a blank required field (ValidateNonEmpty),
// and parsing a human-readable byte size (ParseSize).
package util
