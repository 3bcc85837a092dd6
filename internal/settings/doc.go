// Package settings stores JSON documents by key in SQLite.
//
// The pattern service keeps its user patterns under "patterns" and its
// runtime options under "patternsService". Values are validated as JSON
// by the table's CHECK constraint.
package settings
