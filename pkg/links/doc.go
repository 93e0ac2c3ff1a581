// Package links turns dependency edges into filesystem symlinks.
//
// A package that declares an imports directory receives one link per export
// of every package it depends on, directly or transitively:
//
//	app/lib/core      -> core/src      (single export)
//	app/lib/util/api  -> util/api      (named export "api")
//
// Internal links connect two paths of the same package.
//
// A link can be materialized: the symlink is replaced by a real copy so the
// dependency can be edited in place, and a MATERIALIZED marker is written to
// the dependency's directory. Dematerializing copies the edits back to the
// dependency and restores the symlink.
package links
