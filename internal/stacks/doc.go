// Package stacks detects the software stacks behind a loaded web page.
//
// Two detectors feed one artifact:
//
//   - LibraryDetector runs every probe of an opaque signature catalog inside
//     a remote execution context (an Executor, usually a browser tab). Each
//     probe races a fixed one second timer; a probe that hangs, throws, or
//     loses the race simply does not appear in the result.
//   - ServerDetector matches the primary document's response headers against
//     an ordered table of server signatures. The first matching signature
//     wins.
//
// Collector runs both and merges their output into a flat []StackEntry,
// library results first in catalog order, then at most one server entry.
// Collector.Detect is the boundary used by the audit pipeline: it never
// returns an error and degrades to an empty slice instead.
//
// The Executor and the captured network log are collaborators. This package
// only ships plain data and function source across the Executor boundary.
package stacks
