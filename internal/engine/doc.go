// Package engine contains the core scanning logic for Veilscan. It traverses
// target files, runs the rule set over each blob, and returns structured
// findings with file positions. This package is internal; external consumers
// should use the stable facade in pkg/core.
package engine
