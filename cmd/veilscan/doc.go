// Package veilscan provides the command-line interface for the veilscan tool.
// It configures subcommands (scan, redact, review, etc.), parses flags, and
// executes the selected command.
//
// Typical usage from a main package:
//
//	package main
//	import "github.com/veilscan/veilscan/cmd/veilscan"
//	func main() { veilscan.Execute() }
package veilscan
