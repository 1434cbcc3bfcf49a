// Package core provides a small, stable facade over veilscan's internal
// engine for external integrations. It deliberately re-exports a narrow
// API surface so embedding programs and third-party tools can depend on a
// stable import path without reaching into internal packages.
//
// Example:
//
//	cfg := core.Config{Root: ".", Threads: 0}
//	findings, err := core.Scan(cfg)
//	if err != nil { /* handle */ }
//	_ = core.MarshalFindings(os.Stdout, findings)
package core
