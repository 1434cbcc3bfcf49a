// Package rules defines PII detection rules and compiles them into
// immutable rule sets. A rule pairs a regular expression with a priority,
// severity, and optional validator that filters structural false positives.
package rules
