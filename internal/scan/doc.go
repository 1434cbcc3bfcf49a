// Package scan finds rule matches in text. A Scanner applies every rule
// of an immutable rule set, filters candidates through rule validators,
// and resolves overlaps into a deterministic non-overlapping result.
// Scanners are stateless and safe for concurrent use.
package scan
