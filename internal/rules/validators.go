package rules

import (
	"sort"

	v "github.com/veilscan/veilscan/internal/validate"
)

// Validator checks a candidate match beyond what the pattern can express.
// Returning false discards the candidate. Returning an error also discards
// it and records a diagnostic on the scan result; it never aborts a scan.
type Validator func(text string) (bool, error)

var builtinValidators = map[string]Validator{
	// Mod-10 checksum over the card digits. Kills sequential digit runs
	// like 1234-5678-9012-3456 that the pattern alone accepts.
	"luhn": func(text string) (bool, error) {
		return v.Luhn(text), nil
	},
	// Area/group/serial exclusions for US SSNs. RE2 has no lookahead, so
	// the pattern matches any 3-2-4 digit grouping and this rejects the
	// unassignable ones (000/666/9xx areas, 00 group, 0000 serial).
	"ssn": func(text string) (bool, error) {
		return v.LooksLikeSSN(text), nil
	},
	// Each dotted-decimal octet must be <= 255.
	"ip": func(text string) (bool, error) {
		return v.OctetsInRange(text), nil
	},
}

func lookupValidator(id string) (Validator, bool) {
	fn, ok := builtinValidators[id]
	return fn, ok
}

// ValidatorIDs returns the built-in validator IDs, sorted.
func ValidatorIDs() []string {
	ids := make([]string, 0, len(builtinValidators))
	for id := range builtinValidators {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
