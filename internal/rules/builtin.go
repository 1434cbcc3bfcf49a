package rules

import "github.com/veilscan/veilscan/internal/types"

// Builtins returns the built-in PII catalog. Priorities settle overlap
// ties deterministically: identifiers with checksums or fixed shapes
// outrank loose contextual patterns, and passport outranks license because
// the two shapes coincide on 6-8 digit tails.
func Builtins() []Spec {
	return []Spec{
		{
			Name:        "email",
			Pattern:     `\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}\b`,
			Description: "Email address",
			Priority:    80,
			Severity:    types.SevMed,
			MaxLen:      254,
			Example:     "user@example.com",
		},
		{
			Name:        "phone_us",
			Pattern:     `\b(\+?1[-.\s]?)?\(?[0-9]{3}\)?[-.\s]?[0-9]{3}[-.\s]?[0-9]{4}\b`,
			Description: "US phone number",
			Priority:    55,
			Severity:    types.SevMed,
			MaxLen:      24,
			Example:     "(555) 123-4567",
		},
		{
			Name:        "ssn",
			Pattern:     `\b\d{3}[-\s]?\d{2}[-\s]?\d{4}\b`,
			Description: "US Social Security number",
			Priority:    90,
			Severity:    types.SevHigh,
			Validator:   "ssn",
			MaxLen:      11,
			Example:     "123-45-6789",
		},
		{
			Name:        "credit_card",
			Pattern:     `\b(?:\d{4}[-\s]?){3}\d{4}\b`,
			Description: "Payment card number",
			Priority:    85,
			Severity:    types.SevHigh,
			Validator:   "luhn",
			MaxLen:      19,
			Example:     "4111-1111-1111-1111",
		},
		{
			Name:        "zipcode",
			Pattern:     `\b\d{5}(-\d{4})?\b`,
			Description: "US ZIP code",
			Priority:    30,
			Severity:    types.SevLow,
			MaxLen:      10,
			Example:     "90210-1234",
		},
		{
			Name:        "ip_address",
			Pattern:     `\b(?:[0-9]{1,3}\.){3}[0-9]{1,3}\b`,
			Description: "IPv4 address",
			Priority:    50,
			Severity:    types.SevMed,
			Validator:   "ip",
			MaxLen:      15,
			Example:     "192.168.1.100",
		},
		{
			Name:        "url",
			Pattern:     `https?://(?:[-\w.])+(?:[:\d]+)?(?:/(?:[\w/_.])*(?:\?(?:[\w&=%.])*)?(?:#(?:\w*))?)?`,
			Description: "HTTP or HTTPS URL",
			Priority:    45,
			Severity:    types.SevLow,
			MaxLen:      2048,
			Example:     "https://example.com/account?id=42",
		},
		{
			Name:        "name",
			Pattern:     `\b[A-Z][a-z]+\s+[A-Z][a-z]+\b`,
			Description: "Capitalized first and last name",
			Priority:    10,
			Severity:    types.SevLow,
			MaxLen:      64,
			Example:     "John Doe",
		},
		{
			Name:        "address",
			Pattern:     `\b\d+\s+[A-Za-z0-9\s,]+(?:Street|St|Avenue|Ave|Road|Rd|Boulevard|Blvd|Drive|Dr|Lane|Ln|Way|Circle|Cir)\b`,
			Description: "US street address",
			Priority:    25,
			Severity:    types.SevMed,
			MaxLen:      128,
			Example:     "123 Main Street",
		},
		{
			Name:        "date",
			Pattern:     `\b(?:\d{1,2}[/-]\d{1,2}[/-]\d{2,4}|\d{4}[/-]\d{1,2}[/-]\d{1,2}|(?:Jan|Feb|Mar|Apr|May|Jun|Jul|Aug|Sep|Oct|Nov|Dec)[a-z]*\s+\d{1,2},?\s+\d{4})\b`,
			Description: "Calendar date",
			Priority:    40,
			Severity:    types.SevLow,
			MaxLen:      32,
			Example:     "01/15/2024",
		},
		{
			Name:        "passport",
			Pattern:     `\b[A-Z]{1,2}\d{6,9}\b`,
			Description: "Passport number",
			Priority:    70,
			Severity:    types.SevHigh,
			MaxLen:      11,
			Example:     "A12345678",
		},
		{
			Name:        "license",
			Pattern:     `\b[A-Z]{1,2}\d{6,8}\b`,
			Description: "Driver's license number",
			Priority:    60,
			Severity:    types.SevHigh,
			MaxLen:      10,
			Example:     "D1234567",
		},
	}
}

// BuiltinNames returns the catalog rule names in declaration order.
func BuiltinNames() []string {
	specs := Builtins()
	names := make([]string, len(specs))
	for i, s := range specs {
		names[i] = s.Name
	}
	return names
}
