package validate

import (
	"strconv"
	"strings"
)

// LengthBetween returns true if n is within [min,max].
func LengthBetween(s string, min, max int) bool {
	n := len(s)
	return n >= min && n <= max
}

// AllDigits returns true if s is non-empty and every byte is an ASCII digit.
func AllDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// Digits returns only the ASCII digits of s, dropping separators such as
// spaces, dashes, dots, and parentheses.
func Digits(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		if s[i] >= '0' && s[i] <= '9' {
			b.WriteByte(s[i])
		}
	}
	return b.String()
}

// Luhn reports whether the digits of s pass the Luhn mod-10 checksum.
// Separators are stripped first. Runs shorter than 12 or longer than 19
// digits are rejected outright; no real card number falls outside that.
func Luhn(s string) bool {
	digits := Digits(s)
	if !LengthBetween(digits, 12, 19) {
		return false
	}
	sum := 0
	double := false
	for i := len(digits) - 1; i >= 0; i-- {
		d := int(digits[i] - '0')
		if double {
			d *= 2
			if d > 9 {
				d -= 9
			}
		}
		sum += d
		double = !double
	}
	return sum%10 == 0
}

// SSNParts reports whether an area/group/serial triple is an assignable
// SSN: area not 000 or 666 and below 900, group not 00, serial not 0000.
func SSNParts(area, group, serial string) bool {
	if !AllDigits(area) || !AllDigits(group) || !AllDigits(serial) {
		return false
	}
	a, _ := strconv.Atoi(area)
	if a == 0 || a == 666 || a >= 900 {
		return false
	}
	if group == "00" || serial == "0000" {
		return false
	}
	return true
}

// LooksLikeSSN strips separators and applies SSNParts to a 9-digit run.
func LooksLikeSSN(s string) bool {
	digits := Digits(s)
	if len(digits) != 9 {
		return false
	}
	return SSNParts(digits[:3], digits[3:5], digits[5:])
}

// OctetsInRange reports whether s is dotted-decimal with every octet in
// [0,255]. The ip_address pattern alone accepts runs like 999.999.999.999.
func OctetsInRange(s string) bool {
	parts := strings.Split(s, ".")
	if len(parts) != 4 {
		return false
	}
	for _, p := range parts {
		if !AllDigits(p) || len(p) > 3 {
			return false
		}
		n, err := strconv.Atoi(p)
		if err != nil || n > 255 {
			return false
		}
	}
	return true
}
