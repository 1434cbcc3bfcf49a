package rules

import "testing"

func TestBuiltinsCompile(t *testing.T) {
	set, err := NewSet(Builtins())
	if err != nil {
		t.Fatalf("builtin catalog failed to compile: %v", err)
	}
	if set.Len() != 12 {
		t.Fatalf("catalog size = %d, want 12", set.Len())
	}
}

func TestBuiltinExamplesMatch(t *testing.T) {
	set, err := NewSet(Builtins())
	if err != nil {
		t.Fatalf("NewSet: %v", err)
	}
	for _, r := range set.Rules() {
		if r.Example == "" {
			t.Errorf("rule %s has no example", r.Name)
			continue
		}
		m := r.Pattern.FindString(r.Example)
		if m == "" {
			t.Errorf("rule %s does not match its own example %q", r.Name, r.Example)
			continue
		}
		if r.Validator != nil {
			ok, err := r.Validator(m)
			if err != nil {
				t.Errorf("rule %s validator failed on %q: %v", r.Name, m, err)
			} else if !ok {
				t.Errorf("rule %s validator rejects its own example %q", r.Name, m)
			}
		}
	}
}

func TestBuiltinPriorities(t *testing.T) {
	set, err := NewSet(Builtins())
	if err != nil {
		t.Fatalf("NewSet: %v", err)
	}
	ssn, _ := set.Get("ssn")
	date, _ := set.Get("date")
	if ssn.Priority <= date.Priority {
		t.Fatalf("ssn priority %d must exceed date priority %d", ssn.Priority, date.Priority)
	}
	passport, _ := set.Get("passport")
	license, _ := set.Get("license")
	if passport.Priority <= license.Priority {
		t.Fatalf("passport priority %d must exceed license priority %d", passport.Priority, license.Priority)
	}
}

func TestBuiltinValidatorsCutFalsePositives(t *testing.T) {
	set, err := NewSet(Builtins())
	if err != nil {
		t.Fatalf("NewSet: %v", err)
	}
	cc, _ := set.Get("credit_card")
	if ok, _ := cc.Validator("1234-5678-9012-3456"); ok {
		t.Fatal("luhn should reject a sequential card number")
	}
	ssn, _ := set.Get("ssn")
	if ok, _ := ssn.Validator("666-12-3456"); ok {
		t.Fatal("ssn validator should reject area 666")
	}
	ip, _ := set.Get("ip_address")
	if ok, _ := ip.Validator("999.999.999.999"); ok {
		t.Fatal("ip validator should reject out-of-range octets")
	}
}

func TestBuiltinNamesOrder(t *testing.T) {
	names := BuiltinNames()
	if len(names) != 12 {
		t.Fatalf("BuiltinNames len = %d, want 12", len(names))
	}
	if names[0] != "email" || names[len(names)-1] != "license" {
		t.Fatalf("unexpected catalog order: %v", names)
	}
}
