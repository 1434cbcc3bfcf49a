package redact

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/veilscan/veilscan/internal/rules"
	"github.com/veilscan/veilscan/internal/scan"
	"github.com/veilscan/veilscan/internal/types"
)

func match(text string) types.Match {
	return types.Match{Rule: "credit_card", Text: text, End: len(text)}
}

func span(rule string, start, end int) types.Match {
	return types.Match{Rule: rule, Start: start, End: end}
}

func scannerFor(t *testing.T, names ...string) *scan.Scanner {
	t.Helper()
	def, err := rules.Default()
	if err != nil {
		t.Fatalf("Default: %v", err)
	}
	set := def
	if len(names) > 0 {
		set, err = def.Filter(names, nil)
		if err != nil {
			t.Fatalf("Filter: %v", err)
		}
	}
	return scan.New(set)
}

func TestTextDefaultPlaceholder(t *testing.T) {
	sc := scannerFor(t, "email", "phone_us")
	src := "Contact me at john@example.com or 555-123-4567."
	res := sc.Scan(src)
	got := Text(src, res.Matches, nil)
	want := "Contact me at [REDACTED:email] or [REDACTED:phone_us]."
	if got != want {
		t.Fatalf("Text = %q, want %q", got, want)
	}
}

func TestTextPlaceholderCountMatchesResolvedMatches(t *testing.T) {
	sc := scannerFor(t)
	src := "Jane Smith, 123 Main Street, 90210, jane@x.com 01/15/2024"
	res := sc.Scan(src)
	if len(res.Matches) == 0 {
		t.Fatal("expected matches in fixture text")
	}
	got := Text(src, res.Matches, nil)
	if n := strings.Count(got, "[REDACTED:"); n != len(res.Matches) {
		t.Fatalf("placeholder count %d != match count %d (%q)", n, len(res.Matches), got)
	}
}

func TestTextPreservesSurroundingBytes(t *testing.T) {
	sc := scannerFor(t, "email")
	src := "héllo wörld user@example.com trailing bytes"
	res := sc.Scan(src)
	if len(res.Matches) != 1 {
		t.Fatalf("matches = %+v", res.Matches)
	}
	got := Text(src, res.Matches, nil)
	m := res.Matches[0]
	if !strings.HasPrefix(got, src[:m.Start]) {
		t.Fatalf("prefix corrupted: %q", got)
	}
	if !strings.HasSuffix(got, src[m.End:]) {
		t.Fatalf("suffix corrupted: %q", got)
	}
}

func TestTextCustomFunc(t *testing.T) {
	sc := scannerFor(t, "email", "phone_us")
	src := "a@b.io and 555-123-4567"
	res := sc.Scan(src)
	got := Text(src, res.Matches, Mask(4, 0))
	if !strings.HasPrefix(got, "a@b.") {
		t.Fatalf("mask lost the lead-in: %q", got)
	}
	if strings.Contains(got, "4567") {
		t.Fatalf("mask leaked the tail: %q", got)
	}
}

func TestMaskShapes(t *testing.T) {
	fnHead := Mask(4, 0)
	if got := fnHead(match("4111-1111-1111-1111")); got != "4111***************" {
		t.Fatalf("Mask(4,0) = %q", got)
	}
	fnBoth := Mask(2, 2)
	if got := fnBoth(match("123-45-6789")); got != "12*******89" {
		t.Fatalf("Mask(2,2) = %q", got)
	}
	if got := fnBoth(match("abc")); got != "***" {
		t.Fatalf("short values must be fully masked, got %q", got)
	}
}

func TestTextNoMatches(t *testing.T) {
	src := "nothing sensitive here"
	if got := Text(src, nil, nil); got != src {
		t.Fatalf("Text without matches rewrote input: %q", got)
	}
}

func TestTextSkipsInvalidSpans(t *testing.T) {
	src := "abcdef"
	ms := []types.Match{
		span("x", 2, 4),
		span("x", 3, 5),  // overlaps the previous span
		span("x", 5, 99), // out of bounds
	}
	got := Text(src, ms, func(types.Match) string { return "_" })
	if got != "ab_ef" {
		t.Fatalf("Text = %q, want ab_ef", got)
	}
}

func TestApplyAndWouldChange(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "notes.txt")
	if err := os.WriteFile(path, []byte("customer ssn is 123-45-6789 end"), 0o600); err != nil {
		t.Fatal(err)
	}
	sc := scannerFor(t, "ssn")

	would, err := WouldChange(path, sc, nil)
	if err != nil {
		t.Fatalf("WouldChange: %v", err)
	}
	if !would {
		t.Fatal("expected WouldChange to be true")
	}

	changed, err := Apply(path, sc, nil)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if !changed {
		t.Fatal("expected Apply to modify the file")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "customer ssn is [REDACTED:ssn] end" {
		t.Fatalf("file content = %q", data)
	}
	fi, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if fi.Mode().Perm() != 0o600 {
		t.Fatalf("permissions changed: %v", fi.Mode())
	}

	changed, err = Apply(path, sc, nil)
	if err != nil {
		t.Fatalf("second Apply: %v", err)
	}
	if changed {
		t.Fatal("expected second Apply to be a no-op")
	}
	would, err = WouldChange(path, sc, nil)
	if err != nil {
		t.Fatalf("WouldChange after Apply: %v", err)
	}
	if would {
		t.Fatal("expected WouldChange to be false after Apply")
	}
}
