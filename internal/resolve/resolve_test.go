package resolve

import (
	"reflect"
	"testing"

	"github.com/veilscan/veilscan/internal/types"
)

func rm(rule string, prio, start, end int) types.RawMatch {
	return types.RawMatch{Rule: rule, Priority: prio, Start: start, End: end}
}

func overlaps(a, b types.RawMatch) bool {
	return a.Start < b.End && b.Start < a.End
}

func TestResolveLongerSpanWinsAtSameStart(t *testing.T) {
	got := Resolve([]types.RawMatch{
		rm("zipcode", 30, 0, 5),
		rm("ssn", 90, 0, 11),
	})
	if len(got) != 1 || got[0].Rule != "ssn" {
		t.Fatalf("got %+v, want single ssn match", got)
	}
}

func TestResolvePriorityBreaksEqualSpans(t *testing.T) {
	got := Resolve([]types.RawMatch{
		rm("date", 40, 0, 11),
		rm("ssn", 90, 0, 11),
	})
	if len(got) != 1 || got[0].Rule != "ssn" {
		t.Fatalf("got %+v, want ssn to win on priority", got)
	}
}

func TestResolveNameBreaksFullTies(t *testing.T) {
	got := Resolve([]types.RawMatch{
		rm("passport", 70, 4, 13),
		rm("alpha", 70, 4, 13),
	})
	if len(got) != 1 || got[0].Rule != "alpha" {
		t.Fatalf("got %+v, want lexicographically first rule", got)
	}
}

func TestResolveSweepConsumesContainedMatches(t *testing.T) {
	got := Resolve([]types.RawMatch{
		rm("url", 45, 10, 50),
		rm("email", 80, 20, 36),
		rm("phone_us", 55, 60, 72),
	})
	if len(got) != 2 {
		t.Fatalf("got %d matches, want 2: %+v", len(got), got)
	}
	if got[0].Rule != "url" || got[1].Rule != "phone_us" {
		t.Fatalf("got %+v", got)
	}
}

func TestResolveKeepsAdjacentSpans(t *testing.T) {
	got := Resolve([]types.RawMatch{
		rm("a", 1, 0, 5),
		rm("b", 1, 5, 9),
	})
	if len(got) != 2 {
		t.Fatalf("adjacent half-open spans must both survive: %+v", got)
	}
}

func TestResolveDropsZeroLength(t *testing.T) {
	got := Resolve([]types.RawMatch{
		rm("empty", 99, 3, 3),
		rm("real", 1, 0, 4),
	})
	if len(got) != 1 || got[0].Rule != "real" {
		t.Fatalf("zero-length candidate must not block a real one: %+v", got)
	}
}

func TestResolveEmptyInput(t *testing.T) {
	if got := Resolve(nil); len(got) != 0 {
		t.Fatalf("Resolve(nil) = %+v", got)
	}
}

func TestResolveIdempotent(t *testing.T) {
	in := []types.RawMatch{
		rm("ssn", 90, 0, 11),
		rm("date", 40, 0, 11),
		rm("email", 80, 15, 31),
		rm("zipcode", 30, 40, 45),
	}
	once := Resolve(in)
	twice := Resolve(once)
	if !reflect.DeepEqual(once, twice) {
		t.Fatalf("not idempotent:\nonce:  %+v\ntwice: %+v", once, twice)
	}
}

func TestResolveOutputNeverOverlaps(t *testing.T) {
	in := []types.RawMatch{
		rm("a", 5, 0, 10),
		rm("b", 9, 2, 8),
		rm("c", 1, 8, 20),
		rm("d", 7, 10, 14),
		rm("e", 3, 19, 25),
		rm("f", 9, 24, 30),
	}
	got := Resolve(in)
	for i := range got {
		for j := i + 1; j < len(got); j++ {
			if overlaps(got[i], got[j]) {
				t.Fatalf("overlap between %+v and %+v", got[i], got[j])
			}
		}
		if i > 0 && got[i].Start < got[i-1].Start {
			t.Fatalf("output not sorted by start: %+v", got)
		}
	}
}

func TestResolveDeterministicUnderInputOrder(t *testing.T) {
	base := []types.RawMatch{
		rm("ssn", 90, 0, 11),
		rm("date", 40, 0, 11),
		rm("zipcode", 30, 0, 5),
		rm("email", 80, 12, 28),
		rm("name", 10, 14, 22),
	}
	want := Resolve(base)
	perms := [][]int{
		{4, 3, 2, 1, 0},
		{2, 0, 4, 1, 3},
		{1, 4, 0, 3, 2},
	}
	for _, p := range perms {
		in := make([]types.RawMatch, len(base))
		for i, idx := range p {
			in[i] = base[idx]
		}
		if got := Resolve(in); !reflect.DeepEqual(got, want) {
			t.Fatalf("input order changed the result:\ngot:  %+v\nwant: %+v", got, want)
		}
	}
}

func TestResolveInputUntouched(t *testing.T) {
	in := []types.RawMatch{
		rm("b", 1, 5, 9),
		rm("a", 1, 0, 5),
	}
	snapshot := make([]types.RawMatch, len(in))
	copy(snapshot, in)
	Resolve(in)
	if !reflect.DeepEqual(in, snapshot) {
		t.Fatalf("input slice reordered: %+v", in)
	}
}
