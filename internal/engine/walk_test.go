package engine

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/veilscan/veilscan/internal/ignore"
)

func TestCountTargets_InlineIgnoreAndMaxBytes(t *testing.T) {
	dir := t.TempDir()
	// files
	small := filepath.Join(dir, "a.txt")
	big := filepath.Join(dir, "big.bin")
	ignFile := filepath.Join(dir, ".veilscanignore")
	if err := os.WriteFile(small, []byte("ok"), 0644); err != nil {
		t.Fatal(err)
	}
	// big file over threshold
	bigData := make([]byte, 1024*1024)
	if err := os.WriteFile(big, bigData, 0644); err != nil {
		t.Fatal(err)
	}
	// inline ignore in another file included
	ignored := filepath.Join(dir, "ignored.txt")
	if err := os.WriteFile(ignored, []byte("// veilscan:ignore-file\njane@example.com"), 0644); err != nil {
		t.Fatal(err)
	}
	// ignore pattern to skip ignored.txt too (double ensure)
	if err := os.WriteFile(ignFile, []byte("ignored.txt\n"), 0644); err != nil {
		t.Fatal(err)
	}

	cfg := Config{Root: dir, MaxBytes: 1 << 20}
	n, err := CountTargets(cfg)
	if err != nil {
		t.Fatal(err)
	}
	// working-tree CountTargets includes a.txt, big.bin and the .veilscanignore file itself (not auto-ignored).
	// ignored.txt is excluded by .veilscanignore. Expect 3.
	if n != 3 {
		t.Fatalf("expected 3 targets, got %d", n)
	}

	// sanity check: matcher compiles
	if _, err := ignore.Load(filepath.Join(dir, ".veilscanignore")); err != nil {
		t.Fatal(err)
	}
}

func TestWalk_SkipsInlineDirectiveAndBinary(t *testing.T) {
	dir := t.TempDir()
	write := func(name string, data []byte) {
		if err := os.WriteFile(filepath.Join(dir, name), data, 0644); err != nil {
			t.Fatal(err)
		}
	}
	write("keep.txt", []byte("email: jane@example.com\n"))
	write("vetted.txt", []byte("# veilscan:ignore-file\nemail: jane@example.com\n"))
	write("blob.dat", []byte{0x00, 0x01, 0x02, 'a', 'b'})

	var got []string
	cfg := Config{Root: dir, MaxBytes: 1 << 20}
	if err := Walk(nil, cfg, nil, func(p string, _ []byte) { got = append(got, p) }); err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0] != "keep.txt" {
		t.Fatalf("expected only keep.txt, got %v", got)
	}
}
