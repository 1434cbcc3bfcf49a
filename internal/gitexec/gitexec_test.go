package gitexec

import (
	"context"
	"testing"
	"time"
)

func TestGitVersion(t *testing.T) {
	ctx, cancel := WithTimeout(10 * time.Second)
	defer cancel()
	if err := Git(ctx, "version"); err != nil {
		t.Fatalf("git version: %v", err)
	}
}

func TestGitCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := Git(ctx, "version"); err == nil {
		t.Fatal("expected error with canceled context")
	}
}

func TestGitUnknownSubcommand(t *testing.T) {
	ctx, cancel := WithTimeout(10 * time.Second)
	defer cancel()
	if err := Git(ctx, "definitely-not-a-subcommand"); err == nil {
		t.Fatal("expected error for unknown subcommand")
	}
}
