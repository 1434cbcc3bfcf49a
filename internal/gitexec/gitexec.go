// Package gitexec runs git subcommands with bounded execution time. It backs
// the fix and purge commands, which shell out for index edits and history
// rewrites rather than reimplementing them.
package gitexec

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"time"
)

// WithTimeout returns a context that bounds a git invocation.
func WithTimeout(d time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), d)
}

// Git runs a git subcommand in the current directory with output wired to
// the terminal.
func Git(ctx context.Context, args ...string) error {
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	cmd.Stdin = os.Stdin
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("git %v: %w", args, err)
	}
	return nil
}

// DetectFilterRepo verifies that the git-filter-repo extension is installed.
// History rewrites refuse to run without it.
func DetectFilterRepo() error {
	ctx, cancel := WithTimeout(5 * time.Second)
	defer cancel()
	cmd := exec.CommandContext(ctx, "git", "filter-repo", "--version")
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("git-filter-repo not found; install it from https://github.com/newren/git-filter-repo")
	}
	return nil
}
