package git

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
)

// Entry is one commit and the content of the files it touched.
type Entry struct {
	Hash  string
	Files map[string][]byte
}

// validateRoot validates and normalizes a git repository root path.
// Returns the cleaned absolute path or an error if invalid.
func validateRoot(root string) (string, error) {
	// Check for null bytes (potential injection)
	if strings.ContainsRune(root, 0) {
		return "", fmt.Errorf("invalid path: contains null byte")
	}

	// Clean and make absolute
	cleaned := filepath.Clean(root)
	abs, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("invalid path %q: %w", root, err)
	}

	// Verify it's a directory
	info, err := os.Stat(abs)
	if err != nil {
		return "", fmt.Errorf("cannot access path %q: %w", root, err)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("path is not a directory: %s", root)
	}

	return abs, nil
}

// RepoMetadata returns (repo, commit, branch) best-effort for the given root.
// Empty strings are returned on failure.
func RepoMetadata(root string) (string, string, string) {
	validRoot, err := validateRoot(root)
	if err != nil {
		return "", "", ""
	}
	r, err := gogit.PlainOpen(validRoot)
	if err != nil {
		return "", "", ""
	}

	repo := ""
	if rem, err := r.Remote("origin"); err == nil {
		if urls := rem.Config().URLs; len(urls) > 0 {
			repo = shortenRemote(urls[0])
		}
	}

	commit, branch := "", ""
	if head, err := r.Head(); err == nil {
		commit = head.Hash().String()
		if head.Name().IsBranch() {
			branch = head.Name().Short()
		} else {
			branch = "HEAD"
		}
	}
	return repo, commit, branch
}

// shortenRemote reduces a remote URL to owner/name when possible.
func shortenRemote(s string) string {
	s = strings.TrimSuffix(s, ".git")
	if i := strings.LastIndex(s, ":"); i >= 0 {
		s = s[i+1:]
	}
	if i := strings.Index(s, "github.com/"); i >= 0 {
		s = s[i+len("github.com/"):]
	}
	return s
}

// LastNCommits walks history from HEAD and returns up to n commits with the
// content of the files each one changed. Deleted paths are skipped.
func LastNCommits(root string, n int) ([]Entry, error) {
	if n <= 0 {
		return nil, nil
	}

	validRoot, err := validateRoot(root)
	if err != nil {
		return nil, err
	}
	r, err := gogit.PlainOpen(validRoot)
	if err != nil {
		return nil, err
	}
	iter, err := r.Log(&gogit.LogOptions{})
	if err != nil {
		return nil, err
	}
	defer iter.Close()

	var entries []Entry
	for len(entries) < n {
		c, err := iter.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return entries, err
		}
		files, err := changedFiles(c)
		if err != nil {
			continue
		}
		entries = append(entries, Entry{Hash: c.Hash.String(), Files: files})
	}
	return entries, nil
}

// changedFiles returns path -> content for the files a commit touched,
// compared to its first parent. A root commit contributes its whole tree.
func changedFiles(c *object.Commit) (map[string][]byte, error) {
	files := map[string][]byte{}
	tree, err := c.Tree()
	if err != nil {
		return nil, err
	}

	if c.NumParents() == 0 {
		fi := tree.Files()
		defer fi.Close()
		err := fi.ForEach(func(f *object.File) error {
			s, err := f.Contents()
			if err != nil {
				return nil
			}
			files[f.Name] = []byte(s)
			return nil
		})
		return files, err
	}

	parent, err := c.Parent(0)
	if err != nil {
		return nil, err
	}
	ptree, err := parent.Tree()
	if err != nil {
		return nil, err
	}
	changes, err := object.DiffTree(ptree, tree)
	if err != nil {
		return nil, err
	}
	for _, ch := range changes {
		if ch.To.Name == "" {
			continue // deletion
		}
		f, err := tree.File(ch.To.Name)
		if err != nil {
			continue
		}
		s, err := f.Contents()
		if err != nil {
			continue
		}
		files[ch.To.Name] = []byte(s)
	}
	return files, nil
}
