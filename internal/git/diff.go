package git

import (
	"bufio"
	"bytes"
	"os/exec"
	"strings"
)

// DiffAgainst returns the files changed relative to base along with only
// their added lines. Index plumbing goes through the git CLI; go-git has no
// cheap equivalent of unified diffs against an arbitrary ref.
func DiffAgainst(root, base string) ([]string, [][]byte, error) {
	validRoot, err := validateRoot(root)
	if err != nil {
		return nil, nil, err
	}

	cmd := exec.Command("git", "-C", validRoot, "diff", "--name-only", base)
	out, err := cmd.Output()
	if err != nil {
		return nil, nil, err
	}
	paths := strings.Fields(string(out))
	var data [][]byte
	for _, p := range paths {
		show := exec.Command("git", "-C", validRoot, "diff", "--unified=0", base, "--", p)
		b, err := show.Output()
		if err != nil {
			b = []byte{}
		}
		// Extract only added lines from unified diff ('+' lines, excluding headers like '+++' and '@@')
		buf := bytes.NewBuffer(nil)
		sc := bufio.NewScanner(bytes.NewReader(b))
		for sc.Scan() {
			line := sc.Text()
			if strings.HasPrefix(line, "+++") || strings.HasPrefix(line, "---") || strings.HasPrefix(line, "@@") {
				continue
			}
			if strings.HasPrefix(line, "+") {
				buf.WriteString(strings.TrimPrefix(line, "+"))
				buf.WriteByte('\n')
			}
		}
		data = append(data, buf.Bytes())
	}
	return paths, data, nil
}

// StagedDiff returns the staged files and their staged content.
func StagedDiff(root string) ([]string, [][]byte, error) {
	validRoot, err := validateRoot(root)
	if err != nil {
		return nil, nil, err
	}

	cmd := exec.Command("git", "-C", validRoot, "diff", "--name-only", "--cached")
	out, err := cmd.Output()
	if err != nil {
		return nil, nil, err
	}
	paths := strings.Fields(string(out))
	var data [][]byte
	for _, p := range paths {
		show := exec.Command("git", "-C", validRoot, "show", ":"+p)
		b, err := show.Output()
		if err != nil {
			b = []byte{}
		}
		data = append(data, b)
	}
	return paths, data, nil
}
