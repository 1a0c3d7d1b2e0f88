package scan

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
)

// ErrNotGitRepo is returned when root is not inside a git work tree.
var ErrNotGitRepo = errors.New("not a git repository")

// GitChangedFiles lists files added, copied, modified or renamed on HEAD
// relative to the merge base with base. An empty base lists uncommitted
// changes against HEAD instead. Paths are relative to the repository root.
func GitChangedFiles(ctx context.Context, root, base string) ([]string, error) {
	if err := checkGitRepo(ctx, root); err != nil {
		return nil, fmt.Errorf("%s: %w", root, ErrNotGitRepo)
	}

	args := []string{"diff", "--name-only", "--diff-filter=ACMR", "-z"}
	if base == "" {
		args = append(args, "HEAD")
	} else {
		args = append(args, base+"...HEAD")
	}
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = root
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	output, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("git diff failed: %w: %s", err, strings.TrimSpace(stderr.String()))
	}

	var files []string
	scanner := bufio.NewScanner(bytes.NewReader(output))
	scanner.Split(splitNUL)
	for scanner.Scan() {
		if name := scanner.Text(); name != "" {
			files = append(files, name)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read git diff output: %w", err)
	}
	return files, nil
}

// GitTopLevel returns the repository root containing dir.
func GitTopLevel(ctx context.Context, dir string) (string, error) {
	cmd := exec.CommandContext(ctx, "git", "rev-parse", "--show-toplevel")
	cmd.Dir = dir
	out, err := cmd.Output()
	if err != nil {
		return "", fmt.Errorf("%s: %w", dir, ErrNotGitRepo)
	}
	return strings.TrimSpace(string(out)), nil
}

func checkGitRepo(ctx context.Context, dir string) error {
	cmd := exec.CommandContext(ctx, "git", "rev-parse", "--is-inside-work-tree")
	cmd.Dir = dir
	return cmd.Run()
}

func splitNUL(data []byte, atEOF bool) (int, []byte, error) {
	if i := bytes.IndexByte(data, 0); i >= 0 {
		return i + 1, data[:i], nil
	}
	if atEOF && len(data) > 0 {
		return len(data), data, nil
	}
	return 0, nil, nil
}
