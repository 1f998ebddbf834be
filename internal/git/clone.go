package git

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// runGit executes the git binary. Tests replace it to avoid spawning
// processes.
var runGit = func(ctx context.Context, args ...string) error {
	cmd := exec.CommandContext(ctx, "git", args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg != "" {
			return fmt.Errorf("git %s: %s", args[0], msg)
		}
		return fmt.Errorf("git %s: %w", args[0], err)
	}
	return nil
}

// Clone clones cloneURL into destDir and returns the path of the new working
// copy. An empty destDir clones into the current directory.
func Clone(ctx context.Context, cloneURL string, destDir string) (string, error) {
	name, err := RepoNameFromURL(cloneURL)
	if err != nil {
		return "", err
	}

	dest := name
	if destDir != "" {
		dest = filepath.Join(expandHome(destDir), name)
	}
	if _, err := os.Stat(dest); err == nil {
		return "", fmt.Errorf("destination %s already exists", dest)
	}

	if err := runGit(ctx, "clone", cloneURL, dest); err != nil {
		return "", err
	}
	return dest, nil
}

// RepoNameFromURL extracts the repository name from a clone URL.
// Supports HTTPS (https://github.com/owner/repo.git) and SSH
// (git@github.com:owner/repo.git).
func RepoNameFromURL(rawURL string) (string, error) {
	normalized := strings.TrimSuffix(strings.TrimSuffix(rawURL, "/"), ".git")

	// SSH format: git@github.com:owner/repo
	if strings.HasPrefix(normalized, "git@") {
		parts := strings.SplitN(normalized, ":", 2)
		if len(parts) != 2 || parts[1] == "" {
			return "", fmt.Errorf("invalid SSH clone URL: %s", rawURL)
		}
		normalized = parts[1]
	}

	name := normalized[strings.LastIndex(normalized, "/")+1:]
	if name == "" || strings.Contains(name, ":") {
		return "", fmt.Errorf("cannot determine repository name from %s", rawURL)
	}
	return name, nil
}

// expandHome replaces a leading ~ with the user's home directory.
func expandHome(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, strings.TrimPrefix(strings.TrimPrefix(path, "~"), "/"))
	}
	return path
}
