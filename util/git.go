package util

import (
	"os"
	"path/filepath"
)

// FindGitRoot walks upward from the working directory to the enclosing
// git repository root. It is the default project root for analysis: the
// boundary imports may not escape. Outside any repository the working
// directory itself is returned, so single-directory projects still work.
func FindGitRoot() (string, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return "", err
	}

	for dir := cwd; ; {
		if _, err := os.Stat(filepath.Join(dir, ".git")); err == nil {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return cwd, nil
		}
		dir = parent
	}
}
