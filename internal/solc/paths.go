package solc

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
)

// CacheDir returns the cache directory for downloaded solc binaries.
// Priority: $SOLGRAPH_CACHE_DIR -> $XDG_CACHE_HOME/solgraph/solc -> ~/.cache/solgraph/solc
func CacheDir() (string, error) {
	if dir := os.Getenv("SOLGRAPH_CACHE_DIR"); dir != "" {
		return filepath.Join(dir, "solc"), nil
	}

	if runtime.GOOS != "windows" {
		if xdgCache := os.Getenv("XDG_CACHE_HOME"); xdgCache != "" {
			return filepath.Join(xdgCache, "solgraph", "solc"), nil
		}
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}

	if runtime.GOOS == "windows" {
		return filepath.Join(home, "AppData", "Local", "solgraph", "solc"), nil
	}

	return filepath.Join(home, ".cache", "solgraph", "solc"), nil
}

// PlatformKey returns the binaries.soliditylang.org platform directory
// for the current OS.
func PlatformKey() (string, error) {
	switch runtime.GOOS {
	case "linux":
		return "linux-amd64", nil
	case "darwin":
		return "macosx-amd64", nil
	case "windows":
		return "windows-amd64", nil
	default:
		return "", fmt.Errorf("no solc builds for platform: %s", runtime.GOOS)
	}
}

// findInPath searches for a binary in the system PATH.
func findInPath(binaryName string) (string, error) {
	if runtime.GOOS == "windows" && filepath.Ext(binaryName) != ".exe" {
		binaryName += ".exe"
	}

	for _, dir := range filepath.SplitList(os.Getenv("PATH")) {
		fullPath := filepath.Join(dir, binaryName)
		if info, err := os.Stat(fullPath); err == nil && !info.IsDir() {
			if runtime.GOOS != "windows" && info.Mode()&0111 == 0 {
				continue
			}
			return fullPath, nil
		}
	}

	return "", fmt.Errorf("%s not found in PATH", binaryName)
}
