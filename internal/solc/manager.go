// Package solc locates or installs the Solidity compiler used as the
// external parser. Release binaries are fetched from the official
// binaries.soliditylang.org mirror and cached per version.
package solc

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"
)

const releaseMirror = "https://binaries.soliditylang.org"

// Manager resolves solc binaries by version.
type Manager struct {
	cacheDir string
	client   *http.Client
}

// NewManager creates a Manager using the default cache directory.
func NewManager() (*Manager, error) {
	cacheDir, err := CacheDir()
	if err != nil {
		return nil, fmt.Errorf("failed to get cache dir: %w", err)
	}
	return &Manager{
		cacheDir: cacheDir,
		client: &http.Client{
			Timeout: 5 * time.Minute,
		},
	}, nil
}

// Ensure returns the path to a usable solc binary. Priority:
// 1. customPath (if provided and exists)
// 2. System PATH (when no specific version was requested)
// 3. Cache directory (download if needed)
func (m *Manager) Ensure(ctx context.Context, version, customPath string) (string, error) {
	if customPath != "" {
		if _, err := os.Stat(customPath); err == nil {
			log.Printf("[solc] Using custom solc path: %s", customPath)
			return customPath, nil
		}
		log.Printf("[solc] Custom path not found: %s, falling back...", customPath)
	}

	if version == "" {
		if systemPath, err := findInPath("solc"); err == nil {
			log.Printf("[solc] Using system solc: %s", systemPath)
			return systemPath, nil
		}
		latest, err := m.resolveLatestVersion(ctx)
		if err != nil {
			return "", fmt.Errorf("solc not in PATH and latest version unknown: %w", err)
		}
		version = latest
	}

	cachedPath := m.cachedBinaryPath(version)
	if _, err := os.Stat(cachedPath); err == nil {
		log.Printf("[solc] Using cached solc %s: %s", version, cachedPath)
		return cachedPath, nil
	}

	log.Printf("[solc] solc %s not found, downloading...", version)
	if err := m.downloadAndInstall(ctx, version); err != nil {
		return "", fmt.Errorf("failed to download solc %s: %w", version, err)
	}

	log.Printf("[solc] Successfully installed solc %s", version)
	return cachedPath, nil
}

func (m *Manager) cachedBinaryPath(version string) string {
	binaryName := "solc"
	if runtime.GOOS == "windows" {
		binaryName += ".exe"
	}
	return filepath.Join(m.cacheDir, version, binaryName)
}

// releaseList is the relevant slice of the mirror's list.json.
type releaseList struct {
	Builds []struct {
		Path    string `json:"path"`
		Version string `json:"version"`
		SHA256  string `json:"sha256"`
	} `json:"builds"`
	Releases      map[string]string `json:"releases"`
	LatestRelease string            `json:"latestRelease"`
}

func (m *Manager) fetchReleaseList(ctx context.Context) (*releaseList, error) {
	platform, err := PlatformKey()
	if err != nil {
		return nil, err
	}

	url := fmt.Sprintf("%s/%s/list.json", releaseMirror, platform)
	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return nil, err
	}

	resp, err := m.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch release list: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("release list returned HTTP %d", resp.StatusCode)
	}

	var list releaseList
	if err := json.NewDecoder(resp.Body).Decode(&list); err != nil {
		return nil, fmt.Errorf("failed to decode release list: %w", err)
	}
	return &list, nil
}

func (m *Manager) resolveLatestVersion(ctx context.Context) (string, error) {
	list, err := m.fetchReleaseList(ctx)
	if err != nil {
		return "", err
	}
	if list.LatestRelease == "" {
		return "", fmt.Errorf("release list has no latestRelease")
	}
	return list.LatestRelease, nil
}

// downloadAndInstall fetches the release binary for version, verifies
// its checksum against the mirror's list, and installs it in the cache.
func (m *Manager) downloadAndInstall(ctx context.Context, version string) error {
	platform, err := PlatformKey()
	if err != nil {
		return err
	}

	list, err := m.fetchReleaseList(ctx)
	if err != nil {
		return err
	}

	buildPath, ok := list.Releases[version]
	if !ok {
		return fmt.Errorf("no release for solc version %s", version)
	}

	var checksum string
	for _, b := range list.Builds {
		if b.Path == buildPath {
			checksum = strings.TrimPrefix(b.SHA256, "0x")
			break
		}
	}

	versionDir := filepath.Join(m.cacheDir, version)
	if err := os.MkdirAll(versionDir, 0755); err != nil {
		return fmt.Errorf("failed to create version dir: %w", err)
	}

	tmpFile, err := os.CreateTemp("", "solgraph-solc-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmpFile.Name())
	defer tmpFile.Close()

	url := fmt.Sprintf("%s/%s/%s", releaseMirror, platform, buildPath)
	if err := m.downloadFile(ctx, url, tmpFile); err != nil {
		return fmt.Errorf("download failed: %w", err)
	}

	if checksum != "" {
		if err := verifyChecksum(tmpFile.Name(), checksum); err != nil {
			return fmt.Errorf("checksum verification failed: %w", err)
		}
	}

	binaryPath := m.cachedBinaryPath(version)
	if err := copyFile(tmpFile.Name(), binaryPath); err != nil {
		return fmt.Errorf("failed to install binary: %w", err)
	}
	if err := os.Chmod(binaryPath, 0755); err != nil {
		return fmt.Errorf("failed to make binary executable: %w", err)
	}

	return nil
}

// downloadFile downloads a file with retries.
func (m *Manager) downloadFile(ctx context.Context, url string, dest *os.File) error {
	const maxRetries = 3
	var lastErr error

	for attempt := 1; attempt <= maxRetries; attempt++ {
		if attempt > 1 {
			backoff := time.Duration(attempt*attempt) * time.Second
			log.Printf("[solc] Retry %d/%d after %v...", attempt, maxRetries, backoff)
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return ctx.Err()
			}
		}

		req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
		if err != nil {
			lastErr = err
			continue
		}

		resp, err := m.client.Do(req)
		if err != nil {
			lastErr = err
			continue
		}

		if resp.StatusCode != http.StatusOK {
			resp.Body.Close()
			lastErr = fmt.Errorf("HTTP %d: %s", resp.StatusCode, resp.Status)
			continue
		}

		if _, err := dest.Seek(0, 0); err != nil {
			resp.Body.Close()
			return err
		}

		_, err = io.Copy(dest, resp.Body)
		resp.Body.Close()
		if err != nil {
			lastErr = err
			continue
		}

		return nil
	}

	return fmt.Errorf("download failed after %d attempts: %w", maxRetries, lastErr)
}

// verifyChecksum verifies the SHA256 checksum of a file.
func verifyChecksum(filePath, expectedChecksum string) error {
	f, err := os.Open(filePath)
	if err != nil {
		return err
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return err
	}

	actualChecksum := hex.EncodeToString(h.Sum(nil))
	if !strings.EqualFold(actualChecksum, expectedChecksum) {
		return fmt.Errorf("checksum mismatch: expected %s, got %s", expectedChecksum, actualChecksum)
	}

	return nil
}

// copyFile copies a file from src to dst.
func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return err
	}

	return out.Close()
}
