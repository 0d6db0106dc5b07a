// Package importer expands a seed list of Solidity files into its full
// transitive import closure, honoring foundry-style remapping manifests
// and node_modules vendor directories.
package importer

import (
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"solgraph/internal/ast"
	"solgraph/internal/parser"
)

var (
	// ErrInvalidImportPath marks a path outside the project root or
	// without the Solidity source extension.
	ErrInvalidImportPath = errors.New("invalid import path")
	// ErrUnresolvedImport marks an import whose resolved path is not an
	// existing regular file.
	ErrUnresolvedImport = errors.New("unresolved import")
	// ErrAmbiguousRemapping marks a manifest line with more than one
	// prefix=replacement separator.
	ErrAmbiguousRemapping = errors.New("ambiguous remapping")
	// ErrUnresolvedRemapping marks a non-relative import with no
	// manifest or vendor directory between the file and the root.
	ErrUnresolvedRemapping = errors.New("unresolved remapping")
)

const (
	sourceExt     = ".sol"
	manifestName  = "remappings.txt"
	vendorDirName = "node_modules"
)

// Resolver expands seed files within one project root. Parsed units are
// cached so closure expansion and analysis share one parse per file.
type Resolver struct {
	root   string
	parser parser.Parser
	units  map[string]*ast.Node
}

// NewResolver creates a Resolver rooted at root. The root is
// canonicalized to an absolute path so resolution is cwd-independent.
func NewResolver(root string, p parser.Parser) (*Resolver, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve project root: %w", err)
	}
	return &Resolver{root: abs, parser: p, units: make(map[string]*ast.Node)}, nil
}

func (r *Resolver) parseFile(file string) (*ast.Node, error) {
	if unit, ok := r.units[file]; ok {
		return unit, nil
	}
	unit, err := r.parser.ParseFile(file)
	if err != nil {
		return nil, err
	}
	r.units[file] = unit
	return unit, nil
}

// Resolve returns the deduplicated transitive import closure of seeds,
// in discovery order. Directory entries in the seed list are skipped
// with a diagnostic; every other structural failure is fatal.
func (r *Resolver) Resolve(seeds []string) ([]string, error) {
	visited := make(map[string]bool)
	var order []string
	var queue []string

	for _, seed := range seeds {
		abs, err := filepath.Abs(seed)
		if err != nil {
			return nil, fmt.Errorf("%w: %s", ErrInvalidImportPath, seed)
		}
		if info, err := os.Stat(abs); err == nil && info.IsDir() {
			log.Printf("[importer] Skipping directory: %s", seed)
			continue
		}
		if err := r.checkPath(abs); err != nil {
			return nil, err
		}
		queue = append(queue, abs)
	}

	// Explicit work list rather than recursion: import graphs in vendored
	// dependency trees can nest arbitrarily deep.
	for len(queue) > 0 {
		file := queue[0]
		queue = queue[1:]
		if visited[file] {
			continue
		}
		visited[file] = true
		order = append(order, file)

		unit, err := r.parseFile(file)
		if err != nil {
			return nil, err
		}

		for _, n := range unit.Nodes {
			if n.Kind != ast.KindImportDirective {
				continue
			}
			resolved, err := r.resolveImport(file, n.File)
			if err != nil {
				return nil, err
			}
			if err := r.checkPath(resolved); err != nil {
				return nil, err
			}
			if !visited[resolved] {
				queue = append(queue, resolved)
			}
		}
	}

	return order, nil
}

// checkPath enforces the project-root boundary and source extension.
func (r *Resolver) checkPath(abs string) error {
	rel, err := filepath.Rel(r.root, abs)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return fmt.Errorf("%w: %s is outside project root %s", ErrInvalidImportPath, abs, r.root)
	}
	if filepath.Ext(abs) != sourceExt {
		return fmt.Errorf("%w: %s is not a %s file", ErrInvalidImportPath, abs, sourceExt)
	}
	return nil
}

// resolveImport turns the import string target, as written in the file
// importing, into an absolute path.
func (r *Resolver) resolveImport(importing, target string) (string, error) {
	if strings.HasPrefix(target, ".") || strings.HasPrefix(target, "/") {
		var resolved string
		if filepath.IsAbs(target) {
			resolved = filepath.Clean(target)
		} else {
			resolved = filepath.Join(filepath.Dir(importing), target)
		}
		return r.requireFile(resolved, target)
	}
	return r.resolveRemapped(importing, target)
}

// resolveRemapped walks upward from the importing file's directory
// toward the project root looking for a remappings.txt manifest or a
// node_modules vendor directory.
func (r *Resolver) resolveRemapped(importing, target string) (string, error) {
	dir := filepath.Dir(importing)
	for {
		manifest := filepath.Join(dir, manifestName)
		vendor := filepath.Join(dir, vendorDirName)

		if _, err := os.Stat(manifest); err == nil {
			return r.applyManifest(dir, manifest, target)
		}
		if info, err := os.Stat(vendor); err == nil && info.IsDir() {
			return r.requireFile(filepath.Join(vendor, target), target)
		}

		parent := filepath.Dir(dir)
		if dir == r.root || parent == dir {
			return "", fmt.Errorf("%w: no %s or %s found for %q", ErrUnresolvedRemapping, manifestName, vendorDirName, target)
		}
		dir = parent
	}
}

// applyManifest scans manifest lines (prefix=replacement) for the first
// prefix matching the import's leading path segment. The whole manifest
// is validated before any line is applied, so a malformed line after
// the match still fails the run. Replacements resolve relative to the
// manifest's directory. When no line matches, resolution falls back to
// the vendor directory beside the manifest.
func (r *Resolver) applyManifest(dir, manifest, target string) (string, error) {
	data, err := os.ReadFile(manifest)
	if err != nil {
		return "", fmt.Errorf("%w: cannot read %s", ErrUnresolvedRemapping, manifest)
	}

	type remapping struct {
		prefix, replacement string
	}
	var entries []remapping
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if strings.Count(line, "=") > 1 {
			return "", fmt.Errorf("%w: %q in %s", ErrAmbiguousRemapping, line, manifest)
		}
		eq := strings.Index(line, "=")
		if eq < 0 {
			continue
		}
		entries = append(entries, remapping{line[:eq], line[eq+1:]})
	}

	segment := target
	if i := strings.Index(target, "/"); i >= 0 {
		segment = target[:i]
	}

	for _, e := range entries {
		if !strings.Contains(segment, strings.TrimSuffix(e.prefix, "/")) {
			continue
		}

		mapped := strings.Replace(target, e.prefix, e.replacement, 1)
		if mapped == target && !strings.HasPrefix(target, e.prefix) {
			// Prefix matched the segment loosely but is not literally
			// present; substitute the whole segment instead.
			mapped = e.replacement + strings.TrimPrefix(target, segment+"/")
		}
		if !filepath.IsAbs(mapped) {
			mapped = filepath.Join(dir, mapped)
		}
		return r.requireFile(mapped, target)
	}

	return r.requireFile(filepath.Join(dir, vendorDirName, target), target)
}

// requireFile verifies the resolved path is an existing regular file.
func (r *Resolver) requireFile(resolved, target string) (string, error) {
	info, err := os.Stat(resolved)
	if err != nil || !info.Mode().IsRegular() {
		return "", fmt.Errorf("%w: %q -> %s", ErrUnresolvedImport, target, resolved)
	}
	return filepath.Clean(resolved), nil
}
