package importer

import (
	"fmt"
	"log"
	"os"
	"path/filepath"

	"solgraph/internal/ast"
)

// ResolveUnits resolves seeds to a parsed source-unit list ready for
// analysis. With expand set the transitive import closure is included;
// otherwise only the seeds themselves are parsed. The returned files
// and units are index-aligned and in discovery order.
func (r *Resolver) ResolveUnits(seeds []string, expand bool) ([]string, []*ast.Node, error) {
	var files []string
	var err error

	if expand {
		files, err = r.Resolve(seeds)
		if err != nil {
			return nil, nil, err
		}
	} else {
		files, err = r.normalizeSeeds(seeds)
		if err != nil {
			return nil, nil, err
		}
	}

	units := make([]*ast.Node, 0, len(files))
	for _, file := range files {
		unit, err := r.parseFile(file)
		if err != nil {
			return nil, nil, err
		}
		units = append(units, unit)
	}
	return files, units, nil
}

func (r *Resolver) normalizeSeeds(seeds []string) ([]string, error) {
	seen := make(map[string]bool)
	var files []string
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
		if !seen[abs] {
			seen[abs] = true
			files = append(files, abs)
		}
	}
	return files, nil
}
