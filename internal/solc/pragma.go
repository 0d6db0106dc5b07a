package solc

import (
	"os"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

var (
	pragmaRe  = regexp.MustCompile(`pragma\s+solidity\s+([^;]+);`)
	versionRe = regexp.MustCompile(`([<>=^~]*)\s*(\d+\.\d+\.\d+)`)
)

// ExtractPragmaVersion pulls a concrete compiler version out of the
// pragma directives in source. Versions behind a strict `<` bound are
// excluded from consideration, so `>=0.6.0 <0.9.0` yields 0.6.0 rather
// than the unreleased 0.9.0. When several included versions remain the
// highest one is returned. Returns "" when no pragma names an included
// version; the caller falls back to PATH or the latest release.
func ExtractPragmaVersion(source string) string {
	var versions []string
	for _, m := range pragmaRe.FindAllStringSubmatch(source, -1) {
		for _, v := range versionRe.FindAllStringSubmatch(m[1], -1) {
			op, ver := v[1], v[2]
			if strings.HasPrefix(op, "<") && !strings.HasPrefix(op, "<=") {
				continue
			}
			versions = append(versions, ver)
		}
	}
	if len(versions) == 0 {
		return ""
	}

	sort.Slice(versions, func(i, j int) bool {
		return compareVersions(versions[i], versions[j]) > 0
	})
	return versions[0]
}

// HighestPragmaVersion scans the given files and returns the highest
// compiler version any of them pragmas, or "" when none do. Unreadable
// files are skipped; the caller will hit the real error when parsing.
func HighestPragmaVersion(files []string) string {
	best := ""
	for _, file := range files {
		data, err := os.ReadFile(file)
		if err != nil {
			continue
		}
		v := ExtractPragmaVersion(string(data))
		if v != "" && (best == "" || compareVersions(v, best) > 0) {
			best = v
		}
	}
	return best
}

func compareVersions(v1, v2 string) int {
	p1 := strings.Split(v1, ".")
	p2 := strings.Split(v2, ".")
	for i := 0; i < 3; i++ {
		var n1, n2 int
		if i < len(p1) {
			n1, _ = strconv.Atoi(p1[i])
		}
		if i < len(p2) {
			n2, _ = strconv.Atoi(p2[i])
		}
		if n1 != n2 {
			return n1 - n2
		}
	}
	return 0
}
