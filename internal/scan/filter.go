package scan

import (
	"path/filepath"
	"sort"
	"strings"

	"qaforge/internal/schema"
)

// vendoredSegments mark build artifacts and dependency trees that must
// never contribute to analysis aggregates.
var vendoredSegments = []string{
	"node_modules", "vendor", "bower_components", "jspm_packages",
	"__pycache__", ".venv", "venv", ".mypy_cache", ".pytest_cache",
	"dist", "build", "_build", "target", "out",
	".next", ".nuxt", ".output", ".svelte-kit",
	"coverage", "htmlcov", ".cache", ".turbo",
	"Pods", "DerivedData", ".gradle", ".yarn",
}

// FilterVendored removes every file record whose path contains a
// vendored or build-artifact segment and recomputes all derived
// aggregates from the remaining set. Applying it twice is the same as
// applying it once.
func FilterVendored(a *schema.RepositoryAnalysis) *schema.RepositoryAnalysis {
	if a == nil {
		return nil
	}
	a.Normalize()

	for path := range a.FileStructure {
		if isVendoredPath(path) {
			delete(a.FileStructure, path)
		}
	}

	recomputeAggregates(a)
	return a
}

func isVendoredPath(path string) bool {
	for _, seg := range strings.Split(filepath.ToSlash(path), "/") {
		for _, vendored := range vendoredSegments {
			if seg == vendored {
				return true
			}
		}
	}
	return false
}

// recomputeAggregates rebuilds counters, the extension histogram, the
// largest file, technologies, test directories, and the coverage
// estimate from the surviving records. Frameworks and test frameworks
// are content-derived and carried through unchanged.
func recomputeAggregates(a *schema.RepositoryAnalysis) {
	m := schema.Metrics{IgnoredFiles: a.Metrics.IgnoredFiles}
	largest := schema.LargestFile{}
	exts := map[string]int{}
	techs := []string{}
	techSeen := map[string]struct{}{}
	var codeBytes int64

	for _, rec := range a.FileStructure {
		m.TotalFiles++
		m.TotalSize += rec.Size
		if rec.Size > largest.Size || largest.Path == "" {
			largest = schema.LargestFile{Path: rec.Path, Size: rec.Size}
		}
		if rec.Extension != "" {
			exts[rec.Extension]++
		}
		if rec.Technology != "" {
			if _, ok := techSeen[rec.Technology]; !ok {
				techSeen[rec.Technology] = struct{}{}
				techs = append(techs, rec.Technology)
			}
		}
		if rec.IsTest {
			m.TestFiles++
		} else if rec.Technology != "" {
			m.CodeFiles++
			m.TotalLines += rec.Lines
			codeBytes += rec.Size
		}
	}

	a.Metrics = m
	a.Complexity.LargestFile = largest
	a.Complexity.FileExtensions = exts
	a.Complexity.AvgFileSize = 0
	if m.CodeFiles > 0 {
		a.Complexity.AvgFileSize = float64(codeBytes) / float64(m.CodeFiles)
	}
	sort.Strings(techs)
	a.Technologies = techs

	a.TestAnalysis.TestFilesCount = m.TestFiles
	a.TestAnalysis.HasTests = m.TestFiles > 0
	a.TestAnalysis.TestDirectories = testDirectories(a.FileStructure)

	kept := a.APIEndpoints[:0]
	for _, ep := range a.APIEndpoints {
		if !isVendoredPath(ep.File) {
			kept = append(kept, ep)
		}
	}
	a.APIEndpoints = kept
	a.APIEndpointsByFile = groupEndpointsByFile(a.APIEndpoints)

	a.CoverageEstimate = coverageEstimate(a)
}
