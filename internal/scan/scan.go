// Package scan walks a repository tree and produces a structural
// analysis: per-file records, aggregate metrics, detected frameworks,
// manifest dependencies, and API endpoints.
package scan

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"qaforge/internal/classify"
	"qaforge/internal/schema"
)

// ErrScanRoot is returned when the scan root is missing or not a directory.
var ErrScanRoot = errors.New("scan: root is not a readable directory")

// Directory names skipped during the walk. Mirrors the vendored list in
// FilterVendored so a fresh scan and a filtered payload agree.
var skipDirs = map[string]struct{}{
	".git": {}, ".hg": {}, ".svn": {},
	"node_modules": {}, "vendor": {}, "bower_components": {}, "jspm_packages": {},
	"__pycache__": {}, ".mypy_cache": {}, ".pytest_cache": {}, ".ruff_cache": {},
	".venv": {}, "venv": {}, "env": {}, "virtualenv": {},
	"dist": {}, "build": {}, "_build": {}, "out": {}, "target": {}, "bin": {}, "obj": {},
	".next": {}, ".nuxt": {}, ".output": {}, ".svelte-kit": {},
	".cache": {}, ".turbo": {}, ".parcel-cache": {}, ".nyc_output": {},
	"coverage": {}, "htmlcov": {}, "logs": {}, "log": {},
	"Pods": {}, "DerivedData": {}, ".gradle": {}, ".yarn": {}, ".npm": {}, ".pnp": {},
}

var ignoredExtensions = map[string]struct{}{
	".log": {}, ".tmp": {}, ".temp": {}, ".cache": {}, ".pid": {}, ".seed": {},
	".lock": {}, ".swp": {}, ".swo": {}, ".map": {}, ".snap": {},
	".zip": {}, ".rar": {}, ".7z": {}, ".gz": {},
	".pdf": {}, ".doc": {}, ".docx": {}, ".xls": {}, ".xlsx": {}, ".ppt": {}, ".pptx": {},
	".jpg": {}, ".jpeg": {}, ".png": {}, ".gif": {}, ".bmp": {}, ".svg": {}, ".ico": {},
	".mp3": {}, ".mp4": {}, ".avi": {}, ".mov": {}, ".wmv": {},
	".pyc": {}, ".pyo": {}, ".pyd": {}, ".so": {}, ".dll": {}, ".exe": {},
	".class": {}, ".jar": {}, ".war": {},
}

var lockFiles = map[string]struct{}{
	"package-lock.json": {}, "yarn.lock": {}, "pnpm-lock.yaml": {},
	"composer.lock": {}, "gemfile.lock": {}, "cargo.lock": {},
	"pipfile.lock": {}, "poetry.lock": {}, "go.sum": {},
	"npm-shrinkwrap.json": {}, "shrinkwrap.yaml": {},
}

// defaultMaxFileSize caps content reads; larger files are counted as
// ignored rather than scanned.
const defaultMaxFileSize = 5 * 1024 * 1024

// Scanner walks a repository root. The zero value is usable.
// Scan performs blocking file I/O proportional to repository size, so
// callers keep it off any latency-sensitive path.
type Scanner struct {
	MaxFileSize int64
}

// Scan visits every non-hidden, non-vendored file under root exactly
// once and builds the full analysis. It fails only when root does not
// exist or is not a directory; unreadable individual files are counted
// with content fields zeroed.
func (s *Scanner) Scan(root string) (*schema.RepositoryAnalysis, error) {
	info, err := os.Stat(root)
	if err != nil || !info.IsDir() {
		return nil, fmt.Errorf("%w: %s", ErrScanRoot, root)
	}
	maxSize := s.MaxFileSize
	if maxSize <= 0 {
		maxSize = defaultMaxFileSize
	}

	a := schema.NewRepositoryAnalysis()
	detector := classify.NewFrameworkDetector()
	var codeBytes int64

	walkErr := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			base := filepath.Base(path)
			if _, skip := skipDirs[base]; skip {
				return filepath.SkipDir
			}
			if path != root && strings.HasPrefix(base, ".") && base != ".github" {
				return filepath.SkipDir
			}
			return nil
		}

		rel, _ := filepath.Rel(root, path)
		rel = filepath.ToSlash(rel)
		base := strings.ToLower(filepath.Base(rel))

		if _, locked := lockFiles[base]; locked {
			a.Metrics.IgnoredFiles++
			return nil
		}
		if _, skip := ignoredExtensions[strings.ToLower(filepath.Ext(base))]; skip {
			a.Metrics.IgnoredFiles++
			return nil
		}
		if classify.Hidden(rel) {
			a.Metrics.IgnoredFiles++
			return nil
		}

		size := int64(0)
		if fi, e := os.Stat(path); e == nil {
			size = fi.Size()
		}
		if size > maxSize {
			a.Metrics.IgnoredFiles++
			return nil
		}

		var content []byte
		if b, e := os.ReadFile(path); e == nil {
			content = b
		}

		a.Metrics.TotalFiles++
		a.Metrics.TotalSize += size
		if size > a.Complexity.LargestFile.Size {
			a.Complexity.LargestFile = schema.LargestFile{Path: rel, Size: size}
		}

		tech, ext := classify.Classify(rel)
		if ext != "" {
			a.Complexity.FileExtensions[ext]++
		}
		if tech != "" && !a.HasTechnology(tech) {
			a.Technologies = append(a.Technologies, tech)
		}

		isTest, testFW := classify.IsTest(rel, content)
		if isTest {
			a.Metrics.TestFiles++
			a.TestAnalysis.HasTests = true
			a.TestAnalysis.TestFilesCount++
			if testFW != "" && testFW != "unknown" && !containsString(a.TestAnalysis.TestFrameworks, testFW) {
				a.TestAnalysis.TestFrameworks = append(a.TestAnalysis.TestFrameworks, testFW)
			}
		}

		lines := countLines(content)
		if tech != "" && !isTest {
			a.Metrics.CodeFiles++
			a.Metrics.TotalLines += lines
			codeBytes += size
			detector.AddFile(tech, base, content)
			if ext == ".py" {
				a.APIEndpoints = append(a.APIEndpoints, DetectEndpoints(rel, content)...)
			}
		}

		checkSpecialFiles(base, &a.Structure)

		a.FileStructure[rel] = &schema.FileRecord{
			Path:       rel,
			Technology: tech,
			Extension:  ext,
			IsTest:     isTest,
			Size:       size,
			Lines:      lines,
		}
		return nil
	})
	if walkErr != nil {
		return nil, fmt.Errorf("scan: walk %s: %w", root, walkErr)
	}

	a.Frameworks = detector.Frameworks()
	a.Dependencies = ParseDependencies(root)
	a.TestAnalysis.TestDirectories = testDirectories(a.FileStructure)
	a.APIEndpointsByFile = groupEndpointsByFile(a.APIEndpoints)
	if a.Metrics.CodeFiles > 0 {
		a.Complexity.AvgFileSize = float64(codeBytes) / float64(a.Metrics.CodeFiles)
	}
	a.CoverageEstimate = coverageEstimate(a)

	log.Printf("scan: %d files (%d code, %d test, %d ignored) under %s",
		a.Metrics.TotalFiles, a.Metrics.CodeFiles, a.Metrics.TestFiles, a.Metrics.IgnoredFiles, root)
	return a, nil
}

func countLines(content []byte) int {
	if len(content) == 0 {
		return 0
	}
	n := bytes.Count(content, []byte{'\n'})
	if content[len(content)-1] != '\n' {
		n++
	}
	return n
}

func checkSpecialFiles(base string, st *schema.ProjectStructure) {
	switch {
	case strings.Contains(base, "docker-compose.yml"):
		st.HasDockerCompose = true
	case strings.Contains(base, "dockerfile"):
		st.HasDockerfile = true
	case strings.Contains(base, "requirements.txt"):
		st.HasRequirements = true
	case strings.Contains(base, "package.json"):
		st.HasPackageJSON = true
	case strings.Contains(base, "pom.xml"):
		st.HasPomXML = true
	case strings.Contains(base, "readme.md"):
		st.HasReadme = true
	case base == ".gitignore":
		st.HasGitignore = true
	}
}

var testDirKeywords = []string{"test", "spec"}

// testDirectories collects directories holding at least one test file,
// keeping only paths that also carry a test-related keyword.
func testDirectories(files map[string]*schema.FileRecord) []string {
	seen := map[string]struct{}{}
	for path, rec := range files {
		if !rec.IsTest {
			continue
		}
		dir := filepath.ToSlash(filepath.Dir(path))
		lower := strings.ToLower(dir)
		for _, kw := range testDirKeywords {
			if strings.Contains(lower, kw) {
				seen[dir] = struct{}{}
				break
			}
		}
	}
	out := make([]string, 0, len(seen))
	for dir := range seen {
		out = append(out, dir)
	}
	sort.Strings(out)
	return out
}

func groupEndpointsByFile(endpoints []schema.Endpoint) map[string][]schema.Endpoint {
	if len(endpoints) == 0 {
		return nil
	}
	out := map[string][]schema.Endpoint{}
	for _, ep := range endpoints {
		out[ep.File] = append(out[ep.File], ep)
	}
	return out
}

// coverageEstimate derives the scan-time coverage guess from the
// test-to-code file ratio plus framework and directory bonuses, capped
// at 95 and rounded to two decimals.
func coverageEstimate(a *schema.RepositoryAnalysis) float64 {
	if a.Metrics.CodeFiles == 0 {
		return 0.0
	}
	ratio := float64(a.Metrics.TestFiles) / float64(a.Metrics.CodeFiles)
	bonus := 0.0
	if len(a.TestAnalysis.TestFrameworks) > 0 {
		bonus += 0.2
	}
	if len(a.TestAnalysis.TestDirectories) > 0 {
		bonus += 0.1
	}
	cov := ratio*0.7 + bonus
	if cov > 0.95 {
		cov = 0.95
	}
	return round2(cov * 100)
}

func round2(v float64) float64 {
	return float64(int(v*100+0.5)) / 100
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
