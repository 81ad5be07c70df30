package pipeline

import (
	"fmt"
	"path"
	"sort"
	"strings"

	"qaforge/internal/schema"
)

// target is one item in a category's working set.
type target struct {
	label    string
	path     string
	kind     string
	priority string
	endpoint *schema.Endpoint
}

type category struct {
	testType string
	max      int
}

// enabledCategories returns the categories the config turns on, each
// with its effective working-set bound, in fixed order.
func enabledCategories(cfg *schema.TestConfig) []category {
	var out []category
	if cfg.GenerateUnitTests {
		out = append(out, category{schema.TestTypeUnit, boundOr(cfg.MaxUnitTests, defaultMaxUnitTests)})
	}
	if cfg.GenerateIntegrationTests {
		out = append(out, category{schema.TestTypeIntegration, boundOr(cfg.MaxIntegrationTests, defaultMaxIntegrationTests)})
	}
	if cfg.GenerateAPITests {
		out = append(out, category{schema.TestTypeAPI, boundOr(cfg.MaxAPITests, defaultMaxAPITests)})
	}
	if cfg.GenerateE2ETests {
		out = append(out, category{schema.TestTypeE2E, boundOr(cfg.MaxE2ETests, defaultMaxE2ETests)})
	}
	return out
}

func boundOr(v, fallback int) int {
	if v > 0 {
		return v
	}
	return fallback
}

// categoryTargets selects the bounded working set for one category.
// Unit targets prefer files named as key components; API targets are
// endpoints; integration targets are the files that declare endpoints;
// E2E targets are synthesized user workflows.
func (p *Pipeline) categoryTargets(cat category, cfg *schema.TestConfig, analysis *schema.RepositoryAnalysis, projectCtx *schema.ProjectContext) []target {
	switch cat.testType {
	case schema.TestTypeUnit:
		return unitTargets(cat.max, analysis, projectCtx)
	case schema.TestTypeIntegration:
		return integrationTargets(cat.max, analysis)
	case schema.TestTypeAPI:
		return apiTargets(cat.max, analysis)
	case schema.TestTypeE2E:
		return e2eTargets(cat.max, projectCtx)
	}
	return nil
}

func unitTargets(max int, analysis *schema.RepositoryAnalysis, projectCtx *schema.ProjectContext) []target {
	seen := map[string]struct{}{}
	var out []target
	add := func(p, priority string) {
		if len(out) >= max || p == "" {
			return
		}
		if _, dup := seen[p]; dup {
			return
		}
		rec, ok := analysis.FileStructure[p]
		if !ok || rec.IsTest || rec.Technology == "" {
			return
		}
		seen[p] = struct{}{}
		out = append(out, target{label: p, path: p, kind: "file", priority: priority})
	}

	// Key-component files first, in context order.
	for _, kc := range projectCtx.KeyComponents {
		if kc.Kind == "file" {
			add(kc.File, kc.Criticality)
		}
	}
	for _, p := range sortedCodePaths(analysis) {
		add(p, schema.CriticalityLow)
	}
	return out
}

func integrationTargets(max int, analysis *schema.RepositoryAnalysis) []target {
	seen := map[string]struct{}{}
	var out []target
	for _, ep := range analysis.APIEndpoints {
		if len(out) >= max {
			break
		}
		if _, dup := seen[ep.File]; dup {
			continue
		}
		seen[ep.File] = struct{}{}
		out = append(out, target{label: ep.File, path: ep.File, kind: "module", priority: schema.CriticalityMedium})
	}
	if len(out) > 0 {
		return out
	}
	// No endpoints: fall back to the largest code files.
	for _, p := range sortedCodePaths(analysis) {
		if len(out) >= max {
			break
		}
		out = append(out, target{label: p, path: p, kind: "module", priority: schema.CriticalityLow})
	}
	return out
}

func apiTargets(max int, analysis *schema.RepositoryAnalysis) []target {
	var out []target
	for i := range analysis.APIEndpoints {
		if len(out) >= max {
			break
		}
		ep := analysis.APIEndpoints[i]
		priority := schema.CriticalityMedium
		if ep.Mutating() {
			priority = schema.CriticalityHigh
		}
		out = append(out, target{
			label:    strings.ToLower(ep.Method) + "_" + path.Base(strings.Trim(ep.Path, "/")),
			path:     ep.File,
			kind:     "endpoint",
			priority: priority,
			endpoint: &ep,
		})
	}
	return out
}

func e2eTargets(max int, projectCtx *schema.ProjectContext) []target {
	workflows := []string{"main_user_workflow", "error_recovery_workflow"}
	for _, fn := range projectCtx.CoreFunctions {
		workflows = append(workflows, sanitizeBase(fn))
	}
	var out []target
	for _, wf := range workflows {
		if len(out) >= max {
			break
		}
		out = append(out, target{label: wf, kind: "scenario", priority: schema.CriticalityMedium})
	}
	return out
}

func sortedCodePaths(analysis *schema.RepositoryAnalysis) []string {
	var out []string
	for p, rec := range analysis.FileStructure {
		if !rec.IsTest && rec.Technology != "" {
			out = append(out, p)
		}
	}
	sort.Strings(out)
	return out
}

// hasWebComponents gates E2E generation on the presence of a frontend
// framework or HTML content.
func hasWebComponents(analysis *schema.RepositoryAnalysis) bool {
	if analysis.HasTechnology("html") {
		return true
	}
	for _, fw := range analysis.Frameworks {
		switch fw {
		case "react", "vue", "angular":
			return true
		}
	}
	return false
}

// languageFrameworks maps a primary language to its default test
// framework.
var languageFrameworks = map[string]string{
	"python":     "pytest",
	"javascript": "jest",
	"typescript": "jest",
	"java":       "junit",
	"html":       "cypress",
}

// ResolveFramework picks the run's framework: an explicit user choice
// wins, then the first framework detected in existing tests, then the
// primary-language default, then pytest.
func ResolveFramework(requested string, analysis *schema.RepositoryAnalysis) string {
	if requested != "" && requested != "auto" {
		return requested
	}
	if len(analysis.TestAnalysis.TestFrameworks) > 0 {
		return analysis.TestAnalysis.TestFrameworks[0]
	}
	if fw, ok := languageFrameworks[analysis.PrimaryLanguage()]; ok {
		return fw
	}
	return "pytest"
}

// e2eFrameworks can drive a browser; other frameworks are swapped for
// cypress in the E2E category.
var e2eFrameworks = map[string]struct{}{
	"cypress": {}, "playwright": {}, "selenium": {},
}

func categoryFramework(testType, framework string) string {
	if testType != schema.TestTypeE2E {
		return framework
	}
	if _, ok := e2eFrameworks[framework]; ok {
		return framework
	}
	return "cypress"
}

// frameworkExtensions maps a framework to its test file extension.
var frameworkExtensions = map[string]string{
	"pytest":     "py",
	"unittest":   "py",
	"selenium":   "py",
	"jest":       "js",
	"mocha":      "js",
	"jasmine":    "js",
	"cypress":    "js",
	"playwright": "js",
	"junit":      "java",
	"testng":     "java",
}

// TestFileName synthesizes the deterministic output filename
// test_{type}_{base}.{ext}.
func TestFileName(testType, framework, label string) string {
	ext, ok := frameworkExtensions[strings.ToLower(framework)]
	if !ok {
		ext = "txt"
	}
	return fmt.Sprintf("test_%s_%s.%s", testType, sanitizeBase(label), ext)
}

// sanitizeBase reduces a label to a lowercase identifier-safe base.
func sanitizeBase(label string) string {
	base := path.Base(label)
	if dot := strings.LastIndex(base, "."); dot > 0 {
		base = base[:dot]
	}
	var b strings.Builder
	for _, r := range strings.ToLower(base) {
		switch {
		case r >= 'a' && r <= 'z' || r >= '0' && r <= '9':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	out := strings.Trim(b.String(), "_")
	if out == "" {
		return "generated"
	}
	return out
}
