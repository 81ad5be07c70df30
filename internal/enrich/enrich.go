// Package enrich derives a semantically annotated ProjectContext from
// a repository analysis. Build is a pure function of its input; all
// inference here is keyword heuristics over paths and endpoint shapes.
package enrich

import (
	"fmt"
	"sort"
	"strings"

	"qaforge/internal/schema"
)

// maxKeyEndpoints caps the endpoints promoted to key components.
const maxKeyEndpoints = 10

// complexWorkflowThreshold flags projects with many endpoints.
const complexWorkflowThreshold = 10

// Coverage targets per test type: min(cap, current + increment).
const (
	unitCoverageCap         = 80.0
	unitCoverageIncr        = 20.0
	integrationCoverageCap  = 70.0
	integrationCoverageIncr = 15.0
	apiCoverageCap          = 90.0
	apiCoverageIncr         = 25.0
)

// criticalKeywords map a path keyword to the criticality it implies.
var criticalKeywords = []struct {
	keyword     string
	criticality string
}{
	{"controller", schema.CriticalityHigh},
	{"api", schema.CriticalityHigh},
	{"endpoint", schema.CriticalityHigh},
	{"route", schema.CriticalityHigh},
	{"service", schema.CriticalityHigh},
	{"business", schema.CriticalityHigh},
	{"logic", schema.CriticalityHigh},
	{"model", schema.CriticalityMedium},
	{"data", schema.CriticalityMedium},
	{"database", schema.CriticalityMedium},
	{"handler", schema.CriticalityLow},
	{"core", schema.CriticalityLow},
	{"manager", schema.CriticalityLow},
}

var domainFamilies = []struct {
	domain   string
	keywords []string
}{
	{"user management", []string{"user", "auth", "account", "login", "register"}},
	{"product catalog", []string{"product", "catalog", "inventory", "item"}},
	{"order processing", []string{"order", "cart", "payment", "checkout"}},
	{"content management", []string{"content", "blog", "post", "article"}},
	{"notifications", []string{"notification", "message", "email", "sms"}},
}

var entityKeywords = []string{"model", "entity", "schema"}

var frontendFrameworks = map[string]struct{}{
	"react": {}, "vue": {}, "angular": {},
}

var webFrameworks = map[string]struct{}{
	"fastapi": {}, "flask": {}, "django": {}, "express": {},
	"react": {}, "vue": {}, "angular": {},
}

// Build derives the prompting context from an analysis. It performs no
// I/O and never mutates its input.
func Build(a *schema.RepositoryAnalysis) *schema.ProjectContext {
	if a == nil {
		a = schema.NewRepositoryAnalysis()
	}

	ctx := &schema.ProjectContext{
		ProjectType:     projectType(a),
		PrimaryLanguage: a.PrimaryLanguage(),
		Modularity:      modularity(a.Metrics.TotalFiles),
		Complexity:      complexity(a.Metrics.CodeFiles),
		KeyComponents:   keyComponents(a),
		CriticalPaths:   criticalPaths(a),
		BusinessDomains: businessDomains(a),
		CoreFunctions:   coreFunctions(a.APIEndpoints),
		DataEntities:    dataEntities(a),
		RiskAreas:       riskAreas(a),
	}
	ctx.Testing = testingRecommendations(a)
	return ctx
}

func keyComponents(a *schema.RepositoryAnalysis) []schema.KeyComponent {
	var out []schema.KeyComponent

	for i, ep := range a.APIEndpoints {
		if i >= maxKeyEndpoints {
			break
		}
		crit := schema.CriticalityMedium
		if ep.Mutating() {
			crit = schema.CriticalityHigh
		}
		out = append(out, schema.KeyComponent{
			Name:        ep.Method + " " + ep.Path,
			Kind:        "endpoint",
			Criticality: crit,
			Method:      ep.Method,
			Path:        ep.Path,
			File:        ep.File,
		})
	}

	for _, path := range sortedPaths(a.FileStructure) {
		lower := strings.ToLower(path)
		for _, kw := range criticalKeywords {
			if strings.Contains(lower, kw.keyword) {
				out = append(out, schema.KeyComponent{
					Name:        path,
					Kind:        "file",
					Criticality: kw.criticality,
					File:        path,
				})
				break
			}
		}
	}
	return out
}

func criticalPaths(a *schema.RepositoryAnalysis) []string {
	var out []string
	for _, fw := range a.Frameworks {
		switch fw {
		case "fastapi":
			out = append(out, "FastAPI request lifecycle: routing, dependency injection, response serialization")
		case "flask":
			out = append(out, "Flask request lifecycle: blueprint routing, view dispatch, response rendering")
		case "django":
			out = append(out, "Django request lifecycle: URL resolution, middleware chain, view execution")
		case "express":
			out = append(out, "Express request lifecycle: middleware stack, route handlers, error middleware")
		case "react":
			out = append(out, "React render cycle: component mount, state updates, effect execution")
		}
	}
	out = append(out,
		"Input validation and sanitization",
		"Authentication and authorization checks",
		"Data query and transformation paths",
	)
	return out
}

func businessDomains(a *schema.RepositoryAnalysis) []string {
	var out []string
	paths := sortedPaths(a.FileStructure)
	for _, family := range domainFamilies {
		for _, path := range paths {
			lower := strings.ToLower(path)
			matched := false
			for _, kw := range family.keywords {
				if strings.Contains(lower, kw) {
					out = append(out, family.domain)
					matched = true
					break
				}
			}
			if matched {
				break
			}
		}
	}
	if len(out) == 0 {
		out = append(out, "general application logic")
	}
	return out
}

// coreFunctions maps endpoint method+path patterns to human-readable
// operation descriptions.
func coreFunctions(endpoints []schema.Endpoint) []string {
	var out []string
	seen := map[string]struct{}{}
	for _, ep := range endpoints {
		resource := resourceName(ep.Path)
		var fn string
		switch ep.Method {
		case "POST":
			fn = "Create " + resource
		case "PUT", "PATCH":
			fn = "Update " + resource
		case "DELETE":
			fn = "Delete " + resource
		default:
			if strings.Contains(ep.Path, "{") || strings.Contains(ep.Path, ":") {
				fn = "Retrieve " + resource + " by identifier"
			} else {
				fn = "List " + resource
			}
		}
		if _, dup := seen[fn]; !dup {
			seen[fn] = struct{}{}
			out = append(out, fn)
		}
	}
	return out
}

// resourceName takes the last static path segment as the resource.
func resourceName(path string) string {
	segs := strings.Split(strings.Trim(path, "/"), "/")
	for i := len(segs) - 1; i >= 0; i-- {
		seg := segs[i]
		if seg == "" || strings.HasPrefix(seg, "{") || strings.HasPrefix(seg, ":") {
			continue
		}
		return seg
	}
	return "resource"
}

func dataEntities(a *schema.RepositoryAnalysis) []string {
	var out []string
	for _, path := range sortedPaths(a.FileStructure) {
		lower := strings.ToLower(path)
		for _, kw := range entityKeywords {
			if strings.Contains(lower, kw) {
				out = append(out, path)
				break
			}
		}
	}
	return out
}

func testingRecommendations(a *schema.RepositoryAnalysis) schema.TestingRecommendations {
	hasEndpoints := len(a.APIEndpoints) > 0
	hasWebFW := false
	hasFrontend := false
	for _, fw := range a.Frameworks {
		if _, ok := webFrameworks[fw]; ok {
			hasWebFW = true
		}
		if _, ok := frontendFrameworks[fw]; ok {
			hasFrontend = true
		}
	}

	priorities := []string{}
	if hasEndpoints {
		priorities = append(priorities, "API endpoints with state-mutating methods")
	}
	priorities = append(priorities,
		"Core business logic",
		"Error handling paths",
		"Validation and integration points",
	)

	cur := a.CoverageEstimate
	return schema.TestingRecommendations{
		Priorities:  priorities,
		Unit:        true,
		Integration: hasEndpoints || hasWebFW,
		API:         hasEndpoints || hasWebFW,
		E2E:         hasFrontend,
		Performance: len(a.APIEndpoints) > complexWorkflowThreshold,
		CoverageTargets: schema.CoverageTargets{
			Unit:        minF(unitCoverageCap, cur+unitCoverageIncr),
			Integration: minF(integrationCoverageCap, cur+integrationCoverageIncr),
			API:         minF(apiCoverageCap, cur+apiCoverageIncr),
		},
	}
}

func riskAreas(a *schema.RepositoryAnalysis) []string {
	var out []string
	for _, ep := range a.APIEndpoints {
		if ep.Mutating() {
			out = append(out, fmt.Sprintf("State change via %s %s lacks coverage", ep.Method, ep.Path))
		}
	}
	if len(a.APIEndpoints) > complexWorkflowThreshold {
		out = append(out, "Complex workflows spanning many endpoints")
	}
	if len(a.Dependencies) > 0 {
		out = append(out, "External dependency failures and version drift")
	}
	if len(out) == 0 {
		out = append(out, "General regression risk in untested code paths")
	}
	return out
}

func projectType(a *schema.RepositoryAnalysis) string {
	paths := sortedPaths(a.FileStructure)
	joined := strings.ToLower(strings.Join(paths, "\n"))

	webTech := a.HasTechnology("html") || a.HasTechnology("javascript")
	if webTech {
		if strings.Contains(joined, "api") || strings.Contains(joined, "controller") {
			return "web_application"
		}
		return "frontend_app"
	}
	for _, kw := range []string{"api", "routes", "endpoints", "controllers"} {
		if strings.Contains(joined, kw) {
			return "api_service"
		}
	}
	if strings.Contains(joined, "setup.py") && strings.Contains(joined, "src/") {
		return "library"
	}
	for _, kw := range []string{"dockerfile", "docker-compose", "k8s", "microservice"} {
		if strings.Contains(joined, kw) {
			return "microservice"
		}
	}
	if a.Metrics.TotalFiles < 20 {
		return "script_project"
	}
	return "general_application"
}

func modularity(totalFiles int) string {
	switch {
	case totalFiles < 30:
		return "monolithic"
	case totalFiles < 100:
		return "modular"
	default:
		return "highly_modular"
	}
}

func complexity(codeFiles int) string {
	switch {
	case codeFiles < 50:
		return "low"
	case codeFiles < 200:
		return "medium"
	default:
		return "high"
	}
}

func sortedPaths(files map[string]*schema.FileRecord) []string {
	out := make([]string, 0, len(files))
	for path := range files {
		out = append(out, path)
	}
	sort.Strings(out)
	return out
}

func minF(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}
