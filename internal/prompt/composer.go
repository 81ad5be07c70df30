// Package prompt composes the instruction and data documents sent to
// the generation providers. Documents are rendered as fixed [SECTION]
// blocks in a stable order.
package prompt

import (
	"bytes"
	"fmt"
	"sort"
	"strings"

	"qaforge/internal/schema"
)

// Excerpt caps keep composed documents inside provider size limits.
// These are fixed design constants, not configuration.
const (
	maxFileExcerpt     = 20
	maxEndpointExcerpt = 10
)

// defaultMaxContentBytes truncates very large source files in the data
// document, with an explicit marker.
const defaultMaxContentBytes = 16 * 1024

// Unit is one generation target: a file, an endpoint's defining file,
// a module, or a named scenario.
type Unit struct {
	Path       string
	Name       string
	Kind       string // "file", "endpoint", "module", "scenario"
	Technology string
	Content    []byte
	Endpoint   *schema.Endpoint
}

// Composer renders prompts. The zero value is usable.
type Composer struct {
	MaxContentBytes int
}

// Compose renders the instruction document and the data document for
// one generation unit.
func (c *Composer) Compose(testType, framework string, cfg *schema.TestConfig, ctx *schema.ProjectContext, a *schema.RepositoryAnalysis, unit Unit) (instruction, data string) {
	if cfg == nil {
		cfg = &schema.TestConfig{}
	}
	if ctx == nil {
		ctx = &schema.ProjectContext{}
	}
	if a == nil {
		a = schema.NewRepositoryAnalysis()
	}
	return c.instructionDoc(testType, framework, cfg, ctx, a), c.dataDoc(testType, framework, ctx, a, unit)
}

func (c *Composer) instructionDoc(testType, framework string, cfg *schema.TestConfig, ctx *schema.ProjectContext, a *schema.RepositoryAnalysis) string {
	var buf bytes.Buffer

	writeSection(&buf, "ROLE", "You are a senior test automation engineer. Generate professional "+testType+" tests for the code provided in the data document.")

	meta := fmt.Sprintf("Language: %s\nFramework: %s\nTest type: %s\nTarget coverage: %.0f%%\nProject type: %s\nModularity: %s\nComplexity: %s\nTechnologies: %s",
		LanguageForFramework(framework), framework, testType,
		coverageTarget(cfg), ctx.ProjectType, ctx.Modularity, ctx.Complexity,
		strings.Join(a.Technologies, ", "))
	writeSection(&buf, "PROJECT", meta)

	writeSection(&buf, "FILE_STRUCTURE", fileExcerpt(a))
	writeSection(&buf, "ENDPOINTS", endpointExcerpt(a.APIEndpoints))
	writeSection(&buf, "BUSINESS_CONTEXT", businessContext(ctx))
	writeSection(&buf, "TESTING_RECOMMENDATIONS", recommendations(ctx))
	writeSection(&buf, "GUIDANCE", guidance(testType, framework))
	writeSection(&buf, "OUTPUT_FORMAT", "Return ONLY the test source code. No prose, no explanations, no markdown fences. Start directly with imports.")

	return strings.TrimSpace(buf.String()) + "\n"
}

func (c *Composer) dataDoc(testType, framework string, ctx *schema.ProjectContext, a *schema.RepositoryAnalysis, unit Unit) string {
	var buf bytes.Buffer

	identity := fmt.Sprintf("Path: %s\nName: %s\nKind: %s\nTechnology: %s", unit.Path, unit.Name, unit.Kind, unit.Technology)
	if unit.Endpoint != nil {
		identity += fmt.Sprintf("\nEndpoint: %s %s (handler %s)", unit.Endpoint.Method, unit.Endpoint.Path, unit.Endpoint.FunctionName)
	}
	writeSection(&buf, "TARGET", identity)

	if rec, ok := a.FileStructure[unit.Path]; ok {
		writeSection(&buf, "SIZE", fmt.Sprintf("Bytes: %d\nLines: %d\nCriticality: %s", rec.Size, rec.Lines, unitCriticality(unit, ctx)))
	}

	writeSection(&buf, "SOURCE", c.sourceBlock(unit.Content))
	writeSection(&buf, "STRUCTURE", AnalyzeSource(unit.Content, unit.Technology).Render())
	writeSection(&buf, "RELATED_ENDPOINTS", relatedEndpoints(a.APIEndpoints, unit.Path))
	writeSection(&buf, "SCENARIOS", suggestedScenarios(testType, unit))
	writeSection(&buf, "MOCK_TARGETS", mockTargets(a.Dependencies))
	writeSection(&buf, "TASK", fmt.Sprintf("Generate a %s test for the target above using %s.", strings.ToUpper(testType), strings.ToUpper(framework)))

	return strings.TrimSpace(buf.String()) + "\n"
}

// sourceBlock returns the literal source, truncated at the byte
// threshold with a marker. The content is not re-escaped.
func (c *Composer) sourceBlock(content []byte) string {
	if len(content) == 0 {
		return "(no source content available)"
	}
	limit := c.MaxContentBytes
	if limit <= 0 {
		limit = defaultMaxContentBytes
	}
	if len(content) <= limit {
		return string(content)
	}
	return string(content[:limit]) + "\n... [content truncated]"
}

func coverageTarget(cfg *schema.TestConfig) float64 {
	if cfg.CoverageTarget > 0 {
		return cfg.CoverageTarget
	}
	return 80
}

func fileExcerpt(a *schema.RepositoryAnalysis) string {
	paths := make([]string, 0, len(a.FileStructure))
	for path := range a.FileStructure {
		paths = append(paths, path)
	}
	sort.Strings(paths)

	var buf strings.Builder
	for i, path := range paths {
		if i >= maxFileExcerpt {
			fmt.Fprintf(&buf, "... and %d more files\n", len(paths)-maxFileExcerpt)
			break
		}
		rec := a.FileStructure[path]
		marker := ""
		if rec.IsTest {
			marker = " [test]"
		}
		fmt.Fprintf(&buf, "- %s (%d lines)%s\n", path, rec.Lines, marker)
	}
	return strings.TrimRight(buf.String(), "\n")
}

func endpointExcerpt(endpoints []schema.Endpoint) string {
	var buf strings.Builder
	for i, ep := range endpoints {
		if i >= maxEndpointExcerpt {
			fmt.Fprintf(&buf, "... and %d more endpoints\n", len(endpoints)-maxEndpointExcerpt)
			break
		}
		fmt.Fprintf(&buf, "- %s %s (%s in %s)\n", ep.Method, ep.Path, ep.FunctionName, ep.File)
	}
	return strings.TrimRight(buf.String(), "\n")
}

func businessContext(ctx *schema.ProjectContext) string {
	var buf strings.Builder
	if len(ctx.BusinessDomains) > 0 {
		fmt.Fprintf(&buf, "Domains: %s\n", strings.Join(ctx.BusinessDomains, ", "))
	}
	if len(ctx.CoreFunctions) > 0 {
		fmt.Fprintf(&buf, "Core functions: %s\n", strings.Join(ctx.CoreFunctions, "; "))
	}
	if len(ctx.DataEntities) > 0 {
		fmt.Fprintf(&buf, "Data entities: %s\n", strings.Join(ctx.DataEntities, ", "))
	}
	if len(ctx.RiskAreas) > 0 {
		fmt.Fprintf(&buf, "Risk areas: %s\n", strings.Join(ctx.RiskAreas, "; "))
	}
	return strings.TrimRight(buf.String(), "\n")
}

func recommendations(ctx *schema.ProjectContext) string {
	var buf strings.Builder
	for _, p := range ctx.Testing.Priorities {
		fmt.Fprintf(&buf, "- %s\n", p)
	}
	t := ctx.Testing.CoverageTargets
	if t.Unit > 0 || t.Integration > 0 || t.API > 0 {
		fmt.Fprintf(&buf, "Coverage targets: unit %.0f%%, integration %.0f%%, api %.0f%%\n", t.Unit, t.Integration, t.API)
	}
	return strings.TrimRight(buf.String(), "\n")
}

func relatedEndpoints(endpoints []schema.Endpoint, path string) string {
	var buf strings.Builder
	for _, ep := range endpoints {
		if ep.File == path {
			fmt.Fprintf(&buf, "- %s %s (%s)\n", ep.Method, ep.Path, ep.FunctionName)
		}
	}
	return strings.TrimRight(buf.String(), "\n")
}

var scenarioBase = map[string][]string{
	schema.TestTypeUnit: {
		"Happy path with valid inputs",
		"Boundary values and empty inputs",
		"Error and exception paths",
	},
	schema.TestTypeIntegration: {
		"Module interaction happy path",
		"Data consistency across layers",
		"Failure propagation between modules",
	},
	schema.TestTypeAPI: {
		"Successful request and response shape",
		"Invalid payload rejection",
		"Authentication and status codes",
	},
	schema.TestTypeE2E: {
		"Complete user workflow",
		"UI state transitions on errors",
	},
}

func suggestedScenarios(testType string, unit Unit) string {
	scenarios := append([]string{}, scenarioBase[testType]...)
	lower := strings.ToLower(unit.Path)
	if strings.Contains(lower, "model") || strings.Contains(lower, "entity") {
		scenarios = append(scenarios, "CRUD round trip on the data model", "Constraint and validation enforcement")
	}
	if strings.Contains(lower, "auth") || strings.Contains(lower, "login") {
		scenarios = append(scenarios, "Credential validation and rejection")
	}
	var buf strings.Builder
	for _, s := range scenarios {
		fmt.Fprintf(&buf, "- %s\n", s)
	}
	return strings.TrimRight(buf.String(), "\n")
}

var mockCategories = []struct {
	suggestion string
	markers    []string
}{
	{"Mock outbound HTTP calls", []string{"requests", "httpx", "aiohttp", "axios", "node-fetch", "got"}},
	{"Mock the database session or connection", []string{"sqlalchemy", "psycopg", "asyncpg", "pymongo", "mongoose", "sequelize", "prisma", "pg"}},
	{"Mock the task queue or broker", []string{"celery", "redis", "bull", "kafka", "pika"}},
}

func mockTargets(deps map[string][]string) string {
	var flat []string
	for _, list := range deps {
		flat = append(flat, list...)
	}
	var buf strings.Builder
	for _, cat := range mockCategories {
		for _, dep := range flat {
			matched := false
			for _, marker := range cat.markers {
				if strings.EqualFold(dep, marker) {
					fmt.Fprintf(&buf, "- %s (%s)\n", cat.suggestion, dep)
					matched = true
					break
				}
			}
			if matched {
				break
			}
		}
	}
	return strings.TrimRight(buf.String(), "\n")
}

func unitCriticality(unit Unit, ctx *schema.ProjectContext) string {
	for _, kc := range ctx.KeyComponents {
		if kc.File == unit.Path {
			return kc.Criticality
		}
	}
	return schema.CriticalityLow
}

func writeSection(buf *bytes.Buffer, title, body string) {
	if strings.TrimSpace(body) == "" {
		return
	}
	buf.WriteString("[")
	buf.WriteString(title)
	buf.WriteString("]\n")
	buf.WriteString(body)
	if !strings.HasSuffix(body, "\n") {
		buf.WriteString("\n")
	}
	buf.WriteString("\n")
}
