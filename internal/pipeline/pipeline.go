// Package pipeline drives one test-generation run end to end: request
// validation, optional self-scan, context building, per-category
// working sets, prompt composition, orchestration, and result assembly.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"

	"qaforge/internal/enrich"
	"qaforge/internal/llm"
	"qaforge/internal/prompt"
	"qaforge/internal/safeio"
	"qaforge/internal/scan"
	"qaforge/internal/schema"
)

// ErrInvalidRequest marks requests missing required top-level fields.
var ErrInvalidRequest = errors.New("pipeline: invalid request")

// Per-category working set bounds when the request leaves them unset.
const (
	defaultMaxUnitTests        = 5
	defaultMaxIntegrationTests = 3
	defaultMaxAPITests         = 3
	defaultMaxE2ETests         = 2
)

// coverageCeiling caps the post-run coverage estimate.
const coverageCeiling = 95.0

// Pipeline owns one generation flow. Collaborators are injected so
// tests can run fully offline.
type Pipeline struct {
	Orchestrator *llm.Orchestrator
	Composer     prompt.Composer
	Scanner      scan.Scanner

	// ReadFile loads a unit's source relative to the repository root.
	// Defaults to os.ReadFile under the request's RepoPath.
	ReadFile func(repoPath, relPath string) ([]byte, error)
}

// Run executes one generation request. It never panics on bad input;
// malformed requests produce a structured error result. A failed item
// falls back to a deterministic skeleton and never aborts its category.
func (p *Pipeline) Run(ctx context.Context, req *schema.GenerationRequest) *schema.GenerationResult {
	started := time.Now().UTC()
	result := &schema.GenerationResult{
		Status:         "success",
		RunID:          uuid.NewString(),
		CategoryCounts: map[string]int{},
		Files:          map[string]schema.GeneratedTestFile{},
		Warnings:       []string{},
		GenerationTime: started,
	}

	if err := validateRequest(req); err != nil {
		result.Status = "error"
		result.Message = err.Error()
		return result
	}
	result.ProjectName = req.ProjectInfo.Name

	analysis := req.AnalysisData
	analysis.Normalize()

	if len(analysis.FileStructure) == 0 && req.RepoPath != "" {
		scanned, err := p.Scanner.Scan(req.RepoPath)
		if err != nil {
			result.Status = "error"
			result.Message = fmt.Sprintf("repository scan failed: %v", err)
			return result
		}
		analysis = scanned
	}
	p.forceEndpointPass(analysis, req.RepoPath)

	projectCtx := enrich.Build(analysis)
	result.Context = projectCtx

	cfg := req.TestConfig
	framework := ResolveFramework(cfg.Framework, analysis)
	result.FrameworkUsed = framework
	language := prompt.LanguageForFramework(framework)

	log.Printf("pipeline: run %s project=%s framework=%s language=%s", result.RunID, req.ProjectInfo.Name, framework, language)

	providerCounts := map[string]int{}
	for _, cat := range enabledCategories(cfg) {
		if cat.testType == schema.TestTypeE2E && !hasWebComponents(analysis) {
			result.Warnings = append(result.Warnings, "e2e tests skipped: no web components detected")
			continue
		}
		catFramework := categoryFramework(cat.testType, framework)
		catLanguage := prompt.LanguageForFramework(catFramework)

		for _, tgt := range p.categoryTargets(cat, cfg, analysis, projectCtx) {
			file := p.generateOne(ctx, cat.testType, catFramework, catLanguage, cfg, projectCtx, analysis, req, tgt)
			if file.Provider == llm.FallbackProviderName {
				result.Warnings = append(result.Warnings, fmt.Sprintf("%s test for %s used deterministic fallback", cat.testType, tgt.label))
			}
			result.Files[file.Name] = file
			result.CategoryCounts[cat.testType]++
			providerCounts[file.Provider]++
		}
	}

	for _, count := range result.CategoryCounts {
		result.GeneratedTests += count
	}
	result.CoverageEstimate = coverageAfterRun(result.GeneratedTests, analysis)
	result.ProviderUsed = majorityProvider(providerCounts)
	result.Recommendations = append([]string{}, projectCtx.Testing.Priorities...)
	if result.GeneratedTests == 0 {
		result.Message = "no test categories enabled or no targets found"
	}

	log.Printf("pipeline: run %s done: %d tests, coverage %.1f%%, provider %s",
		result.RunID, result.GeneratedTests, result.CoverageEstimate, result.ProviderUsed)
	return result
}

// generateOne composes and orchestrates a single item. Exhaustion is
// absorbed as a fallback file, never an error.
func (p *Pipeline) generateOne(ctx context.Context, testType, framework, language string, cfg *schema.TestConfig, projectCtx *schema.ProjectContext, analysis *schema.RepositoryAnalysis, req *schema.GenerationRequest, target target) schema.GeneratedTestFile {
	unit := prompt.Unit{
		Path:       target.path,
		Name:       target.label,
		Kind:       target.kind,
		Technology: analysis.PrimaryLanguage(),
		Content:    p.readSource(req.RepoPath, target.path),
		Endpoint:   target.endpoint,
	}
	instruction, data := p.Composer.Compose(testType, framework, cfg, projectCtx, analysis, unit)

	content, provider, err := p.Orchestrator.GenerateTest(ctx, instruction, data, language, testType, framework, target.label)
	if err != nil {
		log.Printf("pipeline: %s item %s exhausted providers: %v", testType, target.label, err)
	}

	return schema.GeneratedTestFile{
		Name:       TestFileName(testType, framework, target.label),
		Type:       testType,
		Framework:  framework,
		Content:    content,
		TargetFile: target.path,
		Provider:   provider,
		Priority:   target.priority,
	}
}

func (p *Pipeline) readSource(repoPath, relPath string) []byte {
	if relPath == "" {
		return nil
	}
	read := p.ReadFile
	if read == nil {
		read = func(root, rel string) ([]byte, error) {
			if root == "" {
				return nil, os.ErrNotExist
			}
			fsys, err := safeio.NewSafeFS(root)
			if err != nil {
				return nil, err
			}
			return fsys.SafeReadFile(rel)
		}
	}
	content, err := read(repoPath, relPath)
	if err != nil {
		return nil
	}
	return content
}

// forceEndpointPass re-runs endpoint detection when an analysis arrives
// with files but no endpoints, which happens with payloads produced by
// older scanners.
func (p *Pipeline) forceEndpointPass(analysis *schema.RepositoryAnalysis, repoPath string) {
	if len(analysis.APIEndpoints) > 0 || repoPath == "" {
		return
	}
	byFile := map[string][]schema.Endpoint{}
	for path, rec := range analysis.FileStructure {
		if rec.IsTest || rec.Extension != ".py" {
			continue
		}
		content := p.readSource(repoPath, path)
		if content == nil {
			continue
		}
		found := scan.DetectEndpoints(path, content)
		if len(found) > 0 {
			analysis.APIEndpoints = append(analysis.APIEndpoints, found...)
			byFile[path] = append(byFile[path], found...)
		}
	}
	if len(byFile) > 0 {
		analysis.APIEndpointsByFile = byFile
		log.Printf("pipeline: forced endpoint pass found %d endpoints", len(analysis.APIEndpoints))
	}
}

func validateRequest(req *schema.GenerationRequest) error {
	if req == nil {
		return fmt.Errorf("%w: request is nil", ErrInvalidRequest)
	}
	var missing []string
	if req.ProjectInfo == nil {
		missing = append(missing, "project_info")
	}
	if req.AnalysisData == nil {
		missing = append(missing, "analysis_data")
	}
	if req.TestConfig == nil {
		missing = append(missing, "test_config")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: missing required fields: %s", ErrInvalidRequest, strings.Join(missing, ", "))
	}
	return nil
}

// coverageAfterRun estimates post-run coverage from generated plus
// pre-existing tests over code files, rounded to one decimal. Runs
// that generate nothing report zero.
func coverageAfterRun(generated int, analysis *schema.RepositoryAnalysis) float64 {
	if generated == 0 {
		return 0.0
	}
	codeFiles := analysis.Metrics.CodeFiles
	if codeFiles < 1 {
		codeFiles = 1
	}
	pct := float64(generated+analysis.Metrics.TestFiles) / float64(codeFiles) * 100
	if pct > coverageCeiling {
		pct = coverageCeiling
	}
	return math.Round(pct*10) / 10
}

// majorityProvider picks the provider that produced the most files.
// Ties between a real provider and the fallback resolve to the real
// provider.
func majorityProvider(counts map[string]int) string {
	if len(counts) == 0 {
		return "none"
	}
	best, bestCount := "", -1
	for name, count := range counts {
		if count > bestCount || (count == bestCount && best == llm.FallbackProviderName) {
			best, bestCount = name, count
		}
	}
	return best
}
