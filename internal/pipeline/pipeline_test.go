package pipeline

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"qaforge/internal/llm"
	"qaforge/internal/schema"
	"qaforge/internal/tester"
)

const goodPytest = "import pytest\n\n\ndef test_orders_roundtrip():\n    assert place_order({}) is not None\n"

func newPipeline(providers ...llm.Provider) *Pipeline {
	return &Pipeline{
		Orchestrator: llm.NewOrchestrator(time.Second, providers...),
		ReadFile: func(repoPath, relPath string) ([]byte, error) {
			return nil, os.ErrNotExist
		},
	}
}

func ordersAnalysis() *schema.RepositoryAnalysis {
	a := schema.NewRepositoryAnalysis()
	a.Technologies = []string{"python"}
	a.Frameworks = []string{"fastapi"}
	a.Metrics = schema.Metrics{TotalFiles: 10, CodeFiles: 4, TestFiles: 1}
	for _, p := range []string{"app/api/orders.py", "app/models/order.py", "app/services/billing.py", "app/util.py"} {
		a.FileStructure[p] = &schema.FileRecord{Path: p, Technology: "python", Extension: ".py", Lines: 40}
	}
	a.APIEndpoints = []schema.Endpoint{
		{Method: "POST", Path: "/orders", File: "app/api/orders.py", FunctionName: "create_order", Framework: "fastapi"},
		{Method: "GET", Path: "/orders", File: "app/api/orders.py", FunctionName: "list_orders", Framework: "fastapi"},
	}
	return a
}

func request(cfg *schema.TestConfig) *schema.GenerationRequest {
	return &schema.GenerationRequest{
		ProjectInfo:  &schema.ProjectInfo{Name: "orders-svc"},
		AnalysisData: ordersAnalysis(),
		TestConfig:   cfg,
	}
}

func TestRunMissingFieldsIsStructuredError(t *testing.T) {
	p := newPipeline(&llm.FakeProvider{Response: goodPytest})

	result := p.Run(context.Background(), &schema.GenerationRequest{TestConfig: &schema.TestConfig{}})
	tester.Eq(t, result.Status, "error")
	tester.Contains(t, result.Message, "project_info")
	tester.Contains(t, result.Message, "analysis_data")
	tester.True(t, result.RunID != "")
}

func TestRunNilRequest(t *testing.T) {
	p := newPipeline(&llm.FakeProvider{Response: goodPytest})

	result := p.Run(context.Background(), nil)
	tester.Eq(t, result.Status, "error")
}

func TestRunEmptyConfigSucceedsWithNothing(t *testing.T) {
	p := newPipeline(&llm.FakeProvider{Response: goodPytest})

	result := p.Run(context.Background(), request(&schema.TestConfig{}))
	tester.Eq(t, result.Status, "success")
	tester.Eq(t, result.GeneratedTests, 0)
	tester.Eq(t, result.CoverageEstimate, 0.0)
	tester.True(t, result.Message != "")
}

func TestRunUnitCategory(t *testing.T) {
	provider := &llm.FakeProvider{ProviderName: "gemini:test", Response: goodPytest}
	p := newPipeline(provider)

	result := p.Run(context.Background(), request(&schema.TestConfig{
		GenerateUnitTests: true,
		MaxUnitTests:      2,
	}))
	tester.Eq(t, result.Status, "success")
	tester.Eq(t, result.GeneratedTests, 2)
	tester.Eq(t, result.CategoryCounts[schema.TestTypeUnit], 2)
	tester.Eq(t, result.FrameworkUsed, "pytest")
	tester.Eq(t, result.ProviderUsed, "gemini:test")

	for name, file := range result.Files {
		tester.True(t, strings.HasPrefix(name, "test_unit_"))
		tester.True(t, strings.HasSuffix(name, ".py"))
		tester.Eq(t, file.Type, schema.TestTypeUnit)
		tester.Contains(t, file.Content, "def test_")
	}
}

func TestRunAPITestsPerEndpoint(t *testing.T) {
	p := newPipeline(&llm.FakeProvider{Response: goodPytest})

	result := p.Run(context.Background(), request(&schema.TestConfig{GenerateAPITests: true}))
	tester.Eq(t, result.CategoryCounts[schema.TestTypeAPI], 2)

	_, ok := result.Files["test_api_post_orders.py"]
	tester.True(t, ok, "POST endpoint file expected")
	_, ok = result.Files["test_api_get_orders.py"]
	tester.True(t, ok, "GET endpoint file expected")
}

func TestRunFallbackWhenProvidersExhausted(t *testing.T) {
	p := newPipeline(&llm.FakeProvider{ProviderName: "down", Err: errors.New("unreachable")})

	result := p.Run(context.Background(), request(&schema.TestConfig{
		GenerateUnitTests: true,
		MaxUnitTests:      1,
	}))
	tester.Eq(t, result.Status, "success")
	tester.Eq(t, result.GeneratedTests, 1)
	tester.Eq(t, result.ProviderUsed, llm.FallbackProviderName)
	tester.True(t, len(result.Warnings) > 0, "fallback must be surfaced as a warning")

	for _, file := range result.Files {
		tester.Eq(t, file.Provider, llm.FallbackProviderName)
		tester.Contains(t, file.Content, "def test_")
		tester.Contains(t, file.Content, "assert")
	}
}

func TestRunE2ESkippedWithoutWebComponents(t *testing.T) {
	p := newPipeline(&llm.FakeProvider{Response: goodPytest})

	result := p.Run(context.Background(), request(&schema.TestConfig{GenerateE2ETests: true}))
	tester.Eq(t, result.GeneratedTests, 0)

	found := false
	for _, w := range result.Warnings {
		if strings.Contains(w, "e2e") {
			found = true
		}
	}
	tester.True(t, found, "skipping e2e must warn")
}

func TestRunE2EUsesBrowserFramework(t *testing.T) {
	jsTest := "describe(\"flow\", () => {\n  it(\"works\", () => {\n    expect(true).toBe(true);\n  });\n});\n"
	p := newPipeline(&llm.FakeProvider{Response: jsTest})

	req := request(&schema.TestConfig{GenerateE2ETests: true})
	req.AnalysisData.Frameworks = []string{"react"}
	result := p.Run(context.Background(), req)

	tester.Eq(t, result.CategoryCounts[schema.TestTypeE2E], 2)
	for name, file := range result.Files {
		tester.Eq(t, file.Framework, "cypress")
		tester.True(t, strings.HasSuffix(name, ".js"))
	}
}

func TestRunCoverageFormula(t *testing.T) {
	p := newPipeline(&llm.FakeProvider{Response: goodPytest})

	// 2 generated + 1 existing over 4 code files = 75.0.
	result := p.Run(context.Background(), request(&schema.TestConfig{
		GenerateUnitTests: true,
		MaxUnitTests:      2,
	}))
	tester.Eq(t, result.CoverageEstimate, 75.0)
}

func TestRunCoverageCeiling(t *testing.T) {
	p := newPipeline(&llm.FakeProvider{Response: goodPytest})

	req := request(&schema.TestConfig{GenerateUnitTests: true, MaxUnitTests: 4})
	req.AnalysisData.Metrics.CodeFiles = 1
	req.AnalysisData.Metrics.TestFiles = 5
	result := p.Run(context.Background(), req)
	tester.True(t, result.CoverageEstimate <= 95.0)
}

func TestRunSelfScanWhenNoFileStructure(t *testing.T) {
	dir := t.TempDir()
	src := "from fastapi import FastAPI\n\napp = FastAPI()\n\n@app.get(\"/items\")\nasync def list_items():\n    return []\n"
	tester.NoErr(t, os.MkdirAll(filepath.Join(dir, "app"), 0o755))
	tester.NoErr(t, os.WriteFile(filepath.Join(dir, "app", "main.py"), []byte(src), 0o644))

	p := newPipeline(&llm.FakeProvider{Response: goodPytest})
	p.ReadFile = nil

	req := &schema.GenerationRequest{
		ProjectInfo:  &schema.ProjectInfo{Name: "scanned"},
		AnalysisData: schema.NewRepositoryAnalysis(),
		TestConfig:   &schema.TestConfig{GenerateUnitTests: true, MaxUnitTests: 1},
		RepoPath:     dir,
	}
	result := p.Run(context.Background(), req)
	tester.Eq(t, result.Status, "success")
	tester.Eq(t, result.GeneratedTests, 1)
}

func TestRunScanFailureIsStructuredError(t *testing.T) {
	p := newPipeline(&llm.FakeProvider{Response: goodPytest})

	req := &schema.GenerationRequest{
		ProjectInfo:  &schema.ProjectInfo{Name: "missing"},
		AnalysisData: schema.NewRepositoryAnalysis(),
		TestConfig:   &schema.TestConfig{GenerateUnitTests: true},
		RepoPath:     filepath.Join(t.TempDir(), "does-not-exist"),
	}
	result := p.Run(context.Background(), req)
	tester.Eq(t, result.Status, "error")
	tester.Contains(t, result.Message, "scan failed")
}

func TestRunForcedEndpointPass(t *testing.T) {
	dir := t.TempDir()
	src := "from flask import Flask\n\napp = Flask(__name__)\n\n@app.route(\"/health\")\ndef health():\n    return \"ok\"\n"
	tester.NoErr(t, os.WriteFile(filepath.Join(dir, "server.py"), []byte(src), 0o644))

	a := schema.NewRepositoryAnalysis()
	a.Technologies = []string{"python"}
	a.Metrics.CodeFiles = 1
	a.FileStructure["server.py"] = &schema.FileRecord{Path: "server.py", Technology: "python", Extension: ".py"}

	p := newPipeline(&llm.FakeProvider{Response: goodPytest})
	p.ReadFile = nil

	req := &schema.GenerationRequest{
		ProjectInfo:  &schema.ProjectInfo{Name: "flask-app"},
		AnalysisData: a,
		TestConfig:   &schema.TestConfig{GenerateAPITests: true},
		RepoPath:     dir,
	}
	result := p.Run(context.Background(), req)
	tester.Eq(t, result.CategoryCounts[schema.TestTypeAPI], 1)
	tester.Eq(t, len(a.APIEndpoints), 1)
	tester.Eq(t, a.APIEndpoints[0].Path, "/health")
}

func TestResolveFramework(t *testing.T) {
	a := ordersAnalysis()
	tester.Eq(t, ResolveFramework("jest", a), "jest", "explicit choice wins")
	tester.Eq(t, ResolveFramework("auto", a), "pytest", "primary language default")

	a.TestAnalysis.TestFrameworks = []string{"unittest"}
	tester.Eq(t, ResolveFramework("", a), "unittest", "existing framework beats language default")

	empty := schema.NewRepositoryAnalysis()
	tester.Eq(t, ResolveFramework("auto", empty), "pytest")
}

func TestTestFileName(t *testing.T) {
	tester.Eq(t, TestFileName("unit", "pytest", "app/api/orders.py"), "test_unit_orders.py")
	tester.Eq(t, TestFileName("api", "jest", "post_orders"), "test_api_post_orders.js")
	tester.Eq(t, TestFileName("unit", "junit", "OrderService.java"), "test_unit_orderservice.java")
	tester.Eq(t, TestFileName("unit", "qunit", "thing"), "test_unit_thing.txt")
}

func TestRunPerCategoryFilenamesUnique(t *testing.T) {
	p := newPipeline(&llm.FakeProvider{Response: goodPytest})

	result := p.Run(context.Background(), request(&schema.TestConfig{
		GenerateUnitTests:        true,
		GenerateIntegrationTests: true,
		GenerateAPITests:         true,
	}))
	total := 0
	for _, n := range result.CategoryCounts {
		total += n
	}
	tester.Eq(t, total, result.GeneratedTests)
	tester.Eq(t, len(result.Files), result.GeneratedTests, "filenames must not collide across categories")
}
