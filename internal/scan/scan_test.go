package scan

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"qaforge/internal/schema"
	"qaforge/internal/tester"
)

const appPy = `from fastapi import FastAPI

app = FastAPI()

@app.get("/items")
def list_items():
    return []

@app.post("/items")
def create_item(item: dict):
    return item
`

const testAppPy = `import pytest
from app import list_items

def test_list_items_empty():
    assert list_items() == []

def test_list_items_type():
    assert isinstance(list_items(), list)
`

func writeFile(t *testing.T, root, rel, content string) {
	t.Helper()
	path := filepath.Join(root, rel)
	tester.NoErr(t, os.MkdirAll(filepath.Dir(path), 0o755))
	tester.NoErr(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestScanPythonProject(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "app.py", appPy)
	writeFile(t, root, "tests/test_app.py", testAppPy)

	var s Scanner
	a, err := s.Scan(root)
	tester.NoErr(t, err)

	tester.Eq(t, a.Metrics.CodeFiles, 1)
	tester.Eq(t, a.Metrics.TestFiles, 1)
	tester.Eq(t, a.Technologies, []string{"python"})
	tester.Eq(t, a.TestAnalysis.TestFrameworks, []string{"pytest"})
	tester.True(t, a.TestAnalysis.HasTests)
	tester.Eq(t, a.TestAnalysis.TestDirectories, []string{"tests"})
}

func TestScanDetectsEndpoints(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "app.py", appPy)

	var s Scanner
	a, err := s.Scan(root)
	tester.NoErr(t, err)

	tester.Eq(t, len(a.APIEndpoints), 2)
	tester.Eq(t, a.APIEndpoints[0].Method, "GET")
	tester.Eq(t, a.APIEndpoints[0].Path, "/items")
	tester.Eq(t, a.APIEndpoints[0].FunctionName, "list_items")
	tester.Eq(t, a.APIEndpoints[1].Method, "POST")
	tester.Eq(t, len(a.APIEndpointsByFile["app.py"]), 2)
}

func TestScanSkipsVendoredDirs(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "src/index.js", "const x = 1;\nmodule.exports = x;\n")
	writeFile(t, root, "node_modules/lodash/index.js", "module.exports = {};\n")

	var s Scanner
	a, err := s.Scan(root)
	tester.NoErr(t, err)

	tester.Eq(t, a.Metrics.TotalFiles, 1)
	_, present := a.FileStructure["node_modules/lodash/index.js"]
	tester.False(t, present, "node_modules must never appear in file_structure")
}

func TestScanRootMissing(t *testing.T) {
	var s Scanner
	_, err := s.Scan(filepath.Join(t.TempDir(), "nope"))
	tester.True(t, errors.Is(err, ErrScanRoot))
}

func TestScanUnreadableRootIsFile(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "plain.txt", "hi")
	_, err := (&Scanner{}).Scan(filepath.Join(root, "plain.txt"))
	tester.True(t, errors.Is(err, ErrScanRoot))
}

func TestClassificationTotalsInvariant(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "app.py", appPy)
	writeFile(t, root, "tests/test_app.py", testAppPy)
	writeFile(t, root, "README.md", "# demo\n")
	writeFile(t, root, "requirements.txt", "fastapi==0.110\npytest\n")

	a, err := (&Scanner{}).Scan(root)
	tester.NoErr(t, err)
	tester.True(t, a.Metrics.CodeFiles+a.Metrics.TestFiles <= a.Metrics.TotalFiles)
	tester.True(t, a.Structure.HasReadme)
	tester.True(t, a.Structure.HasRequirements)
}

func TestScanCoverageBounds(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "app.py", appPy)
	writeFile(t, root, "tests/test_app.py", testAppPy)

	a, err := (&Scanner{}).Scan(root)
	tester.NoErr(t, err)
	tester.True(t, a.CoverageEstimate >= 0 && a.CoverageEstimate <= 100)
}

func TestParseDependencies(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "requirements.txt", "fastapi==0.110.0\nuvicorn>=0.29\n# comment\n-r extra.txt\npydantic\n")
	writeFile(t, root, "package.json", `{"dependencies":{"react":"^18.0.0","axios":"1.0.0"},"devDependencies":{"jest":"^29.0.0"}}`)

	deps := ParseDependencies(root)
	tester.Eq(t, deps["python"], []string{"fastapi", "uvicorn", "pydantic"})
	tester.Eq(t, deps["javascript"], []string{"axios", "react", "jest"})
}

func TestParseDependenciesCap(t *testing.T) {
	root := t.TempDir()
	var lines string
	for i := 0; i < 30; i++ {
		lines += "pkg" + string(rune('a'+i%26)) + string(rune('0'+i/26)) + "\n"
	}
	writeFile(t, root, "requirements.txt", lines)
	deps := ParseDependencies(root)
	tester.Eq(t, len(deps["python"]), maxDepsPerTech)
}

func vendoredFixture() *schema.RepositoryAnalysis {
	a := schema.NewRepositoryAnalysis()
	a.AnalysisTimestamp = time.Time{}
	a.FileStructure["src/index.js"] = &schema.FileRecord{Path: "src/index.js", Technology: "javascript", Extension: ".js", Size: 100, Lines: 10}
	a.FileStructure["node_modules/lodash/index.js"] = &schema.FileRecord{Path: "node_modules/lodash/index.js", Technology: "javascript", Extension: ".js", Size: 9000, Lines: 500}
	a.FileStructure["build/out.js"] = &schema.FileRecord{Path: "build/out.js", Technology: "javascript", Extension: ".js", Size: 400, Lines: 40}
	a.FileStructure["tests/test_index.js"] = &schema.FileRecord{Path: "tests/test_index.js", Technology: "javascript", Extension: ".js", IsTest: true, Size: 50, Lines: 5}
	a.APIEndpoints = []schema.Endpoint{
		{Method: "GET", Path: "/x", File: "src/index.js"},
		{Method: "GET", Path: "/y", File: "node_modules/lodash/index.js"},
	}
	return a
}

func TestFilterVendoredRemovesRecords(t *testing.T) {
	a := FilterVendored(vendoredFixture())

	tester.Eq(t, a.Metrics.TotalFiles, 2)
	tester.Eq(t, a.Metrics.CodeFiles, 1)
	tester.Eq(t, a.Metrics.TestFiles, 1)
	_, present := a.FileStructure["node_modules/lodash/index.js"]
	tester.False(t, present)
	tester.Eq(t, a.Complexity.LargestFile.Path, "src/index.js")
	tester.Eq(t, len(a.APIEndpoints), 1)
	tester.Eq(t, a.APIEndpoints[0].File, "src/index.js")
}

func TestFilterVendoredIdempotent(t *testing.T) {
	once := FilterVendored(vendoredFixture())
	twice := FilterVendored(FilterVendored(vendoredFixture()))
	if !reflect.DeepEqual(once, twice) {
		t.Fatalf("filter is not idempotent: %+v vs %+v", once, twice)
	}
}

func TestDetectEndpointsFlaskMethods(t *testing.T) {
	src := `from flask import Flask
app = Flask(__name__)

@app.route("/orders", methods=["GET", "POST"])
def orders():
    return []
`
	eps := DetectEndpoints("server.py", []byte(src))
	tester.Eq(t, len(eps), 2)
	tester.Eq(t, eps[0].Method, "GET")
	tester.Eq(t, eps[1].Method, "POST")
	tester.Eq(t, eps[0].Framework, "Flask")
	tester.Eq(t, eps[0].FunctionName, "orders")
}
