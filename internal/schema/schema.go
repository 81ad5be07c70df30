// Package schema defines the shared data model passed between the
// repository scanner, the context builder, and the generation pipeline.
// Analysis payloads round-trip through the stores as JSON, so field
// names are stable and missing keys decode to empty collections.
package schema

import "time"

// FileRecord describes one scanned file. Records are immutable after a
// scan; Path is the unique key within a RepositoryAnalysis.
type FileRecord struct {
	Path       string `json:"path"`
	Technology string `json:"technology,omitempty"`
	Extension  string `json:"extension"`
	IsTest     bool   `json:"is_test"`
	Size       int64  `json:"size"`
	Lines      int    `json:"lines"`
}

// Endpoint is an HTTP route discovered by pattern matching.
type Endpoint struct {
	Method       string `json:"method"`
	Path         string `json:"path"`
	File         string `json:"file"`
	FunctionName string `json:"function_name,omitempty"`
	Framework    string `json:"framework,omitempty"`
	Line         int    `json:"line,omitempty"`
}

// Mutating reports whether the endpoint changes server state.
func (e Endpoint) Mutating() bool {
	switch e.Method {
	case "POST", "PUT", "PATCH", "DELETE":
		return true
	}
	return false
}

// TestAnalysis summarizes existing tests found in the repository.
type TestAnalysis struct {
	HasTests        bool     `json:"has_tests"`
	TestFrameworks  []string `json:"test_frameworks"`
	TestFilesCount  int      `json:"test_files_count"`
	TestDirectories []string `json:"test_directories"`
}

// Metrics are whole-repository aggregate counters.
type Metrics struct {
	TotalFiles   int   `json:"total_files"`
	CodeFiles    int   `json:"code_files"`
	TestFiles    int   `json:"test_files"`
	TotalLines   int   `json:"total_lines"`
	TotalSize    int64 `json:"total_size"`
	IgnoredFiles int   `json:"ignored_files"`
}

// LargestFile tracks the single biggest file seen during a scan.
type LargestFile struct {
	Path string `json:"path"`
	Size int64  `json:"size"`
}

// ComplexityMetrics are derived size/shape measures.
type ComplexityMetrics struct {
	AvgFileSize    float64        `json:"avg_file_size"`
	LargestFile    LargestFile    `json:"largest_file"`
	FileExtensions map[string]int `json:"file_extensions"`
}

// ProjectStructure flags conventionally named special files.
type ProjectStructure struct {
	HasRequirements  bool `json:"has_requirements"`
	HasPackageJSON   bool `json:"has_package_json"`
	HasPomXML        bool `json:"has_pom_xml"`
	HasDockerfile    bool `json:"has_dockerfile"`
	HasReadme        bool `json:"has_readme"`
	HasGitignore     bool `json:"has_gitignore"`
	HasDockerCompose bool `json:"has_docker_compose"`
}

// RepositoryAnalysis is the product of one scan pass. The dependency
// filter mutates it in place and recomputes every derived aggregate.
type RepositoryAnalysis struct {
	Technologies       []string               `json:"technologies"`
	Frameworks         []string               `json:"frameworks"`
	FileStructure      map[string]*FileRecord `json:"file_structure"`
	TestAnalysis       TestAnalysis           `json:"test_analysis"`
	Dependencies       map[string][]string    `json:"dependencies"`
	Metrics            Metrics                `json:"metrics"`
	Complexity         ComplexityMetrics      `json:"complexity_metrics"`
	Structure          ProjectStructure       `json:"project_structure"`
	APIEndpoints       []Endpoint             `json:"api_endpoints"`
	APIEndpointsByFile map[string][]Endpoint  `json:"api_endpoints_by_file,omitempty"`
	CoverageEstimate   float64                `json:"coverage_estimate"`
	Source             string                 `json:"source,omitempty"`
	Branch             string                 `json:"branch,omitempty"`
	AnalysisTimestamp  time.Time              `json:"analysis_timestamp"`
}

// NewRepositoryAnalysis returns an analysis with every collection
// allocated, so callers never see nil maps on partially built payloads.
func NewRepositoryAnalysis() *RepositoryAnalysis {
	return &RepositoryAnalysis{
		Technologies:  []string{},
		Frameworks:    []string{},
		FileStructure: map[string]*FileRecord{},
		TestAnalysis: TestAnalysis{
			TestFrameworks:  []string{},
			TestDirectories: []string{},
		},
		Dependencies: map[string][]string{},
		Complexity: ComplexityMetrics{
			FileExtensions: map[string]int{},
		},
		APIEndpoints:      []Endpoint{},
		AnalysisTimestamp: time.Now().UTC(),
	}
}

// Normalize fills nil collections left behind by JSON decoding of
// payloads written by older versions or external callers.
func (a *RepositoryAnalysis) Normalize() {
	if a.Technologies == nil {
		a.Technologies = []string{}
	}
	if a.Frameworks == nil {
		a.Frameworks = []string{}
	}
	if a.FileStructure == nil {
		a.FileStructure = map[string]*FileRecord{}
	}
	if a.TestAnalysis.TestFrameworks == nil {
		a.TestAnalysis.TestFrameworks = []string{}
	}
	if a.TestAnalysis.TestDirectories == nil {
		a.TestAnalysis.TestDirectories = []string{}
	}
	if a.Dependencies == nil {
		a.Dependencies = map[string][]string{}
	}
	if a.Complexity.FileExtensions == nil {
		a.Complexity.FileExtensions = map[string]int{}
	}
	if a.APIEndpoints == nil {
		a.APIEndpoints = []Endpoint{}
	}
}

// HasTechnology reports whether tag was detected, case-insensitively
// exact (tags are stored lowercased).
func (a *RepositoryAnalysis) HasTechnology(tag string) bool {
	for _, t := range a.Technologies {
		if t == tag {
			return true
		}
	}
	return false
}

// PrimaryLanguage resolves the dominant technology by a fixed
// precedence order, falling back to the first detected tag.
func (a *RepositoryAnalysis) PrimaryLanguage() string {
	precedence := []string{"python", "javascript", "typescript", "java", "go", "rust", "csharp", "php"}
	for _, lang := range precedence {
		if a.HasTechnology(lang) {
			return lang
		}
	}
	if len(a.Technologies) > 0 {
		return a.Technologies[0]
	}
	return "unknown"
}
