package schema

import "time"

// Test categories accepted by the pipeline.
const (
	TestTypeUnit        = "unit"
	TestTypeIntegration = "integration"
	TestTypeAPI         = "api"
	TestTypeE2E         = "e2e"
)

// ProjectInfo identifies the project a generation run belongs to.
type ProjectInfo struct {
	Name   string `json:"name"`
	Source string `json:"source,omitempty"`
	Branch string `json:"branch,omitempty"`
}

// TestConfig toggles categories and bounds the per-category working
// set. Framework is an explicit tag or "auto". The zero value disables
// every category.
type TestConfig struct {
	GenerateUnitTests        bool    `json:"generate_unit_tests"`
	GenerateIntegrationTests bool    `json:"generate_integration_tests"`
	GenerateAPITests         bool    `json:"generate_api_tests"`
	GenerateE2ETests         bool    `json:"generate_e2e_tests"`
	MaxUnitTests             int     `json:"max_unit_tests,omitempty"`
	MaxIntegrationTests      int     `json:"max_integration_tests,omitempty"`
	MaxAPITests              int     `json:"max_api_tests,omitempty"`
	MaxE2ETests              int     `json:"max_e2e_tests,omitempty"`
	Framework                string  `json:"framework,omitempty"`
	CoverageTarget           float64 `json:"coverage_target,omitempty"`
	IncludeComments          bool    `json:"include_comments,omitempty"`
}

// GenerationRequest is the pipeline's single input. All three pointer
// fields are required; RepoPath optionally lets the pipeline scan for
// itself when AnalysisData carries no file structure.
type GenerationRequest struct {
	ProjectInfo  *ProjectInfo        `json:"project_info"`
	AnalysisData *RepositoryAnalysis `json:"analysis_data"`
	TestConfig   *TestConfig         `json:"test_config"`
	RepoPath     string              `json:"repo_path,omitempty"`
}

// GeneratedTestFile is one produced test. Name is the synthesized
// filename and doubles as the collection key; collisions within a
// category overwrite deterministically (last writer wins).
type GeneratedTestFile struct {
	Name       string `json:"name"`
	Type       string `json:"type"`
	Framework  string `json:"framework"`
	Content    string `json:"content"`
	TargetFile string `json:"target_file,omitempty"`
	Provider   string `json:"provider"`
	Priority   string `json:"priority,omitempty"`
}

// GenerationResult is the terminal output of one pipeline run.
type GenerationResult struct {
	Status           string                       `json:"status"`
	Message          string                       `json:"message,omitempty"`
	RunID            string                       `json:"run_id"`
	ProjectName      string                       `json:"project_name,omitempty"`
	GeneratedTests   int                          `json:"generated_tests"`
	CategoryCounts   map[string]int               `json:"category_counts"`
	Files            map[string]GeneratedTestFile `json:"files"`
	CoverageEstimate float64                      `json:"coverage_estimate"`
	FrameworkUsed    string                       `json:"framework_used"`
	Warnings         []string                     `json:"warnings"`
	Recommendations  []string                     `json:"recommendations"`
	ProviderUsed     string                       `json:"ai_provider_used"`
	Context          *ProjectContext              `json:"project_context,omitempty"`
	GenerationTime   time.Time                    `json:"generation_time"`
}
