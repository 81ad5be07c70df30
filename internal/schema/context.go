package schema

// Criticality levels used for key components.
const (
	CriticalityHigh   = "high"
	CriticalityMedium = "medium"
	CriticalityLow    = "low"
)

// KeyComponent is an endpoint or file believed to matter for testing.
type KeyComponent struct {
	Name        string `json:"name"`
	Kind        string `json:"kind"` // "endpoint" or "file"
	Criticality string `json:"criticality"`
	Method      string `json:"method,omitempty"`
	Path        string `json:"path,omitempty"`
	File        string `json:"file,omitempty"`
}

// CoverageTargets are per-type goals derived from the current estimate.
type CoverageTargets struct {
	Unit        float64 `json:"unit"`
	Integration float64 `json:"integration"`
	API         float64 `json:"api"`
}

// TestingRecommendations summarize what to test first and how much.
type TestingRecommendations struct {
	Priorities      []string        `json:"priorities"`
	Unit            bool            `json:"unit"`
	Integration     bool            `json:"integration"`
	API             bool            `json:"api"`
	E2E             bool            `json:"e2e"`
	Performance     bool            `json:"performance"`
	CoverageTargets CoverageTargets `json:"coverage_targets"`
}

// ProjectContext is the enriched, read-only view of an analysis used
// for prompting. It is rebuilt for every generation run and never
// persisted on its own.
type ProjectContext struct {
	ProjectType     string                 `json:"project_type"`
	PrimaryLanguage string                 `json:"primary_language"`
	Modularity      string                 `json:"modularity"`
	Complexity      string                 `json:"complexity"`
	KeyComponents   []KeyComponent         `json:"key_components"`
	CriticalPaths   []string               `json:"critical_paths"`
	BusinessDomains []string               `json:"business_domains"`
	CoreFunctions   []string               `json:"core_functions"`
	DataEntities    []string               `json:"data_entities"`
	Testing         TestingRecommendations `json:"testing_recommendations"`
	RiskAreas       []string               `json:"risk_areas"`
}
