package enrich

import (
	"strings"
	"testing"

	"qaforge/internal/schema"
	"qaforge/internal/tester"
)

func analysisWithOrders() *schema.RepositoryAnalysis {
	a := schema.NewRepositoryAnalysis()
	a.Technologies = []string{"python"}
	a.Frameworks = []string{"fastapi"}
	a.Metrics = schema.Metrics{TotalFiles: 12, CodeFiles: 8, TestFiles: 1}
	a.FileStructure["app/api/orders.py"] = &schema.FileRecord{Path: "app/api/orders.py", Technology: "python"}
	a.FileStructure["app/models/order.py"] = &schema.FileRecord{Path: "app/models/order.py", Technology: "python"}
	a.APIEndpoints = []schema.Endpoint{
		{Method: "POST", Path: "/orders", File: "app/api/orders.py"},
		{Method: "GET", Path: "/orders", File: "app/api/orders.py"},
	}
	a.Dependencies = map[string][]string{"python": {"fastapi"}}
	a.CoverageEstimate = 30
	return a
}

func TestBuildRiskAreaForMutatingEndpoint(t *testing.T) {
	ctx := Build(analysisWithOrders())

	found := false
	for _, risk := range ctx.RiskAreas {
		if strings.Contains(risk, "POST /orders") {
			found = true
		}
	}
	tester.True(t, found, "mutating endpoint must surface as a risk area")
}

func TestBuildCoreFunctionCreate(t *testing.T) {
	ctx := Build(analysisWithOrders())

	found := false
	for _, fn := range ctx.CoreFunctions {
		if strings.HasPrefix(fn, "Create") {
			found = true
		}
	}
	tester.True(t, found, "POST endpoint must yield a Create core function")
}

func TestBuildKeyComponentCriticality(t *testing.T) {
	ctx := Build(analysisWithOrders())

	tester.True(t, len(ctx.KeyComponents) > 0)
	tester.Eq(t, ctx.KeyComponents[0].Kind, "endpoint")
	tester.Eq(t, ctx.KeyComponents[0].Criticality, schema.CriticalityHigh, "POST is state-mutating")
	tester.Eq(t, ctx.KeyComponents[1].Criticality, schema.CriticalityMedium, "GET is read-only")
}

func TestBuildCoverageTargets(t *testing.T) {
	ctx := Build(analysisWithOrders())

	tester.Eq(t, ctx.Testing.CoverageTargets.Unit, 50.0)
	tester.Eq(t, ctx.Testing.CoverageTargets.Integration, 45.0)
	tester.Eq(t, ctx.Testing.CoverageTargets.API, 55.0)
}

func TestBuildCoverageTargetsCapped(t *testing.T) {
	a := analysisWithOrders()
	a.CoverageEstimate = 90
	ctx := Build(a)

	tester.Eq(t, ctx.Testing.CoverageTargets.Unit, 80.0)
	tester.Eq(t, ctx.Testing.CoverageTargets.Integration, 70.0)
	tester.Eq(t, ctx.Testing.CoverageTargets.API, 90.0)
}

func TestBuildBusinessDomains(t *testing.T) {
	ctx := Build(analysisWithOrders())
	tester.Eq(t, ctx.BusinessDomains, []string{"order processing"})
}

func TestBuildDomainsDefault(t *testing.T) {
	a := schema.NewRepositoryAnalysis()
	a.FileStructure["lib/util.py"] = &schema.FileRecord{Path: "lib/util.py", Technology: "python"}
	ctx := Build(a)
	tester.Eq(t, ctx.BusinessDomains, []string{"general application logic"})
}

func TestBuildRecommendations(t *testing.T) {
	ctx := Build(analysisWithOrders())
	tester.True(t, ctx.Testing.Unit, "unit tests always recommended")
	tester.True(t, ctx.Testing.Integration)
	tester.True(t, ctx.Testing.API)
	tester.False(t, ctx.Testing.E2E, "no frontend framework present")
	tester.False(t, ctx.Testing.Performance, "few endpoints")
}

func TestBuildRiskDefault(t *testing.T) {
	a := schema.NewRepositoryAnalysis()
	ctx := Build(a)
	tester.Eq(t, ctx.RiskAreas, []string{"General regression risk in untested code paths"})
}

func TestBuildNilInput(t *testing.T) {
	ctx := Build(nil)
	tester.True(t, ctx != nil)
	tester.Eq(t, ctx.PrimaryLanguage, "unknown")
}

func TestBuildDataEntities(t *testing.T) {
	ctx := Build(analysisWithOrders())
	tester.Eq(t, ctx.DataEntities, []string{"app/models/order.py"})
}

func TestBuildProjectTypeAPIService(t *testing.T) {
	ctx := Build(analysisWithOrders())
	tester.Eq(t, ctx.ProjectType, "api_service")
}
