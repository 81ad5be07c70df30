package llm

import (
	"context"
	"testing"
	"time"

	"qaforge/internal/tester"
)

func TestEstimateCoverageParsesProviderJSON(t *testing.T) {
	p := &FakeProvider{ProviderName: "judge", Response: `{"overall": 72, "unit": 80, "integration": 60, "api": 65}`}
	o := NewOrchestrator(time.Second, p)

	report := o.EstimateCoverage(context.Background(), "summary", 4)
	tester.Eq(t, report.Source, "ai")
	tester.Eq(t, report.Overall, 72.0)
	tester.Eq(t, report.Unit, 80.0)
}

func TestEstimateCoverageToleratesFencedJSON(t *testing.T) {
	p := &FakeProvider{ProviderName: "judge", Response: "```json\n{\"overall\": 50, \"unit\": 55, \"integration\": 40, \"api\": 45}\n```"}
	o := NewOrchestrator(time.Second, p)

	report := o.EstimateCoverage(context.Background(), "summary", 1)
	tester.Eq(t, report.Source, "ai")
	tester.Eq(t, report.Overall, 50.0)
}

func TestEstimateCoverageAdvancesOnGarbage(t *testing.T) {
	bad := &FakeProvider{ProviderName: "bad", Response: "roughly eighty percent"}
	good := &FakeProvider{ProviderName: "good", Response: `{"overall": 64, "unit": 70, "integration": 55, "api": 60}`}
	o := NewOrchestrator(time.Second, bad, good)

	report := o.EstimateCoverage(context.Background(), "summary", 2)
	tester.Eq(t, report.Source, "ai")
	tester.Eq(t, report.Overall, 64.0)
}

func TestEstimateCoverageRejectsOutOfRange(t *testing.T) {
	p := &FakeProvider{ProviderName: "judge", Response: `{"overall": 140, "unit": 80, "integration": 60, "api": 65}`}
	o := NewOrchestrator(time.Second, p)

	report := o.EstimateCoverage(context.Background(), "summary", 5)
	tester.Eq(t, report.Source, "heuristic")
}

func TestEstimateCoverageHeuristicFormula(t *testing.T) {
	o := NewOrchestrator(time.Second)

	report := o.EstimateCoverage(context.Background(), "summary", 5)
	tester.Eq(t, report.Source, "heuristic")
	tester.Eq(t, report.Overall, 85.0)
	tester.Eq(t, report.Unit, 90.0)
	tester.Eq(t, report.Integration, 75.0)
	tester.Eq(t, report.API, 80.0)
}

func TestEstimateCoverageHeuristicCeiling(t *testing.T) {
	o := NewOrchestrator(time.Second)

	report := o.EstimateCoverage(context.Background(), "summary", 50)
	tester.Eq(t, report.Overall, 95.0)
	tester.True(t, report.Unit <= 100)
}
