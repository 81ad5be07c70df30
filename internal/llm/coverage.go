package llm

import (
	"context"
	"encoding/json"
	"log"
	"strings"
)

// CoverageReport is the coverage judgment for a generation run.
// Percentages are clamped to [0,100]. Source is "ai" when a provider
// produced the numbers and "heuristic" when the formula did.
type CoverageReport struct {
	Overall     float64 `json:"overall"`
	Unit        float64 `json:"unit"`
	Integration float64 `json:"integration"`
	API         float64 `json:"api"`
	Source      string  `json:"source"`
}

// Heuristic sub-score offsets applied to the formula estimate.
const (
	coverageBase      = 70.0
	coveragePerTest   = 3.0
	coverageCeiling   = 95.0
	unitOffset        = 5.0
	integrationOffset = -10.0
	apiOffset         = -5.0
)

const coverageInstruction = `You are a test coverage analyst. Given the project summary below,
estimate the test coverage after the described generation run.
Respond with ONLY a strict JSON object, no prose, of the shape:
{"overall": <0-100>, "unit": <0-100>, "integration": <0-100>, "api": <0-100>}`

// EstimateCoverage asks providers in order for a strict-JSON coverage
// judgment. A response that does not parse into valid percentages
// advances to the next provider; exhaustion falls back to the formula
// estimate from the generated-test count.
func (o *Orchestrator) EstimateCoverage(ctx context.Context, summary string, generated int) CoverageReport {
	snapshot := o.availableSnapshot(ctx)

	for _, p := range o.providers {
		if !snapshot[p.Name()] {
			continue
		}
		resp, err := o.callOne(ctx, p, coverageInstruction, summary)
		if err != nil {
			log.Printf("llm: coverage via %s failed: %v", p.Name(), err)
			if ctx.Err() != nil {
				break
			}
			continue
		}
		report, ok := parseCoverage(resp)
		if !ok {
			log.Printf("llm: coverage via %s not parseable, advancing", p.Name())
			continue
		}
		report.Source = "ai"
		return report
	}

	return heuristicCoverage(generated)
}

// heuristicCoverage is the deterministic formula estimate.
func heuristicCoverage(generated int) CoverageReport {
	overall := coverageBase + coveragePerTest*float64(generated)
	if overall > coverageCeiling {
		overall = coverageCeiling
	}
	return CoverageReport{
		Overall:     overall,
		Unit:        clampPercent(overall + unitOffset),
		Integration: clampPercent(overall + integrationOffset),
		API:         clampPercent(overall + apiOffset),
		Source:      "heuristic",
	}
}

// parseCoverage extracts the first JSON object from the response and
// requires every percentage to be in range.
func parseCoverage(resp string) (CoverageReport, bool) {
	var report CoverageReport
	raw := extractJSONObject(resp)
	if raw == "" {
		return report, false
	}
	if err := json.Unmarshal([]byte(raw), &report); err != nil {
		return CoverageReport{}, false
	}
	for _, v := range []float64{report.Overall, report.Unit, report.Integration, report.API} {
		if v < 0 || v > 100 {
			return CoverageReport{}, false
		}
	}
	return report, true
}

// extractJSONObject tolerates prose or fences around the object.
func extractJSONObject(s string) string {
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start < 0 || end <= start {
		return ""
	}
	return s[start : end+1]
}

func clampPercent(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
