package llm

import (
	"context"
	"strings"
	"sync/atomic"
)

// FakeProvider returns deterministic payloads for offline runs and
// tests. The zero value is available and answers with a minimal pytest
// module; set Response or Err to steer behavior.
type FakeProvider struct {
	ProviderName string
	Response     string
	Err          error
	Down         bool
	calls        atomic.Int64
}

func (f *FakeProvider) Name() string {
	if f.ProviderName != "" {
		return f.ProviderName
	}
	return "fake"
}

func (f *FakeProvider) Available(ctx context.Context) bool { return !f.Down }

func (f *FakeProvider) Close() error { return nil }

// Calls reports how many Generate invocations the provider served.
func (f *FakeProvider) Calls() int { return int(f.calls.Load()) }

func (f *FakeProvider) Generate(ctx context.Context, instruction, data string) (string, error) {
	f.calls.Add(1)
	if f.Err != nil {
		return "", f.Err
	}
	if f.Response != "" {
		return f.Response, nil
	}
	if strings.Contains(instruction, "Language: javascript") {
		return "describe(\"generated\", () => {\n  it(\"works\", () => {\n    expect(true).toBe(true);\n  });\n});\n", nil
	}
	return "import pytest\n\n\ndef test_generated_case():\n    assert True\n", nil
}
