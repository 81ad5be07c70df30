package llm

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"qaforge/internal/tester"
)

const validPytest = "import pytest\n\n\ndef test_create_order():\n    assert create_order({}) is not None\n"

func TestGenerateTestFirstProviderWins(t *testing.T) {
	first := &FakeProvider{ProviderName: "first", Response: validPytest}
	second := &FakeProvider{ProviderName: "second", Response: validPytest}
	o := NewOrchestrator(time.Second, first, second)

	content, provider, err := o.GenerateTest(context.Background(), "inst", "data", "python", "unit", "pytest", "orders")
	tester.NoErr(t, err)
	tester.Eq(t, provider, "first")
	tester.Contains(t, content, "def test_create_order")
	tester.Eq(t, second.Calls(), 0)
}

func TestGenerateTestAdvancesPastFailure(t *testing.T) {
	first := &FakeProvider{ProviderName: "first", Err: errors.New("boom")}
	second := &FakeProvider{ProviderName: "second", Response: validPytest}
	o := NewOrchestrator(time.Second, first, second)

	content, provider, err := o.GenerateTest(context.Background(), "inst", "data", "python", "unit", "pytest", "orders")
	tester.NoErr(t, err)
	tester.Eq(t, provider, "second")
	tester.Contains(t, content, "assert")
}

func TestGenerateTestInvalidResponseAdvances(t *testing.T) {
	refusing := &FakeProvider{ProviderName: "refusing", Response: "I'm sorry, I cannot generate tests for this repository."}
	second := &FakeProvider{ProviderName: "second", Response: validPytest}
	o := NewOrchestrator(time.Second, refusing, second)

	_, provider, err := o.GenerateTest(context.Background(), "inst", "data", "python", "unit", "pytest", "orders")
	tester.NoErr(t, err)
	tester.Eq(t, provider, "second")
}

func TestGenerateTestExhaustionFallsBack(t *testing.T) {
	first := &FakeProvider{ProviderName: "first", Err: errors.New("down")}
	second := &FakeProvider{ProviderName: "second", Err: errors.New("down too")}
	o := NewOrchestrator(time.Second, first, second)

	content, provider, err := o.GenerateTest(context.Background(), "inst", "data", "python", "unit", "pytest", "orders")
	tester.True(t, errors.Is(err, ErrAllProvidersFailed))
	tester.Eq(t, provider, FallbackProviderName)
	tester.True(t, strings.TrimSpace(content) != "", "fallback content must never be empty")
	tester.Contains(t, content, "def test_")
	tester.Contains(t, content, "assert")
}

func TestGenerateTestSkipsUnavailableProvider(t *testing.T) {
	down := &FakeProvider{ProviderName: "down", Down: true, Response: validPytest}
	up := &FakeProvider{ProviderName: "up", Response: validPytest}
	o := NewOrchestrator(time.Second, down, up)

	_, provider, err := o.GenerateTest(context.Background(), "inst", "data", "python", "unit", "pytest", "orders")
	tester.NoErr(t, err)
	tester.Eq(t, provider, "up")
	tester.Eq(t, down.Calls(), 0)
}

func TestAvailabilitySnapshotIsStableUntilRefreshed(t *testing.T) {
	p := &FakeProvider{ProviderName: "flappy", Response: validPytest}
	o := NewOrchestrator(time.Second, p)

	_, provider, err := o.GenerateTest(context.Background(), "inst", "data", "python", "unit", "pytest", "orders")
	tester.NoErr(t, err)
	tester.Eq(t, provider, "flappy")

	// The provider goes down, but the snapshot still says available.
	p.Down = true
	_, provider, err = o.GenerateTest(context.Background(), "inst", "data", "python", "unit", "pytest", "orders")
	tester.NoErr(t, err)
	tester.Eq(t, provider, "flappy")

	o.RefreshAvailability(context.Background())
	_, provider, _ = o.GenerateTest(context.Background(), "inst", "data", "python", "unit", "pytest", "orders")
	tester.Eq(t, provider, FallbackProviderName)
}

func TestOrchestratorProviders(t *testing.T) {
	o := NewOrchestrator(0, &FakeProvider{ProviderName: "a"}, &FakeProvider{ProviderName: "b"})
	tester.Eq(t, o.Providers(), []string{"a", "b"})
}

func TestGenerateTestCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	slow := &FakeProvider{ProviderName: "slow", Err: context.Canceled}
	o := NewOrchestrator(time.Second, slow)

	content, provider, err := o.GenerateTest(ctx, "inst", "data", "python", "unit", "pytest", "orders")
	tester.True(t, errors.Is(err, ErrAllProvidersFailed))
	tester.Eq(t, provider, FallbackProviderName)
	tester.True(t, content != "")
}
