package llm

import (
	"context"
	"errors"
	"testing"
	"time"

	"qaforge/internal/tester"
)

// scripted fails a fixed number of times before succeeding.
type scripted struct {
	failures int
	calls    int
}

func (s *scripted) Name() string                       { return "scripted" }
func (s *scripted) Available(ctx context.Context) bool { return true }
func (s *scripted) Close() error                       { return nil }

func (s *scripted) Generate(ctx context.Context, instruction, data string) (string, error) {
	s.calls++
	if s.calls <= s.failures {
		return "", errors.New("transient")
	}
	return "ok response body", nil
}

func TestRetryEventuallySucceeds(t *testing.T) {
	inner := &scripted{failures: 2}
	p := Wrap(inner, Retry(3, time.Millisecond))

	resp, err := p.Generate(context.Background(), "i", "d")
	tester.NoErr(t, err)
	tester.Eq(t, resp, "ok response body")
	tester.Eq(t, inner.calls, 3)
}

func TestRetryExhausted(t *testing.T) {
	inner := &scripted{failures: 10}
	p := Wrap(inner, Retry(2, time.Millisecond))

	_, err := p.Generate(context.Background(), "i", "d")
	tester.Err(t, err)
	tester.Eq(t, inner.calls, 2)
}

func TestRetryStopsOnCanceledContext(t *testing.T) {
	inner := &scripted{failures: 10}
	p := Wrap(inner, Retry(5, time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := p.Generate(ctx, "i", "d")
	tester.True(t, errors.Is(err, context.Canceled))
	tester.Eq(t, inner.calls, 1)
}

func TestWrapAppliesLeftToRight(t *testing.T) {
	var order []string
	tag := func(name string) Middleware {
		return func(next Provider) Provider {
			return &tagged{next: next, name: name, order: &order}
		}
	}
	inner := &scripted{}
	p := Wrap(inner, tag("outer"), tag("inner"))

	_, err := p.Generate(context.Background(), "i", "d")
	tester.NoErr(t, err)
	tester.Eq(t, order, []string{"outer", "inner"})
}

type tagged struct {
	next  Provider
	name  string
	order *[]string
}

func (tg *tagged) Name() string                       { return tg.next.Name() }
func (tg *tagged) Available(ctx context.Context) bool { return tg.next.Available(ctx) }
func (tg *tagged) Close() error                       { return tg.next.Close() }

func (tg *tagged) Generate(ctx context.Context, instruction, data string) (string, error) {
	*tg.order = append(*tg.order, tg.name)
	return tg.next.Generate(ctx, instruction, data)
}

func TestRateLimitDisabledPassesThrough(t *testing.T) {
	inner := &scripted{}
	p := Wrap(inner, RateLimit(0, 0))

	resp, err := p.Generate(context.Background(), "i", "d")
	tester.NoErr(t, err)
	tester.Eq(t, resp, "ok response body")
}

func TestRateLimitHonorsContext(t *testing.T) {
	inner := &scripted{}
	// 0.001 rps with burst 1: the second call would wait ~1000s.
	p := Wrap(inner, RateLimit(0.001, 1))
	defer p.Close()

	_, err := p.Generate(context.Background(), "i", "d")
	tester.NoErr(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = p.Generate(ctx, "i", "d")
	tester.True(t, errors.Is(err, context.DeadlineExceeded))
}
