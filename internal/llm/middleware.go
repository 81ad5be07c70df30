package llm

import (
	"context"
	"log"
	"time"
)

// Middleware decorates a Provider to inject cross-cutting concerns
// (rate limiting, retries, logging).
type Middleware func(Provider) Provider

// Wrap applies middlewares in left-to-right order.
// Example: Wrap(inner, A, B) => A(B(inner))
func Wrap(inner Provider, mws ...Middleware) Provider {
	out := inner
	for i := len(mws) - 1; i >= 0; i-- {
		out = mws[i](out)
	}
	return out
}

// RateLimit limits request rate using the token-bucket rpsLimiter.
// If rps <= 0, the limiter is effectively disabled.
func RateLimit(rps float64, burst int) Middleware {
	return func(next Provider) Provider {
		return &rateLimited{next: next, rl: newRPSLimiter(rps, burst)}
	}
}

type rateLimited struct {
	next Provider
	rl   *rpsLimiter
}

func (c *rateLimited) Name() string { return c.next.Name() }

func (c *rateLimited) Available(ctx context.Context) bool { return c.next.Available(ctx) }

func (c *rateLimited) Close() error {
	c.rl.Stop()
	return c.next.Close()
}
func (c *rateLimited) Generate(ctx context.Context, instruction, data string) (string, error) {
	if err := c.rl.Acquire(ctx); err != nil {
		return "", err
	}
	return c.next.Generate(ctx, instruction, data)
}

// Retry retries Generate up to maxAttempts with exponential backoff
// starting at baseDelay. If the context is canceled, it stops
// immediately.
func Retry(maxAttempts int, baseDelay time.Duration) Middleware {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	if baseDelay <= 0 {
		baseDelay = 300 * time.Millisecond
	}
	return func(next Provider) Provider {
		return &retrying{next: next, max: maxAttempts, base: baseDelay}
	}
}

type retrying struct {
	next Provider
	max  int
	base time.Duration
}

func (r *retrying) Name() string { return r.next.Name() }

func (r *retrying) Available(ctx context.Context) bool { return r.next.Available(ctx) }

func (r *retrying) Close() error { return r.next.Close() }

func (r *retrying) Generate(ctx context.Context, instruction, data string) (string, error) {
	var last error
	for i := 0; i < r.max; i++ {
		resp, err := r.next.Generate(ctx, instruction, data)
		if err == nil {
			return resp, nil
		}
		last = err
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		default:
		}
		time.Sleep(r.base * time.Duration(1<<i))
	}
	return "", last
}

// WithLogging logs request size and errors. Provide a custom logger or
// nil to use log.Default().
func WithLogging(logger *log.Logger) Middleware {
	if logger == nil {
		logger = log.Default()
	}
	return func(next Provider) Provider {
		return &logging{next: next, log: logger}
	}
}

type logging struct {
	next Provider
	log  *log.Logger
}

func (l *logging) Name() string { return l.next.Name() }

func (l *logging) Available(ctx context.Context) bool { return l.next.Available(ctx) }

func (l *logging) Close() error { return l.next.Close() }

func (l *logging) Generate(ctx context.Context, instruction, data string) (string, error) {
	l.log.Printf("llm: request via %s: %d bytes", l.next.Name(), len(instruction)+len(data))
	resp, err := l.next.Generate(ctx, instruction, data)
	if err != nil {
		l.log.Printf("llm: error via %s: %v", l.next.Name(), err)
	}
	return resp, err
}
