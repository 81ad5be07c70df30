package llm

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"
)

// defaultProviderTimeout bounds each single provider call.
const defaultProviderTimeout = 120 * time.Second

// Orchestrator walks an ordered provider list, validating each
// response and advancing on failure. Availability is probed once into
// a snapshot; callers refresh it explicitly when the environment
// changes.
type Orchestrator struct {
	providers []Provider
	timeout   time.Duration

	mu        sync.RWMutex
	probeOnce sync.Once
	available map[string]bool
}

// NewOrchestrator builds an orchestrator over the given providers in
// priority order. timeout <= 0 selects the default per-provider
// timeout.
func NewOrchestrator(timeout time.Duration, providers ...Provider) *Orchestrator {
	if timeout <= 0 {
		timeout = defaultProviderTimeout
	}
	return &Orchestrator{providers: providers, timeout: timeout}
}

// RefreshAvailability re-probes every provider and replaces the
// snapshot.
func (o *Orchestrator) RefreshAvailability(ctx context.Context) {
	snapshot := make(map[string]bool, len(o.providers))
	for _, p := range o.providers {
		snapshot[p.Name()] = p.Available(ctx)
	}
	o.mu.Lock()
	o.available = snapshot
	o.mu.Unlock()
}

func (o *Orchestrator) availableSnapshot(ctx context.Context) map[string]bool {
	o.probeOnce.Do(func() { o.RefreshAvailability(ctx) })
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.available
}

// Providers reports the names of all configured providers in order.
func (o *Orchestrator) Providers() []string {
	names := make([]string, 0, len(o.providers))
	for _, p := range o.providers {
		names = append(names, p.Name())
	}
	return names
}

// Close shuts down every provider.
func (o *Orchestrator) Close() error {
	var errs []error
	for _, p := range o.providers {
		if err := p.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// GenerateTest asks providers in order for test code matching the
// composed documents. Invalid responses count as provider errors. When
// every provider is exhausted it returns a deterministic fallback
// skeleton tagged with the fallback provider name; the content result
// is never empty.
func (o *Orchestrator) GenerateTest(ctx context.Context, instruction, data, language, testType, framework, target string) (content, provider string, err error) {
	snapshot := o.availableSnapshot(ctx)

	var failures []error
	for _, p := range o.providers {
		if !snapshot[p.Name()] {
			continue
		}
		resp, genErr := o.callOne(ctx, p, instruction, data)
		if genErr != nil {
			log.Printf("llm: provider %s failed: %v", p.Name(), genErr)
			failures = append(failures, fmt.Errorf("%s: %w", p.Name(), genErr))
			if ctx.Err() != nil {
				break
			}
			continue
		}
		cleaned := Clean(resp)
		if valErr := Validate(cleaned, language); valErr != nil {
			log.Printf("llm: provider %s rejected: %v", p.Name(), valErr)
			failures = append(failures, fmt.Errorf("%s: %w", p.Name(), valErr))
			continue
		}
		return cleaned, p.Name(), nil
	}

	err = ErrAllProvidersFailed
	if len(failures) > 0 {
		err = fmt.Errorf("%w: %w", ErrAllProvidersFailed, errors.Join(failures...))
	}
	return Fallback(testType, framework, target), FallbackProviderName, err
}

// callOne runs a single provider call under its own timeout so a hung
// provider cannot starve the ones behind it.
func (o *Orchestrator) callOne(ctx context.Context, p Provider, instruction, data string) (string, error) {
	callCtx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()
	return p.Generate(callCtx, instruction, data)
}
