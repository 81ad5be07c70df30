package store

import (
	"context"
	"errors"

	lru "github.com/hashicorp/golang-lru/v2"

	"qaforge/internal/schema"
)

// Cache is a read-through LRU in front of any AnalysisStore. Saves
// write through and update the cache; loads hit the backing store only
// on a miss.
type Cache struct {
	next     AnalysisStore
	analyses *lru.Cache[string, *schema.RepositoryAnalysis]
	results  *lru.Cache[string, *schema.GenerationResult]
}

func NewCache(next AnalysisStore, size int) (*Cache, error) {
	if size <= 0 {
		size = 128
	}
	analyses, err := lru.New[string, *schema.RepositoryAnalysis](size)
	if err != nil {
		return nil, err
	}
	results, err := lru.New[string, *schema.GenerationResult](size)
	if err != nil {
		return nil, err
	}
	return &Cache{next: next, analyses: analyses, results: results}, nil
}

func (c *Cache) SaveAnalysis(ctx context.Context, id string, a *schema.RepositoryAnalysis) error {
	if err := c.next.SaveAnalysis(ctx, id, a); err != nil {
		return err
	}
	c.analyses.Add(id, a)
	return nil
}

func (c *Cache) LoadAnalysis(ctx context.Context, id string) (*schema.RepositoryAnalysis, error) {
	if a, ok := c.analyses.Get(id); ok {
		return a, nil
	}
	a, err := c.next.LoadAnalysis(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	c.analyses.Add(id, a)
	return a, nil
}

func (c *Cache) SaveResult(ctx context.Context, id string, r *schema.GenerationResult) error {
	if err := c.next.SaveResult(ctx, id, r); err != nil {
		return err
	}
	c.results.Add(id, r)
	return nil
}

func (c *Cache) LoadResult(ctx context.Context, id string) (*schema.GenerationResult, error) {
	if r, ok := c.results.Get(id); ok {
		return r, nil
	}
	r, err := c.next.LoadResult(ctx, id)
	if err != nil {
		return nil, err
	}
	c.results.Add(id, r)
	return r, nil
}

func (c *Cache) Close() error { return c.next.Close() }
