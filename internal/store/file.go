package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"qaforge/internal/schema"
)

// FileStore keeps payloads as JSON files under a base directory,
// split by payload kind. Suitable for local single-process runs.
type FileStore struct {
	baseDir string
}

func NewFileStore(baseDir string) (*FileStore, error) {
	for _, sub := range []string{"analyses", "results"} {
		if err := os.MkdirAll(filepath.Join(baseDir, sub), 0o755); err != nil {
			return nil, fmt.Errorf("store: create %s dir: %w", sub, err)
		}
	}
	return &FileStore{baseDir: baseDir}, nil
}

func (s *FileStore) SaveAnalysis(ctx context.Context, id string, a *schema.RepositoryAnalysis) error {
	return s.write("analyses", id, a)
}

func (s *FileStore) LoadAnalysis(ctx context.Context, id string) (*schema.RepositoryAnalysis, error) {
	var a schema.RepositoryAnalysis
	if err := s.read("analyses", id, &a); err != nil {
		return nil, err
	}
	a.Normalize()
	return &a, nil
}

func (s *FileStore) SaveResult(ctx context.Context, id string, r *schema.GenerationResult) error {
	return s.write("results", id, r)
}

func (s *FileStore) LoadResult(ctx context.Context, id string) (*schema.GenerationResult, error) {
	var r schema.GenerationResult
	if err := s.read("results", id, &r); err != nil {
		return nil, err
	}
	if r.Files == nil {
		r.Files = map[string]schema.GeneratedTestFile{}
	}
	if r.CategoryCounts == nil {
		r.CategoryCounts = map[string]int{}
	}
	return &r, nil
}

func (s *FileStore) Close() error { return nil }

func (s *FileStore) write(kind, id string, payload any) error {
	path, err := s.payloadPath(kind, id)
	if err != nil {
		return err
	}
	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return fmt.Errorf("store: encode %s/%s: %w", kind, id, err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

func (s *FileStore) read(kind, id string, out any) error {
	path, err := s.payloadPath(kind, id)
	if err != nil {
		return err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return ErrNotFound
		}
		return err
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("store: decode %s/%s: %w", kind, id, err)
	}
	return nil
}

// payloadPath rejects ids that would escape the base directory.
func (s *FileStore) payloadPath(kind, id string) (string, error) {
	id = strings.TrimSpace(id)
	if id == "" || strings.ContainsAny(id, "/\\") || strings.Contains(id, "..") {
		return "", fmt.Errorf("store: invalid id %q", id)
	}
	return filepath.Join(s.baseDir, kind, id+".json"), nil
}
