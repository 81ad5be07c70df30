package fetch

import (
	"archive/zip"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"qaforge/internal/tester"
)

func writeZip(t *testing.T, entries map[string]string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "upload.zip")
	f, err := os.Create(path)
	tester.NoErr(t, err)
	defer f.Close()

	w := zip.NewWriter(f)
	for name, content := range entries {
		entry, err := w.Create(name)
		tester.NoErr(t, err)
		_, err = entry.Write([]byte(content))
		tester.NoErr(t, err)
	}
	tester.NoErr(t, w.Close())
	return path
}

func TestExtractRoundTrip(t *testing.T) {
	archive := writeZip(t, map[string]string{
		"app/main.py":       "print('hi')\n",
		"tests/test_app.py": "def test_app():\n    assert True\n",
	})

	var f Fetcher
	dir, err := f.Extract(archive)
	tester.NoErr(t, err)
	defer Release(dir)

	data, err := os.ReadFile(filepath.Join(dir, "app", "main.py"))
	tester.NoErr(t, err)
	tester.Eq(t, string(data), "print('hi')\n")
}

func TestExtractRejectsTraversal(t *testing.T) {
	archive := writeZip(t, map[string]string{
		"../evil.py": "import os\n",
	})

	var f Fetcher
	_, err := f.Extract(archive)
	tester.Err(t, err, "zip entries must not escape the workspace")
}

func TestExtractMissingArchive(t *testing.T) {
	var f Fetcher
	_, err := f.Extract(filepath.Join(t.TempDir(), "absent.zip"))
	tester.Err(t, err)
}

func TestFetchEmptyRemote(t *testing.T) {
	var f Fetcher
	_, err := f.Fetch(context.Background(), "  ", "")
	tester.True(t, errors.Is(err, ErrEmptyRemote))
}

func TestReleaseToleratesMissingDir(t *testing.T) {
	Release(filepath.Join(t.TempDir(), "never-created"))
	Release("")
}

func TestReleaseRemovesTree(t *testing.T) {
	dir := t.TempDir()
	sub := filepath.Join(dir, "workspace")
	tester.NoErr(t, os.MkdirAll(filepath.Join(sub, "nested"), 0o755))
	tester.NoErr(t, os.WriteFile(filepath.Join(sub, "nested", "f.txt"), []byte("x"), 0o644))

	Release(sub)
	_, err := os.Stat(sub)
	tester.True(t, os.IsNotExist(err))
}
