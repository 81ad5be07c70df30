// Package fetch acquires repository working copies: shallow git clones
// for remotes and zip extraction for uploaded archives. Workspaces are
// temporary directories handed back to the caller, who releases them
// when the run completes.
package fetch

import (
	"archive/zip"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"qaforge/internal/safeio"
)

// ErrEmptyRemote reports a fetch request without a source.
var ErrEmptyRemote = errors.New("fetch: remote is required")

// maxArchiveFileSize bounds a single extracted file, guarding against
// zip bombs.
const maxArchiveFileSize = 100 << 20

// Fetcher acquires repository workspaces. The zero value is usable.
type Fetcher struct {
	// BaseDir overrides the parent directory for workspaces. Empty
	// means the system temp dir.
	BaseDir string
}

// Fetch clones the remote at the given ref into a fresh workspace and
// returns its path. An empty ref clones the remote's default branch.
func (f *Fetcher) Fetch(ctx context.Context, remote, ref string) (string, error) {
	remote = strings.TrimSpace(remote)
	if remote == "" {
		return "", ErrEmptyRemote
	}
	dir, err := os.MkdirTemp(f.BaseDir, "qaforge-repo-*")
	if err != nil {
		return "", fmt.Errorf("fetch: workspace: %w", err)
	}

	args := []string{"clone", "--depth", "1", "--single-branch"}
	if ref != "" {
		args = append(args, "--branch", ref)
	}
	args = append(args, remote, dir)

	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Env = append(os.Environ(), "GIT_TERMINAL_PROMPT=0")
	out, err := cmd.CombinedOutput()
	if err != nil {
		Release(dir)
		return "", fmt.Errorf("fetch: git clone %s: %w: %s", remote, err, strings.TrimSpace(string(out)))
	}
	log.Printf("fetch: cloned %s (ref %q) into %s", remote, ref, dir)
	return dir, nil
}

// Extract unpacks an uploaded zip archive into a fresh workspace and
// returns its path. Entries that would escape the workspace are
// rejected.
func (f *Fetcher) Extract(archivePath string) (string, error) {
	reader, err := zip.OpenReader(archivePath)
	if err != nil {
		return "", fmt.Errorf("fetch: open archive: %w", err)
	}
	defer reader.Close()

	dir, err := os.MkdirTemp(f.BaseDir, "qaforge-archive-*")
	if err != nil {
		return "", fmt.Errorf("fetch: workspace: %w", err)
	}
	fsys, err := safeio.NewSafeFS(dir)
	if err != nil {
		Release(dir)
		return "", err
	}

	for _, entry := range reader.File {
		if err := extractEntry(fsys, entry); err != nil {
			Release(dir)
			return "", fmt.Errorf("fetch: extract %s: %w", entry.Name, err)
		}
	}
	log.Printf("fetch: extracted %s (%d entries) into %s", archivePath, len(reader.File), dir)
	return dir, nil
}

func extractEntry(fsys *safeio.SafeFS, entry *zip.File) error {
	target, err := fsys.SafeJoin(entry.Name)
	if err != nil {
		return err
	}
	if entry.FileInfo().IsDir() {
		return os.MkdirAll(target, 0o755)
	}
	if entry.UncompressedSize64 > maxArchiveFileSize {
		return fmt.Errorf("entry exceeds size limit (%d bytes)", entry.UncompressedSize64)
	}
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return err
	}
	src, err := entry.Open()
	if err != nil {
		return err
	}
	defer src.Close()

	dst, err := os.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	defer dst.Close()

	_, err = io.Copy(dst, io.LimitReader(src, maxArchiveFileSize))
	return err
}

// Release removes a workspace directory. Removal failures are retried
// with backoff after loosening permissions; persistent failures are
// logged and swallowed, never surfaced to the caller.
func Release(dir string) {
	dir = strings.TrimSpace(dir)
	if dir == "" {
		return
	}
	var lastErr error
	for attempt := 0; attempt < 3; attempt++ {
		lastErr = os.RemoveAll(dir)
		if lastErr == nil || errors.Is(lastErr, os.ErrNotExist) {
			return
		}
		// Read-only checkouts block removal; loosen and retry.
		_ = filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
			if err != nil {
				return nil
			}
			_ = os.Chmod(path, 0o755)
			return nil
		})
		time.Sleep(time.Duration(50*(1<<attempt)) * time.Millisecond)
	}
	log.Printf("fetch: release %s failed: %v", dir, lastErr)
}
