package safeio

import (
	"os"
	"path/filepath"
	"testing"

	"qaforge/internal/tester"
)

func TestSafeFSAllowsAbsoluteUnderRoot(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "a.txt")
	tester.NoErr(t, os.WriteFile(p, []byte("hello"), 0o644))

	fs, err := NewSafeFS(dir)
	tester.NoErr(t, err)

	data, err := fs.SafeReadFile(p)
	tester.NoErr(t, err)
	tester.Eq(t, string(data), "hello")
}

func TestSafeFSRejectsTraversal(t *testing.T) {
	fs, err := NewSafeFS(t.TempDir())
	tester.NoErr(t, err)

	_, err = fs.SafeReadFile("../outside.txt")
	tester.Err(t, err)
}

func TestSafeJoinRejectsEscape(t *testing.T) {
	fs, err := NewSafeFS(t.TempDir())
	tester.NoErr(t, err)

	_, err = fs.SafeJoin("../evil.py")
	tester.Err(t, err)
	_, err = fs.SafeJoin("/abs/evil.py")
	tester.Err(t, err)

	p, err := fs.SafeJoin("app/main.py")
	tester.NoErr(t, err)
	tester.True(t, filepath.IsAbs(p))
}

func TestSafeFSRelativeRead(t *testing.T) {
	dir := t.TempDir()
	tester.NoErr(t, os.MkdirAll(filepath.Join(dir, "src"), 0o755))
	tester.NoErr(t, os.WriteFile(filepath.Join(dir, "src", "x.py"), []byte("pass"), 0o644))

	fs, err := NewSafeFS(dir)
	tester.NoErr(t, err)

	data, err := fs.SafeReadFile(filepath.Join("src", "x.py"))
	tester.NoErr(t, err)
	tester.Eq(t, string(data), "pass")
}
