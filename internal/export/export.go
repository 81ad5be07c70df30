// Package export writes generation results to disk and renders
// human-readable summaries for the CLI.
package export

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/olekukonko/tablewriter"

	"qaforge/internal/schema"
)

// WriteFiles writes every generated test under dir, creating it if
// needed. Returns the number of files written.
func WriteFiles(dir string, result *schema.GenerationResult) (int, error) {
	if result == nil {
		return 0, fmt.Errorf("export: result is nil")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return 0, fmt.Errorf("export: create %s: %w", dir, err)
	}
	written := 0
	for _, name := range sortedNames(result) {
		file := result.Files[name]
		path := filepath.Join(dir, filepath.Base(name))
		if err := os.WriteFile(path, []byte(file.Content), 0o644); err != nil {
			return written, fmt.Errorf("export: write %s: %w", name, err)
		}
		written++
	}
	return written, nil
}

// Summary renders the run summary table.
func Summary(w io.Writer, result *schema.GenerationResult) error {
	if result == nil {
		return fmt.Errorf("export: result is nil")
	}
	fmt.Fprintf(w, "Run %s (%s): %d tests, coverage estimate %.1f%%, provider %s\n\n",
		result.RunID, result.Status, result.GeneratedTests, result.CoverageEstimate, result.ProviderUsed)

	table := tablewriter.NewWriter(w)
	table.Header([]string{"Name", "Type", "Framework", "Provider", "Size"})

	var rows [][]string
	for _, name := range sortedNames(result) {
		file := result.Files[name]
		rows = append(rows, []string{
			name,
			file.Type,
			file.Framework,
			file.Provider,
			strconv.Itoa(len(file.Content)),
		})
	}
	if err := table.Bulk(rows); err != nil {
		return err
	}
	if err := table.Render(); err != nil {
		return err
	}

	for _, warning := range result.Warnings {
		fmt.Fprintf(w, "warning: %s\n", warning)
	}
	return nil
}

// Bundle writes all generated tests as one plain-text document with
// per-file separators, for chat-based or email delivery.
func Bundle(w io.Writer, result *schema.GenerationResult) error {
	if result == nil {
		return fmt.Errorf("export: result is nil")
	}
	fmt.Fprintf(w, "# Generated tests for %s (run %s)\n", result.ProjectName, result.RunID)
	for _, name := range sortedNames(result) {
		file := result.Files[name]
		fmt.Fprintf(w, "\n%s\n## %s [%s/%s]\n%s\n", strings.Repeat("=", 60), name, file.Type, file.Framework, strings.Repeat("=", 60))
		fmt.Fprintln(w, file.Content)
	}
	return nil
}

func sortedNames(result *schema.GenerationResult) []string {
	names := make([]string, 0, len(result.Files))
	for name := range result.Files {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
