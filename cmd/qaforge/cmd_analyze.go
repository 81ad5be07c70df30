package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"qaforge/internal/config"
	"qaforge/internal/fetch"
	"qaforge/internal/scan"
)

var analyzeFlags struct {
	source string
	ref    string
	out    string
	save   string
}

var analyzeCmd = &cobra.Command{
	Use:   "analyze [path]",
	Short: "Scan a repository and print its analysis as JSON",
	Long: `Walks the repository tree, classifies files by technology, detects
test files, frameworks, dependencies and HTTP endpoints, and emits the
full analysis document. Pass a local path, or --source to clone a
remote first.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runAnalyze,
}

func init() {
	analyzeCmd.Flags().StringVar(&analyzeFlags.source, "source", "", "git remote to clone instead of a local path")
	analyzeCmd.Flags().StringVar(&analyzeFlags.ref, "ref", "", "branch or tag to clone")
	analyzeCmd.Flags().StringVarP(&analyzeFlags.out, "out", "o", "", "write JSON to this file instead of stdout")
	analyzeCmd.Flags().StringVar(&analyzeFlags.save, "save", "", "persist the analysis in the store under this id")
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	root, cleanup, err := resolveRepo(cmd, args, analyzeFlags.source, analyzeFlags.ref)
	if err != nil {
		return err
	}
	defer cleanup()

	var scanner scan.Scanner
	analysis, err := scanner.Scan(root)
	if err != nil {
		return fmt.Errorf("analyze: %w", err)
	}
	scan.FilterVendored(analysis)

	if analyzeFlags.save != "" {
		st, err := buildStore(cfg)
		if err != nil {
			return err
		}
		defer st.Close()
		if err := st.SaveAnalysis(cmd.Context(), analyzeFlags.save, analysis); err != nil {
			return err
		}
		okColor.Printf("analysis saved as %s\n", analyzeFlags.save)
	}

	return printJSON(analyzeFlags.out, analysis)
}

// resolveRepo returns the repository root for a command: a cloned
// workspace when --source is set, the positional path otherwise.
func resolveRepo(cmd *cobra.Command, args []string, source, ref string) (string, func(), error) {
	if source != "" {
		var fetcher fetch.Fetcher
		dir, err := fetcher.Fetch(cmd.Context(), source, ref)
		if err != nil {
			return "", nil, err
		}
		return dir, func() { fetch.Release(dir) }, nil
	}
	if len(args) == 0 {
		return "", nil, fmt.Errorf("a repository path or --source is required")
	}
	return args[0], func() {}, nil
}
