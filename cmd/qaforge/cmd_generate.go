package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"qaforge/internal/config"
	"qaforge/internal/export"
	"qaforge/internal/fetch"
	"qaforge/internal/pipeline"
	"qaforge/internal/schema"
	"qaforge/internal/store"
)

var generateFlags struct {
	source    string
	ref       string
	archive   string
	project   string
	framework string

	unit        bool
	integration bool
	api         bool
	e2e         bool

	maxUnit        int
	maxIntegration int
	maxAPI         int
	maxE2E         int
	coverage       float64

	out    string
	bundle string
	save   string
	upload bool
	asJSON string
}

var generateCmd = &cobra.Command{
	Use:   "generate [path]",
	Short: "Generate a test suite for a repository",
	Long: `Scans the repository, builds project context, and drives the
provider chain to generate tests per enabled category. Results are
summarized on stdout; use --out to write the test files to a
directory, --bundle for a single plain-text document, or --save to
persist the full result in the store.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runGenerate,
}

func init() {
	f := generateCmd.Flags()
	f.StringVar(&generateFlags.source, "source", "", "git remote to clone instead of a local path")
	f.StringVar(&generateFlags.ref, "ref", "", "branch or tag to clone")
	f.StringVar(&generateFlags.archive, "archive", "", "zip archive to extract instead of a local path")
	f.StringVar(&generateFlags.project, "project", "", "project name for the report (default: repository directory)")
	f.StringVar(&generateFlags.framework, "framework", "auto", "test framework tag, or auto to detect")

	f.BoolVar(&generateFlags.unit, "unit", true, "generate unit tests")
	f.BoolVar(&generateFlags.integration, "integration", false, "generate integration tests")
	f.BoolVar(&generateFlags.api, "api", false, "generate API tests")
	f.BoolVar(&generateFlags.e2e, "e2e", false, "generate end-to-end tests")

	f.IntVar(&generateFlags.maxUnit, "max-unit", 0, "cap on unit tests (0 = default)")
	f.IntVar(&generateFlags.maxIntegration, "max-integration", 0, "cap on integration tests (0 = default)")
	f.IntVar(&generateFlags.maxAPI, "max-api", 0, "cap on API tests (0 = default)")
	f.IntVar(&generateFlags.maxE2E, "max-e2e", 0, "cap on E2E tests (0 = default)")
	f.Float64Var(&generateFlags.coverage, "coverage-target", 0, "coverage target percentage passed to the prompts")

	f.StringVarP(&generateFlags.out, "out", "o", "", "write generated test files into this directory")
	f.StringVar(&generateFlags.bundle, "bundle", "", "write all tests as one plain-text document to this file")
	f.StringVar(&generateFlags.save, "save", "", "persist the result in the store under this id")
	f.BoolVar(&generateFlags.upload, "upload", false, "upload generated files to the artifact bucket")
	f.StringVar(&generateFlags.asJSON, "json", "", "write the full result JSON to this file (- for stdout)")
}

func runGenerate(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	root, cleanup, err := resolveGenerateRepo(cmd, args)
	if err != nil {
		return err
	}
	defer cleanup()

	orch, err := buildOrchestrator(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer orch.Close()

	req := &schema.GenerationRequest{
		ProjectInfo: &schema.ProjectInfo{
			Name:   projectName(root),
			Source: generateFlags.source,
			Branch: generateFlags.ref,
		},
		AnalysisData: schema.NewRepositoryAnalysis(),
		TestConfig: &schema.TestConfig{
			GenerateUnitTests:        generateFlags.unit,
			GenerateIntegrationTests: generateFlags.integration,
			GenerateAPITests:         generateFlags.api,
			GenerateE2ETests:         generateFlags.e2e,
			MaxUnitTests:             generateFlags.maxUnit,
			MaxIntegrationTests:      generateFlags.maxIntegration,
			MaxAPITests:              generateFlags.maxAPI,
			MaxE2ETests:              generateFlags.maxE2E,
			Framework:                generateFlags.framework,
			CoverageTarget:           generateFlags.coverage,
		},
		RepoPath: root,
	}

	p := &pipeline.Pipeline{Orchestrator: orch}
	result := p.Run(cmd.Context(), req)

	if err := export.Summary(os.Stdout, result); err != nil {
		return err
	}
	if result.Status != "success" {
		return fmt.Errorf("generation failed: %s", result.Message)
	}

	if generateFlags.out != "" {
		n, err := export.WriteFiles(generateFlags.out, result)
		if err != nil {
			return err
		}
		okColor.Printf("wrote %d test files to %s\n", n, generateFlags.out)
	}
	if generateFlags.bundle != "" {
		if err := writeBundle(generateFlags.bundle, result); err != nil {
			return err
		}
		okColor.Printf("wrote bundle to %s\n", generateFlags.bundle)
	}
	if generateFlags.save != "" {
		st, err := buildStore(cfg)
		if err != nil {
			return err
		}
		defer st.Close()
		if err := st.SaveResult(cmd.Context(), generateFlags.save, result); err != nil {
			return err
		}
		okColor.Printf("result saved as %s\n", generateFlags.save)
	}
	if generateFlags.upload {
		if err := uploadRun(cmd, cfg, result); err != nil {
			return err
		}
	}
	if generateFlags.asJSON != "" {
		return printJSON(generateFlags.asJSON, result)
	}
	return nil
}

// resolveGenerateRepo extends resolveRepo with archive extraction.
func resolveGenerateRepo(cmd *cobra.Command, args []string) (string, func(), error) {
	if generateFlags.archive != "" {
		if generateFlags.source != "" {
			return "", nil, fmt.Errorf("--archive and --source are mutually exclusive")
		}
		var fetcher fetch.Fetcher
		dir, err := fetcher.Extract(generateFlags.archive)
		if err != nil {
			return "", nil, err
		}
		return dir, func() { fetch.Release(dir) }, nil
	}
	return resolveRepo(cmd, args, generateFlags.source, generateFlags.ref)
}

func projectName(root string) string {
	if generateFlags.project != "" {
		return generateFlags.project
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return filepath.Base(root)
	}
	return filepath.Base(abs)
}

func uploadRun(cmd *cobra.Command, cfg *config.Config, result *schema.GenerationResult) error {
	if !cfg.Artifact.Enabled {
		warnColor.Fprintln(os.Stderr, "artifact store is not configured, skipping upload")
		return nil
	}
	s3, err := store.NewS3Store(store.S3Config{
		Endpoint:  cfg.Artifact.Endpoint,
		Region:    cfg.Artifact.Region,
		AccessKey: cfg.Artifact.AccessKey,
		SecretKey: cfg.Artifact.SecretKey,
		Bucket:    cfg.Artifact.Bucket,
		UseSSL:    cfg.Artifact.UseSSL,
	})
	if err != nil {
		return err
	}
	if err := s3.PutRun(cmd.Context(), result); err != nil {
		return err
	}
	okColor.Printf("uploaded %d files to bucket %s under run %s\n", len(result.Files), cfg.Artifact.Bucket, result.RunID)
	return nil
}

func writeBundle(path string, result *schema.GenerationResult) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return export.Bundle(f, result)
}
