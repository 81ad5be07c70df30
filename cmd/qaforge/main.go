// Command qaforge analyzes repositories and generates test suites for
// them through the configured AI providers.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"qaforge/internal/config"
	"qaforge/internal/llm"
	"qaforge/internal/store"
)

var (
	okColor   = color.New(color.FgGreen, color.Bold)
	warnColor = color.New(color.FgYellow)
	errColor  = color.New(color.FgRed, color.Bold)
)

var rootCmd = &cobra.Command{
	Use:   "qaforge",
	Short: "Repository analysis and AI test generation",
	Long: `qaforge scans a repository, classifies its stack, and drives a
multi-provider AI pipeline that generates unit, integration, API and
E2E tests with coverage estimates.`,
	SilenceUsage: true,
}

func main() {
	rootCmd.AddCommand(analyzeCmd, generateCmd)
	if err := rootCmd.Execute(); err != nil {
		errColor.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// buildOrchestrator assembles the provider chain in priority order:
// Gemini, Groq, OpenAI. Each client is wrapped with retry and logging;
// with no keys configured (or QAFORGE_FAKE_LLM set) the offline fake
// serves instead.
func buildOrchestrator(ctx context.Context, cfg *config.Config) (*llm.Orchestrator, error) {
	pc := cfg.Providers
	var providers []llm.Provider

	if !pc.UseFake {
		if pc.GeminiAPIKey != "" {
			gemini, err := llm.NewGeminiClient(ctx, pc.GeminiAPIKey, pc.GeminiModel, pc.RPS, pc.Burst)
			if err != nil {
				return nil, fmt.Errorf("gemini client: %w", err)
			}
			providers = append(providers, llm.Wrap(gemini, llm.Retry(3, 300*time.Millisecond), llm.WithLogging(nil)))
		}
		if pc.GroqAPIKey != "" {
			groq := llm.NewGroqClient(pc.GroqAPIKey, pc.GroqModel, pc.RPS, pc.Burst)
			providers = append(providers, llm.Wrap(groq, llm.Retry(3, 300*time.Millisecond), llm.WithLogging(nil)))
		}
		if pc.OpenAIAPIKey != "" {
			openai := llm.NewOpenAIClient(pc.OpenAIAPIKey, pc.OpenAIModel, pc.RPS, pc.Burst)
			providers = append(providers, llm.Wrap(openai, llm.Retry(3, 300*time.Millisecond), llm.WithLogging(nil)))
		}
	}
	if len(providers) == 0 {
		if !pc.UseFake {
			warnColor.Fprintln(os.Stderr, "no provider API keys configured, using the offline fake provider")
		}
		providers = append(providers, &llm.FakeProvider{})
	}
	return llm.NewOrchestrator(pc.Timeout, providers...), nil
}

// buildStore opens the configured analysis store behind an LRU cache.
func buildStore(cfg *config.Config) (store.AnalysisStore, error) {
	var backend store.AnalysisStore
	var err error
	switch cfg.Store.Backend {
	case "postgres":
		backend, err = store.NewPostgresStore(cfg.Store.PostgresDSN)
	default:
		backend, err = store.NewFileStore(cfg.Store.DataDir)
	}
	if err != nil {
		return nil, err
	}
	return store.NewCache(backend, cfg.Store.CacheSize)
}

func printJSON(path string, payload any) error {
	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	if path == "" || path == "-" {
		_, err = os.Stdout.Write(data)
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return err
	}
	log.Printf("cli: wrote %s", path)
	return nil
}
