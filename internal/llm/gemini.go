package llm

import (
	"context"
	"log"
	"time"

	genai "google.golang.org/genai"
)

// GeminiClient is a thin wrapper around the official genai client.
type GeminiClient struct {
	cli    *genai.Client
	apiKey string
	model  string
	rl     *rpsLimiter
}

func NewGeminiClient(ctx context.Context, apiKey, model string, rps float64, burst int) (*GeminiClient, error) {
	cli, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: apiKey, Backend: genai.BackendGeminiAPI})
	if err != nil {
		return nil, err
	}
	return &GeminiClient{cli: cli, apiKey: apiKey, model: model, rl: newRPSLimiter(rps, burst)}, nil
}

func (g *GeminiClient) Name() string { return "gemini:" + g.model }

func (g *GeminiClient) Available(ctx context.Context) bool { return g.apiKey != "" }

func (g *GeminiClient) Close() error {
	g.rl.Stop()
	return nil
}

// Generate sends the instruction and data documents as one content
// block. Transient failures are retried inline up to three attempts
// with exponential backoff.
func (g *GeminiClient) Generate(ctx context.Context, instruction, data string) (string, error) {
	full := instruction + "\n\n" + data
	log.Printf("llm: gemini request: %d bytes", len(full))

	var lastErr error
	for attempt := 0; attempt < 3; attempt++ {
		// Each API call consumes one limiter token.
		if err := g.rl.Acquire(ctx); err != nil {
			return "", err
		}
		resp, err := g.cli.Models.GenerateContent(ctx, g.model,
			[]*genai.Content{{Parts: []*genai.Part{{Text: full}}}},
			&genai.GenerateContentConfig{ResponseMIMEType: "text/plain"},
		)
		if err != nil {
			lastErr = err
		} else if len(resp.Candidates) == 0 || len(resp.Candidates[0].Content.Parts) == 0 {
			lastErr = ErrEmptyResponse
		} else {
			return resp.Candidates[0].Content.Parts[0].Text, nil
		}
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		default:
		}
		time.Sleep(time.Duration(300*(1<<attempt)) * time.Millisecond)
	}
	return "", lastErr
}
