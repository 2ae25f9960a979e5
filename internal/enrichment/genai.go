package enrichment

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/terraincognita07/cyclecast/internal/services"
	"google.golang.org/genai"
)

const (
	DefaultModel   = "gemini-2.5-flash"
	DefaultTimeout = 8 * time.Second

	responseDateLayout = "2006-01-02"
)

var (
	ErrMissingAPIKey = errors.New("genai api key is required")
	ErrEmptyResponse = errors.New("genai returned an empty response")
)

// generator is the single model call the enricher needs.
type generator interface {
	GenerateJSON(ctx context.Context, systemPrompt string, prompt string) (string, error)
}

type genaiGenerator struct {
	client *genai.Client
	model  string
}

func (g *genaiGenerator) GenerateJSON(ctx context.Context, systemPrompt string, prompt string) (string, error) {
	temperature := float32(0.2)
	result, err := g.client.Models.GenerateContent(ctx,
		g.model,
		[]*genai.Content{genai.NewContentFromText(prompt, genai.RoleUser)},
		&genai.GenerateContentConfig{
			SystemInstruction: genai.NewContentFromText(systemPrompt, genai.RoleUser),
			ResponseMIMEType:  "application/json",
			Temperature:       &temperature,
		},
	)
	if err != nil {
		return "", fmt.Errorf("genai generate failed: %w", err)
	}
	text := strings.TrimSpace(result.Text())
	if text == "" {
		return "", ErrEmptyResponse
	}
	return text, nil
}

// GenAIEnricher asks a Gemini model to refine the statistical next-period estimate.
type GenAIEnricher struct {
	generator generator
	timeout   time.Duration
}

func NewGenAIEnricher(ctx context.Context, apiKey string, model string, timeout time.Duration) (*GenAIEnricher, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, ErrMissingAPIKey
	}
	if strings.TrimSpace(model) == "" {
		model = DefaultModel
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}
	return newEnricher(&genaiGenerator{client: client, model: model}, timeout), nil
}

func newEnricher(generator generator, timeout time.Duration) *GenAIEnricher {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &GenAIEnricher{generator: generator, timeout: timeout}
}

func (enricher *GenAIEnricher) Enrich(ctx context.Context, request services.EnrichmentRequest) (services.EnrichmentResult, error) {
	ctx, cancel := context.WithTimeout(ctx, enricher.timeout)
	defer cancel()

	prompt, err := buildPrompt(request)
	if err != nil {
		return services.EnrichmentResult{}, err
	}
	raw, err := enricher.generator.GenerateJSON(ctx, systemPrompt, prompt)
	if err != nil {
		return services.EnrichmentResult{}, err
	}
	return parseResponse(raw, request.Signals.Anchor.Location())
}
