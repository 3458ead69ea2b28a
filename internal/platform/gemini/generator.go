package gemini

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"math/rand"
	"time"

	"google.golang.org/genai"

	"github.com/phrazzld/tome-api/internal/config"
	"github.com/phrazzld/tome-api/internal/domain"
	"github.com/phrazzld/tome-api/internal/generation"
)

// Generator implements the generation.Generator interface using Google's
// Gemini API to draft study item payloads from source text.
type Generator struct {
	logger *slog.Logger
	config config.LLMConfig
	client *genai.Client
	model  string
}

// responseSchema is the JSON envelope the model is instructed to return.
type responseSchema struct {
	Items []json.RawMessage `json:"items"`
}

// NewGenerator creates a Gemini-backed Generator from the given LLM
// configuration. Returns generation.ErrInvalidConfig if the API key or model
// name is missing.
func NewGenerator(ctx context.Context, logger *slog.Logger, cfg config.LLMConfig) (*Generator, error) {
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}
	if cfg.GeminiAPIKey == "" {
		return nil, fmt.Errorf("%w: gemini API key cannot be empty", generation.ErrInvalidConfig)
	}
	if cfg.ModelName == "" {
		return nil, fmt.Errorf("%w: model name cannot be empty", generation.ErrInvalidConfig)
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.GeminiAPIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create Gemini client: %v",
			generation.ErrInvalidConfig, err)
	}

	return &Generator{
		logger: logger.With(slog.String("component", "gemini_generator")),
		config: cfg,
		client: client,
		model:  cfg.ModelName,
	}, nil
}

// Ensure Generator implements generation.Generator interface
var _ generation.Generator = (*Generator)(nil)

// GenerateItems implements generation.Generator.GenerateItems.
func (g *Generator) GenerateItems(
	ctx context.Context,
	sourceText string,
	moduleType domain.ModuleType,
) ([]json.RawMessage, error) {
	if sourceText == "" {
		return nil, generation.ErrEmptySourceText
	}
	if !moduleType.IsValid() {
		return nil, domain.ErrInvalidModuleType
	}

	prompt, err := buildPrompt(moduleType, sourceText)
	if err != nil {
		return nil, err
	}

	response, err := g.callWithRetry(ctx, prompt)
	if err != nil {
		return nil, err
	}

	return g.validateItems(ctx, response, moduleType)
}

// callWithRetry calls the Gemini API with exponential backoff and jitter.
// Permanent errors (blocked content, malformed responses) are returned
// immediately; only transient API failures are retried.
func (g *Generator) callWithRetry(ctx context.Context, prompt string) (*responseSchema, error) {
	maxRetries := g.config.MaxRetries
	baseDelaySeconds := g.config.RetryDelaySeconds
	if baseDelaySeconds < 1 {
		baseDelaySeconds = 2
	}
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))

	var lastErr error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		g.logger.DebugContext(ctx, "calling Gemini API",
			slog.Int("attempt", attempt+1),
			slog.Int("max_attempts", maxRetries+1))

		response, err := g.callOnce(ctx, prompt)
		if err == nil {
			return response, nil
		}
		lastErr = err

		if errors.Is(err, generation.ErrContentBlocked) ||
			errors.Is(err, generation.ErrInvalidResponse) {
			return nil, err
		}

		g.logger.WarnContext(ctx, "Gemini API call failed",
			slog.Int("attempt", attempt+1),
			slog.String("error", err.Error()))

		if attempt >= maxRetries {
			break
		}

		// delay = baseDelay * 2^attempt * jitter in [0.5, 1.0)
		backoffSeconds := float64(baseDelaySeconds) * math.Pow(2, float64(attempt))
		delay := time.Duration(backoffSeconds * (0.5 + rng.Float64()*0.5) * float64(time.Second))

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return nil, fmt.Errorf("%w: %v", generation.ErrTransientFailure, ctx.Err())
		}
	}

	return nil, fmt.Errorf("%w: exceeded %d attempts: %v",
		generation.ErrTransientFailure, maxRetries+1, lastErr)
}

// callOnce performs a single API call and parses the JSON envelope.
func (g *Generator) callOnce(ctx context.Context, prompt string) (*responseSchema, error) {
	resp, err := g.client.Models.GenerateContent(
		ctx,
		g.model,
		genai.Text(prompt),
		&genai.GenerateContentConfig{
			ResponseMIMEType: "application/json",
		},
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", generation.ErrTransientFailure, err)
	}
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return nil, fmt.Errorf("%w: no content generated", generation.ErrInvalidResponse)
	}
	if resp.Candidates[0].FinishReason == genai.FinishReasonSafety {
		return nil, fmt.Errorf("%w: finish reason safety", generation.ErrContentBlocked)
	}

	text := resp.Text()
	var parsed responseSchema
	if err := json.Unmarshal([]byte(text), &parsed); err != nil {
		return nil, fmt.Errorf("%w: failed to parse JSON response: %v",
			generation.ErrInvalidResponse, err)
	}
	return &parsed, nil
}

// validateItems checks every payload against the module type's content
// schema. One malformed payload rejects the whole batch: callers never
// receive a partially valid set.
func (g *Generator) validateItems(
	ctx context.Context,
	response *responseSchema,
	moduleType domain.ModuleType,
) ([]json.RawMessage, error) {
	if len(response.Items) == 0 {
		return nil, fmt.Errorf("%w: no items in response", generation.ErrInvalidResponse)
	}

	for i, payload := range response.Items {
		if err := domain.ValidateContent(moduleType, payload); err != nil {
			return nil, fmt.Errorf("%w: item %d: %v", generation.ErrInvalidResponse, i, err)
		}
	}

	g.logger.InfoContext(ctx, "generated items",
		slog.String("module_type", string(moduleType)),
		slog.Int("count", len(response.Items)))
	return response.Items, nil
}
