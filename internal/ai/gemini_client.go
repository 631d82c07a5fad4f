package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"notes-qa-platform/internal/config"
	"notes-qa-platform/internal/logger"

	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/time/rate"
	"google.golang.org/api/option"

	genai "github.com/google/generative-ai-go/genai"
)

// Generator produces a free-text completion for a prompt under a system
// instruction.
type Generator interface {
	Generate(ctx context.Context, system, prompt string) (string, error)
}

// GeminiGenerator wraps the Gemini generative API with retries, client-side
// rate limiting and a circuit breaker.
type GeminiGenerator struct {
	client      *genai.Client
	model       string
	temperature float32
	maxRetries  int
	breaker     *gobreaker.CircuitBreaker
	rateLimiter *rate.Limiter
}

func NewGeminiGenerator(ctx context.Context, cfg *config.Config) (*GeminiGenerator, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(cfg.GeminiAPIKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}

	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "GeminiAPI",
		MaxRequests: 5,
		Interval:    10 * time.Second,
		Timeout:     60 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 3 && failureRatio >= 0.6
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Warn("Circuit breaker state change", "name", name, "from", from.String(), "to", to.String())
		},
	})

	// Conservative client-side RPM cap, below the free tier limit
	rateLimiter := rate.NewLimiter(rate.Limit(9.0/60.0), 2)

	return &GeminiGenerator{
		client:      client,
		model:       cfg.GeminiModel,
		temperature: float32(cfg.GeminiTemperature),
		maxRetries:  cfg.GeminiMaxRetries,
		breaker:     breaker,
		rateLimiter: rateLimiter,
	}, nil
}

func (g *GeminiGenerator) Generate(ctx context.Context, system, prompt string) (string, error) {
	tracer := otel.Tracer("gemini-client")
	ctx, span := tracer.Start(ctx, "gemini.generate_content")
	defer span.End()

	span.SetAttributes(
		attribute.String("gemini.model", g.model),
		attribute.Int("gemini.prompt_chars", len(prompt)),
	)

	if err := g.rateLimiter.Wait(ctx); err != nil {
		span.SetAttributes(attribute.Bool("gemini.rate_limited", true))
		return "", err
	}

	var lastErr error
	for attempt := 0; attempt <= g.maxRetries; attempt++ {
		result, err := g.breaker.Execute(func() (interface{}, error) {
			return g.generateOnce(ctx, system, prompt)
		})
		if err == nil {
			span.SetAttributes(attribute.Bool("gemini.success", true))
			return result.(string), nil
		}

		if errors.Is(err, gobreaker.ErrOpenState) {
			span.SetAttributes(attribute.Bool("gemini.circuit_breaker_open", true))
			return "", err
		}

		lastErr = err
		if attempt < g.maxRetries {
			// Exponential backoff
			select {
			case <-time.After(time.Duration(1<<attempt) * time.Second):
			case <-ctx.Done():
				return "", ctx.Err()
			}
		}
	}

	span.SetAttributes(attribute.Bool("gemini.error", true))
	return "", fmt.Errorf("failed after %d attempts: %w", g.maxRetries+1, lastErr)
}

func (g *GeminiGenerator) generateOnce(ctx context.Context, system, prompt string) (string, error) {
	model := g.client.GenerativeModel(g.model)
	model.SetTemperature(g.temperature)
	model.SetMaxOutputTokens(2048)
	if system != "" {
		model.SystemInstruction = &genai.Content{
			Parts: []genai.Part{genai.Text(system)},
		}
	}

	resp, err := model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", err
	}

	text := extractResponseText(resp)
	if text == "" {
		return "", fmt.Errorf("no candidates in response")
	}
	return text, nil
}

func extractResponseText(resp *genai.GenerateContentResponse) string {
	var b strings.Builder
	for _, candidate := range resp.Candidates {
		if candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			if text, ok := part.(genai.Text); ok {
				b.WriteString(string(text))
			}
		}
		break // first candidate only
	}
	return b.String()
}

func (g *GeminiGenerator) Close() error {
	if g.client != nil {
		return g.client.Close()
	}
	return nil
}
