package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/time/rate"
	"google.golang.org/api/option"

	genai "github.com/google/generative-ai-go/genai"

	"gamo-keyword-api/internal/config"
	"gamo-keyword-api/internal/logger"
)

var errEmptyCandidate = errors.New("response has no text candidate")

// UsageRecorder receives token and breaker events. *telemetry.Metrics
// implements it; nil disables recording.
type UsageRecorder interface {
	RecordTokensUsed(tokens int64, model string)
	RecordCircuitBreakerState(service, state string)
}

type generateFunc func(ctx context.Context, prompt string) (*genai.GenerateContentResponse, error)

type GeminiClient struct {
	breaker     *gobreaker.CircuitBreaker
	rateLimiter *rate.Limiter
	client      *genai.Client
	call        generateFunc
	model       string
	timeout     time.Duration
	usage       UsageRecorder
}

type RateLimits struct {
	RPM int // Requests per minute
}

// NewGeminiClient dials the Gemini API with the configured key and model.
func NewGeminiClient(ctx context.Context, cfg *config.Config, usage UsageRecorder) (*GeminiClient, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(cfg.GeminiAPIKey))
	if err != nil {
		return nil, err
	}

	gc := newGeminiClient(cfg.GeminiModel, cfg.GeminiTier, cfg.GeminiCallTimeout(), usage, nil)
	gc.client = client
	gc.call = func(ctx context.Context, prompt string) (*genai.GenerateContentResponse, error) {
		model := client.GenerativeModel(gc.model)
		model.SetTemperature(0.4)
		model.SetMaxOutputTokens(1024)
		return model.GenerateContent(ctx, genai.Text(prompt))
	}
	return gc, nil
}

func newGeminiClient(model, tier string, timeout time.Duration, usage UsageRecorder, call generateFunc) *GeminiClient {
	limits := getRateLimits(tier)

	gc := &GeminiClient{
		// RPM limit with some buffer
		rateLimiter: rate.NewLimiter(rate.Limit(float64(limits.RPM)*0.9/60.0), max(limits.RPM/10, 1)),
		call:        call,
		model:       model,
		timeout:     timeout,
		usage:       usage,
	}

	gc.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "GeminiAPI",
		MaxRequests: 5,
		Interval:    10 * time.Second,
		Timeout:     60 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 3 && failureRatio >= 0.6
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Warn("circuit breaker state change", "breaker", name, "from", from.String(), "to", to.String())
			if gc.usage != nil {
				gc.usage.RecordCircuitBreakerState(name, to.String())
			}
		},
	})

	return gc
}

func getRateLimits(tier string) RateLimits {
	switch tier {
	case "free":
		return RateLimits{RPM: 10}
	case "tier1":
		return RateLimits{RPM: 1000}
	case "tier2":
		return RateLimits{RPM: 2000}
	default:
		return RateLimits{RPM: 10}
	}
}

// Generate sends one prompt and returns the text of the first candidate.
// Every failure is reported as ErrUpstream.
func (gc *GeminiClient) Generate(ctx context.Context, prompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, gc.timeout)
	defer cancel()

	tracer := otel.Tracer("gemini-client")
	ctx, span := tracer.Start(ctx, "gemini.generate_content")
	defer span.End()

	span.SetAttributes(
		attribute.String("gemini.model", gc.model),
		attribute.Int("gemini.estimated_tokens", estimateTokens(prompt)),
	)

	if err := gc.rateLimiter.Wait(ctx); err != nil {
		span.SetAttributes(attribute.Bool("gemini.rate_limited", true))
		span.SetStatus(codes.Error, "rate limited")
		return "", fmt.Errorf("%w: rate limiter: %v", ErrUpstream, err)
	}

	result, err := gc.breaker.Execute(func() (interface{}, error) {
		resp, err := gc.call(ctx, prompt)
		if err != nil {
			return nil, err
		}

		text := extractText(resp)
		if strings.TrimSpace(text) == "" {
			return nil, errEmptyCandidate
		}

		tokens := extractTokenUsage(resp, text)
		span.SetAttributes(attribute.Int("gemini.actual_tokens", tokens))
		if gc.usage != nil {
			gc.usage.RecordTokensUsed(int64(tokens), gc.model)
		}
		return text, nil
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			span.SetAttributes(attribute.Bool("gemini.circuit_breaker_open", true))
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return "", fmt.Errorf("%w: %v", ErrUpstream, err)
	}

	span.SetAttributes(attribute.Bool("gemini.success", true))
	return result.(string), nil
}

// Rough estimation: 1 token ≈ 4 characters
func estimateTokens(prompt string) int {
	return len(prompt) / 4
}

// extractText joins the text parts of the first candidate that has content.
func extractText(resp *genai.GenerateContentResponse) string {
	if resp == nil {
		return ""
	}

	for _, candidate := range resp.Candidates {
		if candidate == nil || candidate.Content == nil {
			continue
		}
		var result strings.Builder
		for _, part := range candidate.Content.Parts {
			if text, ok := part.(genai.Text); ok {
				result.WriteString(string(text))
			}
		}
		if result.Len() > 0 {
			return result.String()
		}
	}
	return ""
}

func extractTokenUsage(resp *genai.GenerateContentResponse, text string) int {
	if resp.UsageMetadata != nil {
		return int(resp.UsageMetadata.TotalTokenCount)
	}
	return max(len(text)/4, 1)
}

// Close the client
func (gc *GeminiClient) Close() error {
	if gc.client != nil {
		return gc.client.Close()
	}
	return nil
}
