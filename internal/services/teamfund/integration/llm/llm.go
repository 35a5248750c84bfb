// Package llm wraps OpenAI-compatible chat completion endpoints. The same
// client serves search-backed lead research and outreach writing.
package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/louisbranch/teamfund/internal/platform/otel"
)

const (
	// PerplexityBaseURL is the OpenAI-compatible Perplexity endpoint root.
	PerplexityBaseURL = "https://api.perplexity.ai/"
	// ResearchModel is the search-backed model used for lead research.
	ResearchModel = "sonar"
	// DefaultWriterModel drafts outreach when no model is configured.
	DefaultWriterModel = "gpt-4o-mini"

	maxTokens   = 2048
	temperature = 0.2
)

// Config configures one completion endpoint.
type Config struct {
	// Name labels errors and spans, for example "Perplexity".
	Name       string
	APIKey     string
	BaseURL    string
	Model      string
	HTTPClient *http.Client
}

// Client sends single-turn chat completions.
type Client struct {
	name   string
	model  string
	client openai.Client
}

// NewClient builds a completion client. Outbound calls are not retried.
func NewClient(cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, fmt.Errorf("api key is required")
	}
	if strings.TrimSpace(cfg.Model) == "" {
		return nil, fmt.Errorf("model is required")
	}
	name := strings.TrimSpace(cfg.Name)
	if name == "" {
		name = "LLM"
	}
	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithMaxRetries(0),
	}
	if base := strings.TrimSpace(cfg.BaseURL); base != "" {
		if !strings.HasSuffix(base, "/") {
			base += "/"
		}
		opts = append(opts, option.WithBaseURL(base))
	}
	if cfg.HTTPClient != nil {
		opts = append(opts, option.WithHTTPClient(cfg.HTTPClient))
	}
	return &Client{name: name, model: cfg.Model, client: openai.NewClient(opts...)}, nil
}

// StatusError reports a non-2xx completion response.
type StatusError struct {
	Provider   string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s API error: %d", e.Provider, e.StatusCode)
}

// Complete sends prompt as the user turn, after an optional system turn, and
// returns the first choice's text.
func (c *Client) Complete(ctx context.Context, system, prompt string) (string, error) {
	if strings.TrimSpace(prompt) == "" {
		return "", fmt.Errorf("prompt is required")
	}
	ctx, span := otel.Tracer("teamfund/llm").Start(ctx, "llm.Complete")
	defer span.End()
	span.SetAttributes(attribute.String("llm.provider", c.name), attribute.String("llm.model", c.model))

	messages := make([]openai.ChatCompletionMessageParamUnion, 0, 2)
	if strings.TrimSpace(system) != "" {
		messages = append(messages, openai.SystemMessage(system))
	}
	messages = append(messages, openai.UserMessage(prompt))

	completion, err := c.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model:       openai.ChatModel(c.model),
		Messages:    messages,
		MaxTokens:   openai.Int(maxTokens),
		Temperature: openai.Float(temperature),
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "completion")
		var apiErr *openai.Error
		if errors.As(err, &apiErr) {
			return "", &StatusError{Provider: c.name, StatusCode: apiErr.StatusCode}
		}
		return "", fmt.Errorf("%s request failed: %w", c.name, err)
	}
	if len(completion.Choices) == 0 {
		return "", nil
	}
	return completion.Choices[0].Message.Content, nil
}
