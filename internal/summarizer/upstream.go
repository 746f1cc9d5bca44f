package summarizer

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/feichai0017/document-condenser/pkg/logger"
)

// Upstream condenses one chunk to roughly targetWords words.
type Upstream interface {
	Condense(ctx context.Context, text string, targetWords int) (string, error)
}

const instructions = `Condense the text to approximately %d words.
Keep every key point and the original narrative order.
Drop redundant description and elaboration.
Use plain English and short sentences.
Return only the condensed text, with no introduction or commentary.`

type OpenAIConfig struct {
	APIKey     string
	BaseURL    string
	Model      string
	HTTPClient *http.Client
}

// OpenAIUpstream talks to any OpenAI-compatible chat completions endpoint,
// OpenRouter included.
type OpenAIUpstream struct {
	client openai.Client
	model  string
	logger logger.Logger
}

func NewOpenAIUpstream(cfg OpenAIConfig, log logger.Logger) (*OpenAIUpstream, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("upstream API key not configured")
	}
	if cfg.Model == "" {
		return nil, fmt.Errorf("upstream model not configured")
	}

	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithMaxRetries(0),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	if cfg.HTTPClient != nil {
		opts = append(opts, option.WithHTTPClient(cfg.HTTPClient))
	}

	return &OpenAIUpstream{
		client: openai.NewClient(opts...),
		model:  cfg.Model,
		logger: log.Named("upstream"),
	}, nil
}

func (u *OpenAIUpstream) Condense(ctx context.Context, text string, targetWords int) (string, error) {
	resp, err := u.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(u.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(fmt.Sprintf(instructions, targetWords)),
			openai.UserMessage(text),
		},
	})
	if err != nil {
		return "", fmt.Errorf("upstream completion failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("upstream returned no choices")
	}

	out := strings.TrimSpace(resp.Choices[0].Message.Content)
	if out == "" {
		return "", fmt.Errorf("upstream returned empty content")
	}

	u.logger.Debug("Chunk condensed",
		logger.Int("inputWords", len(strings.Fields(text))),
		logger.Int("targetWords", targetWords),
		logger.Int("outputWords", len(strings.Fields(out))),
		logger.Int64("totalTokens", resp.Usage.TotalTokens),
	)
	return out, nil
}
