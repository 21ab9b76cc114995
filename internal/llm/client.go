// Package llm wraps the chat completion API consumed by the answer and
// code-review endpoints.
//
// Prompt construction here is a thin consumer of retrieved context: the
// retrieval pipeline decides what the model may see, this package only
// arranges it into messages.
package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/openai/openai-go/v3/shared"
	"go.uber.org/zap"
)

var (
	// ErrInvalidConfig indicates invalid configuration.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrCompletionFailed indicates the remote completion call failed.
	ErrCompletionFailed = errors.New("completion request failed")
)

// DefaultSystemMessage instructs the model to answer only from retrieved
// context. Callers may override it per request.
const DefaultSystemMessage = `You are an assistant for the ingested dataset. Use ONLY the context below to answer the user's question. If the answer is not in the context, say "I don't know."`

// contextSeparator joins retrieved chunks inside the context message.
const contextSeparator = "\n---\n"

// Defaults for the completion client.
const (
	defaultModel       = "gpt-4o-mini"
	defaultTimeout     = 60 * time.Second
	answerMaxTokens    = 1000
	answerTemperature  = 1.0
	reviewMaxTokens    = 500
	reviewTemperature  = 0.2
	fallbackAnswerText = "I don't know."
)

// Config holds configuration for the completion client.
type Config struct {
	// BaseURL is the base URL of the chat completions API. Empty means the
	// official OpenAI endpoint.
	BaseURL string

	// Model is the chat model.
	// Default: "gpt-4o-mini"
	Model string

	// APIKey is the API key for the service.
	APIKey string

	// Timeout bounds each completion request.
	// Default: 60s
	Timeout time.Duration
}

// ApplyDefaults sets default values for unset fields.
func (c *Config) ApplyDefaults() {
	if c.Model == "" {
		c.Model = defaultModel
	}
	if c.Timeout == 0 {
		c.Timeout = defaultTimeout
	}
}

// Validate validates the configuration.
func (c Config) Validate() error {
	if c.Model == "" {
		return fmt.Errorf("%w: model required", ErrInvalidConfig)
	}
	if c.APIKey == "" {
		return fmt.Errorf("%w: API key required", ErrInvalidConfig)
	}
	return nil
}

// Client calls the chat completions API.
type Client struct {
	client openai.Client
	model  string
	logger *zap.Logger
}

// New creates a completion Client with the given configuration.
func New(cfg Config, logger *zap.Logger) (*Client, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithRequestTimeout(cfg.Timeout),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}

	return &Client{
		client: openai.NewClient(opts...),
		model:  cfg.Model,
		logger: logger,
	}, nil
}

// Answer generates a grounded answer to the question from the retrieved
// context chunks. An empty systemMessage falls back to DefaultSystemMessage.
func (c *Client) Answer(ctx context.Context, systemMessage string, contextChunks []string, question string) (string, error) {
	if systemMessage == "" {
		systemMessage = DefaultSystemMessage
	}

	messages := []openai.ChatCompletionMessageParamUnion{
		systemMsg(systemMessage),
		systemMsg("Here is the context:\n" + strings.Join(contextChunks, contextSeparator)),
		userMsg("Q: " + question),
	}

	resp, err := c.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model:       shared.ChatModel(c.model),
		Messages:    messages,
		Temperature: openai.Float(answerTemperature),
		MaxTokens:   openai.Int(answerMaxTokens),
		TopP:        openai.Float(1.0),
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrCompletionFailed, err)
	}

	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return fallbackAnswerText, nil
	}
	return resp.Choices[0].Message.Content, nil
}

// Review is the structured result of a code-review completion.
type Review struct {
	AIGenerated string `json:"aiGenerated,omitempty"`
	Works       string `json:"works,omitempty"`
	Explanation string `json:"explanation,omitempty"`

	// Raw carries the model's verbatim reply when it was not valid JSON.
	Raw string `json:"raw,omitempty"`
}

// Review analyzes a code snippet in a single completion call. This endpoint
// has no retrieval component.
func (c *Client) Review(ctx context.Context, language, code string) (Review, error) {
	messages := []openai.ChatCompletionMessageParamUnion{
		systemMsg("You are an expert code reviewer and AI detector."),
		userMsg(buildReviewPrompt(language, code)),
	}

	resp, err := c.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model:       shared.ChatModel(c.model),
		Messages:    messages,
		Temperature: openai.Float(reviewTemperature),
		MaxTokens:   openai.Int(reviewMaxTokens),
	})
	if err != nil {
		return Review{}, fmt.Errorf("%w: %v", ErrCompletionFailed, err)
	}

	if len(resp.Choices) == 0 {
		return Review{}, fmt.Errorf("%w: no choices returned", ErrCompletionFailed)
	}

	return parseReview(resp.Choices[0].Message.Content), nil
}

// buildReviewPrompt renders the code-review instruction for one snippet.
func buildReviewPrompt(language, code string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "You are a code reviewer. Analyze the following code snippet written in %s.\n\n", language)
	b.WriteString("1. Is this code likely to be AI-generated or copied from an AI tool? (Answer: Yes/No/Maybe)\n")
	b.WriteString("2. Does this code work as intended (syntactically and logically)? (Answer: Yes/No/Maybe)\n")
	b.WriteString("3. Give a brief explanation for your answers in 1-2 sentences, using simple language suitable for beginners.\n\n")
	fmt.Fprintf(&b, "Code:\n```%s\n%s\n```\n", language, code)
	b.WriteString("Please respond in JSON format as:\n")
	b.WriteString(`{"aiGenerated": "Yes/No/Maybe", "works": "Yes/No/Maybe", "explanation": "..."}`)
	return b.String()
}

// parseReview decodes the model's JSON reply, tolerating code fences.
// Non-JSON replies are preserved verbatim in Raw.
func parseReview(content string) Review {
	trimmed := strings.TrimSpace(content)
	trimmed = strings.TrimPrefix(trimmed, "```json")
	trimmed = strings.TrimPrefix(trimmed, "```")
	trimmed = strings.TrimSuffix(trimmed, "```")
	trimmed = strings.TrimSpace(trimmed)

	var r Review
	if err := json.Unmarshal([]byte(trimmed), &r); err != nil || (r.AIGenerated == "" && r.Works == "" && r.Explanation == "") {
		return Review{Raw: content}
	}
	r.Raw = ""
	return r
}

func systemMsg(content string) openai.ChatCompletionMessageParamUnion {
	return openai.ChatCompletionMessageParamUnion{
		OfSystem: &openai.ChatCompletionSystemMessageParam{
			Content: openai.ChatCompletionSystemMessageParamContentUnion{
				OfString: openai.String(content),
			},
		},
	}
}

func userMsg(content string) openai.ChatCompletionMessageParamUnion {
	return openai.ChatCompletionMessageParamUnion{
		OfUser: &openai.ChatCompletionUserMessageParam{
			Content: openai.ChatCompletionUserMessageParamContentUnion{
				OfString: openai.String(content),
			},
		},
	}
}
