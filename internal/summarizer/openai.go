package summarizer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
)

// OpenAISummarizer calls an OpenAI-compatible Chat Completions API.
type OpenAISummarizer struct {
	client openai.Client
	model  string
	prompt string
	log    *slog.Logger
}

// NewOpenAISummarizer builds a new summarizer instance. Requests go to
// {apiBase}/chat/completions with the Host header set to apiBase's host.
func NewOpenAISummarizer(
	apiBase string,
	apiKey string,
	model string,
	prompt string,
	log *slog.Logger,
) (*OpenAISummarizer, error) {
	u, err := url.Parse(strings.TrimSpace(apiBase))
	if err != nil {
		return nil, fmt.Errorf("parse API base: %w", err)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("API base has no host: %q", apiBase)
	}

	return &OpenAISummarizer{
		client: openai.NewClient(
			option.WithBaseURL(apiBase),
			option.WithAPIKey(apiKey),
			option.WithRequestTimeout(RequestTimeout),
			option.WithMaxRetries(0),
			option.WithMiddleware(hostMiddleware(u.Host)),
		),
		model:  model,
		prompt: prompt,
		log:    log,
	}, nil
}

// Summarize sends the prompt as a single user message and returns the
// first choice.
func (s *OpenAISummarizer) Summarize(ctx context.Context, content string) (string, error) {
	resp, err := s.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(s.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(BuildPrompt(s.prompt, content)),
		},
	})
	if err != nil {
		var apiErr *openai.Error
		if errors.As(err, &apiErr) {
			return "", &APIError{
				Backend:    BackendOpenAI,
				StatusCode: apiErr.StatusCode,
				Code:       apiErr.Code,
				Message:    apiErr.Message,
			}
		}

		return "", fmt.Errorf("create chat completion: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", errors.New("response has no choices")
	}

	s.log.DebugContext(ctx, "Summary is generated",
		"backend", BackendOpenAI,
		"model", s.model,
		"finishReason", resp.Choices[0].FinishReason,
		"totalTokens", resp.Usage.TotalTokens)

	return resp.Choices[0].Message.Content, nil
}

func hostMiddleware(host string) option.Middleware {
	return func(req *http.Request, next option.MiddlewareNext) (*http.Response, error) {
		req.Host = host

		return next(req)
	}
}
