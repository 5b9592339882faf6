package summarizer

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/tidwall/gjson"
)

const (
	dashScopeGenerationPath  = "/services/aigc/text-generation/generation"
	dashScopeResultFormatMsg = "message"
)

type dashScopeMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type dashScopeRequest struct {
	Model string `json:"model"`
	Input struct {
		Messages []dashScopeMessage `json:"messages"`
	} `json:"input"`
	Parameters struct {
		ResultFormat string `json:"result_format"`
	} `json:"parameters"`
}

// DashScopeSummarizer calls the DashScope text generation API.
type DashScopeSummarizer struct {
	endpoint   string
	apiKey     string
	model      string
	prompt     string
	httpClient *http.Client
	log        *slog.Logger
}

func NewDashScopeSummarizer(
	apiBase string,
	apiKey string,
	model string,
	prompt string,
	log *slog.Logger,
) *DashScopeSummarizer {
	return &DashScopeSummarizer{
		endpoint:   strings.TrimRight(apiBase, "/") + dashScopeGenerationPath,
		apiKey:     apiKey,
		model:      model,
		prompt:     prompt,
		httpClient: &http.Client{Timeout: RequestTimeout},
		log:        log,
	}
}

// Summarize sends the prompt as a single user message and returns the
// first choice. Non-200 answers become an *APIError with the backend's
// code and message.
func (s *DashScopeSummarizer) Summarize(ctx context.Context, content string) (string, error) {
	var payload dashScopeRequest
	payload.Model = s.model
	payload.Input.Messages = []dashScopeMessage{
		{Role: "user", Content: BuildPrompt(s.prompt, content)},
	}
	payload.Parameters.ResultFormat = dashScopeResultFormatMsg

	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+s.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("do request: %w", err)
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			s.log.ErrorContext(ctx, "Failed to close response body",
				"error", closeErr,
				"backend", BackendDashScope)
		}
	}()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", &APIError{
			Backend:    BackendDashScope,
			StatusCode: resp.StatusCode,
			Code:       gjson.GetBytes(respBody, "code").String(),
			Message:    gjson.GetBytes(respBody, "message").String(),
			RequestID:  gjson.GetBytes(respBody, "request_id").String(),
		}
	}

	if !gjson.ValidBytes(respBody) {
		return "", errors.New("response is not valid JSON")
	}

	summary := gjson.GetBytes(respBody, "output.choices.0.message.content")
	if !summary.Exists() {
		return "", fmt.Errorf("message content is missing (requestID = %s)",
			gjson.GetBytes(respBody, "request_id").String())
	}

	s.log.DebugContext(ctx, "Summary is generated",
		"backend", BackendDashScope,
		"model", s.model,
		"requestID", gjson.GetBytes(respBody, "request_id").String(),
		"totalTokens", gjson.GetBytes(respBody, "usage.total_tokens").Int())

	return summary.String(), nil
}
