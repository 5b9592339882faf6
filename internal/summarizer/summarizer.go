package summarizer

import (
	"context"
	"fmt"
	"time"
)

const RequestTimeout = 60 * time.Second

// Summarizer produces a summary for the given page content.
type Summarizer interface {
	Summarize(ctx context.Context, content string) (string, error)
}

// BuildPrompt wraps content in triple quotes after the prompt template.
// Every backend uses it so that summaries do not depend on the backend.
func BuildPrompt(template, content string) string {
	return template + "\n\n'''" + content + "'''"
}

// APIError carries the status and diagnostics reported by a backend.
type APIError struct {
	Backend    Backend
	StatusCode int
	Code       string
	Message    string
	RequestID  string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s API error (status %d): %s - %s", e.Backend, e.StatusCode, e.Code, e.Message)
}
