package summarizer

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"jinasum/internal/config"
)

type Backend string

const (
	BackendOpenAI    Backend = "openai"
	BackendDashScope Backend = "dashscope"
)

var ErrNoBackendConfigured = errors.New("no backend API key is configured")

// Selector holds the backend resolved at startup.
type Selector struct {
	selected   Backend
	available  []Backend
	summarizer Summarizer
}

// NewSelector builds a client for every backend that has a credential and
// picks the preferred one, falling back to the first available backend.
func NewSelector(cfg *config.Config, log *slog.Logger) (*Selector, error) {
	clients := make(map[Backend]Summarizer, 2)
	var available []Backend

	if cfg.OpenAIAPIKey != "" {
		s, err := NewOpenAISummarizer(cfg.OpenAIAPIBase, cfg.OpenAIAPIKey, cfg.OpenAIModel, cfg.Prompt, log)
		if err != nil {
			return nil, fmt.Errorf("create OpenAI summarizer: %w", err)
		}
		clients[BackendOpenAI] = s
		available = append(available, BackendOpenAI)
	}

	if cfg.DashScopeAPIKey != "" {
		clients[BackendDashScope] = NewDashScopeSummarizer(
			cfg.DashScopeAPIBase,
			cfg.DashScopeAPIKey,
			cfg.DashScopeModel,
			cfg.Prompt,
			log,
		)
		available = append(available, BackendDashScope)
	}

	preferred := Backend(strings.ToLower(strings.TrimSpace(cfg.PreferredAPI)))

	selected, err := Resolve(preferred, available)
	if err != nil {
		return nil, err
	}

	if selected != preferred {
		log.Warn("Preferred backend is not available so fallback will be used",
			"preferredBackend", preferred,
			"selectedBackend", selected,
			"availableBackends", available)
	}

	return &Selector{
		selected:   selected,
		available:  available,
		summarizer: clients[selected],
	}, nil
}

// Resolve returns preferred when it is available, otherwise the first
// available backend.
func Resolve(preferred Backend, available []Backend) (Backend, error) {
	if len(available) == 0 {
		return "", ErrNoBackendConfigured
	}

	if slices.Contains(available, preferred) {
		return preferred, nil
	}

	return available[0], nil
}

func (s *Selector) Selected() Backend {
	return s.selected
}

func (s *Selector) Available() []Backend {
	return slices.Clone(s.available)
}

// Summarizer returns the client of the selected backend.
func (s *Selector) Summarizer() Summarizer {
	return s.summarizer
}
