package config_test

import (
	"log/slog"
	"slices"
	"strings"
	"testing"

	"jinasum/internal/config"
)

func TestLoadFromDefaults(t *testing.T) {
	cfg, err := config.LoadFrom(map[string]string{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.ReaderBase != "https://r.jina.ai" {
		t.Errorf("unexpected reader base: %q", cfg.ReaderBase)
	}
	if cfg.MaxWords != 8000 {
		t.Errorf("unexpected max words: %d", cfg.MaxWords)
	}
	if cfg.Prompt != config.DefaultPrompt {
		t.Errorf("expected default prompt, got %q", cfg.Prompt)
	}
	if len(cfg.WhiteURLList) != 0 {
		t.Errorf("expected empty allow-list, got %v", cfg.WhiteURLList)
	}
	wantBlack := []string{"https://support.weixin.qq.com", "https://channels-aladin.wxqcloud.qq.com"}
	if !slices.Equal(cfg.BlackURLList, wantBlack) {
		t.Errorf("unexpected deny-list: %v", cfg.BlackURLList)
	}
	if cfg.OpenAIAPIBase != "https://api.openai.com/v1" || cfg.OpenAIModel != "gpt-3.5-turbo" {
		t.Errorf("unexpected OpenAI defaults: %q %q", cfg.OpenAIAPIBase, cfg.OpenAIModel)
	}
	if cfg.DashScopeModel != "qwen-max" {
		t.Errorf("unexpected DashScope model: %q", cfg.DashScopeModel)
	}
	if cfg.PreferredAPI != "openai" {
		t.Errorf("unexpected preferred API: %q", cfg.PreferredAPI)
	}
	if cfg.LogLevel != slog.LevelInfo {
		t.Errorf("unexpected log level: %v", cfg.LogLevel)
	}
	if cfg.ReaderExtractHTML {
		t.Errorf("expected HTML extraction to be off by default")
	}
}

func TestLoadFromOverrides(t *testing.T) {
	cfg, err := config.LoadFrom(map[string]string{
		"JINA_READER_BASE":  " https://reader.example ",
		"MAX_WORDS":         "42",
		"PROMPT":            "P",
		"WHITE_URL_LIST":    "https://a.com, https://b.com,",
		"BLACK_URL_LIST":    "https://a.com/private",
		"OPEN_AI_API_KEY":   " sk-test ",
		"DASHSCOPE_API_KEY": "ds-test",
		"PREFERRED_API":     "DashScope",
		"ALLOWED_USERS":     "1,2",
		"LOG_LEVEL":         "debug",

		"READER_EXTRACT_HTML": "true",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.ReaderBase != "https://reader.example" {
		t.Errorf("expected trimmed reader base, got %q", cfg.ReaderBase)
	}
	if cfg.MaxWords != 42 {
		t.Errorf("unexpected max words: %d", cfg.MaxWords)
	}
	if !cfg.ReaderExtractHTML {
		t.Errorf("expected HTML extraction to be enabled")
	}
	if cfg.Prompt != "P" {
		t.Errorf("unexpected prompt: %q", cfg.Prompt)
	}
	if !slices.Equal(cfg.WhiteURLList, []string{"https://a.com", "https://b.com"}) {
		t.Errorf("unexpected allow-list: %v", cfg.WhiteURLList)
	}
	if !slices.Equal(cfg.BlackURLList, []string{"https://a.com/private"}) {
		t.Errorf("unexpected deny-list: %v", cfg.BlackURLList)
	}
	if cfg.OpenAIAPIKey != "sk-test" {
		t.Errorf("expected trimmed key, got %q", cfg.OpenAIAPIKey)
	}
	if cfg.PreferredAPI != "dashscope" {
		t.Errorf("expected lower-cased preferred API, got %q", cfg.PreferredAPI)
	}
	if !slices.Equal(cfg.AllowedUsers, []int64{1, 2}) {
		t.Errorf("unexpected allowed users: %v", cfg.AllowedUsers)
	}
	if cfg.LogLevel != slog.LevelDebug {
		t.Errorf("unexpected log level: %v", cfg.LogLevel)
	}
}

func TestLoadFromRejectsInvalidValues(t *testing.T) {
	tests := []struct {
		name    string
		environ map[string]string
		wantErr string
	}{
		{
			"Zero max words",
			map[string]string{"MAX_WORDS": "0"},
			"MAX_WORDS must be positive",
		},
		{
			"Negative max words",
			map[string]string{"MAX_WORDS": "-1"},
			"MAX_WORDS must be positive",
		},
		{
			"Non-numeric max words",
			map[string]string{"MAX_WORDS": "many"},
			"parse env",
		},
		{
			"Non-numeric allowed user",
			map[string]string{"ALLOWED_USERS": "1,abc"},
			"parse env",
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			_, err := config.LoadFrom(test.environ)
			if err == nil {
				t.Fatalf("expected error")
			}

			if !strings.Contains(err.Error(), test.wantErr) {
				t.Fatalf("expected error to contain %q, got %v", test.wantErr, err)
			}
		})
	}
}

func TestLoadFromKeepsUnknownPreferredAPI(t *testing.T) {
	cfg, err := config.LoadFrom(map[string]string{"PREFERRED_API": " Claude "})
	if err != nil {
		t.Fatalf("expected unknown preferred API not to be an error, got %v", err)
	}

	if cfg.PreferredAPI != "claude" {
		t.Fatalf("unexpected preferred API: %q", cfg.PreferredAPI)
	}
}
