package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/caarlos0/env/v11"
)

const (
	DefaultPrompt = "Summarize the document enclosed in triple quotes below. The summary must contain three parts:\n" +
		"📖 One-sentence summary\n" +
		"🔑 Key points: 3-5 core ideas of the article as a numbered list\n" +
		"🏷 Tags: #xx #xx\n" +
		"Use emoji to make the summary more lively.\n\n"
)

type Config struct {
	ReaderBase   string   `env:"JINA_READER_BASE"   envDefault:"https://r.jina.ai"`
	MaxWords     int      `env:"MAX_WORDS"          envDefault:"8000"`
	Prompt       string   `env:"PROMPT"`
	WhiteURLList []string `env:"WHITE_URL_LIST"`
	BlackURLList []string `env:"BLACK_URL_LIST"     envDefault:"https://support.weixin.qq.com,https://channels-aladin.wxqcloud.qq.com"`

	ReaderExtractHTML bool `env:"READER_EXTRACT_HTML" envDefault:"false"`

	OpenAIAPIBase string `env:"OPEN_AI_API_BASE" envDefault:"https://api.openai.com/v1"`
	OpenAIAPIKey  string `env:"OPEN_AI_API_KEY"`
	OpenAIModel   string `env:"OPEN_AI_MODEL"    envDefault:"gpt-3.5-turbo"`

	DashScopeAPIBase string `env:"DASHSCOPE_API_BASE" envDefault:"https://dashscope.aliyuncs.com/api/v1"`
	DashScopeAPIKey  string `env:"DASHSCOPE_API_KEY"`
	DashScopeModel   string `env:"DASHSCOPE_MODEL"    envDefault:"qwen-max"`

	PreferredAPI string `env:"PREFERRED_API" envDefault:"openai"`

	Token        string  `env:"TOKEN"`
	AllowedUsers []int64 `env:"ALLOWED_USERS"`
	AckText      string  `env:"ACK_TEXT"      envDefault:"🎉 Generating a summary for you, please wait..."`
	ErrorText    string  `env:"ERROR_TEXT"    envDefault:"❌ I can't summarize this link right now, please try again later."`

	LogLevel slog.Level `env:"LOG_LEVEL" envDefault:"info"`
}

// Load parses the process environment.
func Load() (Config, error) {
	return parse(env.Options{})
}

// LoadFrom parses the given variables instead of the process environment.
func LoadFrom(environment map[string]string) (Config, error) {
	return parse(env.Options{Environment: environment})
}

func parse(opts env.Options) (Config, error) {
	cfg, err := env.ParseAsWithOptions[Config](opts)
	if err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}

	cfg.normalize()

	if err = cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func (c *Config) normalize() {
	c.ReaderBase = strings.TrimSpace(c.ReaderBase)
	c.OpenAIAPIBase = strings.TrimSpace(c.OpenAIAPIBase)
	c.OpenAIAPIKey = strings.TrimSpace(c.OpenAIAPIKey)
	c.DashScopeAPIBase = strings.TrimSpace(c.DashScopeAPIBase)
	c.DashScopeAPIKey = strings.TrimSpace(c.DashScopeAPIKey)
	c.PreferredAPI = strings.ToLower(strings.TrimSpace(c.PreferredAPI))
	c.Token = strings.TrimSpace(c.Token)
	c.WhiteURLList = compact(c.WhiteURLList)
	c.BlackURLList = compact(c.BlackURLList)

	if c.Prompt == "" {
		c.Prompt = DefaultPrompt
	}
}

// Validate reports every invalid option at once.
func (c *Config) Validate() error {
	var errs []error

	if c.ReaderBase == "" {
		errs = append(errs, errors.New("JINA_READER_BASE must not be empty"))
	}
	if c.MaxWords <= 0 {
		errs = append(errs, fmt.Errorf("MAX_WORDS must be positive (got %d)", c.MaxWords))
	}
	if c.OpenAIAPIBase == "" {
		errs = append(errs, errors.New("OPEN_AI_API_BASE must not be empty"))
	}
	if c.DashScopeAPIBase == "" {
		errs = append(errs, errors.New("DASHSCOPE_API_BASE must not be empty"))
	}

	return errors.Join(errs...)
}

func compact(list []string) []string {
	out := make([]string, 0, len(list))
	for _, item := range list {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}

	return out
}
