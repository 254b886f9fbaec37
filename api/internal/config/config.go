package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"jewelry-identifier/api/internal/jewel"
)

type Config struct {
	Port string `yaml:"port"`

	// LLMProvider picks the engine for new sessions: gemini | genai | gpt.
	LLMProvider   string `yaml:"llm_provider"`
	GeminiAPIKey  string `yaml:"gemini_api_key"`
	GeminiModel   string `yaml:"gemini_model"`
	OpenAIAPIKey  string `yaml:"openai_api_key"`
	OpenAIModel   string `yaml:"openai_model"`
	OpenAIBaseURL string `yaml:"openai_base_url"`

	TelegramBotToken string `yaml:"telegram_bot_token"`
	WebhookURL       string `yaml:"webhook_url"`

	// DefaultImageURL is fetched on session start; empty means this service's own copy.
	DefaultImageURL string `yaml:"default_image_url"`
	PromptFile      string `yaml:"prompt_file"`

	SessionIdleTTL time.Duration `yaml:"session_idle_ttl"`

	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`
}

func Default() *Config {
	return &Config{
		Port:           "8000",
		LLMProvider:    "gemini",
		GeminiModel:    "gemini-2.5-flash",
		OpenAIModel:    "gpt-4o-mini",
		SessionIdleTTL: 2 * time.Hour,
		LogLevel:       "info",
		LogFormat:      "json",
	}
}

// Load applies defaults, then the YAML file at path (if any), then the environment.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path = strings.TrimSpace(path); path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(b, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	cfg.applyEnvOverrides()
	return cfg, nil
}

func (c *Config) applyEnvOverrides() {
	setString(&c.Port, "PORT")
	setString(&c.LLMProvider, "LLM_PROVIDER")
	setString(&c.GeminiAPIKey, "GEMINI_API_KEY")
	setString(&c.GeminiModel, "GEMINI_MODEL")
	setString(&c.OpenAIAPIKey, "OPENAI_API_KEY")
	setString(&c.OpenAIModel, "OPENAI_MODEL")
	setString(&c.OpenAIBaseURL, "OPENAI_BASE_URL")
	setString(&c.TelegramBotToken, "TELEGRAM_BOT_TOKEN")
	setString(&c.WebhookURL, "WEBHOOK_URL")
	setString(&c.DefaultImageURL, "DEFAULT_IMAGE_URL")
	setString(&c.PromptFile, "PROMPT_FILE")
	setString(&c.LogLevel, "LOG_LEVEL")
	setString(&c.LogFormat, "LOG_FORMAT")

	if v := getEnv("SESSION_IDLE_TTL", ""); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			c.SessionIdleTTL = d
		} else if n, err := strconv.Atoi(v); err == nil {
			c.SessionIdleTTL = time.Duration(n) * time.Second
		}
	}
}

// Validate checks that the selected provider has a key.
func (c *Config) Validate() error {
	switch strings.ToLower(strings.TrimSpace(c.LLMProvider)) {
	case "gemini", "genai", "":
		if c.GeminiAPIKey == "" {
			return errors.New("missing required env GEMINI_API_KEY")
		}
	case "gpt", "openai":
		if c.OpenAIAPIKey == "" {
			return errors.New("missing required env OPENAI_API_KEY")
		}
	default:
		return fmt.Errorf("unknown llm_provider %q; use gemini, genai or gpt", c.LLMProvider)
	}
	if _, err := strconv.Atoi(c.Port); err != nil {
		return fmt.Errorf("bad port %q", c.Port)
	}
	return nil
}

// ValidateBot additionally requires the Telegram token.
func (c *Config) ValidateBot() error {
	if err := c.Validate(); err != nil {
		return err
	}
	if c.TelegramBotToken == "" {
		return errors.New("missing required env TELEGRAM_BOT_TOKEN")
	}
	return nil
}

// ResolvedDefaultImageURL falls back to the copy served by this process.
func (c *Config) ResolvedDefaultImageURL() string {
	if u := strings.TrimSpace(c.DefaultImageURL); u != "" {
		return u
	}
	return "http://127.0.0.1:" + c.Port + jewel.DefaultImagePath
}

func getEnv(k, def string) string {
	if v := strings.TrimSpace(os.Getenv(k)); v != "" {
		return v
	}
	return def
}

func setString(dst *string, k string) {
	if v := getEnv(k, ""); v != "" {
		*dst = v
	}
}
