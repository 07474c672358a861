package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	HTTP struct {
		Port         string   `yaml:"port"`
		AllowOrigins []string `yaml:"allow_origins"`
		MaxUpload    int64    `yaml:"max_upload"`
	} `yaml:"http"`
	LLM struct {
		Provider       string        `yaml:"provider"`
		Model          string        `yaml:"model"`
		GeminiKey      string        `yaml:"gemini_key"`
		OpenAIKey      string        `yaml:"openai_key"`
		AnthropicKey   string        `yaml:"anthropic_key"`
		Timeout        time.Duration `yaml:"timeout"`
		MaxRetries     uint64        `yaml:"max_retries"`
		RetryBackoff   time.Duration `yaml:"retry_backoff"`
		RepairAttempts int           `yaml:"repair_attempts"`
	} `yaml:"llm"`
	Database struct {
		URL string `yaml:"url"`
	} `yaml:"database"`
	Redis struct {
		URL string `yaml:"url"`
	} `yaml:"redis"`
	RabbitMQ struct {
		URL string `yaml:"url"`
	} `yaml:"rabbitmq"`
	R2 struct {
		AccountID string `yaml:"account_id"`
		Bucket    string `yaml:"bucket"`
		AccessKey string `yaml:"access_key"`
		SecretKey string `yaml:"secret_key"`
	} `yaml:"r2"`
	Recorder struct {
		MaxSaveAttempts int `yaml:"max_save_attempts"`
	} `yaml:"recorder"`
	Log struct {
		Level string `yaml:"level"`
	} `yaml:"log"`
}

func Default() Config {
	var cfg Config
	cfg.HTTP.Port = "8080"
	cfg.HTTP.AllowOrigins = []string{"http://localhost:3000"}
	cfg.HTTP.MaxUpload = 5 << 20
	cfg.LLM.Provider = "gemini"
	cfg.LLM.Timeout = 60 * time.Second
	cfg.LLM.MaxRetries = 2
	cfg.LLM.RetryBackoff = 500 * time.Millisecond
	cfg.Recorder.MaxSaveAttempts = 3
	cfg.Log.Level = "info"
	return cfg
}

// Load reads the optional YAML file at path and then applies environment
// overrides. A missing file is not an error.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return cfg, err
			}
		} else {
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return cfg, fmt.Errorf("parse %s: %w", path, err)
			}
		}
	}

	if err := applyEnv(&cfg); err != nil {
		return cfg, err
	}
	return cfg, cfg.validate()
}

func (c Config) validate() error {
	switch strings.ToLower(c.LLM.Provider) {
	case "gemini", "openai", "anthropic":
	default:
		return fmt.Errorf("unknown llm.provider %q", c.LLM.Provider)
	}
	if c.LLM.Timeout <= 0 {
		return errors.New("llm.timeout must be positive")
	}
	if c.LLM.RepairAttempts < 0 {
		return errors.New("llm.repair_attempts must not be negative")
	}
	return nil
}

// APIKey returns the key of the configured provider.
func (c Config) APIKey() string {
	switch strings.ToLower(c.LLM.Provider) {
	case "openai":
		return c.LLM.OpenAIKey
	case "anthropic":
		return c.LLM.AnthropicKey
	}
	return c.LLM.GeminiKey
}

func (c Config) R2Enabled() bool {
	return c.R2.AccountID != "" && c.R2.Bucket != "" && c.R2.AccessKey != "" && c.R2.SecretKey != ""
}

func (c Config) SlogLevel() slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.Log.Level)); err != nil {
		return slog.LevelInfo
	}
	return level
}

func applyEnv(cfg *Config) error {
	if v := os.Getenv("PORT"); v != "" {
		cfg.HTTP.Port = v
	}
	if v := os.Getenv("FRONTEND_URL"); v != "" {
		cfg.HTTP.AllowOrigins = append(cfg.HTTP.AllowOrigins, splitCSV(v)...)
	}
	if v := os.Getenv("LLM_PROVIDER"); v != "" {
		cfg.LLM.Provider = strings.ToLower(strings.TrimSpace(v))
	}
	if v := os.Getenv("LLM_MODEL"); v != "" {
		cfg.LLM.Model = v
	}
	if v := os.Getenv("GEMINI_API_KEY"); v != "" {
		cfg.LLM.GeminiKey = v
	}
	if v := os.Getenv("OPENAI_API_KEY"); v != "" {
		cfg.LLM.OpenAIKey = v
	}
	if v := os.Getenv("ANTHROPIC_API_KEY"); v != "" {
		cfg.LLM.AnthropicKey = v
	}
	if v := os.Getenv("LLM_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("LLM_TIMEOUT: %w", err)
		}
		cfg.LLM.Timeout = d
	}
	if v := os.Getenv("LLM_MAX_RETRIES"); v != "" {
		n, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return fmt.Errorf("LLM_MAX_RETRIES: %w", err)
		}
		cfg.LLM.MaxRetries = n
	}
	if v := os.Getenv("LLM_RETRY_BACKOFF"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("LLM_RETRY_BACKOFF: %w", err)
		}
		cfg.LLM.RetryBackoff = d
	}
	if v := os.Getenv("LLM_REPAIR_ATTEMPTS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("LLM_REPAIR_ATTEMPTS: %w", err)
		}
		cfg.LLM.RepairAttempts = n
	}
	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.Database.URL = v
	}
	if v := os.Getenv("REDIS_URL"); v != "" {
		cfg.Redis.URL = v
	}
	if v := os.Getenv("RABBITMQ_URL"); v != "" {
		cfg.RabbitMQ.URL = v
	}
	if v := os.Getenv("R2_ACCOUNT_ID"); v != "" {
		cfg.R2.AccountID = v
	}
	if v := os.Getenv("R2_BUCKET"); v != "" {
		cfg.R2.Bucket = v
	}
	if v := os.Getenv("R2_ACCESS_KEY"); v != "" {
		cfg.R2.AccessKey = v
	}
	if v := os.Getenv("R2_SECRET_KEY"); v != "" {
		cfg.R2.SecretKey = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	return nil
}

func splitCSV(input string) []string {
	parts := strings.Split(input, ",")
	var out []string
	for _, part := range parts {
		val := strings.TrimSpace(part)
		if val == "" {
			continue
		}
		out = append(out, val)
	}
	return out
}
