package config

import (
	"errors"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// OpenAIConfig holds configuration for the OpenAI-compatible generator.
type OpenAIConfig struct {
	BaseURL     string `yaml:"base_url"`
	APIKeyEnv   string `yaml:"api_key_env"`
	TimeoutSecs int    `yaml:"timeout_secs"`
	// MaxRetries is nil when unset; 0 turns retries off.
	MaxRetries  *int   `yaml:"max_retries,omitempty"`
}

const defaultMaxRetries = 2

// Retries returns the configured retry count, or the default when unset.
func (c *OpenAIConfig) Retries() int {
	if c == nil || c.MaxRetries == nil {
		return defaultMaxRetries
	}
	return *c.MaxRetries
}

// ExtractiveConfig configures the local extractive generator.
type ExtractiveConfig struct {
	MaxSentences int `yaml:"max_sentences"`
	DelayMillis  int `yaml:"delay_millis"`
}

// GeneratorConfig selects and configures the generation client.
type GeneratorConfig struct {
	Type       string            `yaml:"type"`
	OpenAI     *OpenAIConfig     `yaml:"openai,omitempty"`
	Extractive *ExtractiveConfig `yaml:"extractive,omitempty"`
}

// SettingsConfig are the per-turn generation settings.
type SettingsConfig struct {
	Model             string  `yaml:"model"`
	Temperature       float64 `yaml:"temperature"`
	SystemInstruction string  `yaml:"system_instruction"`
}

// ChunkerConfig configures how the corpus is split into chunks.
type ChunkerConfig struct {
	MaxChunkChars int `yaml:"max_chunk_chars"`
}

// RankerConfig configures context selection.
type RankerConfig struct {
	TopK int `yaml:"top_k"`
}

// BudgetConfig sets the session token budget.
type BudgetConfig struct {
	TotalTokens            int `yaml:"total_tokens"`
	EstimatedTokensPerTurn int `yaml:"estimated_tokens_per_turn"`
}

// StoreConfig selects and configures the key/value store.
type StoreConfig struct {
	Type  string       `yaml:"type"`
	Redis *RedisConfig `yaml:"redis,omitempty"`
}

// RedisConfig contains connection details for the Redis store.
type RedisConfig struct {
	Addr        string `yaml:"addr"`
	Password    string `yaml:"password"`
	DB          int    `yaml:"db"`
	Prefix      string `yaml:"prefix"`
	TimeoutSecs int    `yaml:"timeout_secs"`
}

// LogConfig configures the zap logger.
type LogConfig struct {
	Level       string `yaml:"level"`
	File        string `yaml:"file"`
	Development bool   `yaml:"development"`
}

// MetricsConfig sets the Prometheus listen address. Empty disables it.
type MetricsConfig struct {
	Addr string `yaml:"addr"`
}

// SummarizerConfig configures the corpus summary shown on load.
type SummarizerConfig struct {
	MaxSentences int `yaml:"max_sentences"`
}

// AppConfig is the root application configuration structure.
type AppConfig struct {
	Generator  GeneratorConfig  `yaml:"generator"`
	Settings   SettingsConfig   `yaml:"settings"`
	Chunker    ChunkerConfig    `yaml:"chunker"`
	Ranker     RankerConfig     `yaml:"ranker"`
	Budget     BudgetConfig     `yaml:"budget"`
	Summarizer SummarizerConfig `yaml:"summarizer"`
	Store      StoreConfig      `yaml:"store"`
	Log        LogConfig        `yaml:"log"`
	Metrics    MetricsConfig    `yaml:"metrics"`
	ExportDir  string           `yaml:"export_dir"`
}

// Load reads a config from a specified path. If the file does not exist, returns defaults.
func Load(path string) (*AppConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			cfg := defaultConfig()
			return cfg, nil
		}
		return nil, err
	}
	var cfg AppConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	applyConfigDefaults(&cfg)
	return &cfg, nil
}

// LoadDefault tries ./config.yaml first, then ~/.config/docchat/config.yaml.
// If neither exists, it writes defaults to ~/.config/docchat/config.yaml and returns them.
func LoadDefault() (*AppConfig, string, error) {
	cwdPath := "config.yaml"
	if _, err := os.Stat(cwdPath); err == nil {
		cfg, err := Load(cwdPath)
		return cfg, cwdPath, err
	}
	userPath, err := defaultUserConfigPath()
	if err != nil {
		return nil, "", err
	}
	if _, err := os.Stat(userPath); err == nil {
		cfg, err := Load(userPath)
		return cfg, userPath, err
	}
	cfg := defaultConfig()
	if err := Save(userPath, cfg); err != nil {
		return nil, "", err
	}
	return cfg, userPath, nil
}

// Save writes the config to the given path, creating directories as needed.
func Save(path string, cfg *AppConfig) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func defaultUserConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "docchat", "config.yaml"), nil
}

func defaultConfig() *AppConfig {
	cfg := &AppConfig{
		Generator: GeneratorConfig{Type: "extractive"},
		Settings:  SettingsConfig{Model: "gpt-4o-mini", Temperature: 0.2},
		Store:     StoreConfig{Type: "memory"},
		Log:       LogConfig{Level: "info"},
	}
	applyConfigDefaults(cfg)
	return cfg
}

func applyConfigDefaults(cfg *AppConfig) {
	if cfg.Generator.Type == "" {
		cfg.Generator.Type = "extractive"
	}
	if cfg.Generator.Type == "openai" {
		if cfg.Generator.OpenAI == nil {
			cfg.Generator.OpenAI = &OpenAIConfig{}
		}
		if cfg.Generator.OpenAI.BaseURL == "" {
			cfg.Generator.OpenAI.BaseURL = "https://api.openai.com/v1"
		}
		if cfg.Generator.OpenAI.APIKeyEnv == "" {
			cfg.Generator.OpenAI.APIKeyEnv = "OPENAI_API_KEY"
		}
		if cfg.Generator.OpenAI.TimeoutSecs == 0 {
			cfg.Generator.OpenAI.TimeoutSecs = 30
		}
		if cfg.Generator.OpenAI.MaxRetries == nil {
			n := defaultMaxRetries
			cfg.Generator.OpenAI.MaxRetries = &n
		}
	}
	if cfg.Generator.Type == "extractive" {
		if cfg.Generator.Extractive == nil {
			cfg.Generator.Extractive = &ExtractiveConfig{}
		}
		if cfg.Generator.Extractive.MaxSentences == 0 {
			cfg.Generator.Extractive.MaxSentences = 3
		}
	}
	if cfg.Settings.Model == "" {
		cfg.Settings.Model = "gpt-4o-mini"
	}
	if cfg.Settings.Temperature < 0 {
		cfg.Settings.Temperature = 0
	}
	if cfg.Settings.Temperature > 1 {
		cfg.Settings.Temperature = 1
	}
	if cfg.Chunker.MaxChunkChars <= 0 {
		cfg.Chunker.MaxChunkChars = 2000
	}
	if cfg.Ranker.TopK <= 0 {
		cfg.Ranker.TopK = 5
	}
	if cfg.Budget.TotalTokens <= 0 {
		cfg.Budget.TotalTokens = 100000
	}
	if cfg.Budget.EstimatedTokensPerTurn <= 0 {
		cfg.Budget.EstimatedTokensPerTurn = 1500
	}
	if cfg.Summarizer.MaxSentences <= 0 {
		cfg.Summarizer.MaxSentences = 3
	}
	if cfg.Store.Type == "" {
		cfg.Store.Type = "memory"
	}
	if cfg.Store.Type == "redis" {
		if cfg.Store.Redis == nil {
			cfg.Store.Redis = &RedisConfig{}
		}
		if cfg.Store.Redis.Addr == "" {
			cfg.Store.Redis.Addr = "localhost:6379"
		}
		if cfg.Store.Redis.Prefix == "" {
			cfg.Store.Redis.Prefix = "docchat"
		}
		if cfg.Store.Redis.TimeoutSecs == 0 {
			cfg.Store.Redis.TimeoutSecs = 5
		}
	}
	if cfg.ExportDir == "" {
		cfg.ExportDir = "."
	}
}
