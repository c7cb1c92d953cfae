// Package config loads service configuration from a YAML file with
// environment variable overrides.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// envPrefix namespaces the override variables, e.g.
// DOCQUERY_SERVER_ADDR -> server.addr
const envPrefix = "DOCQUERY_"

// ServerConfig controls the HTTP listener.
type ServerConfig struct {
	Addr            string `koanf:"addr"`
	ReadTimeoutSec  int    `koanf:"read_timeout_secs"`
	WriteTimeoutSec int    `koanf:"write_timeout_secs"`
	IdleTimeoutSec  int    `koanf:"idle_timeout_secs"`
}

// StorageConfig locates the durable data directory.
type StorageConfig struct {
	Dir string `koanf:"dir"`
}

// IndexConfig selects the index backend.
type IndexConfig struct {
	// Backend is "chromem" (persistent vector index, needs an
	// embedding provider) or "memory" (lexical, embedding-free).
	Backend string `koanf:"backend"`
}

// EmbeddingConfig configures the embedding provider.
type EmbeddingConfig struct {
	BaseURL string `koanf:"base_url"`
	Model   string `koanf:"model"`
}

// LLMConfig configures answer generation.
type LLMConfig struct {
	BaseURL     string `koanf:"base_url"`
	Model       string `koanf:"model"`
	TimeoutSecs int    `koanf:"timeout_secs"`
	TopK        int    `koanf:"top_k"`
}

// ChunkingConfig controls how extracted text is split for indexing.
type ChunkingConfig struct {
	MaxTokens int `koanf:"max_tokens"`
	Overlap   int `koanf:"overlap"`
}

// LogConfig controls structured logging.
type LogConfig struct {
	Level  string `koanf:"level"`  // debug, info, warn, error
	Format string `koanf:"format"` // json or console
}

// Config is the root configuration.
type Config struct {
	Server    ServerConfig    `koanf:"server"`
	Storage   StorageConfig   `koanf:"storage"`
	Index     IndexConfig     `koanf:"index"`
	Embedding EmbeddingConfig `koanf:"embedding"`
	LLM       LLMConfig       `koanf:"llm"`
	Chunking  ChunkingConfig  `koanf:"chunking"`
	Log       LogConfig       `koanf:"log"`

	// APIKey is read from the OPENAI_API_KEY environment variable and
	// passed through to the embedding and generation providers without
	// validation. It is never written to the config file.
	APIKey string `koanf:"-"`
}

// Load reads configuration with precedence: env vars over YAML file over
// defaults. A missing config file is fine; defaults apply.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if path != "" {
		content, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return nil, fmt.Errorf("reading config file %s: %w", path, err)
			}
		} else if err := k.Load(rawbytes.Provider(content), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("parsing config file %s: %w", path, err)
		}
	}

	// DOCQUERY_SERVER_ADDR -> server.addr
	// DOCQUERY_LLM_TIMEOUT_SECS -> llm.timeout_secs
	if err := k.Load(env.Provider(envPrefix, ".", func(s string) string {
		lower := strings.ToLower(strings.TrimPrefix(s, envPrefix))
		parts := strings.SplitN(lower, "_", 2)
		if len(parts) == 1 {
			return lower
		}
		return parts[0] + "." + parts[1]
	}), nil); err != nil {
		return nil, fmt.Errorf("loading environment variables: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	applyDefaults(&cfg)
	cfg.APIKey = os.Getenv("OPENAI_API_KEY")
	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = ":8080"
	}
	if cfg.Server.ReadTimeoutSec == 0 {
		cfg.Server.ReadTimeoutSec = 15
	}
	if cfg.Server.WriteTimeoutSec == 0 {
		cfg.Server.WriteTimeoutSec = 60
	}
	if cfg.Server.IdleTimeoutSec == 0 {
		cfg.Server.IdleTimeoutSec = 60
	}
	if cfg.Index.Backend == "" {
		cfg.Index.Backend = "chromem"
	}
	if cfg.Embedding.BaseURL == "" {
		cfg.Embedding.BaseURL = "https://api.openai.com/v1"
	}
	if cfg.Embedding.Model == "" {
		cfg.Embedding.Model = "text-embedding-3-small"
	}
	if cfg.LLM.Model == "" {
		cfg.LLM.Model = "gpt-4o-mini"
	}
	if cfg.LLM.TimeoutSecs == 0 {
		cfg.LLM.TimeoutSecs = 60
	}
	if cfg.LLM.TopK == 0 {
		cfg.LLM.TopK = 4
	}
	if cfg.Chunking.MaxTokens == 0 {
		cfg.Chunking.MaxTokens = 400
	}
	if cfg.Chunking.Overlap == 0 {
		cfg.Chunking.Overlap = 50
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "json"
	}
}

// NewLogger builds a zap logger from the log section.
func NewLogger(cfg LogConfig) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", cfg.Level, err)
	}

	var zcfg zap.Config
	if cfg.Format == "console" {
		zcfg = zap.NewDevelopmentConfig()
	} else {
		zcfg = zap.NewProductionConfig()
	}
	zcfg.Level = zap.NewAtomicLevelAt(level)

	logger, err := zcfg.Build()
	if err != nil {
		return nil, fmt.Errorf("building logger: %w", err)
	}
	return logger, nil
}
