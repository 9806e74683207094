package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// LLMConfig configures the Ollama generation endpoint.
type LLMConfig struct {
	Model       string  `yaml:"model"`
	Host        string  `yaml:"host"`
	TimeoutSecs int     `yaml:"timeout_secs"`
	Temperature float64 `yaml:"temperature"`
}

// EmbedderConfig selects and configures the text embedder implementation.
// Type is "ollama" or "tfidf".
type EmbedderConfig struct {
	Type        string `yaml:"type"`
	Model       string `yaml:"model"`
	Host        string `yaml:"host"`
	TimeoutSecs int    `yaml:"timeout_secs"`
	MaxRetries  int    `yaml:"max_retries"`
}

// ChunkerConfig configures section trimming and sentence grouping.
type ChunkerConfig struct {
	FirstSection string `yaml:"first_section"`
	IgnoreAfter  string `yaml:"ignore_after"`
	GroupSize    int    `yaml:"group_size"`
	Overlap      int    `yaml:"overlap"`
}

// VectorStoreConfig selects and configures the vector store implementation.
// Type is "memory" or "qdrant".
type VectorStoreConfig struct {
	Type   string       `yaml:"type"`
	Qdrant QdrantConfig `yaml:"qdrant"`
}

// QdrantConfig contains connection details for a Qdrant vector store. Each
// session gets its own collection named CollectionPrefix plus the session id.
type QdrantConfig struct {
	URL              string `yaml:"url"`
	APIKey           string `yaml:"api_key"`
	CollectionPrefix string `yaml:"collection_prefix"`
	TimeoutSecs      int    `yaml:"timeout_secs"`
}

// RetrievalConfig tunes the query engines.
type RetrievalConfig struct {
	TopK             int `yaml:"top_k"`
	ContextChars     int `yaml:"context_chars"`
	EmbedConcurrency int `yaml:"embed_concurrency"`
}

// RouterConfig selects the query router. Selector is "llm" or "keyword".
type RouterConfig struct {
	Selector string `yaml:"selector"`
}

// SummarizerConfig configures the extractive preview shown after upload.
type SummarizerConfig struct {
	MaxSentences int `yaml:"max_sentences"`
}

// LoggingConfig configures the slog handler. Format is "text" or "json".
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	File   string `yaml:"file"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Addr        string `yaml:"addr"`
	MaxUploadMB int    `yaml:"max_upload_mb"`
	// APIKey, when set, is required as a bearer token.
	APIKey string `yaml:"api_key"`
}

// AppConfig is the root application configuration structure.
type AppConfig struct {
	LLM         LLMConfig         `yaml:"llm"`
	Embedder    EmbedderConfig    `yaml:"embedder"`
	Chunker     ChunkerConfig     `yaml:"chunker"`
	VectorStore VectorStoreConfig `yaml:"vector_store"`
	Retrieval   RetrievalConfig   `yaml:"retrieval"`
	Router      RouterConfig      `yaml:"router"`
	Summarizer  SummarizerConfig  `yaml:"summarizer"`
	Logging     LoggingConfig     `yaml:"logging"`
	Server      ServerConfig      `yaml:"server"`
}

// Load reads a config from path on top of the defaults. If the file does
// not exist, the defaults are returned.
func Load(path string) (*AppConfig, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return nil, err
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	applyConfigDefaults(cfg)
	return cfg, nil
}

// LoadDefault tries ./config.yaml first, then ~/.config/pdfrag/config.yaml.
// If neither exists, it writes defaults to ~/.config/pdfrag/config.yaml and returns them.
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
	cfg := Default()
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

// Validate rejects configurations the pipeline cannot run with.
func (c *AppConfig) Validate() error {
	var errs []error
	if c.Chunker.GroupSize <= 0 {
		errs = append(errs, fmt.Errorf("chunker.group_size must be positive, got %d", c.Chunker.GroupSize))
	}
	if c.Chunker.Overlap < 0 || c.Chunker.Overlap >= c.Chunker.GroupSize {
		errs = append(errs, fmt.Errorf("chunker.overlap must be in [0, group_size), got %d", c.Chunker.Overlap))
	}
	switch c.Embedder.Type {
	case "ollama", "tfidf":
	default:
		errs = append(errs, fmt.Errorf("embedder.type %q is not one of ollama, tfidf", c.Embedder.Type))
	}
	switch c.VectorStore.Type {
	case "memory":
	case "qdrant":
		if c.VectorStore.Qdrant.URL == "" {
			errs = append(errs, errors.New("vector_store.qdrant.url is required"))
		}
	default:
		errs = append(errs, fmt.Errorf("vector_store.type %q is not one of memory, qdrant", c.VectorStore.Type))
	}
	switch c.Router.Selector {
	case "llm", "keyword":
	default:
		errs = append(errs, fmt.Errorf("router.selector %q is not one of llm, keyword", c.Router.Selector))
	}
	switch strings.ToLower(c.Logging.Format) {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("logging.format %q is not one of text, json", c.Logging.Format))
	}
	if c.LLM.Temperature < 0 {
		errs = append(errs, fmt.Errorf("llm.temperature must not be negative, got %g", c.LLM.Temperature))
	}
	return errors.Join(errs...)
}

func defaultUserConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "pdfrag", "config.yaml"), nil
}

// Default returns the built-in configuration.
func Default() *AppConfig {
	return &AppConfig{
		LLM: LLMConfig{
			Model:       "phi3",
			Host:        "http://localhost:11434",
			TimeoutSecs: 3600,
			Temperature: 1,
		},
		Embedder: EmbedderConfig{
			Type:        "ollama",
			Model:       "nomic-embed-text",
			Host:        "http://localhost:11434",
			TimeoutSecs: 60,
			MaxRetries:  3,
		},
		Chunker: ChunkerConfig{
			FirstSection: "abstract",
			IgnoreAfter:  "references",
			GroupSize:    20,
			Overlap:      1,
		},
		VectorStore: VectorStoreConfig{
			Type: "memory",
			Qdrant: QdrantConfig{
				URL:              "http://localhost:6333",
				CollectionPrefix: "pdfrag",
				TimeoutSecs:      15,
			},
		},
		Retrieval:  RetrievalConfig{TopK: 2, ContextChars: 12000, EmbedConcurrency: 4},
		Router:     RouterConfig{Selector: "llm"},
		Summarizer: SummarizerConfig{MaxSentences: 3},
		Logging:    LoggingConfig{Level: "info", Format: "text"},
		Server:     ServerConfig{Addr: ":8080", MaxUploadMB: 50},
	}
}

// applyConfigDefaults fills zero values a YAML file may have blanked.
func applyConfigDefaults(cfg *AppConfig) {
	def := Default()
	if cfg.LLM.Model == "" {
		cfg.LLM.Model = def.LLM.Model
	}
	if cfg.LLM.Host == "" {
		cfg.LLM.Host = def.LLM.Host
	}
	if cfg.LLM.TimeoutSecs == 0 {
		cfg.LLM.TimeoutSecs = def.LLM.TimeoutSecs
	}
	if cfg.Embedder.Type == "" {
		cfg.Embedder.Type = def.Embedder.Type
	}
	if cfg.Embedder.Type == "ollama" {
		if cfg.Embedder.Model == "" {
			cfg.Embedder.Model = def.Embedder.Model
		}
		if cfg.Embedder.Host == "" {
			cfg.Embedder.Host = cfg.LLM.Host
		}
		if cfg.Embedder.TimeoutSecs == 0 {
			cfg.Embedder.TimeoutSecs = def.Embedder.TimeoutSecs
		}
	}
	if cfg.Chunker.GroupSize == 0 {
		cfg.Chunker.GroupSize = def.Chunker.GroupSize
	}
	if cfg.VectorStore.Type == "" {
		cfg.VectorStore.Type = def.VectorStore.Type
	}
	if cfg.VectorStore.Qdrant.CollectionPrefix == "" {
		cfg.VectorStore.Qdrant.CollectionPrefix = def.VectorStore.Qdrant.CollectionPrefix
	}
	if cfg.Retrieval.TopK == 0 {
		cfg.Retrieval.TopK = def.Retrieval.TopK
	}
	if cfg.Router.Selector == "" {
		cfg.Router.Selector = def.Router.Selector
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = def.Logging.Format
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = def.Logging.Level
	}
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = def.Server.Addr
	}
}
