package config

import (
	"strings"

	"github.com/spf13/viper"
)

// EnvPrefix namespaces environment overrides, e.g. PDFRAG_LLM_MODEL.
const EnvPrefix = "PDFRAG"

// NewViper returns a viper instance reading PDFRAG_* environment variables
// for the dotted config keys.
func NewViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for _, key := range OverrideKeys {
		_ = v.BindEnv(key)
	}
	return v
}

// OverrideKeys lists the config keys that flags and environment variables
// may override.
var OverrideKeys = []string{
	"llm.model", "llm.host", "llm.timeout_secs", "llm.temperature",
	"embedder.type", "embedder.model", "embedder.host",
	"chunker.first_section", "chunker.ignore_after", "chunker.group_size", "chunker.overlap",
	"vector_store.type", "vector_store.qdrant.url", "vector_store.qdrant.api_key",
	"retrieval.top_k", "router.selector",
	"logging.level", "logging.format", "logging.file",
	"server.addr", "server.api_key",
}

// ApplyOverrides copies every key set in v onto cfg.
func ApplyOverrides(cfg *AppConfig, v *viper.Viper) {
	str := func(key string, dst *string) {
		if v.IsSet(key) {
			*dst = v.GetString(key)
		}
	}
	num := func(key string, dst *int) {
		if v.IsSet(key) {
			*dst = v.GetInt(key)
		}
	}
	str("llm.model", &cfg.LLM.Model)
	str("llm.host", &cfg.LLM.Host)
	num("llm.timeout_secs", &cfg.LLM.TimeoutSecs)
	if v.IsSet("llm.temperature") {
		cfg.LLM.Temperature = v.GetFloat64("llm.temperature")
	}
	str("embedder.type", &cfg.Embedder.Type)
	str("embedder.model", &cfg.Embedder.Model)
	str("embedder.host", &cfg.Embedder.Host)
	str("chunker.first_section", &cfg.Chunker.FirstSection)
	str("chunker.ignore_after", &cfg.Chunker.IgnoreAfter)
	num("chunker.group_size", &cfg.Chunker.GroupSize)
	num("chunker.overlap", &cfg.Chunker.Overlap)
	str("vector_store.type", &cfg.VectorStore.Type)
	str("vector_store.qdrant.url", &cfg.VectorStore.Qdrant.URL)
	str("vector_store.qdrant.api_key", &cfg.VectorStore.Qdrant.APIKey)
	num("retrieval.top_k", &cfg.Retrieval.TopK)
	str("router.selector", &cfg.Router.Selector)
	str("logging.level", &cfg.Logging.Level)
	str("logging.format", &cfg.Logging.Format)
	str("logging.file", &cfg.Logging.File)
	str("server.addr", &cfg.Server.Addr)
	str("server.api_key", &cfg.Server.APIKey)
}
