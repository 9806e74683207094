// Package cli wires configuration, logging and the session service into
// the pdfrag command line.
package cli

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"pdfrag/internal/config"
	"pdfrag/internal/logging"
)

var (
	cfgFile       string
	v             = config.NewViper()
	currentConfig *config.AppConfig
	configPath    string
	logger        = slog.Default()
	appVersion    = "dev"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:           "pdfrag",
	Short:         "pdfrag — ask questions about a PDF with a local model",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		_ = godotenv.Load()

		cfg, path, err := loadConfig()
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		config.ApplyOverrides(cfg, v)
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("invalid configuration: %w", err)
		}
		currentConfig, configPath = cfg, path

		logger, err = logging.Init(logging.Options{
			Level:  cfg.Logging.Level,
			Format: cfg.Logging.Format,
			File:   cfg.Logging.File,
			Debug:  v.GetBool("debug"),
		})
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
}

// Execute runs the root command. It is called by main.main().
func Execute() {
	rootCmd.Version = appVersion
	defer logging.Close()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// SetVersion lets the main package inject a build-time version.
func SetVersion(version string) { appVersion = version }

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&cfgFile, "config", "c", "", "config file (default ./config.yaml or ~/.config/pdfrag/config.yaml)")
	flags.Bool("debug", false, "enable debug logging")
	flags.String("logFile", "", "append logs to this file")
	flags.String("logFormat", "", "log format: text or json")
	flags.String("model", "", "Ollama model used for answers and routing")
	flags.String("host", "", "Ollama base URL")
	flags.String("embedder", "", "embedder: ollama or tfidf")
	flags.String("store", "", "vector store: memory or qdrant")
	flags.String("selector", "", "query router: llm or keyword")
	flags.Int("topK", 0, "chunks retrieved per specific question")

	_ = v.BindPFlag("debug", flags.Lookup("debug"))
	_ = v.BindPFlag("logging.file", flags.Lookup("logFile"))
	_ = v.BindPFlag("logging.format", flags.Lookup("logFormat"))
	_ = v.BindPFlag("llm.model", flags.Lookup("model"))
	_ = v.BindPFlag("llm.host", flags.Lookup("host"))
	_ = v.BindPFlag("embedder.type", flags.Lookup("embedder"))
	_ = v.BindPFlag("vector_store.type", flags.Lookup("store"))
	_ = v.BindPFlag("router.selector", flags.Lookup("selector"))
	_ = v.BindPFlag("retrieval.top_k", flags.Lookup("topK"))
}

func loadConfig() (*config.AppConfig, string, error) {
	if cfgFile == "" {
		return config.LoadDefault()
	}
	cfg, err := config.Load(cfgFile)
	return cfg, cfgFile, err
}
