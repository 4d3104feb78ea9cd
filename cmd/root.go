// Package cmd implements the CLI commands for vocabpipe using Cobra.
package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/gaurav-prasanna/vocabpipe/config"
	"github.com/gaurav-prasanna/vocabpipe/core/output"
)

// Persistent flags.
var (
	flagLevel     string
	flagName      string
	flagConfig    string
	flagOutputDir string
)

var rootCmd = &cobra.Command{
	Use:   "vocabpipe",
	Short: "vocabpipe turns word lists into printable visual flashcards",
	Long: `vocabpipe loads a vocabulary list (YAML, JSON, DOCX or XLSX), finds a
picture and an example sentence for every word, and renders the cards as a
duplex-printable PDF, Markdown, JSON or YAML document.

Usage:
  vocabpipe load <file> [flags]
  vocabpipe enrich <file> [flags]`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		_ = godotenv.Load()
		return setupLogger(flagLevel)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagLevel, "level", "info", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&flagName, "name", "default", "Run name, used as the output sub-directory")
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", config.DefaultPath, "Config file (defaults apply if missing)")
	rootCmd.PersistentFlags().StringVar(&flagOutputDir, "output_dir", output.DefaultDir, "Output root directory")
}

func setupLogger(level string) error {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || lvl == zerolog.NoLevel {
		return fmt.Errorf("invalid --level %q", level)
	}
	zerolog.SetGlobalLevel(lvl)
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339})
	return nil
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(flagConfig)
	if err != nil {
		return nil, err
	}
	log.Debug().Str("target", "pipeline").Str("config", flagConfig).Interface("layout", cfg.Layout).Msg("config loaded")
	return cfg, nil
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
