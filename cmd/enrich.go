package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/gaurav-prasanna/vocabpipe/config"
	"github.com/gaurav-prasanna/vocabpipe/core"
	"github.com/gaurav-prasanna/vocabpipe/core/enrich"
	"github.com/gaurav-prasanna/vocabpipe/core/fetch"
	"github.com/gaurav-prasanna/vocabpipe/core/output"
	"github.com/gaurav-prasanna/vocabpipe/core/pipeline"
	"github.com/gaurav-prasanna/vocabpipe/core/rank"
	"github.com/gaurav-prasanna/vocabpipe/core/render"
	"github.com/gaurav-prasanna/vocabpipe/core/search"
)

var (
	flagFormat    string
	flagRows      int
	flagColumns   int
	flagFontSize  float64
	flagPoolSize  int
	flagBackend   string
	flagEnrichClp bool
)

var enrichCmd = &cobra.Command{
	Use:   "enrich <file>",
	Short: "Add pictures and example sentences to a word list",
	Long: `Enrich loads a word list, finds an image and an example sentence for
every word, and renders the usable cards. Words that fail keep a
placeholder in results.yml together with the stage they failed at.

Examples:
  vocabpipe enrich words.yml
  vocabpipe enrich words.docx --format markdown --rows 4 --columns 2
  vocabpipe enrich words.xlsx --backend hashing --name offline`,
	Args: cobra.ExactArgs(1),
	RunE: runEnrich,
}

func init() {
	rootCmd.AddCommand(enrichCmd)
	enrichCmd.Flags().StringVar(&flagType, "type", "", "Input type (yaml, json, docx, xlsx); detected from the extension if empty")
	enrichCmd.Flags().StringVar(&flagFormat, "format", "", "Output format (pdf, markdown, json, yaml)")
	enrichCmd.Flags().IntVar(&flagRows, "rows", 0, "Cards per sheet column")
	enrichCmd.Flags().IntVar(&flagColumns, "columns", 0, "Cards per sheet row")
	enrichCmd.Flags().Float64Var(&flagFontSize, "font_size", 0, "Font size in points")
	enrichCmd.Flags().IntVar(&flagPoolSize, "pool_size", 0, "Image candidates fetched per word")
	enrichCmd.Flags().StringVar(&flagBackend, "backend", "", "Embedding backend (ollama, openai, hashing)")
	enrichCmd.Flags().BoolVar(&flagEnrichClp, "clipboard", false, "Also copy the enriched cards to the clipboard")
}

// applyFlags lets explicit flags override the config file.
func applyFlags(cmd *cobra.Command, cfg *config.Config) {
	f := cmd.Flags()
	if f.Changed("format") {
		cfg.Layout.Format = flagFormat
	}
	if f.Changed("rows") {
		cfg.Layout.Rows = flagRows
	}
	if f.Changed("columns") {
		cfg.Layout.Columns = flagColumns
	}
	if f.Changed("font_size") {
		cfg.Layout.FontSize = flagFontSize
	}
	if f.Changed("pool_size") {
		cfg.Images.PoolSize = flagPoolSize
	}
	if f.Changed("backend") {
		cfg.Embedder.Backend = flagBackend
	}
}

func runEnrich(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	applyFlags(cmd, cfg)

	t, err := inputType()
	if err != nil {
		return err
	}
	renderer, err := render.New(cfg.Layout.Format)
	if err != nil {
		return err
	}
	enricher, err := buildEnricher(cfg)
	if err != nil {
		return err
	}
	writer, err := output.New(flagOutputDir, flagName)
	if err != nil {
		return fmt.Errorf("initializing output writer: %w", err)
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), cfg.Enrich.RunTimeout)
	defer cancel()

	results, err := pipeline.Run(ctx,
		pipeline.LoadStage{Path: args[0], Type: t},
		pipeline.EnrichStage{Enricher: enricher},
	)
	if err != nil {
		return err
	}
	if err := pipeline.Dump(writer, results); err != nil {
		return err
	}

	doc, err := (pipeline.RenderStage{Renderer: renderer, Layout: cfg.CoreLayout()}).Run(ctx, results)
	if err != nil {
		if errors.Is(err, core.ErrNoCandidates) {
			log.Error().Str("target", "pipeline").Msg("no word could be enriched, see results.yml")
		}
		return err
	}
	if err := pipeline.Dump(writer, doc); err != nil {
		return err
	}

	if flagEnrichClp {
		clip, err := pipeline.ClipboardStage{}.Run(ctx, results)
		if err != nil {
			return err
		}
		if err := pipeline.Dump(writer, clip); err != nil {
			return err
		}
	}

	usable := len(core.Usable(results.(pipeline.Results)))
	fmt.Fprintf(os.Stdout, "✓ %d/%d cards enriched into %s\n", usable, count(results), writer.OutputDir)
	return nil
}

// buildEnricher wires the fetcher, searchers, reranker and the keyword
// fallback from cfg.
func buildEnricher(cfg *config.Config) (*enrich.Enricher, error) {
	fetcher, err := fetch.New(cfg.FetchOptions())
	if err != nil {
		return nil, fmt.Errorf("initializing fetcher: %w", err)
	}
	factory, err := rank.NewFactory(cfg.RankOptions())
	if err != nil {
		return nil, err
	}
	ranker := rank.NewReranker(factory)

	dict := enrich.NewFallbackDictionary(
		search.NewDictionary(fetcher, cfg.Dictionary.URL),
		rank.NewKeywordExtractor(ranker),
		cfg.Dictionary.FallbackAttempts,
		cfg.Dictionary.Retries,
		cfg.Dictionary.Backoff,
	)
	images := search.NewImageSearcher(fetcher, cfg.Images.SearchURL)
	return enrich.New(images, dict, ranker, fetcher, cfg.EnrichOptions()), nil
}
