package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/gaurav-prasanna/vocabpipe/core/load"
	"github.com/gaurav-prasanna/vocabpipe/core/output"
	"github.com/gaurav-prasanna/vocabpipe/core/pipeline"
)

var (
	flagType      string
	flagClipboard bool
)

var loadCmd = &cobra.Command{
	Use:   "load <file>",
	Short: "Load and clean a flashcard file",
	Long: `Load reads a word list, cleans every pair and writes it back as
flashcard.yml, or copies it to the clipboard as tab-separated lines.

Examples:
  vocabpipe load words.docx
  vocabpipe load words.xlsx --clipboard --name week3`,
	Args: cobra.ExactArgs(1),
	RunE: runLoad,
}

func init() {
	rootCmd.AddCommand(loadCmd)
	loadCmd.Flags().StringVar(&flagType, "type", "", "Input type (yaml, json, docx, xlsx); detected from the extension if empty")
	loadCmd.Flags().BoolVar(&flagClipboard, "clipboard", false, "Copy the cards to the clipboard instead of writing flashcard.yml")
}

func inputType() (load.FileType, error) {
	if flagType == "" {
		return "", nil
	}
	return load.ParseFileType(flagType)
}

func runLoad(cmd *cobra.Command, args []string) error {
	t, err := inputType()
	if err != nil {
		return err
	}
	writer, err := output.New(flagOutputDir, flagName)
	if err != nil {
		return fmt.Errorf("initializing output writer: %w", err)
	}

	stages := []pipeline.Stage{pipeline.LoadStage{Path: args[0], Type: t}}
	if flagClipboard {
		stages = append(stages, pipeline.ClipboardStage{})
	}
	out, err := pipeline.Run(cmd.Context(), stages...)
	if err != nil {
		return err
	}
	if err := pipeline.Dump(writer, out); err != nil {
		return err
	}
	fmt.Fprintf(os.Stdout, "✓ %d cards loaded into %s\n", count(out), writer.OutputDir)
	return nil
}

func count(v pipeline.IO) int {
	switch v := v.(type) {
	case pipeline.Flashcards:
		return len(v)
	case pipeline.Results:
		return len(v)
	}
	return 0
}
