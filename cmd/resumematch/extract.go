package main

import (
	"encoding/json"
	"fmt"
	"log"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"alfredoptarigan/ats-resume-analyzer/internal/logger"
	"alfredoptarigan/ats-resume-analyzer/internal/services"
)

var extractCmd = &cobra.Command{
	Use:   "extract <resume.pdf>",
	Short: "Print the normalized text of a PDF",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		withSections, _ := cmd.Flags().GetBool("sections")
		return extract(cmd, args[0], withSections)
	},
}

func init() {
	rootCmd.AddCommand(extractCmd)

	extractCmd.Flags().BoolP("sections", "s", false, "print the experience/education/skills sections as JSON")
}

func extract(cmd *cobra.Command, path string, withSections bool) error {
	zl, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"), logger.Stderr)
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}
	defer func() { _ = zl.Sync() }()

	text, err := services.NewPDFParserService().ExtractTextFromFile(path)
	if err != nil {
		return fmt.Errorf("extracting %s: %w", path, err)
	}

	zl.Debug("text extracted",
		zap.String("path", path),
		zap.Int("length", len(text)),
		zap.String("preview", logger.TruncateForLog(text, 200)),
	)

	out := cmd.OutOrStdout()
	if !withSections {
		_, err := fmt.Fprintln(out, text)
		return err
	}

	encoder := json.NewEncoder(out)
	encoder.SetIndent("", "  ")
	return encoder.Encode(services.NewSectionSegmenter().Segment(text))
}
