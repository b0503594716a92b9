package main

import (
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/fpang/broll-media-cli/internal/cli"
	"github.com/fpang/broll-media-cli/internal/identify"
)

var (
	identifyDirFlag      string
	identifyKeywordsFlag string
)

var identifyCmd = &cobra.Command{
	Use:   "identify",
	Short: "Scan source videos for candidate B-roll clips",
	Long: `Analyzes every video in a directory and enumerates 5-15 candidate clips
per video, each scored for relevance against the script keywords. Clips
scoring 0.70 or higher are marked recommended. The combined list is
sorted by relevance across all videos.

Example:
  broll-cli identify -d inputs/source-videos -k "ai,automation,productivity"`,
	Run: runIdentify,
}

func init() {
	identifyCmd.Flags().StringVarP(&identifyDirFlag, "directory", "d", "", "Directory containing source videos (required)")
	identifyCmd.Flags().StringVarP(&identifyKeywordsFlag, "keywords", "k", "", "Comma-separated script keywords for relevance scoring (required)")
	identifyCmd.MarkFlagRequired("directory")
	identifyCmd.MarkFlagRequired("keywords")
	rootCmd.AddCommand(identifyCmd)
}

func runIdentify(cmd *cobra.Command, args []string) {
	ctx := cmd.Context()
	dir := cli.ValidateAndResolveDirectory(identifyDirFlag)
	keywords := splitKeywords(identifyKeywordsFlag)
	if len(keywords) == 0 {
		log.Fatal().Msg("No keywords given")
	}

	client := cli.InitInferenceClient(ctx)
	ident := identify.New(client, modelFlag)

	report, err := ident.AnalyzeDirectory(ctx, dir, keywords)
	if err != nil {
		log.Fatal().Err(err).Msg("Identification failed")
	}

	log.Info().
		Int("total", report.TotalClips).
		Int("recommended", report.HighQualityClips).
		Float64("avg_relevance", report.AvgRelevance).
		Msg("Identification complete")

	if err := cli.WriteResult(report, outputFlag); err != nil {
		log.Fatal().Err(err).Msg("Failed to write result")
	}
}

func splitKeywords(s string) []string {
	var keywords []string
	for _, k := range strings.Split(s, ",") {
		if k = strings.TrimSpace(k); k != "" {
			keywords = append(keywords, k)
		}
	}
	return keywords
}
