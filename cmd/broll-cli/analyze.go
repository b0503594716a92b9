package main

import (
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/fpang/broll-media-cli/internal/analyze"
	"github.com/fpang/broll-media-cli/internal/cli"
	"github.com/fpang/broll-media-cli/internal/extract"
	"github.com/fpang/broll-media-cli/internal/inference"
	"github.com/fpang/broll-media-cli/internal/s3util"
)

var analyzeOmniModelFlag string

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Extract editing blueprints from a reference video",
}

var analyzeStyleCmd = &cobra.Command{
	Use:   "style <video>",
	Short: "Analyze pacing, visual treatment and text overlay patterns",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		runBlueprint(cmd, args[0], func(svc *analyze.Service, mediaRef string) (*analyze.Blueprint, error) {
			return svc.Style(cmd.Context(), mediaRef)
		})
	},
}

var analyzeNarrativeCmd = &cobra.Command{
	Use:   "narrative <video>",
	Short: "Analyze hook, story structure and retention techniques",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		runBlueprint(cmd, args[0], func(svc *analyze.Service, mediaRef string) (*analyze.Blueprint, error) {
			return svc.Narrative(cmd.Context(), mediaRef)
		})
	},
}

var analyzeAudioVisualCmd = &cobra.Command{
	Use:   "audiovisual <video>",
	Short: "Analyze speech and music synchronization (audio-aware model)",
	Long: `Analyzes how the audio drives the edit: beat-aligned cuts, speech-to-
visual timing and voiceover patterns. This requires an audio-aware omni
model, which only accepts http/https media. A local file is uploaded to
the bucket named by BROLL_ANALYSIS_BUCKET and analyzed through a
short-lived presigned URL.`,
	Args: cobra.ExactArgs(1),
	Run:  runAudioVisual,
}

func init() {
	analyzeAudioVisualCmd.Flags().StringVar(&analyzeOmniModelFlag, "omni-model", inference.ModelOmniFlash,
		"Audio-aware model to use")
	analyzeCmd.AddCommand(analyzeStyleCmd, analyzeNarrativeCmd, analyzeAudioVisualCmd)
	rootCmd.AddCommand(analyzeCmd)
}

func runBlueprint(cmd *cobra.Command, mediaRef string, fn func(*analyze.Service, string) (*analyze.Blueprint, error)) {
	ctx := cmd.Context()
	prober := extract.New("")
	if !inference.IsRemoteURL(mediaRef) {
		mediaRef = cli.ValidateFile(mediaRef)
	}

	client := cli.InitInferenceClient(ctx)
	svc := analyze.New(client, prober, modelFlag)

	bp, err := fn(svc, mediaRef)
	if err != nil {
		log.Fatal().Err(err).Msg("Analysis failed")
	}
	if err := cli.WriteResult(bp, outputFlag); err != nil {
		log.Fatal().Err(err).Msg("Failed to write result")
	}
}

func runAudioVisual(cmd *cobra.Command, args []string) {
	ctx := cmd.Context()
	mediaRef := args[0]

	client := cli.InitInferenceClient(ctx)
	svc := analyze.New(client, nil, modelFlag)

	// Omni models cannot read local files; publish them first.
	if !inference.IsRemoteURL(mediaRef) {
		local := cli.ValidateFile(mediaRef)
		publisher, err := s3util.New(ctx)
		if err != nil {
			log.Fatal().Err(err).Msg("Cannot publish local file for audio-visual analysis")
		}
		published, err := publisher.Publish(ctx, local)
		if err != nil {
			log.Fatal().Err(err).Msg("Upload failed")
		}
		defer publisher.Remove(ctx, published)
		mediaRef = published.URL
	}

	bp, err := svc.AudioVisual(ctx, mediaRef, analyzeOmniModelFlag)
	if err != nil {
		log.Fatal().Err(err).Msg("Audio-visual analysis failed")
	}
	if err := cli.WriteResult(bp, outputFlag); err != nil {
		log.Fatal().Err(err).Msg("Failed to write result")
	}
}
