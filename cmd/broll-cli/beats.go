package main

import (
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/fpang/broll-media-cli/internal/beats"
	"github.com/fpang/broll-media-cli/internal/cli"
	"github.com/fpang/broll-media-cli/internal/extract"
)

var (
	beatsFPSFlag    int
	beatsScenesFlag int
	beatsIntroFlag  float64
)

var beatsCmd = &cobra.Command{
	Use:   "beats <audio-or-video>",
	Short: "Detect musical beats for cut synchronization",
	Long: `Analyzes an audio track and emits beat timestamps with frame numbers at
the target video frame rate, so cuts can land on the music. Video inputs
have their audio track extracted first (requires ffmpeg).

With --scenes, also suggests beat-aligned scene boundaries.

Examples:
  broll-cli beats soundtrack.wav --fps 30
  broll-cli beats reference.mp4 --fps 30 --scenes 6 --intro 2.0`,
	Args: cobra.ExactArgs(1),
	Run:  runBeats,
}

func init() {
	beatsCmd.Flags().IntVar(&beatsFPSFlag, "fps", 30, "Video frame rate for beat-to-frame mapping")
	beatsCmd.Flags().IntVar(&beatsScenesFlag, "scenes", 0, "Suggest cut points for this many scenes (0 = off)")
	beatsCmd.Flags().Float64Var(&beatsIntroFlag, "intro", 2.0, "Intro scene duration in seconds, used with --scenes")
	rootCmd.AddCommand(beatsCmd)
}

func runBeats(cmd *cobra.Command, args []string) {
	ctx := cmd.Context()
	input := cli.ValidateFile(args[0])

	audioPath := input
	if strings.ToLower(filepath.Ext(input)) != ".wav" {
		log.Info().Str("input", input).Msg("Extracting audio track")
		extractor := extract.New("")
		extracted, err := extractor.ExtractAudio(ctx, input)
		if err != nil {
			log.Fatal().Err(err).Msg("Audio extraction failed")
		}
		defer extractor.Cleanup(extracted)
		audioPath = extracted
	}

	report, err := beats.DetectFile(audioPath, beatsFPSFlag)
	if err != nil {
		log.Fatal().Err(err).Msg("Beat detection failed")
	}
	report.AudioFile = input

	if beatsScenesFlag > 0 {
		report.SuggestedCuts = report.SuggestCuts(beatsScenesFlag, beatsIntroFlag)
	}

	log.Info().
		Float64("tempo_bpm", report.TempoBPM).
		Int("beats", report.TotalBeats).
		Int("strong_beats", report.TotalStrongBeats).
		Str("duration", cli.FormatDurationShort(time.Duration(report.DurationSeconds*float64(time.Second)))).
		Msg("Beat analysis complete")

	if err := cli.WriteResult(report, outputFlag); err != nil {
		log.Fatal().Err(err).Msg("Failed to write result")
	}
}
