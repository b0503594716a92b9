package main

import (
	"os"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/fpang/broll-media-cli/internal/cli"
	"github.com/fpang/broll-media-cli/internal/clip"
	"github.com/fpang/broll-media-cli/internal/extract"
	"github.com/fpang/broll-media-cli/internal/refine"
	"github.com/fpang/broll-media-cli/internal/timecode"
)

var (
	refineInputFlag       string
	refineStartFlag       float64
	refineEndFlag         float64
	refineDescriptionFlag string
	refineFeedbackFlag    string
	refinePaddingFlag     float64
	refineFPSFlag         int
	refineWorkDirFlag     string
)

var refineCmd = &cobra.Command{
	Use:   "refine",
	Short: "Refine one clip's timestamps to frame accuracy",
	Long: `Extracts a padded window around the first-pass estimate, re-encodes it
at the analysis frame rate, and asks the model for exact window-relative
timestamps plus a five-point validation. Timestamps are mapped back to
the source video using the window's actual start.

The command always emits a result record. A clip that passes every check
with confidence 0.70 or higher is auto-accepted; anything else is left
for human review.

Exit status: 0 when the clip was auto-accepted, 2 when it needs review.

Examples:
  broll-cli refine -i source.mp4 --start 83 --end 88 --description "AI tool interface animation"
  broll-cli refine -i source.mp4 --start 83 --end 88 --description "AI tool interface animation" \
      --feedback "starts too late, missing beginning"`,
	Run: runRefine,
}

func init() {
	refineCmd.Flags().StringVarP(&refineInputFlag, "input", "i", "", "Source video file (required)")
	refineCmd.Flags().Float64Var(&refineStartFlag, "start", 0, "Approximate start time in seconds (required)")
	refineCmd.Flags().Float64Var(&refineEndFlag, "end", 0, "Approximate end time in seconds (required)")
	refineCmd.Flags().StringVar(&refineDescriptionFlag, "description", "", "What the clip should show (required)")
	refineCmd.Flags().StringVar(&refineFeedbackFlag, "feedback", "", "Human feedback about what is wrong with the current estimate")
	refineCmd.Flags().Float64Var(&refinePaddingFlag, "window-padding", extract.DefaultWindowPadding, "Seconds to extract either side of the estimate")
	refineCmd.Flags().IntVar(&refineFPSFlag, "fps", extract.DefaultFPS, "Analysis frame rate for the extracted window")
	refineCmd.Flags().StringVar(&refineWorkDirFlag, "workdir", "workspace/broll-refinement", "Directory for extracted windows")
	refineCmd.MarkFlagRequired("input")
	refineCmd.MarkFlagRequired("start")
	refineCmd.MarkFlagRequired("end")
	refineCmd.MarkFlagRequired("description")
	rootCmd.AddCommand(refineCmd)
}

func runRefine(cmd *cobra.Command, args []string) {
	ctx := cmd.Context()
	source := cli.ValidateFile(refineInputFlag)
	if refineEndFlag <= refineStartFlag {
		log.Fatal().Float64("start", refineStartFlag).Float64("end", refineEndFlag).
			Msg("End time must be after start time")
	}

	client := cli.InitInferenceClient(ctx)
	extractor := extract.New(refineWorkDirFlag)
	refiner := refine.New(client, extractor, modelFlag)

	result := refiner.Refine(ctx, refine.Request{
		SourceVideo: source,
		Estimate: timecode.Span{
			Start: timecode.Absolute(refineStartFlag),
			End:   timecode.Absolute(refineEndFlag),
		},
		Description:   refineDescriptionFlag,
		Feedback:      refineFeedbackFlag,
		WindowPadding: refinePaddingFlag,
		FPS:           refineFPSFlag,
	})

	if err := cli.WriteResult(result, outputFlag); err != nil {
		log.Fatal().Err(err).Msg("Failed to write result")
	}

	if result.FinalStatus == clip.StatusRefinedAutomatically {
		return
	}
	// The record is valid but the clip still needs human review.
	os.Exit(2)
}
