package main

import (
	"os"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/fpang/broll-media-cli/internal/cli"
	"github.com/fpang/broll-media-cli/internal/review"
	"github.com/fpang/broll-media-cli/internal/timecode"
)

var (
	reviewWindowFlag      string
	reviewWindowStartFlag float64
	reviewModelStartFlag  float64
	reviewModelEndFlag    float64
	reviewDescriptionFlag string
	reviewGUIFlag         bool
)

var reviewCmd = &cobra.Command{
	Use:   "review",
	Short: "Interactively correct a clip the model could not settle",
	Long: `Walks a human through one clip: watch the extracted window in a video
player, then answer whether the clip is usable and, if so, whether the
model's timestamps need correcting. Corrected times are entered relative
to the window clip and mapped back to the source video.

Exit status: 0 when the clip ends up usable, 2 when it was rejected,
skipped or the session was cancelled.

Example:
  broll-cli review --window workspace/window.mp4 --window-start 63 \
      --model-start 5.2 --model-end 10.7 --description "AI tool interface animation"`,
	Run: runReview,
}

func init() {
	reviewCmd.Flags().StringVar(&reviewWindowFlag, "window", "", "Extracted window clip to review (required)")
	reviewCmd.Flags().Float64Var(&reviewWindowStartFlag, "window-start", 0, "Where the window starts in the source video, in seconds (required)")
	reviewCmd.Flags().Float64Var(&reviewModelStartFlag, "model-start", 0, "Model's suggested start, relative to the window")
	reviewCmd.Flags().Float64Var(&reviewModelEndFlag, "model-end", 0, "Model's suggested end, relative to the window")
	reviewCmd.Flags().StringVar(&reviewDescriptionFlag, "description", "", "What the clip should show")
	reviewCmd.Flags().BoolVar(&reviewGUIFlag, "gui", false, "Use native dialogs instead of terminal prompts")
	reviewCmd.MarkFlagRequired("window")
	reviewCmd.MarkFlagRequired("window-start")
	rootCmd.AddCommand(reviewCmd)
}

func runReview(cmd *cobra.Command, args []string) {
	ctx := cmd.Context()
	window := cli.ValidateFile(reviewWindowFlag)

	var prompter review.Prompter
	if reviewGUIFlag {
		prompter = review.NewGUIPrompter()
	} else {
		prompter = review.NewTerminalPrompter(os.Stdin, os.Stderr)
	}

	session := review.NewSession(prompter)
	disposition := session.Review(ctx, review.Clip{
		WindowClipPath: window,
		WindowStart:    timecode.Absolute(reviewWindowStartFlag),
		ModelStart:     timecode.WindowRelative(reviewModelStartFlag),
		ModelEnd:       timecode.WindowRelative(reviewModelEndFlag),
		Description:    reviewDescriptionFlag,
	})

	if err := cli.WriteResult(disposition, outputFlag); err != nil {
		log.Fatal().Err(err).Msg("Failed to write result")
	}

	if disposition.FinalStatus.Usable() {
		return
	}
	os.Exit(2)
}
