// Command broll-cli finds, refines and reviews B-roll clips in source
// footage using multimodal video models.
//
// Result records are written to stdout (or --output) as JSON; logs and
// interactive prompts stay on stderr so the output remains pipeable.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/fpang/broll-media-cli/internal/inference"
	"github.com/fpang/broll-media-cli/internal/logging"
)

// Persistent CLI flags
var (
	modelFlag  string
	outputFlag string
)

var rootCmd = &cobra.Command{
	Use:   "broll-cli",
	Short: "AI-powered B-roll clip localization for short-form video",
	Long: `broll-cli analyzes source footage with multimodal video models to find
moments that work as B-roll, refines their timestamps to frame accuracy,
and walks a human through correcting the clips the model could not settle.

The pipeline has three tiers:
  identify  scan whole videos for candidate clips scored against script keywords
  refine    re-analyze one clip in a padded window at 10 FPS for exact timestamps
  review    interactive human correction for clips that failed validation

Reference-video analysis (analyze, ask) and beat detection (beats) support
the surrounding edit.

Examples:
  broll-cli identify -d inputs/source-videos -k "ai,automation,productivity"
  broll-cli refine -i source.mp4 --start 83 --end 88 --description "AI tool interface animation"
  broll-cli review --window workspace/window.mp4 --window-start 63 --model-start 5.2 --model-end 10.7
  broll-cli analyze style reference.mp4
  broll-cli beats soundtrack.wav --fps 30 --scenes 6`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		logging.Init()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&modelFlag, "model", "m", inference.GetModelName(),
		"Model to use (omni variants require http/https media URLs)")
	rootCmd.PersistentFlags().StringVarP(&outputFlag, "output", "o", "",
		"Write the result JSON to a file instead of stdout")
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}
