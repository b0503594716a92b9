package main

import (
	"fmt"
	"os"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/fpang/broll-media-cli/internal/analyze"
	"github.com/fpang/broll-media-cli/internal/cli"
	"github.com/fpang/broll-media-cli/internal/extract"
	"github.com/fpang/broll-media-cli/internal/inference"
)

var askCmd = &cobra.Command{
	Use:   "ask <video> <question>",
	Short: "Ask any question about a video",
	Long: `Sends a free-form question about a video to the model and prints the
answer as plain text. The video may be a local file, or a http/https URL
when using an omni model.

Examples:
  broll-cli ask video.mp4 "What happens in this video?"
  broll-cli ask video.mp4 "At what timestamps does B-roll appear?"
  broll-cli ask https://cdn.example.com/v.mp4 "Describe the music" -m gemini-3-omni-flash-preview`,
	Args: cobra.ExactArgs(2),
	Run:  runAsk,
}

func init() {
	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, args []string) {
	ctx := cmd.Context()
	mediaRef, question := args[0], args[1]
	if !inference.IsRemoteURL(mediaRef) {
		mediaRef = cli.ValidateFile(mediaRef)
	}

	client := cli.InitInferenceClient(ctx)
	svc := analyze.New(client, extract.New(""), modelFlag)

	log.Info().Str("video", mediaRef).Msg("Sending question, video processing may take a minute")
	answer, err := svc.Ask(ctx, mediaRef, question)
	if err != nil {
		log.Fatal().Err(err).Msg("Question failed")
	}

	fmt.Fprintln(os.Stdout, answer)
}
