// Command broll-mcp exposes the B-roll pipeline as MCP tools over stdio,
// so an orchestrating agent can identify and refine clips without
// shelling out to broll-cli.
package main

import (
	"context"
	"encoding/json"
	"os"
	"os/signal"
	"syscall"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rs/zerolog/log"

	"github.com/fpang/broll-media-cli/internal/beats"
	"github.com/fpang/broll-media-cli/internal/cli"
	"github.com/fpang/broll-media-cli/internal/extract"
	"github.com/fpang/broll-media-cli/internal/identify"
	"github.com/fpang/broll-media-cli/internal/inference"
	"github.com/fpang/broll-media-cli/internal/logging"
	"github.com/fpang/broll-media-cli/internal/refine"
	"github.com/fpang/broll-media-cli/internal/timecode"
)

const serverVersion = "0.1.0"

func main() {
	logging.Init()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client := cli.InitInferenceClient(ctx)
	model := inference.GetModelName()
	extractor := extract.New("workspace/broll-refinement")

	server := mcp.NewServer(&mcp.Implementation{
		Name:    "broll-mcp",
		Version: serverVersion,
	}, nil)

	registerTools(server, client, extractor, model)

	log.Info().Str("model", model).Msg("Starting MCP server on stdio")
	if err := server.Run(ctx, &mcp.StdioTransport{}); err != nil {
		log.Fatal().Err(err).Msg("MCP server stopped")
	}
}

type identifyInput struct {
	SourceDir string   `json:"source_dir" jsonschema:"Directory containing source videos"`
	Keywords  []string `json:"keywords" jsonschema:"Script keywords for relevance scoring"`
}

type refineInput struct {
	SourceVideo   string  `json:"source_video" jsonschema:"Path to the source video file"`
	StartTime     float64 `json:"start_time" jsonschema:"Approximate start time in seconds"`
	EndTime       float64 `json:"end_time" jsonschema:"Approximate end time in seconds"`
	Description   string  `json:"description" jsonschema:"What the clip should show"`
	Feedback      string  `json:"feedback,omitempty" jsonschema:"Human feedback about what is wrong with the current estimate"`
	WindowPadding float64 `json:"window_padding,omitempty" jsonschema:"Seconds to extract either side of the estimate (default 20)"`
}

type beatsInput struct {
	AudioFile string `json:"audio_file" jsonschema:"Path to a 16-bit PCM WAV file"`
	FPS       int    `json:"fps,omitempty" jsonschema:"Video frame rate for beat-to-frame mapping (default 30)"`
	Scenes    int    `json:"scenes,omitempty" jsonschema:"Suggest cut points for this many scenes"`
}

func registerTools(server *mcp.Server, client *inference.Client, extractor *extract.Extractor, model string) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "identify_clips",
		Description: "Scan source videos for candidate B-roll clips scored against script keywords",
	}, func(ctx context.Context, req *mcp.CallToolRequest, input identifyInput) (*mcp.CallToolResult, any, error) {
		ident := identify.New(client, model)
		report, err := ident.AnalyzeDirectory(ctx, input.SourceDir, input.Keywords)
		if err != nil {
			return errorResult(err), nil, nil
		}
		return jsonResult(report)
	})

	mcp.AddTool(server, &mcp.Tool{
		Name:        "refine_clip",
		Description: "Refine one clip's timestamps to frame accuracy inside a padded analysis window",
	}, func(ctx context.Context, req *mcp.CallToolRequest, input refineInput) (*mcp.CallToolResult, any, error) {
		refiner := refine.New(client, extractor, model)
		result := refiner.Refine(ctx, refine.Request{
			SourceVideo: input.SourceVideo,
			Estimate: timecode.Span{
				Start: timecode.Absolute(input.StartTime),
				End:   timecode.Absolute(input.EndTime),
			},
			Description:   input.Description,
			Feedback:      input.Feedback,
			WindowPadding: input.WindowPadding,
		})
		return jsonResult(result)
	})

	mcp.AddTool(server, &mcp.Tool{
		Name:        "detect_beats",
		Description: "Detect musical beats in an audio track and map them to video frame numbers",
	}, func(ctx context.Context, req *mcp.CallToolRequest, input beatsInput) (*mcp.CallToolResult, any, error) {
		report, err := beats.DetectFile(input.AudioFile, input.FPS)
		if err != nil {
			return errorResult(err), nil, nil
		}
		if input.Scenes > 0 {
			report.SuggestedCuts = report.SuggestCuts(input.Scenes, 2.0)
		}
		return jsonResult(report)
	})
}

// jsonResult marshals v as the tool's text content.
func jsonResult(v any) (*mcp.CallToolResult, any, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return errorResult(err), nil, nil
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: string(data)}},
	}, nil, nil
}

// errorResult reports a tool failure the calling agent can read and
// react to.
func errorResult(err error) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: err.Error()}},
		IsError: true,
	}
}
