// Package refine implements the second analysis pass: re-examining one
// candidate clip inside a padded extraction window at a higher frame
// rate to produce frame-accurate timestamps with a validation verdict.
package refine

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/fpang/broll-media-cli/internal/assets"
	"github.com/fpang/broll-media-cli/internal/clip"
	"github.com/fpang/broll-media-cli/internal/extract"
	"github.com/fpang/broll-media-cli/internal/metrics"
	"github.com/fpang/broll-media-cli/internal/timecode"
)

// Analyzer is the model access the refiner needs.
type Analyzer interface {
	AnalyzeStructured(ctx context.Context, mediaRef, instruction, model string) (json.RawMessage, error)
}

// WindowExtractor cuts analysis windows out of source videos.
type WindowExtractor interface {
	ExtractWindow(ctx context.Context, sourceVideo string, center timecode.Absolute, padding float64, fps int) (*extract.Window, error)
}

// Refiner runs single-clip timestamp refinement.
type Refiner struct {
	client    Analyzer
	extractor WindowExtractor
	model     string
}

// New returns a Refiner using the given model.
func New(client Analyzer, extractor WindowExtractor, model string) *Refiner {
	return &Refiner{client: client, extractor: extractor, model: model}
}

// Request describes one clip to refine. Feedback carries optional human
// notes about what is wrong with the current estimate; it is foregrounded
// in the prompt when present.
type Request struct {
	SourceVideo   string
	Estimate      timecode.Span
	Description   string
	Feedback      string
	WindowPadding float64
	FPS           int
}

// refinementResponse is the JSON shape the model is asked to return.
// Timestamps are relative to the extraction window.
type refinementResponse struct {
	Timestamp   timecode.WindowSpan `json:"timestamp"`
	Validation  validationJSON      `json:"validation"`
	Description string              `json:"description"`
}

type validationJSON struct {
	CleanStart         bool     `json:"clean_start"`
	CleanEnd           bool     `json:"clean_end"`
	NoHumans           bool     `json:"no_humans"`
	CompleteContent    bool     `json:"complete_content"`
	MatchesDescription bool     `json:"matches_description"`
	Confidence         float64  `json:"confidence"`
	Issues             []string `json:"issues"`
}

// Refine analyzes one clip and returns its refinement record. Failures
// during extraction or analysis never surface as an error: the record
// comes back with no refined timestamp, zero confidence and the failure
// noted in the issues list, so a batch caller can keep going and a human
// can pick the clip up later.
func (r *Refiner) Refine(ctx context.Context, req Request) *clip.Result {
	if req.WindowPadding <= 0 {
		req.WindowPadding = extract.DefaultWindowPadding
	}
	if req.FPS <= 0 {
		req.FPS = extract.DefaultFPS
	}

	result := &clip.Result{
		SourceVideo:   req.SourceVideo,
		Tier1Estimate: req.Estimate,
		HumanFeedback: req.Feedback,
		AnalyzedAt:    time.Now().UTC(),
	}

	rec := metrics.ForOperation("refine").Dimension("Model", r.model)

	log.Info().
		Str("source", req.SourceVideo).
		Float64("start", float64(req.Estimate.Start)).
		Float64("end", float64(req.Estimate.End)).
		Msg("Refining clip timestamps")

	window, err := r.extractor.ExtractWindow(ctx, req.SourceVideo, req.Estimate.Center(), req.WindowPadding, req.FPS)
	if err != nil {
		log.Error().Err(err).Str("source", req.SourceVideo).Msg("Window extraction failed")
		r.fail(result, rec, fmt.Sprintf("extraction failed: %v", err))
		return result
	}

	result.ExtractionWindow = &clip.WindowInfo{
		ClipPath:    window.ClipPath,
		WindowStart: window.Start,
		WindowEnd:   window.End,
		PaddingUsed: req.WindowPadding,
		FPS:         window.FPS,
	}

	prompt := assets.RenderRefinePrompt(assets.RefinePromptData{
		Description:   req.Description,
		ApproxStart:   float64(req.Estimate.Start),
		ApproxEnd:     float64(req.Estimate.End),
		HumanFeedback: req.Feedback,
		WindowPadding: req.WindowPadding,
		FPS:           req.FPS,
	})

	raw, err := r.client.AnalyzeStructured(ctx, window.ClipPath, prompt, r.model)
	if err != nil {
		log.Error().Err(err).Str("source", req.SourceVideo).Msg("Refinement analysis failed")
		r.fail(result, rec, fmt.Sprintf("analysis failed: %v", err))
		return result
	}

	var resp refinementResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		r.fail(result, rec, fmt.Sprintf("malformed refinement response: %v", err))
		return result
	}

	// Model timestamps are relative to the window; the transform uses the
	// window's actual clamped start, never the requested one.
	refined := resp.Timestamp.Absolute(window.Start)
	result.Tier2Refined = clip.NewTimestamp(refined)
	result.ModelDescription = resp.Description
	result.Validation = clip.Validation{
		Confidence: resp.Validation.Confidence,
		Issues:     resp.Validation.Issues,
		Checks: clip.Checklist{
			CleanStart:         resp.Validation.CleanStart,
			CleanEnd:           resp.Validation.CleanEnd,
			NoHumans:           resp.Validation.NoHumans,
			CompleteContent:    resp.Validation.CompleteContent,
			MatchesDescription: resp.Validation.MatchesDescription,
		},
	}
	result.Validation.AllChecksPass = result.Validation.Checks.AllPass()

	if result.Validation.AutoAcceptable() {
		result.FinalStatus = clip.StatusRefinedAutomatically
		result.Usable = true
	}

	log.Info().
		Float64("refined_start", float64(refined.Start)).
		Float64("refined_end", float64(refined.End)).
		Float64("confidence", result.Validation.Confidence).
		Bool("all_checks_pass", result.Validation.AllChecksPass).
		Msg("Refinement complete")

	rec.Metric("Confidence", result.Validation.Confidence, metrics.UnitNone).
		Count("AutoAccepted", boolToInt(result.Usable)).
		Elapsed("LatencyMs").
		Flush()

	return result
}

func (r *Refiner) fail(result *clip.Result, rec *metrics.Recorder, issue string) {
	result.Validation = clip.Validation{
		AllChecksPass: false,
		Confidence:    0,
		Issues:        []string{issue},
	}
	rec.Count("Failures", 1).Elapsed("LatencyMs").Flush()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
