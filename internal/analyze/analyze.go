// Package analyze implements reference-video blueprint extraction:
// whole-video style, narrative and audio-visual analyses whose output
// feeds editing decisions downstream.
package analyze

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/fpang/broll-media-cli/internal/assets"
	"github.com/fpang/broll-media-cli/internal/metrics"
)

// Analyzer is the model access blueprint extraction needs.
type Analyzer interface {
	Analyze(ctx context.Context, mediaRef, instruction, model string) (string, error)
	AnalyzeStructured(ctx context.Context, mediaRef, instruction, model string) (json.RawMessage, error)
}

// Prober reports a video's container duration.
type Prober interface {
	ProbeDuration(ctx context.Context, sourceVideo string) (float64, error)
}

// Blueprint wraps a model analysis with provenance. The model's JSON is
// carried verbatim under Analysis; its inner structure belongs to the
// prompt, not to this package.
type Blueprint struct {
	VideoPath  string          `json:"video_path"`
	Kind       string          `json:"kind"`
	Duration   float64         `json:"duration,omitempty"`
	AnalyzedAt time.Time       `json:"analyzed_at"`
	Analysis   json.RawMessage `json:"analysis"`
}

// Service runs blueprint analyses.
type Service struct {
	client Analyzer
	prober Prober
	model  string
}

// New returns a Service. prober may be nil, in which case durations are
// omitted from blueprints.
func New(client Analyzer, prober Prober, model string) *Service {
	return &Service{client: client, prober: prober, model: model}
}

// Style extracts pacing, visual treatment, overlay and audio sync
// characteristics from a reference video.
func (s *Service) Style(ctx context.Context, mediaRef string) (*Blueprint, error) {
	return s.run(ctx, mediaRef, "style", assets.StyleAnalysisPrompt)
}

// Narrative extracts hook, storyline structure and retention techniques
// from a reference video.
func (s *Service) Narrative(ctx context.Context, mediaRef string) (*Blueprint, error) {
	return s.run(ctx, mediaRef, "narrative", assets.NarrativeAnalysisPrompt)
}

// AudioVisual extracts speech and music synchronization patterns. The
// model must be audio-aware, so the caller routes this to the omni
// family and the media reference must be a remote URL.
func (s *Service) AudioVisual(ctx context.Context, mediaRef, model string) (*Blueprint, error) {
	return s.analyze(ctx, mediaRef, "audiovisual", assets.AudioVisualPrompt, model)
}

// Ask answers a free-form question about a video, returning the model's
// text unmodified.
func (s *Service) Ask(ctx context.Context, mediaRef, question string) (string, error) {
	log.Info().Str("video", mediaRef).Msg("Asking question about video")
	answer, err := s.client.Analyze(ctx, mediaRef, question, s.model)
	if err != nil {
		return "", fmt.Errorf("ask about %s: %w", mediaRef, err)
	}
	return answer, nil
}

func (s *Service) run(ctx context.Context, mediaRef, kind, prompt string) (*Blueprint, error) {
	return s.analyze(ctx, mediaRef, kind, prompt, s.model)
}

func (s *Service) analyze(ctx context.Context, mediaRef, kind, prompt, model string) (*Blueprint, error) {
	log.Info().Str("video", mediaRef).Str("kind", kind).Msg("Analyzing reference video")

	rec := metrics.ForOperation("analyze").
		Dimension("Kind", kind).
		Dimension("Model", model)

	raw, err := s.client.AnalyzeStructured(ctx, mediaRef, prompt, model)
	if err != nil {
		rec.Count("Failures", 1).Flush()
		return nil, fmt.Errorf("%s analysis of %s: %w", kind, mediaRef, err)
	}

	bp := &Blueprint{
		VideoPath:  mediaRef,
		Kind:       kind,
		AnalyzedAt: time.Now().UTC(),
		Analysis:   raw,
	}

	if s.prober != nil {
		if d, err := s.prober.ProbeDuration(ctx, mediaRef); err == nil {
			bp.Duration = d
		} else {
			log.Debug().Err(err).Str("video", mediaRef).Msg("Duration probe failed")
		}
	}

	rec.Count("Analyses", 1).Elapsed("LatencyMs").Flush()
	return bp, nil
}
