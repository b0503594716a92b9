package refine

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/fpang/broll-media-cli/internal/clip"
	"github.com/fpang/broll-media-cli/internal/extract"
	"github.com/fpang/broll-media-cli/internal/timecode"
)

type fakeAnalyzer struct {
	response string
	err      error
	prompt   string
	mediaRef string
}

func (f *fakeAnalyzer) AnalyzeStructured(ctx context.Context, mediaRef, instruction, model string) (json.RawMessage, error) {
	f.mediaRef = mediaRef
	f.prompt = instruction
	if f.err != nil {
		return nil, f.err
	}
	return json.RawMessage(f.response), nil
}

type fakeExtractor struct {
	window *extract.Window
	err    error
	center timecode.Absolute
}

func (f *fakeExtractor) ExtractWindow(ctx context.Context, sourceVideo string, center timecode.Absolute, padding float64, fps int) (*extract.Window, error) {
	f.center = center
	if f.err != nil {
		return nil, f.err
	}
	return f.window, nil
}

const goodResponse = `{
	"timestamp": {"start_seconds": 5.2, "end_seconds": 10.7},
	"validation": {
		"clean_start": true, "clean_end": true, "no_humans": true,
		"complete_content": true, "matches_description": true,
		"confidence": 0.95, "issues": []
	},
	"description": "screen recording of a dashboard"
}`

func TestRefineTransformsToAbsolute(t *testing.T) {
	ext := &fakeExtractor{window: &extract.Window{
		ClipPath: "/tmp/window.mp4",
		Start:    63.0,
		End:      103.0,
		FPS:      10,
	}}
	analyzer := &fakeAnalyzer{response: goodResponse}
	r := New(analyzer, ext, "vision-model")

	result := r.Refine(context.Background(), Request{
		SourceVideo: "source.mp4",
		Estimate:    timecode.Span{Start: 81, End: 85},
		Description: "dashboard animation",
	})

	if ext.center != 83.0 {
		t.Errorf("window center = %v, want 83.0", ext.center)
	}
	if analyzer.mediaRef != "/tmp/window.mp4" {
		t.Errorf("analysis must run on the extracted window, got %q", analyzer.mediaRef)
	}

	ts := result.Tier2Refined
	if ts == nil {
		t.Fatal("expected refined timestamp")
	}
	// Window-relative [5.2, 10.7] against actual window start 63.0.
	if ts.Start != 68.2 || ts.End != 73.7 {
		t.Errorf("refined = [%v, %v], want [68.2, 73.7]", ts.Start, ts.End)
	}
	if ts.Duration != 5.5 {
		t.Errorf("duration = %v, want 5.5", ts.Duration)
	}

	if result.FinalStatus != clip.StatusRefinedAutomatically || !result.Usable {
		t.Errorf("high-confidence all-pass result must auto-accept, got %q usable=%v",
			result.FinalStatus, result.Usable)
	}
	if result.ExtractionWindow.WindowStart != 63.0 {
		t.Errorf("window info start = %v", result.ExtractionWindow.WindowStart)
	}
}

func TestRefineUsesClampedWindowStart(t *testing.T) {
	// Estimate near the start of the video clamps the window at 0, so the
	// transform origin is 0, not the requested center-padding.
	ext := &fakeExtractor{window: &extract.Window{ClipPath: "/tmp/w.mp4", Start: 0, End: 40, FPS: 10}}
	analyzer := &fakeAnalyzer{response: goodResponse}
	r := New(analyzer, ext, "vision-model")

	result := r.Refine(context.Background(), Request{
		SourceVideo: "source.mp4",
		Estimate:    timecode.Span{Start: 6, End: 10},
	})

	if result.Tier2Refined.Start != 5.2 || result.Tier2Refined.End != 10.7 {
		t.Errorf("refined = [%v, %v], want [5.2, 10.7]",
			result.Tier2Refined.Start, result.Tier2Refined.End)
	}
}

func TestRefineFailedCheckBlocksAutoAccept(t *testing.T) {
	ext := &fakeExtractor{window: &extract.Window{ClipPath: "/tmp/w.mp4", Start: 10, End: 50, FPS: 10}}
	analyzer := &fakeAnalyzer{response: `{
		"timestamp": {"start_seconds": 1, "end_seconds": 4},
		"validation": {
			"clean_start": true, "clean_end": false, "no_humans": true,
			"complete_content": true, "matches_description": true,
			"confidence": 0.9, "issues": ["scene change bleeds into the end"]
		},
		"description": "d"
	}`}
	r := New(analyzer, ext, "vision-model")

	result := r.Refine(context.Background(), Request{SourceVideo: "s.mp4", Estimate: timecode.Span{Start: 28, End: 32}})

	if result.Usable || result.FinalStatus != "" {
		t.Errorf("failed check must leave disposition open, got %q usable=%v", result.FinalStatus, result.Usable)
	}
	if result.Validation.AllChecksPass {
		t.Error("all_checks_pass must be false")
	}
	if result.Tier2Refined == nil {
		t.Error("refined timestamp is still recorded for human review")
	}
}

func TestRefineLowConfidenceBlocksAutoAccept(t *testing.T) {
	ext := &fakeExtractor{window: &extract.Window{ClipPath: "/tmp/w.mp4", Start: 10, End: 50, FPS: 10}}
	analyzer := &fakeAnalyzer{response: `{
		"timestamp": {"start_seconds": 1, "end_seconds": 4},
		"validation": {
			"clean_start": true, "clean_end": true, "no_humans": true,
			"complete_content": true, "matches_description": true,
			"confidence": 0.55, "issues": []
		},
		"description": "d"
	}`}
	r := New(analyzer, ext, "vision-model")

	result := r.Refine(context.Background(), Request{SourceVideo: "s.mp4", Estimate: timecode.Span{Start: 28, End: 32}})

	if result.Usable {
		t.Error("confidence below the gate must not auto-accept")
	}
	if !result.Validation.AllChecksPass {
		t.Error("checks all passed; only confidence blocks acceptance")
	}
}

func TestRefineExtractionFailureReturnsPartialResult(t *testing.T) {
	ext := &fakeExtractor{err: errors.New("ffmpeg exploded")}
	r := New(&fakeAnalyzer{}, ext, "vision-model")

	result := r.Refine(context.Background(), Request{SourceVideo: "s.mp4", Estimate: timecode.Span{Start: 28, End: 32}})

	if result == nil {
		t.Fatal("refinement must always return a record")
	}
	if result.Tier2Refined != nil {
		t.Error("no refined timestamp on failure")
	}
	if result.Validation.Confidence != 0 || len(result.Validation.Issues) == 0 {
		t.Errorf("failure must be recorded in validation: %+v", result.Validation)
	}
	if result.Tier1Estimate.Start != 28 {
		t.Errorf("first-pass estimate must be preserved: %+v", result.Tier1Estimate)
	}
}

func TestRefineAnalysisFailureReturnsPartialResult(t *testing.T) {
	ext := &fakeExtractor{window: &extract.Window{ClipPath: "/tmp/w.mp4", Start: 10, End: 50, FPS: 10}}
	analyzer := &fakeAnalyzer{err: errors.New("all attempts exhausted")}
	r := New(analyzer, ext, "vision-model")

	result := r.Refine(context.Background(), Request{SourceVideo: "s.mp4", Estimate: timecode.Span{Start: 28, End: 32}})

	if result.Tier2Refined != nil || result.Usable {
		t.Error("analysis failure must not produce a usable refinement")
	}
	if result.ExtractionWindow == nil {
		t.Error("the extraction window is still recorded on analysis failure")
	}
}

func TestRefineFeedbackReachesPrompt(t *testing.T) {
	ext := &fakeExtractor{window: &extract.Window{ClipPath: "/tmp/w.mp4", Start: 10, End: 50, FPS: 10}}
	analyzer := &fakeAnalyzer{response: goodResponse}
	r := New(analyzer, ext, "vision-model")

	result := r.Refine(context.Background(), Request{
		SourceVideo: "s.mp4",
		Estimate:    timecode.Span{Start: 28, End: 32},
		Feedback:    "starts too late, missing beginning",
	})

	if !strings.Contains(analyzer.prompt, "starts too late, missing beginning") {
		t.Error("human feedback must be embedded in the prompt")
	}
	if result.HumanFeedback != "starts too late, missing beginning" {
		t.Errorf("feedback not carried on result: %q", result.HumanFeedback)
	}
}
