package identify

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

// fakeAnalyzer returns a canned response per media reference.
type fakeAnalyzer struct {
	responses map[string]string
	errs      map[string]error
	calls     []string
}

func (f *fakeAnalyzer) AnalyzeStructured(ctx context.Context, mediaRef, instruction, model string) (json.RawMessage, error) {
	f.calls = append(f.calls, mediaRef)
	if err, ok := f.errs[filepath.Base(mediaRef)]; ok {
		return nil, err
	}
	return json.RawMessage(f.responses[filepath.Base(mediaRef)]), nil
}

func writeEmptyFiles(t *testing.T, dir string, names ...string) {
	t.Helper()
	for _, name := range names {
		if err := os.WriteFile(filepath.Join(dir, name), nil, 0o644); err != nil {
			t.Fatal(err)
		}
	}
}

func TestAnalyzeVideoScoresAndRecommends(t *testing.T) {
	fake := &fakeAnalyzer{responses: map[string]string{
		"demo.mp4": `{"clips": [
			{"start_time": 83, "end_time": 88, "description": "ai tool interface animation",
			 "tags": ["ai", "interface"], "visual_quality": "high", "relevance_notes": "direct match"},
			{"start_time": 10, "end_time": 14, "description": "coffee being poured",
			 "tags": ["coffee"], "visual_quality": "low"}
		]}`,
	}}
	ident := New(fake, "vision-model")

	clips, err := ident.AnalyzeVideo(context.Background(), "demo.mp4", []string{"ai", "interface"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(clips) != 2 {
		t.Fatalf("expected 2 clips, got %d", len(clips))
	}

	first := clips[0]
	if first.Duration != 5 {
		t.Errorf("duration = %v, want 5", first.Duration)
	}
	if first.SourceVideo != "demo.mp4" {
		t.Errorf("source video not attached: %q", first.SourceVideo)
	}
	// Both keywords in tags and description, high quality: perfect score.
	if first.RelevanceScore != 1.0 || !first.Recommended {
		t.Errorf("score = %v recommended = %v, want 1.0 true", first.RelevanceScore, first.Recommended)
	}
	if clips[1].Recommended {
		t.Errorf("low-relevance clip must not be recommended (score %v)", clips[1].RelevanceScore)
	}
}

func TestAnalyzeVideoDefaultsMissingQuality(t *testing.T) {
	fake := &fakeAnalyzer{responses: map[string]string{
		"demo.mp4": `{"clips": [{"start_time": 1, "end_time": 4, "description": "x", "tags": []}]}`,
	}}
	ident := New(fake, "vision-model")

	clips, err := ident.AnalyzeVideo(context.Background(), "demo.mp4", []string{"ai"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if clips[0].VisualQuality != "medium" {
		t.Errorf("missing quality must default to medium, got %q", clips[0].VisualQuality)
	}
}

func TestAnalyzeDirectoryIsolatesFailures(t *testing.T) {
	dir := t.TempDir()
	writeEmptyFiles(t, dir, "a.mp4", "b.mov", "notes.txt")

	fake := &fakeAnalyzer{
		responses: map[string]string{
			"b.mov": `{"clips": [{"start_time": 2, "end_time": 6, "description": "ai demo",
				"tags": ["ai"], "visual_quality": "high"}]}`,
		},
		errs: map[string]error{
			"a.mp4": errors.New("model unavailable"),
		},
	}
	ident := New(fake, "vision-model")

	report, err := ident.AnalyzeDirectory(context.Background(), dir, []string{"ai"})
	if err != nil {
		t.Fatalf("one failed video must not fail the run: %v", err)
	}
	if len(fake.calls) != 2 {
		t.Errorf("non-video files must be skipped, got calls %v", fake.calls)
	}
	if report.TotalClips != 1 {
		t.Errorf("expected clips from the surviving video, got %d", report.TotalClips)
	}
	if len(report.SourceVideos) != 2 {
		t.Errorf("source videos = %v", report.SourceVideos)
	}
}

func TestAnalyzeDirectorySortsByRelevance(t *testing.T) {
	dir := t.TempDir()
	writeEmptyFiles(t, dir, "a.mp4", "b.mp4")

	fake := &fakeAnalyzer{responses: map[string]string{
		"a.mp4": `{"clips": [{"start_time": 0, "end_time": 5, "description": "unrelated",
			"tags": [], "visual_quality": "low"}]}`,
		"b.mp4": `{"clips": [{"start_time": 0, "end_time": 5, "description": "ai workflow",
			"tags": ["ai"], "visual_quality": "high"}]}`,
	}}
	ident := New(fake, "vision-model")

	report, err := ident.AnalyzeDirectory(context.Background(), dir, []string{"ai"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(report.Clips) != 2 {
		t.Fatalf("expected 2 clips, got %d", len(report.Clips))
	}
	if report.Clips[0].SourceVideo != filepath.Join(dir, "b.mp4") {
		t.Errorf("highest relevance must sort first, got %+v", report.Clips[0])
	}
	if report.HighQualityClips != 1 {
		t.Errorf("high quality count = %d, want 1", report.HighQualityClips)
	}
}

func TestAnalyzeDirectoryEmpty(t *testing.T) {
	dir := t.TempDir()
	writeEmptyFiles(t, dir, "readme.md")

	ident := New(&fakeAnalyzer{}, "vision-model")
	if _, err := ident.AnalyzeDirectory(context.Background(), dir, []string{"ai"}); err == nil {
		t.Fatal("expected error for directory without videos")
	}
}
