// Package identify implements the first analysis pass: enumerating
// candidate B-roll moments in source videos and scoring them against
// script keywords.
package identify

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/fpang/broll-media-cli/internal/assets"
	"github.com/fpang/broll-media-cli/internal/clip"
	"github.com/fpang/broll-media-cli/internal/metrics"
)

// Analyzer is the model access the identifier needs.
type Analyzer interface {
	AnalyzeStructured(ctx context.Context, mediaRef, instruction, model string) (json.RawMessage, error)
}

// Identifier runs clip enumeration over source videos.
type Identifier struct {
	client Analyzer
	model  string
}

// New returns an Identifier using the given model.
func New(client Analyzer, model string) *Identifier {
	return &Identifier{client: client, model: model}
}

// Report is the aggregate output of an identification run. Clips are
// ordered by descending relevance across all source videos.
type Report struct {
	AnalyzedAt       time.Time        `json:"analyzed_at"`
	ScriptKeywords   []string         `json:"script_keywords"`
	SourceVideos     []string         `json:"source_videos"`
	Clips            []clip.Candidate `json:"clips"`
	TotalClips       int              `json:"total_clips"`
	HighQualityClips int              `json:"high_quality_clips"`
	AvgRelevance     float64          `json:"avg_relevance"`
}

// enumerationResponse is the JSON shape the model is asked to return.
type enumerationResponse struct {
	Clips []candidateJSON `json:"clips"`
}

type candidateJSON struct {
	StartTime      float64  `json:"start_time"`
	EndTime        float64  `json:"end_time"`
	Description    string   `json:"description"`
	Tags           []string `json:"tags"`
	VisualQuality  string   `json:"visual_quality"`
	RelevanceNotes string   `json:"relevance_notes"`
}

var videoExtensions = map[string]bool{
	".mp4":  true,
	".mov":  true,
	".avi":  true,
	".mkv":  true,
	".webm": true,
}

// AnalyzeDirectory enumerates clips across every video file directly
// under sourceDir. A video whose analysis fails is logged and skipped;
// the run only errors when the directory itself is unusable.
func (i *Identifier) AnalyzeDirectory(ctx context.Context, sourceDir string, keywords []string) (*Report, error) {
	videos, err := listVideos(sourceDir)
	if err != nil {
		return nil, err
	}
	if len(videos) == 0 {
		return nil, fmt.Errorf("no video files found in %s", sourceDir)
	}

	log.Info().Int("count", len(videos)).Str("dir", sourceDir).Msg("Found source videos to analyze")

	rec := metrics.ForOperation("identify").Dimension("Model", i.model)

	var all []clip.Candidate
	for _, video := range videos {
		clips, err := i.AnalyzeVideo(ctx, video, keywords)
		if err != nil {
			log.Error().Err(err).Str("video", video).Msg("Video analysis failed, skipping")
			rec.Count("VideoFailures", 1)
			continue
		}
		all = append(all, clips...)
	}

	// Stable keeps same-score clips in source enumeration order.
	sort.SliceStable(all, func(a, b int) bool {
		return all[a].RelevanceScore > all[b].RelevanceScore
	})

	report := &Report{
		AnalyzedAt:     time.Now().UTC(),
		ScriptKeywords: keywords,
		SourceVideos:   videos,
		Clips:          all,
		TotalClips:     len(all),
	}
	var sum float64
	for _, c := range all {
		sum += c.RelevanceScore
		if c.Recommended {
			report.HighQualityClips++
		}
	}
	if len(all) > 0 {
		report.AvgRelevance = math.Round(sum/float64(len(all))*100) / 100
	}

	rec.Count("TotalClips", report.TotalClips).
		Count("RecommendedClips", report.HighQualityClips).
		Elapsed("LatencyMs").
		Flush()

	return report, nil
}

// AnalyzeVideo enumerates and scores the candidates in a single video.
func (i *Identifier) AnalyzeVideo(ctx context.Context, videoPath string, keywords []string) ([]clip.Candidate, error) {
	log.Info().Str("video", videoPath).Msg("Analyzing video for B-roll candidates")

	prompt := assets.RenderIdentifyPrompt(keywords)
	raw, err := i.client.AnalyzeStructured(ctx, videoPath, prompt, i.model)
	if err != nil {
		return nil, fmt.Errorf("analyze %s: %w", videoPath, err)
	}

	var resp enumerationResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, fmt.Errorf("decode enumeration for %s: %w", videoPath, err)
	}

	clips := make([]clip.Candidate, 0, len(resp.Clips))
	for _, cj := range resp.Clips {
		c := clip.Candidate{
			SourceVideo:    videoPath,
			StartTime:      cj.StartTime,
			EndTime:        cj.EndTime,
			Duration:       cj.EndTime - cj.StartTime,
			Description:    cj.Description,
			Tags:           cj.Tags,
			VisualQuality:  clip.ParseQuality(cj.VisualQuality),
			RelevanceNotes: cj.RelevanceNotes,
		}
		c.RelevanceScore = RelevanceScore(c, keywords)
		c.Recommended = c.RelevanceScore >= RecommendThreshold
		clips = append(clips, c)
	}

	log.Debug().Str("video", videoPath).Int("clips", len(clips)).Msg("Enumeration complete")
	return clips, nil
}

func listVideos(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read source directory: %w", err)
	}
	var videos []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if videoExtensions[strings.ToLower(filepath.Ext(e.Name()))] {
			videos = append(videos, filepath.Join(dir, e.Name()))
		}
	}
	sort.Strings(videos)
	return videos, nil
}
