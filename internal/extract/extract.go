// Package extract shells out to ffmpeg and ffprobe to cut analysis
// windows and audio tracks from source videos.
package extract

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/fpang/broll-media-cli/internal/timecode"
)

// Defaults for refinement extraction. The window gives the model room to
// see content before and after the first-pass estimate, and the frame
// rate keeps uploads small while preserving motion.
const (
	DefaultWindowPadding = 20.0
	DefaultFPS           = 10
)

// Extractor runs ffmpeg against a scratch directory.
type Extractor struct {
	ffmpegPath  string
	ffprobePath string
	workDir     string
}

// Option configures an Extractor.
type Option func(*Extractor)

// WithFFmpegPath overrides the ffmpeg binary location.
func WithFFmpegPath(path string) Option {
	return func(e *Extractor) { e.ffmpegPath = path }
}

// WithFFprobePath overrides the ffprobe binary location.
func WithFFprobePath(path string) Option {
	return func(e *Extractor) { e.ffprobePath = path }
}

// New returns an Extractor writing intermediate clips under workDir.
// An empty workDir falls back to the system temp directory.
func New(workDir string, opts ...Option) *Extractor {
	if workDir == "" {
		workDir = os.TempDir()
	}
	e := &Extractor{
		ffmpegPath:  "ffmpeg",
		ffprobePath: "ffprobe",
		workDir:     workDir,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Window describes an extracted clip and where it sits in the source
// video. Start is the actual clamped offset, not the requested one;
// window-relative timestamps from the model must be resolved against it.
type Window struct {
	ClipPath string
	Start    timecode.Absolute
	End      timecode.Absolute
	FPS      int
}

// ExtractionError carries ffmpeg's stderr for diagnosis.
type ExtractionError struct {
	Args   []string
	Stderr string
	Err    error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("ffmpeg failed: %v: %s", e.Err, e.Stderr)
}

func (e *ExtractionError) Unwrap() error { return e.Err }

// ExtractWindow cuts a padded window around center from sourceVideo,
// re-encoded at the given frame rate. The window start clamps at the
// beginning of the video, so the leading padding may be shorter than
// requested near the origin.
func (e *Extractor) ExtractWindow(ctx context.Context, sourceVideo string, center timecode.Absolute, padding float64, fps int) (*Window, error) {
	if padding <= 0 {
		padding = DefaultWindowPadding
	}
	if fps <= 0 {
		fps = DefaultFPS
	}

	start := center - timecode.Absolute(padding)
	if start < 0 {
		start = 0
	}
	duration := 2 * padding

	outPath := filepath.Join(e.workDir, fmt.Sprintf("window_%s.mp4", uuid.NewString()))
	args := windowArgs(sourceVideo, float64(start), duration, fps, outPath)

	log.Debug().
		Str("source", sourceVideo).
		Float64("window_start", float64(start)).
		Float64("duration", duration).
		Int("fps", fps).
		Msg("Extracting analysis window")

	if err := e.runFFmpeg(ctx, args); err != nil {
		return nil, err
	}

	return &Window{
		ClipPath: outPath,
		Start:    start,
		End:      start + timecode.Absolute(duration),
		FPS:      fps,
	}, nil
}

// ExtractClip cuts the span losslessly in time terms (still re-encoded
// for clean keyframe boundaries) into destPath.
func (e *Extractor) ExtractClip(ctx context.Context, sourceVideo string, span timecode.Span, destPath string) error {
	args := windowArgs(sourceVideo, float64(span.Start), span.Duration(), 0, destPath)
	return e.runFFmpeg(ctx, args)
}

// ExtractAudio writes the full audio track as 16 kHz mono PCM WAV,
// the layout the beat detector reads.
func (e *Extractor) ExtractAudio(ctx context.Context, sourceVideo string) (string, error) {
	outPath := filepath.Join(e.workDir, fmt.Sprintf("audio_%s.wav", uuid.NewString()))
	args := []string{
		"-y",
		"-i", sourceVideo,
		"-vn",
		"-acodec", "pcm_s16le",
		"-ar", "16000",
		"-ac", "1",
		outPath,
	}
	if err := e.runFFmpeg(ctx, args); err != nil {
		return "", err
	}
	return outPath, nil
}

// ProbeDuration returns the container duration in seconds.
func (e *Extractor) ProbeDuration(ctx context.Context, sourceVideo string) (float64, error) {
	cmd := exec.CommandContext(ctx, e.ffprobePath,
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		sourceVideo,
	)
	out, err := cmd.Output()
	if err != nil {
		return 0, fmt.Errorf("ffprobe %s: %w", sourceVideo, err)
	}
	d, err := strconv.ParseFloat(strings.TrimSpace(string(out)), 64)
	if err != nil {
		return 0, fmt.Errorf("parse ffprobe duration %q: %w", out, err)
	}
	return d, nil
}

// Cleanup removes an intermediate file, tolerating its absence.
func (e *Extractor) Cleanup(path string) {
	if path == "" {
		return
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		log.Warn().Err(err).Str("path", path).Msg("Failed to remove intermediate file")
	}
}

// windowArgs builds the ffmpeg argument list for a seek-and-cut
// re-encode. fps <= 0 keeps the source frame rate.
func windowArgs(source string, start, duration float64, fps int, dest string) []string {
	args := []string{
		"-y",
		"-ss", formatSeconds(start),
		"-i", source,
		"-t", formatSeconds(duration),
	}
	if fps > 0 {
		args = append(args, "-r", strconv.Itoa(fps))
	}
	args = append(args,
		"-c:v", "libx264",
		"-preset", "fast",
		"-crf", "23",
		dest,
	)
	return args
}

func formatSeconds(s float64) string {
	return strconv.FormatFloat(s, 'f', 3, 64)
}

func (e *Extractor) runFFmpeg(ctx context.Context, args []string) error {
	cmd := exec.CommandContext(ctx, e.ffmpegPath, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return &ExtractionError{Args: args, Stderr: stderr.String(), Err: err}
	}
	return nil
}
