// Package review implements the interactive third pass: a human watches
// the extraction window and either approves, corrects, rejects or skips
// a clip the automatic refinement could not settle.
package review

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/fpang/broll-media-cli/internal/clip"
	"github.com/fpang/broll-media-cli/internal/metrics"
	"github.com/fpang/broll-media-cli/internal/timecode"
)

// Prompter is the human side of a review session. Implementations block
// until the human answers; the session goroutine handles cancellation.
type Prompter interface {
	// Show presents informational text.
	Show(text string)
	// Choose presents a question with single-letter options and returns
	// the human's raw answer.
	Choose(question string, options []Option) (string, error)
	// Input asks a free-form question. Empty answers are allowed.
	Input(question string) (string, error)
}

// Option is one selectable answer in a Choose prompt.
type Option struct {
	Key   string
	Label string
}

// Clip is the unit of review: the extraction window a human can watch
// plus the model's window-relative suggestion.
type Clip struct {
	WindowClipPath string
	WindowStart    timecode.Absolute
	ModelStart     timecode.WindowRelative
	ModelEnd       timecode.WindowRelative
	Description    string
}

// Session runs human review over a Prompter.
type Session struct {
	prompter Prompter
}

// NewSession returns a review session on the given prompter.
func NewSession(p Prompter) *Session {
	return &Session{prompter: p}
}

var usabilityOptions = []Option{
	{Key: "y", Label: "Yes, with corrections"},
	{Key: "n", Label: "No, completely wrong clip"},
	{Key: "s", Label: "Skip this clip for now"},
}

var issueOptions = []Option{
	{Key: "s", Label: "Starts too late (missing beginning)"},
	{Key: "e", Label: "Ends too late (includes extra content)"},
	{Key: "b", Label: "Both start and end need correction"},
	{Key: "o", Label: "Other issue"},
	{Key: "g", Label: "Actually looks good, accept it"},
}

// Review walks the human through one clip and returns the disposition.
// Cancelling the context mid-session yields a cancelled disposition, not
// an error, so the record can still be written out.
func (s *Session) Review(ctx context.Context, c Clip) *clip.Disposition {
	type outcome struct {
		d   *clip.Disposition
		err error
	}
	done := make(chan outcome, 1)

	go func() {
		d, err := s.run(c)
		done <- outcome{d: d, err: err}
	}()

	select {
	case <-ctx.Done():
		log.Warn().Msg("Review cancelled")
		return &clip.Disposition{
			FinalStatus: clip.StatusCancelled,
			Reason:      "review cancelled",
			RefinedAt:   time.Now().UTC(),
		}
	case out := <-done:
		if out.err != nil {
			log.Warn().Err(out.err).Msg("Review input closed")
			return &clip.Disposition{
				FinalStatus: clip.StatusCancelled,
				Reason:      "input closed during review",
				RefinedAt:   time.Now().UTC(),
			}
		}
		metrics.ForOperation("review").
			Dimension("Status", string(out.d.FinalStatus)).
			Count("Reviewed", 1).
			Elapsed("SessionMs").
			Flush()
		return out.d
	}
}

func (s *Session) run(c Clip) (*clip.Disposition, error) {
	s.showClip(c)

	answer, err := s.prompter.Choose("Is this clip usable?", usabilityOptions)
	if err != nil {
		return nil, err
	}

	switch answer {
	case "n":
		reason, err := s.prompter.Input("Why is it wrong? (for learning)")
		if err != nil {
			return nil, err
		}
		return &clip.Disposition{
			FinalStatus: clip.StatusRejected,
			Reason:      reason,
			RefinedAt:   time.Now().UTC(),
		}, nil
	case "s":
		return &clip.Disposition{
			FinalStatus: clip.StatusSkipped,
			Reason:      "user chose to skip",
			RefinedAt:   time.Now().UTC(),
		}, nil
	}

	issue, err := s.prompter.Choose("What's wrong with the model's timestamps?", issueOptions)
	if err != nil {
		return nil, err
	}

	if issue == "g" {
		return &clip.Disposition{
			FinalStatus: clip.StatusAcceptedAsIs,
			Reason:      "human approved model's timestamps",
			RefinedAt:   time.Now().UTC(),
		}, nil
	}

	return s.collectCorrection(c, issue)
}

func (s *Session) collectCorrection(c Clip, issue string) (*clip.Disposition, error) {
	s.prompter.Show(fmt.Sprintf(
		"Provide corrected timestamps in seconds, relative to the window clip (starts at 0:00).\nModel suggested: %.2fs - %.2fs",
		c.ModelStart.Seconds(), c.ModelEnd.Seconds()))

	newStart := c.ModelStart
	newEnd := c.ModelEnd

	if issue == "s" || issue == "b" {
		newStart = s.askTime("Correct start time (seconds)", c.ModelStart)
	}
	if issue == "e" || issue == "b" {
		newEnd = s.askTime("Correct end time (seconds)", c.ModelEnd)
	}

	feedback, err := s.prompter.Input("Additional feedback (optional, for learning)")
	if err != nil {
		return nil, err
	}

	corrected := timecode.WindowSpan{Start: newStart, End: newEnd}.Absolute(c.WindowStart)

	return &clip.Disposition{
		FinalStatus:        clip.StatusRefinedByHuman,
		IssueType:          issue,
		CorrectedTimestamp: clip.NewTimestamp(corrected),
		HumanFeedback:      feedback,
		RefinedAt:          time.Now().UTC(),
	}, nil
}

// askTime parses a human-entered timestamp, falling back to the model's
// value on malformed input.
func (s *Session) askTime(question string, fallback timecode.WindowRelative) timecode.WindowRelative {
	answer, err := s.prompter.Input(question)
	if err != nil {
		return fallback
	}
	v, perr := parseSeconds(answer)
	if perr != nil {
		s.prompter.Show("Invalid input, using model's value")
		return fallback
	}
	return timecode.WindowRelative(v)
}

func (s *Session) showClip(c Clip) {
	abs := timecode.WindowSpan{Start: c.ModelStart, End: c.ModelEnd}.Absolute(c.WindowStart)
	s.prompter.Show(fmt.Sprintf(
		"B-roll clip needs human refinement\n\nDescription: %s\n\nExtracted window clip:\n  %s\n  Window starts at %.1fs in the original video\n\nModel's best guess:\n  In original video: %.2fs - %.2fs\n  Duration: %.2fs\n\nWatch the clip in a video player before answering.",
		c.Description, c.WindowClipPath, c.WindowStart.Seconds(),
		abs.Start.Seconds(), abs.End.Seconds(), abs.Duration()))
}

var errEmptyNumber = errors.New("empty number")

func parseSeconds(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, errEmptyNumber
	}
	return strconv.ParseFloat(s, 64)
}
