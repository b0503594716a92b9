// Package clip defines the records that flow between the three refinement
// tiers. Each clip's data moves linearly tier to tier: Tier 1 produces
// immutable Candidates, Tier 2 produces a Result with the refined span and
// validation, and Tier 3 finalizes the Result with a human disposition.
//
// The JSON field names here are the pipeline's external contract. The
// orchestrating agent consumes these records verbatim, so renaming a field is
// a breaking change.
package clip

import (
	"time"

	"github.com/fpang/broll-media-cli/internal/timecode"
)

// Quality is the model's qualitative assessment of a clip's visual quality.
type Quality string

const (
	QualityLow    Quality = "low"
	QualityMedium Quality = "medium"
	QualityHigh   Quality = "high"
)

// ParseQuality normalizes a model-supplied quality label. Unknown or missing
// labels default to medium, and the default is recorded on the candidate so
// the fallback stays visible in the output.
func ParseQuality(s string) Quality {
	switch Quality(s) {
	case QualityLow, QualityMedium, QualityHigh:
		return Quality(s)
	default:
		return QualityMedium
	}
}

// Weight returns the quality's contribution to relevance scoring.
func (q Quality) Weight() float64 {
	switch q {
	case QualityHigh:
		return 1.0
	case QualityLow:
		return 0.3
	default:
		return 0.6
	}
}

// Candidate is one segment identified by the Tier 1 scan. Candidates are
// immutable once scored; Tier 2 never mutates them, it produces a separate
// Result.
type Candidate struct {
	SourceVideo    string   `json:"source_video"`
	StartTime      float64  `json:"start_time"`
	EndTime        float64  `json:"end_time"`
	Duration       float64  `json:"duration"`
	Description    string   `json:"description"`
	Tags           []string `json:"tags"`
	VisualQuality  Quality  `json:"visual_quality"`
	RelevanceNotes string   `json:"relevance_notes,omitempty"`
	RelevanceScore float64  `json:"relevance_score"`
	Recommended    bool     `json:"recommended"`
}

// Span returns the candidate's estimate as an absolute span.
func (c Candidate) Span() timecode.Span {
	return timecode.Span{Start: timecode.Absolute(c.StartTime), End: timecode.Absolute(c.EndTime)}
}

// Checklist is the fixed set of acceptance criteria the model evaluates per
// refinement attempt, plus its self-reported confidence.
type Checklist struct {
	CleanStart         bool `json:"clean_start"`
	CleanEnd           bool `json:"clean_end"`
	NoHumans           bool `json:"no_humans"`
	CompleteContent    bool `json:"complete_content"`
	MatchesDescription bool `json:"matches_description"`
}

// AllPass reports whether every acceptance criterion passed.
func (c Checklist) AllPass() bool {
	return c.CleanStart && c.CleanEnd && c.NoHumans && c.CompleteContent && c.MatchesDescription
}

// AutoAcceptConfidence is the minimum model confidence for a refinement to be
// usable without human review.
const AutoAcceptConfidence = 0.70

// Validation carries the checklist outcome for one refinement attempt.
type Validation struct {
	AllChecksPass bool      `json:"all_checks_pass"`
	Confidence    float64   `json:"confidence"`
	Issues        []string  `json:"issues"`
	Checks        Checklist `json:"checks"`
}

// AutoAcceptable reports whether the refinement may be used without
// escalating to a human: every check passed and confidence clears the gate.
// The caller, not the refiner, decides what to do when this is false.
func (v Validation) AutoAcceptable() bool {
	return v.AllChecksPass && v.Confidence >= AutoAcceptConfidence
}

// Status is the terminal disposition of one clip's refinement.
type Status string

const (
	StatusAcceptedAsIs         Status = "accepted_as_is"
	StatusRefinedByHuman       Status = "refined_by_human"
	StatusRefinedAutomatically Status = "refined_automatically"
	StatusRejected             Status = "rejected"
	StatusSkipped              Status = "skipped"
	StatusCancelled            Status = "cancelled"
)

// Usable reports whether a clip with this status may be consumed downstream.
func (s Status) Usable() bool {
	switch s {
	case StatusAcceptedAsIs, StatusRefinedByHuman, StatusRefinedAutomatically:
		return true
	default:
		return false
	}
}

// Timestamp is an absolute start/end/duration triple as it appears in
// finalized records.
type Timestamp struct {
	Start    timecode.Absolute `json:"start"`
	End      timecode.Absolute `json:"end"`
	Duration float64           `json:"duration"`
}

// NewTimestamp builds a Timestamp from an absolute span.
func NewTimestamp(span timecode.Span) *Timestamp {
	return &Timestamp{Start: span.Start, End: span.End, Duration: span.Duration()}
}

// WindowInfo records the extraction window a refinement was analyzed in.
// WindowStart is the window's ACTUAL start in the source video (after any
// clamping at 0) and is the origin for every coordinate transform on this
// clip.
type WindowInfo struct {
	ClipPath    string            `json:"clip_path"`
	WindowStart timecode.Absolute `json:"window_start"`
	WindowEnd   timecode.Absolute `json:"window_end"`
	PaddingUsed float64           `json:"padding_used"`
	FPS         int               `json:"fps"`
}

// Disposition is the outcome of a Tier 3 human session.
type Disposition struct {
	FinalStatus        Status     `json:"final_status"`
	Reason             string     `json:"reason,omitempty"`
	IssueType          string     `json:"issue_type,omitempty"`
	CorrectedTimestamp *Timestamp `json:"corrected_timestamp"`
	HumanFeedback      string     `json:"human_feedback,omitempty"`
	RefinedAt          time.Time  `json:"refined_at"`
}

// Result is the terminal record for one clip. It is created by Tier 2,
// optionally completed by Tier 3, and never mutated after a final status is
// reached.
type Result struct {
	SourceVideo      string        `json:"source_video"`
	Tier1Estimate    timecode.Span `json:"tier1_estimate"`
	Tier2Refined     *Timestamp    `json:"tier2_refined"`
	ExtractionWindow *WindowInfo   `json:"extraction_window,omitempty"`
	Validation       Validation    `json:"validation"`
	ModelDescription string        `json:"model_description,omitempty"`
	HumanFeedback    string        `json:"human_feedback,omitempty"`
	Tier3            *Disposition  `json:"tier3,omitempty"`
	FinalStatus      Status        `json:"final_status,omitempty"`
	Usable           bool          `json:"usable_by_orchestrator"`
	AnalyzedAt       time.Time     `json:"analyzed_at"`
}

// Finalize records a Tier 3 disposition on the result. For statuses that keep
// the clip usable without a correction (accepted_as_is) the Tier 2 timestamp
// remains the final one.
func (r *Result) Finalize(d *Disposition) {
	r.Tier3 = d
	r.FinalStatus = d.FinalStatus
	r.Usable = d.FinalStatus.Usable()
}
