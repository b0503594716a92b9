// Package assets provides embedded static assets for the application.
//
// Prompt templates are stored as text files under prompts/ and embedded
// at compile time, so wording changes never touch Go code.
package assets

import (
	"bytes"
	_ "embed"
	"strings"
	"text/template"
)

// --- Static prompts (no dynamic data) ---

// StyleAnalysisPrompt extracts pacing, visual style, text overlay and
// audio sync characteristics from a reference video.
//
//go:embed prompts/style.txt
var StyleAnalysisPrompt string

// NarrativeAnalysisPrompt extracts hook, storyline structure, retention
// techniques and call-to-action patterns from a reference video.
//
//go:embed prompts/narrative.txt
var NarrativeAnalysisPrompt string

// AudioVisualPrompt extracts speech/music synchronization patterns.
// Requires an audio-aware model.
//
//go:embed prompts/audiovisual.txt
var AudioVisualPrompt string

// --- Dynamic prompt templates ---

//go:embed prompts/identify.txt
var identifyTemplate string

//go:embed prompts/refine.txt
var refineTemplate string

// Pre-parsed templates. template.Must panics on malformed templates,
// catching errors at program startup rather than at call time.
var (
	identifyTmpl = template.Must(template.New("identify").Parse(identifyTemplate))
	refineTmpl   = template.Must(template.New("refine").Parse(refineTemplate))
)

// RenderIdentifyPrompt builds the clip enumeration prompt for the given
// script keywords.
func RenderIdentifyPrompt(keywords []string) string {
	var buf bytes.Buffer
	_ = identifyTmpl.Execute(&buf, struct{ Keywords string }{Keywords: strings.Join(keywords, ", ")})
	return buf.String()
}

// RefinePromptData holds the dynamic data for the timestamp refinement
// prompt. HumanFeedback may be empty; the template drops the feedback
// section entirely in that case.
type RefinePromptData struct {
	Description   string
	ApproxStart   float64
	ApproxEnd     float64
	HumanFeedback string
	WindowPadding float64
	FPS           int
}

// RenderRefinePrompt builds the frame-accurate refinement prompt.
func RenderRefinePrompt(data RefinePromptData) string {
	var buf bytes.Buffer
	_ = refineTmpl.Execute(&buf, data)
	return buf.String()
}
