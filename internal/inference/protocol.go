package inference

import (
	"os"
	"strings"
)

// Protocol identifies which of the provider's two wire protocols a model
// variant is served behind. The split exists because the vision-only family
// is reachable through the native API while the audio-visual "omni" family is
// only exposed through the provider's OpenAI-compatible endpoint.
type Protocol int

const (
	// ProtocolNative is the provider's own API, spoken via the official SDK.
	// It accepts local files (uploaded through the Files API) and remote
	// URLs.
	ProtocolNative Protocol = iota

	// ProtocolOpenAICompat is the provider's OpenAI-compatible
	// chat-completions endpoint. It accepts only http/https media URLs.
	ProtocolOpenAICompat
)

func (p Protocol) String() string {
	switch p {
	case ProtocolOpenAICompat:
		return "openai-compatible"
	default:
		return "native"
	}
}

// Model IDs understood by the pipeline.
//
// | Model                        | Protocol          | Use case                        |
// |------------------------------|-------------------|---------------------------------|
// | gemini-3-flash-preview       | native            | Tier 1 scans, general analysis  |
// | gemini-3.1-pro-preview       | native            | Tier 2 frame-accurate reasoning |
// | gemini-3-omni-flash-preview  | openai-compatible | Audio-visual correlation        |
const (
	// ModelVisionFlash is the default vision model for full-video scans.
	ModelVisionFlash = "gemini-3-flash-preview"

	// ModelVisionPro is the stronger vision model, worth the latency for
	// window-bounded boundary refinement.
	ModelVisionPro = "gemini-3.1-pro-preview"

	// ModelOmniFlash is the audio-visual model. Served only through the
	// OpenAI-compatible endpoint, so it needs remote media URLs.
	ModelOmniFlash = "gemini-3-omni-flash-preview"
)

// DefaultModel is the model used when no override is configured.
const DefaultModel = ModelVisionFlash

// GetModelName resolves the vision model to use: the BROLL_MODEL environment
// variable when set, otherwise DefaultModel.
func GetModelName() string {
	if env := os.Getenv("BROLL_MODEL"); env != "" {
		return env
	}
	return DefaultModel
}

// ProtocolFor maps a model variant to the wire protocol that serves it.
// The mapping is resolved here, once, instead of sniffing name prefixes at
// call sites: audio-visual "omni" variants live behind the OpenAI-compatible
// endpoint, everything else behind the native API.
func ProtocolFor(model string) Protocol {
	if strings.Contains(strings.ToLower(model), "omni") {
		return ProtocolOpenAICompat
	}
	return ProtocolNative
}

// IsRemoteURL reports whether a media reference is an http/https URL rather
// than a local file path.
func IsRemoteURL(ref string) bool {
	return strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://")
}
