package inference

import "fmt"

// ExhaustedError is returned when every retry attempt against the provider
// failed. It wraps the last underlying transport error.
type ExhaustedError struct {
	Attempts int
	Model    string
	Err      error
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("inference failed after %d attempts (model %s): %v", e.Attempts, e.Model, e.Err)
}

func (e *ExhaustedError) Unwrap() error { return e.Err }

// MalformedResponseError is returned when the model's response could not be
// parsed as JSON. Raw preserves the full response text for diagnostics.
type MalformedResponseError struct {
	Raw string
	Err error
}

func (e *MalformedResponseError) Error() string {
	preview := e.Raw
	if len(preview) > 200 {
		preview = preview[:200] + "..."
	}
	return fmt.Sprintf("model response is not valid JSON: %v (response: %s)", e.Err, preview)
}

func (e *MalformedResponseError) Unwrap() error { return e.Err }

// UnsupportedMediaReferenceError is returned before any network I/O when a
// media reference cannot be used with the selected protocol: the
// OpenAI-compatible endpoint only accepts http/https URLs.
type UnsupportedMediaReferenceError struct {
	MediaRef string
	Protocol Protocol
}

func (e *UnsupportedMediaReferenceError) Error() string {
	return fmt.Sprintf("media reference %q is not supported by the %s protocol: "+
		"upload local files to a remote URL first (S3 presigned URLs work)", e.MediaRef, e.Protocol)
}
