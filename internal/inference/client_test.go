package inference

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

// scriptedTransport fails a fixed number of times before succeeding.
type scriptedTransport struct {
	failures int
	calls    int
	response string
}

func (s *scriptedTransport) analyze(ctx context.Context, mediaRef, instruction, model string) (string, error) {
	s.calls++
	if s.calls <= s.failures {
		return "", fmt.Errorf("transient failure %d", s.calls)
	}
	return s.response, nil
}

// newTestClient wires a fake transport and a recording sleeper.
func newTestClient(t transport) (*Client, *[]time.Duration) {
	slept := &[]time.Duration{}
	c := &Client{
		native: t,
		compat: t,
		sleep: func(ctx context.Context, d time.Duration) error {
			*slept = append(*slept, d)
			return ctx.Err()
		},
	}
	return c, slept
}

func TestRetryBackoffTiming(t *testing.T) {
	// Fails 4 times then succeeds: total sleep must be 1+2+4+8 = 15s and the
	// 16s delay must never be consumed.
	tr := &scriptedTransport{failures: 4, response: "ok"}
	c, slept := newTestClient(tr)

	got, err := c.Analyze(context.Background(), "video.mp4", "describe", ModelVisionFlash)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "ok" {
		t.Errorf("unexpected response: %q", got)
	}
	if tr.calls != 5 {
		t.Errorf("expected 5 attempts, got %d", tr.calls)
	}

	var total time.Duration
	for _, d := range *slept {
		total += d
	}
	if total != 15*time.Second {
		t.Errorf("expected 15s total backoff, got %v (delays %v)", total, *slept)
	}
	for _, d := range *slept {
		if d == 16*time.Second {
			t.Error("final 16s delay must never be consumed")
		}
	}
}

func TestRetryExhaustion(t *testing.T) {
	tr := &scriptedTransport{failures: 100}
	c, slept := newTestClient(tr)

	_, err := c.Analyze(context.Background(), "video.mp4", "describe", ModelVisionFlash)

	var exhausted *ExhaustedError
	if !errors.As(err, &exhausted) {
		t.Fatalf("expected *ExhaustedError, got %v", err)
	}
	if exhausted.Attempts != MaxAttempts {
		t.Errorf("expected %d attempts recorded, got %d", MaxAttempts, exhausted.Attempts)
	}
	if tr.calls != MaxAttempts {
		t.Errorf("expected exactly %d attempts, got %d", MaxAttempts, tr.calls)
	}
	// Four sleeps between five attempts; none after the last.
	if len(*slept) != MaxAttempts-1 {
		t.Errorf("expected %d backoff sleeps, got %d", MaxAttempts-1, len(*slept))
	}
	if exhausted.Unwrap() == nil {
		t.Error("exhausted error must wrap the last transport error")
	}
}

func TestRetryCancelledDuringBackoff(t *testing.T) {
	tr := &scriptedTransport{failures: 100}
	ctx, cancel := context.WithCancel(context.Background())

	c := &Client{
		native: tr,
		compat: tr,
		sleep: func(ctx context.Context, d time.Duration) error {
			cancel()
			return ctx.Err()
		},
	}

	_, err := c.Analyze(ctx, "video.mp4", "describe", ModelVisionFlash)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if tr.calls != 1 {
		t.Errorf("expected no further attempts after cancellation, got %d", tr.calls)
	}
}

func TestCompatRejectsLocalPathBeforeNetwork(t *testing.T) {
	tr := &scriptedTransport{response: "should never be called"}
	c, _ := newTestClient(tr)

	_, err := c.Analyze(context.Background(), "/tmp/clip.mp4", "describe", ModelOmniFlash)

	var unsupported *UnsupportedMediaReferenceError
	if !errors.As(err, &unsupported) {
		t.Fatalf("expected *UnsupportedMediaReferenceError, got %v", err)
	}
	if tr.calls != 0 {
		t.Errorf("transport must not be reached, got %d calls", tr.calls)
	}
}

func TestAnalyzeStructuredStripsFence(t *testing.T) {
	tr := &scriptedTransport{response: "```json\n{\"clips\": [{\"start_time\": 3}]}\n```"}
	c, _ := newTestClient(tr)

	raw, err := c.AnalyzeStructured(context.Background(), "video.mp4", "enumerate", ModelVisionFlash)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var parsed struct {
		Clips []struct {
			StartTime float64 `json:"start_time"`
		} `json:"clips"`
	}
	if err := json.Unmarshal(raw, &parsed); err != nil {
		t.Fatalf("returned JSON does not unmarshal: %v", err)
	}
	if len(parsed.Clips) != 1 || parsed.Clips[0].StartTime != 3 {
		t.Errorf("unexpected parsed content: %+v", parsed)
	}
}

func TestAnalyzeStructuredMalformed(t *testing.T) {
	const rawText = "I could not produce JSON for this video, sorry."
	tr := &scriptedTransport{response: rawText}
	c, _ := newTestClient(tr)

	_, err := c.AnalyzeStructured(context.Background(), "video.mp4", "enumerate", ModelVisionFlash)

	var malformed *MalformedResponseError
	if !errors.As(err, &malformed) {
		t.Fatalf("expected *MalformedResponseError, got %v", err)
	}
	if malformed.Raw != rawText {
		t.Errorf("raw text not preserved: %q", malformed.Raw)
	}
}

func TestProtocolFor(t *testing.T) {
	tests := map[string]Protocol{
		ModelVisionFlash:        ProtocolNative,
		ModelVisionPro:          ProtocolNative,
		ModelOmniFlash:          ProtocolOpenAICompat,
		"qwen3-omni-flash":      ProtocolOpenAICompat,
		"some-future-vision-xl": ProtocolNative,
	}
	for model, want := range tests {
		if got := ProtocolFor(model); got != want {
			t.Errorf("ProtocolFor(%q) = %v, want %v", model, got, want)
		}
	}
}

func TestCompatTransportRoundTrip(t *testing.T) {
	var gotAuth string
	var gotBody chatRequest

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("decode request: %v", err)
		}
		fmt.Fprint(w, `{"choices":[{"message":{"content":"a skateboarder mid-air"}}]}`)
	}))
	defer srv.Close()

	tr := newCompatTransport("secret-key", srv.URL, srv.Client())
	got, err := tr.analyze(context.Background(), "https://cdn.example.com/v.mp4", "what is shown?", ModelOmniFlash)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "a skateboarder mid-air" {
		t.Errorf("unexpected content: %q", got)
	}
	if gotAuth != "Bearer secret-key" {
		t.Errorf("unexpected auth header: %q", gotAuth)
	}
	if len(gotBody.Messages) != 1 || len(gotBody.Messages[0].Content) != 2 {
		t.Fatalf("unexpected message shape: %+v", gotBody)
	}
	if gotBody.Messages[0].Content[0].VideoURL.URL != "https://cdn.example.com/v.mp4" {
		t.Errorf("video URL not forwarded: %+v", gotBody.Messages[0].Content[0])
	}
}

func TestCompatTransportStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model overloaded", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	tr := newCompatTransport("k", srv.URL, srv.Client())
	_, err := tr.analyze(context.Background(), "https://cdn.example.com/v.mp4", "q", ModelOmniFlash)

	var statusErr *StatusError
	if !errors.As(err, &statusErr) {
		t.Fatalf("expected *StatusError, got %v", err)
	}
	if statusErr.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("unexpected status: %d", statusErr.StatusCode)
	}
}
