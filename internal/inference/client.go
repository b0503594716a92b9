// Package inference is the resilient client every tier uses to talk to the
// multimodal inference provider. It owns protocol dispatch (native SDK vs the
// OpenAI-compatible endpoint), the retry policy, and the parsing of
// structured responses. It holds no per-request state beyond the retry
// counter local to one call, so a single Client is safe to share across
// concurrently refined clips.
package inference

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/fpang/broll-media-cli/internal/jsonutil"
	"github.com/fpang/broll-media-cli/internal/metrics"
	"github.com/rs/zerolog/log"
	"google.golang.org/genai"
)

// MaxAttempts is the total number of attempts per logical call, including
// the first.
const MaxAttempts = 5

// backoffDelays[n] is the sleep before attempt n+1. The final delay is never
// consumed: after the 5th failure the call gives up immediately.
var backoffDelays = [MaxAttempts]time.Duration{
	1 * time.Second,
	2 * time.Second,
	4 * time.Second,
	8 * time.Second,
	16 * time.Second,
}

// transport performs a single attempt against one wire protocol.
type transport interface {
	analyze(ctx context.Context, mediaRef, instruction, model string) (string, error)
}

// Config carries everything needed to construct a Client. The API key is
// resolved once at startup (internal/auth) and passed in explicitly.
type Config struct {
	// APIKey authenticates both protocols.
	APIKey string

	// CompatBaseURL overrides the OpenAI-compatible endpoint. Empty means
	// the provider default.
	CompatBaseURL string

	// HTTPClient overrides the HTTP client used by the OpenAI-compatible
	// transport, mostly for tests.
	HTTPClient *http.Client

	// GenAI reuses an already-constructed SDK client (e.g. the one used for
	// startup key validation). When nil a new one is created from APIKey.
	GenAI *genai.Client
}

// Client is the resilient inference client shared by all tiers.
type Client struct {
	native transport
	compat transport

	// sleep is swapped out in tests so retry timing can be asserted without
	// real delays.
	sleep func(ctx context.Context, d time.Duration) error
}

// New constructs a Client with both protocol transports ready.
func New(ctx context.Context, cfg Config) (*Client, error) {
	gc := cfg.GenAI
	if gc == nil {
		var err error
		gc, err = genai.NewClient(ctx, &genai.ClientConfig{
			APIKey:  cfg.APIKey,
			Backend: genai.BackendGeminiAPI,
		})
		if err != nil {
			return nil, fmt.Errorf("create provider client: %w", err)
		}
	}

	hc := cfg.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: 5 * time.Minute}
	}

	return &Client{
		native: &nativeTransport{client: gc},
		compat: newCompatTransport(cfg.APIKey, cfg.CompatBaseURL, hc),
		sleep:  ctxSleep,
	}, nil
}

// Analyze sends one instruction-and-media request and returns the model's
// raw text response. The media reference may be a local file path or a
// remote URL; which of the two protocols is used depends only on the model
// variant. The call blocks through up to MaxAttempts attempts with
// exponential backoff between them.
func (c *Client) Analyze(ctx context.Context, mediaRef, instruction, model string) (string, error) {
	t, err := c.transportFor(mediaRef, model)
	if err != nil {
		return "", err
	}

	rec := metrics.ForOperation("inference").
		Dimension("Model", model).
		Dimension("Protocol", ProtocolFor(model).String())

	var lastErr error
	for attempt := 0; attempt < MaxAttempts; attempt++ {
		text, err := t.analyze(ctx, mediaRef, instruction, model)
		if err == nil {
			rec.Count("Attempts", attempt+1).Elapsed("LatencyMs").Flush()
			return text, nil
		}
		lastErr = err

		if attempt == MaxAttempts-1 {
			break
		}

		delay := backoffDelays[attempt]
		log.Warn().
			Err(err).
			Int("attempt", attempt+1).
			Int("max_attempts", MaxAttempts).
			Dur("retry_in", delay).
			Str("model", model).
			Msg("Inference attempt failed, retrying")

		if serr := c.sleep(ctx, delay); serr != nil {
			// Cancelled mid-backoff: surface the interruption, not the
			// transport error, so the caller can distinguish the two.
			return "", fmt.Errorf("inference interrupted during backoff: %w", serr)
		}
	}

	rec.Count("Attempts", MaxAttempts).Count("Exhausted", 1).Flush()
	log.Error().
		Err(lastErr).
		Int("attempts", MaxAttempts).
		Str("model", model).
		Msg("All inference attempts exhausted")

	return "", &ExhaustedError{Attempts: MaxAttempts, Model: model, Err: lastErr}
}

// AnalyzeStructured runs Analyze and parses the response as JSON, tolerating
// a single markdown code fence around the payload. The returned bytes are
// ready for a typed json.Unmarshal. A response that is not valid JSON yields
// a *MalformedResponseError carrying the raw text.
func (c *Client) AnalyzeStructured(ctx context.Context, mediaRef, instruction, model string) (json.RawMessage, error) {
	text, err := c.Analyze(ctx, mediaRef, instruction, model)
	if err != nil {
		return nil, err
	}

	raw, err := jsonutil.Parse(text)
	if err != nil {
		return nil, &MalformedResponseError{Raw: text, Err: err}
	}
	return raw, nil
}

// transportFor selects the transport for a model and fails fast - before any
// network I/O - when the media reference cannot be used with that protocol.
func (c *Client) transportFor(mediaRef, model string) (transport, error) {
	switch ProtocolFor(model) {
	case ProtocolOpenAICompat:
		if !IsRemoteURL(mediaRef) {
			return nil, &UnsupportedMediaReferenceError{MediaRef: mediaRef, Protocol: ProtocolOpenAICompat}
		}
		return c.compat, nil
	default:
		return c.native, nil
	}
}

// ctxSleep blocks for d or until the context is done, whichever comes first.
func ctxSleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
