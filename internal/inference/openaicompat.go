package inference

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// defaultCompatBaseURL is the provider's OpenAI-compatible endpoint.
const defaultCompatBaseURL = "https://generativelanguage.googleapis.com/v1beta/openai"

// compatTransport speaks the OpenAI-compatible chat-completions protocol the
// audio-visual model family is served behind. Media must already be a
// http/https URL; the client verifies that before this transport is reached.
type compatTransport struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

func newCompatTransport(apiKey, baseURL string, client *http.Client) *compatTransport {
	if baseURL == "" {
		baseURL = defaultCompatBaseURL
	}
	return &compatTransport{
		apiKey:  apiKey,
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  client,
	}
}

// StatusError is a non-2xx reply from the OpenAI-compatible endpoint. The
// retry loop treats it like any other transport failure.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("chat completion failed: HTTP %d: %s", e.StatusCode, e.Body)
}

type chatRequest struct {
	Model    string        `json:"model"`
	Stream   bool          `json:"stream"`
	Messages []chatMessage `json:"messages"`
}

type chatMessage struct {
	Role    string        `json:"role"`
	Content []contentPart `json:"content"`
}

type contentPart struct {
	Type     string    `json:"type"`
	Text     string    `json:"text,omitempty"`
	VideoURL *videoURL `json:"video_url,omitempty"`
}

type videoURL struct {
	URL string `json:"url"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

func (t *compatTransport) analyze(ctx context.Context, mediaRef, instruction, model string) (string, error) {
	payload := chatRequest{
		Model:  model,
		Stream: false,
		Messages: []chatMessage{{
			Role: "user",
			Content: []contentPart{
				{Type: "video_url", VideoURL: &videoURL{URL: mediaRef}},
				{Type: "text", Text: instruction},
			},
		}},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal chat request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+t.apiKey)

	resp, err := t.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("http request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet := string(respBody)
		if len(snippet) > 512 {
			snippet = snippet[:512]
		}
		return "", &StatusError{StatusCode: resp.StatusCode, Body: snippet}
	}

	var parsed chatResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return "", fmt.Errorf("decode chat response: %w", err)
	}
	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("no choices in chat completion response")
	}

	return parsed.Choices[0].Message.Content, nil
}
