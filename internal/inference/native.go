package inference

import (
	"context"
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"google.golang.org/genai"
)

// nativeTransport speaks the provider's own API through the official SDK.
// Remote URLs are passed through as file references; local paths are first
// uploaded via the Files API and referenced by the returned URI.
type nativeTransport struct {
	client *genai.Client
}

const (
	uploadPollInterval = 5 * time.Second
	uploadTimeout      = 10 * time.Minute
)

func (t *nativeTransport) analyze(ctx context.Context, mediaRef, instruction, model string) (string, error) {
	var media *genai.Part

	if IsRemoteURL(mediaRef) {
		media = &genai.Part{
			FileData: &genai.FileData{
				MIMEType: videoMIMEType(mediaRef),
				FileURI:  mediaRef,
			},
		}
	} else {
		uri, mimeType, err := t.uploadVideo(ctx, mediaRef)
		if err != nil {
			return "", err
		}
		media = &genai.Part{
			FileData: &genai.FileData{
				MIMEType: mimeType,
				FileURI:  uri,
			},
		}
	}

	contents := []*genai.Content{{
		Role:  "user",
		Parts: []*genai.Part{media, {Text: instruction}},
	}}

	resp, err := t.client.Models.GenerateContent(ctx, model, contents, nil)
	if err != nil {
		return "", fmt.Errorf("generate content: %w", err)
	}
	if resp == nil || len(resp.Candidates) == 0 {
		return "", fmt.Errorf("empty response from model %s", model)
	}

	return resp.Text(), nil
}

// uploadVideo pushes a local video through the Files API and waits for
// server-side processing to finish. Returns the file URI to reference in the
// generation request.
func (t *nativeTransport) uploadVideo(ctx context.Context, path string) (uri, mimeType string, err error) {
	f, err := os.Open(path)
	if err != nil {
		return "", "", fmt.Errorf("open video: %w", err)
	}
	defer f.Close()

	mimeType = videoMIMEType(path)

	uploadStart := time.Now()
	file, err := t.client.Files.Upload(ctx, f, &genai.UploadFileConfig{MIMEType: mimeType})
	if err != nil {
		return "", "", fmt.Errorf("upload video: %w", err)
	}

	log.Debug().
		Str("name", file.Name).
		Str("uri", file.URI).
		Dur("upload_duration", time.Since(uploadStart)).
		Msg("Video uploaded, waiting for processing")

	deadline := time.Now().Add(uploadTimeout)
	for file.State == genai.FileStateProcessing {
		if time.Now().After(deadline) {
			return "", "", fmt.Errorf("timeout waiting for video processing after %v", uploadTimeout)
		}
		select {
		case <-ctx.Done():
			return "", "", ctx.Err()
		case <-time.After(uploadPollInterval):
		}

		file, err = t.client.Files.Get(ctx, file.Name, nil)
		if err != nil {
			return "", "", fmt.Errorf("poll file state: %w", err)
		}
	}

	if file.State == genai.FileStateFailed {
		return "", "", fmt.Errorf("provider-side video processing failed for %s", path)
	}

	return file.URI, mimeType, nil
}

// videoMIMEType guesses a MIME type from the reference's extension,
// defaulting to video/mp4 which is what the extractor produces.
func videoMIMEType(ref string) string {
	ext := strings.ToLower(filepath.Ext(ref))
	if mt := mime.TypeByExtension(ext); mt != "" && strings.HasPrefix(mt, "video/") {
		return mt
	}
	switch ext {
	case ".webm":
		return "video/webm"
	case ".mov":
		return "video/quicktime"
	case ".mkv":
		return "video/x-matroska"
	default:
		return "video/mp4"
	}
}
