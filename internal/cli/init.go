package cli

import (
	"context"

	"github.com/rs/zerolog/log"
	"google.golang.org/genai"

	"github.com/fpang/broll-media-cli/internal/auth"
	"github.com/fpang/broll-media-cli/internal/inference"
)

// InitInferenceClient resolves the API key, validates it with a minimal
// request, and returns a ready inference client. Exits fatally on
// failure; commands call this before touching any media.
func InitInferenceClient(ctx context.Context) *inference.Client {
	apiKey, err := auth.GetAPIKey()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to retrieve API key")
	}

	gc, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create provider client")
	}

	if err := auth.ValidateAPIKey(ctx, gc); err != nil {
		HandleValidationError(err)
	}
	log.Info().Msg("API key validation complete - ready for operations")

	client, err := inference.New(ctx, inference.Config{APIKey: apiKey, GenAI: gc})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create inference client")
	}
	return client
}
