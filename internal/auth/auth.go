// Package auth resolves and validates the Gemini API credential used by the
// inference client. Resolution happens once at startup; the resolved key is
// passed explicitly into client construction rather than read from hidden
// global state.
package auth

import (
	"fmt"
	"os"
	"sync"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

// APIKeyEnv is the environment variable holding the Gemini API key.
const APIKeyEnv = "GEMINI_API_KEY"

var dotenvOnce sync.Once

// GetAPIKey retrieves the Gemini API key from available sources.
// Priority order:
//  1. GEMINI_API_KEY environment variable
//  2. A .env file in the working directory (loaded once, never overriding
//     variables already set in the environment)
func GetAPIKey() (string, error) {
	if key := os.Getenv(APIKeyEnv); key != "" {
		log.Debug().Msg("Using API key from environment variable")
		return key, nil
	}

	dotenvOnce.Do(func() {
		if err := godotenv.Load(); err != nil {
			log.Debug().Err(err).Msg("No .env file loaded")
		}
	})

	if key := os.Getenv(APIKeyEnv); key != "" {
		log.Debug().Msg("Using API key from .env file")
		return key, nil
	}

	return "", fmt.Errorf("API key not found: set %s in the environment or in a .env file", APIKeyEnv)
}
