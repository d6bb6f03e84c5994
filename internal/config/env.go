package config

import (
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
)

// APIKeyEnv names the environment variable holding the Gemini credential.
// The key is read from the environment only and never written to the
// settings file.
const APIKeyEnv = "GEMINI_API_KEY"

// FallbackAPIKeyEnv is the Google SDK convention honored when APIKeyEnv
// is unset.
const FallbackAPIKeyEnv = "GOOGLE_API_KEY"

// LoadAPIKey loads .env files from the given directories, first match
// wins, then resolves the API key from the environment.
func LoadAPIKey(dirs ...string) string {
	for _, dir := range dirs {
		if dir == "" {
			continue
		}

		if err := godotenv.Load(filepath.Join(dir, ".env")); err == nil {
			break
		}
	}

	if key := os.Getenv(APIKeyEnv); key != "" {
		return key
	}

	return os.Getenv(FallbackAPIKeyEnv)
}
