package config

import (
	"os"
	"path/filepath"

	"kickform/internal/domain"
)

// DefaultSettings returns baseline local configuration for first launch.
func DefaultSettings() domain.Settings {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		homeDir = "."
	}

	return domain.Settings{
		CountdownEnabled: true,
		CoachingLanguage: domain.LangEnglish,
		OutputDir:        filepath.Join(homeDir, "Documents", "KickForm"),
		ModelName:        domain.DefaultModelID,
	}
}

// Normalize fills gaps left by hand-edited or older settings files.
func Normalize(cfg domain.Settings) domain.Settings {
	if !domain.IsCoachingLanguage(cfg.CoachingLanguage) {
		cfg.CoachingLanguage = domain.LangEnglish
	}

	if cfg.ModelName == "" {
		cfg.ModelName = domain.DefaultModelID
	}

	if cfg.OutputDir == "" {
		cfg.OutputDir = DefaultSettings().OutputDir
	}

	return cfg
}
