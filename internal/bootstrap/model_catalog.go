package bootstrap

import (
	"fmt"
	"strings"

	"kickform/internal/domain"
)

var visionModelCatalog = []domain.ModelOption{
	{
		ID:          "gemini-2.5-flash",
		Name:        "Gemini 2.5 Flash",
		Description: "Fast multimodal model, good fit for short clips.",
		Default:     true,
	},
	{
		ID:          "gemini-2.5-pro",
		Name:        "Gemini 2.5 Pro",
		Description: "Strongest reasoning, slower and costlier per clip.",
	},
	{
		ID:          "gemini-2.0-flash",
		Name:        "Gemini 2.0 Flash",
		Description: "Previous generation, useful when 2.5 quota is tight.",
	},
}

// GetModels returns the built-in vision model presets for the settings
// view.
func (a *App) GetModels() []domain.ModelOption {
	models := make([]domain.ModelOption, len(visionModelCatalog))
	copy(models, visionModelCatalog)
	return models
}

// SelectModel persists one of the built-in model presets and rebuilds
// the analysis client for it.
func (a *App) SelectModel(modelID string) (domain.Settings, error) {
	model, found := getModelByID(strings.TrimSpace(modelID))
	if !found {
		return domain.Settings{}, fmt.Errorf("unknown model id: %s", modelID)
	}

	a.mu.Lock()
	settings := a.Settings
	a.mu.Unlock()

	settings.ModelName = model.ID
	return a.SaveSettings(settings)
}

// getModelByID looks a preset up by its identifier.
func getModelByID(id string) (domain.ModelOption, bool) {
	for _, model := range visionModelCatalog {
		if model.ID == id {
			return model, true
		}
	}
	return domain.ModelOption{}, false
}
