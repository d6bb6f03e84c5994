package domain

// DefaultModelID is the vision model used when settings name none.
const DefaultModelID = "gemini-2.5-flash"

// ModelOption describes one selectable vision model preset.
type ModelOption struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Default     bool   `json:"default"`
}
