package domain

import (
	"context"
	"encoding/json"
)

// GenerationContext carries the brief the AI collaborator writes against.
type GenerationContext struct {
	Theme          string `json:"theme,omitempty"`
	Tone           string `json:"tone,omitempty"`
	Language       string `json:"language,omitempty"`
	FreeformPrompt string `json:"freeform_prompt,omitempty"`
	StoreContext   string `json:"store_context,omitempty"`
}

// GenerationRequest asks the collaborator for copy covering the listed
// fields of one section. Fields the user pinned to manual are simply not
// listed.
type GenerationRequest struct {
	SectionType     string            `json:"section_type"`
	Fields          []string          `json:"fields"`
	CurrentSettings MapOfAny          `json:"current_settings"`
	Context         GenerationContext `json:"context"`
}

// GenerationResult is the collaborator's answer. Fields is a loose JSON
// object of fieldKey -> value; FailedFields reports per-field partial
// failures that should not discard the rest of the patch.
type GenerationResult struct {
	Fields       json.RawMessage   `json:"fields"`
	FailedFields map[string]string `json:"failed_fields,omitempty"`
}

// AIGenerator is the AI text-generation collaborator. Implementations must
// be safe to call repeatedly with the same request.
type AIGenerator interface {
	GenerateSectionContent(ctx context.Context, req GenerationRequest) (*GenerationResult, error)
}
