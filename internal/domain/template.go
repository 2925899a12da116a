package domain

import (
	"context"
	"fmt"
	"time"

	"github.com/dompl/campaignforge/pkg/sections"
)

// CampaignTemplate is the persisted form of a section-based email layout.
type CampaignTemplate struct {
	ID        string                  `json:"id"`
	Name      string                  `json:"name"`
	Model     *sections.TemplateModel `json:"model"`
	CreatedAt time.Time               `json:"created_at"`
	UpdatedAt time.Time               `json:"updated_at"`
}

func (t *CampaignTemplate) Validate() error {
	if t.Name == "" {
		return fmt.Errorf("invalid template: name is required")
	}
	if len(t.Name) > 120 {
		return fmt.Errorf("invalid template: name length must be between 1 and 120")
	}
	if t.Model == nil {
		return fmt.Errorf("invalid template: model is required")
	}
	if err := t.Model.Validate(); err != nil {
		return fmt.Errorf("invalid template: %w", err)
	}
	return nil
}

// TemplateSummary is the listing row for saved templates.
type TemplateSummary struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TemplateRepository is the dumb store for template models. Last write wins
// per id; no transactionality beyond that is expected.
type TemplateRepository interface {
	// Save inserts or replaces the template and returns its persistent id,
	// assigning one when the template is new.
	Save(ctx context.Context, template *CampaignTemplate) (string, error)
	GetByID(ctx context.Context, id string) (*CampaignTemplate, error)
	List(ctx context.Context) ([]*TemplateSummary, error)
	Delete(ctx context.Context, id string) error
}
