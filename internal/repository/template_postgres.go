package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"

	"github.com/dompl/campaignforge/internal/domain"
	"github.com/dompl/campaignforge/pkg/sections"
)

type templateRepository struct {
	db *sql.DB
}

// NewTemplateRepository creates a new PostgreSQL template repository
func NewTemplateRepository(db *sql.DB) domain.TemplateRepository {
	return &templateRepository{
		db: db,
	}
}

func (r *templateRepository) Save(ctx context.Context, template *domain.CampaignTemplate) (string, error) {
	if err := template.Validate(); err != nil {
		return "", err
	}

	// The caller's template is left untouched; the assigned id travels back
	// through the return value only.
	now := time.Now().UTC()
	id := template.ID
	createdAt := template.CreatedAt
	if id == "" {
		id = uuid.New().String()
		createdAt = now
	}

	model := template.Model.Clone()
	model.ID = id
	model.Name = template.Name

	modelJSON, err := sections.MarshalTemplateModel(model)
	if err != nil {
		return "", fmt.Errorf("failed to serialize template model: %w", err)
	}

	// Last write wins per id.
	query := `
		INSERT INTO campaign_templates (id, name, sections, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO UPDATE
		SET name = EXCLUDED.name,
			sections = EXCLUDED.sections,
			updated_at = EXCLUDED.updated_at,
			deleted_at = NULL
	`
	_, err = r.db.ExecContext(ctx, query,
		id,
		template.Name,
		modelJSON,
		createdAt,
		now,
	)
	if err != nil {
		return "", fmt.Errorf("failed to save template: %w", err)
	}
	return id, nil
}

func (r *templateRepository) GetByID(ctx context.Context, id string) (*domain.CampaignTemplate, error) {
	query := `
		SELECT id, name, sections, created_at, updated_at
		FROM campaign_templates
		WHERE id = $1 AND deleted_at IS NULL
	`
	row := r.db.QueryRowContext(ctx, query, id)

	template, err := scanTemplate(row)
	if err == sql.ErrNoRows {
		return nil, &domain.ErrTemplateNotFound{Message: "template not found"}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get template: %w", err)
	}
	return template, nil
}

func (r *templateRepository) List(ctx context.Context) ([]*domain.TemplateSummary, error) {
	psql := sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

	query, args, err := psql.Select("id", "name", "updated_at").
		From("campaign_templates").
		Where(sq.Eq{"deleted_at": nil}).
		OrderBy("updated_at DESC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list templates: %w", err)
	}
	defer rows.Close()

	var summaries []*domain.TemplateSummary
	for rows.Next() {
		var s domain.TemplateSummary
		if err := rows.Scan(&s.ID, &s.Name, &s.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan template summary: %w", err)
		}
		summaries = append(summaries, &s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating template rows: %w", err)
	}
	return summaries, nil
}

func (r *templateRepository) Delete(ctx context.Context, id string) error {
	query := `UPDATE campaign_templates SET deleted_at = NOW() WHERE id = $1 AND deleted_at IS NULL`

	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete template: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return &domain.ErrTemplateNotFound{Message: "template not found"}
	}
	return nil
}

// scanTemplate scans a template from a database row
func scanTemplate(scanner interface {
	Scan(dest ...interface{}) error
}) (*domain.CampaignTemplate, error) {
	var (
		template  domain.CampaignTemplate
		modelJSON []byte
	)

	err := scanner.Scan(
		&template.ID,
		&template.Name,
		&modelJSON,
		&template.CreatedAt,
		&template.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	model, err := sections.UnmarshalTemplateModel(modelJSON)
	if err != nil {
		return nil, fmt.Errorf("failed to parse template model: %w", err)
	}
	template.Model = model

	return &template, nil
}
