package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"learnify-backend/internal/models"
)

type AIModelRepo struct {
	pool *pgxpool.Pool
}

func NewAIModelRepo(pool *pgxpool.Pool) *AIModelRepo {
	return &AIModelRepo{pool: pool}
}

func (r *AIModelRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.AIModel, error) {
	m := &models.AIModel{}
	query := `SELECT id, name, provider, model_identifier, max_tokens, is_active, created_at
		FROM ai_models WHERE id = $1`

	err := r.pool.QueryRow(ctx, query, id).Scan(
		&m.ID, &m.Name, &m.Provider, &m.ModelIdentifier, &m.MaxTokens, &m.IsActive, &m.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return m, nil
}

// GetDefaultActive returns the first active model, pgx.ErrNoRows if none is configured.
func (r *AIModelRepo) GetDefaultActive(ctx context.Context) (*models.AIModel, error) {
	m := &models.AIModel{}
	query := `SELECT id, name, provider, model_identifier, max_tokens, is_active, created_at
		FROM ai_models WHERE is_active = TRUE ORDER BY created_at LIMIT 1`

	err := r.pool.QueryRow(ctx, query).Scan(
		&m.ID, &m.Name, &m.Provider, &m.ModelIdentifier, &m.MaxTokens, &m.IsActive, &m.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return m, nil
}

func (r *AIModelRepo) ListActive(ctx context.Context) ([]*models.AIModel, error) {
	query := `SELECT id, name, provider, model_identifier, max_tokens, is_active, created_at
		FROM ai_models WHERE is_active = TRUE ORDER BY name`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var list []*models.AIModel
	for rows.Next() {
		m := &models.AIModel{}
		err := rows.Scan(&m.ID, &m.Name, &m.Provider, &m.ModelIdentifier, &m.MaxTokens, &m.IsActive, &m.CreatedAt)
		if err != nil {
			return nil, err
		}
		list = append(list, m)
	}
	return list, rows.Err()
}
