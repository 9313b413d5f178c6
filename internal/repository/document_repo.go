package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"learnify-backend/internal/models"
)

type DocumentRepo struct {
	pool *pgxpool.Pool
}

func NewDocumentRepo(pool *pgxpool.Pool) *DocumentRepo {
	return &DocumentRepo{pool: pool}
}

func (r *DocumentRepo) Create(ctx context.Context, d *models.Document) error {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	query := `INSERT INTO documents
		(id, user_id, title, description, original_filename, file_path, file_size, file_type,
		 extracted_text, text_preview, page_count, word_count, status, processing_error)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		RETURNING created_at, updated_at`

	return r.pool.QueryRow(ctx, query,
		d.ID, d.UserID, d.Title, d.Description, d.OriginalFilename, d.FilePath, d.FileSize, d.FileType,
		d.ExtractedText, d.TextPreview, d.PageCount, d.WordCount, d.Status, d.ProcessingError,
	).Scan(&d.CreatedAt, &d.UpdatedAt)
}

const documentColumns = `id, user_id, title, description, original_filename, file_path, file_size, file_type,
	extracted_text, text_preview, page_count, word_count, status, processing_error, created_at, updated_at`

func scanDocument(row interface{ Scan(...any) error }) (*models.Document, error) {
	d := &models.Document{}
	err := row.Scan(
		&d.ID, &d.UserID, &d.Title, &d.Description, &d.OriginalFilename, &d.FilePath, &d.FileSize, &d.FileType,
		&d.ExtractedText, &d.TextPreview, &d.PageCount, &d.WordCount, &d.Status, &d.ProcessingError,
		&d.CreatedAt, &d.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return d, nil
}

func (r *DocumentRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Document, error) {
	query := `SELECT ` + documentColumns + ` FROM documents WHERE id = $1`
	return scanDocument(r.pool.QueryRow(ctx, query, id))
}

func (r *DocumentRepo) ListByUser(ctx context.Context, userID uuid.UUID) ([]*models.Document, error) {
	query := `SELECT ` + documentColumns + ` FROM documents WHERE user_id = $1 ORDER BY created_at DESC`

	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var docs []*models.Document
	for rows.Next() {
		d, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		docs = append(docs, d)
	}
	return docs, rows.Err()
}

// ListReadyByUser returns documents selectable for chat: status ready, newest first.
func (r *DocumentRepo) ListReadyByUser(ctx context.Context, userID uuid.UUID) ([]*models.Document, error) {
	query := `SELECT ` + documentColumns + ` FROM documents
		WHERE user_id = $1 AND status = 'ready' ORDER BY created_at DESC`

	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var docs []*models.Document
	for rows.Next() {
		d, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		docs = append(docs, d)
	}
	return docs, rows.Err()
}

// UpdateExtraction writes the outcome of text extraction, success or failure.
func (r *DocumentRepo) UpdateExtraction(ctx context.Context, d *models.Document) error {
	query := `UPDATE documents
		SET extracted_text = $1, text_preview = $2, page_count = $3, word_count = $4,
		    status = $5, processing_error = $6, updated_at = NOW()
		WHERE id = $7 RETURNING updated_at`

	return r.pool.QueryRow(ctx, query,
		d.ExtractedText, d.TextPreview, d.PageCount, d.WordCount,
		d.Status, d.ProcessingError, d.ID,
	).Scan(&d.UpdatedAt)
}

func (r *DocumentRepo) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.pool.Exec(ctx, "DELETE FROM documents WHERE id = $1", id)
	return err
}

func (r *DocumentRepo) Stats(ctx context.Context, userID uuid.UUID) (*models.DocumentStats, error) {
	s := &models.DocumentStats{}
	query := `SELECT
			COUNT(*),
			COUNT(*) FILTER (WHERE status = 'ready'),
			COUNT(*) FILTER (WHERE status = 'processing'),
			COUNT(*) FILTER (WHERE status = 'error'),
			COALESCE(SUM(file_size), 0),
			COALESCE(SUM(page_count), 0),
			COALESCE(SUM(word_count), 0)
		FROM documents WHERE user_id = $1`

	err := r.pool.QueryRow(ctx, query, userID).Scan(
		&s.TotalDocuments, &s.ReadyDocuments, &s.ProcessingDocuments, &s.ErrorDocuments,
		&s.TotalSizeBytes, &s.TotalPages, &s.TotalWords,
	)
	if err != nil {
		return nil, err
	}
	return s, nil
}
