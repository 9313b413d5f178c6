package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"learnify-backend/internal/models"
)

type ConversationRepo struct {
	pool *pgxpool.Pool
}

func NewConversationRepo(pool *pgxpool.Pool) *ConversationRepo {
	return &ConversationRepo{pool: pool}
}

// Begin opens a transaction for the message-exchange sequence. The caller
// owns commit/rollback.
func (r *ConversationRepo) Begin(ctx context.Context) (pgx.Tx, error) {
	return r.pool.Begin(ctx)
}

func (r *ConversationRepo) Create(ctx context.Context, c *models.Conversation, documentIDs []uuid.UUID) error {
	c.ID = uuid.New()

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	query := `INSERT INTO conversations (id, user_id, title, ai_model_id)
		VALUES ($1, $2, $3, $4) RETURNING created_at, updated_at`
	if err := tx.QueryRow(ctx, query, c.ID, c.UserID, c.Title, c.AIModelID).Scan(&c.CreatedAt, &c.UpdatedAt); err != nil {
		return err
	}

	for _, docID := range documentIDs {
		_, err := tx.Exec(ctx,
			"INSERT INTO conversation_documents (conversation_id, document_id) VALUES ($1, $2)",
			c.ID, docID)
		if err != nil {
			return err
		}
	}
	c.DocumentIDs = documentIDs

	return tx.Commit(ctx)
}

func (r *ConversationRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Conversation, error) {
	c := &models.Conversation{}
	query := `SELECT id, user_id, title, ai_model_id, total_messages, total_tokens, created_at, updated_at
		FROM conversations WHERE id = $1`

	err := r.pool.QueryRow(ctx, query, id).Scan(
		&c.ID, &c.UserID, &c.Title, &c.AIModelID, &c.TotalMessages, &c.TotalTokens, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	rows, err := r.pool.Query(ctx,
		"SELECT document_id FROM conversation_documents WHERE conversation_id = $1", id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var docID uuid.UUID
		if err := rows.Scan(&docID); err != nil {
			return nil, err
		}
		c.DocumentIDs = append(c.DocumentIDs, docID)
	}
	return c, rows.Err()
}

func (r *ConversationRepo) ListByUser(ctx context.Context, userID uuid.UUID) ([]*models.Conversation, error) {
	query := `SELECT id, user_id, title, ai_model_id, total_messages, total_tokens, created_at, updated_at
		FROM conversations WHERE user_id = $1 ORDER BY updated_at DESC`

	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var convs []*models.Conversation
	for rows.Next() {
		c := &models.Conversation{}
		err := rows.Scan(&c.ID, &c.UserID, &c.Title, &c.AIModelID, &c.TotalMessages, &c.TotalTokens, &c.CreatedAt, &c.UpdatedAt)
		if err != nil {
			return nil, err
		}
		convs = append(convs, c)
	}
	return convs, rows.Err()
}

func (r *ConversationRepo) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.pool.Exec(ctx, "DELETE FROM conversations WHERE id = $1", id)
	return err
}

// LinkedDocuments loads the full documents linked to a conversation, in link order.
func (r *ConversationRepo) LinkedDocuments(ctx context.Context, conversationID uuid.UUID) ([]*models.Document, error) {
	query := `SELECT ` + documentColumns + ` FROM documents d
		JOIN conversation_documents cd ON cd.document_id = d.id
		WHERE cd.conversation_id = $1 ORDER BY d.created_at`

	rows, err := r.pool.Query(ctx, query, conversationID)
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

func (r *ConversationRepo) ListMessages(ctx context.Context, conversationID uuid.UUID) ([]*models.Message, error) {
	query := `SELECT id, conversation_id, role, content, tokens_used, is_edited, created_at
		FROM messages WHERE conversation_id = $1 ORDER BY created_at`

	rows, err := r.pool.Query(ctx, query, conversationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var msgs []*models.Message
	for rows.Next() {
		m := &models.Message{}
		err := rows.Scan(&m.ID, &m.ConversationID, &m.Role, &m.Content, &m.TokensUsed, &m.IsEdited, &m.CreatedAt)
		if err != nil {
			return nil, err
		}
		msgs = append(msgs, m)
	}
	return msgs, rows.Err()
}

// CreateMessageTx persists a message inside the exchange transaction.
func (r *ConversationRepo) CreateMessageTx(ctx context.Context, tx pgx.Tx, m *models.Message) error {
	m.ID = uuid.New()
	query := `INSERT INTO messages (id, conversation_id, role, content, tokens_used)
		VALUES ($1, $2, $3, $4, $5) RETURNING created_at`

	return tx.QueryRow(ctx, query, m.ID, m.ConversationID, m.Role, m.Content, m.TokensUsed).Scan(&m.CreatedAt)
}

// UpdateCountersTx bumps the running totals inside the exchange transaction.
func (r *ConversationRepo) UpdateCountersTx(ctx context.Context, tx pgx.Tx, id uuid.UUID, messageDelta, tokenDelta int) (time.Time, error) {
	var updatedAt time.Time
	query := `UPDATE conversations
		SET total_messages = total_messages + $1, total_tokens = total_tokens + $2, updated_at = NOW()
		WHERE id = $3 RETURNING updated_at`

	err := tx.QueryRow(ctx, query, messageDelta, tokenDelta, id).Scan(&updatedAt)
	return updatedAt, err
}
