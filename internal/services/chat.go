package services

import (
	"context"
	"errors"
	"log"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"learnify-backend/internal/models"
	"learnify-backend/internal/repository"
)

// assistantErrorReply is persisted as the assistant message when the
// generative call fails; the exchange still commits with zero token usage.
const assistantErrorReply = "I'm sorry, I encountered an error while processing your request. Please try again."

// textGenerator is the slice of GeminiService the chat and test flows need.
type textGenerator interface {
	GenerateText(ctx context.Context, modelIdentifier, prompt string) (string, error)
}

// modelStore is the slice of AIModelRepo the conversation flow needs.
type modelStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.AIModel, error)
	GetDefaultActive(ctx context.Context) (*models.AIModel, error)
	ListActive(ctx context.Context) ([]*models.AIModel, error)
}

type ConversationService struct {
	convRepo  *repository.ConversationRepo
	docRepo   *repository.DocumentRepo
	modelRepo modelStore
	generator textGenerator
}

func NewConversationService(
	convRepo *repository.ConversationRepo,
	docRepo *repository.DocumentRepo,
	modelRepo modelStore,
	generator textGenerator,
) *ConversationService {
	return &ConversationService{
		convRepo:  convRepo,
		docRepo:   docRepo,
		modelRepo: modelRepo,
		generator: generator,
	}
}

// CreateConversation starts a conversation, silently dropping requested
// documents that are not owned, not ready, or have no extracted text.
func (s *ConversationService) CreateConversation(ctx context.Context, userID uuid.UUID, req models.CreateConversationRequest) (*models.Conversation, error) {
	title := strings.TrimSpace(req.Title)
	if title == "" {
		title = "New Conversation"
	}

	var documentIDs []uuid.UUID
	for _, docID := range req.DocumentIDs {
		doc, err := s.docRepo.GetByID(ctx, docID)
		if err != nil || doc.UserID != userID || !doc.IsReady() {
			continue
		}
		documentIDs = append(documentIDs, docID)
	}

	conv := &models.Conversation{UserID: userID, Title: title}
	if model, err := s.modelRepo.GetDefaultActive(ctx); err == nil {
		conv.AIModelID = &model.ID
	}

	if err := s.convRepo.Create(ctx, conv, documentIDs); err != nil {
		return nil, err
	}
	return conv, nil
}

func (s *ConversationService) ListConversations(ctx context.Context, userID uuid.UUID) ([]*models.Conversation, error) {
	return s.convRepo.ListByUser(ctx, userID)
}

func (s *ConversationService) GetConversation(ctx context.Context, userID, conversationID uuid.UUID) (*models.Conversation, error) {
	conv, err := s.convRepo.GetByID(ctx, conversationID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &NotFoundError{Message: "Conversation not found"}
		}
		return nil, err
	}
	if conv.UserID != userID {
		return nil, &NotFoundError{Message: "Conversation not found"}
	}
	return conv, nil
}

func (s *ConversationService) DeleteConversation(ctx context.Context, userID, conversationID uuid.UUID) error {
	if _, err := s.GetConversation(ctx, userID, conversationID); err != nil {
		return err
	}
	return s.convRepo.Delete(ctx, conversationID)
}

func (s *ConversationService) ListMessages(ctx context.Context, userID, conversationID uuid.UUID) ([]*models.Message, error) {
	if _, err := s.GetConversation(ctx, userID, conversationID); err != nil {
		return nil, err
	}
	return s.convRepo.ListMessages(ctx, conversationID)
}

// SendMessage runs one full exchange: persist the user message, prompt the
// model with linked documents plus recent history, persist the reply, and
// bump the conversation counters. All writes share one transaction. A failed
// generative call degrades to a canned reply instead of rolling back.
func (s *ConversationService) SendMessage(ctx context.Context, userID, conversationID uuid.UUID, content string) (*models.MessageExchange, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, &ValidationError{Fields: map[string]string{"content": "Message content cannot be empty"}}
	}

	conv, err := s.GetConversation(ctx, userID, conversationID)
	if err != nil {
		return nil, err
	}

	model, err := s.resolveModel(ctx, conv)
	if err != nil {
		return nil, err
	}

	docs, err := s.convRepo.LinkedDocuments(ctx, conversationID)
	if err != nil {
		return nil, err
	}

	// History is everything persisted so far; the new message is excluded
	// because it rides separately at the end of the prompt.
	history, err := s.convRepo.ListMessages(ctx, conversationID)
	if err != nil {
		return nil, err
	}

	tx, err := s.convRepo.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	userMsg := &models.Message{
		ConversationID: conversationID,
		Role:           models.RoleUser,
		Content:        content,
	}
	if err := s.convRepo.CreateMessageTx(ctx, tx, userMsg); err != nil {
		return nil, err
	}

	prompt := buildChatPrompt(docs, history, content)

	reply, genErr := s.generator.GenerateText(ctx, model.ModelIdentifier, prompt)
	tokensUsed := 0
	if genErr != nil {
		log.Printf("chat generation failed for conversation %s: %v", conversationID, genErr)
		reply = assistantErrorReply
	} else {
		tokensUsed = estimateTokens(prompt + reply)
	}

	assistantMsg := &models.Message{
		ConversationID: conversationID,
		Role:           models.RoleAssistant,
		Content:        reply,
		TokensUsed:     tokensUsed,
	}
	if err := s.convRepo.CreateMessageTx(ctx, tx, assistantMsg); err != nil {
		return nil, err
	}

	updatedAt, err := s.convRepo.UpdateCountersTx(ctx, tx, conversationID, 2, tokensUsed)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	conv.TotalMessages += 2
	conv.TotalTokens += tokensUsed
	conv.UpdatedAt = updatedAt

	return &models.MessageExchange{
		Messages:     []*models.Message{userMsg, assistantMsg},
		Conversation: conv,
	}, nil
}

func (s *ConversationService) resolveModel(ctx context.Context, conv *models.Conversation) (*models.AIModel, error) {
	if conv.AIModelID != nil {
		model, err := s.modelRepo.GetByID(ctx, *conv.AIModelID)
		if err != nil && !errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		if err == nil && model.IsActive {
			return model, nil
		}
		// Pinned model missing or deactivated; fall through to the default.
	}

	model, err := s.modelRepo.GetDefaultActive(ctx)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &ConfigurationError{Message: "No AI model available"}
		}
		return nil, err
	}
	return model, nil
}

func (s *ConversationService) ListModels(ctx context.Context) ([]*models.AIModel, error) {
	return s.modelRepo.ListActive(ctx)
}

// ChatDocuments lists the caller's ready documents in the slim shape the
// conversation-linking UI consumes.
func (s *ConversationService) ChatDocuments(ctx context.Context, userID uuid.UUID) ([]*models.ChatDocument, error) {
	docs, err := s.docRepo.ListReadyByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	out := make([]*models.ChatDocument, 0, len(docs))
	for _, doc := range docs {
		out = append(out, &models.ChatDocument{
			ID:            doc.ID,
			Title:         doc.Title,
			FileType:      doc.FileType,
			FileSize:      doc.FileSize,
			WordCount:     doc.WordCount,
			PageCount:     doc.PageCount,
			Status:        doc.Status,
			HasContent:    strings.TrimSpace(doc.ExtractedText) != "",
			ContentLength: len(doc.ExtractedText),
			CreatedAt:     doc.CreatedAt,
		})
	}
	return out, nil
}
