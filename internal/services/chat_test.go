package services

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"learnify-backend/internal/models"
)

// stubModelStore serves resolveModel tests without a database.
type stubModelStore struct {
	byID          map[uuid.UUID]*models.AIModel
	defaultActive *models.AIModel
}

func (s *stubModelStore) GetByID(_ context.Context, id uuid.UUID) (*models.AIModel, error) {
	if m, ok := s.byID[id]; ok {
		return m, nil
	}
	return nil, pgx.ErrNoRows
}

func (s *stubModelStore) GetDefaultActive(_ context.Context) (*models.AIModel, error) {
	if s.defaultActive == nil {
		return nil, pgx.ErrNoRows
	}
	return s.defaultActive, nil
}

func (s *stubModelStore) ListActive(_ context.Context) ([]*models.AIModel, error) {
	if s.defaultActive == nil {
		return nil, nil
	}
	return []*models.AIModel{s.defaultActive}, nil
}

func TestResolveModel(t *testing.T) {
	pinnedActive := &models.AIModel{ID: uuid.New(), ModelIdentifier: "pinned-model", IsActive: true}
	pinnedInactive := &models.AIModel{ID: uuid.New(), ModelIdentifier: "retired-model", IsActive: false}
	fallback := &models.AIModel{ID: uuid.New(), ModelIdentifier: "default-model", IsActive: true}
	missingID := uuid.New()

	store := &stubModelStore{
		byID: map[uuid.UUID]*models.AIModel{
			pinnedActive.ID:   pinnedActive,
			pinnedInactive.ID: pinnedInactive,
		},
		defaultActive: fallback,
	}
	svc := &ConversationService{modelRepo: store}

	tests := []struct {
		name   string
		pinned *uuid.UUID
		want   string
	}{
		{"no pinned model uses default", nil, "default-model"},
		{"active pinned model wins", &pinnedActive.ID, "pinned-model"},
		{"deactivated pinned model falls back", &pinnedInactive.ID, "default-model"},
		{"missing pinned model falls back", &missingID, "default-model"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			conv := &models.Conversation{AIModelID: tt.pinned}
			model, err := svc.resolveModel(context.Background(), conv)
			if err != nil {
				t.Fatalf("resolveModel: %v", err)
			}
			if model.ModelIdentifier != tt.want {
				t.Errorf("model = %s, want %s", model.ModelIdentifier, tt.want)
			}
		})
	}
}

func TestResolveModelNoModelsConfigured(t *testing.T) {
	svc := &ConversationService{modelRepo: &stubModelStore{}}

	_, err := svc.resolveModel(context.Background(), &models.Conversation{})

	var confErr *ConfigurationError
	if !errors.As(err, &confErr) {
		t.Fatalf("error = %v, want ConfigurationError", err)
	}
}
