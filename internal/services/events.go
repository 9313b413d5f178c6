package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"learnify-backend/internal/models"
)

// EventPublisher pushes lifecycle events to the per-user redis channel the
// websocket hub subscribes to. Publishing is best effort: a failed publish
// is logged, never surfaced to the request.
type EventPublisher struct {
	redis *redis.Client
}

func NewEventPublisher(redisClient *redis.Client) *EventPublisher {
	return &EventPublisher{redis: redisClient}
}

func (p *EventPublisher) Publish(ctx context.Context, userID uuid.UUID, msg models.WSMessage) {
	data, err := json.Marshal(msg)
	if err != nil {
		log.Printf("event publish: marshal failed: %v", err)
		return
	}
	if err := p.redis.Publish(ctx, fmt.Sprintf("user_updates:%s", userID.String()), string(data)).Err(); err != nil {
		log.Printf("event publish: redis publish failed for user %s: %v", userID, err)
	}
}

func (p *EventPublisher) DocumentUpdate(ctx context.Context, userID uuid.UUID, d *models.Document) {
	p.Publish(ctx, userID, models.WSMessage{
		Type: "document_update",
		Payload: models.DocumentEvent{
			DocumentID: d.ID,
			Title:      d.Title,
			Status:     d.Status,
			Error:      d.ProcessingError,
		},
	})
}

func (p *EventPublisher) TestUpdate(ctx context.Context, userID uuid.UUID, t *models.DocumentTest) {
	p.Publish(ctx, userID, models.WSMessage{
		Type: "test_update",
		Payload: models.TestEvent{
			TestID:     t.ID,
			DocumentID: t.DocumentID,
			Status:     t.Status,
			Error:      t.GenerationError,
		},
	})
}

func (p *EventPublisher) AttemptGraded(ctx context.Context, userID uuid.UUID, a *models.TestAttempt) {
	p.Publish(ctx, userID, models.WSMessage{
		Type: "attempt_graded",
		Payload: models.AttemptEvent{
			AttemptID: a.ID,
			TestID:    a.TestID,
			Score:     a.Score,
			Grade:     a.Grade,
			Passed:    a.Passed,
		},
	})
}
