package services

import (
	"context"
	"encoding/json"
	"log"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"dailyq-backend/internal/models"
)

// QuestionUpdatesChannel is the redis pub/sub channel the websocket hub
// subscribes to.
const QuestionUpdatesChannel = "question_updates"

// Notifier publishes best-effort change events after committed transitions.
// Lost events are acceptable: clients poll as the fallback of record.
type Notifier struct {
	redis *redis.Client
}

func NewNotifier(redisClient *redis.Client) *Notifier {
	return &Notifier{redis: redisClient}
}

func (n *Notifier) Publish(ctx context.Context, eventType string, sessionID uuid.UUID, numbers []int) {
	if n == nil || n.redis == nil {
		return
	}

	event := models.QuestionEvent{
		Type:      eventType,
		SessionID: sessionID.String(),
		Numbers:   numbers,
	}
	data, err := json.Marshal(event)
	if err != nil {
		return
	}

	if err := n.redis.Publish(ctx, QuestionUpdatesChannel, data).Err(); err != nil {
		log.Printf("notifier: failed to publish %s event: %v", eventType, err)
	}
}
