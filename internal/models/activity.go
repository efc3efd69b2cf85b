package models

import (
	"time"

	"github.com/google/uuid"
)

// Activity verbs, one per observed lifecycle transition.
const (
	ActionUnlocked  = "unlocked"
	ActionViewed    = "viewed"
	ActionCompleted = "completed"
)

// Activity is an append-only audit log entry. Rows are never updated and are
// deleted only as part of the session-end cascade.
type Activity struct {
	ID         uuid.UUID `json:"id"`
	QuestionID uuid.UUID `json:"question_id"`
	ActorID    uuid.UUID `json:"actor_id"`
	Action     string    `json:"action"`
	Timestamp  time.Time `json:"timestamp"`

	// QuestionNumber is populated on reads that join the owning question,
	// e.g. the admin summary feed.
	QuestionNumber *int `json:"question_number,omitempty"`
}
