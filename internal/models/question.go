package models

import (
	"time"

	"github.com/google/uuid"
)

// Question lifecycle statuses. Transitions are monotonic:
// locked → unlocked → viewed → completed, never backwards.
const (
	StatusLocked    = "locked"
	StatusUnlocked  = "unlocked"
	StatusViewed    = "viewed"
	StatusCompleted = "completed"
)

type Question struct {
	ID         uuid.UUID  `json:"id"`
	SessionID  uuid.UUID  `json:"session_id"`
	Number     int        `json:"number"`
	ImageURL   string     `json:"image_url"`
	Status     string     `json:"status"`
	UnlockTime *time.Time `json:"unlock_time"`
	CreatedAt  time.Time  `json:"created_at"`
}
