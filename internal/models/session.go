package models

import (
	"time"

	"github.com/google/uuid"
)

// Session is the single global "day" of question delivery. At most one row
// is active at a time (enforced by a partial unique index).
type Session struct {
	ID        uuid.UUID  `json:"id"`
	Target    int        `json:"target"`
	Uploaded  int        `json:"uploaded"`
	Active    bool       `json:"active"`
	StartedAt *time.Time `json:"started_at"`
	EndedAt   *time.Time `json:"ended_at"`
	CreatedAt time.Time  `json:"created_at"`
}

type SetTargetRequest struct {
	Target int `json:"target"`
}
