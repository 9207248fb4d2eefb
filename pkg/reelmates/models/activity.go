package models

import (
	"time"
)

// Activity is one audit-log row produced by the event sink. Delivery is
// fire-and-forget; no core operation depends on these rows.
type Activity struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	Event     string    `gorm:"not null;index" json:"event"`
	GroupID   string    `gorm:"index" json:"group_id"`
	ActorID   uint      `json:"actor_id"`
	SubjectID uint      `json:"subject_id"`
}
