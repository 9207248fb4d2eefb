// Package events delivers logical domain events to the activity log.
// Delivery is fire-and-forget: a failed publish is logged and never
// surfaces to the operation that produced the event.
package events

import (
	"context"
	"log/slog"
	"time"

	"gorm.io/gorm"

	"github.com/reelmates/reelmates/pkg/reelmates/models"
)

// Event names emitted by the services.
const (
	GroupCreated       = "group.created"
	GroupExpanded      = "group.expanded"
	MembershipInvited  = "membership.invited"
	MembershipAccepted = "membership.accepted"
	MembershipDeclined = "membership.declined"
)

// Event is one logical occurrence in the group/membership lifecycle.
// SubjectID is the user acted upon (invitee, accepter) and may equal ActorID.
type Event struct {
	Name       string
	GroupID    string
	ActorID    uint
	SubjectID  uint
	OccurredAt time.Time
}

// Sink receives events. Implementations must not fail the caller.
type Sink interface {
	Publish(ctx context.Context, event Event)
}

// LogSink writes events to the structured log only.
type LogSink struct{}

// Publish logs the event.
func (LogSink) Publish(_ context.Context, event Event) {
	slog.Info("event",
		"name", event.Name,
		"group_id", event.GroupID,
		"actor_id", event.ActorID,
		"subject_id", event.SubjectID,
	)
}

// ActivitySink persists events as activity rows for the audit trail.
type ActivitySink struct {
	db *gorm.DB
}

// NewActivitySink creates a sink that records events in the database.
func NewActivitySink(db *gorm.DB) *ActivitySink {
	return &ActivitySink{db: db}
}

// Publish records the event. Failures are logged and swallowed.
func (s *ActivitySink) Publish(ctx context.Context, event Event) {
	activity := models.Activity{
		Event:     event.Name,
		GroupID:   event.GroupID,
		ActorID:   event.ActorID,
		SubjectID: event.SubjectID,
	}
	if !event.OccurredAt.IsZero() {
		activity.CreatedAt = event.OccurredAt
	}
	if err := s.db.WithContext(ctx).Create(&activity).Error; err != nil {
		slog.Warn("failed to record activity",
			"event", event.Name,
			"group_id", event.GroupID,
			"error", err,
		)
	}
}

// RecentForGroup returns the newest activity rows for a group, most recent
// first, capped at limit.
func (s *ActivitySink) RecentForGroup(ctx context.Context, groupID string, limit int) ([]models.Activity, error) {
	var rows []models.Activity
	err := s.db.WithContext(ctx).
		Where("group_id = ?", groupID).
		Order("id DESC").
		Limit(limit).
		Find(&rows).Error
	return rows, err
}
