// Package memberships implements the invitation lifecycle: inviting users
// into a group and accepting or declining a pending invitation.
package memberships

import (
	"context"
	"log/slog"
	"time"

	"github.com/reelmates/reelmates/pkg/reelmates/events"
	"github.com/reelmates/reelmates/pkg/reelmates/faults"
	"github.com/reelmates/reelmates/pkg/reelmates/models"
	"github.com/reelmates/reelmates/pkg/reelmates/store"
)

// Service manages membership invitations and transitions.
type Service struct {
	store  store.GroupStore
	events events.Sink
}

// NewService creates a membership service.
func NewService(groupStore store.GroupStore, sink events.Sink) *Service {
	return &Service{store: groupStore, events: sink}
}

// Invite creates memberships for the given users. The capacity check and
// the inserts run in one transaction so concurrent invites cannot jointly
// overbook the group. The call is all-or-nothing: if any target already has
// a membership row (including a declined one), nothing is created.
func (s *Service) Invite(ctx context.Context, actorID uint, groupID string, userIDs []uint) ([]models.Membership, error) {
	if len(userIDs) == 0 {
		return nil, faults.Validation("no users to invite")
	}
	seen := make(map[uint]bool, len(userIDs))
	for _, id := range userIDs {
		if seen[id] {
			return nil, faults.Validation("duplicate user id %d in invite list", id)
		}
		seen[id] = true
	}

	var created []models.Membership
	err := s.store.InTx(ctx, func(tx store.GroupStore) error {
		group, err := tx.GetGroup(ctx, groupID)
		if err != nil {
			return err
		}

		actor, err := tx.GetMembership(ctx, groupID, actorID)
		if err != nil || actor.Status != models.MembershipStatusActive || !actor.Role.CanManage() {
			return faults.Forbidden("only an active owner or admin can invite members")
		}

		if !group.Settings.AllowInvites {
			return faults.Validation("invites disabled")
		}

		occupied, err := tx.CountOccupied(ctx, groupID)
		if err != nil {
			return err
		}
		if occupied+int64(len(userIDs)) > int64(group.MaxMembers) {
			return faults.LimitExceeded("group has %d of %d seats taken, cannot invite %d more",
				occupied, group.MaxMembers, len(userIDs))
		}

		status := models.MembershipStatusActive
		if group.Settings.RequireApproval {
			status = models.MembershipStatusPending
		}

		created = created[:0]
		now := time.Now()
		for _, userID := range userIDs {
			if _, err := tx.GetMembership(ctx, groupID, userID); err == nil {
				return faults.Conflict("user %d is already a member or invited", userID)
			} else if !faults.IsKind(err, faults.KindNotFound) {
				return err
			}

			membership := models.Membership{
				GroupID:   groupID,
				UserID:    userID,
				Role:      models.MembershipRoleMember,
				Status:    status,
				InvitedBy: &actorID,
			}
			if status == models.MembershipStatusActive {
				joined := now
				membership.JoinedAt = &joined
			}
			if err := tx.CreateMembership(ctx, &membership); err != nil {
				return err
			}
			created = append(created, membership)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	slog.Info("members invited", "group_id", groupID, "actor_id", actorID, "count", len(created))
	for _, m := range created {
		s.events.Publish(ctx, events.Event{
			Name: events.MembershipInvited, GroupID: groupID,
			ActorID: actorID, SubjectID: m.UserID, OccurredAt: time.Now(),
		})
	}
	return created, nil
}

// Accept transitions the actor's pending invitation to active.
func (s *Service) Accept(ctx context.Context, actorID uint, groupID string) (*models.Membership, error) {
	membership, err := s.transition(ctx, actorID, groupID, models.MembershipStatusActive)
	if err != nil {
		return nil, err
	}

	slog.Info("invitation accepted", "group_id", groupID, "user_id", actorID)
	s.events.Publish(ctx, events.Event{
		Name: events.MembershipAccepted, GroupID: groupID,
		ActorID: actorID, SubjectID: actorID, OccurredAt: time.Now(),
	})
	return membership, nil
}

// Decline transitions the actor's pending invitation to declined. Declined
// is terminal: the row stays in place and the user cannot be re-invited.
func (s *Service) Decline(ctx context.Context, actorID uint, groupID string) error {
	if _, err := s.transition(ctx, actorID, groupID, models.MembershipStatusDeclined); err != nil {
		return err
	}

	slog.Info("invitation declined", "group_id", groupID, "user_id", actorID)
	s.events.Publish(ctx, events.Event{
		Name: events.MembershipDeclined, GroupID: groupID,
		ActorID: actorID, SubjectID: actorID, OccurredAt: time.Now(),
	})
	return nil
}

func (s *Service) transition(ctx context.Context, actorID uint, groupID string, to models.MembershipStatus) (*models.Membership, error) {
	var membership *models.Membership
	err := s.store.InTx(ctx, func(tx store.GroupStore) error {
		var err error
		membership, err = tx.GetMembership(ctx, groupID, actorID)
		if err != nil {
			return err
		}
		if membership.Status != models.MembershipStatusPending {
			return faults.Conflict("no pending invitation")
		}

		membership.Status = to
		if to == models.MembershipStatusActive {
			now := time.Now()
			membership.JoinedAt = &now
		}
		return tx.UpdateMembership(ctx, membership)
	})
	if err != nil {
		return nil, err
	}
	return membership, nil
}

// ListPendingInvitationsFor returns the actor's pending invitations with
// their groups loaded. Read-only.
func (s *Service) ListPendingInvitationsFor(ctx context.Context, userID uint) ([]models.Membership, error) {
	return s.store.FindPendingInvitationsFor(ctx, userID)
}
