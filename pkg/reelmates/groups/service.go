// Package groups implements the group lifecycle: creation, the two-party
// relationship shortcut, and one-directional expansion to wider kinds.
package groups

import (
	"context"
	"log/slog"
	"time"

	"github.com/reelmates/reelmates/pkg/reelmates/directory"
	"github.com/reelmates/reelmates/pkg/reelmates/events"
	"github.com/reelmates/reelmates/pkg/reelmates/faults"
	"github.com/reelmates/reelmates/pkg/reelmates/models"
	"github.com/reelmates/reelmates/pkg/reelmates/store"
)

// Service manages group creation and expansion. All collaborators are
// injected so tests can substitute fakes.
type Service struct {
	store  store.GroupStore
	users  directory.Directory
	events events.Sink
}

// NewService creates a group lifecycle service.
func NewService(groupStore store.GroupStore, users directory.Directory, sink events.Sink) *Service {
	return &Service{store: groupStore, users: users, events: sink}
}

// CreateGroupParams are the caller-supplied fields for a new group.
// MaxMembers 0 and a nil Settings patch fall back to kind defaults.
type CreateGroupParams struct {
	Name        string
	Description string
	Kind        models.GroupKind
	MaxMembers  int
	Settings    *models.SettingsPatch
}

// CreateGroup creates a group and its owner membership atomically.
func (s *Service) CreateGroup(ctx context.Context, actorID uint, params CreateGroupParams) (*models.Group, error) {
	var group *models.Group
	err := s.store.InTx(ctx, func(tx store.GroupStore) error {
		var err error
		group, err = s.createGroup(ctx, tx, actorID, params, nil)
		return err
	})
	if err != nil {
		return nil, err
	}

	slog.Info("group created", "group_id", group.ID, "kind", group.Kind, "owner_id", actorID)
	s.events.Publish(ctx, events.Event{
		Name:       events.GroupCreated,
		GroupID:    group.ID,
		ActorID:    actorID,
		SubjectID:  actorID,
		OccurredAt: time.Now(),
	})
	return group, nil
}

// createGroup validates params and persists the group plus the creator's
// owner membership on the given (possibly transactional) store view.
func (s *Service) createGroup(ctx context.Context, tx store.GroupStore, actorID uint, params CreateGroupParams, pairKey *string) (*models.Group, error) {
	if params.Name == "" {
		return nil, faults.Validation("group name is required")
	}
	if !params.Kind.Valid() {
		return nil, faults.Validation("invalid group kind %q", params.Kind)
	}

	maxMembers := params.MaxMembers
	if params.Kind == models.GroupKindCouple {
		if maxMembers != 0 && maxMembers != 2 {
			return nil, faults.Validation("couple groups always have exactly 2 members")
		}
		maxMembers = 2
	} else if maxMembers == 0 {
		maxMembers = params.Kind.DefaultMaxMembers()
	} else if maxMembers < 2 {
		return nil, faults.Validation("max_members must be at least 2")
	}

	group := &models.Group{
		Name:        params.Name,
		Description: params.Description,
		Kind:        params.Kind,
		OwnerID:     actorID,
		MaxMembers:  maxMembers,
		PairKey:     pairKey,
		Settings:    params.Settings.Overlay(params.Kind.DefaultSettings()),
	}
	if err := tx.CreateGroup(ctx, group); err != nil {
		return nil, err
	}

	now := time.Now()
	owner := &models.Membership{
		GroupID:  group.ID,
		UserID:   actorID,
		Role:     models.MembershipRoleOwner,
		Status:   models.MembershipStatusActive,
		JoinedAt: &now,
	}
	if err := tx.CreateMembership(ctx, owner); err != nil {
		return nil, err
	}
	return group, nil
}

// CreateRelationship creates a couple group between the actor and the user
// behind partnerEmail. The pair-key constraint makes this atomic per
// unordered user pair: at most one couple can ever exist between two users.
func (s *Service) CreateRelationship(ctx context.Context, actorID uint, partnerEmail, name, description string) (*models.Group, error) {
	creator, err := s.users.FindByID(ctx, actorID)
	if err != nil {
		return nil, err
	}
	partner, err := s.users.FindByEmail(ctx, partnerEmail)
	if err != nil {
		return nil, err
	}
	if partner.ID == actorID {
		return nil, faults.Validation("cannot create a relationship with yourself")
	}

	if name == "" {
		name = creator.DisplayName + " & " + partner.DisplayName
	}
	pairKey := models.CouplePairKey(actorID, partner.ID)

	var group *models.Group
	err = s.store.InTx(ctx, func(tx store.GroupStore) error {
		_, err := tx.FindActiveCoupleBetween(ctx, actorID, partner.ID)
		if err == nil {
			return faults.Conflict("a relationship already exists between these users")
		}
		if !faults.IsKind(err, faults.KindNotFound) {
			return err
		}

		group, err = s.createGroup(ctx, tx, actorID, CreateGroupParams{
			Name:        name,
			Description: description,
			Kind:        models.GroupKindCouple,
		}, &pairKey)
		if err != nil {
			return err
		}

		invite := &models.Membership{
			GroupID:   group.ID,
			UserID:    partner.ID,
			Role:      models.MembershipRoleMember,
			Status:    models.MembershipStatusPending,
			InvitedBy: &actorID,
		}
		return tx.CreateMembership(ctx, invite)
	})
	if err != nil {
		return nil, err
	}

	slog.Info("relationship created", "group_id", group.ID, "creator_id", actorID, "partner_id", partner.ID)
	now := time.Now()
	s.events.Publish(ctx, events.Event{
		Name: events.GroupCreated, GroupID: group.ID,
		ActorID: actorID, SubjectID: actorID, OccurredAt: now,
	})
	s.events.Publish(ctx, events.Event{
		Name: events.MembershipInvited, GroupID: group.ID,
		ActorID: actorID, SubjectID: partner.ID, OccurredAt: now,
	})
	return group, nil
}

// ExpandParams are the caller-supplied fields for a group expansion.
type ExpandParams struct {
	Kind       models.GroupKind
	MaxMembers int
	Name       string
}

// ExpandGroup widens a group's kind, capacity and settings. Expansion is
// monotonic: couple -> friends -> watch_party, never backwards. The write
// uses optimistic concurrency; a lost race is retried once with a fresh
// read before Conflict is surfaced.
func (s *Service) ExpandGroup(ctx context.Context, actorID uint, groupID string, params ExpandParams) (*models.Group, error) {
	for attempt := 0; ; attempt++ {
		group, err := s.expandOnce(ctx, actorID, groupID, params)
		if err == nil {
			slog.Info("group expanded", "group_id", groupID, "kind", params.Kind, "actor_id", actorID)
			s.events.Publish(ctx, events.Event{
				Name: events.GroupExpanded, GroupID: groupID,
				ActorID: actorID, SubjectID: actorID, OccurredAt: time.Now(),
			})
			return group, nil
		}
		if attempt == 0 && faults.IsKind(err, faults.KindConflict) {
			continue
		}
		return nil, err
	}
}

func (s *Service) expandOnce(ctx context.Context, actorID uint, groupID string, params ExpandParams) (*models.Group, error) {
	group, err := s.store.GetGroup(ctx, groupID)
	if err != nil {
		return nil, err
	}

	membership, err := s.store.GetMembership(ctx, groupID, actorID)
	if err != nil || membership.Status != models.MembershipStatusActive || !membership.Role.CanManage() {
		return nil, faults.Forbidden("only an active owner or admin can expand the group")
	}

	if params.Kind != models.GroupKindFriends && params.Kind != models.GroupKindWatchParty {
		return nil, faults.Validation("groups can only expand to friends or watch_party")
	}
	if !params.Kind.WiderThan(group.Kind) {
		return nil, faults.Validation("cannot expand a %s group to %s", group.Kind, params.Kind)
	}

	maxMembers := params.MaxMembers
	if maxMembers == 0 {
		maxMembers = params.Kind.DefaultMaxMembers()
	}
	if maxMembers < 2 {
		return nil, faults.Validation("max_members must be at least 2")
	}
	occupied, err := s.store.CountOccupied(ctx, groupID)
	if err != nil {
		return nil, err
	}
	if int64(maxMembers) < occupied {
		return nil, faults.LimitExceeded("max_members %d is below the current member count %d", maxMembers, occupied)
	}

	group.Kind = params.Kind
	group.MaxMembers = maxMembers
	if params.Name != "" {
		group.Name = params.Name
	}
	group.Settings = models.GroupSettings{
		IsPublic:        params.Kind == models.GroupKindWatchParty,
		RequireApproval: params.Kind != models.GroupKindWatchParty,
		AllowInvites:    true,
	}

	if err := s.store.UpdateGroup(ctx, group); err != nil {
		return nil, err
	}
	return group, nil
}

// GetGroup returns a group to one of its members. Non-members get NotFound
// so group existence is not leaked.
func (s *Service) GetGroup(ctx context.Context, actorID uint, groupID string) (*models.Group, error) {
	group, err := s.store.GetGroup(ctx, groupID)
	if err != nil {
		return nil, err
	}
	if _, err := s.store.GetMembership(ctx, groupID, actorID); err != nil {
		return nil, faults.NotFound("group %s not found", groupID)
	}
	return group, nil
}
