package store

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/reelmates/reelmates/pkg/reelmates/faults"
	"github.com/reelmates/reelmates/pkg/reelmates/models"
)

// Ensure GormStore implements GroupStore
var _ GroupStore = (*GormStore)(nil)

// GormStore implements GroupStore on a GORM database.
type GormStore struct {
	db *gorm.DB
}

// NewGormStore creates a store backed by the given database.
func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

// CreateGroup persists a new group, assigning a UUID and initial version.
func (s *GormStore) CreateGroup(ctx context.Context, group *models.Group) error {
	if group.ID == "" {
		group.ID = uuid.NewString()
	}
	if group.Version == 0 {
		group.Version = 1
	}
	if err := s.db.WithContext(ctx).Create(group).Error; err != nil {
		if isUniqueViolation(err) {
			return faults.Wrap(faults.KindConflict, err, "group already exists")
		}
		return err
	}
	return nil
}

// GetGroup retrieves a group by id.
func (s *GormStore) GetGroup(ctx context.Context, id string) (*models.Group, error) {
	var group models.Group
	if err := s.db.WithContext(ctx).First(&group, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, faults.NotFound("group %s not found", id)
		}
		return nil, err
	}
	return &group, nil
}

// UpdateGroup writes a group's mutable fields, guarded by the version column.
// A concurrent writer that advanced the version first wins; the stale write
// returns Conflict and the caller must re-read.
func (s *GormStore) UpdateGroup(ctx context.Context, group *models.Group) error {
	res := s.db.WithContext(ctx).Model(&models.Group{}).
		Where("id = ? AND version = ?", group.ID, group.Version).
		Updates(map[string]interface{}{
			"name":                      group.Name,
			"description":               group.Description,
			"kind":                      group.Kind,
			"max_members":               group.MaxMembers,
			"settings_is_public":        group.Settings.IsPublic,
			"settings_require_approval": group.Settings.RequireApproval,
			"settings_allow_invites":    group.Settings.AllowInvites,
			"version":                   group.Version + 1,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return faults.Conflict("group %s was modified concurrently", group.ID)
	}
	group.Version++
	return nil
}

// CreateMembership persists a new membership row. The composite primary key
// turns a duplicate (group_id, user_id) insert into Conflict.
func (s *GormStore) CreateMembership(ctx context.Context, membership *models.Membership) error {
	if err := s.db.WithContext(ctx).Create(membership).Error; err != nil {
		if isUniqueViolation(err) {
			return faults.Wrap(faults.KindConflict, err,
				"user %d already has a membership in group %s", membership.UserID, membership.GroupID)
		}
		return err
	}
	return nil
}

// GetMembership retrieves the membership for (groupID, userID).
func (s *GormStore) GetMembership(ctx context.Context, groupID string, userID uint) (*models.Membership, error) {
	var membership models.Membership
	err := s.db.WithContext(ctx).
		Where("group_id = ? AND user_id = ?", groupID, userID).
		First(&membership).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, faults.NotFound("no membership for user %d in group %s", userID, groupID)
		}
		return nil, err
	}
	return &membership, nil
}

// UpdateMembership saves a membership's role, status and timestamps in place.
func (s *GormStore) UpdateMembership(ctx context.Context, membership *models.Membership) error {
	return s.db.WithContext(ctx).Model(&models.Membership{}).
		Where("group_id = ? AND user_id = ?", membership.GroupID, membership.UserID).
		Updates(map[string]interface{}{
			"role":      membership.Role,
			"status":    membership.Status,
			"joined_at": membership.JoinedAt,
		}).Error
}

// ListActiveMembers returns all active memberships of a group.
func (s *GormStore) ListActiveMembers(ctx context.Context, groupID string) ([]models.Membership, error) {
	var members []models.Membership
	err := s.db.WithContext(ctx).
		Where("group_id = ? AND status = ?", groupID, models.MembershipStatusActive).
		Find(&members).Error
	if err != nil {
		return nil, err
	}
	return members, nil
}

// CountOccupied counts active and pending memberships of a group.
func (s *GormStore) CountOccupied(ctx context.Context, groupID string) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&models.Membership{}).
		Where("group_id = ? AND status IN ?", groupID,
			[]models.MembershipStatus{models.MembershipStatusActive, models.MembershipStatusPending}).
		Count(&count).Error
	return count, err
}

// FindActiveCoupleBetween looks up the couple group for an unordered user
// pair via its pair key.
func (s *GormStore) FindActiveCoupleBetween(ctx context.Context, userA, userB uint) (*models.Group, error) {
	var group models.Group
	err := s.db.WithContext(ctx).
		Where("pair_key = ?", models.CouplePairKey(userA, userB)).
		First(&group).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, faults.NotFound("no couple between users %d and %d", userA, userB)
		}
		return nil, err
	}
	return &group, nil
}

// FindPendingInvitationsFor returns a user's pending memberships with their
// groups preloaded.
func (s *GormStore) FindPendingInvitationsFor(ctx context.Context, userID uint) ([]models.Membership, error) {
	var invitations []models.Membership
	err := s.db.WithContext(ctx).Preload("Group").
		Where("user_id = ? AND status = ?", userID, models.MembershipStatusPending).
		Find(&invitations).Error
	if err != nil {
		return nil, err
	}
	return invitations, nil
}

// InTx runs fn inside a database transaction. SQLite serializes writers, so
// a transactional capacity check plus insert cannot interleave with another
// invite on the same group.
func (s *GormStore) InTx(ctx context.Context, fn func(GroupStore) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&GormStore{db: tx})
	})
}

// isUniqueViolation detects unique-constraint errors from the sqlite driver
// without depending on driver-specific error types.
func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
