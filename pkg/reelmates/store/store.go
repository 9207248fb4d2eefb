// Package store provides the persistence abstraction for groups and
// memberships. The service layer depends only on the GroupStore interface,
// so tests and alternative backends can substitute implementations.
package store

import (
	"context"

	"github.com/reelmates/reelmates/pkg/reelmates/models"
)

// GroupStore is the durable storage contract for group and membership
// records. Implementations must enforce membership (group_id, user_id)
// uniqueness and couple pair uniqueness with constraints, not just
// application-level checks.
type GroupStore interface {
	// CreateGroup persists a new group, assigning its ID.
	// Returns Conflict on an id or pair-key collision.
	CreateGroup(ctx context.Context, group *models.Group) error

	// GetGroup retrieves a group by id. Returns NotFound if absent.
	GetGroup(ctx context.Context, id string) (*models.Group, error)

	// UpdateGroup replaces a group's mutable fields using optimistic
	// concurrency: the write only succeeds if the stored version matches
	// group.Version, otherwise Conflict is returned. On success the
	// version on the passed group is advanced.
	UpdateGroup(ctx context.Context, group *models.Group) error

	// CreateMembership persists a new membership. Returns Conflict if a
	// row for (group_id, user_id) already exists.
	CreateMembership(ctx context.Context, membership *models.Membership) error

	// GetMembership retrieves the membership for (groupID, userID).
	// Returns NotFound if absent.
	GetMembership(ctx context.Context, groupID string, userID uint) (*models.Membership, error)

	// UpdateMembership updates an existing membership row in place.
	UpdateMembership(ctx context.Context, membership *models.Membership) error

	// ListActiveMembers returns all active memberships of a group.
	ListActiveMembers(ctx context.Context, groupID string) ([]models.Membership, error)

	// CountOccupied returns the number of active plus pending memberships
	// of a group. Used for capacity checks.
	CountOccupied(ctx context.Context, groupID string) (int64, error)

	// FindActiveCoupleBetween returns the couple group between two users,
	// if one exists, for relationship-duplication checks.
	// Returns NotFound when there is none.
	FindActiveCoupleBetween(ctx context.Context, userA, userB uint) (*models.Group, error)

	// FindPendingInvitationsFor returns a user's pending memberships with
	// their groups loaded.
	FindPendingInvitationsFor(ctx context.Context, userID uint) ([]models.Membership, error)

	// InTx runs fn against a transactional view of the store. The
	// transaction commits when fn returns nil and rolls back otherwise.
	InTx(ctx context.Context, fn func(GroupStore) error) error
}
