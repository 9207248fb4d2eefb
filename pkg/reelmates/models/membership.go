package models

import (
	"time"
)

// MembershipRole represents a user's role within a group.
// Exactly one owner exists per group, assigned at creation.
type MembershipRole string

const (
	MembershipRoleOwner  MembershipRole = "owner"
	MembershipRoleAdmin  MembershipRole = "admin"
	MembershipRoleMember MembershipRole = "member"
)

// CanManage reports whether the role can invite members and expand the group.
func (r MembershipRole) CanManage() bool {
	return r == MembershipRoleOwner || r == MembershipRoleAdmin
}

// MembershipStatus is the invitation state of a membership.
// The only transitions are pending -> active and pending -> declined;
// declined is terminal.
type MembershipStatus string

const (
	MembershipStatusPending  MembershipStatus = "pending"
	MembershipStatusActive   MembershipStatus = "active"
	MembershipStatusDeclined MembershipStatus = "declined"
)

// Membership links a user to a group. The composite primary key guarantees
// at most one row ever exists per (group, user) pair; status transitions
// happen in place and rows are never re-created.
type Membership struct {
	GroupID   string           `gorm:"primaryKey" json:"group_id"`
	UserID    uint             `gorm:"primaryKey;autoIncrement:false" json:"user_id"`
	CreatedAt time.Time        `json:"created_at"`
	UpdatedAt time.Time        `json:"updated_at"`
	Role      MembershipRole   `gorm:"type:varchar(20);not null;default:'member'" json:"role"`
	Status    MembershipStatus `gorm:"type:varchar(20);not null;default:'pending'" json:"status"`
	InvitedBy *uint            `json:"invited_by,omitempty"`
	JoinedAt  *time.Time       `json:"joined_at,omitempty"`

	// Relationships
	Group Group `gorm:"foreignKey:GroupID" json:"group,omitempty"`
	User  User  `gorm:"foreignKey:UserID" json:"user,omitempty"`
}
