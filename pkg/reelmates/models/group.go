package models

import (
	"fmt"
	"time"

	"gorm.io/gorm"
)

// GroupKind determines a group's default capacity and settings.
// Kinds are ordered: a group only ever widens (couple -> friends -> watch_party).
type GroupKind string

const (
	GroupKindCouple     GroupKind = "couple"
	GroupKindFriends    GroupKind = "friends"
	GroupKindWatchParty GroupKind = "watch_party"
)

// Valid reports whether k is a known group kind.
func (k GroupKind) Valid() bool {
	switch k {
	case GroupKindCouple, GroupKindFriends, GroupKindWatchParty:
		return true
	}
	return false
}

// DefaultMaxMembers returns the member capacity for a kind when the caller
// does not specify one. Couples are always exactly two.
func (k GroupKind) DefaultMaxMembers() int {
	switch k {
	case GroupKindCouple:
		return 2
	case GroupKindFriends:
		return 15
	case GroupKindWatchParty:
		return 50
	}
	return 0
}

// DefaultSettings returns the settings a new group of this kind starts with.
func (k GroupKind) DefaultSettings() GroupSettings {
	if k == GroupKindCouple {
		return GroupSettings{IsPublic: false, RequireApproval: false, AllowInvites: false}
	}
	return GroupSettings{IsPublic: false, RequireApproval: true, AllowInvites: true}
}

// rank orders kinds for the one-directional expansion check.
func (k GroupKind) rank() int {
	switch k {
	case GroupKindCouple:
		return 0
	case GroupKindFriends:
		return 1
	case GroupKindWatchParty:
		return 2
	}
	return -1
}

// WiderThan reports whether k is strictly later in the expansion order than other.
func (k GroupKind) WiderThan(other GroupKind) bool {
	return k.rank() > other.rank()
}

// GroupSettings controls visibility and invitation behavior for a group.
type GroupSettings struct {
	IsPublic        bool `json:"is_public"`
	RequireApproval bool `json:"require_approval"`
	AllowInvites    bool `json:"allow_invites"`
}

// SettingsPatch carries caller-supplied settings overrides. Nil fields keep
// the kind default.
type SettingsPatch struct {
	IsPublic        *bool `json:"is_public"`
	RequireApproval *bool `json:"require_approval"`
	AllowInvites    *bool `json:"allow_invites"`
}

// Overlay applies the patch field-by-field on top of base.
func (p *SettingsPatch) Overlay(base GroupSettings) GroupSettings {
	if p == nil {
		return base
	}
	if p.IsPublic != nil {
		base.IsPublic = *p.IsPublic
	}
	if p.RequireApproval != nil {
		base.RequireApproval = *p.RequireApproval
	}
	if p.AllowInvites != nil {
		base.AllowInvites = *p.AllowInvites
	}
	return base
}

// Group represents a couple, friends or watch party group sharing watchlists.
// PairKey is set only for couples ("minUserID:maxUserID") and is uniquely
// indexed so at most one active couple can exist per unordered user pair.
// Version backs optimistic concurrency on updates.
type Group struct {
	ID          string         `gorm:"primarykey" json:"id"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
	Name        string         `gorm:"not null" json:"name"`
	Description string         `json:"description"`
	Kind        GroupKind      `gorm:"type:varchar(20);not null" json:"kind"`
	OwnerID     uint           `gorm:"not null" json:"owner_id"`
	MaxMembers  int            `gorm:"not null" json:"max_members"`
	PairKey     *string        `gorm:"uniqueIndex" json:"-"`
	Version     int64          `gorm:"not null;default:1" json:"-"`
	Settings    GroupSettings  `gorm:"embedded;embeddedPrefix:settings_" json:"settings"`

	// Relationships
	Members []Membership `gorm:"foreignKey:GroupID" json:"members,omitempty"`
}

// CouplePairKey builds the unique key for a couple between two users,
// ordered so that (a, b) and (b, a) collide.
func CouplePairKey(a, b uint) string {
	if a > b {
		a, b = b, a
	}
	return fmt.Sprintf("%d:%d", a, b)
}
