package models

import (
	"time"
)

// MediaKind identifies what sort of content a watchlist entry refers to.
type MediaKind string

const (
	MediaKindMovie MediaKind = "movie"
	MediaKindTV    MediaKind = "tv"
)

// Valid reports whether k is a known media kind.
func (k MediaKind) Valid() bool {
	return k == MediaKindMovie || k == MediaKindTV
}

// WatchStatus is the user's personal progress on a watchlist entry.
type WatchStatus string

const (
	WatchStatusWantToWatch WatchStatus = "want_to_watch"
	WatchStatusWatching    WatchStatus = "watching"
	WatchStatusWatched     WatchStatus = "watched"
)

// Valid reports whether s is a known watch status.
func (s WatchStatus) Valid() bool {
	switch s {
	case WatchStatusWantToWatch, WatchStatusWatching, WatchStatusWatched:
		return true
	}
	return false
}

// WatchlistEntry is one item on a user's personal watchlist. Content is
// opaque to this system: a numeric id plus a media kind, unique per user.
type WatchlistEntry struct {
	ID        uint        `gorm:"primarykey" json:"id"`
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`
	UserID    uint        `gorm:"not null;uniqueIndex:idx_watchlist_item" json:"user_id"`
	ContentID int64       `gorm:"not null;uniqueIndex:idx_watchlist_item" json:"content_id"`
	MediaKind MediaKind   `gorm:"type:varchar(20);not null;uniqueIndex:idx_watchlist_item" json:"media_kind"`
	Status    WatchStatus `gorm:"type:varchar(20);not null;default:'want_to_watch'" json:"status"`
}
