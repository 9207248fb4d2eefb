// Package matching computes the watchlist items shared by two or more
// active members of a group.
package matching

import (
	"context"
	"log/slog"

	"github.com/reelmates/reelmates/pkg/reelmates/enrichment"
	"github.com/reelmates/reelmates/pkg/reelmates/models"
	"github.com/reelmates/reelmates/pkg/reelmates/store"
)

// WatchlistProvider supplies per-user watchlist entries.
type WatchlistProvider interface {
	ListEntries(ctx context.Context, userID uint) ([]models.WatchlistEntry, error)
}

// MemberEntry is one member's stake in a matched item.
type MemberEntry struct {
	UserID uint               `json:"user_id"`
	Status models.WatchStatus `json:"status"`
}

// ContentMatch is a watchlist item present for at least two active members.
// Title and Poster are filled only when an enrichment source is configured.
type ContentMatch struct {
	ContentID int64            `json:"content_id"`
	MediaKind models.MediaKind `json:"media_kind"`
	Title     string           `json:"title,omitempty"`
	Poster    string           `json:"poster,omitempty"`
	Members   []MemberEntry    `json:"members"`
}

// Matcher computes content matches for a group. The describer is optional;
// when nil, matches are returned undecorated.
type Matcher struct {
	store      store.GroupStore
	watchlists WatchlistProvider
	describer  enrichment.Describer
}

// NewMatcher creates a content matcher.
func NewMatcher(groupStore store.GroupStore, watchlists WatchlistProvider, describer enrichment.Describer) *Matcher {
	return &Matcher{store: groupStore, watchlists: watchlists, describer: describer}
}

type contentKey struct {
	contentID int64
	mediaKind models.MediaKind
}

// FindMatches returns the items shared by two or more active members of the
// group. A single member's entry is never a match. The result order is
// unspecified; callers needing stable order should sort by content id.
//
// Enrichment failures are per-item: a failed metadata lookup logs a warning
// and drops that one match instead of failing the computation.
func (m *Matcher) FindMatches(ctx context.Context, groupID string) ([]ContentMatch, error) {
	if _, err := m.store.GetGroup(ctx, groupID); err != nil {
		return nil, err
	}

	members, err := m.store.ListActiveMembers(ctx, groupID)
	if err != nil {
		return nil, err
	}
	if len(members) < 2 {
		return []ContentMatch{}, nil
	}

	buckets := make(map[contentKey][]MemberEntry)
	for _, member := range members {
		entries, err := m.watchlists.ListEntries(ctx, member.UserID)
		if err != nil {
			return nil, err
		}
		// A member counts at most once per item, whatever the provider returns.
		seen := make(map[contentKey]bool, len(entries))
		for _, entry := range entries {
			key := contentKey{contentID: entry.ContentID, mediaKind: entry.MediaKind}
			if seen[key] {
				continue
			}
			seen[key] = true
			buckets[key] = append(buckets[key], MemberEntry{UserID: member.UserID, Status: entry.Status})
		}
	}

	matches := make([]ContentMatch, 0, len(buckets))
	for key, contributors := range buckets {
		if len(contributors) < 2 {
			continue
		}

		match := ContentMatch{
			ContentID: key.contentID,
			MediaKind: key.mediaKind,
			Members:   contributors,
		}
		if m.describer != nil {
			details, err := m.describer.Describe(ctx, key.contentID, key.mediaKind)
			if err != nil {
				slog.Warn("dropping match, metadata lookup failed",
					"group_id", groupID,
					"content_id", key.contentID,
					"media_kind", key.mediaKind,
					"error", err,
				)
				continue
			}
			match.Title = details.Title
			match.Poster = details.Poster
		}
		matches = append(matches, match)
	}
	return matches, nil
}
