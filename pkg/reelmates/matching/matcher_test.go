package matching

import (
	"context"
	"fmt"
	"sort"
	"testing"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/reelmates/reelmates/pkg/reelmates/directory"
	"github.com/reelmates/reelmates/pkg/reelmates/enrichment"
	"github.com/reelmates/reelmates/pkg/reelmates/events"
	"github.com/reelmates/reelmates/pkg/reelmates/faults"
	"github.com/reelmates/reelmates/pkg/reelmates/groups"
	"github.com/reelmates/reelmates/pkg/reelmates/memberships"
	"github.com/reelmates/reelmates/pkg/reelmates/models"
	"github.com/reelmates/reelmates/pkg/reelmates/store"
	"github.com/reelmates/reelmates/pkg/reelmates/watchlist"
)

// fakeProvider serves canned watchlists and can fail per user.
type fakeProvider struct {
	entries map[uint][]models.WatchlistEntry
	failFor map[uint]bool
}

func (p *fakeProvider) ListEntries(_ context.Context, userID uint) ([]models.WatchlistEntry, error) {
	if p.failFor[userID] {
		return nil, fmt.Errorf("watchlist unavailable for user %d", userID)
	}
	return p.entries[userID], nil
}

func entry(userID uint, contentID int64, kind models.MediaKind, status models.WatchStatus) models.WatchlistEntry {
	return models.WatchlistEntry{UserID: userID, ContentID: contentID, MediaKind: kind, Status: status}
}

func setupMatcher(t *testing.T, provider WatchlistProvider, describer enrichment.Describer) (*Matcher, store.GroupStore) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("Failed to connect to test database: %v", err)
	}
	if err := models.AutoMigrate(db); err != nil {
		t.Fatalf("Failed to migrate: %v", err)
	}
	groupStore := store.NewGormStore(db)
	return NewMatcher(groupStore, provider, describer), groupStore
}

func seedGroupWithActive(t *testing.T, groupStore store.GroupStore, userIDs ...uint) *models.Group {
	t.Helper()
	ctx := context.Background()
	group := &models.Group{
		Name: "Movie Club", Kind: models.GroupKindFriends, OwnerID: userIDs[0],
		MaxMembers: 15, Settings: models.GroupKindFriends.DefaultSettings(),
	}
	if err := groupStore.CreateGroup(ctx, group); err != nil {
		t.Fatalf("CreateGroup failed: %v", err)
	}
	now := time.Now()
	for i, userID := range userIDs {
		role := models.MembershipRoleMember
		if i == 0 {
			role = models.MembershipRoleOwner
		}
		if err := groupStore.CreateMembership(ctx, &models.Membership{
			GroupID: group.ID, UserID: userID,
			Role: role, Status: models.MembershipStatusActive, JoinedAt: &now,
		}); err != nil {
			t.Fatalf("CreateMembership failed: %v", err)
		}
	}
	return group
}

func TestFindMatchesGroupNotFound(t *testing.T) {
	matcher, _ := setupMatcher(t, &fakeProvider{}, nil)

	_, err := matcher.FindMatches(context.Background(), "missing")
	if !faults.IsKind(err, faults.KindNotFound) {
		t.Errorf("Expected NotFound, got %v", err)
	}
}

func TestFindMatchesNeedsTwoActiveMembers(t *testing.T) {
	provider := &fakeProvider{entries: map[uint][]models.WatchlistEntry{
		1: {entry(1, 42, models.MediaKindMovie, models.WatchStatusWantToWatch)},
	}}
	matcher, groupStore := setupMatcher(t, provider, nil)
	group := seedGroupWithActive(t, groupStore, 1)

	matches, err := matcher.FindMatches(context.Background(), group.ID)
	if err != nil {
		t.Fatalf("FindMatches failed: %v", err)
	}
	if len(matches) != 0 {
		t.Errorf("Expected no matches with a single active member, got %d", len(matches))
	}
}

func TestFindMatchesSymmetry(t *testing.T) {
	provider := &fakeProvider{entries: map[uint][]models.WatchlistEntry{
		1: {
			entry(1, 42, models.MediaKindMovie, models.WatchStatusWantToWatch),
			entry(1, 7, models.MediaKindTV, models.WatchStatusWatching),
		},
		2: {
			entry(2, 42, models.MediaKindMovie, models.WatchStatusWatched),
			entry(2, 99, models.MediaKindMovie, models.WatchStatusWantToWatch),
		},
		3: {
			// Same content id as 42 but a different media kind: no match
			entry(3, 42, models.MediaKindTV, models.WatchStatusWantToWatch),
		},
	}}
	matcher, groupStore := setupMatcher(t, provider, nil)
	group := seedGroupWithActive(t, groupStore, 1, 2, 3)

	matches, err := matcher.FindMatches(context.Background(), group.ID)
	if err != nil {
		t.Fatalf("FindMatches failed: %v", err)
	}
	if len(matches) != 1 {
		t.Fatalf("Expected exactly 1 match, got %d: %+v", len(matches), matches)
	}

	match := matches[0]
	if match.ContentID != 42 || match.MediaKind != models.MediaKindMovie {
		t.Errorf("Expected match on (42, movie), got (%d, %s)", match.ContentID, match.MediaKind)
	}
	if len(match.Members) != 2 {
		t.Fatalf("Expected 2 contributing members, got %d", len(match.Members))
	}

	sort.Slice(match.Members, func(i, j int) bool { return match.Members[i].UserID < match.Members[j].UserID })
	if match.Members[0].UserID != 1 || match.Members[0].Status != models.WatchStatusWantToWatch {
		t.Errorf("Unexpected first member: %+v", match.Members[0])
	}
	if match.Members[1].UserID != 2 || match.Members[1].Status != models.WatchStatusWatched {
		t.Errorf("Unexpected second member: %+v", match.Members[1])
	}
}

func TestFindMatchesExcludesPendingMembers(t *testing.T) {
	provider := &fakeProvider{entries: map[uint][]models.WatchlistEntry{
		1: {entry(1, 42, models.MediaKindMovie, models.WatchStatusWantToWatch)},
		2: {entry(2, 42, models.MediaKindMovie, models.WatchStatusWantToWatch)},
	}}
	matcher, groupStore := setupMatcher(t, provider, nil)
	group := seedGroupWithActive(t, groupStore, 1)
	if err := groupStore.CreateMembership(context.Background(), &models.Membership{
		GroupID: group.ID, UserID: 2,
		Role: models.MembershipRoleMember, Status: models.MembershipStatusPending,
	}); err != nil {
		t.Fatalf("CreateMembership failed: %v", err)
	}

	matches, err := matcher.FindMatches(context.Background(), group.ID)
	if err != nil {
		t.Fatalf("FindMatches failed: %v", err)
	}
	if len(matches) != 0 {
		t.Errorf("Expected pending member not to contribute, got %d matches", len(matches))
	}
}

func TestFindMatchesEnrichmentFailureDropsItem(t *testing.T) {
	provider := &fakeProvider{entries: map[uint][]models.WatchlistEntry{
		1: {
			entry(1, 42, models.MediaKindMovie, models.WatchStatusWantToWatch),
			entry(1, 7, models.MediaKindTV, models.WatchStatusWatching),
		},
		2: {
			entry(2, 42, models.MediaKindMovie, models.WatchStatusWatched),
			entry(2, 7, models.MediaKindTV, models.WatchStatusWantToWatch),
		},
	}}
	// Catalog only knows (7, tv); the (42, movie) lookup fails and drops it
	catalog := enrichment.Static{
		enrichment.Key(7, models.MediaKindTV): {Title: "Severance", Poster: "/severance.jpg"},
	}
	matcher, groupStore := setupMatcher(t, provider, catalog)
	group := seedGroupWithActive(t, groupStore, 1, 2)

	matches, err := matcher.FindMatches(context.Background(), group.ID)
	if err != nil {
		t.Fatalf("FindMatches failed: %v", err)
	}
	if len(matches) != 1 {
		t.Fatalf("Expected 1 enriched match, got %d", len(matches))
	}
	if matches[0].ContentID != 7 || matches[0].Title != "Severance" {
		t.Errorf("Expected enriched (7, tv), got %+v", matches[0])
	}
}

func TestFindMatchesProviderFailureIsFatal(t *testing.T) {
	provider := &fakeProvider{
		entries: map[uint][]models.WatchlistEntry{
			1: {entry(1, 42, models.MediaKindMovie, models.WatchStatusWantToWatch)},
		},
		failFor: map[uint]bool{2: true},
	}
	matcher, groupStore := setupMatcher(t, provider, nil)
	group := seedGroupWithActive(t, groupStore, 1, 2)

	if _, err := matcher.FindMatches(context.Background(), group.ID); err == nil {
		t.Error("Expected error when a member's watchlist is unavailable")
	}
}

// TestCoupleToWatchPartyScenario walks the full lifecycle: relationship,
// accept, expansion, invite, and matching over real watchlist storage.
func TestCoupleToWatchPartyScenario(t *testing.T) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("Failed to connect to test database: %v", err)
	}
	if err := models.AutoMigrate(db); err != nil {
		t.Fatalf("Failed to migrate: %v", err)
	}
	ctx := context.Background()

	groupStore := store.NewGormStore(db)
	users := directory.NewGormDirectory(db)
	sink := events.NewActivitySink(db)
	watchlists := watchlist.NewStore(db)

	groupService := groups.NewService(groupStore, users, sink)
	membershipService := memberships.NewService(groupStore, sink)
	matcher := NewMatcher(groupStore, watchlists, nil)

	var c, p, q models.User
	for _, u := range []*models.User{
		{Email: "c@x.com", Name: "Casey", PasswordHash: "x"},
		{Email: "p@x.com", Name: "Parker", PasswordHash: "x"},
		{Email: "q@x.com", Name: "Quinn", PasswordHash: "x"},
	} {
		if err := db.Create(u).Error; err != nil {
			t.Fatalf("Failed to create user: %v", err)
		}
	}
	db.Where("email = ?", "c@x.com").First(&c)
	db.Where("email = ?", "p@x.com").First(&p)
	db.Where("email = ?", "q@x.com").First(&q)

	// C creates the relationship with P
	group, err := groupService.CreateRelationship(ctx, c.ID, "p@x.com", "", "")
	if err != nil {
		t.Fatalf("CreateRelationship failed: %v", err)
	}

	// P accepts
	if _, err := membershipService.Accept(ctx, p.ID, group.ID); err != nil {
		t.Fatalf("Accept failed: %v", err)
	}

	// C expands the couple to friends
	expanded, err := groupService.ExpandGroup(ctx, c.ID, group.ID, groups.ExpandParams{Kind: models.GroupKindFriends})
	if err != nil {
		t.Fatalf("ExpandGroup failed: %v", err)
	}
	if expanded.MaxMembers != 15 || !expanded.Settings.AllowInvites {
		t.Errorf("Unexpected group after expansion: %+v", expanded)
	}

	// C invites Q; friends groups require approval so Q is pending
	created, err := membershipService.Invite(ctx, c.ID, group.ID, []uint{q.ID})
	if err != nil {
		t.Fatalf("Invite failed: %v", err)
	}
	if created[0].Status != models.MembershipStatusPending {
		t.Errorf("Expected Q pending, got %s", created[0].Status)
	}

	// All three have (100, tv) on their watchlists
	for _, userID := range []uint{c.ID, p.ID, q.ID} {
		e := models.WatchlistEntry{UserID: userID, ContentID: 100, MediaKind: models.MediaKindTV}
		if err := watchlists.Add(ctx, &e); err != nil {
			t.Fatalf("Add watchlist entry failed: %v", err)
		}
	}

	matches, err := matcher.FindMatches(ctx, group.ID)
	if err != nil {
		t.Fatalf("FindMatches failed: %v", err)
	}
	if len(matches) != 1 {
		t.Fatalf("Expected exactly 1 match, got %d", len(matches))
	}
	match := matches[0]
	if match.ContentID != 100 || match.MediaKind != models.MediaKindTV {
		t.Errorf("Expected match on (100, tv), got (%d, %s)", match.ContentID, match.MediaKind)
	}
	// Q is pending and must not contribute
	if len(match.Members) != 2 {
		t.Fatalf("Expected C and P only, got %d members", len(match.Members))
	}
	for _, m := range match.Members {
		if m.UserID == q.ID {
			t.Error("Pending member Q must be excluded from matches")
		}
	}

	// Once Q accepts, they contribute too
	if _, err := membershipService.Accept(ctx, q.ID, group.ID); err != nil {
		t.Fatalf("Q Accept failed: %v", err)
	}
	matches, _ = matcher.FindMatches(ctx, group.ID)
	if len(matches) != 1 || len(matches[0].Members) != 3 {
		t.Fatalf("Expected 3 contributing members after Q joins, got %+v", matches)
	}

	// The audit trail recorded the lifecycle
	activities, err := sink.RecentForGroup(ctx, group.ID, 10)
	if err != nil {
		t.Fatalf("RecentForGroup failed: %v", err)
	}
	if len(activities) < 5 {
		t.Errorf("Expected at least 5 activity rows, got %d", len(activities))
	}
}
