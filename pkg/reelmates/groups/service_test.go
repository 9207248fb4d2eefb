package groups

import (
	"context"
	"sync"
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/reelmates/reelmates/pkg/reelmates/directory"
	"github.com/reelmates/reelmates/pkg/reelmates/events"
	"github.com/reelmates/reelmates/pkg/reelmates/faults"
	"github.com/reelmates/reelmates/pkg/reelmates/models"
	"github.com/reelmates/reelmates/pkg/reelmates/store"
)

// memorySink collects published events for assertions.
type memorySink struct {
	mu     sync.Mutex
	events []events.Event
}

func (s *memorySink) Publish(_ context.Context, event events.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
}

func (s *memorySink) names() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	names := make([]string, len(s.events))
	for i, e := range s.events {
		names[i] = e.Name
	}
	return names
}

func setupService(t *testing.T) (*Service, store.GroupStore, *gorm.DB, *memorySink) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("Failed to connect to test database: %v", err)
	}
	if err := models.AutoMigrate(db); err != nil {
		t.Fatalf("Failed to migrate: %v", err)
	}
	groupStore := store.NewGormStore(db)
	sink := &memorySink{}
	service := NewService(groupStore, directory.NewGormDirectory(db), sink)
	return service, groupStore, db, sink
}

func createUser(t *testing.T, db *gorm.DB, email, name string) models.User {
	t.Helper()
	user := models.User{Email: email, PasswordHash: "x", Name: name}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("Failed to create user: %v", err)
	}
	return user
}

func TestCreateGroupDefaults(t *testing.T) {
	service, groupStore, db, sink := setupService(t)
	ctx := context.Background()
	owner := createUser(t, db, "owner@example.com", "Owner")

	tests := []struct {
		kind            models.GroupKind
		wantMax         int
		wantApproval    bool
		wantInvitesOpen bool
	}{
		{models.GroupKindCouple, 2, false, false},
		{models.GroupKindFriends, 15, true, true},
		{models.GroupKindWatchParty, 50, true, true},
	}
	for _, tc := range tests {
		group, err := service.CreateGroup(ctx, owner.ID, CreateGroupParams{
			Name: "G " + string(tc.kind),
			Kind: tc.kind,
		})
		if err != nil {
			t.Fatalf("CreateGroup(%s) failed: %v", tc.kind, err)
		}
		if group.MaxMembers != tc.wantMax {
			t.Errorf("%s: expected max_members %d, got %d", tc.kind, tc.wantMax, group.MaxMembers)
		}
		if group.Settings.RequireApproval != tc.wantApproval {
			t.Errorf("%s: expected require_approval %v", tc.kind, tc.wantApproval)
		}
		if group.Settings.AllowInvites != tc.wantInvitesOpen {
			t.Errorf("%s: expected allow_invites %v", tc.kind, tc.wantInvitesOpen)
		}

		membership, err := groupStore.GetMembership(ctx, group.ID, owner.ID)
		if err != nil {
			t.Fatalf("Owner membership missing: %v", err)
		}
		if membership.Role != models.MembershipRoleOwner {
			t.Errorf("Expected owner role, got %s", membership.Role)
		}
		if membership.Status != models.MembershipStatusActive {
			t.Errorf("Expected active status, got %s", membership.Status)
		}
		if membership.JoinedAt == nil {
			t.Error("Expected joined_at to be set")
		}
	}

	names := sink.names()
	if len(names) != 3 {
		t.Errorf("Expected 3 GroupCreated events, got %v", names)
	}
}

func TestCreateGroupSettingsOverlay(t *testing.T) {
	service, _, db, _ := setupService(t)
	owner := createUser(t, db, "owner@example.com", "Owner")

	public := true
	group, err := service.CreateGroup(context.Background(), owner.ID, CreateGroupParams{
		Name:     "Movie Night",
		Kind:     models.GroupKindFriends,
		Settings: &models.SettingsPatch{IsPublic: &public},
	})
	if err != nil {
		t.Fatalf("CreateGroup failed: %v", err)
	}
	if !group.Settings.IsPublic {
		t.Error("Expected is_public override to win")
	}
	// Untouched fields keep the kind default
	if !group.Settings.RequireApproval {
		t.Error("Expected require_approval to keep the friends default")
	}
}

func TestCreateGroupValidation(t *testing.T) {
	service, _, db, _ := setupService(t)
	ctx := context.Background()
	owner := createUser(t, db, "owner@example.com", "Owner")

	if _, err := service.CreateGroup(ctx, owner.ID, CreateGroupParams{Name: "X", Kind: "club"}); !faults.IsKind(err, faults.KindValidation) {
		t.Errorf("Expected Validation for bad kind, got %v", err)
	}
	if _, err := service.CreateGroup(ctx, owner.ID, CreateGroupParams{Kind: models.GroupKindFriends}); !faults.IsKind(err, faults.KindValidation) {
		t.Errorf("Expected Validation for missing name, got %v", err)
	}
	if _, err := service.CreateGroup(ctx, owner.ID, CreateGroupParams{
		Name: "X", Kind: models.GroupKindCouple, MaxMembers: 5,
	}); !faults.IsKind(err, faults.KindValidation) {
		t.Errorf("Expected Validation for couple with max_members 5, got %v", err)
	}
}

func TestCreateRelationship(t *testing.T) {
	service, groupStore, db, sink := setupService(t)
	ctx := context.Background()
	creator := createUser(t, db, "c@x.com", "Casey")
	partner := createUser(t, db, "p@x.com", "Parker")

	group, err := service.CreateRelationship(ctx, creator.ID, "p@x.com", "", "")
	if err != nil {
		t.Fatalf("CreateRelationship failed: %v", err)
	}
	if group.Kind != models.GroupKindCouple {
		t.Errorf("Expected couple kind, got %s", group.Kind)
	}
	if group.MaxMembers != 2 {
		t.Errorf("Expected max_members 2, got %d", group.MaxMembers)
	}
	if group.Name != "Casey & Parker" {
		t.Errorf("Expected default name 'Casey & Parker', got %s", group.Name)
	}

	creatorM, err := groupStore.GetMembership(ctx, group.ID, creator.ID)
	if err != nil || creatorM.Role != models.MembershipRoleOwner || creatorM.Status != models.MembershipStatusActive {
		t.Errorf("Expected creator owner/active, got %+v (%v)", creatorM, err)
	}
	partnerM, err := groupStore.GetMembership(ctx, group.ID, partner.ID)
	if err != nil || partnerM.Role != models.MembershipRoleMember || partnerM.Status != models.MembershipStatusPending {
		t.Errorf("Expected partner member/pending, got %+v (%v)", partnerM, err)
	}
	if partnerM.InvitedBy == nil || *partnerM.InvitedBy != creator.ID {
		t.Errorf("Expected invited_by %d, got %v", creator.ID, partnerM.InvitedBy)
	}

	names := sink.names()
	if len(names) != 2 || names[0] != events.GroupCreated || names[1] != events.MembershipInvited {
		t.Errorf("Expected GroupCreated + MembershipInvited, got %v", names)
	}
}

func TestCreateRelationshipDuplicate(t *testing.T) {
	service, _, db, _ := setupService(t)
	ctx := context.Background()
	creator := createUser(t, db, "c@x.com", "Casey")
	createUser(t, db, "p@x.com", "Parker")
	partner, _ := directory.NewGormDirectory(db).FindByEmail(ctx, "p@x.com")

	if _, err := service.CreateRelationship(ctx, creator.ID, "p@x.com", "", ""); err != nil {
		t.Fatalf("First CreateRelationship failed: %v", err)
	}

	// Duplicate fails in both directions
	if _, err := service.CreateRelationship(ctx, creator.ID, "p@x.com", "", ""); !faults.IsKind(err, faults.KindConflict) {
		t.Errorf("Expected Conflict for duplicate relationship, got %v", err)
	}
	if _, err := service.CreateRelationship(ctx, partner.ID, "c@x.com", "", ""); !faults.IsKind(err, faults.KindConflict) {
		t.Errorf("Expected Conflict for reversed duplicate, got %v", err)
	}
}

func TestCreateRelationshipValidation(t *testing.T) {
	service, _, db, _ := setupService(t)
	ctx := context.Background()
	creator := createUser(t, db, "c@x.com", "Casey")

	if _, err := service.CreateRelationship(ctx, creator.ID, "nobody@x.com", "", ""); !faults.IsKind(err, faults.KindNotFound) {
		t.Errorf("Expected NotFound for unknown partner, got %v", err)
	}
	if _, err := service.CreateRelationship(ctx, creator.ID, "c@x.com", "", ""); !faults.IsKind(err, faults.KindValidation) {
		t.Errorf("Expected Validation for self pairing, got %v", err)
	}
}

func TestExpandGroup(t *testing.T) {
	service, _, db, sink := setupService(t)
	ctx := context.Background()
	creator := createUser(t, db, "c@x.com", "Casey")
	createUser(t, db, "p@x.com", "Parker")

	group, err := service.CreateRelationship(ctx, creator.ID, "p@x.com", "", "")
	if err != nil {
		t.Fatalf("CreateRelationship failed: %v", err)
	}

	expanded, err := service.ExpandGroup(ctx, creator.ID, group.ID, ExpandParams{Kind: models.GroupKindFriends})
	if err != nil {
		t.Fatalf("ExpandGroup failed: %v", err)
	}
	if expanded.Kind != models.GroupKindFriends {
		t.Errorf("Expected friends kind, got %s", expanded.Kind)
	}
	if expanded.MaxMembers != 15 {
		t.Errorf("Expected max_members 15, got %d", expanded.MaxMembers)
	}
	if !expanded.Settings.AllowInvites || !expanded.Settings.RequireApproval || expanded.Settings.IsPublic {
		t.Errorf("Unexpected settings after friends expansion: %+v", expanded.Settings)
	}

	expanded, err = service.ExpandGroup(ctx, creator.ID, group.ID, ExpandParams{Kind: models.GroupKindWatchParty})
	if err != nil {
		t.Fatalf("Second expansion failed: %v", err)
	}
	if expanded.MaxMembers != 50 {
		t.Errorf("Expected max_members 50, got %d", expanded.MaxMembers)
	}
	if !expanded.Settings.IsPublic || expanded.Settings.RequireApproval {
		t.Errorf("Unexpected settings after watch_party expansion: %+v", expanded.Settings)
	}

	found := 0
	for _, name := range sink.names() {
		if name == events.GroupExpanded {
			found++
		}
	}
	if found != 2 {
		t.Errorf("Expected 2 GroupExpanded events, got %d", found)
	}
}

func TestExpandGroupMonotonic(t *testing.T) {
	service, _, db, _ := setupService(t)
	ctx := context.Background()
	owner := createUser(t, db, "owner@example.com", "Owner")

	group, err := service.CreateGroup(ctx, owner.ID, CreateGroupParams{
		Name: "Party", Kind: models.GroupKindWatchParty,
	})
	if err != nil {
		t.Fatalf("CreateGroup failed: %v", err)
	}

	if _, err := service.ExpandGroup(ctx, owner.ID, group.ID, ExpandParams{Kind: models.GroupKindFriends}); !faults.IsKind(err, faults.KindValidation) {
		t.Errorf("Expected Validation shrinking watch_party to friends, got %v", err)
	}
	if _, err := service.ExpandGroup(ctx, owner.ID, group.ID, ExpandParams{Kind: models.GroupKindCouple}); !faults.IsKind(err, faults.KindValidation) {
		t.Errorf("Expected Validation expanding to couple, got %v", err)
	}
}

func TestExpandGroupForbidden(t *testing.T) {
	service, groupStore, db, _ := setupService(t)
	ctx := context.Background()
	owner := createUser(t, db, "owner@example.com", "Owner")
	outsider := createUser(t, db, "other@example.com", "Other")
	member := createUser(t, db, "member@example.com", "Member")

	group, err := service.CreateGroup(ctx, owner.ID, CreateGroupParams{
		Name: "Crew", Kind: models.GroupKindFriends,
	})
	if err != nil {
		t.Fatalf("CreateGroup failed: %v", err)
	}
	now := group.CreatedAt
	if err := groupStore.CreateMembership(ctx, &models.Membership{
		GroupID: group.ID, UserID: member.ID,
		Role: models.MembershipRoleMember, Status: models.MembershipStatusActive, JoinedAt: &now,
	}); err != nil {
		t.Fatalf("CreateMembership failed: %v", err)
	}

	if _, err := service.ExpandGroup(ctx, outsider.ID, group.ID, ExpandParams{Kind: models.GroupKindWatchParty}); !faults.IsKind(err, faults.KindForbidden) {
		t.Errorf("Expected Forbidden for non-member, got %v", err)
	}
	if _, err := service.ExpandGroup(ctx, member.ID, group.ID, ExpandParams{Kind: models.GroupKindWatchParty}); !faults.IsKind(err, faults.KindForbidden) {
		t.Errorf("Expected Forbidden for plain member, got %v", err)
	}
	if _, err := service.ExpandGroup(ctx, owner.ID, "missing", ExpandParams{Kind: models.GroupKindWatchParty}); !faults.IsKind(err, faults.KindNotFound) {
		t.Errorf("Expected NotFound for missing group, got %v", err)
	}
}

func TestExpandGroupCapacityFloor(t *testing.T) {
	service, groupStore, db, _ := setupService(t)
	ctx := context.Background()
	owner := createUser(t, db, "owner@example.com", "Owner")

	group, err := service.CreateGroup(ctx, owner.ID, CreateGroupParams{
		Name: "Crew", Kind: models.GroupKindFriends,
	})
	if err != nil {
		t.Fatalf("CreateGroup failed: %v", err)
	}
	for userID := uint(100); userID < 104; userID++ {
		if err := groupStore.CreateMembership(ctx, &models.Membership{
			GroupID: group.ID, UserID: userID,
			Role: models.MembershipRoleMember, Status: models.MembershipStatusPending,
		}); err != nil {
			t.Fatalf("CreateMembership failed: %v", err)
		}
	}

	// 5 seats are taken (owner + 4 pending); a smaller cap must be rejected
	_, err = service.ExpandGroup(ctx, owner.ID, group.ID, ExpandParams{
		Kind: models.GroupKindWatchParty, MaxMembers: 3,
	})
	if !faults.IsKind(err, faults.KindLimitExceeded) {
		t.Errorf("Expected LimitExceeded, got %v", err)
	}
}

func TestGetGroupHiddenFromNonMembers(t *testing.T) {
	service, _, db, _ := setupService(t)
	ctx := context.Background()
	owner := createUser(t, db, "owner@example.com", "Owner")
	outsider := createUser(t, db, "other@example.com", "Other")

	group, err := service.CreateGroup(ctx, owner.ID, CreateGroupParams{
		Name: "Crew", Kind: models.GroupKindFriends,
	})
	if err != nil {
		t.Fatalf("CreateGroup failed: %v", err)
	}

	if _, err := service.GetGroup(ctx, owner.ID, group.ID); err != nil {
		t.Errorf("Expected member to see the group, got %v", err)
	}
	if _, err := service.GetGroup(ctx, outsider.ID, group.ID); !faults.IsKind(err, faults.KindNotFound) {
		t.Errorf("Expected NotFound for non-member, got %v", err)
	}
}
