// Package watchlist manages per-user watchlist entries and serves them to
// the matcher.
package watchlist

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/reelmates/reelmates/pkg/reelmates/faults"
	"github.com/reelmates/reelmates/pkg/reelmates/models"
)

// Store persists watchlist entries. It doubles as the matcher's
// WatchlistProvider.
type Store struct {
	db *gorm.DB
}

// NewStore creates a watchlist store backed by the given database.
func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

// ListEntries returns all of a user's watchlist entries.
func (s *Store) ListEntries(ctx context.Context, userID uint) ([]models.WatchlistEntry, error) {
	var entries []models.WatchlistEntry
	err := s.db.WithContext(ctx).Where("user_id = ?", userID).Find(&entries).Error
	if err != nil {
		return nil, err
	}
	return entries, nil
}

// Add creates a watchlist entry. Each (content, kind) pair appears at most
// once per user; a duplicate add returns Conflict.
func (s *Store) Add(ctx context.Context, entry *models.WatchlistEntry) error {
	if !entry.MediaKind.Valid() {
		return faults.Validation("invalid media kind %q", entry.MediaKind)
	}
	if entry.Status == "" {
		entry.Status = models.WatchStatusWantToWatch
	}
	if !entry.Status.Valid() {
		return faults.Validation("invalid watch status %q", entry.Status)
	}
	if err := s.db.WithContext(ctx).Create(entry).Error; err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return faults.Conflict("%s %d is already on the watchlist", entry.MediaKind, entry.ContentID)
		}
		return err
	}
	return nil
}

// Get returns one of the user's entries by row id.
func (s *Store) Get(ctx context.Context, userID, entryID uint) (*models.WatchlistEntry, error) {
	var entry models.WatchlistEntry
	err := s.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", entryID, userID).
		First(&entry).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, faults.NotFound("watchlist entry %d not found", entryID)
		}
		return nil, err
	}
	return &entry, nil
}

// UpdateStatus changes the personal watch status of an entry.
func (s *Store) UpdateStatus(ctx context.Context, userID, entryID uint, status models.WatchStatus) (*models.WatchlistEntry, error) {
	if !status.Valid() {
		return nil, faults.Validation("invalid watch status %q", status)
	}
	entry, err := s.Get(ctx, userID, entryID)
	if err != nil {
		return nil, err
	}
	entry.Status = status
	if err := s.db.WithContext(ctx).Model(entry).Update("status", status).Error; err != nil {
		return nil, err
	}
	return entry, nil
}

// Remove deletes an entry from the user's watchlist.
func (s *Store) Remove(ctx context.Context, userID, entryID uint) error {
	res := s.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", entryID, userID).
		Delete(&models.WatchlistEntry{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return faults.NotFound("watchlist entry %d not found", entryID)
	}
	return nil
}
