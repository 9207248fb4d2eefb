// Package directory resolves user references for the service layer.
package directory

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/reelmates/reelmates/pkg/reelmates/faults"
	"github.com/reelmates/reelmates/pkg/reelmates/models"
)

// UserRef is the minimal identity the services need about a user.
type UserRef struct {
	ID          uint   `json:"id"`
	DisplayName string `json:"display_name"`
}

// Directory looks up users by email or id.
type Directory interface {
	FindByEmail(ctx context.Context, email string) (UserRef, error)
	FindByID(ctx context.Context, id uint) (UserRef, error)
}

// Ensure GormDirectory implements Directory
var _ Directory = (*GormDirectory)(nil)

// GormDirectory implements Directory over the users table.
type GormDirectory struct {
	db *gorm.DB
}

// NewGormDirectory creates a directory backed by the given database.
func NewGormDirectory(db *gorm.DB) *GormDirectory {
	return &GormDirectory{db: db}
}

// FindByEmail resolves a user by email address.
func (d *GormDirectory) FindByEmail(ctx context.Context, email string) (UserRef, error) {
	var user models.User
	if err := d.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return UserRef{}, faults.NotFound("no user with email %s", email)
		}
		return UserRef{}, err
	}
	return UserRef{ID: user.ID, DisplayName: user.Name}, nil
}

// FindByID resolves a user by id.
func (d *GormDirectory) FindByID(ctx context.Context, id uint) (UserRef, error) {
	var user models.User
	if err := d.db.WithContext(ctx).First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return UserRef{}, faults.NotFound("no user with id %d", id)
		}
		return UserRef{}, err
	}
	return UserRef{ID: user.ID, DisplayName: user.Name}, nil
}
