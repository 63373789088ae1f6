// Package repository contains the data access layer. Each entity has a
// repository interface backed by gorm; operations that touch both sides of a
// denormalized relationship run inside a single transaction.
package repository

import (
	"context"
	"errors"

	"marina/models"

	"gorm.io/gorm"
)

// UserRepository defines the interface for user data operations.
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetBySubject(ctx context.Context, subject string) (*models.User, error)
	List(ctx context.Context) ([]*models.User, error)
}

type userRepository struct {
	db *gorm.DB
}

// NewUserRepository creates a new user repository.
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) Create(ctx context.Context, user *models.User) error {
	if user.Boats == nil {
		user.Boats = models.BoatRefs{}
	}
	return r.db.WithContext(ctx).Create(user).Error
}

// GetBySubject returns nil without error when no user has the subject.
func (r *userRepository) GetBySubject(ctx context.Context, subject string) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).Where("unique_id = ?", subject).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) List(ctx context.Context) ([]*models.User, error) {
	var users []*models.User
	err := r.db.WithContext(ctx).Order("id").Find(&users).Error
	return users, err
}
