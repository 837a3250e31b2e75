package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"plate-registry/internal/domain/plate"
)

type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

type User struct {
	ID           int64  `gorm:"primaryKey"`
	Name         string
	Email        string `gorm:"not null;uniqueIndex"`
	PasswordHash string `gorm:"not null"`
	CreatedAt    time.Time
}

func (r *UserRepository) Create(ctx context.Context, user *plate.User) error {
	row := User{
		Name:         user.Name,
		Email:        user.Email,
		PasswordHash: user.PasswordHash,
		CreatedAt:    time.Now(),
	}
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrDuplicate
		}
		return err
	}
	user.ID = row.ID
	user.CreatedAt = row.CreatedAt
	return nil
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*plate.User, error) {
	var row User
	err := r.db.WithContext(ctx).Where("email = ?", email).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &plate.User{
		ID:           row.ID,
		Name:         row.Name,
		Email:        row.Email,
		PasswordHash: row.PasswordHash,
		CreatedAt:    row.CreatedAt,
	}, nil
}
