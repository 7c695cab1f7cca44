package postgres

import (
	"context"
	"fmt"

	"github.com/Zhima-Mochi/minishop-marketplace/internal/domain/user"
	"gorm.io/gorm"
)

type UserRepository struct {
	db *gorm.DB
}

func (r *UserRepository) Insert(ctx context.Context, u *user.User) error {
	err := r.db.WithContext(ctx).Create(toUserRecord(u)).Error
	if err == nil {
		return nil
	}
	if !isDuplicate(err) {
		return fmt.Errorf("postgres: insert user: %w", err)
	}
	// the translated error does not name the index, so find out which one was hit
	if u.StoreName != "" {
		var n int64
		if cerr := r.db.WithContext(ctx).Model(&userRecord{}).Where("store_name = ?", u.StoreName).Count(&n).Error; cerr == nil && n > 0 {
			return user.ErrStoreNameTaken
		}
	}
	return user.ErrEmailTaken
}

func (r *UserRepository) Get(ctx context.Context, id string) (*user.User, error) {
	return r.first(ctx, "id = ?", id)
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*user.User, error) {
	return r.first(ctx, "email = ?", user.NormalizeEmail(email))
}

func (r *UserRepository) first(ctx context.Context, where string, arg any) (*user.User, error) {
	var rec userRecord
	if err := r.db.WithContext(ctx).Where(where, arg).First(&rec).Error; err != nil {
		if isNotFound(err) {
			return nil, user.ErrNotFound
		}
		return nil, fmt.Errorf("postgres: get user: %w", err)
	}
	return rec.toDomain(), nil
}
