package mysql

import (
	"context"
	"errors"

	"community_hub/internal/model"

	"gorm.io/gorm"
)

var ErrUserNotFound = errors.New("user not found")

type UserRepository struct {
	DB *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{DB: db}
}

func (r *UserRepository) Create(ctx context.Context, user *model.User) error {
	return r.DB.WithContext(ctx).Create(user).Error
}

// FindByID only sees users that have not been archived.
func (r *UserRepository) FindByID(ctx context.Context, id string) (*model.User, error) {
	var user model.User
	err := r.DB.WithContext(ctx).Where("id = ? AND is_deleted = ?", id, false).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	var user model.User
	err := r.DB.WithContext(ctx).Where("email = ? AND is_deleted = ?", email, false).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *UserRepository) Update(ctx context.Context, id string, updates map[string]any) error {
	tx := r.DB.WithContext(ctx).Model(&model.User{}).
		Where("id = ? AND is_deleted = ?", id, false).
		Updates(updates)
	if tx.Error != nil {
		return tx.Error
	}
	if tx.RowsAffected == 0 {
		return ErrUserNotFound
	}
	return nil
}

// Archive soft-deletes the user; the row stays in place.
func (r *UserRepository) Archive(ctx context.Context, id string) error {
	tx := r.DB.WithContext(ctx).Model(&model.User{}).
		Where("id = ? AND is_deleted = ?", id, false).
		Updates(map[string]any{
			"is_deleted": true,
			"status":     model.UserStatusInactive,
		})
	if tx.Error != nil {
		return tx.Error
	}
	if tx.RowsAffected == 0 {
		return ErrUserNotFound
	}
	return nil
}

func (r *UserRepository) ListPaged(ctx context.Context, req PageRequest) (PageResult[model.User], error) {
	normalized := NormalizePageRequest(req)
	result := PageResult[model.User]{
		Page:     normalized.Page,
		PageSize: normalized.PageSize,
	}

	base := r.DB.WithContext(ctx).Model(&model.User{}).Where("is_deleted = ?", false)
	if err := base.Count(&result.Total).Error; err != nil {
		return result, err
	}
	err := r.DB.WithContext(ctx).
		Where("is_deleted = ?", false).
		Order("created_at DESC").
		Order("id DESC").
		Offset(normalized.Offset()).
		Limit(normalized.PageSize).
		Find(&result.Items).Error
	return result, err
}
