package mysql

import (
	"context"
	"errors"

	"community_hub/internal/model"

	"gorm.io/gorm"
)

var (
	ErrMemberNotFound = errors.New("member not found")
	ErrMemberExists   = errors.New("member already exists")
)

type CommunityMemberRepository struct {
	DB *gorm.DB
}

func NewCommunityMemberRepository(db *gorm.DB) *CommunityMemberRepository {
	return &CommunityMemberRepository{DB: db}
}

// Add inserts a roster row; the (community_id, user_id) key rejects duplicates.
func (r *CommunityMemberRepository) Add(ctx context.Context, member *model.CommunityMember) error {
	err := r.DB.WithContext(ctx).Create(member).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrMemberExists
	}
	return err
}

func (r *CommunityMemberRepository) Remove(ctx context.Context, communityID, userID string) error {
	tx := r.DB.WithContext(ctx).
		Where("community_id = ? AND user_id = ?", communityID, userID).
		Delete(&model.CommunityMember{})
	if tx.Error != nil {
		return tx.Error
	}
	if tx.RowsAffected == 0 {
		return ErrMemberNotFound
	}
	return nil
}

func (r *CommunityMemberRepository) ListByCommunityIDs(ctx context.Context, ids []string) ([]model.CommunityMember, error) {
	var rows []model.CommunityMember
	err := r.DB.WithContext(ctx).
		Where("community_id IN ?", ids).
		Order("joined_at ASC").
		Find(&rows).Error
	return rows, err
}
