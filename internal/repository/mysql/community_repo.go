package mysql

import (
	"context"
	"errors"

	"community_hub/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var ErrCommunityNotFound = errors.New("community not found")

type CommunityRepository struct {
	DB *gorm.DB
}

func NewCommunityRepository(db *gorm.DB) *CommunityRepository {
	return &CommunityRepository{DB: db}
}

// Create inserts the community and its owner membership in one transaction;
// if either insert fails neither row is kept.
func (r *CommunityRepository) Create(ctx context.Context, c *model.Community) error {
	var owner model.CommunityMember
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(c).Error; err != nil {
			return err
		}
		owner = model.CommunityMember{
			CommunityID: c.ID,
			UserID:      c.OwnerID,
			Role:        model.MemberRoleOwner,
			JoinedAt:    c.CreatedAt,
		}
		mRepo := &CommunityMemberRepository{DB: tx}
		return mRepo.Add(ctx, &owner)
	})
	if err != nil {
		return err
	}
	c.Members = []model.CommunityMember{owner}
	return nil
}

func (r *CommunityRepository) FindByID(ctx context.Context, id string) (*model.Community, error) {
	var community model.Community
	err := r.DB.WithContext(ctx).
		Preload("Members", func(db *gorm.DB) *gorm.DB {
			return db.Order("joined_at ASC")
		}).
		Where("id = ?", id).
		First(&community).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrCommunityNotFound
	}
	if err != nil {
		return nil, err
	}
	return &community, nil
}

// List returns every community visible to viewerID with rosters attached.
// An empty viewerID sees public communities only; a signed-in viewer also
// sees the private communities they belong to. Rosters are fetched with a
// single IN query for the whole batch.
func (r *CommunityRepository) List(ctx context.Context, viewerID string) ([]model.Community, error) {
	q := r.DB.WithContext(ctx).Model(&model.Community{})
	if viewerID == "" {
		q = q.Where("visibility = ?", model.VisibilityPublic)
	} else {
		members := r.DB.Model(&model.CommunityMember{}).Select("community_id").Where("user_id = ?", viewerID)
		q = q.Where("visibility = ? OR owner_id = ? OR id IN (?)", model.VisibilityPublic, viewerID, members)
	}

	var list []model.Community
	if err := q.Order("created_at DESC").Order("id").Find(&list).Error; err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return list, nil
	}

	ids := make([]string, 0, len(list))
	for _, c := range list {
		ids = append(ids, c.ID)
	}
	mRepo := &CommunityMemberRepository{DB: r.DB}
	rows, err := mRepo.ListByCommunityIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	byCommunity := make(map[string][]model.CommunityMember, len(list))
	for _, m := range rows {
		byCommunity[m.CommunityID] = append(byCommunity[m.CommunityID], m)
	}
	for i := range list {
		list[i].Members = byCommunity[list[i].ID]
		if list[i].Members == nil {
			list[i].Members = []model.CommunityMember{}
		}
	}
	return list, nil
}

func (r *CommunityRepository) Update(ctx context.Context, id string, updates map[string]any) error {
	tx := r.DB.WithContext(ctx).Model(&model.Community{}).Where("id = ?", id).Updates(updates)
	if tx.Error != nil {
		return tx.Error
	}
	if tx.RowsAffected == 0 {
		return ErrCommunityNotFound
	}
	return nil
}

// DeleteByID removes the roster and the community together.
func (r *CommunityRepository) DeleteByID(ctx context.Context, id string) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("community_id = ?", id).Delete(&model.CommunityMember{}).Error; err != nil {
			return err
		}
		res := tx.Where("id = ?", id).Delete(&model.Community{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrCommunityNotFound
		}
		return nil
	})
}
