package mysql

import (
	"context"
	"errors"

	"Memoir_Community/internal/model"

	"gorm.io/gorm"
)

type ProfileRepository struct {
	DB *gorm.DB
}

var ErrDuplicateProfile = errors.New("duplicate profile")

// Create 创建Profile，唯一键冲突（user_id或handle重复）统一返回 ErrDuplicateProfile
func (r *ProfileRepository) Create(ctx context.Context, p *model.Profile) error {
	if err := r.DB.WithContext(ctx).Create(p).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrDuplicateProfile
		}
		return err
	}
	return nil
}

func (r *ProfileRepository) FindByUserID(ctx context.Context, userID uint64) (*model.Profile, error) {
	var p model.Profile
	err := r.DB.WithContext(ctx).Where("user_id = ?", userID).First(&p).Error
	return &p, err
}

func (r *ProfileRepository) FindByHandle(ctx context.Context, handle string) (*model.Profile, error) {
	var p model.Profile
	err := r.DB.WithContext(ctx).Where("handle = ?", handle).First(&p).Error
	return &p, err
}

// ListByUserIDs 批量查询，返回顺序不保证与入参一致
func (r *ProfileRepository) ListByUserIDs(ctx context.Context, userIDs []uint64) ([]model.Profile, error) {
	if len(userIDs) == 0 {
		return nil, nil
	}
	var list []model.Profile
	err := r.DB.WithContext(ctx).Where("user_id IN ?", userIDs).Find(&list).Error
	return list, err
}

// SetActive 软上下线，不触碰边和计数
func (r *ProfileRepository) SetActive(ctx context.Context, userID uint64, active bool) (bool, error) {
	tx := r.DB.WithContext(ctx).Model(&model.Profile{}).
		Where("user_id = ?", userID).
		Update("is_active", active)
	return tx.RowsAffected > 0, tx.Error
}

func (r *ProfileRepository) UpdateFlags(ctx context.Context, userID uint64, journeyPublic, allowSpecific bool) (bool, error) {
	tx := r.DB.WithContext(ctx).Model(&model.Profile{}).
		Where("user_id = ?", userID).
		Updates(map[string]any{
			"is_journey_public":      journeyPublic,
			"allow_specific_entries": allowSpecific,
		})
	return tx.RowsAffected > 0, tx.Error
}

// Delete 硬删除，边和可见性记录由协调器另行清理（无跨表事务）
func (r *ProfileRepository) Delete(ctx context.Context, userID uint64) (bool, error) {
	tx := r.DB.WithContext(ctx).Where("user_id = ?", userID).Delete(&model.Profile{})
	return tx.RowsAffected > 0, tx.Error
}

// UpdateCounters 整体覆盖三个计数，只允许写入对账算出的权威值
func (r *ProfileRepository) UpdateCounters(ctx context.Context, c model.ProfileCounts) error {
	return r.DB.WithContext(ctx).Model(&model.Profile{}).
		Where("user_id = ?", c.UserID).
		UpdateColumns(map[string]any{
			"followers_count":      c.FollowersCount,
			"following_count":      c.FollowingCount,
			"public_entries_count": c.PublicEntriesCount,
		}).Error
}

// ListBatch 全量扫描用的游标批次
func (r *ProfileRepository) ListBatch(ctx context.Context, lastID uint64, batchSize int) ([]model.Profile, uint64, error) {
	var list []model.Profile
	if err := r.DB.WithContext(ctx).
		Where("id > ?", lastID).
		Order("id ASC").
		Limit(batchSize).
		Find(&list).Error; err != nil {
		return nil, lastID, err
	}
	if len(list) == 0 {
		return nil, lastID, nil
	}
	return list, list[len(list)-1].ID, nil
}
