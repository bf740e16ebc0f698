package mysql

import (
	"context"
	"time"

	"Memoir_Community/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type VisibilityRepository struct {
	DB *gorm.DB
}

// Upsert 写入/更新单条可见性记录。用 ON CONFLICT 一步到位，
// 避免"先查再写"在同一用户并发请求间留竞态；对固定 (entry_id, is_public) 重试安全
func (r *VisibilityRepository) Upsert(ctx context.Context, entryID, userID uint64, isPublic bool) error {
	now := time.Now()
	rec := model.VisibilityRecord{
		EntryID:  entryID,
		UserID:   userID,
		IsPublic: isPublic,
	}
	if isPublic {
		rec.MadePublicAt = &now
	}
	return r.DB.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "entry_id"}, {Name: "user_id"}},
		DoUpdates: clause.Assignments(map[string]any{
			"is_public":      rec.IsPublic,
			"made_public_at": rec.MadePublicAt,
			"updated_at":     now,
		}),
	}).Create(&rec).Error
}

func (r *VisibilityRepository) FindByEntry(ctx context.Context, entryID, userID uint64) (*model.VisibilityRecord, error) {
	var rec model.VisibilityRecord
	err := r.DB.WithContext(ctx).
		Where("entry_id = ? AND user_id = ?", entryID, userID).
		First(&rec).Error
	return &rec, err
}

// DeleteForEntry entry销毁时同步清理其可见性记录
func (r *VisibilityRepository) DeleteForEntry(ctx context.Context, entryID uint64) (int64, error) {
	tx := r.DB.WithContext(ctx).Where("entry_id = ?", entryID).Delete(&model.VisibilityRecord{})
	return tx.RowsAffected, tx.Error
}

// DeleteByOwner Profile删除时清理该用户的全部可见性记录
func (r *VisibilityRepository) DeleteByOwner(ctx context.Context, userID uint64) (int64, error) {
	tx := r.DB.WithContext(ctx).Where("user_id = ?", userID).Delete(&model.VisibilityRecord{})
	return tx.RowsAffected, tx.Error
}

// DeleteOrphans 清理entry已不存在的可见性记录，单条语句服务端过滤
func (r *VisibilityRepository) DeleteOrphans(ctx context.Context) (int64, error) {
	tx := r.DB.WithContext(ctx).Exec(`
		DELETE FROM visibility_records
		WHERE NOT EXISTS (SELECT 1 FROM entries e WHERE e.id = visibility_records.entry_id)`)
	return tx.RowsAffected, tx.Error
}
