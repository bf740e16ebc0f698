package mysql

import (
	"context"

	"Memoir_Community/internal/model"

	"gorm.io/gorm"
)

type EntryRepository struct {
	DB *gorm.DB
}

func (r *EntryRepository) Create(ctx context.Context, entry *model.Entry) error {
	return r.DB.WithContext(ctx).Create(entry).Error
}

func (r *EntryRepository) FindByID(ctx context.Context, id uint64) (*model.Entry, error) {
	var entry model.Entry
	err := r.DB.WithContext(ctx).First(&entry, "id = ?", id).Error
	return &entry, err
}

// ListByAuthor 作者维度 id 游标分页
func (r *EntryRepository) ListByAuthor(ctx context.Context, authorID uint64, cursor uint64, limit int) ([]model.Entry, uint64, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	q := r.DB.WithContext(ctx).Model(&model.Entry{}).Where("author_id = ?", authorID)
	if cursor > 0 {
		q = q.Where("id < ?", cursor)
	}
	var rows []model.Entry
	if err := q.Order("id DESC").Limit(limit + 1).Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	var next uint64
	if len(rows) > limit {
		next = rows[limit-1].ID
		rows = rows[:limit]
	}
	return rows, next, nil
}

// Delete 带作者校验的一步删除，幂等（已删也不报错）
func (r *EntryRepository) Delete(ctx context.Context, id, authorID uint64) (int64, error) {
	tx := r.DB.WithContext(ctx).
		Where("id = ? AND author_id = ?", id, authorID).
		Delete(&model.Entry{})
	return tx.RowsAffected, tx.Error
}

// CountOwnedIn 批量归属校验：一条集合查询数出请求里真正属于该用户的entry数，
// 小于请求集合大小即说明混入了别人的entry，整单拒绝
func (r *EntryRepository) CountOwnedIn(ctx context.Context, authorID uint64, entryIDs []uint64) (int64, error) {
	if len(entryIDs) == 0 {
		return 0, nil
	}
	var n int64
	err := r.DB.WithContext(ctx).Model(&model.Entry{}).
		Where("author_id = ? AND id IN ?", authorID, entryIDs).
		Count(&n).Error
	return n, err
}
