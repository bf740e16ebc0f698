package mysql

import (
	"context"
	"errors"

	"Memoir_Community/internal/model"

	"gorm.io/gorm"
)

type FollowRepository struct {
	DB *gorm.DB
}

var ErrEdgeExists = errors.New("edge already exists")

// CreateEdge 插入关注边。并发下的重复关注由 (follower_id, following_id) 唯一键拦截，
// 冲突返回 ErrEdgeExists，调用方据此回复 already_following
func (r *FollowRepository) CreateEdge(ctx context.Context, followerID, followingID uint64) error {
	edge := model.FollowEdge{
		FollowerID:  followerID,
		FollowingID: followingID,
	}
	if err := r.DB.WithContext(ctx).Create(&edge).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrEdgeExists
		}
		return err
	}
	return nil
}

// DeleteEdge 删除关注边，返回是否真的删到了行；没删到由调用方回复 not_following
func (r *FollowRepository) DeleteEdge(ctx context.Context, followerID, followingID uint64) (bool, error) {
	tx := r.DB.WithContext(ctx).
		Where("follower_id = ? AND following_id = ?", followerID, followingID).
		Delete(&model.FollowEdge{})
	return tx.RowsAffected > 0, tx.Error
}

func (r *FollowRepository) EdgeExists(ctx context.Context, followerID, followingID uint64) (bool, error) {
	var n int64
	if err := r.DB.WithContext(ctx).
		Model(&model.FollowEdge{}).
		Where("follower_id = ? AND following_id = ?", followerID, followingID).
		Count(&n).Error; err != nil {
		return false, err
	}
	return n > 0, nil
}

// ListFollowers 粉丝列表，id 游标分页
func (r *FollowRepository) ListFollowers(ctx context.Context, userID uint64, cursor uint64, limit int) ([]model.FollowEdge, uint64, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	q := r.DB.WithContext(ctx).Model(&model.FollowEdge{}).
		Where("following_id = ?", userID)
	if cursor > 0 {
		q = q.Where("id < ?", cursor)
	}
	var rows []model.FollowEdge
	// limit+1 探测下一页
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

// ListFollowings 关注列表，id 游标分页
func (r *FollowRepository) ListFollowings(ctx context.Context, userID uint64, cursor uint64, limit int) ([]model.FollowEdge, uint64, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	q := r.DB.WithContext(ctx).Model(&model.FollowEdge{}).
		Where("follower_id = ?", userID)
	if cursor > 0 {
		q = q.Where("id < ?", cursor)
	}
	var rows []model.FollowEdge
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

// NeighborIDs 收集与该用户相邻的全部端点（粉丝+关注对象，去重）。
// 删除Profile前必须先取这份集合，删完后对它们做定向对账
func (r *FollowRepository) NeighborIDs(ctx context.Context, userID uint64) ([]uint64, error) {
	var followers []uint64
	if err := r.DB.WithContext(ctx).Model(&model.FollowEdge{}).
		Where("following_id = ?", userID).
		Distinct().
		Pluck("follower_id", &followers).Error; err != nil {
		return nil, err
	}
	var followings []uint64
	if err := r.DB.WithContext(ctx).Model(&model.FollowEdge{}).
		Where("follower_id = ?", userID).
		Distinct().
		Pluck("following_id", &followings).Error; err != nil {
		return nil, err
	}
	seen := make(map[uint64]struct{}, len(followers)+len(followings))
	out := make([]uint64, 0, len(followers)+len(followings))
	for _, id := range followers {
		if _, ok := seen[id]; !ok {
			seen[id] = struct{}{}
			out = append(out, id)
		}
	}
	for _, id := range followings {
		if _, ok := seen[id]; !ok {
			seen[id] = struct{}{}
			out = append(out, id)
		}
	}
	return out, nil
}

// DeleteTouching 删除该用户作为任一端点的所有边
func (r *FollowRepository) DeleteTouching(ctx context.Context, userID uint64) (int64, error) {
	tx := r.DB.WithContext(ctx).
		Where("follower_id = ? OR following_id = ?", userID, userID).
		Delete(&model.FollowEdge{})
	return tx.RowsAffected, tx.Error
}

// DeleteOrphans 清理端点Profile已不存在的边。单条语句服务端过滤，
// 不把候选集拉回客户端逐条判断，与线上流量并发运行是安全的
func (r *FollowRepository) DeleteOrphans(ctx context.Context) (int64, error) {
	tx := r.DB.WithContext(ctx).Exec(`
		DELETE FROM follow_edges
		WHERE NOT EXISTS (SELECT 1 FROM profiles p WHERE p.user_id = follow_edges.follower_id)
		   OR NOT EXISTS (SELECT 1 FROM profiles p WHERE p.user_id = follow_edges.following_id)`)
	return tx.RowsAffected, tx.Error
}
