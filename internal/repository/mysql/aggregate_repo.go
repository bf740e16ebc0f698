package mysql

import (
	"context"

	"Memoir_Community/internal/model"

	"gorm.io/gorm"
)

// AggregateRepository 真值计算：从源头行数出各Profile的真实计数。
// 纯读，不写任何东西；每个指标一次分组查询，不做 N+1
type AggregateRepository struct {
	DB *gorm.DB
}

type countRow struct {
	UserID uint64
	Cnt    int64
}

// FollowerCounts 按 following_id 分组数入度
func (r *AggregateRepository) FollowerCounts(ctx context.Context, userIDs []uint64) (map[uint64]int64, error) {
	if len(userIDs) == 0 {
		return map[uint64]int64{}, nil
	}
	var rows []countRow
	if err := r.DB.WithContext(ctx).Model(&model.FollowEdge{}).
		Select("following_id AS user_id, COUNT(*) AS cnt").
		Where("following_id IN ?", userIDs).
		Group("following_id").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return toCountMap(rows), nil
}

// FollowingCounts 按 follower_id 分组数出度
func (r *AggregateRepository) FollowingCounts(ctx context.Context, userIDs []uint64) (map[uint64]int64, error) {
	if len(userIDs) == 0 {
		return map[uint64]int64{}, nil
	}
	var rows []countRow
	if err := r.DB.WithContext(ctx).Model(&model.FollowEdge{}).
		Select("follower_id AS user_id, COUNT(*) AS cnt").
		Where("follower_id IN ?", userIDs).
		Group("follower_id").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return toCountMap(rows), nil
}

// PublicEntryCounts 公开entry计数。分支必须看传入Profile的当前 is_journey_public，
// 不能用缓存过的旧flag，否则journey可见性切换后会算出陈旧值：
// journey公开 -> 数该用户全部entry；否则 -> 数有 is_public=1 可见性记录且entry仍存在的
func (r *AggregateRepository) PublicEntryCounts(ctx context.Context, profiles []model.Profile) (map[uint64]int64, error) {
	var journeyIDs, selectiveIDs []uint64
	for _, p := range profiles {
		if p.IsJourneyPublic {
			journeyIDs = append(journeyIDs, p.UserID)
		} else {
			selectiveIDs = append(selectiveIDs, p.UserID)
		}
	}
	out := make(map[uint64]int64, len(profiles))
	if len(journeyIDs) > 0 {
		var rows []countRow
		if err := r.DB.WithContext(ctx).Model(&model.Entry{}).
			Select("author_id AS user_id, COUNT(*) AS cnt").
			Where("author_id IN ?", journeyIDs).
			Group("author_id").
			Find(&rows).Error; err != nil {
			return nil, err
		}
		for _, row := range rows {
			out[row.UserID] = row.Cnt
		}
	}
	if len(selectiveIDs) > 0 {
		var rows []countRow
		if err := r.DB.WithContext(ctx).Model(&model.VisibilityRecord{}).
			Select("visibility_records.user_id AS user_id, COUNT(*) AS cnt").
			Joins("JOIN entries e ON e.id = visibility_records.entry_id").
			Where("visibility_records.user_id IN ? AND visibility_records.is_public = ?", selectiveIDs, true).
			Group("visibility_records.user_id").
			Find(&rows).Error; err != nil {
			return nil, err
		}
		for _, row := range rows {
			out[row.UserID] = row.Cnt
		}
	}
	return out, nil
}

// Counts 一次算齐一批Profile的三个真值，没有边/记录的补零
func (r *AggregateRepository) Counts(ctx context.Context, profiles []model.Profile) ([]model.ProfileCounts, error) {
	ids := make([]uint64, 0, len(profiles))
	for _, p := range profiles {
		ids = append(ids, p.UserID)
	}
	followers, err := r.FollowerCounts(ctx, ids)
	if err != nil {
		return nil, err
	}
	followings, err := r.FollowingCounts(ctx, ids)
	if err != nil {
		return nil, err
	}
	publics, err := r.PublicEntryCounts(ctx, profiles)
	if err != nil {
		return nil, err
	}
	out := make([]model.ProfileCounts, 0, len(profiles))
	for _, p := range profiles {
		out = append(out, model.ProfileCounts{
			UserID:             p.UserID,
			FollowersCount:     followers[p.UserID],
			FollowingCount:     followings[p.UserID],
			PublicEntriesCount: publics[p.UserID],
		})
	}
	return out, nil
}

func toCountMap(rows []countRow) map[uint64]int64 {
	m := make(map[uint64]int64, len(rows))
	for _, row := range rows {
		m[row.UserID] = row.Cnt
	}
	return m
}
