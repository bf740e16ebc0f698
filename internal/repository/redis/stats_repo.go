package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"Memoir_Community/internal/model"

	"github.com/redis/go-redis/v9"
)

const (
	StatsTTL       = 10 * time.Minute
	StatsKeyPrefix = "profile:counts" // 缓存某个Profile的三个冗余计数
)

// StatsCacheRepository 计数缓存，显式注入，不做全局隐式状态。
// 失效点严格对齐变更边界：关注/取关、可见性变更、对账落库之后
type StatsCacheRepository struct {
	ttl time.Duration
}

func NewStatsCacheRepository() *StatsCacheRepository {
	return &StatsCacheRepository{ttl: StatsTTL}
}

func (r *StatsCacheRepository) key(userID uint64) string {
	return fmt.Sprintf("%s:%d", StatsKeyPrefix, userID)
}

// Get 读缓存，miss 不算错误
func (r *StatsCacheRepository) Get(ctx context.Context, userID uint64) (model.ProfileCounts, bool, error) {
	var c model.ProfileCounts
	raw, err := Client.Get(ctx, r.key(userID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return c, false, nil
	}
	if err != nil {
		return c, false, err
	}
	if err = json.Unmarshal(raw, &c); err != nil {
		// 脏数据直接当miss，顺手删掉
		_ = Client.Del(ctx, r.key(userID)).Err()
		return c, false, nil
	}
	return c, true, nil
}

// Set 回填权威值，只允许写入对账算出的计数
func (r *StatsCacheRepository) Set(ctx context.Context, c model.ProfileCounts) error {
	raw, err := json.Marshal(c)
	if err != nil {
		return err
	}
	return Client.Set(ctx, r.key(c.UserID), raw, r.ttl).Err()
}

// Invalidate 变更边界上删Key，下次读回源重建
func (r *StatsCacheRepository) Invalidate(ctx context.Context, userIDs ...uint64) error {
	if len(userIDs) == 0 {
		return nil
	}
	keys := make([]string, 0, len(userIDs))
	for _, id := range userIDs {
		keys = append(keys, r.key(id))
	}
	if err := Client.Del(ctx, keys...).Err(); err != nil && !errors.Is(err, redis.Nil) {
		return err
	}
	return nil
}
