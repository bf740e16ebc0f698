package mysql

import (
	"context"
	"encoding/json"
	"time"

	"Memoir_Community/internal/model"

	"gorm.io/gorm"
)

type OutboxRepository struct {
	DB *gorm.DB
}

// Insert 写入关注事件。独立提交的一步，在边写入之后尽力而为地执行；
// 失败不回滚边（没有跨表事务），丢事件只影响下游通知，不影响计数正确性
func (r *OutboxRepository) Insert(ctx context.Context, event string, follower, followee uint64) error {
	payload, _ := json.Marshal(map[string]any{
		"event_time": time.Now().UTC().Format(time.RFC3339Nano),
		"follower":   follower,
		"followee":   followee,
	})
	ob := &model.SocialOutbox{
		EventType: event,
		Follower:  follower,
		Followee:  followee,
		Payload:   string(payload),
		Status:    0,
	}
	return r.DB.WithContext(ctx).Create(ob).Error
}

// List 取待投递批次
func (r *OutboxRepository) List(ctx context.Context, batchSize int) ([]model.SocialOutbox, error) {
	var list []model.SocialOutbox
	if err := r.DB.WithContext(ctx).
		Where("status = 0").
		Order("id ASC").
		Limit(batchSize).
		Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

// RetryUpdate 投递失败计一次重试
func (r *OutboxRepository) RetryUpdate(ctx context.Context, id uint64) error {
	return r.DB.WithContext(ctx).Model(&model.SocialOutbox{}).Where("id = ?", id).
		Updates(map[string]any{"status": 2, "retry": gorm.Expr("retry + 1")}).Error
}

// SuccessUpdate 投递成功落状态
func (r *OutboxRepository) SuccessUpdate(ctx context.Context, id uint64) error {
	return r.DB.WithContext(ctx).Model(&model.SocialOutbox{}).Where("id = ?", id).
		Update("status", 1).Error
}
