package service

import (
	"context"
	"log"
	"time"

	"Memoir_Community/internal/model"
)

type Sender func(ctx context.Context, ob *model.SocialOutbox) error

// OutboxRelayer 定时把待投递的关注事件批量交给下游（kafka）
type OutboxRelayer struct {
	repo         OutboxStore
	batchSize    int
	interval     time.Duration
	drainTimeout time.Duration
	sender       Sender
}

func NewOutboxRelayer(repo OutboxStore, sender Sender) *OutboxRelayer {
	return &OutboxRelayer{
		repo:         repo,
		batchSize:    200,
		interval:     time.Second,
		drainTimeout: 30 * time.Second, // 单批投递的硬截止，下游挂死不拖住ticker
		sender:       sender,
	}
}

// Run outbox启动器
func (r *OutboxRelayer) Run(ctx context.Context) {
	t := time.NewTicker(r.interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			drainCtx, cancel := context.WithTimeout(ctx, r.drainTimeout)
			r.drainOnce(drainCtx)
			cancel()
		}
	}
}

func (r *OutboxRelayer) drainOnce(ctx context.Context) {
	rows, err := r.repo.List(ctx, r.batchSize)
	if err != nil {
		log.Printf("outbox query err: %v", err)
		return
	}
	for i := range rows {
		ob := rows[i]
		if err = r.sender(ctx, &ob); err != nil {
			if uerr := r.repo.RetryUpdate(ctx, ob.ID); uerr != nil {
				log.Printf("outbox retry update id=%d err: %v", ob.ID, uerr)
			}
			continue
		}
		if uerr := r.repo.SuccessUpdate(ctx, ob.ID); uerr != nil {
			log.Printf("outbox success update id=%d err: %v", ob.ID, uerr)
		}
	}
}

// LogSender 默认 sender：只打印，未配置kafka时使用
func LogSender(ctx context.Context, ob *model.SocialOutbox) error {
	log.Printf("OUTBOX SEND type=%s follower=%d followee=%d payload=%s", ob.EventType, ob.Follower, ob.Followee, ob.Payload)
	return nil
}
