package service

import (
	"context"
	"errors"
	"log"

	"Memoir_Community/internal/model"
	"Memoir_Community/internal/pkg"
	"Memoir_Community/internal/repository/mysql"

	"gorm.io/gorm"
)

// FollowService 关注/取关协调器。一次变更分三段各自提交：
// 校验 -> 单条边写入 -> 定向对账，没有跨表事务。
// 边写入成功后对账失败不回滚——边是事实源，留下的漂移由定时全量对账修复
type FollowService struct {
	profiles ProfileStore
	edges    EdgeStore
	outbox   OutboxStore
	cache    StatsCache
	rec      *ReconcileService
}

const (
	StatusFollowed         = "followed"
	StatusAlreadyFollowing = "already_following"
	StatusUnfollowed       = "unfollowed"
	StatusNotFollowing     = "not_following"
)

// FollowResult 变更结果。计数是请求时 ±1 的乐观预测，仅供界面即时展示，
// 权威值以下一次读到的对账结果为准，预测值永不落库
type FollowResult struct {
	Status          string             `json:"status"`
	TargetFollowers model.CounterValue `json:"target_followers"`
	ActorFollowing  model.CounterValue `json:"actor_following"`
}

func NewFollowService(profiles ProfileStore, edges EdgeStore, outbox OutboxStore, cache StatsCache, rec *ReconcileService) *FollowService {
	return &FollowService{
		profiles: profiles,
		edges:    edges,
		outbox:   outbox,
		cache:    cache,
		rec:      rec,
	}
}

func (s *FollowService) Follow(ctx context.Context, actorID, targetID uint64) (*FollowResult, error) {
	actor, target, err := s.validatePair(ctx, actorID, targetID)
	if err != nil {
		return nil, err
	}

	if err = s.edges.CreateEdge(ctx, actorID, targetID); err != nil {
		if errors.Is(err, mysql.ErrEdgeExists) {
			// 显式拒绝而不是静默去重，调用方和计数对状态转换的认知必须一致
			return &FollowResult{
				Status:          StatusAlreadyFollowing,
				TargetFollowers: authoritative(target.FollowersCount),
				ActorFollowing:  authoritative(actor.FollowingCount),
			}, nil
		}
		return nil, pkg.StoreError("create edge", err)
	}

	s.afterEdgeWrite(ctx, "follow", actorID, targetID)

	return &FollowResult{
		Status:          StatusFollowed,
		TargetFollowers: optimistic(target.FollowersCount + 1),
		ActorFollowing:  optimistic(actor.FollowingCount + 1),
	}, nil
}

func (s *FollowService) Unfollow(ctx context.Context, actorID, targetID uint64) (*FollowResult, error) {
	actor, target, err := s.validatePair(ctx, actorID, targetID)
	if err != nil {
		return nil, err
	}

	deleted, err := s.edges.DeleteEdge(ctx, actorID, targetID)
	if err != nil {
		return nil, pkg.StoreError("delete edge", err)
	}
	if !deleted {
		return &FollowResult{
			Status:          StatusNotFollowing,
			TargetFollowers: authoritative(target.FollowersCount),
			ActorFollowing:  authoritative(actor.FollowingCount),
		}, nil
	}

	s.afterEdgeWrite(ctx, "unfollow", actorID, targetID)

	return &FollowResult{
		Status:          StatusUnfollowed,
		TargetFollowers: optimistic(target.FollowersCount - 1),
		ActorFollowing:  optimistic(actor.FollowingCount - 1),
	}, nil
}

func (s *FollowService) IsFollowing(ctx context.Context, actorID, targetID uint64) (bool, error) {
	if actorID == 0 || targetID == 0 {
		return false, pkg.ErrInvalidInput
	}
	ok, err := s.edges.EdgeExists(ctx, actorID, targetID)
	if err != nil {
		return false, pkg.StoreError("edge exists", err)
	}
	return ok, nil
}

func (s *FollowService) ListFollowers(ctx context.Context, userID uint64, cursor uint64, limit int) ([]model.FollowEdge, uint64, error) {
	return s.edges.ListFollowers(ctx, userID, cursor, limit)
}

func (s *FollowService) ListFollowings(ctx context.Context, userID uint64, cursor uint64, limit int) ([]model.FollowEdge, uint64, error) {
	return s.edges.ListFollowings(ctx, userID, cursor, limit)
}

// validatePair 校验双方Profile存在且在线、禁止自关注
func (s *FollowService) validatePair(ctx context.Context, actorID, targetID uint64) (actor, target *model.Profile, err error) {
	if actorID == 0 || targetID == 0 {
		return nil, nil, pkg.ErrInvalidInput
	}
	if actorID == targetID {
		return nil, nil, pkg.ErrSelfFollow
	}
	if actor, err = s.findActive(ctx, actorID); err != nil {
		return nil, nil, err
	}
	if target, err = s.findActive(ctx, targetID); err != nil {
		return nil, nil, err
	}
	return actor, target, nil
}

func (s *FollowService) findActive(ctx context.Context, userID uint64) (*model.Profile, error) {
	p, err := s.profiles.FindByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkg.ErrProfileNotFound
		}
		return nil, pkg.StoreError("find profile", err)
	}
	if !p.IsActive {
		return nil, pkg.ErrProfileNotFound
	}
	return p, nil
}

// afterEdgeWrite 边已提交之后的收尾段：outbox、缓存失效、两端点定向对账。
// 这里任何一步失败都只记日志不上抛——边已是既成事实，调用方看到的就是成功
func (s *FollowService) afterEdgeWrite(ctx context.Context, event string, actorID, targetID uint64) {
	if err := s.outbox.Insert(ctx, event, actorID, targetID); err != nil {
		log.Printf("outbox insert %s %d->%d err: %v", event, actorID, targetID, err)
	}
	if err := s.cache.Invalidate(ctx, actorID, targetID); err != nil {
		log.Printf("stats cache invalidate err: %v", err)
	}
	if _, err := s.rec.Targeted(ctx, []uint64{actorID, targetID}); err != nil {
		log.Printf("targeted reconcile after %s %d->%d err: %v", event, actorID, targetID, err)
	}
}

func authoritative(n int64) model.CounterValue {
	if n < 0 {
		n = 0
	}
	return model.CounterValue{Count: n, Source: model.SourceAuthoritative}
}

// optimistic 请求时的 ±1 预测，0封底
func optimistic(n int64) model.CounterValue {
	if n < 0 {
		n = 0
	}
	return model.CounterValue{Count: n, Source: model.SourceOptimistic}
}
