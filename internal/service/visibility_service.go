package service

import (
	"context"
	"errors"
	"log"

	"Memoir_Community/internal/pkg"

	"gorm.io/gorm"
)

// VisibilityService 单条/批量可见性变更协调器。
// 写路径是upsert而不是先查再写，同一用户的并发请求在行级竞争但结果与顺序无关
type VisibilityService struct {
	entries EntryStore
	vis     VisibilityStore
	cache   StatsCache
	rec     *ReconcileService
}

func NewVisibilityService(entries EntryStore, vis VisibilityStore, cache StatsCache, rec *ReconcileService) *VisibilityService {
	return &VisibilityService{
		entries: entries,
		vis:     vis,
		cache:   cache,
		rec:     rec,
	}
}

// SetEntryVisibility 单条entry公开/回私
func (s *VisibilityService) SetEntryVisibility(ctx context.Context, actorID, entryID uint64, isPublic bool) error {
	if actorID == 0 || entryID == 0 {
		return pkg.ErrInvalidInput
	}
	entry, err := s.entries.FindByID(ctx, entryID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkg.ErrEntryNotFound
		}
		return pkg.StoreError("find entry", err)
	}
	if entry.AuthorID != actorID {
		return pkg.ErrNotEntryOwner
	}
	if err = s.vis.Upsert(ctx, entryID, actorID, isPublic); err != nil {
		return pkg.StoreError("upsert visibility", err)
	}
	s.afterOwnerMutation(ctx, actorID)
	return nil
}

// BulkSetVisibility 批量可见性变更。归属校验用一条集合查询完成：
// 校验出的数量小于请求集合就整单拒绝（fail-closed），
// 防止把别人的entry混进合法id里蒙混过关，绝不部分成功
func (s *VisibilityService) BulkSetVisibility(ctx context.Context, actorID uint64, entryIDs []uint64, isPublic bool) (int, error) {
	if actorID == 0 || len(entryIDs) == 0 {
		return 0, pkg.ErrInvalidInput
	}
	ids := dedupeIDs(entryIDs)
	owned, err := s.entries.CountOwnedIn(ctx, actorID, ids)
	if err != nil {
		return 0, pkg.StoreError("count owned entries", err)
	}
	if owned != int64(len(ids)) {
		return 0, pkg.ErrNotOwner
	}
	// 每条记录独立upsert提交；中途存储故障时已写入的行留着，
	// 由owner对账把计数拉回真值，重试整批也安全
	for _, id := range ids {
		if err = s.vis.Upsert(ctx, id, actorID, isPublic); err != nil {
			return 0, pkg.StoreError("upsert visibility", err)
		}
	}
	s.afterOwnerMutation(ctx, actorID)
	return len(ids), nil
}

// afterOwnerMutation 可见性变更只影响owner一个Profile：失效缓存+定向对账。
// 对账失败不上抛，定时全量对账兜底
func (s *VisibilityService) afterOwnerMutation(ctx context.Context, ownerID uint64) {
	if err := s.cache.Invalidate(ctx, ownerID); err != nil {
		log.Printf("stats cache invalidate owner=%d err: %v", ownerID, err)
	}
	if _, err := s.rec.Targeted(ctx, []uint64{ownerID}); err != nil {
		log.Printf("targeted reconcile owner=%d err: %v", ownerID, err)
	}
}
