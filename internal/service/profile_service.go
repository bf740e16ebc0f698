package service

import (
	"context"
	"errors"
	"log"
	"regexp"

	"Memoir_Community/internal/model"
	"Memoir_Community/internal/pkg"
	"Memoir_Community/internal/repository/mysql"

	"gorm.io/gorm"
)

// handle规则：3-30位小写字母、数字、下划线
var handleRe = regexp.MustCompile(`^[a-z0-9_]{3,30}$`)

// ProfileService Profile生命周期协调器。
// unlink是软下线（边和计数原样保留，可复活）；硬删除走扇出对账+孤儿清理
type ProfileService struct {
	profiles ProfileStore
	edges    EdgeStore
	vis      VisibilityStore
	cache    StatsCache
	rec      *ReconcileService
}

// ProfileWithCounts 列表页用的带计数视图，计数来自落库的权威值
type ProfileWithCounts struct {
	UserID             uint64 `json:"user_id"`
	Handle             string `json:"handle"`
	DisplayName        string `json:"display_name"`
	IsJourneyPublic    bool   `json:"is_journey_public"`
	FollowersCount     int64  `json:"followers_count"`
	FollowingCount     int64  `json:"following_count"`
	PublicEntriesCount int64  `json:"public_entries_count"`
}

func NewProfileService(profiles ProfileStore, edges EdgeStore, vis VisibilityStore, cache StatsCache, rec *ReconcileService) *ProfileService {
	return &ProfileService{
		profiles: profiles,
		edges:    edges,
		vis:      vis,
		cache:    cache,
		rec:      rec,
	}
}

// CreateProfile 开启公开分享，一人一条
func (s *ProfileService) CreateProfile(ctx context.Context, actorID uint64, handle, displayName string, journeyPublic, allowSpecific bool) (*model.Profile, error) {
	if actorID == 0 || displayName == "" {
		return nil, pkg.ErrInvalidInput
	}
	if !handleRe.MatchString(handle) {
		return nil, pkg.ErrInvalidHandle
	}
	p := &model.Profile{
		UserID:               actorID,
		Handle:               handle,
		DisplayName:          displayName,
		IsJourneyPublic:      journeyPublic,
		AllowSpecificEntries: allowSpecific,
		IsActive:             true,
	}
	if err := s.profiles.Create(ctx, p); err != nil {
		if errors.Is(err, mysql.ErrDuplicateProfile) {
			// 冲突可能是user_id也可能是handle，查一下自己区分
			if _, ferr := s.profiles.FindByUserID(ctx, actorID); ferr == nil {
				return nil, pkg.ErrProfileExists
			}
			return nil, pkg.ErrHandleTaken
		}
		return nil, pkg.StoreError("create profile", err)
	}
	return p, nil
}

func (s *ProfileService) GetByHandle(ctx context.Context, handle string) (*model.Profile, error) {
	p, err := s.profiles.FindByHandle(ctx, handle)
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

// UpdateFlags journey级可见性切换。publicEntriesCount的分支取决于这个flag，
// 所以改完必须立刻对owner做定向对账
func (s *ProfileService) UpdateFlags(ctx context.Context, actorID uint64, journeyPublic, allowSpecific bool) error {
	if actorID == 0 {
		return pkg.ErrInvalidInput
	}
	ok, err := s.profiles.UpdateFlags(ctx, actorID, journeyPublic, allowSpecific)
	if err != nil {
		return pkg.StoreError("update flags", err)
	}
	if !ok {
		return pkg.ErrProfileNotFound
	}
	if err = s.cache.Invalidate(ctx, actorID); err != nil {
		log.Printf("stats cache invalidate owner=%d err: %v", actorID, err)
	}
	if _, err = s.rec.Targeted(ctx, []uint64{actorID}); err != nil {
		log.Printf("targeted reconcile owner=%d err: %v", actorID, err)
	}
	return nil
}

// Deactivate 软下线：公开列表不再出现，边和计数保留等待复活，不用动邻居
func (s *ProfileService) Deactivate(ctx context.Context, actorID uint64) error {
	return s.setActive(ctx, actorID, false)
}

// Reactivate 复活软下线的Profile
func (s *ProfileService) Reactivate(ctx context.Context, actorID uint64) error {
	return s.setActive(ctx, actorID, true)
}

func (s *ProfileService) setActive(ctx context.Context, actorID uint64, active bool) error {
	if actorID == 0 {
		return pkg.ErrInvalidInput
	}
	ok, err := s.profiles.SetActive(ctx, actorID, active)
	if err != nil {
		return pkg.StoreError("set active", err)
	}
	if !ok {
		return pkg.ErrProfileNotFound
	}
	if err = s.cache.Invalidate(ctx, actorID); err != nil {
		log.Printf("stats cache invalidate owner=%d err: %v", actorID, err)
	}
	return nil
}

// Delete 硬删除。删一个节点会改掉所有邻居的出入度而邻居不会被另行通知，
// 所以必须先收集邻居端点，再删本体/边/可见性记录，最后对邻居集合扇出对账。
// 各步独立提交：中途失败留下的残留由孤儿清理+全量对账收敛
func (s *ProfileService) Delete(ctx context.Context, actorID uint64) (int, error) {
	if actorID == 0 {
		return 0, pkg.ErrInvalidInput
	}
	if _, err := s.profiles.FindByUserID(ctx, actorID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, pkg.ErrProfileNotFound
		}
		return 0, pkg.StoreError("find profile", err)
	}
	neighbors, err := s.edges.NeighborIDs(ctx, actorID)
	if err != nil {
		return 0, pkg.StoreError("collect neighbors", err)
	}
	if _, err = s.profiles.Delete(ctx, actorID); err != nil {
		return 0, pkg.StoreError("delete profile", err)
	}
	// 本体已删，之后的清理失败只记日志：孤儿行由维护通道兜底
	if _, err = s.edges.DeleteTouching(ctx, actorID); err != nil {
		log.Printf("delete edges of user=%d err: %v", actorID, err)
	}
	if _, err = s.vis.DeleteByOwner(ctx, actorID); err != nil {
		log.Printf("delete visibility of user=%d err: %v", actorID, err)
	}
	if err = s.cache.Invalidate(ctx, actorID); err != nil {
		log.Printf("stats cache invalidate owner=%d err: %v", actorID, err)
	}
	if _, err = s.rec.Targeted(ctx, neighbors); err != nil {
		log.Printf("fan-out reconcile for deleted user=%d err: %v", actorID, err)
	}
	return len(neighbors), nil
}

// GetProfilesWithCounts 列表/发现页的批量读，cache-aside：
// 命中用缓存，miss回源落库权威值再回填；下线Profile不出现在结果里
func (s *ProfileService) GetProfilesWithCounts(ctx context.Context, userIDs []uint64) ([]ProfileWithCounts, error) {
	if len(userIDs) == 0 {
		return nil, pkg.ErrInvalidInput
	}
	ids := dedupeIDs(userIDs)
	cached := make(map[uint64]model.ProfileCounts, len(ids))
	var missed []uint64
	for _, id := range ids {
		c, ok, err := s.cache.Get(ctx, id)
		if err != nil {
			// 缓存故障按全miss处理，不挡读
			missed = append(missed, id)
			continue
		}
		if ok {
			cached[id] = c
		} else {
			missed = append(missed, id)
		}
	}
	// 无论命中与否都要Profile本体（handle、display name、在线状态）
	profiles, err := s.profiles.ListByUserIDs(ctx, ids)
	if err != nil {
		return nil, pkg.StoreError("list profiles", err)
	}
	missedSet := make(map[uint64]struct{}, len(missed))
	for _, id := range missed {
		missedSet[id] = struct{}{}
	}
	out := make([]ProfileWithCounts, 0, len(profiles))
	for _, p := range profiles {
		if !p.IsActive {
			continue
		}
		counts := model.ProfileCounts{
			UserID:             p.UserID,
			FollowersCount:     p.FollowersCount,
			FollowingCount:     p.FollowingCount,
			PublicEntriesCount: p.PublicEntriesCount,
		}
		if c, ok := cached[p.UserID]; ok {
			counts = c
		} else if _, miss := missedSet[p.UserID]; miss {
			if err := s.cache.Set(ctx, counts); err != nil {
				log.Printf("stats cache set user=%d err: %v", p.UserID, err)
			}
		}
		out = append(out, ProfileWithCounts{
			UserID:             p.UserID,
			Handle:             p.Handle,
			DisplayName:        p.DisplayName,
			IsJourneyPublic:    p.IsJourneyPublic,
			FollowersCount:     counts.FollowersCount,
			FollowingCount:     counts.FollowingCount,
			PublicEntriesCount: counts.PublicEntriesCount,
		})
	}
	return out, nil
}
