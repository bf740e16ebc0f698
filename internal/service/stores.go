package service

import (
	"context"

	"Memoir_Community/internal/model"
)

// 服务层只依赖这些小接口；mysql/redis 仓储是默认实现，测试注入内存假仓储

type ProfileStore interface {
	Create(ctx context.Context, p *model.Profile) error
	FindByUserID(ctx context.Context, userID uint64) (*model.Profile, error)
	FindByHandle(ctx context.Context, handle string) (*model.Profile, error)
	ListByUserIDs(ctx context.Context, userIDs []uint64) ([]model.Profile, error)
	SetActive(ctx context.Context, userID uint64, active bool) (bool, error)
	UpdateFlags(ctx context.Context, userID uint64, journeyPublic, allowSpecific bool) (bool, error)
	Delete(ctx context.Context, userID uint64) (bool, error)
	UpdateCounters(ctx context.Context, c model.ProfileCounts) error
	ListBatch(ctx context.Context, lastID uint64, batchSize int) ([]model.Profile, uint64, error)
}

type EdgeStore interface {
	CreateEdge(ctx context.Context, followerID, followingID uint64) error
	DeleteEdge(ctx context.Context, followerID, followingID uint64) (bool, error)
	EdgeExists(ctx context.Context, followerID, followingID uint64) (bool, error)
	ListFollowers(ctx context.Context, userID uint64, cursor uint64, limit int) ([]model.FollowEdge, uint64, error)
	ListFollowings(ctx context.Context, userID uint64, cursor uint64, limit int) ([]model.FollowEdge, uint64, error)
	NeighborIDs(ctx context.Context, userID uint64) ([]uint64, error)
	DeleteTouching(ctx context.Context, userID uint64) (int64, error)
	DeleteOrphans(ctx context.Context) (int64, error)
}

type VisibilityStore interface {
	Upsert(ctx context.Context, entryID, userID uint64, isPublic bool) error
	DeleteForEntry(ctx context.Context, entryID uint64) (int64, error)
	DeleteByOwner(ctx context.Context, userID uint64) (int64, error)
	DeleteOrphans(ctx context.Context) (int64, error)
}

type EntryStore interface {
	Create(ctx context.Context, entry *model.Entry) error
	FindByID(ctx context.Context, id uint64) (*model.Entry, error)
	ListByAuthor(ctx context.Context, authorID uint64, cursor uint64, limit int) ([]model.Entry, uint64, error)
	Delete(ctx context.Context, id, authorID uint64) (int64, error)
	CountOwnedIn(ctx context.Context, authorID uint64, entryIDs []uint64) (int64, error)
}

// AggregateStore 真值计算，纯读
type AggregateStore interface {
	Counts(ctx context.Context, profiles []model.Profile) ([]model.ProfileCounts, error)
}

type StatsCache interface {
	Get(ctx context.Context, userID uint64) (model.ProfileCounts, bool, error)
	Set(ctx context.Context, c model.ProfileCounts) error
	Invalidate(ctx context.Context, userIDs ...uint64) error
}

type OutboxStore interface {
	Insert(ctx context.Context, event string, follower, followee uint64) error
	List(ctx context.Context, batchSize int) ([]model.SocialOutbox, error)
	RetryUpdate(ctx context.Context, id uint64) error
	SuccessUpdate(ctx context.Context, id uint64) error
}
