package service

import (
	"context"
	"testing"

	"Memoir_Community/internal/model"
	"Memoir_Community/internal/pkg"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFollowThenUnfollowConverges(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	env.mustProfile(1, "alice")
	env.mustProfile(2, "bob")
	env.mustProfile(3, "carol")

	// B、C 先后关注 A
	res, err := env.follow.Follow(ctx, 2, 1)
	require.NoError(t, err)
	assert.Equal(t, StatusFollowed, res.Status)

	res, err = env.follow.Follow(ctx, 3, 1)
	require.NoError(t, err)
	assert.Equal(t, StatusFollowed, res.Status)

	assert.EqualValues(t, 2, env.storedProfile(1).FollowersCount)
	assert.EqualValues(t, 1, env.storedProfile(2).FollowingCount)
	assert.EqualValues(t, 1, env.storedProfile(3).FollowingCount)

	// C 取关
	res, err = env.follow.Unfollow(ctx, 3, 1)
	require.NoError(t, err)
	assert.Equal(t, StatusUnfollowed, res.Status)

	assert.EqualValues(t, 1, env.storedProfile(1).FollowersCount)
	assert.EqualValues(t, 0, env.storedProfile(3).FollowingCount)
}

func TestFollowReturnsOptimisticProjection(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	env.mustProfile(1, "alice")
	env.mustProfile(2, "bob")

	res, err := env.follow.Follow(ctx, 2, 1)
	require.NoError(t, err)
	assert.Equal(t, model.SourceOptimistic, res.TargetFollowers.Source)
	assert.EqualValues(t, 1, res.TargetFollowers.Count)
	assert.EqualValues(t, 1, res.ActorFollowing.Count)
}

func TestProjectionNeverPersistedOnReconcileFailure(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	env.mustProfile(1, "alice")
	env.mustProfile(2, "bob")

	// 对账写入失败：调用依然成功（边是事实源），预测值不落库，库里留的是旧值
	env.store.failCounters[1] = true
	env.store.failCounters[2] = true
	res, err := env.follow.Follow(ctx, 2, 1)
	require.NoError(t, err)
	assert.Equal(t, StatusFollowed, res.Status)
	assert.EqualValues(t, 1, res.TargetFollowers.Count)
	assert.EqualValues(t, 0, env.storedProfile(1).FollowersCount, "projection must not be written to storage")

	// 故障恢复后全量对账把漂移修掉
	env.store.failCounters = map[uint64]bool{}
	report, err := env.rec.ReconcileAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, report.Corrected)
	assert.EqualValues(t, 1, env.storedProfile(1).FollowersCount)
}

func TestUnfollowProjectionClampedAtZero(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	env.mustProfile(1, "alice")
	env.mustProfile(2, "bob")
	// 直接写边不走Follow，库里计数停在0（漂移状态）
	require.NoError(t, env.store.CreateEdge(ctx, 2, 1))

	res, err := env.follow.Unfollow(ctx, 2, 1)
	require.NoError(t, err)
	assert.Equal(t, StatusUnfollowed, res.Status)
	assert.Equal(t, model.SourceOptimistic, res.ActorFollowing.Source)
	// 0-1 封底为0，绝不出现负数预测
	assert.EqualValues(t, 0, res.TargetFollowers.Count)
	assert.EqualValues(t, 0, res.ActorFollowing.Count)
}

func TestSelfFollowRejected(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	env.mustProfile(1, "alice")

	_, err := env.follow.Follow(ctx, 1, 1)
	assert.ErrorIs(t, err, pkg.ErrSelfFollow)
	assert.Empty(t, env.store.edges, "self-follow must not write any edge")

	_, err = env.follow.Unfollow(ctx, 1, 1)
	assert.ErrorIs(t, err, pkg.ErrSelfFollow)
}

func TestDuplicateFollowRejected(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	env.mustProfile(1, "alice")
	env.mustProfile(2, "bob")

	_, err := env.follow.Follow(ctx, 2, 1)
	require.NoError(t, err)

	res, err := env.follow.Follow(ctx, 2, 1)
	require.NoError(t, err)
	assert.Equal(t, StatusAlreadyFollowing, res.Status)
	assert.Equal(t, model.SourceAuthoritative, res.TargetFollowers.Source)
	assert.Len(t, env.store.edges, 1, "edge count for the pair must stay 1")
	assert.EqualValues(t, 1, env.storedProfile(1).FollowersCount)
}

func TestUnfollowWithoutEdgeRejected(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	env.mustProfile(1, "alice")
	env.mustProfile(2, "bob")

	res, err := env.follow.Unfollow(ctx, 2, 1)
	require.NoError(t, err)
	assert.Equal(t, StatusNotFollowing, res.Status)
	assert.EqualValues(t, 0, env.storedProfile(1).FollowersCount)
}

func TestFollowMissingOrInactiveTarget(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	env.mustProfile(1, "alice")

	_, err := env.follow.Follow(ctx, 1, 99)
	assert.ErrorIs(t, err, pkg.ErrProfileNotFound)

	env.mustProfile(2, "bob")
	require.NoError(t, env.profile.Deactivate(ctx, 2))
	_, err = env.follow.Follow(ctx, 1, 2)
	assert.ErrorIs(t, err, pkg.ErrProfileNotFound)
}

func TestFollowWritesOutboxEvent(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	env.mustProfile(1, "alice")
	env.mustProfile(2, "bob")

	_, err := env.follow.Follow(ctx, 2, 1)
	require.NoError(t, err)
	require.Len(t, env.store.outbox, 1)
	assert.Equal(t, "follow", env.store.outbox[0].EventType)
	assert.EqualValues(t, 2, env.store.outbox[0].Follower)
}

func TestIsFollowing(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	env.mustProfile(1, "alice")
	env.mustProfile(2, "bob")

	ok, err := env.follow.IsFollowing(ctx, 2, 1)
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = env.follow.Follow(ctx, 2, 1)
	require.NoError(t, err)

	ok, err = env.follow.IsFollowing(ctx, 2, 1)
	require.NoError(t, err)
	assert.True(t, ok)
}
