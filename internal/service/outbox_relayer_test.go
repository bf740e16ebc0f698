package service

import (
	"context"
	"errors"
	"testing"

	"Memoir_Community/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOutboxRelayerDrain(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	repo := outboxStore{env.store}
	require.NoError(t, repo.Insert(ctx, "follow", 2, 1))
	require.NoError(t, repo.Insert(ctx, "unfollow", 3, 1))

	var sent []string
	relayer := NewOutboxRelayer(repo, func(ctx context.Context, ob *model.SocialOutbox) error {
		if ob.EventType == "unfollow" {
			return errors.New("broker down")
		}
		sent = append(sent, ob.EventType)
		return nil
	})
	relayer.drainOnce(ctx)

	assert.Equal(t, []string{"follow"}, sent)
	assert.EqualValues(t, 1, env.store.outbox[0].Status, "delivered row marked sent")
	assert.EqualValues(t, 2, env.store.outbox[1].Status, "failed row marked for retry")
	assert.Equal(t, 1, env.store.outbox[1].Retry)
}
