//go:build integration

package changes_test

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"listsnap/internal/shopping/changes"
	"listsnap/internal/shopping/live"
	"listsnap/pkg/testutil/containers"
)

type RedisBusSuite struct {
	suite.Suite
	redis *containers.RedisContainer
}

func TestRedisBusSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(RedisBusSuite))
}

func (s *RedisBusSuite) SetupSuite() {
	s.redis = containers.GetManager().GetRedis(s.T())
}

func (s *RedisBusSuite) SetupTest() {
	s.Require().NoError(s.redis.FlushAll(context.Background()))
}

func (s *RedisBusSuite) TestRemoteCommitRefreshesLocalWatchers() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	logger := slog.New(slog.DiscardHandler)

	replicaA := live.NewHub(live.WithLogger(logger))
	replicaB := live.NewHub(live.WithLogger(logger))
	busA := changes.NewRedisBus(s.redis.Client, replicaA, changes.WithLogger(logger))
	busB := changes.NewRedisBus(s.redis.Client, replicaB, changes.WithLogger(logger))

	go func() { _ = busA.Run(ctx) }()
	go func() { _ = busB.Run(ctx) }()

	loads := 0
	ch, err := live.Watch(ctx, replicaB, func(context.Context) (int, error) {
		loads++
		return loads, nil
	}, live.TableItems)
	s.Require().NoError(err)
	s.Equal(1, <-ch)

	// Publish until B's subscription is established.
	s.Eventually(func() bool {
		busA.Publish(ctx, live.TableItems)
		select {
		case v := <-ch:
			return v > 1
		case <-time.After(100 * time.Millisecond):
			return false
		}
	}, 10*time.Second, 200*time.Millisecond)
}
