//go:build integration

package cache_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"hirelog/internal/activity"
	"hirelog/internal/activity/cache"
	"hirelog/internal/platform/redis"
	"hirelog/pkg/testutil/containers"
)

type SummaryCacheSuite struct {
	suite.Suite
	redis *containers.RedisContainer
	cache *cache.SummaryCache
}

func TestSummaryCacheSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(SummaryCacheSuite))
}

func (s *SummaryCacheSuite) SetupSuite() {
	s.redis = containers.GetManager().GetRedis(s.T())
	client := &redis.Client{Client: s.redis.Client}
	s.cache = cache.New(client, time.Minute)
}

func (s *SummaryCacheSuite) SetupTest() {
	s.Require().NoError(s.redis.FlushAll(context.Background()))
}

func (s *SummaryCacheSuite) day(value string) time.Time {
	s.T().Helper()
	day, err := activity.ParseDay(value)
	s.Require().NoError(err)
	return day
}

func (s *SummaryCacheSuite) TestSetAndGet() {
	ctx := context.Background()
	day := s.day("2024-01-15")

	count, hit, err := s.cache.GetCount(ctx, "view", day)
	s.Require().NoError(err)
	s.False(hit)
	s.Zero(count)

	s.Require().NoError(s.cache.SetCount(ctx, "view", day, 42))

	count, hit, err = s.cache.GetCount(ctx, "view", day)
	s.Require().NoError(err)
	s.True(hit)
	s.Equal(42, count)
}

func (s *SummaryCacheSuite) TestKeysAreScopedByActionAndDay() {
	ctx := context.Background()
	d15 := s.day("2024-01-15")
	d16 := s.day("2024-01-16")

	s.Require().NoError(s.cache.SetCount(ctx, "view", d15, 10))

	_, hit, err := s.cache.GetCount(ctx, "create", d15)
	s.Require().NoError(err)
	s.False(hit)

	_, hit, err = s.cache.GetCount(ctx, "view", d16)
	s.Require().NoError(err)
	s.False(hit)
}

func (s *SummaryCacheSuite) TestInvalidateDay() {
	ctx := context.Background()
	d15 := s.day("2024-01-15")
	d16 := s.day("2024-01-16")

	s.Require().NoError(s.cache.SetCount(ctx, "view", d15, 10))
	s.Require().NoError(s.cache.SetCount(ctx, "create", d15, 3))
	s.Require().NoError(s.cache.SetCount(ctx, "view", d16, 7))

	s.Require().NoError(s.cache.InvalidateDay(ctx, d15))

	_, hit, err := s.cache.GetCount(ctx, "view", d15)
	s.Require().NoError(err)
	s.False(hit)

	_, hit, err = s.cache.GetCount(ctx, "create", d15)
	s.Require().NoError(err)
	s.False(hit)

	count, hit, err := s.cache.GetCount(ctx, "view", d16)
	s.Require().NoError(err)
	s.True(hit)
	s.Equal(7, count)
}

func (s *SummaryCacheSuite) TestInvalidateAll() {
	ctx := context.Background()
	d15 := s.day("2024-01-15")
	d16 := s.day("2024-01-16")

	s.Require().NoError(s.cache.SetCount(ctx, "view", d15, 10))
	s.Require().NoError(s.cache.SetCount(ctx, "update", d16, 2))

	s.Require().NoError(s.cache.InvalidateAll(ctx))

	_, hit, err := s.cache.GetCount(ctx, "view", d15)
	s.Require().NoError(err)
	s.False(hit)

	_, hit, err = s.cache.GetCount(ctx, "update", d16)
	s.Require().NoError(err)
	s.False(hit)
}

func (s *SummaryCacheSuite) TestPoisonedEntryIsAMiss() {
	ctx := context.Background()
	day := s.day("2024-01-15")

	err := s.redis.Client.Set(ctx, "hirelog:summary:2024-01-15:view", "not-a-number", time.Minute).Err()
	s.Require().NoError(err)

	count, hit, err := s.cache.GetCount(ctx, "view", day)
	s.Require().NoError(err)
	s.False(hit)
	s.Zero(count)
}
