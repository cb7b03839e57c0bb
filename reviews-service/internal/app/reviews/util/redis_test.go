package util

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"reviewboard/reviews-service/internal/app/reviews/entity"
)

// ReviewCacheTestSuite тестовый suite для Redis-кеша отзывов
type ReviewCacheTestSuite struct {
	suite.Suite
	miniRedis *miniredis.Miniredis
	client    *redis.Client
	cache     *RedisClient
}

func TestReviewCacheSuite(t *testing.T) {
	suite.Run(t, new(ReviewCacheTestSuite))
}

func (s *ReviewCacheTestSuite) SetupSuite() {
	var err error
	s.miniRedis, err = miniredis.Run()
	require.NoError(s.T(), err)

	s.client = redis.NewClient(&redis.Options{
		Addr: s.miniRedis.Addr(),
	})

	s.cache = NewRedisClientWithConn(s.client, 15*time.Minute)
}

func (s *ReviewCacheTestSuite) SetupTest() {
	s.miniRedis.FlushAll()
}

func (s *ReviewCacheTestSuite) TearDownSuite() {
	s.client.Close()
	s.miniRedis.Close()
}

func (s *ReviewCacheTestSuite) TestSetAndGetReview() {
	ctx := context.Background()
	review := &entity.Review{
		ID:     primitive.NewObjectID(),
		Author: "user-1",
		Target: "user-2",
		Rating: 5,
		Text:   "Excellent",
		Likes:  []string{"user-3"},
	}

	err := s.cache.SetReview(ctx, review)
	s.NoError(err)

	cached, err := s.cache.GetReview(ctx, review.ID.Hex())
	s.NoError(err)
	s.NotNil(cached)
	s.Equal(review.ID, cached.ID)
	s.Equal("user-1", cached.Author)
	s.Equal([]string{"user-3"}, cached.Likes)
}

func (s *ReviewCacheTestSuite) TestGetReview_Miss() {
	ctx := context.Background()

	cached, err := s.cache.GetReview(ctx, primitive.NewObjectID().Hex())

	s.NoError(err)
	s.Nil(cached)
}

func (s *ReviewCacheTestSuite) TestDeleteReview() {
	ctx := context.Background()
	review := &entity.Review{ID: primitive.NewObjectID(), Author: "user-1", Rating: 4}

	err := s.cache.SetReview(ctx, review)
	s.NoError(err)

	err = s.cache.DeleteReview(ctx, review.ID.Hex())
	s.NoError(err)

	cached, err := s.cache.GetReview(ctx, review.ID.Hex())
	s.NoError(err)
	s.Nil(cached)
}

func (s *ReviewCacheTestSuite) TestCacheExpiry() {
	ctx := context.Background()
	review := &entity.Review{ID: primitive.NewObjectID(), Rating: 3}

	err := s.cache.SetReview(ctx, review)
	s.NoError(err)

	s.miniRedis.FastForward(16 * time.Minute)

	cached, err := s.cache.GetReview(ctx, review.ID.Hex())
	s.NoError(err)
	s.Nil(cached)
}
