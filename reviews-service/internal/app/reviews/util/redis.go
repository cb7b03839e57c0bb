package util

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"reviewboard/pkg/metrics"
	"reviewboard/reviews-service/internal/app/reviews/entity"
)

const (
	serviceName     = "reviews-service"
	reviewKeyPrefix = "review:"
)

type RedisClient struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisClient(addr, password string, db int, ttl time.Duration) (*RedisClient, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &RedisClient{client: client, ttl: ttl}, nil
}

// NewRedisClientWithConn оборачивает готовое соединение (для тестов)
func NewRedisClientWithConn(client *redis.Client, ttl time.Duration) *RedisClient {
	return &RedisClient{client: client, ttl: ttl}
}

// SetReview кеширует отзыв по ID
func (r *RedisClient) SetReview(ctx context.Context, review *entity.Review) error {
	timer := metrics.NewRedisTimer(serviceName, metrics.RedisOpSet)
	defer timer.ObserveDuration()

	data, err := json.Marshal(review)
	if err != nil {
		return fmt.Errorf("failed to marshal review: %w", err)
	}

	key := reviewKeyPrefix + review.ID.Hex()
	if err := r.client.Set(ctx, key, data, r.ttl).Err(); err != nil {
		metrics.RecordRedisError(serviceName, metrics.RedisOpSet)
		return fmt.Errorf("failed to set review in cache: %w", err)
	}

	return nil
}

// GetReview возвращает отзыв из кеша или nil при промахе
func (r *RedisClient) GetReview(ctx context.Context, id string) (*entity.Review, error) {
	timer := metrics.NewRedisTimer(serviceName, metrics.RedisOpGet)
	defer timer.ObserveDuration()

	data, err := r.client.Get(ctx, reviewKeyPrefix+id).Bytes()
	if err != nil {
		if err == redis.Nil {
			metrics.RecordCacheMiss(serviceName, "review")
			return nil, nil
		}
		metrics.RecordRedisError(serviceName, metrics.RedisOpGet)
		return nil, fmt.Errorf("failed to get review from cache: %w", err)
	}

	var review entity.Review
	if err := json.Unmarshal(data, &review); err != nil {
		return nil, fmt.Errorf("failed to unmarshal review: %w", err)
	}

	metrics.RecordCacheHit(serviceName, "review")
	return &review, nil
}

// DeleteReview инвалидирует кеш отзыва после записи
func (r *RedisClient) DeleteReview(ctx context.Context, id string) error {
	timer := metrics.NewRedisTimer(serviceName, metrics.RedisOpDel)
	defer timer.ObserveDuration()

	if err := r.client.Del(ctx, reviewKeyPrefix+id).Err(); err != nil {
		metrics.RecordRedisError(serviceName, metrics.RedisOpDel)
		return fmt.Errorf("failed to delete review from cache: %w", err)
	}
	return nil
}

func (r *RedisClient) Close() error {
	return r.client.Close()
}
