package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/mansoorceksport/examcore/internal/domain"
	"github.com/redis/go-redis/v9"
)

const examDetailKeyPrefix = "exam:detail:"

// RedisCacheRepository implements domain.CacheRepository using Redis.
// Exam-by-id is read on every upload authorization, so it sits behind a
// short TTL cache.
type RedisCacheRepository struct {
	client *redis.Client
}

// NewRedisCacheRepository creates a new Redis cache repository
func NewRedisCacheRepository(client *redis.Client) *RedisCacheRepository {
	return &RedisCacheRepository{
		client: client,
	}
}

// SetExam caches an exam with TTL
func (r *RedisCacheRepository) SetExam(ctx context.Context, exam *domain.Exam, ttl time.Duration) error {
	data, err := json.Marshal(exam)
	if err != nil {
		return fmt.Errorf("failed to marshal exam: %w", err)
	}

	if err := r.client.Set(ctx, examDetailKeyPrefix+exam.ID, data, ttl).Err(); err != nil {
		return fmt.Errorf("failed to cache exam: %w", err)
	}
	return nil
}

// GetExam retrieves a cached exam; (nil, nil) on a cache miss
func (r *RedisCacheRepository) GetExam(ctx context.Context, id string) (*domain.Exam, error) {
	data, err := r.client.Get(ctx, examDetailKeyPrefix+id).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get cached exam: %w", err)
	}

	var exam domain.Exam
	if err := json.Unmarshal(data, &exam); err != nil {
		return nil, fmt.Errorf("failed to unmarshal cached exam: %w", err)
	}
	return &exam, nil
}

// InvalidateExam drops a cached exam after a mutation
func (r *RedisCacheRepository) InvalidateExam(ctx context.Context, id string) error {
	return r.client.Del(ctx, examDetailKeyPrefix+id).Err()
}
