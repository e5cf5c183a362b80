package restblog

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
)

// CacheService defines the interface for caching operations
type CacheService interface {
	// Set stores a value in the cache with the given key, tags, and duration
	Set(ctx context.Context, key string, data []byte, tags []string, duration time.Duration) error

	// Get retrieves a value from the cache by key. A miss is (nil, nil).
	Get(ctx context.Context, key string) ([]byte, error)

	// Delete removes a single entry. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Generation returns a counter that grows every time one of tags is
	// invalidated. Tags never invalidated count as zero.
	Generation(ctx context.Context, tags ...string) (int64, error)

	// Invalidate bumps the generation of tags, then removes all cache
	// entries associated with them
	Invalidate(ctx context.Context, tags ...string) error
}

// -----------------------------------------------------------------------------
// MongoDB Implementation
// -----------------------------------------------------------------------------

type MongoCacheService struct {
	repo        GenericRepository[CacheEntry]
	generations GenericRepository[CacheGeneration]
}

func NewMongoCacheService(repo GenericRepository[CacheEntry], generations GenericRepository[CacheGeneration]) *MongoCacheService {
	return &MongoCacheService{repo: repo, generations: generations}
}

func (s *MongoCacheService) Set(ctx context.Context, key string, data []byte, tags []string, duration time.Duration) error {
	now := time.Now()

	entry := CacheEntry{
		PK:        key,
		Data:      data,
		Tags:      tags,
		TTL:       now.Add(duration).Unix(),
		CreatedAt: now.Unix(),
	}

	return s.repo.SaveOrUpdate(ctx, entry)
}

func (s *MongoCacheService) Get(ctx context.Context, key string) ([]byte, error) {
	entry, err := s.repo.FindById(ctx, key)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read cache entry: %w", err)
	}

	if entry.IsExpired() {
		_ = s.repo.Delete(ctx, key)
		return nil, nil
	}

	return entry.Data, nil
}

func (s *MongoCacheService) Delete(ctx context.Context, key string) error {
	if err := s.repo.Delete(ctx, key); err != nil && !errors.Is(err, mongo.ErrNoDocuments) {
		return err
	}
	return nil
}

func (s *MongoCacheService) Generation(ctx context.Context, tags ...string) (int64, error) {
	var total int64
	for _, tag := range tags {
		gen, err := s.generations.FindById(ctx, tag)
		if errors.Is(err, mongo.ErrNoDocuments) {
			continue
		}
		if err != nil {
			return 0, fmt.Errorf("read generation of tag %s: %w", tag, err)
		}
		total += gen.Generation
	}
	return total, nil
}

func (s *MongoCacheService) Invalidate(ctx context.Context, tags ...string) error {
	var errs []error
	for _, tag := range tags {
		if _, err := s.generations.Increment(ctx, tag, "generation", 1); err != nil {
			errs = append(errs, fmt.Errorf("bump generation of tag %s: %w", tag, err))
		}
		// {tags: tag} matches every entry whose tags array contains tag
		if _, err := s.repo.DeleteBy(ctx, "tags", tag); err != nil {
			errs = append(errs, fmt.Errorf("invalidate tag %s: %w", tag, err))
		}
	}
	return errors.Join(errs...)
}

// -----------------------------------------------------------------------------
// Redis Implementation
// -----------------------------------------------------------------------------

type RedisCacheService struct {
	client redis.Cmdable
}

func NewRedisCacheService(client redis.Cmdable) *RedisCacheService {
	return &RedisCacheService{client: client}
}

// NewRedisClient accepts either host:port or a redis:// / rediss:// URL.
func NewRedisClient(raw string) (*redis.Client, error) {
	if strings.Contains(raw, "://") {
		opts, err := redis.ParseURL(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid redis url: %w", err)
		}
		return redis.NewClient(opts), nil
	}
	return redis.NewClient(&redis.Options{Addr: raw}), nil
}

func (s *RedisCacheService) Set(ctx context.Context, key string, data []byte, tags []string, duration time.Duration) error {
	cacheKey := CachePartitionPrefix + key
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, cacheKey, data, duration)
		for _, tag := range tags {
			tagKey := TagPartitionPrefix + tag
			pipe.SAdd(ctx, tagKey, cacheKey)
			pipe.Expire(ctx, tagKey, duration)
		}
		return nil
	})
	return err
}

func (s *RedisCacheService) Get(ctx context.Context, key string) ([]byte, error) {
	data, err := s.client.Get(ctx, CachePartitionPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return data, nil
}

func (s *RedisCacheService) Delete(ctx context.Context, key string) error {
	return s.client.Del(ctx, CachePartitionPrefix+key).Err()
}

func (s *RedisCacheService) Generation(ctx context.Context, tags ...string) (int64, error) {
	var total int64
	for _, tag := range tags {
		gen, err := s.client.Get(ctx, GenerationPartitionPrefix+tag).Int64()
		if errors.Is(err, redis.Nil) {
			continue
		}
		if err != nil {
			return 0, fmt.Errorf("read generation of tag %s: %w", tag, err)
		}
		total += gen
	}
	return total, nil
}

func (s *RedisCacheService) Invalidate(ctx context.Context, tags ...string) error {
	for _, tag := range tags {
		if err := s.client.Incr(ctx, GenerationPartitionPrefix+tag).Err(); err != nil {
			return fmt.Errorf("bump generation of tag %s: %w", tag, err)
		}
		tagKey := TagPartitionPrefix + tag
		keys, err := s.client.SMembers(ctx, tagKey).Result()
		if err != nil {
			return fmt.Errorf("invalidate tag %s: %w", tag, err)
		}
		keys = append(keys, tagKey)
		if err := s.client.Del(ctx, keys...).Err(); err != nil {
			return fmt.Errorf("invalidate tag %s: %w", tag, err)
		}
	}
	return nil
}
