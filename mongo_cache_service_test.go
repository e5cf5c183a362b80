package restblog

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/mongo"
)

type mockRepository[T Document] struct {
	mock.Mock
}

func (m *mockRepository[T]) result(args mock.Arguments) (T, error) {
	var zero T
	if doc, ok := args.Get(0).(T); ok {
		return doc, args.Error(1)
	}
	return zero, args.Error(1)
}

func (m *mockRepository[T]) FindById(ctx context.Context, id interface{}) (T, error) {
	return m.result(m.Called(ctx, id))
}

func (m *mockRepository[T]) FindAll(ctx context.Context, options ...interface{}) ([]T, error) {
	args := m.Called(ctx, options)
	docs, _ := args.Get(0).([]T)
	return docs, args.Error(1)
}

func (m *mockRepository[T]) Save(ctx context.Context, doc T) error {
	return m.Called(ctx, doc).Error(0)
}

func (m *mockRepository[T]) SaveOrUpdate(ctx context.Context, doc T) error {
	return m.Called(ctx, doc).Error(0)
}

func (m *mockRepository[T]) UpdateFields(ctx context.Context, id interface{}, fields map[string]interface{}) (T, error) {
	return m.result(m.Called(ctx, id, fields))
}

func (m *mockRepository[T]) Increment(ctx context.Context, id interface{}, field string, delta int64) (T, error) {
	return m.result(m.Called(ctx, id, field, delta))
}

func (m *mockRepository[T]) Delete(ctx context.Context, id interface{}) error {
	return m.Called(ctx, id).Error(0)
}

func (m *mockRepository[T]) DeleteBy(ctx context.Context, field string, value interface{}) (int64, error) {
	args := m.Called(ctx, field, value)
	return args.Get(0).(int64), args.Error(1)
}

func TestMongoCacheService_GetErrors(t *testing.T) {
	ctx := context.Background()

	t.Run("missing document is a miss", func(t *testing.T) {
		entries := new(mockRepository[CacheEntry])
		entries.On("FindById", mock.Anything, "k").Return(nil, mongo.ErrNoDocuments)
		service := NewMongoCacheService(entries, new(mockRepository[CacheGeneration]))

		got, err := service.Get(ctx, "k")
		assert.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("other failures are returned", func(t *testing.T) {
		entries := new(mockRepository[CacheEntry])
		entries.On("FindById", mock.Anything, "k").Return(nil, context.DeadlineExceeded)
		service := NewMongoCacheService(entries, new(mockRepository[CacheGeneration]))

		got, err := service.Get(ctx, "k")
		assert.True(t, errors.Is(err, context.DeadlineExceeded))
		assert.Nil(t, got)
	})
}

func TestMongoCacheService_InvalidateBumpsGeneration(t *testing.T) {
	ctx := context.Background()
	entries := new(mockRepository[CacheEntry])
	generations := new(mockRepository[CacheGeneration])
	service := NewMongoCacheService(entries, generations)

	generations.On("Increment", mock.Anything, "posts", "generation", int64(1)).
		Return(CacheGeneration{Tag: "posts", Generation: 1}, nil)
	entries.On("DeleteBy", mock.Anything, "tags", "posts").Return(int64(2), nil)

	require.NoError(t, service.Invalidate(ctx, "posts"))
	generations.AssertExpectations(t)
	entries.AssertExpectations(t)
}

func setupMongoCache(t *testing.T) *MongoCacheService {
	db := setupTestContainer(t, "test_cache_db")
	return NewMongoCacheService(NewMongoRepository[CacheEntry](db), NewMongoRepository[CacheGeneration](db))
}

func TestMongoCacheService(t *testing.T) {
	service := setupMongoCache(t)
	ctx := context.Background()

	t.Run("set and get", func(t *testing.T) {
		err := service.Set(ctx, "m-key", []byte("m-val"), []string{"t1"}, time.Minute)
		assert.NoError(t, err)

		got, err := service.Get(ctx, "m-key")
		assert.NoError(t, err)
		assert.Equal(t, []byte("m-val"), got)
	})

	t.Run("set overwrites", func(t *testing.T) {
		assert.NoError(t, service.Set(ctx, "over", []byte("one"), nil, time.Minute))
		assert.NoError(t, service.Set(ctx, "over", []byte("two"), nil, time.Minute))

		got, err := service.Get(ctx, "over")
		assert.NoError(t, err)
		assert.Equal(t, []byte("two"), got)
	})

	t.Run("miss", func(t *testing.T) {
		got, err := service.Get(ctx, "never-set")
		assert.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("expired entries are misses", func(t *testing.T) {
		assert.NoError(t, service.Set(ctx, "old", []byte("stale"), nil, -time.Minute))

		got, err := service.Get(ctx, "old")
		assert.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("invalidate by tag", func(t *testing.T) {
		assert.NoError(t, service.Set(ctx, "mk1", []byte("mv1"), []string{"tag1"}, time.Minute))
		assert.NoError(t, service.Set(ctx, "mk2", []byte("mv2"), []string{"tag2"}, time.Minute))

		assert.NoError(t, service.Invalidate(ctx, "tag1"))

		got1, err := service.Get(ctx, "mk1")
		assert.NoError(t, err)
		assert.Nil(t, got1)

		got2, err := service.Get(ctx, "mk2")
		assert.NoError(t, err)
		assert.Equal(t, []byte("mv2"), got2)
	})

	t.Run("generation counts invalidations", func(t *testing.T) {
		before, err := service.Generation(ctx, "gen-tag")
		require.NoError(t, err)
		assert.Equal(t, int64(0), before)

		require.NoError(t, service.Invalidate(ctx, "gen-tag"))
		require.NoError(t, service.Invalidate(ctx, "gen-tag"))

		after, err := service.Generation(ctx, "gen-tag", "untouched")
		require.NoError(t, err)
		assert.Equal(t, int64(2), after)
	})

	t.Run("delete", func(t *testing.T) {
		require.NoError(t, service.Set(ctx, "del", []byte("x"), nil, time.Minute))
		require.NoError(t, service.Delete(ctx, "del"))
		require.NoError(t, service.Delete(ctx, "del"))

		got, err := service.Get(ctx, "del")
		assert.NoError(t, err)
		assert.Nil(t, got)
	})
}
