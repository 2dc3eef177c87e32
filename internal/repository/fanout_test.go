package repository

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"herald/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func somePartitions(n int) map[uuid.UUID]time.Time {
	partitions := make(map[uuid.UUID]time.Time, n)
	for i := 0; i < n; i++ {
		partitions[uuid.New()] = time.UnixMilli(int64(i * 1000)).UTC()
	}
	return partitions
}

func TestFanoutFetcher_RespectsConcurrencyCeiling(t *testing.T) {
	t.Parallel()

	const ceiling = 3
	var inFlight, maxInFlight int64

	fetcher := &fanoutFetcher{
		maxConcurrent: ceiling,
		timeout:       time.Second,
		fetchAuthor: func(ctx context.Context, authorID uuid.UUID, oldest time.Time) ([]*models.Announcement, error) {
			current := atomic.AddInt64(&inFlight, 1)
			for {
				observed := atomic.LoadInt64(&maxInFlight)
				if current <= observed || atomic.CompareAndSwapInt64(&maxInFlight, observed, current) {
					break
				}
			}
			time.Sleep(5 * time.Millisecond)
			atomic.AddInt64(&inFlight, -1)
			return []*models.Announcement{{AuthorID: authorID, CreationTime: oldest}}, nil
		},
	}

	all, err := fetcher.fetchAll(context.Background(), somePartitions(20))
	require.NoError(t, err)
	assert.Len(t, all, 20)
	assert.LessOrEqual(t, atomic.LoadInt64(&maxInFlight), int64(ceiling))
}

func TestFanoutFetcher_EmptyPartitionsShortCircuits(t *testing.T) {
	t.Parallel()

	fetcher := &fanoutFetcher{
		maxConcurrent: 10,
		timeout:       time.Second,
		fetchAuthor: func(context.Context, uuid.UUID, time.Time) ([]*models.Announcement, error) {
			t.Error("fetchAuthor must not be called for an empty partition map")
			return nil, nil
		},
	}

	all, err := fetcher.fetchAll(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestFanoutFetcher_FailurePolicy(t *testing.T) {
	t.Parallel()

	partitions := somePartitions(5)
	var failing uuid.UUID
	for authorID := range partitions {
		failing = authorID
		break
	}
	storeErr := errors.New("store unavailable")

	fetchAuthor := func(ctx context.Context, authorID uuid.UUID, oldest time.Time) ([]*models.Announcement, error) {
		if authorID == failing {
			return nil, storeErr
		}
		return []*models.Announcement{{AuthorID: authorID, CreationTime: oldest}}, nil
	}

	t.Run("one failed author fails the whole batch", func(t *testing.T) {
		t.Parallel()
		fetcher := &fanoutFetcher{
			maxConcurrent: 2,
			timeout:       time.Second,
			fetchAuthor:   fetchAuthor,
		}

		all, err := fetcher.fetchAll(context.Background(), partitions)
		require.Error(t, err)
		assert.True(t, models.HasCode(err, models.CodeFetchFailure))
		assert.ErrorIs(t, err, storeErr)
		assert.Nil(t, all)
	})

	t.Run("partial results omit the failed author", func(t *testing.T) {
		t.Parallel()
		fetcher := &fanoutFetcher{
			maxConcurrent:  2,
			timeout:        time.Second,
			partialResults: true,
			fetchAuthor:    fetchAuthor,
		}

		all, err := fetcher.fetchAll(context.Background(), partitions)
		require.NoError(t, err)
		assert.Len(t, all, 4)
		for _, a := range all {
			assert.NotEqual(t, failing, a.AuthorID)
		}
	})
}

func TestFanoutFetcher_CollectsEveryAuthor(t *testing.T) {
	t.Parallel()

	partitions := somePartitions(8)

	var mu sync.Mutex
	called := make(map[uuid.UUID]time.Time)

	fetcher := &fanoutFetcher{
		maxConcurrent: 4,
		timeout:       time.Second,
		fetchAuthor: func(ctx context.Context, authorID uuid.UUID, oldest time.Time) ([]*models.Announcement, error) {
			mu.Lock()
			called[authorID] = oldest
			mu.Unlock()
			return []*models.Announcement{
				{AuthorID: authorID, CreationTime: oldest},
				{AuthorID: authorID, CreationTime: oldest.Add(time.Minute)},
			}, nil
		},
	}

	all, err := fetcher.fetchAll(context.Background(), partitions)
	require.NoError(t, err)
	assert.Len(t, all, 16)
	assert.Equal(t, partitions, called)
}
