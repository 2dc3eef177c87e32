package repository

import (
	"testing"
	"time"

	"herald/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestPartitionQueries(t *testing.T) {
	t.Parallel()

	alice := uuid.New()
	bob := uuid.New()
	t1 := time.UnixMilli(1000).UTC()
	t2 := time.UnixMilli(2000).UTC()
	t3 := time.UnixMilli(3000).UTC()

	t.Run("empty input yields empty map", func(t *testing.T) {
		t.Parallel()
		assert.Empty(t, PartitionQueries(nil))
		assert.Empty(t, PartitionQueries([]models.AnnouncementQuery{}))
	})

	t.Run("keeps earliest bound per author", func(t *testing.T) {
		t.Parallel()
		partitions := PartitionQueries([]models.AnnouncementQuery{
			{AuthorID: alice, CreationTime: t3},
			{AuthorID: alice, CreationTime: t1},
			{AuthorID: alice, CreationTime: t2},
			{AuthorID: bob, CreationTime: t2},
		})

		assert.Len(t, partitions, 2)
		assert.Equal(t, t1, partitions[alice])
		assert.Equal(t, t2, partitions[bob])
	})

	t.Run("single query maps to its own bound", func(t *testing.T) {
		t.Parallel()
		partitions := PartitionQueries([]models.AnnouncementQuery{
			{AuthorID: bob, CreationTime: t3},
		})

		assert.Equal(t, map[uuid.UUID]time.Time{bob: t3}, partitions)
	})
}
