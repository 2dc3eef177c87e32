package repository

import (
	"context"
	"testing"
	"time"

	"herald/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func setupMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	gormDB, err := gorm.Open(postgres.New(postgres.Config{
		Conn: db,
	}), &gorm.Config{})
	require.NoError(t, err)

	return gormDB, mock
}

func TestAnnouncementRepository_Save(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewAnnouncementRepository(db, FetchOptions{})
	ctx := context.Background()

	announcement := &models.Announcement{
		AuthorID:     uuid.New(),
		CreationTime: time.UnixMilli(1_700_000_000_000).UTC(),
		Content:      "board is live",
	}

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO "announcements"`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := repo.Save(ctx, announcement)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAnnouncementRepository_FetchOne(t *testing.T) {
	ctx := context.Background()
	authorID := uuid.New()
	creationTime := time.UnixMilli(1_700_000_000_000).UTC()

	t.Run("joins counter into the detail row", func(t *testing.T) {
		db, mock := setupMockDB(t)
		repo := NewAnnouncementRepository(db, FetchOptions{})

		mock.ExpectQuery(`SELECT \* FROM "announcements" WHERE author_id`).
			WithArgs(authorID, creationTime, 1).
			WillReturnRows(sqlmock.NewRows([]string{"author_id", "creation_time", "content"}).
				AddRow(authorID, creationTime, "hello"))
		mock.ExpectQuery(`SELECT \* FROM "comments_count" WHERE announcement_author_id`).
			WithArgs(authorID, creationTime, 1).
			WillReturnRows(sqlmock.NewRows([]string{"announcement_author_id", "announcement_creation_time", "count"}).
				AddRow(authorID, creationTime, 7))

		announcement, err := repo.FetchOne(ctx, authorID, creationTime)
		require.NoError(t, err)
		require.NotNil(t, announcement)
		assert.Equal(t, "hello", announcement.Content)
		assert.Equal(t, int64(7), announcement.CommentsCount)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("missing counter row reads as zero", func(t *testing.T) {
		db, mock := setupMockDB(t)
		repo := NewAnnouncementRepository(db, FetchOptions{})

		mock.ExpectQuery(`SELECT \* FROM "announcements" WHERE author_id`).
			WithArgs(authorID, creationTime, 1).
			WillReturnRows(sqlmock.NewRows([]string{"author_id", "creation_time", "content"}).
				AddRow(authorID, creationTime, "hello"))
		mock.ExpectQuery(`SELECT \* FROM "comments_count" WHERE announcement_author_id`).
			WithArgs(authorID, creationTime, 1).
			WillReturnRows(sqlmock.NewRows([]string{"announcement_author_id", "announcement_creation_time", "count"}))

		announcement, err := repo.FetchOne(ctx, authorID, creationTime)
		require.NoError(t, err)
		require.NotNil(t, announcement)
		assert.Equal(t, int64(0), announcement.CommentsCount)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("absent announcement returns nil", func(t *testing.T) {
		db, mock := setupMockDB(t)
		repo := NewAnnouncementRepository(db, FetchOptions{})

		mock.ExpectQuery(`SELECT \* FROM "announcements" WHERE author_id`).
			WithArgs(authorID, creationTime, 1).
			WillReturnRows(sqlmock.NewRows([]string{"author_id", "creation_time", "content"}))

		announcement, err := repo.FetchOne(ctx, authorID, creationTime)
		require.NoError(t, err)
		assert.Nil(t, announcement)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestAnnouncementRepository_FetchAuthor_JoinsCounters(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewAnnouncementRepository(db, FetchOptions{}).(*announcementRepository)
	ctx := context.Background()

	authorID := uuid.New()
	oldest := time.UnixMilli(1_700_000_000_000).UTC()
	newer := oldest.Add(time.Hour)

	// The detail and counter scans run concurrently.
	mock.MatchExpectationsInOrder(false)
	mock.ExpectQuery(`SELECT \* FROM "announcements" WHERE author_id`).
		WithArgs(authorID, oldest).
		WillReturnRows(sqlmock.NewRows([]string{"author_id", "creation_time", "content"}).
			AddRow(authorID, newer, "second").
			AddRow(authorID, oldest, "first"))
	mock.ExpectQuery(`SELECT \* FROM "comments_count" WHERE announcement_author_id`).
		WithArgs(authorID, oldest).
		WillReturnRows(sqlmock.NewRows([]string{"announcement_author_id", "announcement_creation_time", "count"}).
			AddRow(authorID, newer, 3))

	announcements, err := repo.fetchAuthor(ctx, authorID, oldest)
	require.NoError(t, err)
	require.Len(t, announcements, 2)
	assert.Equal(t, int64(3), announcements[0].CommentsCount)
	assert.Equal(t, int64(0), announcements[1].CommentsCount)
	assert.NoError(t, mock.ExpectationsWereMet())
}
