package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"herald/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func someComment() *models.Comment {
	return &models.Comment{
		AnnouncementAuthorID:     uuid.New(),
		AnnouncementCreationTime: time.UnixMilli(1_700_000_000_000).UTC(),
		AuthorID:                 uuid.New(),
		CreationTime:             time.UnixMilli(1_700_000_060_000).UTC(),
		AuthorNickname:           "annie",
		Content:                  "nice one",
	}
}

func TestSaveComment(t *testing.T) {
	ctx := context.Background()

	t.Run("increments the counter then inserts the detail row", func(t *testing.T) {
		db, mock := setupMockDB(t)
		repo := NewAnnouncementRepository(db, FetchOptions{})
		comment := someComment()

		mock.ExpectExec(`INSERT INTO comments_count`).
			WithArgs(comment.AnnouncementAuthorID, comment.AnnouncementCreationTime).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectBegin()
		mock.ExpectExec(`INSERT INTO "comments"`).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		err := repo.SaveComment(ctx, comment)
		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("unapplied increment aborts with a transient conflict", func(t *testing.T) {
		db, mock := setupMockDB(t)
		repo := NewAnnouncementRepository(db, FetchOptions{})
		comment := someComment()

		mock.ExpectExec(`INSERT INTO comments_count`).
			WithArgs(comment.AnnouncementAuthorID, comment.AnnouncementCreationTime).
			WillReturnResult(sqlmock.NewResult(0, 0))

		err := repo.SaveComment(ctx, comment)
		require.Error(t, err)
		assert.True(t, models.HasCode(err, models.CodeTransientConflict))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("failed insert compensates the counter", func(t *testing.T) {
		db, mock := setupMockDB(t)
		repo := NewAnnouncementRepository(db, FetchOptions{})
		comment := someComment()
		insertErr := errors.New("detail store unavailable")

		mock.ExpectExec(`INSERT INTO comments_count`).
			WithArgs(comment.AnnouncementAuthorID, comment.AnnouncementCreationTime).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectBegin()
		mock.ExpectExec(`INSERT INTO "comments"`).
			WillReturnError(insertErr)
		mock.ExpectRollback()
		mock.ExpectExec(`UPDATE comments_count SET count = count - 1`).
			WithArgs(comment.AnnouncementAuthorID, comment.AnnouncementCreationTime).
			WillReturnResult(sqlmock.NewResult(0, 1))

		err := repo.SaveComment(ctx, comment)
		require.Error(t, err)
		assert.ErrorIs(t, err, insertErr)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("failed compensation still surfaces only the insert failure", func(t *testing.T) {
		db, mock := setupMockDB(t)
		repo := NewAnnouncementRepository(db, FetchOptions{})
		comment := someComment()
		insertErr := errors.New("detail store unavailable")
		decrementErr := errors.New("counter store unavailable")

		mock.ExpectExec(`INSERT INTO comments_count`).
			WithArgs(comment.AnnouncementAuthorID, comment.AnnouncementCreationTime).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectBegin()
		mock.ExpectExec(`INSERT INTO "comments"`).
			WillReturnError(insertErr)
		mock.ExpectRollback()
		mock.ExpectExec(`UPDATE comments_count SET count = count - 1`).
			WithArgs(comment.AnnouncementAuthorID, comment.AnnouncementCreationTime).
			WillReturnError(decrementErr)

		err := repo.SaveComment(ctx, comment)
		require.Error(t, err)
		assert.ErrorIs(t, err, insertErr)
		assert.NotErrorIs(t, err, decrementErr)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
