package repository

import (
	"context"
	"errors"
	"time"

	"herald/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Counter rows are only ever touched through single conditional statements;
// the store's atomicity is the sole concurrency control, matching the
// wasApplied contract of a conditional update. Rows affected == 0 means the
// update did not apply.

// incrementCounter bumps the comment counter for an announcement, creating
// the row at 1 for the first comment.
func (r *announcementRepository) incrementCounter(ctx context.Context, authorID uuid.UUID, creationTime time.Time) (bool, error) {
	res := r.db.WithContext(ctx).Exec(
		`INSERT INTO comments_count (announcement_author_id, announcement_creation_time, count)
		 VALUES (?, ?, 1)
		 ON CONFLICT (announcement_author_id, announcement_creation_time)
		 DO UPDATE SET count = comments_count.count + 1`,
		authorID, creationTime,
	)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// decrementCounter reverts one increment. The count > 0 guard keeps a
// double compensation from driving the counter negative.
func (r *announcementRepository) decrementCounter(ctx context.Context, authorID uuid.UUID, creationTime time.Time) (bool, error) {
	res := r.db.WithContext(ctx).Exec(
		`UPDATE comments_count SET count = count - 1
		 WHERE announcement_author_id = ? AND announcement_creation_time = ? AND count > 0`,
		authorID, creationTime,
	)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// readCounter returns the comment count for one announcement, zero when no
// counter row exists.
func (r *announcementRepository) readCounter(ctx context.Context, authorID uuid.UUID, creationTime time.Time) (int64, error) {
	var counter models.CommentsCounter
	err := r.db.WithContext(ctx).
		Where("announcement_author_id = ? AND announcement_creation_time = ?", authorID, creationTime).
		First(&counter).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return counter.Count, nil
}
