package repository

import (
	"context"
	"fmt"
	"log/slog"

	"herald/internal/models"
	"herald/internal/observability"
)

// appendState tracks the counter-then-detail comment append. The counter is
// incremented before the detail row is written, so the count read from the
// store is always >= the number of comment rows that actually exist.
type appendState int

const (
	appendNotStarted appendState = iota
	appendCounterIncremented
	appendDetailInserted
	appendCompensationAttempted
)

func (s appendState) String() string {
	switch s {
	case appendCounterIncremented:
		return "counter_incremented"
	case appendDetailInserted:
		return "detail_inserted"
	case appendCompensationAttempted:
		return "compensation_attempted"
	default:
		return "not_started"
	}
}

// SaveComment appends a comment to an existing announcement without a
// cross-row transaction:
//
//  1. conditionally increment the counter row; if the increment did not
//     apply, abort with a transient conflict and write nothing,
//  2. insert the comment detail row,
//  3. on insert failure, decrement the counter back to its prior value.
//
// A failed decrement leaves the counter over-counting by one. There is no
// automatic repair; the inconsistency is logged and counted for operational
// follow-up, and the caller still only sees the insert failure.
//
// The increment is not idempotent; callers must not blindly retry a call
// whose outcome is unknown.
func (r *announcementRepository) SaveComment(ctx context.Context, comment *models.Comment) error {
	state := appendNotStarted

	applied, err := r.incrementCounter(ctx, comment.AnnouncementAuthorID, comment.AnnouncementCreationTime)
	if err != nil {
		return fmt.Errorf("increment comments counter: %w", err)
	}
	if !applied {
		return models.NewTransientConflictError("comments counter update did not apply")
	}
	state = appendCounterIncremented

	insertErr := r.db.WithContext(ctx).Create(comment).Error
	if insertErr == nil {
		state = appendDetailInserted
		observability.Logger.DebugContext(ctx, "comment appended",
			slog.String("state", state.String()),
			slog.String("announcement", models.AnnouncementKey(comment.AnnouncementAuthorID, comment.AnnouncementCreationTime)),
		)
		return nil
	}

	state = appendCompensationAttempted
	reverted, decErr := r.decrementCounter(ctx, comment.AnnouncementAuthorID, comment.AnnouncementCreationTime)
	if decErr != nil || !reverted {
		observability.CounterInconsistencies.Inc()
		logErr := decErr
		if logErr == nil {
			logErr = fmt.Errorf("decrement did not apply")
		}
		observability.Logger.ErrorContext(ctx, "comment counter left inconsistent",
			slog.String("state", state.String()),
			slog.String("announcement", models.AnnouncementKey(comment.AnnouncementAuthorID, comment.AnnouncementCreationTime)),
			slog.String("insert_error", insertErr.Error()),
			slog.String("compensation_error", logErr.Error()),
		)
	} else {
		observability.Logger.WarnContext(ctx, "comment insert failed, counter reverted",
			slog.String("state", state.String()),
			slog.String("announcement", models.AnnouncementKey(comment.AnnouncementAuthorID, comment.AnnouncementCreationTime)),
			slog.String("insert_error", insertErr.Error()),
		)
	}

	return fmt.Errorf("insert comment: %w", insertErr)
}
