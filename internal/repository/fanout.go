package repository

import (
	"context"
	"log/slog"
	"time"

	"herald/internal/models"
	"herald/internal/observability"

	"github.com/google/uuid"
)

// fanoutFetcher issues one request pair per author and collects the results
// through a FIFO queue of in-flight pairs, never letting more than
// maxConcurrent pairs run at once. The queue is local to one fetchAll call;
// concurrent invocations are fully independent.
type fanoutFetcher struct {
	maxConcurrent  int
	timeout        time.Duration
	partialResults bool
	fetchAuthor    func(ctx context.Context, authorID uuid.UUID, oldest time.Time) ([]*models.Announcement, error)
}

type pairResult struct {
	authorID      uuid.UUID
	announcements []*models.Announcement
	err           error
}

func (f *fanoutFetcher) fetchAll(ctx context.Context, partitions map[uuid.UUID]time.Time) ([]*models.Announcement, error) {
	if len(partitions) == 0 {
		return nil, nil
	}

	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	// FIFO queue of in-flight pairs. Every pair delivers exactly one result
	// on its own 1-buffered channel, so len(ch) > 0 means the head is done
	// and its slot can be reclaimed without blocking.
	queue := make([]chan pairResult, 0, f.maxConcurrent)
	all := make([]*models.Announcement, 0, len(partitions))

	collect := func(ch chan pairResult) error {
		res := <-ch
		if res.err != nil {
			if !f.partialResults {
				return models.NewFetchFailureError(res.err)
			}
			observability.FetchAuthorsOmitted.Inc()
			observability.Logger.WarnContext(ctx, "author omitted from batch fetch",
				slog.String("author_id", res.authorID.String()),
				slog.String("error", res.err.Error()),
			)
			return nil
		}
		all = append(all, res.announcements...)
		return nil
	}

	for authorID, oldest := range partitions {
		ch := make(chan pairResult, 1)
		go func(authorID uuid.UUID, oldest time.Time) {
			announcements, err := f.fetchAuthor(ctx, authorID, oldest)
			ch <- pairResult{authorID: authorID, announcements: announcements, err: err}
		}(authorID, oldest)
		queue = append(queue, ch)

		// Reclaim slots eagerly: drain from the head while the ceiling is
		// reached or the head has already completed.
		for len(queue) > 0 && (len(queue) >= f.maxConcurrent || len(queue[0]) > 0) {
			head := queue[0]
			queue = queue[1:]
			if err := collect(head); err != nil {
				return nil, err
			}
		}
	}

	for len(queue) > 0 {
		head := queue[0]
		queue = queue[1:]
		if err := collect(head); err != nil {
			return nil, err
		}
	}

	return all, nil
}
