package repository

import (
	"context"
	"errors"
	"time"

	"herald/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// AnnouncementRepository defines the store operations of the announcement board.
type AnnouncementRepository interface {
	// Save inserts a new announcement detail row. The counter row is not
	// created here; a missing counter reads as zero comments.
	Save(ctx context.Context, announcement *models.Announcement) error
	// FetchOne returns one announcement with its comment count joined in,
	// or nil when no such announcement exists.
	FetchOne(ctx context.Context, authorID uuid.UUID, creationTime time.Time) (*models.Announcement, error)
	// FetchAll runs one bounded-concurrency range fetch per author. The map
	// holds the per-author lower creation time bound.
	FetchAll(ctx context.Context, partitions map[uuid.UUID]time.Time) ([]*models.Announcement, error)
	// SaveComment appends a comment using the counter-then-detail sequence,
	// compensating the counter if the detail insert fails.
	SaveComment(ctx context.Context, comment *models.Comment) error
}

// FetchOptions tune the fan-out fetch behavior.
type FetchOptions struct {
	// MaxConcurrent caps the number of in-flight (detail, counter) request
	// pairs. Defaults to 100.
	MaxConcurrent int
	// Timeout bounds one whole batch fetch. Defaults to 3 seconds.
	Timeout time.Duration
	// PartialResults degrades a per-author failure to an omission instead of
	// failing the whole batch.
	PartialResults bool
}

type announcementRepository struct {
	db     *gorm.DB
	fanout *fanoutFetcher
}

// NewAnnouncementRepository creates a new AnnouncementRepository.
func NewAnnouncementRepository(db *gorm.DB, opts FetchOptions) AnnouncementRepository {
	if opts.MaxConcurrent <= 0 {
		opts.MaxConcurrent = 100
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 3 * time.Second
	}

	r := &announcementRepository{db: db}
	r.fanout = &fanoutFetcher{
		maxConcurrent:  opts.MaxConcurrent,
		timeout:        opts.Timeout,
		partialResults: opts.PartialResults,
		fetchAuthor:    r.fetchAuthor,
	}
	return r
}

func (r *announcementRepository) Save(ctx context.Context, announcement *models.Announcement) error {
	return r.db.WithContext(ctx).Create(announcement).Error
}

func (r *announcementRepository) FetchOne(ctx context.Context, authorID uuid.UUID, creationTime time.Time) (*models.Announcement, error) {
	var announcement models.Announcement
	err := r.db.WithContext(ctx).
		Where("author_id = ? AND creation_time = ?", authorID, creationTime).
		First(&announcement).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	count, err := r.readCounter(ctx, authorID, creationTime)
	if err != nil {
		return nil, err
	}
	announcement.CommentsCount = count
	return &announcement, nil
}

func (r *announcementRepository) FetchAll(ctx context.Context, partitions map[uuid.UUID]time.Time) ([]*models.Announcement, error) {
	return r.fanout.fetchAll(ctx, partitions)
}

// fetchAuthor runs one (detail, counter) request pair: the counter range
// scan is issued asynchronously alongside the detail range scan, then the
// counts are joined into the detail rows by composite key. A detail row
// with no counter row gets a zero count.
func (r *announcementRepository) fetchAuthor(ctx context.Context, authorID uuid.UUID, oldest time.Time) ([]*models.Announcement, error) {
	type counterScan struct {
		counters []models.CommentsCounter
		err      error
	}
	countersCh := make(chan counterScan, 1)

	go func() {
		var counters []models.CommentsCounter
		err := r.db.WithContext(ctx).
			Where("announcement_author_id = ? AND announcement_creation_time >= ?", authorID, oldest).
			Find(&counters).Error
		countersCh <- counterScan{counters: counters, err: err}
	}()

	var announcements []*models.Announcement
	detailErr := r.db.WithContext(ctx).
		Where("author_id = ? AND creation_time >= ?", authorID, oldest).
		Order("creation_time DESC").
		Find(&announcements).Error

	counters := <-countersCh
	if detailErr != nil {
		return nil, detailErr
	}
	if counters.err != nil {
		return nil, counters.err
	}

	counts := make(map[string]int64, len(counters.counters))
	for i := range counters.counters {
		c := &counters.counters[i]
		counts[c.Key()] = c.Count
	}
	for _, a := range announcements {
		a.CommentsCount = counts[a.Key()]
	}
	return announcements, nil
}
