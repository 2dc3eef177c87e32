// Package service contains the announcement board's application services.
package service

import (
	"context"
	"log/slog"
	"sort"
	"time"

	"herald/internal/cache"
	"herald/internal/models"
	"herald/internal/observability"
	"herald/internal/repository"

	"github.com/google/uuid"
)

// Event destinations on the bus.
const (
	DestinationAnnouncementPublished = "announcement-published"
	DestinationAnnouncementCommented = "announcement-commented"
)

// EventPublisher ships domain events to the bus, fire and forget.
type EventPublisher interface {
	Publish(ctx context.Context, destination string, payload any) error
}

// Envelope addresses an event payload to a set of recipients.
type Envelope struct {
	Recipients []uuid.UUID `json:"recipients"`
	Payload    any         `json:"payload"`
}

// AnnouncementCommented is the payload of the announcement-commented event.
type AnnouncementCommented struct {
	AnnouncementAuthorID     uuid.UUID       `json:"announcementAuthorId"`
	AnnouncementCreationTime time.Time       `json:"announcementCreationTime"`
	Comment                  *models.Comment `json:"comment"`
}

// BoardService coordinates the cache, the stores and the event bus behind
// the board's three operations.
type BoardService struct {
	repo      repository.AnnouncementRepository
	cache     cache.AnnouncementCache
	fetchUser func(ctx context.Context, id uuid.UUID) (*models.User, error)
	events    EventPublisher
}

// PlaceCommentInput carries one comment placement request.
type PlaceCommentInput struct {
	CommentAuthorID          uuid.UUID
	Content                  string
	AnnouncementAuthorID     uuid.UUID
	AnnouncementCreationTime time.Time
}

// NewBoardService creates a new BoardService. events may be nil when the
// bus is not configured.
func NewBoardService(
	repo repository.AnnouncementRepository,
	announcementCache cache.AnnouncementCache,
	fetchUser func(ctx context.Context, id uuid.UUID) (*models.User, error),
	events EventPublisher,
) *BoardService {
	return &BoardService{
		repo:      repo,
		cache:     announcementCache,
		fetchUser: fetchUser,
		events:    events,
	}
}

// FetchAll resolves a batch of announcement queries cache-first and returns
// one result per author, announcements ordered ascending by creation time.
// Authors with no announcements are omitted. The caller cannot tell which
// announcements came from the cache and which from the stores.
func (s *BoardService) FetchAll(ctx context.Context, queries []models.AnnouncementQuery) ([]models.QueryResult, error) {
	start := time.Now()
	defer func() {
		observability.FetchBatchLatency.Observe(time.Since(start).Seconds())
	}()

	cached := s.cacheLookup(ctx, queries)
	observability.CacheHits.Add(float64(len(cached)))

	residual := make([]models.AnnouncementQuery, 0, len(queries))
	for _, q := range queries {
		if _, ok := cached[q.Key()]; !ok {
			residual = append(residual, q)
		}
	}
	observability.CacheMisses.Add(float64(len(residual)))

	partitions := repository.PartitionQueries(residual)
	fetched, err := s.repo.FetchAll(ctx, partitions)
	if err != nil {
		return nil, err
	}

	// Repopulating the cache is a best-effort refresh, never required for
	// the correctness of the response.
	if len(fetched) > 0 {
		if err := s.cache.SaveAll(ctx, fetched); err != nil {
			observability.Logger.WarnContext(ctx, "cache refresh failed",
				slog.Int("announcements", len(fetched)),
				slog.String("error", err.Error()),
			)
		}
	}

	return assembleResults(cached, fetched), nil
}

// cacheLookup returns the cache hits keyed by composite identity. Cache
// errors degrade to a full miss; the stores remain authoritative.
func (s *BoardService) cacheLookup(ctx context.Context, queries []models.AnnouncementQuery) map[string]*models.Announcement {
	hits, err := s.cache.Get(ctx, queries)
	if err != nil {
		observability.Logger.WarnContext(ctx, "cache lookup failed",
			slog.Int("queries", len(queries)),
			slog.String("error", err.Error()),
		)
		return nil
	}
	cached := make(map[string]*models.Announcement, len(hits))
	for _, a := range hits {
		cached[a.Key()] = a
	}
	return cached
}

// assembleResults unions cached and fetched announcements, collapsing
// duplicates by identity, then groups by author and sorts each group
// ascending by creation time.
func assembleResults(cached map[string]*models.Announcement, fetched []*models.Announcement) []models.QueryResult {
	byKey := make(map[string]*models.Announcement, len(cached)+len(fetched))
	for k, a := range cached {
		byKey[k] = a
	}
	for _, a := range fetched {
		if _, ok := byKey[a.Key()]; !ok {
			byKey[a.Key()] = a
		}
	}

	byAuthor := make(map[uuid.UUID][]*models.Announcement)
	for _, a := range byKey {
		byAuthor[a.AuthorID] = append(byAuthor[a.AuthorID], a)
	}

	results := make([]models.QueryResult, 0, len(byAuthor))
	for authorID, announcements := range byAuthor {
		sort.Slice(announcements, func(i, j int) bool {
			return announcements[i].CreationTime.Before(announcements[j].CreationTime)
		})
		results = append(results, models.QueryResult{
			AuthorID:      authorID,
			Announcements: announcements,
		})
	}
	return results
}

// Publish creates a new announcement for an existing user. The new entry is
// written to the detail store only: its count starts at zero and it is not
// cached until the first read-through.
func (s *BoardService) Publish(ctx context.Context, authorID uuid.UUID, content string) (*models.Announcement, error) {
	if content == "" {
		return nil, models.NewValidationError("Content is required")
	}

	author, err := s.fetchUser(ctx, authorID)
	if err != nil {
		return nil, err
	}
	if author == nil {
		return nil, models.NewNotFoundError("user", authorID)
	}

	announcement := &models.Announcement{
		AuthorID:     authorID,
		CreationTime: time.Now().UTC().Truncate(time.Millisecond),
		Content:      content,
	}
	if err := s.repo.Save(ctx, announcement); err != nil {
		return nil, models.NewInternalError(err)
	}

	s.publishEvent(ctx, DestinationAnnouncementPublished, announcement)

	return announcement, nil
}

// PlaceComment appends a comment to an existing announcement. On success
// the counter store reflects exactly one more comment and one new detail
// row exists. The parent's cache entry is left stale on purpose; it catches
// up on the next read-through.
func (s *BoardService) PlaceComment(ctx context.Context, in PlaceCommentInput) error {
	if in.Content == "" {
		return models.NewValidationError("Content is required")
	}

	commenter, err := s.fetchUser(ctx, in.CommentAuthorID)
	if err != nil {
		return err
	}
	if commenter == nil {
		return models.NewNotFoundError("user", in.CommentAuthorID)
	}

	announcement, err := s.repo.FetchOne(ctx, in.AnnouncementAuthorID, in.AnnouncementCreationTime)
	if err != nil {
		return models.NewInternalError(err)
	}
	if announcement == nil {
		return models.NewNotFoundError("announcement",
			models.AnnouncementKey(in.AnnouncementAuthorID, in.AnnouncementCreationTime))
	}

	comment := &models.Comment{
		AnnouncementAuthorID:     announcement.AuthorID,
		AnnouncementCreationTime: announcement.CreationTime,
		AuthorID:                 in.CommentAuthorID,
		AuthorNickname:           commenter.Nickname,
		Content:                  in.Content,
		CreationTime:             time.Now().UTC().Truncate(time.Millisecond),
	}
	if err := s.repo.SaveComment(ctx, comment); err != nil {
		return err
	}

	s.publishEvent(ctx, DestinationAnnouncementCommented, Envelope{
		Recipients: []uuid.UUID{announcement.AuthorID},
		Payload: AnnouncementCommented{
			AnnouncementAuthorID:     announcement.AuthorID,
			AnnouncementCreationTime: announcement.CreationTime,
			Comment:                  comment,
		},
	})

	return nil
}

// publishEvent ships an event without delivery confirmation; failures are
// logged and dropped.
func (s *BoardService) publishEvent(ctx context.Context, destination string, payload any) {
	if s.events == nil {
		return
	}
	if err := s.events.Publish(ctx, destination, payload); err != nil {
		observability.Logger.WarnContext(ctx, "event publication failed",
			slog.String("destination", destination),
			slog.String("error", err.Error()),
		)
	}
}
