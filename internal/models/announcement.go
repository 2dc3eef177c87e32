// Package models contains data structures for the application's domain models.
package models

import (
	"strconv"
	"time"

	"github.com/google/uuid"
)

// Announcement is a single board entry. Its identity is the pair
// (AuthorID, CreationTime) with millisecond precision; content never
// changes after publication.
type Announcement struct {
	AuthorID     uuid.UUID `gorm:"primaryKey;type:uuid" json:"authorId"`
	CreationTime time.Time `gorm:"primaryKey;type:timestamptz(3)" json:"creationTime"`
	Content      string    `gorm:"type:text;not null" json:"content"`
	// CommentsCount is not a column of the announcement table; it is joined
	// in from the counter store at read time and may run ahead of the
	// comment rows that actually exist.
	CommentsCount int64 `gorm:"-" json:"commentsCount"`
}

// TableName sets the table name for the Announcement model.
func (Announcement) TableName() string {
	return "announcements"
}

// Key returns the composite identity string shared by the cache and the
// counter join: "authorId:creationTimeEpochMillis".
func (a *Announcement) Key() string {
	return AnnouncementKey(a.AuthorID, a.CreationTime)
}

// AnnouncementKey builds the composite identity string for an announcement.
func AnnouncementKey(authorID uuid.UUID, creationTime time.Time) string {
	return authorID.String() + ":" + strconv.FormatInt(creationTime.UnixMilli(), 10)
}

// CommentsCounter holds the number of comments placed on one announcement.
// It is the source of truth for the count and is updated only through
// conditional increment/decrement statements, never read-modify-write.
type CommentsCounter struct {
	AnnouncementAuthorID     uuid.UUID `gorm:"primaryKey;type:uuid" json:"announcementAuthorId"`
	AnnouncementCreationTime time.Time `gorm:"primaryKey;type:timestamptz(3)" json:"announcementCreationTime"`
	Count                    int64     `gorm:"not null;default:0" json:"count"`
}

// TableName sets the table name for the CommentsCounter model.
func (CommentsCounter) TableName() string {
	return "comments_count"
}

// Key returns the identity string of the announcement this counter belongs to.
func (c *CommentsCounter) Key() string {
	return AnnouncementKey(c.AnnouncementAuthorID, c.AnnouncementCreationTime)
}
