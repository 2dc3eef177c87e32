package models

import (
	"time"

	"github.com/google/uuid"
)

// AnnouncementQuery identifies a single announcement, or, in batch form,
// contributes to a per-author lower time bound for a range scan.
type AnnouncementQuery struct {
	AuthorID     uuid.UUID `json:"authorId"`
	CreationTime time.Time `json:"creationTime"`
}

// Key returns the composite identity string of the queried announcement.
func (q AnnouncementQuery) Key() string {
	return AnnouncementKey(q.AuthorID, q.CreationTime)
}

// QueryResult is one author's slice of a batch fetch, announcements ordered
// ascending by creation time.
type QueryResult struct {
	AuthorID      uuid.UUID       `json:"authorId"`
	Announcements []*Announcement `json:"announcements"`
}
