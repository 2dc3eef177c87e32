package models

import (
	"time"

	"github.com/google/uuid"
)

// Comment is a reply placed on an existing announcement. The full primary
// key mirrors the store layout: a comment is addressed by the announcement
// it belongs to plus its own author and creation time.
type Comment struct {
	AnnouncementAuthorID     uuid.UUID `gorm:"primaryKey;type:uuid" json:"announcementAuthorId"`
	AnnouncementCreationTime time.Time `gorm:"primaryKey;type:timestamptz(3)" json:"announcementCreationTime"`
	AuthorID                 uuid.UUID `gorm:"primaryKey;type:uuid" json:"authorId"`
	CreationTime             time.Time `gorm:"primaryKey;type:timestamptz(3)" json:"creationTime"`
	AuthorNickname           string    `json:"authorNickname"`
	Content                  string    `gorm:"type:text" json:"content"`
}

// TableName sets the table name for the Comment model.
func (Comment) TableName() string {
	return "comments"
}
