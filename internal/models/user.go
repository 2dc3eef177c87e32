package models

import "github.com/google/uuid"

// User is a local projection of the user service's registry, kept fresh by
// the user-registered event listener. The board never owns user records.
type User struct {
	ID       uuid.UUID `gorm:"primaryKey;type:uuid" json:"id"`
	Nickname string    `json:"nickname"`
	Name     string    `json:"name"`
	Surname  string    `json:"surname"`
}

// TableName sets the table name for the User model.
func (User) TableName() string {
	return "users"
}
