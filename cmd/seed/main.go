// Command main seeds the board with fake users and announcements for local development.
package main

import (
	"context"
	"flag"
	"log"
	"time"

	"herald/internal/config"
	"herald/internal/database"
	"herald/internal/models"
	"herald/internal/repository"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/google/uuid"
)

func main() {
	numUsers := flag.Int("users", 20, "Number of users to create")
	numAnnouncements := flag.Int("announcements", 100, "Number of announcements to create")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	gofakeit.Seed(time.Now().UnixNano())
	ctx := context.Background()

	users := repository.NewUserRepository(db)
	announcements := repository.NewAnnouncementRepository(db, repository.FetchOptions{})

	authors := make([]uuid.UUID, 0, *numUsers)
	for i := 0; i < *numUsers; i++ {
		user := &models.User{
			ID:       uuid.New(),
			Nickname: gofakeit.Username(),
			Name:     gofakeit.FirstName(),
			Surname:  gofakeit.LastName(),
		}
		if err := users.Save(ctx, user); err != nil {
			log.Fatalf("Failed to seed user: %v", err)
		}
		authors = append(authors, user.ID)
	}

	for i := 0; i < *numAnnouncements; i++ {
		announcement := &models.Announcement{
			AuthorID: authors[gofakeit.Number(0, len(authors)-1)],
			CreationTime: time.Now().UTC().
				Add(-time.Duration(gofakeit.Number(0, 72)) * time.Hour).
				Truncate(time.Millisecond),
			Content: gofakeit.Paragraph(1, 3, 8, "\n"),
		}
		if err := announcements.Save(ctx, announcement); err != nil {
			log.Fatalf("Failed to seed announcement: %v", err)
		}
	}

	log.Printf("Seeded %d users and %d announcements", *numUsers, *numAnnouncements)
}
