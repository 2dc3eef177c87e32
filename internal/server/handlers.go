package server

import (
	"fmt"
	"strconv"
	"time"

	"herald/internal/models"
	"herald/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type publishRequest struct {
	Author  uuid.UUID `json:"author"`
	Content string    `json:"content"`
}

type commentRequest struct {
	AuthorID uuid.UUID `json:"authorId"`
	Content  string    `json:"content"`
}

// handlePublish creates a new announcement and returns 201 with a Location
// header pointing at /v1/announcements/{authorID}/{creationTimeMillis}.
func (s *Server) handlePublish(c *fiber.Ctx) error {
	var req publishRequest
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}
	if req.Author == uuid.Nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("author is required"))
	}

	announcement, err := s.boardService.Publish(c.UserContext(), req.Author, req.Content)
	if err != nil {
		return models.RespondWithError(c, models.StatusForError(err), err)
	}

	location := fmt.Sprintf("/v1/announcements/%s/%d",
		announcement.AuthorID, announcement.CreationTime.UnixMilli())
	c.Set(fiber.HeaderLocation, location)
	return c.Status(fiber.StatusCreated).JSON(announcement)
}

// handlePlaceComment appends a comment to the announcement addressed by the
// path parameters.
func (s *Server) handlePlaceComment(c *fiber.Ctx) error {
	announcementAuthorID, err := uuid.Parse(c.Params("authorID"))
	if err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("invalid announcement author id"))
	}
	millis, err := strconv.ParseInt(c.Params("creationTimeMillis"), 10, 64)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("invalid announcement creation time"))
	}

	var req commentRequest
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}
	if req.AuthorID == uuid.Nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("authorId is required"))
	}

	err = s.boardService.PlaceComment(c.UserContext(), service.PlaceCommentInput{
		CommentAuthorID:          req.AuthorID,
		Content:                  req.Content,
		AnnouncementAuthorID:     announcementAuthorID,
		AnnouncementCreationTime: time.UnixMilli(millis).UTC(),
	})
	if err != nil {
		return models.RespondWithError(c, models.StatusForError(err), err)
	}

	return c.SendStatus(fiber.StatusOK)
}

// handleFetch resolves a batch of announcement queries.
func (s *Server) handleFetch(c *fiber.Ctx) error {
	var queries []models.AnnouncementQuery
	if err := c.BodyParser(&queries); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	results, err := s.boardService.FetchAll(c.UserContext(), queries)
	if err != nil {
		return models.RespondWithError(c, models.StatusForError(err), err)
	}
	if results == nil {
		results = []models.QueryResult{}
	}
	return c.JSON(results)
}
