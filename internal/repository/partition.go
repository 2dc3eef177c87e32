// Package repository provides data access layer implementations for the application.
package repository

import (
	"time"

	"herald/internal/models"

	"github.com/google/uuid"
)

// PartitionQueries groups point queries by author and keeps the earliest
// requested creation time per author. One range scan from that bound covers
// every individual timestamp requested for the author. Empty input yields
// an empty map, which short-circuits the fetcher.
func PartitionQueries(queries []models.AnnouncementQuery) map[uuid.UUID]time.Time {
	partitions := make(map[uuid.UUID]time.Time, len(queries))
	for _, q := range queries {
		bound, ok := partitions[q.AuthorID]
		if !ok || q.CreationTime.Before(bound) {
			partitions[q.AuthorID] = q.CreationTime
		}
	}
	return partitions
}
