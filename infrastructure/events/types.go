// Package events defines the collection event envelope written to Redis Streams.
package events

import (
	"time"

	"github.com/google/uuid"
)

// StreamName is the Redis stream collection events are appended to.
const StreamName = "urlcollector:events"

// EventType represents the type of collection event.
type EventType string

const (
	// CollectionCompleted is emitted after a successful merge.
	CollectionCompleted EventType = "COLLECTION_COMPLETED"
	// CollectionFailed is emitted when a collection produced an error result.
	CollectionFailed EventType = "COLLECTION_FAILED"
)

// CollectionEvent is the envelope for every event on StreamName.
type CollectionEvent struct {
	EventID    uuid.UUID `json:"event_id"`
	EventType  EventType `json:"event_type"`
	CompanyKey string    `json:"company_key"`
	Timestamp  time.Time `json:"timestamp"`
	Payload    any       `json:"payload"`
}

// CompletedPayload carries the counts of a successful collection.
type CompletedPayload struct {
	Company         string   `json:"company"`
	Duration        string   `json:"duration"`
	NewURLsFound    int      `json:"new_urls_found"`
	TotalURLsStored int      `json:"total_urls_stored"`
	FirstParty      int      `json:"first_party"`
	Relevant        int      `json:"relevant"`
	NewURLs         []string `json:"new_urls"`
}

// FailedPayload describes why a collection failed.
type FailedPayload struct {
	Company   string `json:"company"`
	Duration  string `json:"duration"`
	ErrorKind string `json:"error_kind"`
	Error     string `json:"error"`
}
