// Package events publishes collection lifecycle events to Redis Streams.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	infraevents "github.com/jonesrussell/company-url-collector/infrastructure/events"
	infralogger "github.com/jonesrussell/company-url-collector/infrastructure/logger"
	"github.com/jonesrussell/company-url-collector/internal/domain"
)

// asyncPublishTimeout bounds PublishAsync.
const asyncPublishTimeout = 5 * time.Second

// HookName identifies the publisher among post-collection hooks.
const HookName = "events"

// Publisher appends collection events to infraevents.StreamName.
type Publisher struct {
	client redis.Cmdable
	stream string
	log    infralogger.Logger
}

// NewPublisher returns nil if client is nil; a nil Publisher is a no-op.
func NewPublisher(client redis.Cmdable, log infralogger.Logger) *Publisher {
	if client == nil {
		return nil
	}
	if log == nil {
		log = infralogger.NewNop()
	}
	return &Publisher{
		client: client,
		stream: infraevents.StreamName,
		log:    log,
	}
}

// Publish appends event to the stream, filling in a missing ID and
// timestamp.
func (p *Publisher) Publish(ctx context.Context, event infraevents.CollectionEvent) error {
	if p == nil || p.client == nil {
		return nil
	}

	if event.EventID == uuid.Nil {
		event.EventID = uuid.New()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	result := p.client.XAdd(ctx, &redis.XAddArgs{
		Stream: p.stream,
		Values: map[string]any{
			"event": string(payload),
		},
	})
	if err = result.Err(); err != nil {
		return fmt.Errorf("publish to stream: %w", err)
	}

	p.log.Debug("Published collection event",
		infralogger.String("event_type", string(event.EventType)),
		infralogger.String("company_key", event.CompanyKey),
		infralogger.String("stream_id", result.Val()))
	return nil
}

// PublishAsync publishes in the background. Errors are logged.
func (p *Publisher) PublishAsync(event infraevents.CollectionEvent) {
	if p == nil {
		return
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), asyncPublishTimeout)
		defer cancel()

		if err := p.Publish(ctx, event); err != nil {
			p.log.Error("Async publish failed",
				infralogger.String("event_type", string(event.EventType)),
				infralogger.String("company_key", event.CompanyKey),
				infralogger.Error(err))
		}
	}()
}

// Name implements collector.Hook.
func (p *Publisher) Name() string {
	return HookName
}

// AfterCollect implements collector.Hook by publishing the event for res.
func (p *Publisher) AfterCollect(ctx context.Context, res domain.CollectionResult) error {
	return p.Publish(ctx, NewCollectionEvent(res))
}

// NewCollectionEvent builds the event describing res.
func NewCollectionEvent(res domain.CollectionResult) infraevents.CollectionEvent {
	event := infraevents.CollectionEvent{
		EventID:    uuid.New(),
		CompanyKey: domain.CompanyKey(res.Company),
		Timestamp:  time.Now().UTC(),
	}

	if !res.Success || res.Summary == nil {
		event.EventType = infraevents.CollectionFailed
		event.Payload = infraevents.FailedPayload{
			Company:   res.Company,
			Duration:  string(res.Duration),
			ErrorKind: string(res.ErrorKind),
			Error:     res.Error,
		}
		return event
	}

	newURLs := make([]string, 0, len(res.NewURLs))
	for _, r := range res.NewURLs {
		newURLs = append(newURLs, r.URL)
	}

	event.EventType = infraevents.CollectionCompleted
	event.Payload = infraevents.CompletedPayload{
		Company:         res.Company,
		Duration:        string(res.Duration),
		NewURLsFound:    res.NewURLsFound,
		TotalURLsStored: res.TotalURLsStored,
		FirstParty:      res.FirstPartyCount,
		Relevant:        res.RelevantCount,
		NewURLs:         newURLs,
	}
	return event
}
