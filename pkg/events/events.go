// Package events publishes identity change events for downstream consumers such as
// progress analytics. Publishing is best effort: failures are logged and never fail the
// operation that produced the event.
package events

import (
	"context"
	"sync"
	"time"

	"github.com/Gobusters/ectologger"
)

// DefaultTopic is the Kafka topic identity events are published to
const DefaultTopic = "exercise-identity-events"

// EventType names an identity change
type EventType string

const (
	MasterCreated        EventType = "master.created"
	ExerciseLinked       EventType = "exercise.linked"
	ExerciseUnlinked     EventType = "exercise.unlinked"
	ExerciseBulkLinked   EventType = "exercise.bulk_linked"
	ExerciseBulkUnlinked EventType = "exercise.bulk_unlinked"
	ExerciseMigrated     EventType = "exercise.migrated"
)

// IdentityEvent describes a change to an owner's exercise identities
type IdentityEvent struct {
	EventType EventType `json:"event_type"`
	OwnerID   string    `json:"owner_id"`
	MasterID  string    `json:"master_id,omitempty"`
	EntryID   string    `json:"entry_id,omitempty"`
	Count     int       `json:"count,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Publisher sends a keyed JSON message. *kafka.Producer satisfies it.
type Publisher interface {
	PublishJSON(ctx context.Context, key string, headers map[string]string, value any) error
}

// Emitter publishes identity events
type Emitter interface {
	Emit(ctx context.Context, event IdentityEvent)
}

// PublishingEmitter emits events through a Publisher, keyed by owner so each owner's events
// stay ordered on one partition.
type PublishingEmitter struct {
	publisher Publisher
	logger    ectologger.Logger
}

// NewEmitter creates an emitter. A nil publisher yields a Nop emitter.
func NewEmitter(publisher Publisher, logger ectologger.Logger) Emitter {
	if publisher == nil {
		return Nop{}
	}
	return &PublishingEmitter{publisher: publisher, logger: logger}
}

// Emit publishes the event, logging and swallowing any failure
func (e *PublishingEmitter) Emit(ctx context.Context, event IdentityEvent) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}

	headers := map[string]string{
		"event_type": string(event.EventType),
		"owner_id":   event.OwnerID,
	}
	if err := e.publisher.PublishJSON(ctx, event.OwnerID, headers, event); err != nil {
		e.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
			"event_type": event.EventType,
			"owner_id":   event.OwnerID,
		}).Warn("failed to publish identity event")
	}
}

// Nop discards every event
type Nop struct{}

func (Nop) Emit(context.Context, IdentityEvent) {}

// Recorder keeps emitted events in memory
type Recorder struct {
	mu     sync.Mutex
	events []IdentityEvent
}

func (r *Recorder) Emit(_ context.Context, event IdentityEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
}

// Events returns a copy of the recorded events
func (r *Recorder) Events() []IdentityEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]IdentityEvent(nil), r.events...)
}

// OfType returns the recorded events of one type
func (r *Recorder) OfType(eventType EventType) []IdentityEvent {
	result := []IdentityEvent{}
	for _, event := range r.Events() {
		if event.EventType == eventType {
			result = append(result, event)
		}
	}
	return result
}
