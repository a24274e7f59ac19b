// Package events publishes domain events to NATS JetStream, fire-and-forget.
package events

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"go.uber.org/zap"
)

const StreamName = "FINDME_EVENTS"

const (
	SubjectPersonCreated   = "records.missing_person.created"
	SubjectPersonDeleted   = "records.missing_person.deleted"
	SubjectCommentReported = "moderation.comment.reported"
	SubjectCommentHidden   = "moderation.comment.hidden"
	SubjectReportResolved  = "moderation.report.resolved"
	SubjectIngestionRun    = "ingestion.run.completed"
)

var streamSubjects = []string{"records.>", "moderation.>", "ingestion.>"}

// Event is the envelope sent on every subject.
type Event struct {
	EventID    string         `json:"event_id"`
	EventName  string         `json:"event_name"`
	ActorID    string         `json:"actor_id,omitempty"`
	OccurredAt time.Time      `json:"occurred_at"`
	Properties map[string]any `json:"properties,omitempty"`
}

// Publisher publishes events to JetStream.
// The zero value and a nil pointer are both safe no-op stubs.
type Publisher struct {
	js  nats.JetStreamContext
	log *zap.Logger
	now func() time.Time
}

// New creates a Publisher. Pass js=nil to get a no-op stub.
func New(js nats.JetStreamContext, log *zap.Logger) *Publisher {
	if log == nil {
		log = zap.NewNop()
	}
	return &Publisher{js: js, log: log, now: time.Now}
}

// EnsureStream creates the events stream when it does not exist yet.
func EnsureStream(js nats.JetStreamContext) error {
	_, err := js.StreamInfo(StreamName)
	if err == nil {
		return nil
	}
	if !errors.Is(err, nats.ErrStreamNotFound) {
		return err
	}
	_, err = js.AddStream(&nats.StreamConfig{
		Name:      StreamName,
		Subjects:  streamSubjects,
		Retention: nats.LimitsPolicy,
		MaxAge:    7 * 24 * time.Hour,
		Storage:   nats.FileStorage,
	})
	return err
}

// Publish sends an event asynchronously. Failures are logged and never
// surface to the caller.
func (p *Publisher) Publish(subject, actorID string, props map[string]any) {
	if p == nil || p.js == nil {
		return
	}
	data, err := Encode(subject, actorID, props, p.now().UTC())
	if err != nil {
		p.log.Warn("events: marshal failed", zap.String("subject", subject), zap.Error(err))
		return
	}
	if _, err := p.js.PublishAsync(subject, data); err != nil {
		p.log.Warn("events: publish failed", zap.String("subject", subject), zap.Error(err))
	}
}

// Encode builds the wire form of an event.
func Encode(subject, actorID string, props map[string]any, at time.Time) ([]byte, error) {
	return json.Marshal(Event{
		EventID:    uuid.NewString(),
		EventName:  subject,
		ActorID:    actorID,
		OccurredAt: at,
		Properties: props,
	})
}
