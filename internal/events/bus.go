package events

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// Event types published on the analytics stream.
const (
	TypeSearch  = "knowledge.search"
	TypeAnalyze = "knowledge.analyze"
)

// Event is the envelope written to the analytics stream.
type Event struct {
	ID        string          `json:"id"`
	Type      string          `json:"type"`
	Timestamp time.Time       `json:"timestamp"`
	Payload   json.RawMessage `json:"payload"`
}

// SearchPayload describes one search request.
type SearchPayload struct {
	Query    string `json:"query"`
	Category string `json:"category,omitempty"`
	Total    int    `json:"total"`
	TookMS   int64  `json:"took_ms"`
}

// AnalyzePayload describes one issue analysis.
type AnalyzePayload struct {
	Keywords []string `json:"keywords"`
	Found    int      `json:"found"`
	TookMS   int64    `json:"took_ms"`
}

// Sender is the transport an EventBus publishes through.
type Sender interface {
	Send(ctx context.Context, key []byte, value []byte) error
}

// EventBus turns service notifications into events on a Sender. Failures
// are logged and never reach the caller.
type EventBus struct {
	sender Sender
	logger *slog.Logger
	now    func() time.Time
	newID  func() string
}

func NewEventBus(sender Sender, logger *slog.Logger) *EventBus {
	if logger == nil {
		logger = slog.Default()
	}
	return &EventBus{
		sender: sender,
		logger: logger,
		now:    time.Now,
		newID:  func() string { return uuid.NewString() },
	}
}

func (b *EventBus) RecordSearch(ctx context.Context, query, category string, total int, tookMS int64) {
	b.publish(ctx, TypeSearch, SearchPayload{
		Query:    query,
		Category: category,
		Total:    total,
		TookMS:   tookMS,
	})
}

func (b *EventBus) RecordAnalysis(ctx context.Context, keywords []string, found int, tookMS int64) {
	b.publish(ctx, TypeAnalyze, AnalyzePayload{
		Keywords: keywords,
		Found:    found,
		TookMS:   tookMS,
	})
}

func (b *EventBus) publish(ctx context.Context, eventType string, payload any) {
	raw, err := json.Marshal(payload)
	if err != nil {
		b.logger.ErrorContext(ctx, "failed to encode event payload", "type", eventType, "error", err)
		return
	}

	event := Event{
		ID:        b.newID(),
		Type:      eventType,
		Timestamp: b.now().UTC(),
		Payload:   raw,
	}
	value, err := json.Marshal(event)
	if err != nil {
		b.logger.ErrorContext(ctx, "failed to encode event", "type", eventType, "error", err)
		return
	}

	if err := b.sender.Send(ctx, []byte(eventType), value); err != nil {
		b.logger.WarnContext(ctx, "failed to publish event", "type", eventType, "id", event.ID, "error", err)
	}
}
