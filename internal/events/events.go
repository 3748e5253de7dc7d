// Package events publishes application events to a message broker for
// downstream consumers. Publishing is best-effort: failures are logged by
// the caller and never fail the originating request.
package events

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"time"
)

// Event types emitted by the application.
const (
	TypeReportCreated    = "aoi_report.created"
	TypeDefectCodeSynced = "defect_codes.synced"
)

// Topic is the single channel all application events are published to.
const Topic = "floor-reports.events"

// Event is the envelope placed on the broker.
type Event struct {
	ID         string          `json:"id"`
	Type       string          `json:"type"`
	OccurredAt time.Time       `json:"occurred_at"`
	Payload    json.RawMessage `json:"payload,omitempty"`
}

// Backend defines the broker-agnostic operations used by the bus.
type Backend interface {
	Publish(ctx context.Context, topic string, data []byte, attrs map[string]string) (string, error)
	Close() error
}

// Bus wraps a backend with a stable API.
type Bus struct {
	backend Backend
}

// NewBus constructs a Bus for the provided backend.
func NewBus(backend Backend) *Bus {
	return &Bus{backend: backend}
}

// Emit serializes the payload and publishes it under the given event type.
func (b *Bus) Emit(ctx context.Context, eventType string, payload any) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	event := Event{
		ID:         newEventID(),
		Type:       eventType,
		OccurredAt: time.Now().UTC(),
		Payload:    raw,
	}
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}

	attrs := map[string]string{"type": eventType}
	_, err = b.backend.Publish(ctx, Topic, data, attrs)
	return err
}

// Close closes the underlying backend.
func (b *Bus) Close() error {
	return b.backend.Close()
}

func newEventID() string {
	var buf [16]byte
	if _, err := rand.Read(buf[:]); err != nil {
		return ""
	}
	return hex.EncodeToString(buf[:])
}
