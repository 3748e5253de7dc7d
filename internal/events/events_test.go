package events

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type capturingBackend struct {
	topic string
	data  []byte
	attrs map[string]string
}

func (b *capturingBackend) Publish(ctx context.Context, topic string, data []byte, attrs map[string]string) (string, error) {
	b.topic = topic
	b.data = data
	b.attrs = attrs
	return "msg-1", nil
}

func (b *capturingBackend) Close() error { return nil }

func TestBusEmit(t *testing.T) {
	backend := &capturingBackend{}
	bus := NewBus(backend)

	payload := struct {
		Entries int `json:"entries"`
	}{Entries: 42}
	require.NoError(t, bus.Emit(context.Background(), TypeDefectCodeSynced, payload))

	assert.Equal(t, Topic, backend.topic)
	assert.Equal(t, TypeDefectCodeSynced, backend.attrs["type"])

	var event Event
	require.NoError(t, json.Unmarshal(backend.data, &event))
	assert.Equal(t, TypeDefectCodeSynced, event.Type)
	assert.NotEmpty(t, event.ID)
	assert.False(t, event.OccurredAt.IsZero())

	var decoded struct {
		Entries int `json:"entries"`
	}
	require.NoError(t, json.Unmarshal(event.Payload, &decoded))
	assert.Equal(t, 42, decoded.Entries)
}

func TestBusEmitRejectsUnserializablePayload(t *testing.T) {
	bus := NewBus(&capturingBackend{})
	err := bus.Emit(context.Background(), TypeReportCreated, make(chan int))
	assert.Error(t, err)
}

func TestNoopBackendDiscards(t *testing.T) {
	bus := NewBus(NoopBackend{})
	assert.NoError(t, bus.Emit(context.Background(), TypeReportCreated, map[string]int{"x": 1}))
	assert.NoError(t, bus.Close())
}
