package events

import "context"

// NoopBackend discards every event. Used when no broker is configured.
type NoopBackend struct{}

func (NoopBackend) Publish(ctx context.Context, topic string, data []byte, attrs map[string]string) (string, error) {
	return "", nil
}

func (NoopBackend) Close() error { return nil }
