package events

import (
	"context"
	"fmt"

	"github.com/floorreports/apiserver/config"
)

// NewBusFromConfig selects and constructs the broker backend named in the
// configuration. An unset backend discards events.
func NewBusFromConfig(ctx context.Context, cfg config.EventsConfig) (*Bus, error) {
	switch cfg.Backend {
	case config.BackendRabbitMQ:
		backend, err := NewRabbitMQBackend(cfg.RabbitMQ)
		if err != nil {
			return nil, err
		}
		return NewBus(backend), nil
	case config.BackendPubSub:
		backend, err := NewPubSubBackend(ctx, cfg.PubSub)
		if err != nil {
			return nil, err
		}
		return NewBus(backend), nil
	case config.BackendNone, "":
		return NewBus(NoopBackend{}), nil
	default:
		return nil, fmt.Errorf("unknown events backend %q", cfg.Backend)
	}
}
