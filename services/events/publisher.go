package eventsvc

import (
	"context"
	"fmt"

	"github.com/trezcool/lophoc/core"
)

// LogPublisher only logs the events (used when no broker is configured).
type LogPublisher struct {
	logger core.Logger
}

var _ core.EventPublisher = (*LogPublisher)(nil)

func NewLogPublisher(logger core.Logger) *LogPublisher {
	return &LogPublisher{logger: logger}
}

func (p *LogPublisher) Publish(_ context.Context, ev core.Event) error {
	p.logger.Debug(fmt.Sprintf("event %s -> %v", ev.Type, ev.Recipients))
	return nil
}

// Fanout delivers every event to all its publishers.
type Fanout []core.EventPublisher

var _ core.EventPublisher = (Fanout)(nil)

// Publish publishes to every publisher, even after a failure, and returns the first error.
func (f Fanout) Publish(ctx context.Context, ev core.Event) error {
	var firstErr error
	for _, p := range f {
		if err := p.Publish(ctx, ev); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
