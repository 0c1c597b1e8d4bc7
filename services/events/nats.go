package eventsvc

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/pkg/errors"

	"github.com/trezcool/lophoc/core"
)

// NatsPublisher publishes every event as JSON on the NATS subject named after its type.
type NatsPublisher struct {
	conn   *nats.Conn
	logger core.Logger
}

var _ core.EventPublisher = (*NatsPublisher)(nil)

func NewNatsPublisher(conf *core.Config, logger core.Logger) (*NatsPublisher, error) {
	nc, err := nats.Connect(
		conf.Events.NatsURL,
		nats.Name(conf.AppName),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.Warn(fmt.Sprintf("nats disconnected: %v", err))
			}
		}),
	)
	if err != nil {
		return nil, errors.Wrap(err, "connecting to nats")
	}
	return &NatsPublisher{conn: nc, logger: logger}, nil
}

func (p *NatsPublisher) Publish(_ context.Context, ev core.Event) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return errors.Wrap(err, "marshalling event")
	}
	if err = p.conn.Publish(ev.Type, data); err != nil {
		return errors.Wrapf(err, "publishing to nats subject %s", ev.Type)
	}
	return nil
}

// Close flushes the pending events and closes the connection.
func (p *NatsPublisher) Close() {
	if err := p.conn.Drain(); err != nil {
		p.logger.Error(fmt.Sprintf("draining nats connection: %v", err), err)
	}
}
