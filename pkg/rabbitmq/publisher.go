package rabbitmq

import (
	"context"
	"encoding/json"

	"audio-recorder/config"
	"audio-recorder/dto"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"
)

const (
	eventsExchange = "recording_events"
)

// Publisher pushes recording state-change events onto the fan-out exchange.
// Every running instance consumes them and forwards to its local sockets.
type Publisher interface {
	Publish(ctx context.Context, event dto.RecordingEvent) error
	Close() error
}

type publisher struct {
	ch *amqp.Channel
}

func NewPublisher(conn *amqp.Connection, cfg *config.RabbitMQ) (Publisher, error) {
	ch, err := conn.Channel()
	if err != nil {
		return nil, err
	}

	if err := ch.ExchangeDeclare(eventsExchange, "fanout", true, false, false, false, nil); err != nil {
		ch.Close()
		return nil, err
	}

	return &publisher{ch: ch}, nil
}

func (p *publisher) Publish(ctx context.Context, event dto.RecordingEvent) error {
	body, err := json.Marshal(event)
	if err != nil {
		return err
	}

	err = p.ch.PublishWithContext(ctx, eventsExchange, "", false, false, amqp.Publishing{
		ContentType: "application/json",
		Body:        body,
	})
	if err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Str("event", event.Event).Msg("failed to publish event")
		return err
	}
	return nil
}

func (p *publisher) Close() error {
	return p.ch.Close()
}
