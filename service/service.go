package service

import (
	"context"

	"audio-recorder/dto"
)

// EventPublisher is the outbound side of the notification fan-out. The
// production implementation publishes to RabbitMQ; delivery is best-effort
// and never fails an operation.
type EventPublisher interface {
	Publish(ctx context.Context, event dto.RecordingEvent) error
}
