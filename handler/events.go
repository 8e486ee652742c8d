package handler

import (
	"context"
	"encoding/json"

	"audio-recorder/constant"
	"audio-recorder/dto"
	"audio-recorder/pkg/ws"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"
)

type EventDependencies struct {
	Hub *ws.Hub
}

// RecordingEventHandler forwards a bus event to the locally connected
// sockets of the recording's owner. The payload shapes match what the
// frontend subscribes to.
func RecordingEventHandler(ctx context.Context, msg amqp.Delivery, deps EventDependencies) error {
	var event dto.RecordingEvent
	if err := json.Unmarshal(msg.Body, &event); err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Msg("failed to unmarshal recording event")
		return err
	}

	switch constant.EventName(event.Event) {
	case constant.EventChunkUploaded:
		deps.Hub.EmitToUser(ctx, event.OwnerID, constant.EventChunkUploaded, map[string]interface{}{
			"recordingId": event.RecordingID,
			"chunkOrder":  event.ChunkOrder,
			"totalChunks": event.TotalChunks,
			"progress":    event.Progress,
		})

	case constant.EventRecordingCompleted:
		deps.Hub.EmitToUser(ctx, event.OwnerID, constant.EventRecordingCompleted, map[string]interface{}{
			"recordingId": event.RecordingID,
			"timestamp":   event.Timestamp,
		})

	case constant.EventRecordingDeleted:
		deps.Hub.EmitToUser(ctx, event.OwnerID, constant.EventRecordingDeleted, map[string]interface{}{
			"recordingId": event.RecordingID,
			"timestamp":   event.Timestamp,
		})

	default:
		zerolog.Ctx(ctx).Warn().Str("event", event.Event).Msg("unknown recording event")
	}

	return nil
}
