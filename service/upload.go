package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"audio-recorder/apperror"
	"audio-recorder/constant"
	"audio-recorder/dto"
	"audio-recorder/entities"
	"audio-recorder/repository"
	"audio-recorder/storage"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// UploadCoordinator owns the chunk-acceptance protocol: duplicate
// rejection, the uploaded-chunks counter, and the single-fire completion
// transition.
type UploadCoordinator interface {
	AcceptChunk(ctx context.Context, recordingID, ownerID uuid.UUID, chunkOrder int, payload []byte, mimeType string) (*dto.UploadChunkResponse, error)
}

type uploadCoordinator struct {
	repo   repository.RecordingRepository
	blobs  storage.BlobStore
	events EventPublisher
}

func NewUploadCoordinator(repo repository.RecordingRepository, blobs storage.BlobStore, events EventPublisher) UploadCoordinator {
	return &uploadCoordinator{
		repo:   repo,
		blobs:  blobs,
		events: events,
	}
}

// AcceptChunk persists one chunk and advances the recording state. Chunks
// may arrive in any order; only uniqueness per (recording, order) is
// required, and the unique index is the arbiter under concurrency. A retry
// of an already accepted order fails with a conflict by design.
func (s *uploadCoordinator) AcceptChunk(ctx context.Context, recordingID, ownerID uuid.UUID, chunkOrder int, payload []byte, mimeType string) (*dto.UploadChunkResponse, error) {
	if chunkOrder < 0 {
		return nil, fmt.Errorf("%w: chunk order must be non-negative", apperror.ErrBadInput)
	}
	if len(payload) == 0 {
		return nil, fmt.Errorf("%w: empty chunk payload", apperror.ErrBadInput)
	}

	recording, err := s.repo.FindRecording(ctx, recordingID, ownerID)
	if err != nil {
		return nil, err
	}

	objectName := storage.ChunkObjectName(recordingID, chunkOrder)
	chunk := &entities.AudioChunk{
		ID:          uuid.New(),
		RecordingID: recordingID,
		ChunkOrder:  chunkOrder,
		ObjectName:  objectName,
		ChunkSize:   int64(len(payload)),
	}
	if mimeType != "" {
		chunk.MimeType = &mimeType
	}

	// The row goes in first: losing the duplicate race here means no blob
	// was written and nothing was counted.
	if err := s.repo.CreateChunk(ctx, chunk); err != nil {
		if errors.Is(err, apperror.ErrConflict) {
			return nil, fmt.Errorf("%w: chunk %d already exists", apperror.ErrConflict, chunkOrder)
		}
		return nil, err
	}

	if err := s.blobs.Put(ctx, objectName, payload, mimeType); err != nil {
		// Compensate so the counter invariant (uploaded == persisted)
		// holds: a chunk without its payload must not stay on record.
		if delErr := s.repo.DeleteChunk(ctx, chunk.ID); delErr != nil {
			zerolog.Ctx(ctx).Error().Err(delErr).
				Str("chunk_id", chunk.ID.String()).
				Msg("failed to remove chunk row after blob failure")
		}
		return nil, err
	}

	if err := s.repo.IncrementUploadedChunks(ctx, recordingID); err != nil {
		return nil, err
	}

	completed, err := s.repo.MarkCompletedIfDone(ctx, recordingID)
	if err != nil {
		return nil, err
	}

	zerolog.Ctx(ctx).Info().
		Str("recording_id", recordingID.String()).
		Int("chunk_order", chunkOrder).
		Int64("chunk_size", chunk.ChunkSize).
		Bool("completed", completed).
		Msg("chunk accepted")

	if completed {
		s.publish(ctx, dto.RecordingEvent{
			Event:       constant.EventRecordingCompleted.String(),
			OwnerID:     ownerID,
			RecordingID: recordingID,
			Timestamp:   time.Now().UTC(),
		})
	}

	progress := 0.0
	if recording.TotalChunks > 0 {
		progress = float64(chunkOrder+1) / float64(recording.TotalChunks) * 100
	}
	s.publish(ctx, dto.RecordingEvent{
		Event:       constant.EventChunkUploaded.String(),
		OwnerID:     ownerID,
		RecordingID: recordingID,
		ChunkOrder:  chunkOrder,
		TotalChunks: recording.TotalChunks,
		Progress:    progress,
		Timestamp:   time.Now().UTC(),
	})

	return &dto.UploadChunkResponse{
		Success: true,
		Message: fmt.Sprintf("chunk %d uploaded successfully", chunkOrder),
	}, nil
}

func (s *uploadCoordinator) publish(ctx context.Context, event dto.RecordingEvent) {
	if err := s.events.Publish(ctx, event); err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Str("event", event.Event).Msg("failed to publish event")
	}
}
