package service

import (
	"context"
	"time"

	"audio-recorder/constant"
	"audio-recorder/dto"
	"audio-recorder/entities"
	"audio-recorder/repository"
	"audio-recorder/storage"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

type RecordingService interface {
	Create(ctx context.Context, ownerID uuid.UUID, req dto.CreateRecordingRequest) (*entities.Recording, error)
	List(ctx context.Context, ownerID uuid.UUID) ([]*entities.Recording, error)
	Get(ctx context.Context, id, ownerID uuid.UUID) (*entities.Recording, error)
	Update(ctx context.Context, id, ownerID uuid.UUID, req dto.UpdateRecordingRequest) (*entities.Recording, error)
	Delete(ctx context.Context, id, ownerID uuid.UUID) error
	Stats(ctx context.Context, ownerID uuid.UUID) (*dto.StatsResponse, error)
}

type recordingService struct {
	repo   repository.RecordingRepository
	blobs  storage.BlobStore
	events EventPublisher
}

func NewRecordingService(repo repository.RecordingRepository, blobs storage.BlobStore, events EventPublisher) RecordingService {
	return &recordingService{
		repo:   repo,
		blobs:  blobs,
		events: events,
	}
}

func (s *recordingService) Create(ctx context.Context, ownerID uuid.UUID, req dto.CreateRecordingRequest) (*entities.Recording, error) {
	recording := &entities.Recording{
		ID:          uuid.New(),
		OwnerID:     ownerID,
		Title:       req.Title,
		Description: req.Description,
		AudioFormat: req.AudioFormat,
		TotalChunks: req.TotalChunks,
		Status:      constant.RecordingStatusPending,
	}

	if err := s.repo.CreateRecording(ctx, recording); err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Msg("failed to create recording")
		return nil, err
	}

	zerolog.Ctx(ctx).Info().
		Str("recording_id", recording.ID.String()).
		Str("owner_id", ownerID.String()).
		Int("total_chunks", recording.TotalChunks).
		Msg("recording created")

	return recording, nil
}

func (s *recordingService) List(ctx context.Context, ownerID uuid.UUID) ([]*entities.Recording, error) {
	return s.repo.FindAllRecordings(ctx, ownerID)
}

func (s *recordingService) Get(ctx context.Context, id, ownerID uuid.UUID) (*entities.Recording, error) {
	return s.repo.FindRecordingWithChunks(ctx, id, ownerID)
}

func (s *recordingService) Update(ctx context.Context, id, ownerID uuid.UUID, req dto.UpdateRecordingRequest) (*entities.Recording, error) {
	updates := map[string]interface{}{}
	if req.Title != nil {
		updates["title"] = *req.Title
	}
	if req.Description != nil {
		updates["description"] = *req.Description
	}
	if req.Duration != nil {
		updates["duration"] = *req.Duration
	}
	if req.Status != nil {
		updates["status"] = *req.Status
	}

	if len(updates) > 0 {
		if err := s.repo.UpdateRecordingFields(ctx, id, ownerID, updates); err != nil {
			return nil, err
		}
	}

	return s.repo.FindRecording(ctx, id, ownerID)
}

func (s *recordingService) Delete(ctx context.Context, id, ownerID uuid.UUID) error {
	// Ownership gate first: chunk metadata is only read once the caller is
	// known to own the recording.
	if _, err := s.repo.FindRecording(ctx, id, ownerID); err != nil {
		return err
	}

	chunks, err := s.repo.ListChunks(ctx, id)
	if err != nil {
		return err
	}

	if err := s.repo.DeleteRecording(ctx, id, ownerID); err != nil {
		return err
	}

	// Blob removal after the rows are gone. A leftover object is orphaned
	// storage, not a correctness problem.
	for _, chunk := range chunks {
		if err := s.blobs.Remove(ctx, chunk.ObjectName); err != nil {
			zerolog.Ctx(ctx).Warn().Err(err).Str("object_name", chunk.ObjectName).Msg("failed to remove chunk payload")
		}
	}

	zerolog.Ctx(ctx).Info().
		Str("recording_id", id.String()).
		Int("chunks_removed", len(chunks)).
		Msg("recording deleted")

	event := dto.RecordingEvent{
		Event:       constant.EventRecordingDeleted.String(),
		OwnerID:     ownerID,
		RecordingID: id,
		Timestamp:   time.Now().UTC(),
	}
	if err := s.events.Publish(ctx, event); err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Msg("failed to publish recording_deleted event")
	}

	return nil
}

func (s *recordingService) Stats(ctx context.Context, ownerID uuid.UUID) (*dto.StatsResponse, error) {
	stats, err := s.repo.OwnerStats(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	return &dto.StatsResponse{
		TotalRecordings:     stats.TotalRecordings,
		TotalDuration:       stats.TotalDuration,
		CompletedRecordings: stats.CompletedRecordings,
		PendingRecordings:   stats.PendingRecordings,
	}, nil
}
