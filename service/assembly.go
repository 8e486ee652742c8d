package service

import (
	"bytes"
	"context"
	"fmt"

	"audio-recorder/apperror"
	"audio-recorder/constant"
	"audio-recorder/repository"
	"audio-recorder/storage"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Audio is one assembled recording ready for playback.
type Audio struct {
	Data        []byte
	ContentType string
	FileName    string
}

// AssemblyEngine concatenates a completed recording's chunks, in ascending
// chunk order, into one contiguous byte stream. Pure read side: repeated
// calls yield identical output while no further chunks are written.
type AssemblyEngine interface {
	Assemble(ctx context.Context, recordingID, ownerID uuid.UUID) (*Audio, error)
}

type assemblyEngine struct {
	repo  repository.RecordingRepository
	blobs storage.BlobStore
}

func NewAssemblyEngine(repo repository.RecordingRepository, blobs storage.BlobStore) AssemblyEngine {
	return &assemblyEngine{
		repo:  repo,
		blobs: blobs,
	}
}

func (s *assemblyEngine) Assemble(ctx context.Context, recordingID, ownerID uuid.UUID) (*Audio, error) {
	recording, err := s.repo.FindRecording(ctx, recordingID, ownerID)
	if err != nil {
		return nil, err
	}

	if recording.Status != constant.RecordingStatusCompleted {
		return nil, fmt.Errorf("%w: recording is not yet completed", apperror.ErrInvalidState)
	}

	chunks, err := s.repo.ListChunks(ctx, recordingID)
	if err != nil {
		return nil, err
	}
	if len(chunks) == 0 {
		// Should not happen while the coordinator invariants hold.
		return nil, fmt.Errorf("%w: no audio chunks found", apperror.ErrNotFound)
	}

	var buf bytes.Buffer
	for _, chunk := range chunks {
		payload, err := s.blobs.Get(ctx, chunk.ObjectName)
		if err != nil {
			zerolog.Ctx(ctx).Error().Err(err).
				Str("object_name", chunk.ObjectName).
				Int("chunk_order", chunk.ChunkOrder).
				Msg("failed to read chunk payload")
			return nil, err
		}
		buf.Write(payload)
	}

	zerolog.Ctx(ctx).Info().
		Str("recording_id", recordingID.String()).
		Int("chunk_count", len(chunks)).
		Int("total_bytes", buf.Len()).
		Msg("recording assembled")

	format := recording.AudioFormat
	if format == "" {
		format = "webm"
	}
	contentType := "audio/webm"
	if format == "wav" {
		contentType = "audio/wav"
	}

	return &Audio{
		Data:        buf.Bytes(),
		ContentType: contentType,
		FileName:    fmt.Sprintf("%s.%s", recording.Title, format),
	}, nil
}
