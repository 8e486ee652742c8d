package service

import (
	"context"
	"testing"

	"audio-recorder/apperror"
	"audio-recorder/constant"
	"audio-recorder/dto"
	"audio-recorder/entities"
	"audio-recorder/repository"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreate_ForcesPendingStatus(t *testing.T) {
	_, _, _, recordings := newUploadFixture(t)
	ctx := context.Background()
	owner := uuid.New()

	recording, err := recordings.Create(ctx, owner, dto.CreateRecordingRequest{
		Title:       "interview",
		AudioFormat: "webm",
		TotalChunks: 5,
	})
	require.NoError(t, err)
	assert.Equal(t, constant.RecordingStatusPending, recording.Status)
	assert.Equal(t, owner, recording.OwnerID)
	assert.Equal(t, 5, recording.TotalChunks)
	assert.Zero(t, recording.UploadedChunks)
}

func TestUpdate_PatchesFields(t *testing.T) {
	_, _, _, recordings := newUploadFixture(t)
	ctx := context.Background()
	owner := uuid.New()
	id := createPending(t, recordings, owner, 0)

	title := "renamed"
	duration := 42.5
	updated, err := recordings.Update(ctx, id, owner, dto.UpdateRecordingRequest{
		Title:    &title,
		Duration: &duration,
	})
	require.NoError(t, err)
	assert.Equal(t, "renamed", updated.Title)
	assert.Equal(t, 42.5, updated.Duration)
	// Untouched fields survive the patch.
	assert.Equal(t, constant.RecordingStatusPending, updated.Status)

	_, err = recordings.Update(ctx, id, uuid.New(), dto.UpdateRecordingRequest{Title: &title})
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}

func TestDelete_CascadesAndEmitsOnce(t *testing.T) {
	blobs, events, coordinator, recordings := newUploadFixture(t)
	ctx := context.Background()
	owner := uuid.New()
	id := createPending(t, recordings, owner, 2)

	_, err := coordinator.AcceptChunk(ctx, id, owner, 0, []byte("AA"), "")
	require.NoError(t, err)
	_, err = coordinator.AcceptChunk(ctx, id, owner, 1, []byte("BB"), "")
	require.NoError(t, err)
	require.Equal(t, 2, blobs.len())

	require.NoError(t, recordings.Delete(ctx, id, owner))

	_, err = recordings.Get(ctx, id, owner)
	assert.ErrorIs(t, err, apperror.ErrNotFound)
	assert.Zero(t, blobs.len())

	deleted := events.byName(constant.EventRecordingDeleted)
	require.Len(t, deleted, 1)
	assert.Equal(t, id, deleted[0].RecordingID)
	assert.Equal(t, owner, deleted[0].OwnerID)

	// A second delete finds nothing and emits nothing.
	err = recordings.Delete(ctx, id, owner)
	assert.ErrorIs(t, err, apperror.ErrNotFound)
	assert.Len(t, events.byName(constant.EventRecordingDeleted), 1)
}

func TestDelete_ForeignOwnerNotFound(t *testing.T) {
	_, events, _, recordings := newUploadFixture(t)
	ctx := context.Background()
	owner := uuid.New()
	id := createPending(t, recordings, owner, 0)

	err := recordings.Delete(ctx, id, uuid.New())
	assert.ErrorIs(t, err, apperror.ErrNotFound)
	assert.Empty(t, events.byName(constant.EventRecordingDeleted))

	// Still there for the real owner.
	_, err = recordings.Get(ctx, id, owner)
	assert.NoError(t, err)
}

// chunkListSpy flags any chunk-metadata read that slips past the
// ownership check.
type chunkListSpy struct {
	repository.RecordingRepository
	listed bool
}

func (s *chunkListSpy) ListChunks(ctx context.Context, recordingID uuid.UUID) ([]*entities.AudioChunk, error) {
	s.listed = true
	return s.RecordingRepository.ListChunks(ctx, recordingID)
}

func TestDelete_ForeignOwnerNeverReadsChunks(t *testing.T) {
	repo := newTestRepo(t)
	spy := &chunkListSpy{RecordingRepository: repo}
	blobs := newMemBlobStore()
	events := &captureEvents{}
	recordings := NewRecordingService(spy, blobs, events)
	ctx := context.Background()
	owner := uuid.New()
	id := createPending(t, recordings, owner, 0)

	err := recordings.Delete(ctx, id, uuid.New())
	assert.ErrorIs(t, err, apperror.ErrNotFound)
	assert.False(t, spy.listed)

	require.NoError(t, recordings.Delete(ctx, id, owner))
	assert.True(t, spy.listed)
}

func TestStats(t *testing.T) {
	_, _, _, recordings := newUploadFixture(t)
	ctx := context.Background()
	owner := uuid.New()

	for _, status := range []string{"completed", "completed", "pending", "failed"} {
		id := createPending(t, recordings, owner, 0)
		if status != "pending" {
			s := status
			_, err := recordings.Update(ctx, id, owner, dto.UpdateRecordingRequest{Status: &s})
			require.NoError(t, err)
		}
	}

	stats, err := recordings.Stats(ctx, owner)
	require.NoError(t, err)
	assert.Equal(t, int64(4), stats.TotalRecordings)
	assert.Equal(t, int64(2), stats.CompletedRecordings)
	assert.Equal(t, int64(1), stats.PendingRecordings)
}

func TestList_OnlyOwnRecordings(t *testing.T) {
	_, _, _, recordings := newUploadFixture(t)
	ctx := context.Background()
	owner := uuid.New()

	createPending(t, recordings, owner, 0)
	createPending(t, recordings, owner, 0)
	createPending(t, recordings, uuid.New(), 0)

	list, err := recordings.List(ctx, owner)
	require.NoError(t, err)
	assert.Len(t, list, 2)
	for _, r := range list {
		assert.Equal(t, owner, r.OwnerID)
	}
}
