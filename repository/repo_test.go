package repository

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"audio-recorder/apperror"
	"audio-recorder/constant"
	"audio-recorder/entities"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestRepo(t *testing.T) RecordingRepository {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	// A single connection keeps the in-memory database shared and
	// serializes concurrent transactions.
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(&entities.Recording{}, &entities.AudioChunk{}))

	return NewRepoWithDB(db)
}

func newRecording(t *testing.T, repo RecordingRepository, ownerID uuid.UUID, totalChunks int) *entities.Recording {
	t.Helper()

	recording := &entities.Recording{
		OwnerID:     ownerID,
		Title:       "take one",
		AudioFormat: "webm",
		TotalChunks: totalChunks,
		Status:      constant.RecordingStatusPending,
	}
	require.NoError(t, repo.CreateRecording(context.Background(), recording))
	return recording
}

func newChunk(recordingID uuid.UUID, order int) *entities.AudioChunk {
	return &entities.AudioChunk{
		RecordingID: recordingID,
		ChunkOrder:  order,
		ObjectName:  "test-object",
		ChunkSize:   4,
	}
}

func TestFindRecording_OwnerScoped(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	owner := uuid.New()

	recording := newRecording(t, repo, owner, 3)

	found, err := repo.FindRecording(ctx, recording.ID, owner)
	require.NoError(t, err)
	assert.Equal(t, recording.ID, found.ID)
	assert.Equal(t, constant.RecordingStatusPending, found.Status)

	// Absent id and foreign owner look the same.
	_, err = repo.FindRecording(ctx, uuid.New(), owner)
	assert.ErrorIs(t, err, apperror.ErrNotFound)

	_, err = repo.FindRecording(ctx, recording.ID, uuid.New())
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}

func TestFindAllRecordings_NewestFirst(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	owner := uuid.New()

	first := &entities.Recording{OwnerID: owner, Title: "first", Status: constant.RecordingStatusPending, CreatedAt: time.Now().Add(-2 * time.Hour)}
	second := &entities.Recording{OwnerID: owner, Title: "second", Status: constant.RecordingStatusPending, CreatedAt: time.Now().Add(-1 * time.Hour)}
	require.NoError(t, repo.CreateRecording(ctx, first))
	require.NoError(t, repo.CreateRecording(ctx, second))
	newRecording(t, repo, uuid.New(), 0)

	recordings, err := repo.FindAllRecordings(ctx, owner)
	require.NoError(t, err)
	require.Len(t, recordings, 2)
	assert.Equal(t, "second", recordings[0].Title)
	assert.Equal(t, "first", recordings[1].Title)
}

func TestUpdateRecordingFields(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	owner := uuid.New()

	recording := newRecording(t, repo, owner, 0)

	err := repo.UpdateRecordingFields(ctx, recording.ID, owner, map[string]interface{}{
		"title":    "renamed",
		"duration": 12.5,
	})
	require.NoError(t, err)

	found, err := repo.FindRecording(ctx, recording.ID, owner)
	require.NoError(t, err)
	assert.Equal(t, "renamed", found.Title)
	assert.Equal(t, 12.5, found.Duration)

	err = repo.UpdateRecordingFields(ctx, recording.ID, uuid.New(), map[string]interface{}{"title": "x"})
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}

func TestDeleteRecording_CascadesChunks(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	owner := uuid.New()

	recording := newRecording(t, repo, owner, 2)
	require.NoError(t, repo.CreateChunk(ctx, newChunk(recording.ID, 0)))
	require.NoError(t, repo.CreateChunk(ctx, newChunk(recording.ID, 1)))

	require.NoError(t, repo.DeleteRecording(ctx, recording.ID, owner))

	_, err := repo.FindRecording(ctx, recording.ID, owner)
	assert.ErrorIs(t, err, apperror.ErrNotFound)

	count, err := repo.CountChunks(ctx, recording.ID)
	require.NoError(t, err)
	assert.Zero(t, count)

	err = repo.DeleteRecording(ctx, recording.ID, owner)
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}

func TestTransaction_RollsBackAllStatements(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	owner := uuid.New()

	recording := newRecording(t, repo, owner, 2)
	require.NoError(t, repo.CreateChunk(ctx, newChunk(recording.ID, 0)))

	// Both writes inside the callback must run on the same transaction,
	// so a failure after the first one undoes them together.
	boom := errors.New("boom")
	err := repo.Transaction(ctx, func(ctx context.Context) error {
		if err := repo.DeleteChunk(ctx, uuid.Nil); err != nil {
			return err
		}
		if err := repo.CreateChunk(ctx, newChunk(recording.ID, 1)); err != nil {
			return err
		}
		if err := repo.IncrementUploadedChunks(ctx, recording.ID); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	count, err := repo.CountChunks(ctx, recording.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	fetched, err := repo.FindRecording(ctx, recording.ID, owner)
	require.NoError(t, err)
	assert.Zero(t, fetched.UploadedChunks)
}

func TestCreateChunk_DuplicateOrderConflicts(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	recording := newRecording(t, repo, uuid.New(), 3)

	require.NoError(t, repo.CreateChunk(ctx, newChunk(recording.ID, 0)))

	err := repo.CreateChunk(ctx, newChunk(recording.ID, 0))
	assert.ErrorIs(t, err, apperror.ErrConflict)

	// Same order on a different recording is fine.
	other := newRecording(t, repo, uuid.New(), 3)
	require.NoError(t, repo.CreateChunk(ctx, newChunk(other.ID, 0)))
}

func TestListChunks_OrderedByChunkOrder(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	recording := newRecording(t, repo, uuid.New(), 3)
	for _, order := range []int{2, 0, 1} {
		require.NoError(t, repo.CreateChunk(ctx, newChunk(recording.ID, order)))
	}

	chunks, err := repo.ListChunks(ctx, recording.ID)
	require.NoError(t, err)
	require.Len(t, chunks, 3)
	for i, chunk := range chunks {
		assert.Equal(t, i, chunk.ChunkOrder)
	}
}

func TestIncrementUploadedChunks_NoLostUpdate(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	owner := uuid.New()

	recording := newRecording(t, repo, owner, 0)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, repo.IncrementUploadedChunks(ctx, recording.ID))
		}()
	}
	wg.Wait()

	found, err := repo.FindRecording(ctx, recording.ID, owner)
	require.NoError(t, err)
	assert.Equal(t, 10, found.UploadedChunks)
}

func TestMarkCompletedIfDone_SingleFire(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	owner := uuid.New()

	recording := newRecording(t, repo, owner, 2)

	// Not enough chunks yet.
	require.NoError(t, repo.IncrementUploadedChunks(ctx, recording.ID))
	fired, err := repo.MarkCompletedIfDone(ctx, recording.ID)
	require.NoError(t, err)
	assert.False(t, fired)

	require.NoError(t, repo.IncrementUploadedChunks(ctx, recording.ID))
	fired, err = repo.MarkCompletedIfDone(ctx, recording.ID)
	require.NoError(t, err)
	assert.True(t, fired)

	// Already completed: never fires again.
	fired, err = repo.MarkCompletedIfDone(ctx, recording.ID)
	require.NoError(t, err)
	assert.False(t, fired)

	found, err := repo.FindRecording(ctx, recording.ID, owner)
	require.NoError(t, err)
	assert.Equal(t, constant.RecordingStatusCompleted, found.Status)
}

func TestMarkCompletedIfDone_UndeclaredTotalNeverFires(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	recording := newRecording(t, repo, uuid.New(), 0)
	require.NoError(t, repo.IncrementUploadedChunks(ctx, recording.ID))

	fired, err := repo.MarkCompletedIfDone(ctx, recording.ID)
	require.NoError(t, err)
	assert.False(t, fired)
}

func TestOwnerStats(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	owner := uuid.New()

	statuses := []constant.RecordingStatus{
		constant.RecordingStatusCompleted,
		constant.RecordingStatusCompleted,
		constant.RecordingStatusPending,
		constant.RecordingStatusFailed,
	}
	for i, status := range statuses {
		recording := &entities.Recording{
			OwnerID:  owner,
			Title:    "r",
			Status:   status,
			Duration: float64(i + 1),
		}
		require.NoError(t, repo.CreateRecording(ctx, recording))
	}
	newRecording(t, repo, uuid.New(), 0)

	stats, err := repo.OwnerStats(ctx, owner)
	require.NoError(t, err)
	assert.Equal(t, int64(4), stats.TotalRecordings)
	assert.Equal(t, float64(1+2+3+4), stats.TotalDuration)
	assert.Equal(t, int64(2), stats.CompletedRecordings)
	assert.Equal(t, int64(1), stats.PendingRecordings)
}

func TestFindRecordingWithChunks(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	owner := uuid.New()

	recording := newRecording(t, repo, owner, 2)
	require.NoError(t, repo.CreateChunk(ctx, newChunk(recording.ID, 1)))
	require.NoError(t, repo.CreateChunk(ctx, newChunk(recording.ID, 0)))

	found, err := repo.FindRecordingWithChunks(ctx, recording.ID, owner)
	require.NoError(t, err)
	require.Len(t, found.Chunks, 2)
	assert.Equal(t, 0, found.Chunks[0].ChunkOrder)
	assert.Equal(t, 1, found.Chunks[1].ChunkOrder)
}
