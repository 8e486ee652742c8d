package repository

import (
	"context"
	"database/sql"
	"errors"

	"audio-recorder/apperror"
	"audio-recorder/constant"
	"audio-recorder/entities"

	"github.com/google/uuid"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type RecordingRepository interface {
	Transaction(ctx context.Context, callback func(ctx context.Context) error, opts ...*sql.TxOptions) error
	GetDB() *gorm.DB

	CreateRecording(ctx context.Context, recording *entities.Recording) error
	FindRecording(ctx context.Context, id, ownerID uuid.UUID) (*entities.Recording, error)
	FindRecordingWithChunks(ctx context.Context, id, ownerID uuid.UUID) (*entities.Recording, error)
	FindAllRecordings(ctx context.Context, ownerID uuid.UUID) ([]*entities.Recording, error)
	UpdateRecordingFields(ctx context.Context, id, ownerID uuid.UUID, updates map[string]interface{}) error
	DeleteRecording(ctx context.Context, id, ownerID uuid.UUID) error
	OwnerStats(ctx context.Context, ownerID uuid.UUID) (*OwnerStats, error)

	CreateChunk(ctx context.Context, chunk *entities.AudioChunk) error
	DeleteChunk(ctx context.Context, id uuid.UUID) error
	ListChunks(ctx context.Context, recordingID uuid.UUID) ([]*entities.AudioChunk, error)
	CountChunks(ctx context.Context, recordingID uuid.UUID) (int64, error)

	IncrementUploadedChunks(ctx context.Context, recordingID uuid.UUID) error
	MarkCompletedIfDone(ctx context.Context, recordingID uuid.UUID) (bool, error)
}

// OwnerStats is the aggregate stats row scoped to one owner.
type OwnerStats struct {
	TotalRecordings     int64
	TotalDuration       float64
	CompletedRecordings int64
	PendingRecordings   int64
}

type repo struct {
	db *gorm.DB
}

func NewRepo(db *sql.DB) RecordingRepository {
	gormDB, _ := gorm.Open(postgres.New(postgres.Config{
		Conn: db}),
		&gorm.Config{
			Logger:         logger.Default.LogMode(logger.Warn),
			TranslateError: true,
		},
	)
	return &repo{
		db: gormDB,
	}
}

// NewRepoWithDB wraps an already opened gorm handle. Used by tests that run
// against an in-memory database.
func NewRepoWithDB(db *gorm.DB) RecordingRepository {
	return &repo{db: db}
}

func (r *repo) GetDB() *gorm.DB {
	return r.db
}

type txKey struct{}

// Transaction runs callback inside one database transaction. The tx handle
// travels in the context so every repository method called from the
// callback executes on it, not on the pool.
func (r *repo) Transaction(ctx context.Context, callback func(ctx context.Context) error, opts ...*sql.TxOptions) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return callback(context.WithValue(ctx, txKey{}, tx))
	}, opts...)
}

// conn resolves the handle for ctx: the enclosing transaction when there is
// one, the pool otherwise.
func (r *repo) conn(ctx context.Context) *gorm.DB {
	if tx, ok := ctx.Value(txKey{}).(*gorm.DB); ok {
		return tx
	}
	return r.db.WithContext(ctx)
}

func (r *repo) CreateRecording(ctx context.Context, recording *entities.Recording) error {
	if recording.ID == uuid.Nil {
		recording.ID = uuid.New()
	}
	return r.conn(ctx).Create(recording).Error
}

func (r *repo) FindRecording(ctx context.Context, id, ownerID uuid.UUID) (*entities.Recording, error) {
	recording := &entities.Recording{}
	err := r.conn(ctx).
		First(recording, "id = ? AND owner_id = ?", id, ownerID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.ErrNotFound
		}
		return nil, err
	}

	return recording, nil
}

func (r *repo) FindRecordingWithChunks(ctx context.Context, id, ownerID uuid.UUID) (*entities.Recording, error) {
	recording := &entities.Recording{}
	err := r.conn(ctx).
		Preload("Chunks", func(db *gorm.DB) *gorm.DB {
			return db.Order("chunk_order ASC")
		}).
		First(recording, "id = ? AND owner_id = ?", id, ownerID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.ErrNotFound
		}
		return nil, err
	}

	return recording, nil
}

func (r *repo) FindAllRecordings(ctx context.Context, ownerID uuid.UUID) ([]*entities.Recording, error) {
	var recordings []*entities.Recording
	err := r.conn(ctx).
		Where("owner_id = ?", ownerID).
		Order("created_at DESC").
		Find(&recordings).Error
	if err != nil {
		return nil, err
	}
	return recordings, nil
}

func (r *repo) UpdateRecordingFields(ctx context.Context, id, ownerID uuid.UUID, updates map[string]interface{}) error {
	if _, err := r.FindRecording(ctx, id, ownerID); err != nil {
		return err
	}

	return r.conn(ctx).
		Model(&entities.Recording{}).
		Where("id = ? AND owner_id = ?", id, ownerID).
		Updates(updates).Error
}

func (r *repo) DeleteRecording(ctx context.Context, id, ownerID uuid.UUID) error {
	return r.Transaction(ctx, func(ctx context.Context) error {
		res := r.conn(ctx).
			Where("id = ? AND owner_id = ?", id, ownerID).
			Delete(&entities.Recording{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return apperror.ErrNotFound
		}

		// Explicit cascade so the invariant does not depend on the
		// database enforcing the foreign key.
		return r.conn(ctx).
			Where("recording_id = ?", id).
			Delete(&entities.AudioChunk{}).Error
	})
}

func (r *repo) OwnerStats(ctx context.Context, ownerID uuid.UUID) (*OwnerStats, error) {
	stats := &OwnerStats{}
	row := r.conn(ctx).
		Model(&entities.Recording{}).
		Select("COUNT(*) AS total_recordings, COALESCE(SUM(duration), 0) AS total_duration").
		Where("owner_id = ?", ownerID).
		Row()
	if err := row.Scan(&stats.TotalRecordings, &stats.TotalDuration); err != nil {
		return nil, err
	}

	type statusCount struct {
		Status constant.RecordingStatus
		Count  int64
	}
	var counts []statusCount
	err := r.conn(ctx).
		Model(&entities.Recording{}).
		Select("status, COUNT(*) AS count").
		Where("owner_id = ?", ownerID).
		Group("status").
		Scan(&counts).Error
	if err != nil {
		return nil, err
	}

	for _, c := range counts {
		switch c.Status {
		case constant.RecordingStatusCompleted:
			stats.CompletedRecordings = c.Count
		case constant.RecordingStatusPending:
			stats.PendingRecordings = c.Count
		}
	}

	return stats, nil
}

func (r *repo) CreateChunk(ctx context.Context, chunk *entities.AudioChunk) error {
	if chunk.ID == uuid.Nil {
		chunk.ID = uuid.New()
	}
	err := r.conn(ctx).Create(chunk).Error
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return apperror.ErrConflict
		}
		return err
	}
	return nil
}

func (r *repo) DeleteChunk(ctx context.Context, id uuid.UUID) error {
	return r.conn(ctx).
		Where("id = ?", id).
		Delete(&entities.AudioChunk{}).Error
}

func (r *repo) ListChunks(ctx context.Context, recordingID uuid.UUID) ([]*entities.AudioChunk, error) {
	var chunks []*entities.AudioChunk
	err := r.conn(ctx).
		Where("recording_id = ?", recordingID).
		Order("chunk_order ASC").
		Find(&chunks).Error
	if err != nil {
		return nil, err
	}
	return chunks, nil
}

func (r *repo) CountChunks(ctx context.Context, recordingID uuid.UUID) (int64, error) {
	var count int64
	err := r.conn(ctx).
		Model(&entities.AudioChunk{}).
		Where("recording_id = ?", recordingID).
		Count(&count).Error
	if err != nil {
		return 0, err
	}
	return count, nil
}

// IncrementUploadedChunks bumps the counter with a single UPDATE expression
// so concurrent uploads never lose an increment.
func (r *repo) IncrementUploadedChunks(ctx context.Context, recordingID uuid.UUID) error {
	return r.conn(ctx).
		Model(&entities.Recording{}).
		Where("id = ?", recordingID).
		Update("uploaded_chunks", gorm.Expr("uploaded_chunks + 1")).Error
}

// MarkCompletedIfDone flips status to completed when the declared chunk
// count has been reached. The status guard in the WHERE clause makes the
// transition single-fire: exactly one caller observes RowsAffected == 1.
func (r *repo) MarkCompletedIfDone(ctx context.Context, recordingID uuid.UUID) (bool, error) {
	res := r.conn(ctx).
		Model(&entities.Recording{}).
		Where("id = ? AND total_chunks > 0 AND uploaded_chunks >= total_chunks AND status <> ?",
			recordingID, constant.RecordingStatusCompleted).
		Update("status", constant.RecordingStatusCompleted)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}
