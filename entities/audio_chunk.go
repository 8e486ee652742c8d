package entities

import (
	"time"

	"github.com/google/uuid"
)

// AudioChunk is the metadata row for one uploaded chunk. The payload lives
// in blob storage under ObjectName. The composite unique index on
// (recording_id, chunk_order) is the source of truth for duplicate
// rejection; a chunk row is never updated once written.
type AudioChunk struct {
	ID          uuid.UUID `json:"id" gorm:"type:uuid;primary_key"`
	RecordingID uuid.UUID `json:"recording_id" gorm:"type:uuid;not null;uniqueIndex:idx_audio_chunks_recording_order"`
	ChunkOrder  int       `json:"chunk_order" gorm:"not null;uniqueIndex:idx_audio_chunks_recording_order"`
	ObjectName  string    `json:"object_name" gorm:"type:varchar(500);not null"`
	ChunkSize   int64     `json:"chunk_size" gorm:"not null"`
	MimeType    *string   `json:"mime_type" gorm:"type:varchar(100)"`
	CreatedAt   time.Time `json:"created_at"`
}

func (AudioChunk) TableName() string {
	return "audio_chunks"
}
