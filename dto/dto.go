package dto

import (
	"time"

	"github.com/google/uuid"
)

type CreateRecordingRequest struct {
	Title       string  `json:"title" binding:"required"`
	Description *string `json:"description"`
	AudioFormat string  `json:"audioFormat"`
	TotalChunks int     `json:"totalChunks" binding:"min=0"`
}

type UpdateRecordingRequest struct {
	Title       *string  `json:"title"`
	Description *string  `json:"description"`
	Duration    *float64 `json:"duration" binding:"omitempty,min=0"`
	Status      *string  `json:"status"`
}

type UploadChunkResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

type StatsResponse struct {
	TotalRecordings     int64   `json:"totalRecordings"`
	TotalDuration       float64 `json:"totalDuration"`
	CompletedRecordings int64   `json:"completedRecordings"`
	PendingRecordings   int64   `json:"pendingRecordings"`
}

// RecordingEvent is the message published to the fan-out exchange for every
// state change. Each running instance consumes it and forwards the event to
// its locally connected sockets.
type RecordingEvent struct {
	Event       string    `json:"event"`
	OwnerID     uuid.UUID `json:"ownerId"`
	RecordingID uuid.UUID `json:"recordingId"`
	ChunkOrder  int       `json:"chunkOrder,omitempty"`
	TotalChunks int       `json:"totalChunks,omitempty"`
	Progress    float64   `json:"progress,omitempty"`
	Timestamp   time.Time `json:"timestamp"`
}
