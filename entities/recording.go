package entities

import (
	"time"

	"audio-recorder/constant"

	"github.com/google/uuid"
)

type Recording struct {
	ID             uuid.UUID                `json:"id" gorm:"type:uuid;primary_key"`
	OwnerID        uuid.UUID                `json:"owner_id" gorm:"type:uuid;not null;index:idx_recordings_owner_id"`
	Title          string                   `json:"title" gorm:"type:varchar(255);not null"`
	Description    *string                  `json:"description" gorm:"type:text"`
	Duration       float64                  `json:"duration" gorm:"not null;default:0"`
	Status         constant.RecordingStatus `json:"status" gorm:"type:varchar(20);not null;default:'pending';index:idx_recordings_status"`
	AudioFormat    string                   `json:"audio_format" gorm:"type:varchar(20)"`
	TotalChunks    int                      `json:"total_chunks" gorm:"not null;default:0"`
	UploadedChunks int                      `json:"uploaded_chunks" gorm:"not null;default:0"`
	CreatedAt      time.Time                `json:"created_at"`
	UpdatedAt      time.Time                `json:"updated_at"`

	Chunks []AudioChunk `json:"chunks,omitempty" gorm:"foreignKey:RecordingID;constraint:OnDelete:CASCADE"`
}

func (Recording) TableName() string {
	return "recordings"
}
