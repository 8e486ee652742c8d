package constant

type RecordingStatus string

const (
	RecordingStatusPending    RecordingStatus = "pending"
	RecordingStatusProcessing RecordingStatus = "processing"
	RecordingStatusCompleted  RecordingStatus = "completed"
	RecordingStatusFailed     RecordingStatus = "failed"
)

func (s RecordingStatus) String() string {
	return string(s)
}

type EventName string

const (
	EventConnected             EventName = "connected"
	EventChunkUploaded         EventName = "chunk_uploaded"
	EventRecordingCompleted    EventName = "recording_completed"
	EventRecordingDeleted      EventName = "recording_deleted"
	EventRecordingStatusUpdate EventName = "recording_status_update"
	EventJoinedRecording       EventName = "joined_recording"
	EventLeftRecording         EventName = "left_recording"
	EventError                 EventName = "error"
)

func (e EventName) String() string {
	return string(e)
}

type Environment string

const (
	EnvironmentProduction Environment = "production"
	EnvironmentStaging    Environment = "staging"
	EnvironmentDevelop    Environment = "develop"
)

func (e Environment) String() string {
	return string(e)
}
