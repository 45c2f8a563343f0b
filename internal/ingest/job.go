package ingest

import "time"

type JobStatus string

const (
	JobQueued    JobStatus = "queued"
	JobRunning   JobStatus = "running"
	JobSucceeded JobStatus = "succeeded"
	JobFailed    JobStatus = "failed"
)

// Job is one queued reindex of an uploaded file.
type Job struct {
	ID string `gorm:"primaryKey;size:26" json:"id"` // ULID length

	FileID   uint64 `gorm:"index;not null" json:"file_id"`
	Filepath string `gorm:"type:varchar(512);not null" json:"-"`

	Status JobStatus `gorm:"type:varchar(16);index;not null" json:"status"`

	// Filled when succeeded
	ChunkCount *int `json:"chunk_count,omitempty"`

	// Filled when failed
	Error *string `gorm:"type:text" json:"error,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Job) TableName() string { return "ingest_jobs" }
