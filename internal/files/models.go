package files

import "time"

// File is one uploaded document tracked for retrieval. The stored path is
// internal and never serialized to clients.
type File struct {
	ID         uint64    `gorm:"primaryKey;autoIncrement" json:"id"`
	Filename   string    `gorm:"type:varchar(255);not null;index" json:"filename"`
	Filepath   string    `gorm:"type:varchar(512);not null" json:"-"`
	UploadTime time.Time `gorm:"index" json:"upload_time"`
}

func (File) TableName() string { return "files" }
