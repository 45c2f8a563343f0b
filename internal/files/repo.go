package files

import (
	"context"
	"time"

	"gorm.io/gorm"
)

type Repo struct {
	db *gorm.DB
}

func NewRepo(db *gorm.DB) *Repo {
	return &Repo{db: db}
}

func (r *Repo) Create(ctx context.Context, f *File) error {
	if f.UploadTime.IsZero() {
		f.UploadTime = time.Now().UTC()
	}
	return r.db.WithContext(ctx).Create(f).Error
}

// List returns all uploads, newest first.
func (r *Repo) List(ctx context.Context) ([]File, error) {
	var out []File
	err := r.db.WithContext(ctx).
		Order("upload_time DESC, id DESC").
		Find(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}

// FindByFilename returns prior uploads sharing the same name, for overwrite
// detection.
func (r *Repo) FindByFilename(ctx context.Context, filename string) ([]File, error) {
	var out []File
	err := r.db.WithContext(ctx).
		Where("filename = ?", filename).
		Find(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}
