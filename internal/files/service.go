package files

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"

	"github.com/docchat/docchat/internal/common"
	"github.com/docchat/docchat/internal/ingest"
)

// Indexer chunks, embeds, and stores one document for retrieval.
type Indexer interface {
	Process(ctx context.Context, path string) (int, error)
}

// JobPublisher hands a queued ingest job to the worker fleet.
type JobPublisher interface {
	PublishJob(ctx context.Context, jobID string) error
}

// Service handles document uploads and background reindexing.
type Service struct {
	repo      *Repo
	jobs      *ingest.JobRepo
	indexer   Indexer
	publisher JobPublisher
	uploadDir string
	log       *logrus.Logger
}

func NewService(repo *Repo, jobs *ingest.JobRepo, indexer Indexer, publisher JobPublisher, uploadDir string, log *logrus.Logger) *Service {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Service{
		repo:      repo,
		jobs:      jobs,
		indexer:   indexer,
		publisher: publisher,
		uploadDir: uploadDir,
		log:       log,
	}
}

// Upload validates, stores, and indexes one document. Unsupported extensions
// are rejected before anything touches disk or the database.
func (s *Service) Upload(ctx context.Context, filename string, r io.Reader) (*File, error) {
	name := filepath.Base(filename)
	if !ingest.SupportedExt(name) {
		return nil, ingest.ErrUnsupportedType
	}

	if err := os.MkdirAll(s.uploadDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating upload dir: %w", err)
	}
	dest := filepath.Join(s.uploadDir, name)

	// Re-uploading a name replaces the file on disk and adds fresh vector
	// entries, but entries indexed from the previous contents are not
	// removed. Queries may keep surfacing stale excerpts until a reindex.
	if prior, err := s.repo.FindByFilename(ctx, name); err == nil && len(prior) > 0 {
		s.log.WithField("filename", name).Warn("re-upload leaves previous vector entries in the index")
	}

	if err := writeFile(dest, r); err != nil {
		return nil, err
	}

	chunks, err := s.indexer.Process(ctx, dest)
	if err != nil {
		return nil, fmt.Errorf("indexing %s: %w", name, err)
	}

	f := &File{Filename: name, Filepath: dest}
	if err := s.repo.Create(ctx, f); err != nil {
		return nil, err
	}
	s.log.WithFields(logrus.Fields{
		"filename": name,
		"chunks":   chunks,
	}).Info("file uploaded")
	return f, nil
}

func writeFile(dest string, r io.Reader) error {
	out, err := os.Create(dest)
	if err != nil {
		return fmt.Errorf("saving upload: %w", err)
	}
	if _, err := io.Copy(out, r); err != nil {
		out.Close()
		os.Remove(dest)
		return fmt.Errorf("saving upload: %w", err)
	}
	return out.Close()
}

// List returns all uploaded files, newest first.
func (s *Service) List(ctx context.Context) ([]File, error) {
	return s.repo.List(ctx)
}

// Reindex queues one ingest job per known file and returns the queued jobs.
func (s *Service) Reindex(ctx context.Context) ([]ingest.Job, error) {
	if s.publisher == nil {
		return nil, fmt.Errorf("no job queue configured")
	}

	all, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}

	jobs := make([]ingest.Job, 0, len(all))
	for _, f := range all {
		id, err := common.NewULID()
		if err != nil {
			return jobs, err
		}
		job := &ingest.Job{
			ID:       id,
			FileID:   f.ID,
			Filepath: f.Filepath,
			Status:   ingest.JobQueued,
		}
		if err := s.jobs.Create(ctx, job); err != nil {
			return jobs, err
		}
		if err := s.publisher.PublishJob(ctx, job.ID); err != nil {
			if markErr := s.jobs.MarkFailed(ctx, job.ID, "publish failed: "+err.Error()); markErr != nil {
				s.log.WithError(markErr).Error("marking job failed")
			}
			return jobs, fmt.Errorf("publishing job %s: %w", job.ID, err)
		}
		jobs = append(jobs, *job)
	}
	s.log.WithField("jobs", len(jobs)).Info("reindex queued")
	return jobs, nil
}

// JobStatus looks up one ingest job by id.
func (s *Service) JobStatus(ctx context.Context, id string) (*ingest.Job, error) {
	return s.jobs.GetByID(ctx, id)
}
