// Package ledger records rendered report files and serves them back until
// they expire.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"memberreports/internal/apperr"
	"memberreports/internal/logger"
	"memberreports/internal/model"
)

// DefaultTTL is how long a generated file stays downloadable.
const DefaultTTL = 7 * 24 * time.Hour

// ErrBlobMissing is returned by a BlobStore when no bytes exist at a path.
var ErrBlobMissing = errors.New("blob missing")

// Store persists ledger entries.
type Store interface {
	Insert(ctx context.Context, f model.GeneratedFile) error
	Get(ctx context.Context, fileID string) (model.GeneratedFile, error)
	// IncrementDownloads bumps download_count and returns the new value.
	IncrementDownloads(ctx context.Context, fileID string) (int, error)
	// ListByOwner returns the owner's entries with expires_at >= liveAt,
	// newest first.
	ListByOwner(ctx context.Context, owner string, liveAt time.Time) ([]model.GeneratedFile, error)
	// ListExpired returns entries with expires_at < now.
	ListExpired(ctx context.Context, now time.Time) ([]model.GeneratedFile, error)
	Delete(ctx context.Context, fileID string) error
}

// BlobStore holds file bytes. Put never rewrites an existing path in place.
type BlobStore interface {
	Put(ctx context.Context, key string, data []byte) (string, error)
	Get(ctx context.Context, path string) ([]byte, error)
	// Delete removes the bytes at path; a missing path is not an error.
	Delete(ctx context.Context, path string) error
}

// RecordInput describes a file that was fully rendered and stored.
type RecordInput struct {
	FileID      string
	ReportID    string
	Filename    string
	FilePath    string
	Parameters  map[string]string
	Format      model.OutputFormat
	GeneratedBy string
	FileSize    int64
}

// Download is a resolved file.
type Download struct {
	File        model.GeneratedFile
	Bytes       []byte
	ContentType string
}

// Service enforces expiry on top of a Store and a BlobStore.
type Service struct {
	store Store
	blobs BlobStore
	ttl   time.Duration
	now   func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithTTL overrides DefaultTTL.
func WithTTL(ttl time.Duration) Option {
	return func(s *Service) {
		if ttl > 0 {
			s.ttl = ttl
		}
	}
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// NewService creates a ledger.
func NewService(store Store, blobs BlobStore, opts ...Option) *Service {
	s := &Service{store: store, blobs: blobs, ttl: DefaultTTL, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Blobs exposes the blob store so callers can write bytes before recording.
func (s *Service) Blobs() BlobStore { return s.blobs }

// NewFileID returns a fresh globally unique file id.
func NewFileID() string { return uuid.NewString() }

// Record stores the entry with a fresh expiry and zero downloads.
func (s *Service) Record(ctx context.Context, in RecordInput) (model.GeneratedFile, error) {
	if in.FileID == "" {
		in.FileID = NewFileID()
	}
	now := s.now()
	f := model.GeneratedFile{
		FileID:        in.FileID,
		ReportID:      in.ReportID,
		Filename:      in.Filename,
		FilePath:      in.FilePath,
		Parameters:    in.Parameters,
		OutputFormat:  in.Format,
		GeneratedAt:   now,
		GeneratedBy:   in.GeneratedBy,
		ExpiresAt:     now.Add(s.ttl),
		FileSize:      in.FileSize,
		DownloadCount: 0,
	}
	if f.Parameters == nil {
		f.Parameters = map[string]string{}
	}
	if err := s.store.Insert(ctx, f); err != nil {
		return model.GeneratedFile{}, fmt.Errorf("record file %s: %w", f.FileID, err)
	}
	return f, nil
}

// Resolve returns the bytes of a live file and counts the download.
// An expired entry is never served, even when its bytes still exist.
func (s *Service) Resolve(ctx context.Context, fileID string) (Download, error) {
	f, err := s.store.Get(ctx, fileID)
	if err != nil {
		return Download{}, fmt.Errorf("file %s: %w", fileID, err)
	}
	if f.Expired(s.now()) {
		return Download{}, fmt.Errorf("file %s: %w", fileID, apperr.ErrExpired)
	}
	data, err := s.blobs.Get(ctx, f.FilePath)
	if errors.Is(err, ErrBlobMissing) {
		return Download{}, fmt.Errorf("file %s: %w", fileID, apperr.ErrGone)
	}
	if err != nil {
		return Download{}, fmt.Errorf("read file %s: %w", fileID, err)
	}
	count, err := s.store.IncrementDownloads(ctx, fileID)
	if err != nil {
		return Download{}, fmt.Errorf("count download %s: %w", fileID, err)
	}
	f.DownloadCount = count
	return Download{File: f, Bytes: data, ContentType: model.ContentTypeFor(f.Filename)}, nil
}

// ListForOwner returns the owner's unexpired files, newest first.
func (s *Service) ListForOwner(ctx context.Context, owner string) ([]model.GeneratedFile, error) {
	files, err := s.store.ListByOwner(ctx, owner, s.now())
	if err != nil {
		return nil, fmt.Errorf("list files for %s: %w", owner, err)
	}
	return files, nil
}

// Purge removes an expired entry and its bytes. It returns false without
// touching anything when the entry is still live.
func (s *Service) Purge(ctx context.Context, fileID string) (bool, error) {
	f, err := s.store.Get(ctx, fileID)
	if errors.Is(err, apperr.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("purge %s: %w", fileID, err)
	}
	if !f.Expired(s.now()) {
		return false, nil
	}
	return true, s.remove(ctx, f)
}

// Sweep purges every expired entry and returns how many were removed.
func (s *Service) Sweep(ctx context.Context) (int, error) {
	expired, err := s.store.ListExpired(ctx, s.now())
	if err != nil {
		return 0, fmt.Errorf("list expired: %w", err)
	}
	removed := 0
	for _, f := range expired {
		if err := ctx.Err(); err != nil {
			return removed, err
		}
		if err := s.remove(ctx, f); err != nil {
			logger.Warn("sweep failed", "file_id", f.FileID, "err", err)
			continue
		}
		removed++
	}
	if removed > 0 {
		logger.Info("expired report files swept", "count", removed)
	}
	return removed, nil
}

func (s *Service) remove(ctx context.Context, f model.GeneratedFile) error {
	if err := s.blobs.Delete(ctx, f.FilePath); err != nil {
		return fmt.Errorf("delete bytes of %s: %w", f.FileID, err)
	}
	if err := s.store.Delete(ctx, f.FileID); err != nil && !errors.Is(err, apperr.ErrNotFound) {
		return fmt.Errorf("delete record %s: %w", f.FileID, err)
	}
	return nil
}
